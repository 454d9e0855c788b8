package ps2

import "sync"

// Loopback is an in-memory Transport. It clocks nothing: transmitted frames
// are decoded and collected, and host bytes injected with HostSend appear on
// Receive. It stands in for wire hardware when running without a PS/2 port
// and backs the protocol tests.
type Loopback struct {
	mu         sync.Mutex
	sent       []byte
	rx         []hostByte
	busy       bool
	idleLow    bool
	pendFail   int
	lastFailed bool
}

type hostByte struct {
	data   byte
	parity byte
}

// NewLoopback returns an idle, never-busy loopback transport.
func NewLoopback() *Loopback {
	return &Loopback{}
}

func (t *Loopback) Transmit(frame uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pendFail > 0 {
		// Host aborted the frame mid-clock; nothing reaches the wire.
		t.pendFail--
		t.lastFailed = true
		return
	}
	data, _ := FrameData(frame)
	t.sent = append(t.sent, data)
}

func (t *Loopback) Receive() (byte, byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.rx) == 0 {
		return 0, 0, false
	}
	hb := t.rx[0]
	t.rx = t.rx[1:]
	return hb.data, hb.parity, true
}

func (t *Loopback) IsBusy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.busy
}

func (t *Loopback) LastTransmitFailed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	failed := t.lastFailed
	t.lastFailed = false
	return failed
}

func (t *Loopback) LinesIdle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.idleLow
}

// HostSend queues a host byte with correct odd parity.
func (t *Loopback) HostSend(b byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rx = append(t.rx, hostByte{data: b, parity: ParityOf(b)})
}

// HostSendCorrupt queues a host byte with inverted parity.
func (t *Loopback) HostSendCorrupt(b byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rx = append(t.rx, hostByte{data: b, parity: ParityOf(b) ^ 1})
}

// Sent returns a copy of every data byte transmitted so far.
func (t *Loopback) Sent() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.sent...)
}

// TakeSent returns the transmitted bytes and clears the capture buffer.
func (t *Loopback) TakeSent() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.sent
	t.sent = nil
	return out
}

// FailNext makes the next n transmits abort as if the host pulled the clock
// low mid-frame.
func (t *Loopback) FailNext(n int) {
	t.mu.Lock()
	t.pendFail += n
	t.mu.Unlock()
}

// SetBusy forces the busy line state, for tests.
func (t *Loopback) SetBusy(busy bool) {
	t.mu.Lock()
	t.busy = busy
	t.mu.Unlock()
}

// SetLinesIdle forces the idle line state, for tests.
func (t *Loopback) SetLinesIdle(idle bool) {
	t.mu.Lock()
	t.idleLow = !idle
	t.mu.Unlock()
}
