// Package ps2 implements the device side of the PS/2 link layer: byte
// framing with odd parity, a bounded outbound packet queue and the
// resend/NAK recovery rules, on top of a bit-clocking Transport.
package ps2

import (
	"log/slog"
	"sync"

	"github.com/Alia5/HECATE/internal/log"
)

// CommandSink receives host command bytes from a Link. prev is the byte
// received before b, so two-byte commands (command + parameter) can be
// decoded without additional buffering in the sink.
type CommandSink interface {
	HostCommand(b, prev byte)
}

type packet struct {
	len  uint8
	data [MaxPayload]byte
}

// Link is a per-port packet queue and framing engine. Packets are enqueued
// from protocol code and clocked out one byte per poll cycle; bytes from the
// host are parity-checked and dispatched to the bound CommandSink.
//
// Enqueue may be called from any goroutine; Poll is driven by the
// cooperative driver loop.
type Link struct {
	mu   sync.Mutex
	tr   Transport
	sink CommandSink

	queue [queueCapacity]packet
	head  int
	count int

	sent     uint8 // bytes of the head packet already transmitted
	lastTx   byte
	lastRx   byte
	busy     int // poll cycles left in the current byte window
	failures int // consecutive transmit failures of the current byte

	port   string
	logger *slog.Logger
	wire   log.WireLogger
}

// NewLink creates a Link for one PS/2 port. port names the port in logs
// ("keyboard" or "mouse"). The wire logger may be nil-equivalent; it traces
// every byte in both directions.
func NewLink(tr Transport, port string, logger *slog.Logger, wire log.WireLogger) *Link {
	return &Link{
		tr:     tr,
		port:   port,
		logger: logger.With("port", port),
		wire:   wire,
	}
}

// Bind registers the CommandSink invoked for received host bytes. It must be
// called once, before the first Poll.
func (l *Link) Bind(sink CommandSink) {
	l.mu.Lock()
	l.sink = sink
	l.mu.Unlock()
}

// Enqueue appends one packet of 1 to MaxPayload bytes to the outbound queue.
// The payload is copied. When the queue is full the packet is silently
// dropped: senders idempotently resend state on the next natural event, so
// loss here degrades latency, not correctness.
func (l *Link) Enqueue(payload ...byte) {
	if len(payload) == 0 || len(payload) > MaxPayload {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count == queueCapacity {
		l.logger.Debug("outbound queue full, packet dropped", "len", len(payload))
		return
	}
	p := &l.queue[(l.head+l.count)%queueCapacity]
	p.len = uint8(copy(p.data[:], payload))
	l.count++
}

// Busy reports whether a byte transmission is in flight.
func (l *Link) Busy() bool {
	l.mu.Lock()
	busy := l.busy > 0
	l.mu.Unlock()
	return busy || l.tr.IsBusy()
}

// Poll advances the link by one cycle: it transmits the next pending byte
// when the bus allows it, rewinds on transmit failure, and handles one
// received byte. It never blocks and must be called frequently.
func (l *Link) Poll() {
	deliver := false
	var rx, prev byte

	l.mu.Lock()

	hwBusy := l.tr.IsBusy()
	if l.busy > 0 {
		l.busy--
		if hwBusy {
			l.busy = 0
		}
	}

	if l.busy == 0 && !hwBusy && l.tr.LinesIdle() && l.count > 0 {
		pkt := &l.queue[l.head]
		if l.sent == pkt.len {
			l.head = (l.head + 1) % queueCapacity
			l.count--
			l.sent = 0
			l.failures = 0
		} else {
			b := pkt.data[l.sent]
			l.sent++
			l.lastTx = b
			l.busy = busyWindow
			if l.wire != nil {
				l.wire.Log(l.port, true, []byte{b})
			}
			l.tr.Transmit(Frame(b))
		}
	}

	if l.tr.LastTransmitFailed() {
		if l.sent > 0 {
			l.sent--
		}
		l.failures++
		if l.failures >= maxTransmitRetries {
			// The host keeps aborting this byte; drop the head packet so
			// the port does not wedge forever.
			l.logger.Warn("transmit retries exhausted, dropping packet",
				"byte", l.lastTx, "retries", l.failures)
			if l.count > 0 {
				l.head = (l.head + 1) % queueCapacity
				l.count--
			}
			l.sent = 0
			l.failures = 0
		}
	}

	if data, parity, ok := l.tr.Receive(); ok {
		if l.wire != nil {
			l.wire.Log(l.port, false, []byte{data})
		}
		switch {
		case ParityOf(data) != parity&1:
			// Corrupted command; ask the host to repeat it.
			l.logger.Debug("parity error on receive", "byte", data)
			l.tr.Transmit(Frame(Resend))

		case data == Resend:
			l.tr.Transmit(Frame(l.lastTx))

		default:
			// A host command pre-empts everything still queued.
			l.head = 0
			l.count = 0
			l.sent = 0
			prev = l.lastRx
			l.lastRx = data
			rx = data
			deliver = l.sink != nil
		}
	}

	sink := l.sink
	l.mu.Unlock()

	// The sink enqueues its reply, so it must run outside the lock.
	if deliver {
		sink.HostCommand(rx, prev)
	}
}
