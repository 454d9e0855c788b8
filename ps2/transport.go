package ps2

// Transport clocks individual frames onto a PS/2-style two-wire bus. It is
// the boundary to the waveform-generation hardware (or a test double) and is
// treated as a black box by the link layer.
type Transport interface {
	// Transmit hands an 11-bit frame to the bus. It must not block.
	Transmit(frame uint16)

	// Receive returns the next byte clocked in by the host together with
	// its parity bit. ok is false when nothing is pending.
	Receive() (data byte, parity byte, ok bool)

	// IsBusy reports whether a frame is currently being clocked out.
	IsBusy() bool

	// LastTransmitFailed reports whether the most recent frame was aborted
	// by the host (clock pulled low mid-frame). Reading clears the flag.
	LastTransmitFailed() bool

	// LinesIdle reports whether both clock and data are released high.
	// Transmission must only start on an idle bus.
	LinesIdle() bool
}
