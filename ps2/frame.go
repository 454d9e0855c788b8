package ps2

// PS/2 frames are 11 bits on the wire: a zero start bit, eight data bits
// LSB-first, an odd parity bit and a one stop bit. Frames are passed to the
// transport as a uint16 with the start bit at bit 0 and the stop bit at
// bit 10.

// ParityOf returns the odd parity bit for b.
func ParityOf(b byte) byte {
	p := byte(1)
	for i := 0; i < 8; i++ {
		p ^= (b >> i) & 1
	}
	return p
}

// Frame encodes b as an 11-bit PS/2 frame.
func Frame(b byte) uint16 {
	return 1<<10 | uint16(ParityOf(b))<<9 | uint16(b)<<1
}

// FrameData decodes the data byte and parity bit from an 11-bit frame.
func FrameData(f uint16) (data byte, parity byte) {
	return byte(f >> 1), byte(f>>9) & 1
}
