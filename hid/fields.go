package hid

// Extract reads the item's field from a report payload. Fields may straddle
// byte boundaries and are at most 32 bits wide; the value is sign-extended
// when the item's logical minimum is negative. Bits beyond the end of the
// payload read as zero.
func (it ReportItem) Extract(payload []byte) int32 {
	size := it.BitSize
	if size == 0 || size > 32 {
		return 0
	}

	var v uint32
	for i := uint8(0); i < size; i++ {
		bit := it.BitOffset + uint32(i)
		idx := int(bit / 8)
		if idx >= len(payload) {
			break
		}
		if payload[idx]>>(bit%8)&1 == 1 {
			v |= 1 << i
		}
	}

	if it.LogicalMin < 0 && size < 32 && v&(1<<(size-1)) != 0 {
		v |= ^uint32(0) << size
	}
	return int32(v)
}
