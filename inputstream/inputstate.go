// Package inputstream carries normalized input events over TCP so a remote
// process can drive the converter instead of (or alongside) locally attached
// devices. Each message is one type byte followed by a fixed-size state
// snapshot; connections authenticate with a nonce/HMAC handshake and run
// ChaCha20-Poly1305 encrypted when a password is configured.
package inputstream

import "io"

// Message type bytes on the wire.
const (
	MsgKeyboard byte = 0x01
	MsgMouse    byte = 0x02
)

const (
	keyboardStateLen = 8
	mouseStateLen    = 6
)

// KeyboardState is a full keyboard snapshot in boot-report layout.
// hecate:wire keyboard c2s modifiers:u8 reserved:u8 keys:u8*6
type KeyboardState struct {
	// Modifier bitfield: bit 0-7 = LCtrl, LShift, LAlt, LGui, RCtrl, RShift, RAlt, RGui
	Modifiers uint8
	// Up to six concurrently held keys, HID usage codes, zero = empty slot
	Keys [6]uint8
}

// MarshalBinary encodes KeyboardState to the 8-byte boot layout.
func (st *KeyboardState) MarshalBinary() ([]byte, error) {
	b := make([]byte, keyboardStateLen)
	b[0] = st.Modifiers
	copy(b[2:], st.Keys[:])
	return b, nil
}

// UnmarshalBinary decodes 8 bytes into KeyboardState.
func (st *KeyboardState) UnmarshalBinary(data []byte) error {
	if len(data) < keyboardStateLen {
		return io.ErrUnexpectedEOF
	}
	st.Modifiers = data[0]
	copy(st.Keys[:], data[2:8])
	return nil
}

// MouseState is one relative motion sample.
// hecate:wire mouse c2s buttons:u8 dx:i8 dy:i8 wheel:i8 pad:u8*2
type MouseState struct {
	// Button bitfield: bit 0=Left, 1=Right, 2=Middle, 3=Back, 4=Forward
	Buttons uint8
	DX, DY  int8
	Wheel   int8
}

// MarshalBinary encodes MouseState to 6 bytes (two trailing pad bytes).
func (st *MouseState) MarshalBinary() ([]byte, error) {
	b := make([]byte, mouseStateLen)
	b[0] = st.Buttons
	b[1] = byte(st.DX)
	b[2] = byte(st.DY)
	b[3] = byte(st.Wheel)
	return b, nil
}

// UnmarshalBinary decodes 6 bytes into MouseState.
func (st *MouseState) UnmarshalBinary(data []byte) error {
	if len(data) < mouseStateLen {
		return io.ErrUnexpectedEOF
	}
	st.Buttons = data[0]
	st.DX = int8(data[1])
	st.DY = int8(data[2])
	st.Wheel = int8(data[3])
	return nil
}
