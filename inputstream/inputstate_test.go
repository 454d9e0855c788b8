package inputstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyboardStateWireLayout(t *testing.T) {
	st := KeyboardState{Modifiers: 0x22, Keys: [6]uint8{0x04, 0x05, 0x1d}}
	b, err := st.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x22, 0x00, 0x04, 0x05, 0x1d, 0x00, 0x00, 0x00}, b)

	var got KeyboardState
	require.NoError(t, got.UnmarshalBinary(b))
	assert.Equal(t, st, got)

	assert.Error(t, got.UnmarshalBinary(b[:5]))
}

func TestMouseStateWireLayout(t *testing.T) {
	st := MouseState{Buttons: 0x01, DX: -1, DY: 5, Wheel: -3}
	b, err := st.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0xff, 0x05, 0xfd, 0x00, 0x00}, b)

	var got MouseState
	require.NoError(t, got.UnmarshalBinary(b))
	assert.Equal(t, st, got)

	assert.Error(t, got.UnmarshalBinary(b[:3]))
}
