package mouse

import "time"

// Button bit masks for normalized pointer events and the Buttons accumulator.
const (
	Btn_Left    = 0x01
	Btn_Right   = 0x02
	Btn_Middle  = 0x04
	Btn_Back    = 0x08
	Btn_Forward = 0x10
)

// Mode is the negotiated mouse protocol level. The numeric value doubles as
// the device-id byte reported to the host.
type Mode uint8

const (
	ModeStandard     Mode = 0x00 // 3 buttons, no wheel
	ModeIntelliMouse Mode = 0x03 // wheel
	ModeExplorer     Mode = 0x04 // wheel + back/forward buttons
)

func (m Mode) String() string {
	switch m {
	case ModeStandard:
		return "standard"
	case ModeIntelliMouse:
		return "intellimouse"
	case ModeExplorer:
		return "intellimouse-explorer"
	}
	return "unknown"
}

// Host command bytes interpreted by the mouse state machine.
const (
	cmdStatusRequest = 0xE9
	cmdReadData      = 0xEB
	cmdGetDeviceID   = 0xF2
	cmdSetSampleRate = 0xF3
	cmdEnable        = 0xF4
	cmdDisable       = 0xF5
	cmdSetDefaults   = 0xF6
	cmdReset         = 0xFF
)

// Magic Set Sample Rate sequences that promote the protocol mode, matched
// against the low 24 bits of the rate-byte shift register.
const (
	magicIntelliMouse = 0xc86450 // 200, 100, 80
	magicExplorer     = 0xc8c850 // 200, 200, 80
)

const (
	defaultSampleRate = 100
	resolutionByte    = 0x02 // fixed 4 counts/mm, reported in status requests

	// resetDelay is the pause before the self-test reply to a host reset.
	// Enabling data reporting uses the same lead-in before the first
	// periodic flush.
	resetDelay = 100 * time.Millisecond
)
