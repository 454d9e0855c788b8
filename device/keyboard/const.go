package keyboard

import "time"

// Modifier bitmasks (USB HID boot report byte 0 bit order).
const (
	ModLeftCtrl   = 0x01
	ModLeftShift  = 0x02
	ModLeftAlt    = 0x04
	ModLeftGUI    = 0x08
	ModRightCtrl  = 0x10
	ModRightShift = 0x20
	ModRightAlt   = 0x40
	ModRightGUI   = 0x80
)

// LED bitmasks (USB HID LED page bit order).
const (
	LEDNumLock    = 0x01
	LEDCapsLock   = 0x02
	LEDScrollLock = 0x04
)

// HID usage codes for keyboard keys (USB HID Keyboard/Keypad usage page).
// The scancode table below is indexed by these values.
const (
	KeyA = 0x04
	KeyB = 0x05
	KeyC = 0x06
	KeyD = 0x07
	KeyE = 0x08
	KeyF = 0x09
	KeyG = 0x0A
	KeyH = 0x0B
	KeyI = 0x0C
	KeyJ = 0x0D
	KeyK = 0x0E
	KeyL = 0x0F
	KeyM = 0x10
	KeyN = 0x11
	KeyO = 0x12
	KeyP = 0x13
	KeyQ = 0x14
	KeyR = 0x15
	KeyS = 0x16
	KeyT = 0x17
	KeyU = 0x18
	KeyV = 0x19
	KeyW = 0x1A
	KeyX = 0x1B
	KeyY = 0x1C
	KeyZ = 0x1D

	Key1 = 0x1E
	Key2 = 0x1F
	Key3 = 0x20
	Key4 = 0x21
	Key5 = 0x22
	Key6 = 0x23
	Key7 = 0x24
	Key8 = 0x25
	Key9 = 0x26
	Key0 = 0x27

	KeyEnter      = 0x28
	KeyEscape     = 0x29
	KeyBackspace  = 0x2A
	KeyTab        = 0x2B
	KeySpace      = 0x2C
	KeyMinus      = 0x2D
	KeyEqual      = 0x2E
	KeyLeftBrace  = 0x2F
	KeyRightBrace = 0x30
	KeyBackslash  = 0x31
	KeyEurope1    = 0x32
	KeySemicolon  = 0x33
	KeyApostrophe = 0x34
	KeyGrave      = 0x35
	KeyComma      = 0x36
	KeyPeriod     = 0x37
	KeySlash      = 0x38
	KeyCapsLock   = 0x39

	KeyF1  = 0x3A
	KeyF2  = 0x3B
	KeyF3  = 0x3C
	KeyF4  = 0x3D
	KeyF5  = 0x3E
	KeyF6  = 0x3F
	KeyF7  = 0x40
	KeyF8  = 0x41
	KeyF9  = 0x42
	KeyF10 = 0x43
	KeyF11 = 0x44
	KeyF12 = 0x45

	KeyPrintScreen = 0x46
	KeyScrollLock  = 0x47
	KeyPause       = 0x48
	KeyInsert      = 0x49
	KeyHome        = 0x4A
	KeyPageUp      = 0x4B
	KeyDelete      = 0x4C
	KeyEnd         = 0x4D
	KeyPageDown    = 0x4E
	KeyRight       = 0x4F
	KeyLeft        = 0x50
	KeyDown        = 0x51
	KeyUp          = 0x52

	KeyNumLock    = 0x53
	KeyKpSlash    = 0x54
	KeyKpAsterisk = 0x55
	KeyKpMinus    = 0x56
	KeyKpPlus     = 0x57
	KeyKpEnter    = 0x58
	KeyKp1        = 0x59
	KeyKp2        = 0x5A
	KeyKp3        = 0x5B
	KeyKp4        = 0x5C
	KeyKp5        = 0x5D
	KeyKp6        = 0x5E
	KeyKp7        = 0x5F
	KeyKp8        = 0x60
	KeyKp9        = 0x61
	KeyKp0        = 0x62
	KeyKpDot      = 0x63
	KeyEurope2    = 0x64

	KeyApplication = 0x65
	KeyPower       = 0x66
	KeyKpEqual     = 0x67

	KeyF13 = 0x68
	KeyF14 = 0x69
	KeyF15 = 0x6A
	KeyF16 = 0x6B
	KeyF17 = 0x6C
	KeyF18 = 0x6D
	KeyF19 = 0x6E
	KeyF20 = 0x6F
	KeyF21 = 0x70
	KeyF22 = 0x71
	KeyF23 = 0x72
	KeyF24 = 0x73

	KeyLeftCtrl   = 0xE0
	KeyLeftShift  = 0xE1
	KeyLeftAlt    = 0xE2
	KeyLeftGUI    = 0xE3
	KeyRightCtrl  = 0xE4
	KeyRightShift = 0xE5
	KeyRightAlt   = 0xE6
	KeyRightGUI   = 0xE7
)

// Host command bytes interpreted by the keyboard state machine.
const (
	cmdSetLEDs      = 0xED
	cmdEcho         = 0xEE
	cmdScancodeSet  = 0xF0
	cmdIdentify     = 0xF2
	cmdSetTypematic = 0xF3
	cmdEnable       = 0xF4
	cmdDisable      = 0xF5
	cmdSetDefaults  = 0xF6
	cmdReset        = 0xFF
)

// Scancode Set 2 markers and the identify reply bytes.
const (
	prefixExtended = 0xE0
	prefixBreak    = 0xF0
	identByte1     = 0xAB
	identByte2     = 0x83
)

// hid2ps2 maps HID usage ids 0x00-0x73 to Scancode Set 2 make codes.
var hid2ps2 = [0x74]byte{
	0x00, 0x00, 0xfc, 0x00, 0x1c, 0x32, 0x21, 0x23, 0x24, 0x2b, 0x34, 0x33, 0x43, 0x3b, 0x42, 0x4b,
	0x3a, 0x31, 0x44, 0x4d, 0x15, 0x2d, 0x1b, 0x2c, 0x3c, 0x2a, 0x1d, 0x22, 0x35, 0x1a, 0x16, 0x1e,
	0x26, 0x25, 0x2e, 0x36, 0x3d, 0x3e, 0x46, 0x45, 0x5a, 0x76, 0x66, 0x0d, 0x29, 0x4e, 0x55, 0x54,
	0x5b, 0x5d, 0x5d, 0x4c, 0x52, 0x0e, 0x41, 0x49, 0x4a, 0x58, 0x05, 0x06, 0x04, 0x0c, 0x03, 0x0b,
	0x83, 0x0a, 0x01, 0x09, 0x78, 0x07, 0x7c, 0x7e, 0x7e, 0x70, 0x6c, 0x7d, 0x71, 0x69, 0x7a, 0x74,
	0x6b, 0x72, 0x75, 0x77, 0x4a, 0x7c, 0x7b, 0x79, 0x5a, 0x69, 0x72, 0x7a, 0x6b, 0x73, 0x74, 0x6c,
	0x75, 0x7d, 0x70, 0x71, 0x61, 0x2f, 0x37, 0x0f, 0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38, 0x40,
	0x48, 0x50, 0x57, 0x5f,
}

// mod2ps2 maps modifier usages (KeyLeftCtrl..KeyRightGUI) to Set 2 make codes.
var mod2ps2 = [8]byte{0x14, 0x12, 0x11, 0x1f, 0x14, 0x59, 0x11, 0x27}

// led2ps2 remaps the host's PS/2 LED bitmap (scroll/num/caps bit order) to
// the USB HID LED bit order (num/caps/scroll), indexed by the raw value.
var led2ps2 = [8]byte{0, 4, 1, 5, 2, 6, 3, 7}

// typematicIntervals are the 32 host-selectable repeat intervals.
var typematicIntervals = [32]time.Duration{
	33333 * time.Microsecond, 37453 * time.Microsecond, 41667 * time.Microsecond, 45872 * time.Microsecond,
	48309 * time.Microsecond, 54054 * time.Microsecond, 58480 * time.Microsecond, 62500 * time.Microsecond,
	66667 * time.Microsecond, 75188 * time.Microsecond, 83333 * time.Microsecond, 91743 * time.Microsecond,
	100000 * time.Microsecond, 108696 * time.Microsecond, 116279 * time.Microsecond, 125000 * time.Microsecond,
	133333 * time.Microsecond, 149254 * time.Microsecond, 166667 * time.Microsecond, 181818 * time.Microsecond,
	200000 * time.Microsecond, 217391 * time.Microsecond, 232558 * time.Microsecond, 250000 * time.Microsecond,
	270270 * time.Microsecond, 303030 * time.Microsecond, 333333 * time.Microsecond, 370370 * time.Microsecond,
	400000 * time.Microsecond, 434783 * time.Microsecond, 476190 * time.Microsecond, 500000 * time.Microsecond,
}

// typematicDelays are the 4 host-selectable delays before the first repeat.
var typematicDelays = [4]time.Duration{
	250 * time.Millisecond, 500 * time.Millisecond, 750 * time.Millisecond, 1000 * time.Millisecond,
}

const (
	defaultTypematicDelay    = 500 * time.Millisecond
	defaultTypematicInterval = 91743 * time.Microsecond

	// startupDelay is how long after power-on the self-test result is sent,
	// mimicking a real keyboard's BAT time. The same delay applies to a
	// host-commanded reset.
	startupDelay = 500 * time.Millisecond
)
