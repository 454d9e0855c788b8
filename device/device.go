// Package device provides the normalized input event contracts shared by the
// HID dispatcher and the PS/2 protocol state machines.
package device

// KeySink consumes normalized keyboard events. usage is a USB HID
// Keyboard/Keypad page usage id (modifiers are 0xE0-0xE7).
type KeySink interface {
	Key(usage uint8, pressed bool)
}

// PointerSink consumes normalized pointer events. buttons is a 5-bit bitmap
// (left/right/middle/back/forward); deltas are relative.
type PointerSink interface {
	Motion(buttons uint8, dx, dy, wheel int8)
}

// Indicator is the status-LED collaborator. SetConnected reflects which
// device classes are mounted; BlinkActivity signals key or button activity.
type Indicator interface {
	SetConnected(keyboard, mouse bool)
	BlinkActivity()
}

// NopIndicator is an Indicator that does nothing.
type NopIndicator struct{}

func (NopIndicator) SetConnected(keyboard, mouse bool) {}
func (NopIndicator) BlinkActivity()                    {}
