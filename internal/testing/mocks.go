// Package testing provides shared test doubles for the protocol and
// dispatcher packages.
package testing

import "sync"

// KeyEvent is one recorded KeySink call.
type KeyEvent struct {
	Usage   uint8
	Pressed bool
}

// RecordingKeys captures KeySink events in order.
type RecordingKeys struct {
	mu     sync.Mutex
	Events []KeyEvent
}

func (r *RecordingKeys) Key(usage uint8, pressed bool) {
	r.mu.Lock()
	r.Events = append(r.Events, KeyEvent{Usage: usage, Pressed: pressed})
	r.mu.Unlock()
}

func (r *RecordingKeys) Reset() {
	r.mu.Lock()
	r.Events = nil
	r.mu.Unlock()
}

// MotionEvent is one recorded PointerSink call.
type MotionEvent struct {
	Buttons uint8
	DX, DY  int8
	Wheel   int8
}

// RecordingPointer captures PointerSink events in order.
type RecordingPointer struct {
	mu     sync.Mutex
	Events []MotionEvent
}

func (r *RecordingPointer) Motion(buttons uint8, dx, dy, wheel int8) {
	r.mu.Lock()
	r.Events = append(r.Events, MotionEvent{Buttons: buttons, DX: dx, DY: dy, Wheel: wheel})
	r.mu.Unlock()
}

func (r *RecordingPointer) Reset() {
	r.mu.Lock()
	r.Events = nil
	r.mu.Unlock()
}

// RecordingIndicator captures Indicator state transitions.
type RecordingIndicator struct {
	mu       sync.Mutex
	Keyboard bool
	Mouse    bool
	SetCalls int
	Blinks   int
}

func (r *RecordingIndicator) SetConnected(keyboard, mouse bool) {
	r.mu.Lock()
	r.Keyboard, r.Mouse = keyboard, mouse
	r.SetCalls++
	r.mu.Unlock()
}

func (r *RecordingIndicator) BlinkActivity() {
	r.mu.Lock()
	r.Blinks++
	r.mu.Unlock()
}
