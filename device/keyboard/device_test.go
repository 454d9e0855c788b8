package keyboard

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Alia5/HECATE/ps2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	kb   *Keyboard
	tr   *ps2.Loopback
	base time.Time
}

func newRawFixture(t *testing.T) *fixture {
	t.Helper()
	tr := ps2.NewLoopback()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	link := ps2.NewLink(tr, "keyboard", logger, nil)
	kb := New(link, logger)
	f := &fixture{kb: kb, tr: tr, base: time.Now()}
	// First poll arms the startup self-test without firing it.
	kb.Poll(f.base)
	return f
}

// newFixture returns a keyboard that has completed its self-test, with the
// result byte already drained.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := newRawFixture(t)
	f.kb.Poll(f.base.Add(startupDelay))
	require.Equal(t, []byte{ps2.SelfTestPassed}, f.flush(1))
	return f
}

// flush polls enough cycles to clock out n bytes and returns them.
func (f *fixture) flush(n int) []byte {
	for i := 0; i < n*110+10; i++ {
		f.kb.Poll(f.base)
	}
	return f.tr.TakeSent()
}

func TestSelfTestAfterStartup(t *testing.T) {
	f := newRawFixture(t)

	assert.Empty(t, f.flush(1))

	f.kb.Poll(f.base.Add(startupDelay))
	assert.Equal(t, []byte{ps2.SelfTestPassed}, f.flush(1))
	assert.True(t, f.kb.Scanning())
}

func TestKeyMakeBreak(t *testing.T) {
	type testCase struct {
		name          string
		usage         uint8
		expectedMake  []byte
		expectedBreak []byte
	}

	testCases := []testCase{
		{name: "letter", usage: KeyA, expectedMake: []byte{0x1c}, expectedBreak: []byte{0xf0, 0x1c}},
		{name: "enter", usage: KeyEnter, expectedMake: []byte{0x5a}, expectedBreak: []byte{0xf0, 0x5a}},
		{name: "arrow up is extended", usage: KeyUp, expectedMake: []byte{0xe0, 0x75}, expectedBreak: []byte{0xe0, 0xf0, 0x75}},
		{name: "keypad enter is extended", usage: KeyKpEnter, expectedMake: []byte{0xe0, 0x5a}, expectedBreak: []byte{0xe0, 0xf0, 0x5a}},
		{name: "left shift", usage: KeyLeftShift, expectedMake: []byte{0x12}, expectedBreak: []byte{0xf0, 0x12}},
		{name: "right ctrl is extended", usage: KeyRightCtrl, expectedMake: []byte{0xe0, 0x14}, expectedBreak: []byte{0xe0, 0xf0, 0x14}},
		{name: "right shift is not extended", usage: KeyRightShift, expectedMake: []byte{0x59}, expectedBreak: []byte{0xf0, 0x59}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)

			f.kb.Key(tc.usage, true)
			assert.Equal(t, tc.expectedMake, f.flush(3))

			f.kb.Key(tc.usage, false)
			assert.Equal(t, tc.expectedBreak, f.flush(3))
		})
	}
}

func TestKeyOutOfRangeIgnored(t *testing.T) {
	f := newFixture(t)

	f.kb.Key(0x74, true)
	f.kb.Key(0x80, true)
	f.kb.Key(0x03, true)

	assert.Empty(t, f.flush(2))
}

func TestPauseSequences(t *testing.T) {
	f := newFixture(t)

	f.kb.Key(KeyPause, true)
	assert.Equal(t, []byte{0xe1, 0x14, 0x77, 0xe1, 0xf0, 0x14, 0xf0, 0x77}, f.flush(8))

	// Pause has no break code.
	f.kb.Key(KeyPause, false)
	assert.Empty(t, f.flush(2))

	// With Ctrl held the Break sequence is sent instead.
	f.kb.Key(KeyLeftCtrl, true)
	f.flush(2)
	f.kb.Key(KeyPause, true)
	assert.Equal(t, []byte{0xe0, 0x7e, 0xe0, 0xf0, 0x7e}, f.flush(5))
}

func TestTypematicRepeat(t *testing.T) {
	f := newFixture(t)

	press := time.Now()
	f.kb.Key(KeyA, true)
	require.Equal(t, []byte{0x1c}, f.flush(2))

	// No repeat before the delay elapses.
	f.kb.Poll(press.Add(100 * time.Millisecond))
	assert.Empty(t, f.flush(1))

	f.kb.Poll(press.Add(defaultTypematicDelay + 100*time.Millisecond))
	assert.Equal(t, []byte{0x1c}, f.flush(2))

	// Release disarms.
	f.kb.Key(KeyA, false)
	require.Equal(t, []byte{0xf0, 0x1c}, f.flush(2))
	f.kb.Poll(press.Add(10 * time.Second))
	assert.Empty(t, f.flush(1))
}

func TestTypematicRearmSwitchesKey(t *testing.T) {
	f := newFixture(t)

	press := time.Now()
	f.kb.Key(KeyA, true)
	f.kb.Key(KeyB, true)
	f.flush(4)

	// Only the most recent key repeats.
	f.kb.Poll(press.Add(defaultTypematicDelay + 100*time.Millisecond))
	assert.Equal(t, []byte{0x32}, f.flush(2))

	// Releasing the superseded key does not disarm the repeat.
	f.kb.Key(KeyA, false)
	f.flush(2)
	f.kb.Poll(press.Add(defaultTypematicDelay + defaultTypematicInterval + 300*time.Millisecond))
	assert.Equal(t, []byte{0x32}, f.flush(2))
}

func TestHostSetLEDs(t *testing.T) {
	f := newFixture(t)

	var got []LEDState
	f.kb.SetLEDCallback(func(st LEDState) { got = append(got, st) })

	f.kb.HostCommand(cmdSetLEDs, 0)
	assert.Equal(t, []byte{ps2.Ack}, f.flush(1))

	f.kb.HostCommand(0x07, cmdSetLEDs)
	assert.Equal(t, []byte{ps2.Ack}, f.flush(1))

	require.Len(t, got, 1)
	assert.Equal(t, LEDState{NumLock: true, CapsLock: true, ScrollLock: true}, got[0])
	assert.Equal(t, got[0], f.kb.LEDState())

	// PS/2 bit order differs from the HID order reported outward.
	f.kb.HostCommand(cmdSetLEDs, 0)
	f.kb.HostCommand(0x01, cmdSetLEDs) // scroll lock only on the wire
	f.flush(2)
	assert.Equal(t, LEDState{ScrollLock: true}, f.kb.LEDState())
}

func TestHostEcho(t *testing.T) {
	f := newFixture(t)

	f.kb.HostCommand(cmdEcho, 0)
	assert.Equal(t, []byte{cmdEcho}, f.flush(1))
}

func TestHostIdentify(t *testing.T) {
	f := newFixture(t)

	f.kb.HostCommand(cmdIdentify, 0)
	assert.Equal(t, []byte{ps2.Ack, identByte1, identByte2}, f.flush(3))
}

func TestHostDisableEnable(t *testing.T) {
	f := newFixture(t)

	f.kb.HostCommand(cmdDisable, 0)
	assert.Equal(t, []byte{ps2.Ack}, f.flush(1))
	assert.False(t, f.kb.Scanning())

	f.kb.Key(KeyA, true)
	assert.Empty(t, f.flush(1))

	f.kb.HostCommand(cmdEnable, 0)
	assert.Equal(t, []byte{ps2.Ack}, f.flush(1))
	assert.True(t, f.kb.Scanning())

	f.kb.Key(KeyA, true)
	assert.Equal(t, []byte{0x1c}, f.flush(1))
}

func TestHostReset(t *testing.T) {
	f := newFixture(t)

	var got []LEDState
	f.kb.SetLEDCallback(func(st LEDState) { got = append(got, st) })

	start := time.Now()
	f.kb.HostCommand(cmdReset, 0)
	assert.Equal(t, []byte{ps2.Ack}, f.flush(1))
	assert.False(t, f.kb.Scanning())

	// All LEDs lit while the self-test runs.
	require.Len(t, got, 1)
	assert.Equal(t, LEDState{NumLock: true, CapsLock: true, ScrollLock: true}, got[0])

	f.kb.Poll(start.Add(startupDelay + 100*time.Millisecond))
	assert.Equal(t, []byte{ps2.SelfTestPassed}, f.flush(1))
	assert.True(t, f.kb.Scanning())

	require.Len(t, got, 2)
	assert.Equal(t, LEDState{}, got[1])
}

func TestHostSetTypematic(t *testing.T) {
	f := newFixture(t)

	f.kb.HostCommand(cmdSetTypematic, 0)
	f.kb.HostCommand(0x7f, cmdSetTypematic) // slowest: 1s delay, 500ms interval
	assert.Equal(t, []byte{ps2.Ack, ps2.Ack}, f.flush(2))

	press := time.Now()
	f.kb.Key(KeyA, true)
	require.Equal(t, []byte{0x1c}, f.flush(2))

	// The old default delay must not trigger a repeat anymore.
	f.kb.Poll(press.Add(600 * time.Millisecond))
	assert.Empty(t, f.flush(1))

	f.kb.Poll(press.Add(1100 * time.Millisecond))
	assert.Equal(t, []byte{0x1c}, f.flush(2))
}
