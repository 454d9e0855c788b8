// Package keyboard implements the PS/2 keyboard protocol state machine:
// Scancode Set 2 translation, typematic repeat, LED feedback and the host
// command set, on top of one ps2.Link.
package keyboard

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Alia5/HECATE/ps2"
)

// LEDState represents the lock LEDs as commanded by the PS/2 host.
type LEDState struct {
	NumLock    bool
	CapsLock   bool
	ScrollLock bool
}

// Keyboard is the per-port keyboard protocol instance. It implements
// device.KeySink for normalized input events and ps2.CommandSink for host
// command bytes.
//
// Exactly one Keyboard exists per process; it is owned by the driver loop.
type Keyboard struct {
	mu     sync.Mutex
	link   *ps2.Link
	logger *slog.Logger

	enabled   bool
	modifiers uint8
	repeatKey uint8
	delay     time.Duration
	interval  time.Duration
	leds      uint8 // USB HID LED bit order

	// Armed deadlines, re-evaluated each Poll. Zero means disarmed;
	// overwriting is the cancel-on-rearm rule.
	repeatAt time.Time
	resetAt  time.Time
	booted   bool

	ledCallback func(LEDState)
}

// New creates the keyboard protocol instance on link and binds itself as the
// link's command sink. The self-test result byte is sent startupDelay after
// the first Poll.
func New(link *ps2.Link, logger *slog.Logger) *Keyboard {
	k := &Keyboard{
		link:     link,
		logger:   logger.With("device", "keyboard"),
		enabled:  true,
		delay:    defaultTypematicDelay,
		interval: defaultTypematicInterval,
	}
	link.Bind(k)
	return k
}

// SetLEDCallback sets a callback invoked whenever the host changes the lock
// LED state.
func (k *Keyboard) SetLEDCallback(f func(LEDState)) {
	k.mu.Lock()
	k.ledCallback = f
	k.mu.Unlock()
}

// LEDState returns the current lock LED state.
func (k *Keyboard) LEDState() LEDState {
	k.mu.Lock()
	defer k.mu.Unlock()
	return ledStateOf(k.leds)
}

func ledStateOf(leds uint8) LEDState {
	return LEDState{
		NumLock:    leds&LEDNumLock != 0,
		CapsLock:   leds&LEDCapsLock != 0,
		ScrollLock: leds&LEDScrollLock != 0,
	}
}

// Scanning reports whether the host currently has scanning enabled.
func (k *Keyboard) Scanning() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.enabled
}

func isModifier(usage uint8) bool {
	return usage >= KeyLeftCtrl && usage <= KeyRightGUI
}

// isExtended reports whether usage needs the 0xE0 prefix: the navigation
// cluster, keypad divide/enter, application/power and the right-hand
// modifiers except RightShift.
func isExtended(usage uint8) bool {
	return usage == KeyPrintScreen ||
		(usage >= KeyInsert && usage <= KeyUp) ||
		usage == KeyKpSlash ||
		usage == KeyKpEnter ||
		usage == KeyApplication ||
		usage == KeyPower ||
		(usage >= KeyLeftGUI && usage != KeyRightShift)
}

func (k *Keyboard) scancode(usage uint8) byte {
	if isModifier(usage) {
		return mod2ps2[usage-KeyLeftCtrl]
	}
	return hid2ps2[usage]
}

// Key translates one normalized key event into Set 2 bytes and enqueues
// them. A press (re)arms the typematic repeat for that key, cancelling any
// previously armed key; a release of the armed key disarms it.
func (k *Keyboard) Key(usage uint8, pressed bool) {
	k.mu.Lock()

	if isModifier(usage) {
		bit := uint8(1) << (usage - KeyLeftCtrl)
		if pressed {
			k.modifiers |= bit
		} else {
			k.modifiers &^= bit
		}
	} else if usage < KeyA || usage > KeyF24 {
		k.mu.Unlock()
		return
	}

	if !k.enabled {
		k.mu.Unlock()
		return
	}

	if usage == KeyPause {
		// Pause has no break code and never repeats.
		k.repeatKey = 0
		k.repeatAt = time.Time{}
		if pressed {
			if k.modifiers&(ModLeftCtrl|ModRightCtrl) != 0 {
				k.link.Enqueue(0xe0, 0x7e, 0xe0, 0xf0, 0x7e)
			} else {
				k.link.Enqueue(0xe1, 0x14, 0x77, 0xe1, 0xf0, 0x14, 0xf0, 0x77)
			}
		}
		k.mu.Unlock()
		return
	}

	seq := make([]byte, 0, 3)
	if isExtended(usage) {
		seq = append(seq, prefixExtended)
	}
	if pressed {
		k.repeatKey = usage
		k.repeatAt = time.Now().Add(k.delay)
	} else {
		if usage == k.repeatKey {
			k.repeatKey = 0
			k.repeatAt = time.Time{}
		}
		seq = append(seq, prefixBreak)
	}
	seq = append(seq, k.scancode(usage))
	k.link.Enqueue(seq...)

	k.mu.Unlock()
}

// Poll drives the link and the armed deadlines. It never blocks.
func (k *Keyboard) Poll(now time.Time) {
	k.link.Poll()

	var notify func(LEDState)
	var state LEDState

	k.mu.Lock()

	if !k.booted {
		k.booted = true
		k.resetAt = now.Add(startupDelay)
	}

	if !k.resetAt.IsZero() && !now.Before(k.resetAt) {
		k.resetAt = time.Time{}
		notify, state = k.setLEDsLocked(0)
		k.link.Enqueue(ps2.SelfTestPassed)
		k.enabled = true
	}

	if !k.repeatAt.IsZero() && !now.Before(k.repeatAt) {
		if k.repeatKey == 0 {
			k.repeatAt = time.Time{}
		} else {
			if k.enabled {
				seq := make([]byte, 0, 2)
				if isExtended(k.repeatKey) {
					seq = append(seq, prefixExtended)
				}
				seq = append(seq, k.scancode(k.repeatKey))
				k.link.Enqueue(seq...)
			}
			k.repeatAt = now.Add(k.interval)
		}
	}

	k.mu.Unlock()

	if notify != nil {
		notify(state)
	}
}

// setLEDsLocked applies a PS/2 LED bitmap and returns the callback to invoke
// once the state lock is released.
func (k *Keyboard) setLEDsLocked(ps2Bits byte) (func(LEDState), LEDState) {
	if ps2Bits > 7 {
		ps2Bits = 0
	}
	k.leds = led2ps2[ps2Bits]
	return k.ledCallback, ledStateOf(k.leds)
}

// HostCommand interprets one host byte, with prev providing the preceding
// byte for two-byte commands. Implements ps2.CommandSink.
func (k *Keyboard) HostCommand(b, prev byte) {
	var notify func(LEDState)
	var state LEDState

	k.mu.Lock()

	ack := true
	switch prev {
	case cmdSetLEDs:
		notify, state = k.setLEDsLocked(b)

	case cmdScancodeSet:
		// Only Set 2 is supported; acknowledge the selection regardless.

	case cmdSetTypematic:
		k.interval = typematicIntervals[b&0x1f]
		k.delay = typematicDelays[(b&0x60)>>5]

	default:
		switch b {
		case cmdReset:
			k.logger.Debug("reset requested")
			k.enabled = false
			k.interval = defaultTypematicInterval
			k.delay = defaultTypematicDelay
			notify, state = k.setLEDsLocked(7) // all LEDs lit during BAT
			k.resetAt = time.Now().Add(startupDelay)

		case cmdEcho:
			k.link.Enqueue(cmdEcho)
			ack = false

		case cmdSetLEDs, cmdScancodeSet, cmdSetTypematic:
			// Parameter byte follows; ACK and wait for it.

		case cmdIdentify:
			k.link.Enqueue(ps2.Ack, identByte1, identByte2)
			ack = false

		case cmdEnable:
			k.enabled = true

		case cmdDisable:
			k.enabled = false
			k.interval = defaultTypematicInterval
			k.delay = defaultTypematicDelay
			notify, state = k.setLEDsLocked(0)

		case cmdSetDefaults:
			k.interval = defaultTypematicInterval
			k.delay = defaultTypematicDelay
			notify, state = k.setLEDsLocked(0)

		default:
			k.logger.Debug("unknown host command", "byte", b)
		}
	}

	if ack {
		k.link.Enqueue(ps2.Ack)
	}

	k.mu.Unlock()

	if notify != nil {
		notify(state)
	}
}
