// Package mouse implements the PS/2 mouse protocol state machine with
// IntelliMouse and IntelliMouse Explorer extensions, on top of one ps2.Link.
package mouse

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Alia5/HECATE/ps2"
)

// Mouse is the per-port mouse protocol instance. It implements
// device.PointerSink for normalized input events and ps2.CommandSink for
// host command bytes.
//
// Movement is accumulated between periodic flushes; nothing is lost except
// wheel residue beyond the 4-bit packet field, which is dropped each flush.
type Mouse struct {
	mu     sync.Mutex
	link   *ps2.Link
	logger *slog.Logger

	mode      Mode
	streaming bool
	moving    bool
	rate      uint8
	magic     uint32 // 24-bit shift register of recent sample-rate bytes

	buttons uint8
	dx, dy  int16
	dz      int8

	// Armed deadlines, re-evaluated each Poll. Zero means disarmed.
	sendAt  time.Time
	resetAt time.Time
	booted  bool
}

// New creates the mouse protocol instance on link and binds itself as the
// link's command sink. The power-on self-test reply is sent on first Poll.
func New(link *ps2.Link, logger *slog.Logger) *Mouse {
	m := &Mouse{
		link:   link,
		logger: logger.With("device", "mouse"),
		rate:   defaultSampleRate,
	}
	link.Bind(m)
	return m
}

// Mode returns the negotiated protocol mode.
func (m *Mouse) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Streaming reports whether data reporting is enabled.
func (m *Mouse) Streaming() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streaming
}

// SampleRate returns the host-configured sample rate in reports per second.
func (m *Mouse) SampleRate() uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rate
}

// Motion accumulates one normalized pointer event. Deltas add, the button
// bitmap replaces. Implements device.PointerSink.
func (m *Mouse) Motion(buttons uint8, dx, dy, wheel int8) {
	m.mu.Lock()
	m.buttons = buttons
	m.dx += int16(dx)
	m.dy += int16(dy)
	m.dz += wheel
	m.mu.Unlock()
}

func (m *Mouse) resetAccumLocked() {
	m.moving = false
	m.buttons = 0
	m.dx = 0
	m.dy = 0
	m.dz = 0
}

// clampByte clamps an accumulated delta to the wire-representable range.
// The result is the low byte of the clamped value; the sign travels in the
// packet's sign bit.
func clampByte(v int16) uint8 {
	if v < -255 {
		return 1
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// remainder is the part of an accumulated delta beyond the clamp, carried to
// the next flush cycle.
func remainder(v int16) int16 {
	if v < -255 {
		return v + 255
	}
	if v > 255 {
		return v - 255
	}
	return 0
}

func (m *Mouse) interval() time.Duration {
	rate := m.rate
	if rate == 0 {
		// A zero rate would stall the divider; treat it as 1 report/s.
		rate = 1
	}
	return time.Duration(1_000_000/int64(rate)) * time.Microsecond
}

// Poll drives the link, the pending reset reply and the periodic send.
func (m *Mouse) Poll(now time.Time) {
	m.link.Poll()

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.booted {
		m.booted = true
		m.link.Enqueue(ps2.SelfTestPassed, byte(m.mode))
	}

	if !m.resetAt.IsZero() && !now.Before(m.resetAt) {
		m.resetAt = time.Time{}
		m.link.Enqueue(ps2.SelfTestPassed, byte(m.mode))
	}

	if !m.sendAt.IsZero() && !now.Before(m.sendAt) {
		if !m.streaming {
			m.sendAt = time.Time{}
		} else if m.link.Busy() {
			m.sendAt = now.Add(m.interval())
		} else {
			m.flushLocked()
			m.sendAt = now.Add(m.interval())
		}
	}
}

// flushLocked encodes and enqueues one movement packet if there is anything
// to report. A single all-zero packet is sent when movement stops so the
// host sees the release.
func (m *Mouse) flushLocked() {
	if m.buttons == 0 && m.dx == 0 && m.dy == 0 && m.dz == 0 {
		if !m.moving {
			return
		}
		m.moving = false
	} else {
		m.moving = true
	}

	byte1 := uint8(0x08) | (m.buttons & 0x07)
	byte2 := clampByte(m.dx)
	byte3 := -clampByte(m.dy) // PS/2 y grows upward, HID downward
	byte4 := int8(-m.dz)

	if m.dx < 0 {
		byte1 |= 0x10
	}
	if m.dy > 0 {
		byte1 |= 0x20
	}
	// 0xAA would look like a self-test result to sloppy hosts.
	if byte2 == 0xaa {
		byte2 = 0xab
	}
	if byte3 == 0xaa {
		byte3 = 0xab
	}

	pkt := make([]byte, 0, 4)
	pkt = append(pkt, byte1, byte2, byte3)

	if m.mode == ModeIntelliMouse || m.mode == ModeExplorer {
		if byte4 < -8 {
			byte4 = -8
		}
		if byte4 > 7 {
			byte4 = 7
		}
		b4 := uint8(byte4)
		if m.mode == ModeExplorer {
			b4 &= 0x0f
			b4 |= (m.buttons << 1) & 0x30
		}
		pkt = append(pkt, b4)
	}

	m.dx = remainder(m.dx)
	m.dy = remainder(m.dy)
	m.dz = 0
	m.link.Enqueue(pkt...)
}

// HostCommand interprets one host byte, with prev providing the preceding
// byte for the Set Sample Rate parameter. Implements ps2.CommandSink.
func (m *Mouse) HostCommand(b, prev byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ack := true
	switch prev {
	case cmdSetSampleRate:
		m.rate = b
		m.magic = ((m.magic << 8) | uint32(b)) & 0xffffff

		if m.mode == ModeStandard && m.magic == magicIntelliMouse {
			m.mode = ModeIntelliMouse
			m.logger.Debug("mode promoted", "mode", m.mode.String())
		} else if m.mode == ModeIntelliMouse && m.magic == magicExplorer {
			m.mode = ModeExplorer
			m.logger.Debug("mode promoted", "mode", m.mode.String())
		}
		m.resetAccumLocked()

	default:
		switch b {
		case cmdReset:
			m.resetAt = time.Now().Add(resetDelay)
			m.mode = ModeStandard
			m.rate = defaultSampleRate
			m.streaming = false
			m.resetAccumLocked()

		case cmdSetDefaults:
			m.rate = defaultSampleRate
			m.streaming = false
			m.resetAccumLocked()

		case cmdDisable:
			m.streaming = false
			m.resetAccumLocked()

		case cmdEnable:
			m.streaming = true
			m.resetAccumLocked()
			m.sendAt = time.Now().Add(resetDelay)
			m.logger.Debug("streaming enabled", "rate", m.rate)

		case cmdGetDeviceID:
			m.link.Enqueue(ps2.Ack, byte(m.mode))
			m.resetAccumLocked()
			ack = false

		case cmdSetSampleRate:
			// Parameter byte follows; ACK and wait for it.

		case cmdReadData:
			m.moving = true

		case cmdStatusRequest:
			var streamBit byte
			if m.streaming {
				streamBit = 1 << 5
			}
			m.link.Enqueue(ps2.Ack, streamBit, resolutionByte, m.rate)
			ack = false

		default:
			m.resetAccumLocked()
		}
	}

	if ack {
		m.link.Enqueue(ps2.Ack)
	}
}
