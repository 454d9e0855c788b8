// Package bridge assembles the converter: two PS/2 links with their
// keyboard and mouse protocol engines, the HID report dispatcher feeding
// them, and the cooperative driver loop polling everything.
package bridge

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Alia5/HECATE/device"
	"github.com/Alia5/HECATE/device/keyboard"
	"github.com/Alia5/HECATE/device/mouse"
	"github.com/Alia5/HECATE/hid"
	"github.com/Alia5/HECATE/internal/log"
	"github.com/Alia5/HECATE/ps2"
)

// Config holds the driver-loop settings.
type Config struct {
	PollInterval time.Duration `help:"Protocol poll interval." default:"1ms" env:"HECATE_POLL_INTERVAL"`
}

// Bridge owns both protocol instances and their driver loop. Input events
// reach it through the Dispatcher (from a USB host backend or the input
// stream server); host-side PS/2 traffic arrives through the transports.
type Bridge struct {
	config     Config
	keyboard   *keyboard.Keyboard
	mouse      *mouse.Mouse
	dispatcher *hid.Dispatcher
	logger     *slog.Logger

	stop      chan struct{}
	closeOnce sync.Once
}

// New wires a Bridge over the two per-port transports. indicator may be
// device.NopIndicator; wire may be a no-op WireLogger.
func New(config Config, kbdTransport, mouseTransport ps2.Transport, indicator device.Indicator, logger *slog.Logger, wire log.WireLogger) *Bridge {
	kbdLink := ps2.NewLink(kbdTransport, "keyboard", logger, wire)
	mouseLink := ps2.NewLink(mouseTransport, "mouse", logger, wire)

	kbd := keyboard.New(kbdLink, logger)
	ms := mouse.New(mouseLink, logger)

	return &Bridge{
		config:     config,
		keyboard:   kbd,
		mouse:      ms,
		dispatcher: hid.NewDispatcher(kbd, ms, indicator, logger),
		logger:     logger.With("component", "bridge"),
		stop:       make(chan struct{}),
	}
}

// Dispatcher returns the HID dispatcher input backends deliver into.
func (b *Bridge) Dispatcher() *hid.Dispatcher { return b.dispatcher }

// Keyboard returns the keyboard protocol instance.
func (b *Bridge) Keyboard() *keyboard.Keyboard { return b.keyboard }

// Mouse returns the mouse protocol instance.
func (b *Bridge) Mouse() *mouse.Mouse { return b.mouse }

// Run drives the poll loop until Close is called. Each tick polls both
// protocol engines, which in turn pump their links.
func (b *Bridge) Run() error {
	interval := b.config.PollInterval
	if interval <= 0 {
		interval = time.Millisecond
	}
	b.logger.Info("driver loop started", "poll_interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-b.stop:
			b.logger.Info("driver loop stopped")
			return nil
		case now := <-ticker.C:
			b.keyboard.Poll(now)
			b.mouse.Poll(now)
		}
	}
}

// Close stops the driver loop.
func (b *Bridge) Close() error {
	b.closeOnce.Do(func() { close(b.stop) })
	return nil
}
