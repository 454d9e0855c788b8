//go:build linux

package usbhost

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

const (
	devDir       = "/dev"
	hidrawPrefix = "hidraw"
	scanInterval = time.Second
	reportBufLen = 64
)

// HidrawHost watches /dev/hidraw* nodes and streams their reports to an
// Events sink. Each node gets a reader goroutine; a read error is treated
// as detach.
type HidrawHost struct {
	events Events
	logger *slog.Logger

	mu       sync.Mutex
	open     map[string]*hidrawDevice
	nextAddr uint8
	closed   bool

	stop chan struct{}
	done sync.WaitGroup
}

type hidrawDevice struct {
	path string
	addr uint8
	file *os.File
}

// NewHidraw creates a hidraw backend delivering to events.
func NewHidraw(events Events, logger *slog.Logger) (Host, error) {
	return &HidrawHost{
		events: events,
		logger: logger.With("component", "hidraw"),
		open:   make(map[string]*hidrawDevice),
		stop:   make(chan struct{}),
	}, nil
}

// ListenAndServe scans for hidraw nodes until Close is called. New nodes are
// mounted with their kernel-reported report descriptor; vanished nodes are
// unmounted.
func (h *HidrawHost) ListenAndServe() error {
	h.logger.Info("hidraw backend started", "dir", devDir)
	ticker := time.NewTicker(scanInterval)
	defer ticker.Stop()
	h.scan()
	for {
		select {
		case <-h.stop:
			h.closeAll()
			h.done.Wait()
			h.logger.Info("hidraw backend stopped")
			return nil
		case <-ticker.C:
			h.scan()
		}
	}
}

// Close stops the scan loop and detaches every open device.
func (h *HidrawHost) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()
	close(h.stop)
	return nil
}

func (h *HidrawHost) scan() {
	entries, err := os.ReadDir(devDir)
	if err != nil {
		h.logger.Error("device scan failed", "error", err)
		return
	}
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), hidrawPrefix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(devDir, name)
		h.mu.Lock()
		_, known := h.open[path]
		h.mu.Unlock()
		if !known {
			if err := h.attach(path); err != nil {
				h.logger.Debug("attach failed", "path", path, "error", err)
			}
		}
	}
}

func (h *HidrawHost) attach(path string) error {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	desc, err := readDescriptor(int(f.Fd()))
	if err != nil {
		f.Close()
		return fmt.Errorf("read descriptor %s: %w", path, err)
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		f.Close()
		return nil
	}
	h.nextAddr++
	if h.nextAddr == 0 {
		h.nextAddr = 1
	}
	dev := &hidrawDevice{path: path, addr: h.nextAddr, file: f}
	h.open[path] = dev
	h.mu.Unlock()

	if err := h.events.Mount(dev.addr, desc); err != nil {
		h.mu.Lock()
		delete(h.open, path)
		h.mu.Unlock()
		f.Close()
		return fmt.Errorf("mount %s: %w", path, err)
	}
	h.logger.Info("device attached", "path", path, "addr", dev.addr, "descriptor_len", len(desc))

	h.done.Add(1)
	go h.readLoop(dev)
	return nil
}

func (h *HidrawHost) readLoop(dev *hidrawDevice) {
	defer h.done.Done()
	buf := make([]byte, reportBufLen)
	for {
		n, err := dev.file.Read(buf)
		if err != nil {
			h.detach(dev, err)
			return
		}
		if n > 0 {
			report := make([]byte, n)
			copy(report, buf[:n])
			h.events.HandleReport(dev.addr, report)
		}
	}
}

func (h *HidrawHost) detach(dev *hidrawDevice, cause error) {
	h.mu.Lock()
	_, known := h.open[dev.path]
	delete(h.open, dev.path)
	h.mu.Unlock()
	dev.file.Close()
	if known {
		h.logger.Info("device detached", "path", dev.path, "addr", dev.addr, "cause", cause)
		h.events.Unmount(dev.addr)
	}
}

func (h *HidrawHost) closeAll() {
	h.mu.Lock()
	devs := make([]*hidrawDevice, 0, len(h.open))
	for _, dev := range h.open {
		devs = append(devs, dev)
	}
	h.mu.Unlock()
	for _, dev := range devs {
		// Closing the fd unblocks the reader, which performs the unmount.
		dev.file.Close()
	}
}

// readDescriptor fetches the raw HID report descriptor via the hidraw
// ioctls.
func readDescriptor(fd int) ([]byte, error) {
	size, err := unix.IoctlGetUint32(fd, unix.HIDIOCGRDESCSIZE)
	if err != nil {
		return nil, err
	}
	var rd unix.HIDRawReportDescriptor
	rd.Size = size
	if err := unix.IoctlHIDGetDesc(fd, &rd); err != nil {
		return nil, err
	}
	return append([]byte(nil), rd.Value[:rd.Size]...), nil
}
