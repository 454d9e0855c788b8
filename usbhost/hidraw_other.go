//go:build !linux

package usbhost

import (
	"fmt"
	"log/slog"
	"runtime"
)

// NewHidraw is only available on Linux; other platforms must feed the
// bridge through the input stream server instead.
func NewHidraw(_ Events, _ *slog.Logger) (Host, error) {
	return nil, fmt.Errorf("hidraw backend is not supported on %s", runtime.GOOS)
}
