//go:build !linux

package cmd

import (
	"fmt"
	"log/slog"
	"runtime"
)

func install(_ *slog.Logger) error {
	return fmt.Errorf("service installation is not supported on %s", runtime.GOOS)
}

func uninstall(_ *slog.Logger) error {
	return fmt.Errorf("service installation is not supported on %s", runtime.GOOS)
}
