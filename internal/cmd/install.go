package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
)

type Install struct{}

// Run is called by Kong when the install command is executed.
func (Install) Run(logger *slog.Logger) error { return install(logger) }

type Uninstall struct{}

// Run is called by Kong when the uninstall command is executed.
func (Uninstall) Run(logger *slog.Logger) error { return uninstall(logger) }

func currentExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(exe)
}
