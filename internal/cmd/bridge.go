package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"

	"github.com/Alia5/HECATE/bridge"
	"github.com/Alia5/HECATE/device/keyboard"
	"github.com/Alia5/HECATE/inputstream"
	"github.com/Alia5/HECATE/internal/auth"
	"github.com/Alia5/HECATE/internal/configpaths"
	"github.com/Alia5/HECATE/internal/log"
	"github.com/Alia5/HECATE/internal/util"
	"github.com/Alia5/HECATE/ps2"
	"github.com/Alia5/HECATE/usbhost"
)

const keyFileName = "hecate.key.txt"

type Bridge struct {
	BridgeConfig bridge.Config            `embed:"" prefix:"bridge."`
	StreamConfig inputstream.ServerConfig `embed:"" prefix:"stream."`
	Hidraw       bool                     `help:"Attach local hidraw devices (Linux only)" default:"false" env:"HECATE_HIDRAW"`
}

// Run is called by Kong when the bridge command is executed.
func (b *Bridge) Run(logger *slog.Logger, wire log.WireLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return b.StartBridge(ctx, logger, wire)
}

func (b *Bridge) StartBridge(ctx context.Context, logger *slog.Logger, wire log.WireLogger) error {
	logger.Info("Starting HECATE bridge")

	if b.StreamConfig.Enabled && b.StreamConfig.Password == "" {
		pwd, err := loadOrGenerateStreamKey(logger)
		if err != nil {
			return err
		}
		b.StreamConfig.Password = pwd
	}

	// Without wire hardware both PS/2 ports run over in-memory loopback
	// transports; a hardware integration supplies its own ps2.Transport.
	kbdPort := ps2.NewLoopback()
	mousePort := ps2.NewLoopback()

	br := bridge.New(b.BridgeConfig, kbdPort, mousePort, bridge.NewLogIndicator(logger), logger, wire)
	br.Keyboard().SetLEDCallback(func(st keyboard.LEDState) {
		logger.Info("keyboard LEDs", "num", st.NumLock, "caps", st.CapsLock, "scroll", st.ScrollLock)
	})

	bridgeErrCh := make(chan error, 1)
	go func() {
		bridgeErrCh <- br.Run()
	}()

	var streamSrv *inputstream.Server
	streamErrCh := make(chan error, 1)
	if b.StreamConfig.Enabled {
		srv, err := inputstream.New(b.StreamConfig, br.Dispatcher(), logger)
		if err != nil {
			_ = br.Close()
			return err
		}
		streamSrv = srv
		go func() {
			streamErrCh <- srv.ListenAndServe()
		}()
		select {
		case err := <-streamErrCh:
			logger.Error("failed to start input stream server", "error", err)
			if util.IsRunFromGUI() {
				fmt.Println("Press any key to exit...")
				var buf [1]byte
				_, _ = os.Stdin.Read(buf[:])
			}
			_ = br.Close()
			return err
		case <-srv.Ready():
		}
	}

	var host usbhost.Host
	hostErrCh := make(chan error, 1)
	if b.Hidraw {
		h, err := usbhost.NewHidraw(br.Dispatcher(), logger)
		if err != nil {
			logger.Error("hidraw backend unavailable", "error", err)
		} else {
			host = h
			go func() {
				hostErrCh <- h.ListenAndServe()
			}()
		}
	}

	shutdown := func() {
		if host != nil {
			_ = host.Close()
			<-hostErrCh
		}
		if streamSrv != nil {
			_ = streamSrv.Close()
			<-streamErrCh
		}
		_ = br.Close()
		<-bridgeErrCh
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdown()
		return nil
	case err := <-bridgeErrCh:
		bridgeErrCh <- nil
		shutdown()
		return err
	case err := <-streamErrCh:
		streamErrCh <- nil
		shutdown()
		return err
	case err := <-hostErrCh:
		hostErrCh <- nil
		shutdown()
		return err
	}
}

func loadOrGenerateStreamKey(logger *slog.Logger) (string, error) {
	keyFileDir, err := configpaths.DefaultConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve key file path: %w", err)
	}
	keyFilePath := path.Join(keyFileDir, keyFileName)
	if pwd, err := os.ReadFile(keyFilePath); err == nil {
		return strings.TrimSpace(string(pwd)), nil
	}

	newPwd, err := auth.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate new stream password: %w", err)
	}
	if err := os.MkdirAll(keyFileDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config dir for key file: %w", err)
	}
	if err := os.WriteFile(keyFilePath, []byte(newPwd), 0o600); err != nil {
		return "", fmt.Errorf("failed to write new stream password to file: %w", err)
	}
	logger.Info("Generated input stream password", "path", keyFilePath)
	if util.IsInteractive() {
		logger.Info("-------------------------------------")
		logger.Info("Your HECATE input stream password is:")
		logger.Info("-------------------------------------")
		logger.Info(newPwd)
		logger.Info("-------------------------------------")
		logger.Info("You can change this password at any time by editing the file")
	}
	return newPwd, nil
}
