package inputstream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/Alia5/HECATE/internal/auth"
	"github.com/Alia5/HECATE/usbhost"
)

// ServerConfig holds the input stream server settings.
type ServerConfig struct {
	Enabled  bool   `help:"Accept remote input over the stream server." default:"true" env:"HECATE_STREAM_ENABLED"`
	Addr     string `help:"Input stream listen address." default:"127.0.0.1:41522" env:"HECATE_STREAM_ADDR"`
	Password string `help:"Stream password; empty disables authentication and encryption." env:"HECATE_STREAM_PASSWORD"`
}

// Server accepts input stream clients and presents each connection to the
// converter as a keyboard/mouse pair. Devices are mounted on connect and
// unmounted when the client goes away.
type Server struct {
	config    *ServerConfig
	events    usbhost.Events
	logger    *slog.Logger
	key       []byte
	ready     chan struct{}
	readyOnce sync.Once
	ln        net.Listener

	mu       sync.Mutex
	nextAddr uint8
}

// New creates a stream server delivering to events. The password, when set,
// is stretched once here.
func New(config ServerConfig, events usbhost.Events, logger *slog.Logger) (*Server, error) {
	s := &Server{
		config: &config,
		events: events,
		logger: logger.With("component", "inputstream"),
		ready:  make(chan struct{}),
		// Stream devices get addresses from the top half so they never
		// collide with a local USB backend counting up from 1.
		nextAddr: 0x7f,
	}
	if config.Password != "" {
		key, err := auth.DeriveKey(config.Password)
		if err != nil {
			return nil, fmt.Errorf("derive stream key: %w", err)
		}
		s.key = key
	}
	return s, nil
}

// ListenAndServe blocks accepting clients until Close is called.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.readyOnce.Do(func() { close(s.ready) })
	s.logger.Info("input stream server listening", "addr", s.config.Addr, "encrypted", len(s.key) > 0)
	for {
		c, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || strings.Contains(strings.ToLower(err.Error()), "use of closed network connection") {
				s.logger.Info("input stream server stopped")
				return nil
			}
			s.logger.Error("Accept error", "error", err)
			continue
		}
		s.logger.Info("Client connected", "remote", c.RemoteAddr())
		go func() {
			if err := s.handleConn(c); err != nil {
				if isClientDisconnect(err) {
					s.logger.Info("Client disconnected", "error", err)
				} else {
					s.logger.Error("Connection handler error", "error", err)
				}
			}
		}()
	}
}

// Ready returns a channel that is closed once the server has successfully
// bound to its listen address.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the bound listener address, or nil before ListenAndServe.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Close stops the server by closing its listener.
func (s *Server) Close() error {
	if s.ln != nil {
		return s.ln.Close()
	}
	return nil
}

func (s *Server) allocAddrs() (kbd, mouse uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAddr++
	kbd = s.nextAddr
	s.nextAddr++
	mouse = s.nextAddr
	return kbd, mouse
}

func (s *Server) handleConn(c net.Conn) error {
	defer c.Close()

	if tcpConn, ok := c.(*net.TCPConn); ok {
		if err := tcpConn.SetNoDelay(true); err != nil {
			s.logger.Warn("failed to set TCP_NODELAY", "error", err)
		}
	}

	conn := net.Conn(c)
	if len(s.key) > 0 {
		r := bufio.NewReader(c)
		clientNonce, serverNonce, err := auth.HandleAuthHandshake(r, c, s.key, false)
		if err != nil {
			return err
		}
		sessionKey := auth.DeriveSessionKey(s.key, serverNonce, clientNonce)
		conn, err = auth.WrapConn(c, sessionKey)
		if err != nil {
			return err
		}
	}

	kbdAddr, mouseAddr := s.allocAddrs()
	if err := s.events.Mount(kbdAddr, nil); err != nil {
		return fmt.Errorf("mount stream keyboard: %w", err)
	}
	defer s.events.Unmount(kbdAddr)
	if err := s.events.Mount(mouseAddr, nil); err != nil {
		return fmt.Errorf("mount stream mouse: %w", err)
	}
	defer s.events.Unmount(mouseAddr)

	var (
		hdr  [1]byte
		kbd  [keyboardStateLen]byte
		mice [mouseStateLen]byte
	)
	for {
		if _, err := io.ReadFull(conn, hdr[:]); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read message type: %w", err)
		}
		switch hdr[0] {
		case MsgKeyboard:
			if _, err := io.ReadFull(conn, kbd[:]); err != nil {
				return fmt.Errorf("read keyboard state: %w", err)
			}
			s.events.HandleReport(kbdAddr, kbd[:])
		case MsgMouse:
			if _, err := io.ReadFull(conn, mice[:]); err != nil {
				return fmt.Errorf("read mouse state: %w", err)
			}
			s.events.HandleReport(mouseAddr, mice[:])
		default:
			return fmt.Errorf("unknown message type 0x%02x", hdr[0])
		}
	}
}

func isClientDisconnect(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") || strings.Contains(msg, "broken pipe")
}
