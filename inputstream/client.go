package inputstream

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/Alia5/HECATE/internal/auth"
)

// ClientConfig controls low-level client behavior such as timeouts.
type ClientConfig struct {
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	Password     string
}

func defaultClientConfig() ClientConfig {
	return ClientConfig{
		DialTimeout:  3 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

// Client holds one persistent stream connection. All Send methods are safe
// for concurrent use.
type Client struct {
	addr string
	cfg  ClientConfig

	mu   sync.Mutex
	conn net.Conn
}

// NewClient creates an unauthenticated client for addr.
func NewClient(addr string) *Client { return NewClientWithConfig(addr, nil) }

// NewClientWithPassword creates a client that authenticates and encrypts
// with the given password.
func NewClientWithPassword(addr, password string) *Client {
	cfg := defaultClientConfig()
	cfg.Password = password
	return NewClientWithConfig(addr, &cfg)
}

// NewClientWithConfig creates a client with explicit configuration.
func NewClientWithConfig(addr string, cfg *ClientConfig) *Client {
	c := defaultClientConfig()
	if cfg != nil {
		c = *cfg
	}
	return &Client{addr: addr, cfg: c}
}

// Connect dials the server and, when a password is configured, runs the
// handshake and switches the connection to encrypted framing.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}

	d := &net.Dialer{Timeout: c.cfg.DialTimeout}
	conn, err := d.Dial("tcp", c.addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetNoDelay(true); err != nil {
			slog.Warn("failed to set TCP_NODELAY", "error", err)
		}
	}

	if c.cfg.Password != "" {
		key, err := auth.DeriveKey(c.cfg.Password)
		if err != nil {
			conn.Close()
			return err
		}
		r := bufio.NewReader(conn)
		clientNonce, serverNonce, err := auth.HandleAuthHandshake(r, conn, key, true)
		if err != nil {
			conn.Close()
			return err
		}
		sessionKey := auth.DeriveSessionKey(key, serverNonce, clientNonce)
		conn, err = auth.WrapConn(conn, sessionKey)
		if err != nil {
			conn.Close()
			return err
		}
	}

	c.conn = conn
	return nil
}

// Close tears down the connection. The client can Connect again afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// SendKeyboard transmits a full keyboard snapshot.
func (c *Client) SendKeyboard(st KeyboardState) error {
	body, _ := st.MarshalBinary()
	return c.send(MsgKeyboard, body)
}

// SendMouse transmits one motion sample.
func (c *Client) SendMouse(st MouseState) error {
	body, _ := st.MarshalBinary()
	return c.send(MsgMouse, body)
}

func (c *Client) send(msgType byte, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	if c.cfg.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	msg := append([]byte{msgType}, body...)
	if _, err := c.conn.Write(msg); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}
