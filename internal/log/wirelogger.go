package log

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"
)

// WireLogger traces raw PS/2 wire traffic with optional file output.
type WireLogger interface {
	Log(port string, deviceToHost bool, data []byte)
}

// wireLogger implements WireLogger with thread-safe output.
type wireLogger struct {
	w  io.Writer
	mu sync.Mutex
}

// NewWire creates a new WireLogger. If writer is nil, returns a no-op logger.
func NewWire(w io.Writer) WireLogger {
	return &wireLogger{w: w}
}

// Log emits a single-line wire trace with timestamp, port and hex dump.
// deviceToHost=true means emulated device -> PS/2 host.
func (l *wireLogger) Log(port string, deviceToHost bool, data []byte) {
	if len(data) == 0 {
		return
	}
	if l.w == nil {
		return
	}

	dir := "H->D"
	if deviceToHost {
		dir = "D->H"
	}

	var hexbuf bytes.Buffer
	const hexdigits = "0123456789abcdef"
	for i, b := range data {
		if i > 0 {
			hexbuf.WriteByte(' ')
		}
		hexbuf.WriteByte(hexdigits[b>>4])
		hexbuf.WriteByte(hexdigits[b&0x0f])
	}

	line := fmt.Sprintf("%s %s %s: %d bytes, hex: %s\n",
		time.Now().Format("2006/01/02 15:04:05"),
		port,
		dir,
		len(data),
		hexbuf.String())

	l.mu.Lock()
	_, _ = l.w.Write([]byte(line))
	l.mu.Unlock()
}
