package bridge

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Alia5/HECATE/internal/log"
)

// LogIndicator is the default status indicator. Connection changes are
// logged at info; activity blinks only at trace, they fire on every key and
// button change.
type LogIndicator struct {
	logger *slog.Logger

	mu       sync.Mutex
	keyboard bool
	mouse    bool
	seen     bool
}

func NewLogIndicator(logger *slog.Logger) *LogIndicator {
	return &LogIndicator{logger: logger.With("component", "indicator")}
}

func (i *LogIndicator) SetConnected(keyboard, mouse bool) {
	i.mu.Lock()
	changed := !i.seen || keyboard != i.keyboard || mouse != i.mouse
	i.keyboard, i.mouse, i.seen = keyboard, mouse, true
	i.mu.Unlock()
	if changed {
		i.logger.Info("device state", "keyboard", keyboard, "mouse", mouse)
	}
}

func (i *LogIndicator) BlinkActivity() {
	i.logger.Log(context.Background(), log.LevelTrace, "input activity")
}
