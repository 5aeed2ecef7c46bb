package editor

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultAutosaveInterval is how often a dirty design is saved.
const DefaultAutosaveInterval = 30 * time.Second

// AutoSaver runs at most one save at a time. A tick that arrives while a
// save is still in flight is skipped rather than queued.
type AutoSaver struct {
	Interval time.Duration
	log      *slog.Logger
	inflight atomic.Bool
}

// NewAutoSaver returns an AutoSaver firing every interval.
func NewAutoSaver(interval time.Duration, log *slog.Logger) *AutoSaver {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &AutoSaver{Interval: interval, log: log}
}

// InFlight reports whether a save is running.
func (a *AutoSaver) InFlight() bool { return a.inflight.Load() }

// Start runs save in its own goroutine unless one is already running, and
// reports whether it started. done, if not nil, is called with the result
// after the guard has been released.
func (a *AutoSaver) Start(ctx context.Context, save func(context.Context) error, done func(error)) bool {
	if !a.inflight.CompareAndSwap(false, true) {
		a.log.Debug("save skipped, previous save still running")
		return false
	}
	go func() {
		err := save(ctx)
		a.inflight.Store(false)
		if done != nil {
			done(err)
		}
	}()
	return true
}
