// Package notify announces finished long-running computations.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// EventType names what finished.
type EventType string

const (
	EventOptimized EventType = "optimized"
	EventGrid      EventType = "grid"
	EventTrack     EventType = "track"
)

// Event describes a finished computation.
type Event struct {
	Type    EventType     `json:"type"`
	RunID   string        `json:"run_id,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
	Summary string        `json:"summary"`
	Time    time.Time     `json:"time"`
}

// Notifier delivers events.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// Bell rings the terminal bell and prints a line for every event.
type Bell struct {
	mu sync.Mutex
	w  io.Writer
}

// NewBell creates a bell writing to w.
func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

func (b *Bell) Notify(_ context.Context, e Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, err := fmt.Fprintf(b.w, "\a%s done in %s: %s\n", e.Type, e.Elapsed.Round(time.Millisecond), e.Summary)
	return err
}

// Logger writes events to a structured logger.
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a logging notifier.
func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (l *Logger) Notify(ctx context.Context, e Event) error {
	l.logger.InfoContext(ctx, "computation finished",
		"type", e.Type,
		"run_id", e.RunID,
		"elapsed", e.Elapsed,
		"summary", e.Summary,
	)
	return nil
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
