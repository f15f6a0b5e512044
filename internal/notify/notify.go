// Package notify delivers user-visible notifications raised by the dashboard,
// such as a failed insights refresh or a failed live-conditions poll.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Level is the severity of a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is a single message shown to the user.
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Source    string    `json:"source"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Error builds an error notification for the given source.
func Error(source, message string) Notification {
	return Notification{
		ID:        "ntf_" + uuid.New().String()[:22],
		Level:     LevelError,
		Source:    source,
		Message:   message,
		CreatedAt: time.Now(),
	}
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Nop discards every notification.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Notification) {}

// Multi fans a notification out to several notifiers in order.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}

// LogNotifier writes notifications to a zerolog logger.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a notifier that logs at warn level.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (l *LogNotifier) Notify(_ context.Context, n Notification) {
	l.logger.Warn().
		Str("notification_id", n.ID).
		Str("severity", string(n.Level)).
		Str("source", n.Source).
		Msg(n.Message)
}

// DefaultFeedCapacity is the number of notifications a Feed keeps.
const DefaultFeedCapacity = 50

// Feed keeps the most recent notifications in memory for the dashboard to poll.
type Feed struct {
	mu       sync.RWMutex
	items    []Notification
	capacity int
}

// NewFeed creates a feed bounded to capacity entries.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultFeedCapacity
	}
	return &Feed{
		items:    make([]Notification, 0, capacity),
		capacity: capacity,
	}
}

// Notify implements Notifier. The oldest entry is dropped once the feed is full.
func (f *Feed) Notify(_ context.Context, n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.items) == f.capacity {
		copy(f.items, f.items[1:])
		f.items = f.items[:len(f.items)-1]
	}
	f.items = append(f.items, n)
}

// Recent returns up to limit notifications, newest first.
// A limit of zero or less returns everything held.
func (f *Feed) Recent(limit int) []Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if limit <= 0 || limit > len(f.items) {
		limit = len(f.items)
	}

	out := make([]Notification, 0, limit)
	for i := len(f.items) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.items[i])
	}
	return out
}

// Len returns the number of notifications held.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}
