package scan

import (
	"sort"
	"sync"
	"time"

	"violence-scanner/internal/domain"
)

// EventType tells the UI how to treat a scan event.
type EventType string

const (
	// EventTypeStatus reports a display status change or a lifecycle step.
	EventTypeStatus EventType = "status"
	// EventTypeNotice carries a blocking user notice (rejections, failures).
	EventTypeNotice EventType = "notice"
	// EventTypeResult carries a prediction or the stopped sentinel.
	EventTypeResult EventType = "result"
	// EventTypeError carries the error text shown beside the selected file.
	EventTypeError EventType = "error"
)

// Event is one step of a scan session. Seq increases across sessions so a
// polling UI can resume with Since.
type Event struct {
	Seq        int64                `json:"seq"`
	Timestamp  time.Time            `json:"timestamp"`
	SessionID  string               `json:"sessionId,omitempty"`
	Type       EventType            `json:"type"`
	Status     domain.DisplayStatus `json:"status,omitempty"`
	Message    string               `json:"message,omitempty"`
	Label      string               `json:"label,omitempty"`
	Confidence float64              `json:"confidence,omitempty"`
}

// EventBus keeps the most recent scan events, oldest first.
type EventBus struct {
	mu      sync.RWMutex
	lastSeq int64
	limit   int
	history []Event
}

// NewEventBus keeps at most limit events; older ones are dropped.
func NewEventBus(limit int) *EventBus {
	if limit <= 0 {
		limit = 500
	}
	return &EventBus{
		limit:   limit,
		history: make([]Event, 0, limit),
	}
}

// Publish stamps event with the next sequence number and records it.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastSeq++
	event.Seq = b.lastSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if len(b.history) == b.limit {
		copy(b.history, b.history[1:])
		b.history[len(b.history)-1] = event
	} else {
		b.history = append(b.history, event)
	}
	return event
}

// Since returns the retained events published after seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	i := sort.Search(len(b.history), func(i int) bool { return b.history[i].Seq > seq })
	if i == len(b.history) {
		return nil
	}
	return append([]Event(nil), b.history[i:]...)
}

// Last returns the newest retained event of type t.
func (b *EventBus) Last(t EventType) (Event, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i := len(b.history) - 1; i >= 0; i-- {
		if b.history[i].Type == t {
			return b.history[i], true
		}
	}
	return Event{}, false
}
