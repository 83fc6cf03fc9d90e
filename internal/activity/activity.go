// Package activity keeps a bounded in-memory feed of engine events.
// The feed is a ring buffer: once full, the oldest entries are dropped.
package activity

import (
	"sync"
	"time"
)

// Event is one recorded engine action.
type Event struct {
	Time      time.Time `json:"time"`
	Operation string    `json:"operation"`
	Cluster   string    `json:"cluster,omitempty"`
	AccountID string    `json:"account_id,omitempty"`
	Outcome   string    `json:"outcome"` // "ok" or "error"
	Detail    string    `json:"detail,omitempty"`
}

// Feed is a fixed-capacity, append-only event buffer. Safe for
// concurrent use.
type Feed struct {
	mu    sync.Mutex
	buf   []Event
	next  int
	count int
}

// NewFeed creates a feed retaining the last capacity events.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = 256
	}
	return &Feed{buf: make([]Event, capacity)}
}

// Push records an event, evicting the oldest when full.
func (f *Feed) Push(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.buf[f.next] = ev
	f.next = (f.next + 1) % len(f.buf)
	if f.count < len(f.buf) {
		f.count++
	}
}

// List returns retained events, newest first.
func (f *Feed) List() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Event, 0, f.count)
	for i := 1; i <= f.count; i++ {
		idx := (f.next - i + len(f.buf)) % len(f.buf)
		out = append(out, f.buf[idx])
	}
	return out
}
