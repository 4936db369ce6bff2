// Package trace buffers bring-up events and writes them out as JSON lines.
package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/phy"
)

// DefaultMaxEvents bounds a buffer created with a non-positive size.
const DefaultMaxEvents = 1000

// Event is one trace record.
type Event struct {
	Timestamp time.Time              `json:"timestamp"`
	Type      string                 `json:"type"`
	PHY       string                 `json:"phy,omitempty"`
	From      string                 `json:"from,omitempty"`
	To        string                 `json:"to,omitempty"`
	Seq       uint64                 `json:"seq,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Buffer is a bounded, concurrency-safe event buffer. When it is full the
// oldest tenth of the events is dropped.
type Buffer struct {
	mu      sync.Mutex
	events  []Event
	max     int
	dropped int
	now     func() time.Time
}

// New returns a buffer holding at most max events.
func New(max int) *Buffer {
	if max <= 0 {
		max = DefaultMaxEvents
	}
	return &Buffer{max: max, now: time.Now}
}

// Record adds an event of the given type.
func (b *Buffer) Record(eventType string, details map[string]interface{}) {
	b.add(Event{Timestamp: b.now(), Type: eventType, Details: details})
}

// Observe records a PHY state transition. It has the phy.Observer signature.
func (b *Buffer) Observe(t phy.Transition) {
	b.add(Event{
		Timestamp: t.At,
		Type:      "transition",
		PHY:       t.PHY.String(),
		From:      t.From.String(),
		To:        t.To.String(),
		Seq:       t.Seq,
	})
}

func (b *Buffer) add(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.events) >= b.max {
		drop := b.max / 10
		if drop == 0 {
			drop = 1
		}
		b.events = b.events[drop:]
		b.dropped += drop
	}
	b.events = append(b.events, e)
}

// Events returns a copy of the buffered events.
func (b *Buffer) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// Len returns the number of buffered events.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// Dropped returns how many events were discarded because the buffer was full.
func (b *Buffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Flush writes the buffered events to w, one JSON object per line, and empties
// the buffer. Events that could not be written are put back.
func (b *Buffer) Flush(w io.Writer) error {
	b.mu.Lock()
	events := b.events
	b.events = nil
	b.mu.Unlock()

	enc := json.NewEncoder(w)
	for i, e := range events {
		if err := enc.Encode(e); err != nil {
			b.mu.Lock()
			b.events = append(events[i:], b.events...)
			b.mu.Unlock()
			return fmt.Errorf("failed to write trace event: %w", err)
		}
	}
	return nil
}

// FlushFile appends the buffered events to the file at path.
func (b *Buffer) FlushFile(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	if err := b.Flush(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
