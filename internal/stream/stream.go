// Package stream fans ingest events out to live dashboard subscribers.
package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"intelhub.dev/internal/travel"
)

// Kind names an ingest event.
type Kind string

const (
	CrossingStored Kind = "crossing.stored"
	TripCompleted  Kind = "trip.completed"
	RecordStored   Kind = "record.stored"
	TaskUpdated    Kind = "task.updated"
)

// Event is one message on the stream.
type Event struct {
	Kind      Kind             `json:"kind"`
	SubjectID string           `json:"subject_id,omitempty"`
	RecordID  string           `json:"record_id,omitempty"`
	Crossing  *travel.Crossing `json:"crossing,omitempty"`
	Trip      *travel.Trip     `json:"trip,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Stream fans out events to all active subscribers (SSE clients).
type Stream struct {
	mu      sync.RWMutex
	subs    map[int]chan Event
	next    int
	dropped atomic.Int64
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber and returns a channel which will receive events.
// The channel is closed when the provided context ends.
func (s *Stream) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish fans the event out to all subscribers without blocking. Events for
// a subscriber whose buffer is full are dropped.
func (s *Stream) Publish(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
			s.dropped.Add(1)
		}
	}
}

// Subscribers returns the number of active subscribers.
func (s *Stream) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Dropped returns the number of events discarded for slow subscribers.
func (s *Stream) Dropped() int64 { return s.dropped.Load() }

// CrossingEvents builds the events for c given prev, the subject's latest
// crossing before c was stored. An Entry directly after an Exit closes a
// trip, since the pending exit is always the most recent one.
func CrossingEvents(prev *travel.Crossing, c travel.Crossing) []Event {
	now := time.Now().UTC()
	stored := c
	events := []Event{{Kind: CrossingStored, SubjectID: c.SubjectID, RecordID: c.ID, Crossing: &stored, Timestamp: now}}
	if c.Direction != travel.Entry || prev == nil || prev.Direction != travel.Exit {
		return events
	}
	trip := travel.Trip{Exit: *prev, Entry: c}
	return append(events, Event{Kind: TripCompleted, SubjectID: c.SubjectID, RecordID: c.ID, Trip: &trip, Timestamp: now})
}
