// Package eventstest provides an in-memory audit publisher for tests.
package eventstest

import (
	"context"
	"time"

	"newsroom/internal/events"
)

// Recorder keeps published events in a bounded buffer. Events beyond the
// buffer are dropped.
type Recorder struct {
	ch chan events.Event
}

func NewRecorder(size int) *Recorder {
	return &Recorder{ch: make(chan events.Event, size)}
}

func (r *Recorder) Publish(_ context.Context, e events.Event) error {
	select {
	case r.ch <- e:
	default:
	}
	return nil
}

func (r *Recorder) Close() error { return nil }

// Next waits up to timeout for the next published event.
func (r *Recorder) Next(timeout time.Duration) (events.Event, bool) {
	select {
	case e := <-r.ch:
		return e, true
	case <-time.After(timeout):
		return events.Event{}, false
	}
}
