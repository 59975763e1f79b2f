// Package input carries mouse and keyboard events from the transports
// (HTTP, websocket, desktop window) to the agent loop.
package input

import (
	"context"
	"fmt"
	"sync/atomic"

	"agent-compositor/internal/logging"
)

// Kind identifies an event type.
type Kind string

const (
	MouseMove  Kind = "mouse_move"
	MouseClick Kind = "mouse_click"
	Key        Kind = "key"
)

// Event is one input event. Fields that do not apply to Kind are zero.
type Event struct {
	Kind   Kind   `json:"kind"`
	X      int    `json:"x,omitempty"`
	Y      int    `json:"y,omitempty"`
	Button int    `json:"button,omitempty"`
	Key    string `json:"key,omitempty"`
	Shift  bool   `json:"shift,omitempty"`
	Ctrl   bool   `json:"ctrl,omitempty"`
	Alt    bool   `json:"alt,omitempty"`
}

// Validate rejects events with an unknown kind or a key event without a key.
func (e Event) Validate() error {
	switch e.Kind {
	case MouseMove, MouseClick:
		return nil
	case Key:
		if e.Key == "" {
			return fmt.Errorf("input: key event without key")
		}
		return nil
	}
	return fmt.Errorf("input: unknown event kind %q", e.Kind)
}

// Queue is a bounded FIFO of events. Put never blocks: when the queue is
// full the event is dropped.
type Queue struct {
	name    string
	ch      chan Event
	dropped atomic.Int64
}

// NewQueue returns a queue holding at most size events.
func NewQueue(name string, size int) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{name: name, ch: make(chan Event, size)}
}

// Put enqueues e and reports whether it was accepted.
func (q *Queue) Put(e Event) bool {
	select {
	case q.ch <- e:
		return true
	default:
		n := q.dropped.Add(1)
		logging.L().Warn("input queue full, event dropped", "queue", q.name, "kind", e.Kind, "dropped", n)
		return false
	}
}

// Get blocks until an event is available or ctx is done.
func (q *Queue) Get(ctx context.Context) (Event, error) {
	select {
	case e := <-q.ch:
		return e, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Flush discards every queued event and returns how many were removed.
func (q *Queue) Flush() int {
	n := 0
	for {
		select {
		case <-q.ch:
			n++
		default:
			return n
		}
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Dropped returns how many events Put has rejected.
func (q *Queue) Dropped() int64 {
	return q.dropped.Load()
}

// Queues groups the mouse and keyboard queues.
type Queues struct {
	Mouse *Queue
	Keys  *Queue
}

// NewQueues returns mouse and key queues of the given size.
func NewQueues(size int) Queues {
	return Queues{Mouse: NewQueue("mouse", size), Keys: NewQueue("key", size)}
}

// Dispatch routes e to the queue for its kind.
func (qs Queues) Dispatch(e Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.Kind == Key {
		qs.Keys.Put(e)
	} else {
		qs.Mouse.Put(e)
	}
	return nil
}
