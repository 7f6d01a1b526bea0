// Package queue implements the bounded FIFO that connects graph nodes,
// including the sentinel token that marks end-of-stream.
//
// Grounded on original_source/wingline/plumbing/queue.py's Queue (a
// stdlib queue.Queue wrapper with a timed get for abort responsiveness)
// and on samgonzalez27-script-weaver/internal/dag/executor.go's
// channel-based worker coordination.
package queue

import (
	"time"

	"github.com/HappyEinara/wingline/internal/record"
)

// PollInterval is how long a Get waits before re-checking for abort,
// matching spec §4.2's "bounded poll (e.g., 1 s)".
const PollInterval = time.Second

// item is sentinel-aware: a queue either carries a record or the
// distinguished end-of-stream token.
type item struct {
	payload   *record.Record
	sentinel  bool
}

// Queue is a bounded FIFO of records terminated by exactly one
// Sentinel. It is safe for one producer and many consumers, or many
// producers and one consumer (spec §3's "Queue" definition).
type Queue struct {
	name string
	ch   chan item
}

// New creates a queue with the given capacity (spec §4.1's bounded
// outbound put, §5's "any outbound queue is full (bounded blocking
// put)").
func New(name string, capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{name: name, ch: make(chan item, capacity)}
}

// Name returns the queue's diagnostic name.
func (q *Queue) Name() string { return q.name }

// Cap returns the queue's bound, as passed to New.
func (q *Queue) Cap() int { return cap(q.ch) }

// Put enqueues a record. It blocks if the queue is full.
func (q *Queue) Put(r *record.Record) {
	q.ch <- item{payload: r}
}

// PutSentinel enqueues the terminal token. Spec §5: "Sentinel is
// always the last token on every edge" — callers must not Put after
// PutSentinel.
func (q *Queue) PutSentinel() {
	q.ch <- item{sentinel: true}
}

// Get waits up to PollInterval for the next item. ok is false on
// timeout (the caller should re-check its abort flag and retry); when
// ok is true, sentinel reports whether the item was the terminal
// token.
func (q *Queue) Get() (r *record.Record, sentinel bool, ok bool) {
	select {
	case it := <-q.ch:
		return it.payload, it.sentinel, true
	case <-time.After(PollInterval):
		return nil, false, false
	}
}
