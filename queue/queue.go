// Package queue provides the bounded per-channel queue of feature values
// waiting to be rendered.
package queue

import "errors"

// DefaultMaxDepth is the depth a queue never reaches while the renderer
// keeps up with the extractor.
const DefaultMaxDepth = 1024

// ErrBackpressure is returned when a value is pushed to a full queue. It
// means that rendering is falling behind feature extraction.
var ErrBackpressure = errors.New("pixel queue is full")

// Queue is a FIFO of feature values. It's owned by the consumer and is not
// safe for concurrent use.
type Queue struct {
	values   []float64
	head     int
	maxDepth int
}

// New returns a queue bounded by maxDepth. Non-positive depth means
// DefaultMaxDepth.
func New(maxDepth int) *Queue {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Queue{
		values:   make([]float64, 0, maxDepth),
		maxDepth: maxDepth,
	}
}

// Push appends the value. If the queue is full, value is dropped and
// ErrBackpressure is returned.
func (q *Queue) Push(v float64) error {
	if q.Len() >= q.maxDepth {
		return ErrBackpressure
	}
	if q.head > 0 && len(q.values) == cap(q.values) {
		// reclaim consumed space before growing.
		n := copy(q.values, q.values[q.head:])
		q.values = q.values[:n]
		q.head = 0
	}
	q.values = append(q.values, v)
	return nil
}

// Pop removes and returns the oldest value. False is returned if queue is
// empty.
func (q *Queue) Pop() (float64, bool) {
	if q.head == len(q.values) {
		return 0, false
	}
	v := q.values[q.head]
	q.head++
	if q.head == len(q.values) {
		q.values = q.values[:0]
		q.head = 0
	}
	return v, true
}

// Len returns the number of queued values.
func (q *Queue) Len() int {
	return len(q.values) - q.head
}

// MaxDepth returns the queue bound.
func (q *Queue) MaxDepth() int {
	return q.maxDepth
}

// Reset drops all queued values.
func (q *Queue) Reset() {
	q.values = q.values[:0]
	q.head = 0
}
