// Package mock provides mocks for producers and pushers and allows to
// execute integration tests.
package mock

import (
	"context"
	"sync"
	"time"
)

// Source mocks a producer. It pushes Limit samples of Value per channel
// in bursts of BurstSize.
type Source struct {
	counter
	Interval    time.Duration
	Limit       int
	Value       float64
	NumChannels int
	BurstSize   int
	ErrorOnCall error
}

// Pusher is the interface of a sample receiver.
type Pusher interface {
	Push(frame [][]float64, counts []int) error
}

// Run pushes bursts until the limit is reached or context is done.
func (m *Source) Run(ctx context.Context, p Pusher) (int64, error) {
	bs := m.BurstSize
	if bs <= 0 {
		bs = 512
	}
	frame := make([][]float64, m.NumChannels)
	counts := make([]int, m.NumChannels)
	for c := range frame {
		frame[c] = make([]float64, bs)
		for i := range frame[c] {
			frame[c][i] = m.Value
		}
	}
	for {
		if m.ErrorOnCall != nil {
			return int64(m.Samples()), m.ErrorOnCall
		}
		left := m.Limit - m.Samples()
		if left <= 0 {
			return int64(m.Samples()), nil
		}
		if err := ctx.Err(); err != nil {
			return int64(m.Samples()), err
		}
		time.Sleep(m.Interval)

		n := min(bs, left)
		for c := range counts {
			counts[c] = n
		}
		if err := p.Push(frame, counts); err != nil {
			return int64(m.Samples()), err
		}
		m.advance(n)
	}
}

// Sink mocks a sample receiver. It keeps pushed samples unless Discard
// is set. It's safe for concurrent use.
type Sink struct {
	counter
	buffer      [][]float64
	Discard     bool
	ErrorOnCall error
}

// Push implements receiver.
func (m *Sink) Push(frame [][]float64, counts []int) error {
	if m.ErrorOnCall != nil {
		return m.ErrorOnCall
	}
	m.mu.Lock()
	if !m.Discard {
		if m.buffer == nil {
			m.buffer = make([][]float64, len(frame))
		}
		for c := range frame {
			m.buffer[c] = append(m.buffer[c], frame[c][:counts[c]]...)
		}
	}
	m.mu.Unlock()
	size := 0
	if len(counts) > 0 {
		size = counts[0]
	}
	m.advance(size)
	return nil
}

// Buffer returns pushed samples. It must not be called while pushes are
// running.
func (m *Sink) Buffer() [][]float64 {
	return m.buffer
}

// counter counts messages and samples of the first channel.
type counter struct {
	mu       sync.Mutex
	messages int
	samples  int
}

// advance counter's metrics.
func (c *counter) advance(size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages++
	c.samples += size
}

// Count returns messages and samples metrics.
func (c *counter) Count() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messages, c.samples
}

// Samples returns number of samples.
func (c *counter) Samples() int {
	_, s := c.Count()
	return s
}
