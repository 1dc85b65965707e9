// Package ingest provides the multichannel circular buffer shared between
// the acquisition producer and the rendering consumer.
//
// The producer calls Push with bursts of arbitrary length. The consumer
// checks HasReady once per frame and, if there is fresh data, takes every
// ready sample with a single Drain call. Both sides hold the buffer lock for
// the duration of one call, never per sample.
package ingest

import (
	"errors"
	"sync"
	"sync/atomic"

	"pipelined.dev/probeview/internal/invariant"
)

var (
	// ErrInvalidChannels is returned when buffer is configured without
	// channels.
	ErrInvalidChannels = errors.New("number of channels must be positive")
	// ErrInvalidCapacity is returned when buffer is configured without
	// capacity.
	ErrInvalidCapacity = errors.New("capacity must be positive")
	// ErrInvalidMask is returned when the number of active channels in the
	// mask doesn't match the number of channels.
	ErrInvalidMask = errors.New("active channel mask doesn't match number of channels")
	// ErrNotConfigured is returned when buffer is used before Configure.
	ErrNotConfigured = errors.New("buffer is not configured")
	// ErrOutOfRange is returned when sample is requested past the ready
	// count or for unknown channel.
	ErrOutOfRange = errors.New("sample index out of range")
)

// Buffer is a fixed-capacity circular sample store with independent read
// and write cursors per channel.
type Buffer struct {
	mu       sync.Mutex
	data     [][]float64
	read     []int
	write    []int
	ready    []int // saturates at capacity
	overruns []int64
	capacity int
	// local maps frame channel to stored channel, -1 for inactive.
	local    []int
	hasReady atomic.Bool
}

// Configure (re)allocates the storage and zeroes all cursors and the ready
// flag. Active mask maps frame channels passed to Push to stored channels:
// every active frame channel is stored in the next local channel. Nil mask
// means that frame channels map one-to-one. On error buffer state is not
// changed.
func (b *Buffer) Configure(numChannels, capacity int, active []bool) error {
	if numChannels <= 0 {
		return ErrInvalidChannels
	}
	if capacity <= 0 {
		return ErrInvalidCapacity
	}
	local, err := localChannels(numChannels, active)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = make([][]float64, numChannels)
	for i := range b.data {
		b.data[i] = make([]float64, capacity)
	}
	b.read = make([]int, numChannels)
	b.write = make([]int, numChannels)
	b.ready = make([]int, numChannels)
	b.overruns = make([]int64, numChannels)
	b.capacity = capacity
	b.local = local
	b.hasReady.Store(false)
	return nil
}

func localChannels(numChannels int, active []bool) ([]int, error) {
	if active == nil {
		local := make([]int, numChannels)
		for i := range local {
			local[i] = i
		}
		return local, nil
	}
	local := make([]int, len(active))
	n := 0
	for i, ok := range active {
		if !ok {
			local[i] = -1
			continue
		}
		local[i] = n
		n++
	}
	if n != numChannels {
		return nil, ErrInvalidMask
	}
	return local, nil
}

// Push copies up to counts[c] samples of every active frame channel into
// the ring. Channels can receive different number of samples. When the
// backlog of a channel would exceed the capacity, the oldest samples are
// discarded and counted as overruns. It returns the number of discarded
// samples.
func (b *Buffer) Push(frame [][]float64, counts []int) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.capacity == 0 {
		return 0, ErrNotConfigured
	}

	var dropped int64
	pushed := false
	for i := range frame {
		if i >= len(b.local) || i >= len(counts) || b.local[i] < 0 {
			continue
		}
		n := counts[i]
		if n > len(frame[i]) {
			n = len(frame[i])
		}
		if n <= 0 {
			continue
		}
		dropped += b.pushChannel(b.local[i], frame[i][:n])
		pushed = true
	}
	if pushed {
		b.hasReady.Store(true)
	}
	return dropped, nil
}

// pushChannel must be called with the lock held.
func (b *Buffer) pushChannel(c int, src []float64) int64 {
	n := len(src)
	capacity := b.capacity
	start := b.write[c]
	if n > capacity {
		// only the most recent samples fit, the write cursor still advances
		// by the full burst.
		start = (start + n - capacity) % capacity
		src = src[n-capacity:]
	}

	samplesLeft := capacity - start
	if len(src) < samplesLeft {
		copy(b.data[c][start:], src)
	} else {
		copy(b.data[c][start:], src[:samplesLeft])
		copy(b.data[c], src[samplesLeft:])
	}
	b.write[c] = (start + len(src)) % capacity

	var dropped int64
	backlog := b.ready[c] + n
	if backlog > capacity {
		dropped = int64(backlog - capacity)
		backlog = capacity
		b.read[c] = b.write[c]
		b.overruns[c] += dropped
	}
	b.ready[c] = backlog
	invariant.Check(b.ready[c] == capacity || b.ready[c] == b.distance(c),
		"channel %d ready %d doesn't match cursors %d..%d", c, b.ready[c], b.read[c], b.write[c])
	return dropped
}

// distance is the wraparound difference between write and read cursors.
func (b *Buffer) distance(c int) int {
	d := b.write[c] - b.read[c]
	if d < 0 {
		d += b.capacity
	}
	return d
}

// HasReady returns true if samples were pushed since the last drain.
func (b *Buffer) HasReady() bool {
	return b.hasReady.Load()
}

// ReadyCount returns the number of samples pushed to the channel since the
// last drain. It never exceeds the capacity.
func (b *Buffer) ReadyCount(channel int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if channel < 0 || channel >= len(b.ready) {
		return 0
	}
	return b.ready[channel]
}

// Sample returns ready sample at local index, where index 0 is the oldest
// sample since the last drain.
func (b *Buffer) Sample(localIndex, channel int) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if channel < 0 || channel >= len(b.data) {
		invariant.Check(false, "sample for unknown channel %d", channel)
		return 0, ErrOutOfRange
	}
	if localIndex < 0 || localIndex >= b.ready[channel] {
		invariant.Check(false, "sample %d past ready count %d of channel %d", localIndex, b.ready[channel], channel)
		return 0, ErrOutOfRange
	}
	return b.data[channel][(b.read[channel]+localIndex)%b.capacity], nil
}

// DrainMark moves read cursors to write cursors and clears the ready flag.
func (b *Buffer) DrainMark() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drainMark()
}

func (b *Buffer) drainMark() {
	for c := range b.read {
		b.read[c] = b.write[c]
		b.ready[c] = 0
	}
	b.hasReady.Store(false)
}

// Drain copies all ready samples of every channel into dst in push order
// and marks them as consumed. Slices of dst are reused if they have enough
// capacity. It returns false if nothing was pushed since the last drain.
func (b *Buffer) Drain(dst [][]float64) ([][]float64, bool) {
	if !b.hasReady.Load() {
		return dst, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(dst) != len(b.data) {
		dst = make([][]float64, len(b.data))
	}
	for c := range b.data {
		n := b.ready[c]
		if cap(dst[c]) < n {
			dst[c] = make([]float64, n)
		}
		dst[c] = dst[c][:n]
		start := b.read[c]
		first := copy(dst[c], b.data[c][start:min(start+n, b.capacity)])
		copy(dst[c][first:], b.data[c][:n-first])
	}
	b.drainMark()
	return dst, true
}

// Overruns returns the total number of samples discarded for the channel.
func (b *Buffer) Overruns(channel int) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if channel < 0 || channel >= len(b.overruns) {
		return 0
	}
	return b.overruns[channel]
}

// NumChannels returns the number of stored channels.
func (b *Buffer) NumChannels() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Capacity returns the number of samples stored per channel.
func (b *Buffer) Capacity() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity
}
