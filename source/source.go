// Package source provides producers that push sample bursts into a
// viewer: a wav file reader and a synthetic signal generator.
package source

import (
	"context"
	"errors"
	"time"
)

// Pusher receives bursts of non-interleaved samples. It's implemented by
// probeview.Viewer.
type Pusher interface {
	Push(frame [][]float64, counts []int) error
}

// Format describes produced signal.
type Format struct {
	NumChannels int
	SampleRate  float64
}

// DefaultBurstSizes are the burst sizes producers cycle through when none
// are provided. Sizes are uneven to emulate acquisition hardware.
var DefaultBurstSizes = []int{512, 384, 640, 256}

var (
	// ErrInvalidBurst is returned when burst size is not positive.
	ErrInvalidBurst = errors.New("burst size must be positive")
	// ErrInvalidFormat is returned when signal format is not positive.
	ErrInvalidFormat = errors.New("number of channels and sample rate must be positive")
)

func validateBursts(sizes []int) error {
	for _, s := range sizes {
		if s <= 0 {
			return ErrInvalidBurst
		}
	}
	return nil
}

func maxBurst(sizes []int) int {
	m := 0
	for _, s := range sizes {
		m = max(m, s)
	}
	return m
}

// pace waits for the duration of burst if producer runs in real time. It
// returns context error if context is done before.
func pace(ctx context.Context, realtime bool, samples int, sampleRate float64) error {
	if !realtime {
		return ctx.Err()
	}
	t := time.NewTimer(time.Duration(float64(samples) / sampleRate * float64(time.Second)))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
