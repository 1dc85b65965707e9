package source

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Generator produces synthetic probe signal: a sine wave with negative
// spikes and uniform noise. Channel c oscillates at (c+1)*Frequency.
type Generator struct {
	Format Format
	// Frequency of the first channel sine in Hz.
	Frequency float64
	Amplitude float64
	// SpikeRate is the mean number of spikes per second.
	SpikeRate      float64
	SpikeAmplitude float64
	Noise          float64
	// Duration limits generated signal, zero runs until context is done.
	Duration time.Duration
	// BurstSizes are cycled through, DefaultBurstSizes if empty.
	BurstSizes []int
	// Realtime paces bursts with their duration.
	Realtime bool
	Seed     uint64
}

// Run pushes generated signal into pusher. It returns number of samples
// pushed per channel.
func (g *Generator) Run(ctx context.Context, p Pusher) (int64, error) {
	if g.Format.NumChannels <= 0 || g.Format.SampleRate <= 0 {
		return 0, ErrInvalidFormat
	}
	sizes := g.BurstSizes
	if len(sizes) == 0 {
		sizes = DefaultBurstSizes
	}
	if err := validateBursts(sizes); err != nil {
		return 0, err
	}
	limit := int64(-1)
	if g.Duration > 0 {
		limit = int64(g.Duration.Seconds() * g.Format.SampleRate)
	}

	rnd := rand.New(rand.NewPCG(g.Seed, g.Seed^0x9e3779b97f4a7c15))
	spikeProbability := g.SpikeRate / g.Format.SampleRate
	frame := make([][]float64, g.Format.NumChannels)
	for c := range frame {
		frame[c] = make([]float64, maxBurst(sizes))
	}
	counts := make([]int, g.Format.NumChannels)

	var pushed int64
	for i := 0; limit < 0 || pushed < limit; i++ {
		n := sizes[i%len(sizes)]
		if limit >= 0 {
			n = int(min(int64(n), limit-pushed))
		}
		for c := range frame {
			freq := g.Frequency * float64(c+1)
			for j := 0; j < n; j++ {
				t := float64(pushed+int64(j)) / g.Format.SampleRate
				v := g.Amplitude * math.Sin(2*math.Pi*freq*t)
				if g.Noise > 0 {
					v += g.Noise * (2*rnd.Float64() - 1)
				}
				if spikeProbability > 0 && rnd.Float64() < spikeProbability {
					v -= g.SpikeAmplitude
				}
				frame[c][j] = v
			}
			counts[c] = n
		}
		if err := p.Push(frame, counts); err != nil {
			return pushed, err
		}
		pushed += int64(n)
		if err := pace(ctx, g.Realtime, n, g.Format.SampleRate); err != nil {
			return pushed, err
		}
	}
	return pushed, nil
}
