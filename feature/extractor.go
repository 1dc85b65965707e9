// Package feature reduces raw samples to one scalar per pixel column.
//
// Every pixel summarizes exactly SamplesPerPixel samples of a channel.
// Samples are centered around the (max+min)/2 midpoint of their group and
// then reduced according to the selected render mode: RMS amplitude, spike
// rate or FFT power at one frequency. Samples that don't make a full pixel
// are kept until the next pass.
package feature

import (
	"errors"
	"fmt"
	"math"

	"pipelined.dev/probeview/internal/invariant"
	"pipelined.dev/probeview/options"
)

var (
	// ErrSamplesPerPixel is returned when channel has non-positive samples
	// per pixel.
	ErrSamplesPerPixel = errors.New("samples per pixel must be positive")
	// ErrSampleRate is returned when channel has non-positive sample rate.
	ErrSampleRate = errors.New("sample rate must be positive")
	// ErrNoChannels is returned when extractor is created without channels.
	ErrNoChannels = errors.New("no channels")
	// ErrInvalidFFT is returned for FFT size that is not a power of two or
	// non-positive analysis rate.
	ErrInvalidFFT = errors.New("invalid fft parameters")
)

// fftScale converts raw sample offsets to FFT input.
const fftScale = 500

// Settings provides render settings read on every pixel.
type Settings interface {
	RenderMode() options.Mode
	SpikeThreshold() float64
	FFTCenterBin() int
}

// Channel describes input of one channel.
type Channel struct {
	SampleRate      float64
	SamplesPerPixel int
}

// Option configures extractor.
type Option func(*Extractor) error

// WithFFT sets FFT window size and the rate FFT input is decimated to.
func WithFFT(size int, targetRate float64) Option {
	return func(e *Extractor) error {
		if size < 2 || size&(size-1) != 0 || targetRate <= 0 {
			return fmt.Errorf("size %d rate %v: %w", size, targetRate, ErrInvalidFFT)
		}
		e.fftSize = size
		e.targetRate = targetRate
		return nil
	}
}

// Extractor holds per-channel extraction state. It's owned by the consumer
// and not safe for concurrent use.
type Extractor struct {
	settings   Settings
	fftSize    int
	targetRate float64
	channels   []channel
	spectrum   *spectrum
}

type channel struct {
	Channel
	partial partialCache
	group   []float64
	// decimation state of FFT input.
	stride  int
	counter int
	cache   fftCache
}

// New returns extractor for channels.
func New(channels []Channel, settings Settings, opts ...Option) (*Extractor, error) {
	if len(channels) == 0 {
		return nil, ErrNoChannels
	}
	e := Extractor{
		settings:   settings,
		fftSize:    options.DefaultFFTSize,
		targetRate: options.DefaultFFTTargetRate,
	}
	for _, opt := range opts {
		if err := opt(&e); err != nil {
			return nil, err
		}
	}
	e.channels = make([]channel, len(channels))
	for i, c := range channels {
		if c.SamplesPerPixel <= 0 {
			return nil, fmt.Errorf("channel %d: %w", i, ErrSamplesPerPixel)
		}
		if c.SampleRate <= 0 {
			return nil, fmt.Errorf("channel %d: %w", i, ErrSampleRate)
		}
		e.channels[i] = channel{
			Channel: c,
			group:   make([]float64, 0, c.SamplesPerPixel),
			stride:  max(1, int(math.Floor(c.SampleRate/e.targetRate))),
			cache:   newFFTCache(e.fftSize),
		}
	}
	e.spectrum = newSpectrum(e.fftSize)
	return &e, nil
}

// NumChannels returns number of channels.
func (e *Extractor) NumChannels() int {
	return len(e.channels)
}

// Channel returns channel description.
func (e *Extractor) Channel(c int) Channel {
	return e.channels[c].Channel
}

// Pending returns number of samples cached for the next pass.
func (e *Extractor) Pending(c int) int {
	return e.channels[c].partial.Len()
}

// Reset drops cached samples and FFT state of all channels.
func (e *Extractor) Reset() {
	for i := range e.channels {
		c := &e.channels[i]
		c.partial.Reset()
		c.counter = 0
		c.cache.reset()
	}
}

// Extract reduces cached and fresh samples of the channel into pixels and
// calls emit for every one of them in order. Samples left over are cached.
// Emit errors don't stop the extraction, the first one is returned. It
// returns number of emitted pixels.
func (e *Extractor) Extract(c int, fresh []float64, emit func(float64) error) (int, error) {
	if c < 0 || c >= len(e.channels) {
		return 0, fmt.Errorf("channel %d of %d", c, len(e.channels))
	}
	ch := &e.channels[c]
	var (
		emitted  int
		firstErr error
	)
	for {
		need := ch.SamplesPerPixel - ch.partial.Len()
		if len(fresh) < need {
			break
		}
		ch.group = ch.group[:0]
		for v, ok := ch.partial.PopFront(); ok; v, ok = ch.partial.PopFront() {
			ch.group = append(ch.group, v)
		}
		ch.group = append(ch.group, fresh[:need]...)
		fresh = fresh[need:]

		if err := emit(e.pixel(ch, ch.group)); err != nil && firstErr == nil {
			firstErr = err
		}
		emitted++
	}
	ch.partial.Append(fresh...)
	invariant.Check(ch.partial.Len() < ch.SamplesPerPixel,
		"channel %d caches %d samples, pixel is %d", c, ch.partial.Len(), ch.SamplesPerPixel)
	return emitted, firstErr
}

// pixel reduces the group of exactly SamplesPerPixel samples.
func (e *Extractor) pixel(ch *channel, group []float64) float64 {
	lo, hi := group[0], group[0]
	for _, v := range group[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	median := (hi + lo) / 2

	switch e.settings.RenderMode() {
	case options.SpikeRate:
		threshold := e.settings.SpikeThreshold()
		spikes := 0
		for _, v := range group {
			if v-median < threshold {
				spikes++
			}
		}
		return SpikeRate(spikes, ch.SamplesPerPixel, ch.SampleRate)
	case options.FFT:
		for _, v := range group {
			if ch.counter == 0 {
				ch.cache.push((v - median) / fftScale)
			}
			ch.counter = (ch.counter + 1) % ch.stride
		}
		if !ch.cache.filled {
			return math.Inf(-1)
		}
		return e.spectrum.power(&ch.cache, e.settings.FFTCenterBin())
	default:
		var sum float64
		for _, v := range group {
			offset := v - median
			sum += offset * offset
		}
		return math.Sqrt(sum / float64(len(group)))
	}
}

// SpikeRate returns spikes per second of a pixel.
func SpikeRate(spikes, samplesPerPixel int, sampleRate float64) float64 {
	return float64(spikes) / (float64(samplesPerPixel) / sampleRate)
}

// SamplesPerPixel returns number of samples rendered as one pixel column
// when window seconds are shown on display width pixels.
func SamplesPerPixel(sampleRate, windowSeconds float64, displayWidth int) int {
	if displayWidth <= 0 {
		return 0
	}
	return int(sampleRate * windowSeconds / float64(displayWidth))
}
