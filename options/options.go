// Package options holds the user-facing render settings read by the
// extraction and rendering stages. Values are set by the host (option
// controls, command line) and only read by the pipeline.
package options

import (
	"fmt"
	"math"
	"strings"

	"pipelined.dev/probeview/colour"
)

// Mode selects the feature rendered per pixel column.
type Mode int

const (
	// RMS renders median-offset root mean square amplitude.
	RMS Mode = iota
	// SpikeRate renders threshold crossings per second.
	SpikeRate
	// FFT renders spectral power at the selected frequency.
	FFT
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case RMS:
		return "rms"
	case SpikeRate:
		return "spikerate"
	case FFT:
		return "fft"
	}
	return "unknown"
}

// ParseMode returns the mode for its name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "rms":
		return RMS, nil
	case "spikerate", "spike-rate", "spike_rate":
		return SpikeRate, nil
	case "fft":
		return FFT, nil
	}
	return 0, fmt.Errorf("unknown render mode %q", s)
}

// Default FFT analysis parameters.
const (
	DefaultFFTSize       = 256
	DefaultFFTTargetRate = 1000
)

// Bounds are the feature values mapped to the bottom and the top of the
// colour scale.
type Bounds struct {
	Low  float64
	High float64
}

// Spread returns the distance between bounds. Zero spread is returned as 1
// so it can be used as a divisor.
func (b Bounds) Spread() float64 {
	s := math.Abs(b.High - b.Low)
	if s == 0 {
		return 1
	}
	return s
}

// Normalize maps the value to the [0, 1] range of the bounds. Values
// outside of bounds are not clamped.
func (b Bounds) Normalize(v float64) float64 {
	return (v - b.Low) / b.Spread()
}

// Options is a set of render settings. Zero value is not usable, New
// returns options with defaults.
type Options struct {
	mode           Mode
	scheme         colour.Scheme
	bounds         [3]Bounds
	spikeThreshold float64
	centerFreq     float64
	fftSize        int
	fftTargetRate  float64
}

// New returns options initialised with defaults.
func New() *Options {
	return &Options{
		mode:   RMS,
		scheme: colour.Inferno,
		bounds: [3]Bounds{
			RMS:       {Low: 0, High: 250},
			SpikeRate: {Low: 0, High: 10000},
			FFT:       {Low: -100, High: 0},
		},
		spikeThreshold: -50,
		centerFreq:     1,
		fftSize:        DefaultFFTSize,
		fftTargetRate:  DefaultFFTTargetRate,
	}
}

// RenderMode returns selected render mode.
func (o *Options) RenderMode() Mode { return o.mode }

// SetRenderMode selects the render mode.
func (o *Options) SetRenderMode(m Mode) error {
	if m < RMS || m > FFT {
		return fmt.Errorf("invalid render mode %d", m)
	}
	o.mode = m
	return nil
}

// ColourScheme returns selected colour scheme.
func (o *Options) ColourScheme() colour.Scheme { return o.scheme }

// SetColourScheme selects the colour scheme.
func (o *Options) SetColourScheme(s colour.Scheme) { o.scheme = s }

// Bounds returns colour mapping bounds of the mode.
func (o *Options) Bounds(m Mode) Bounds {
	if m < RMS || m > FFT {
		return Bounds{}
	}
	return o.bounds[m]
}

// SetBounds sets colour mapping bounds of the mode. Values are clamped to
// the ranges accepted by the mode: RMS bounds are non-negative, spike rate
// bounds are within [0, 10000] Hz and FFT bounds within [-100, 0] dB.
func (o *Options) SetBounds(m Mode, b Bounds) {
	switch m {
	case RMS:
		b.Low, b.High = math.Abs(b.Low), math.Abs(b.High)
	case SpikeRate:
		b.Low = math.Min(math.Abs(b.Low), 5000)
		b.High = math.Min(math.Abs(b.High), 10000)
	case FFT:
		b.Low = -math.Min(math.Abs(b.Low), 100)
		b.High = -math.Min(math.Abs(b.High), 100)
	default:
		return
	}
	o.bounds[m] = b
}

// SpikeThreshold returns the median offset below which a sample counts as
// a spike.
func (o *Options) SpikeThreshold() float64 { return o.spikeThreshold }

// SetSpikeThreshold sets the spike threshold. Threshold is always negative
// and its magnitude is clamped to [10, 500].
func (o *Options) SetSpikeThreshold(v float64) {
	v = math.Abs(v)
	v = math.Max(10, math.Min(v, 500))
	o.spikeThreshold = -v
}

// FFTCenterFrequency returns the frequency rendered in FFT mode.
func (o *Options) FFTCenterFrequency() float64 { return o.centerFreq }

// SetFFTCenterFrequency sets the frequency rendered in FFT mode. It's
// clamped to the analysis bandwidth.
func (o *Options) SetFFTCenterFrequency(f float64) {
	o.centerFreq = math.Max(0, math.Min(f, o.fftTargetRate/2))
}

// FFTCenterBin returns the FFT output bin for the center frequency.
func (o *Options) FFTCenterBin() int {
	return FreqToBin(o.centerFreq, o.fftTargetRate/2, o.fftSize/2)
}

// FFTSize returns the FFT window size.
func (o *Options) FFTSize() int { return o.fftSize }

// FFTTargetRate returns the rate FFT input is decimated to.
func (o *Options) FFTTargetRate() float64 { return o.fftTargetRate }

// SetFFT sets FFT window size and analysis rate. Size must be a power of
// two.
func (o *Options) SetFFT(size int, targetRate float64) error {
	if size < 2 || size&(size-1) != 0 {
		return fmt.Errorf("fft size %d is not a power of two", size)
	}
	if targetRate <= 0 {
		return fmt.Errorf("invalid fft target rate %v", targetRate)
	}
	o.fftSize = size
	o.fftTargetRate = targetRate
	o.SetFFTCenterFrequency(o.centerFreq)
	return nil
}

// FreqToBin returns the FFT bin index of the frequency. Both 0 and numBins
// are valid results.
func FreqToBin(freq, maxFreq float64, numBins int) int {
	if maxFreq <= 0 {
		return 0
	}
	return int(math.Round(freq / maxFreq * float64(numBins)))
}
