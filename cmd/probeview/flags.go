package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"pipelined.dev/probeview"
	"pipelined.dev/probeview/colour"
	"pipelined.dev/probeview/log"
	"pipelined.dev/probeview/metric"
	"pipelined.dev/probeview/options"
	"pipelined.dev/probeview/source"
	"pipelined.dev/probeview/source/portaudio"
)

// producer pushes signal into the viewer until it's done or context is
// cancelled.
type producer interface {
	Run(context.Context, source.Pusher) (int64, error)
}

type sourceFlags struct {
	wav      string
	capture  bool
	channels int
	rate     float64
	duration time.Duration
	scale    float64
	realtime bool
	seed     uint64
}

func (f *sourceFlags) register(fs *flag.FlagSet, realtime bool) {
	fs.StringVar(&f.wav, "wav", "", "wav file to read, synthetic signal if empty")
	fs.BoolVar(&f.capture, "capture", false, "capture the default input device")
	fs.IntVar(&f.channels, "channels", 32, "number of channels of synthetic or captured signal")
	fs.Float64Var(&f.rate, "rate", 30000, "sample rate of synthetic or captured signal")
	fs.DurationVar(&f.duration, "duration", 10*time.Second, "duration of synthetic signal, 0 runs until stopped")
	fs.Float64Var(&f.scale, "scale", 500, "multiplier of wav and captured samples")
	fs.BoolVar(&f.realtime, "realtime", realtime, "pace wav and synthetic signal in real time")
	fs.Uint64Var(&f.seed, "seed", 1, "seed of synthetic signal noise")
}

// open returns producer of the flags and a function that releases it.
func (f *sourceFlags) open() (producer, source.Format, func() error, error) {
	noop := func() error { return nil }
	switch {
	case f.wav != "" && f.capture:
		return nil, source.Format{}, nil, errors.New("-wav and -capture are mutually exclusive")
	case f.wav != "":
		w, err := source.OpenWav(f.wav)
		if err != nil {
			return nil, source.Format{}, nil, err
		}
		w.Realtime = f.realtime
		w.Scale = f.scale
		return w, w.Format(), w.Close, nil
	case f.capture:
		c, err := portaudio.NewCapture(f.channels, f.rate, portaudio.DefaultBufferSize)
		if err != nil {
			return nil, source.Format{}, nil, err
		}
		c.Scale = f.scale
		return c, c.Format(), noop, nil
	}
	g := &source.Generator{
		Format:         source.Format{NumChannels: f.channels, SampleRate: f.rate},
		Frequency:      8,
		Amplitude:      120,
		SpikeRate:      20,
		SpikeAmplitude: 200,
		Noise:          30,
		Duration:       f.duration,
		Realtime:       f.realtime,
		Seed:           f.seed,
	}
	return g, g.Format, noop, nil
}

type displayFlags struct {
	mode           options.Mode
	scheme         colour.Scheme
	window         float64
	capacity       float64
	spikeThreshold float64
	fftFrequency   float64
	width          int
	channelHeight  float64
}

func (f *displayFlags) register(fs *flag.FlagSet) {
	fs.Func("mode", "render mode: rms, spikerate or fft (default rms)", func(s string) (err error) {
		f.mode, err = options.ParseMode(s)
		return
	})
	fs.Func("scheme", "colour scheme: inferno, viridis, plasma, magma or jet (default inferno)", func(s string) (err error) {
		f.scheme, err = colour.ParseScheme(s)
		return
	})
	fs.Float64Var(&f.window, "window", probeview.DefaultWindowSeconds, "seconds shown across the display")
	fs.Float64Var(&f.capacity, "buffer", probeview.DefaultCapacitySeconds, "seconds of signal buffered between frames")
	fs.Float64Var(&f.spikeThreshold, "threshold", -50, "spike threshold")
	fs.Float64Var(&f.fftFrequency, "freq", 1, "frequency rendered in fft mode")
	fs.IntVar(&f.width, "width", 1920, "width of the output in pixels")
	fs.Float64Var(&f.channelHeight, "channel-height", 8, "height of a channel in the output in pixels")
}

// viewer returns configured viewer for the signal format.
func (f *displayFlags) viewer(name string, format source.Format) (*probeview.Viewer, error) {
	o := options.New()
	if err := o.SetRenderMode(f.mode); err != nil {
		return nil, err
	}
	o.SetColourScheme(f.scheme)
	o.SetSpikeThreshold(f.spikeThreshold)
	o.SetFFTCenterFrequency(f.fftFrequency)

	v, err := probeview.New(
		probeview.WithName(name),
		probeview.WithOptions(o),
		probeview.WithWindow(f.window),
		probeview.WithLogger(log.WithComponent(log.GetLogger(), "probeview", name)),
		probeview.WithMetric(metric.New(name)),
	)
	if err != nil {
		return nil, err
	}
	if err := v.Configure(format.NumChannels, format.SampleRate, f.capacity, nil); err != nil {
		return nil, err
	}
	return v, nil
}

// outputHeight returns height of the output in pixels.
func (f *displayFlags) outputHeight(numChannels int) int {
	return int(f.channelHeight * float64(numChannels))
}
