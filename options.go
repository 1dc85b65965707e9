package probeview

import (
	"errors"

	"pipelined.dev/probeview/metric"
	"pipelined.dev/probeview/options"
	"pipelined.dev/probeview/tile"
)

// Option provides a way to set functional parameters to viewer.
type Option func(*Viewer) error

// WithLogger sets logger to Viewer. If this option is not provided, silent
// logger is used.
func WithLogger(logger Logger) Option {
	return func(v *Viewer) error {
		v.log = logger
		return nil
	}
}

// WithName sets name to Viewer.
func WithName(n string) Option {
	return func(v *Viewer) error {
		v.name = n
		return nil
	}
}

// WithMetric adds metrics for this viewer.
func WithMetric(m *metric.Metric) Option {
	return func(v *Viewer) error {
		v.metric = m
		return nil
	}
}

// WithOptions sets render settings shared with the host.
func WithOptions(o *options.Options) Option {
	return func(v *Viewer) error {
		if o == nil {
			return errors.New("nil options")
		}
		v.options = o
		return nil
	}
}

// WithGeometry sets display width, tile width and channel band height.
func WithGeometry(cfg tile.Config) Option {
	return func(v *Viewer) error {
		if cfg.DisplayWidth <= 0 || cfg.TileWidth <= 0 || cfg.BandHeight <= 0 {
			return tile.ErrInvalidConfig
		}
		v.geometry = cfg
		return nil
	}
}

// WithWindow sets the time span shown across the display.
func WithWindow(seconds float64) Option {
	return func(v *Viewer) error {
		if seconds <= 0 {
			return errors.New("window must be positive")
		}
		v.windowSeconds = seconds
		return nil
	}
}

// WithMaxQueueDepth sets the number of pixels that can wait for rendering
// per channel.
func WithMaxQueueDepth(n int) Option {
	return func(v *Viewer) error {
		v.maxDepth = n
		return nil
	}
}
