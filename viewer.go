package probeview

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/rs/xid"
	"golang.org/x/image/draw"

	"pipelined.dev/probeview/colour"
	"pipelined.dev/probeview/composite"
	"pipelined.dev/probeview/feature"
	"pipelined.dev/probeview/ingest"
	"pipelined.dev/probeview/internal/invariant"
	"pipelined.dev/probeview/metric"
	"pipelined.dev/probeview/options"
	"pipelined.dev/probeview/queue"
	"pipelined.dev/probeview/signal"
	"pipelined.dev/probeview/tile"
)

// Defaults of the viewer.
const (
	// DefaultWindowSeconds is the time span shown across the display.
	DefaultWindowSeconds = 10
	// DefaultCapacitySeconds is the ingest buffer length.
	DefaultCapacitySeconds = 10
)

// Logger is a global interface for viewer loggers.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
}

// ErrNoChannels is returned when viewer is configured without channels.
var ErrNoChannels = errors.New("no channels")

// newUID returns new unique id value.
func newUID() string {
	return xid.New().String()
}

// Viewer turns pushed multichannel samples into a scrolling raster. Push
// is called by the producer and can be called concurrently with the
// consumer methods. All other methods are owned by the consumer.
type Viewer struct {
	uid           string
	name          string
	log           Logger
	metric        *metric.Metric
	options       *options.Options
	mapper        *colour.Mapper
	geometry      tile.Config
	windowSeconds float64
	maxDepth      int

	buffer     ingest.Buffer
	configured atomic.Bool

	rates      []float64
	extractor  *feature.Extractor
	queues     []*queue.Queue
	renderer   *tile.Renderer
	compositor *composite.Compositor
	drained    [][]float64
	counts     []int
	mode       options.Mode
}

// New creates a viewer and applies provided options. Viewer must be
// configured before samples are pushed.
func New(opts ...Option) (*Viewer, error) {
	v := Viewer{
		uid:           newUID(),
		log:           defaultLogger,
		options:       options.New(),
		mapper:        colour.NewMapper(),
		geometry:      tile.DefaultConfig(),
		windowSeconds: DefaultWindowSeconds,
		maxDepth:      queue.DefaultMaxDepth,
	}
	for _, opt := range opts {
		if err := opt(&v); err != nil {
			return nil, err
		}
	}
	r, err := tile.New(v.geometry, v.mapper)
	if err != nil {
		return nil, err
	}
	v.renderer = r
	v.compositor = composite.New()
	v.mode = v.options.RenderMode()
	invariant.OnViolation(func(msg string) {
		v.log.Warn(fmt.Sprintf("%v: invariant violated: %s", &v, msg))
	})
	return &v, nil
}

// Configure sets up the viewer for channels of the same sample rate.
// Active mask selects frame channels that are displayed, nil mask means
// all channels.
func (v *Viewer) Configure(numChannels int, sampleRate, capacitySeconds float64, active []bool) error {
	if numChannels <= 0 {
		return ErrNoChannels
	}
	rates := make([]float64, numChannels)
	for i := range rates {
		rates[i] = sampleRate
	}
	return v.ConfigureChannels(rates, capacitySeconds, active)
}

// ConfigureChannels sets up the viewer for displayed channels with their
// own sample rates. All buffered data is discarded. On error the viewer
// keeps its previous configuration. It must not be called concurrently
// with Push.
func (v *Viewer) ConfigureChannels(rates []float64, capacitySeconds float64, active []bool) error {
	if len(rates) == 0 {
		return ErrNoChannels
	}
	channels := make([]feature.Channel, len(rates))
	maxRate := 0.0
	for i, rate := range rates {
		channels[i] = feature.Channel{
			SampleRate:      rate,
			SamplesPerPixel: feature.SamplesPerPixel(rate, v.windowSeconds, v.geometry.DisplayWidth),
		}
		maxRate = math.Max(maxRate, rate)
	}
	extractor, err := feature.New(channels, v.options,
		feature.WithFFT(v.options.FFTSize(), v.options.FFTTargetRate()))
	if err != nil {
		return fmt.Errorf("%v: %w", v, err)
	}
	capacity := int(math.Ceil(maxRate * capacitySeconds))
	if err := v.buffer.Configure(len(rates), capacity, active); err != nil {
		return fmt.Errorf("%v: %w", v, err)
	}
	if err := v.renderer.Configure(len(rates)); err != nil {
		return fmt.Errorf("%v: %w", v, err)
	}

	v.rates = append(v.rates[:0], rates...)
	v.extractor = extractor
	v.queues = make([]*queue.Queue, len(rates))
	for i := range v.queues {
		v.queues[i] = queue.New(v.maxDepth)
	}
	v.drained = nil
	v.counts = make([]int, len(rates))
	v.compositor.Invalidate()
	v.configured.Store(true)
	v.log.Info(fmt.Sprintf("%v: configured %d channels, capacity %d samples, %d samples per pixel",
		v, len(rates), capacity, channels[0].SamplesPerPixel))
	return nil
}

// Push copies counts[c] samples of every frame channel into the ingest
// buffer. It never blocks on the consumer. Samples that don't fit are
// discarded oldest first.
func (v *Viewer) Push(frame [][]float64, counts []int) error {
	dropped, err := v.buffer.Push(frame, counts)
	if err != nil {
		return err
	}
	if dropped > 0 {
		v.metric.Overruns(dropped)
		v.log.Debug(fmt.Sprintf("%v: overrun, %d samples discarded", v, dropped))
	}
	return nil
}

// PushBuffer pushes interleaved go-audio buffer.
func (v *Viewer) PushBuffer(b audio.Buffer) error {
	floats := signal.FromAudio(b)
	if floats == nil {
		return nil
	}
	return v.Push(floats, floats.Counts())
}

// Update drains fresh samples, reduces them to pixels and renders them
// into tiles. It returns the number of rendered columns. It does nothing
// until the viewer is configured or if there are no fresh samples.
func (v *Viewer) Update() (int, error) {
	if !v.configured.Load() {
		return 0, nil
	}
	drained, ok := v.buffer.Drain(v.drained)
	v.drained = drained
	if !ok {
		return 0, nil
	}
	if mode := v.options.RenderMode(); mode != v.mode {
		v.mode = mode
		v.compositor.Invalidate()
	}

	var (
		errs   updateErrors
		pixels int
	)
	for c, samples := range drained {
		q := v.queues[c]
		n, err := v.extractor.Extract(c, samples, func(value float64) error {
			if err := q.Push(value); err != nil {
				v.metric.Backpressure()
				invariant.Check(false, "pixel queue of channel %d is full", c)
				return err
			}
			return nil
		})
		pixels += n
		if err != nil {
			v.log.Warn(fmt.Sprintf("%v: channel %d: %v", v, c, err))
			errs = append(errs, fmt.Errorf("channel %d: %w", c, err))
		}
	}
	columns := v.render()

	for c := range drained {
		v.counts[c] = len(drained[c])
	}
	v.metric.Ingest(v.rates, v.counts)
	v.metric.Pixels(int64(pixels))
	v.metric.Columns(int64(columns))
	return columns, errs.ret()
}

// render writes one column per tick until all queues are empty. Channels
// without a value for the column keep the stale pixel.
func (v *Viewer) render() int {
	columns := 0
	for _, q := range v.queues {
		columns = max(columns, q.Len())
	}
	bounds := v.options.Bounds(v.mode)
	scheme := v.options.ColourScheme()
	for i := 0; i < columns; i++ {
		for c, q := range v.queues {
			if value, ok := q.Pop(); ok {
				v.renderer.WriteColumn(c, value, bounds, scheme)
			}
		}
		v.renderer.Tick()
	}
	return columns
}

// Frame composes the tiles into the display surface. It returns nil until
// the viewer is configured.
func (v *Viewer) Frame() *image.RGBA {
	if !v.configured.Load() {
		return nil
	}
	s := v.compositor.Compose(v.renderer)
	v.metric.Frame()
	return s
}

// Refresh runs one paint cycle: Update followed by Frame. The frame is
// returned even if update failed.
func (v *Viewer) Refresh() (*image.RGBA, error) {
	_, err := v.Update()
	return v.Frame(), err
}

// Present scales the last frame into dst.
func (v *Viewer) Present(dst draw.Image, viewportWidth int, channelPixelHeight float64) image.Rectangle {
	return v.compositor.Present(dst, viewportWidth, channelPixelHeight)
}

// SetRenderMode selects the render mode. Next frame is fully redrawn.
func (v *Viewer) SetRenderMode(m options.Mode) error {
	if err := v.options.SetRenderMode(m); err != nil {
		return err
	}
	if m != v.mode {
		v.mode = m
		v.compositor.Invalidate()
	}
	return nil
}

// Options returns render settings of the viewer.
func (v *Viewer) Options() *options.Options {
	return v.options
}

// Renderer returns the tile renderer.
func (v *Viewer) Renderer() *tile.Renderer {
	return v.renderer
}

// Pending reports if pushed samples wait for the next Update. It's safe
// to call from the producer.
func (v *Viewer) Pending() bool {
	return v.buffer.HasReady()
}

// Overruns returns the number of samples discarded for the channel.
func (v *Viewer) Overruns(channel int) int64 {
	return v.buffer.Overruns(channel)
}

// ID returns the viewer id.
func (v *Viewer) ID() string {
	return v.uid
}

// String returns viewer name and id.
func (v *Viewer) String() string {
	if v.name == "" {
		return v.uid
	}
	return fmt.Sprintf("%v %v", v.name, v.uid)
}

type silentLogger struct{}

func (silentLogger) Debug(args ...interface{}) {}

func (silentLogger) Info(args ...interface{}) {}

func (silentLogger) Warn(args ...interface{}) {}

var defaultLogger silentLogger
