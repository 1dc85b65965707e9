package probeview_test

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pipelined.dev/probeview"
	"pipelined.dev/probeview/colour"
	"pipelined.dev/probeview/composite"
	"pipelined.dev/probeview/feature"
	"pipelined.dev/probeview/ingest"
	"pipelined.dev/probeview/internal/invariant"
	"pipelined.dev/probeview/internal/mock"
	"pipelined.dev/probeview/log"
	"pipelined.dev/probeview/metric"
	"pipelined.dev/probeview/options"
	"pipelined.dev/probeview/queue"
	"pipelined.dev/probeview/tile"
)

const sampleRate = 640

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// geometry with 10 samples per pixel at sampleRate and one second window.
var geometry = tile.Config{DisplayWidth: 64, TileWidth: 16, BandHeight: 2}

func newViewer(t *testing.T, opts ...probeview.Option) *probeview.Viewer {
	t.Helper()
	opts = append([]probeview.Option{
		probeview.WithGeometry(geometry),
		probeview.WithWindow(1),
	}, opts...)
	v, err := probeview.New(opts...)
	require.NoError(t, err)
	return v
}

func constant(value float64, n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = value
	}
	return s
}

func alternating(amplitude float64, n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		if i%2 == 0 {
			s[i] = amplitude
		} else {
			s[i] = -amplitude
		}
	}
	return s
}

func TestConfigure(t *testing.T) {
	tests := []struct {
		numChannels     int
		sampleRate      float64
		capacitySeconds float64
		active          []bool
		err             error
	}{
		{numChannels: 2, sampleRate: sampleRate, capacitySeconds: 1},
		{numChannels: 0, sampleRate: sampleRate, capacitySeconds: 1, err: probeview.ErrNoChannels},
		{numChannels: 2, sampleRate: 10, capacitySeconds: 1, err: feature.ErrSamplesPerPixel},
		{numChannels: 2, sampleRate: sampleRate, capacitySeconds: 0, err: ingest.ErrInvalidCapacity},
		{numChannels: 2, sampleRate: sampleRate, capacitySeconds: 1, active: []bool{true}, err: ingest.ErrInvalidMask},
	}
	for _, test := range tests {
		v := newViewer(t)
		err := v.Configure(test.numChannels, test.sampleRate, test.capacitySeconds, test.active)
		if test.err != nil {
			assert.True(t, errors.Is(err, test.err), "expected %v, got %v", test.err, err)
			assert.Nil(t, v.Frame())
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, test.numChannels, v.Renderer().NumChannels())
	}
}

func TestNewOptions(t *testing.T) {
	_, err := probeview.New(probeview.WithGeometry(tile.Config{}))
	assert.Equal(t, tile.ErrInvalidConfig, err)
	_, err = probeview.New(probeview.WithWindow(0))
	assert.Error(t, err)
	_, err = probeview.New(probeview.WithOptions(nil))
	assert.Error(t, err)

	v, err := probeview.New(probeview.WithName("probe"), probeview.WithLogger(log.GetLogger()))
	require.NoError(t, err)
	assert.Equal(t, "probe "+v.ID(), v.String())
}

func TestUnconfigured(t *testing.T) {
	v := newViewer(t)
	columns, err := v.Update()
	assert.NoError(t, err)
	assert.Equal(t, 0, columns)
	assert.Nil(t, v.Frame())
	assert.Equal(t, ingest.ErrNotConfigured, v.Push([][]float64{{1}}, []int{1}))
}

func TestUpdate(t *testing.T) {
	m := metric.New("update-test")
	v := newViewer(t, probeview.WithMetric(m))
	require.NoError(t, v.Configure(2, sampleRate, 1, nil))

	// nothing pushed.
	columns, err := v.Update()
	require.NoError(t, err)
	assert.Equal(t, 0, columns)

	require.NoError(t, v.Push([][]float64{constant(3, 105), alternating(100, 100)}, []int{105, 100}))
	frame, err := v.Refresh()
	require.NoError(t, err)
	require.NotNil(t, frame)
	assert.Equal(t, image.Rect(0, 0, 64, 4), frame.Bounds())
	assert.Equal(t, 10, v.Renderer().CursorColumn())

	mapper := colour.NewMapper()
	quiet := mapper.ColourFor(0, colour.Inferno)
	// rms 100 of 250.
	loud := mapper.ColourFor(0.4, colour.Inferno)
	for x := 0; x < 10; x++ {
		assert.Equal(t, quiet, frame.RGBAAt(x, 3), "column %d", x)
		assert.Equal(t, quiet, frame.RGBAAt(x, 2), "column %d", x)
		assert.Equal(t, loud, frame.RGBAAt(x, 1), "column %d", x)
		assert.Equal(t, loud, frame.RGBAAt(x, 0), "column %d", x)
	}
	assert.Equal(t, composite.ScrubLine, frame.RGBAAt(10, 0))

	counters := metric.Get("update-test")
	assert.Equal(t, "20", counters[metric.PixelCounter])
	assert.Equal(t, "10", counters[metric.ColumnCounter])
	assert.Equal(t, "205", counters[metric.SampleCounter])
	assert.Equal(t, "1", counters[metric.FrameCounter])
}

func TestLappedRing(t *testing.T) {
	v := newViewer(t)
	require.NoError(t, v.Configure(1, sampleRate, 2, nil))
	require.NoError(t, v.Push([][]float64{alternating(100, 100)}, []int{100}))
	_, err := v.Refresh()
	require.NoError(t, err)

	// more than one ring of columns between two frames.
	require.NoError(t, v.Push([][]float64{alternating(50, 660)}, []int{660}))
	frame, err := v.Refresh()
	require.NoError(t, err)
	r := v.Renderer()
	require.Equal(t, 12, r.CursorColumn())
	tw := r.TileWidth()
	for x := 0; x < 64; x++ {
		if x == r.CursorColumn() {
			continue
		}
		assert.Equal(t, r.Tile(x/tw).RGBAAt(x%tw, 0), frame.RGBAAt(x, 0), "column %d", x)
	}
}

func TestStaleChannel(t *testing.T) {
	v := newViewer(t)
	require.NoError(t, v.Configure(2, sampleRate, 1, nil))
	require.NoError(t, v.Push([][]float64{alternating(100, 30), nil}, []int{30, 0}))
	columns, err := v.Update()
	require.NoError(t, err)
	assert.Equal(t, 3, columns)

	// channel 1 pixels are not written.
	frame := v.Frame()
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, frame.RGBAAt(0, 0))
	assert.NotEqual(t, color.RGBA{0, 0, 0, 255}, frame.RGBAAt(0, 3))
}

func TestActiveMask(t *testing.T) {
	v := newViewer(t)
	require.NoError(t, v.Configure(1, sampleRate, 1, []bool{false, true}))
	require.NoError(t, v.Push([][]float64{alternating(100, 10), constant(1, 20)}, []int{10, 20}))
	columns, err := v.Update()
	require.NoError(t, err)
	assert.Equal(t, 2, columns)

	quiet := colour.NewMapper().ColourFor(0, colour.Inferno)
	frame := v.Frame()
	assert.Equal(t, quiet, frame.RGBAAt(0, 0))
	assert.Equal(t, quiet, frame.RGBAAt(1, 1))
}

// warnings records warning messages.
type warnings struct {
	mu   sync.Mutex
	msgs []string
}

func (*warnings) Debug(...interface{}) {}
func (*warnings) Info(...interface{})  {}

func (w *warnings) Warn(args ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, fmt.Sprint(args...))
}

func (w *warnings) contain(s string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, m := range w.msgs {
		if strings.Contains(m, s) {
			return true
		}
	}
	return false
}

func TestInvariantViolation(t *testing.T) {
	var w warnings
	v := newViewer(t, probeview.WithMaxQueueDepth(4), probeview.WithName("invariant"), probeview.WithLogger(&w))
	require.NoError(t, v.Configure(1, sampleRate, 1, nil))
	require.NoError(t, v.Push([][]float64{constant(1, 100)}, []int{100}))

	// release builds log failed checks and continue.
	require.False(t, invariant.Enabled())
	_, err := v.Update()
	assert.True(t, errors.Is(err, queue.ErrBackpressure))
	assert.True(t, w.contain("invariant violated: pixel queue of channel 0 is full"))
}

func TestBackpressure(t *testing.T) {
	m := metric.New("backpressure-test")
	v := newViewer(t, probeview.WithMaxQueueDepth(4), probeview.WithMetric(m))
	require.NoError(t, v.Configure(1, sampleRate, 1, nil))
	require.NoError(t, v.Push([][]float64{constant(1, 100)}, []int{100}))

	columns, err := v.Update()
	assert.True(t, errors.Is(err, queue.ErrBackpressure))
	assert.Equal(t, 4, columns)
	assert.Equal(t, "6", metric.Get("backpressure-test")[metric.BackpressureCounter])

	// viewer keeps working.
	require.NoError(t, v.Push([][]float64{constant(1, 20)}, []int{20}))
	columns, err = v.Update()
	assert.NoError(t, err)
	assert.Equal(t, 2, columns)
}

func TestOverrun(t *testing.T) {
	v := newViewer(t)
	// 64 samples of capacity.
	require.NoError(t, v.Configure(1, sampleRate, 0.1, nil))
	require.NoError(t, v.Push([][]float64{constant(1, 100)}, []int{100}))
	assert.Equal(t, int64(36), v.Overruns(0))
	columns, err := v.Update()
	require.NoError(t, err)
	// 6 pixels and 4 samples cached.
	assert.Equal(t, 6, columns)
}

func TestRenderMode(t *testing.T) {
	v := newViewer(t)
	require.NoError(t, v.Configure(1, sampleRate, 1, nil))
	require.NoError(t, v.SetRenderMode(options.SpikeRate))
	assert.Equal(t, options.SpikeRate, v.Options().RenderMode())
	assert.Error(t, v.SetRenderMode(options.Mode(9)))

	// 1 of 10 samples is below the threshold: 64 spikes per second.
	samples := constant(0, 10)
	samples[0] = 100
	samples[5] = -100
	require.NoError(t, v.Push([][]float64{samples}, []int{10}))
	_, err := v.Update()
	require.NoError(t, err)
	expected := colour.NewMapper().ColourFor(64.0/10000, colour.Inferno)
	assert.Equal(t, expected, v.Frame().RGBAAt(0, 0))
}

func TestPushBuffer(t *testing.T) {
	v := newViewer(t)
	require.NoError(t, v.Configure(2, sampleRate, 1, nil))
	assert.NoError(t, v.PushBuffer(nil))

	b := &audio.FloatBuffer{
		Format: &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:   make([]float64, 2*40),
	}
	require.NoError(t, v.PushBuffer(b))
	columns, err := v.Update()
	require.NoError(t, err)
	assert.Equal(t, 4, columns)
}

func TestPresent(t *testing.T) {
	v := newViewer(t)
	require.NoError(t, v.Configure(2, sampleRate, 1, nil))
	require.NoError(t, v.Push([][]float64{constant(0, 10), constant(0, 10)}, []int{10, 10}))
	_, err := v.Refresh()
	require.NoError(t, err)

	dst := image.NewRGBA(image.Rect(0, 0, 128, 16))
	assert.Equal(t, dst.Bounds(), v.Present(dst, 128, 8))
	assert.Equal(t, composite.ScrubLine, dst.RGBAAt(2, 0))
}

func TestAnimate(t *testing.T) {
	v := newViewer(t)
	require.NoError(t, v.Configure(1, sampleRate, 1, nil))
	assert.Error(t, v.Animate(context.Background(), 0, nil))

	ctx, cancel := context.WithCancel(context.Background())
	var frames atomic.Int64
	errc := make(chan error, 1)
	go func() {
		errc <- v.Animate(ctx, time.Millisecond, func(*image.RGBA) {
			frames.Add(1)
		})
	}()
	for i := 0; i < 10; i++ {
		require.NoError(t, v.Push([][]float64{alternating(10, 10)}, []int{10}))
	}
	assert.Eventually(t, func() bool {
		return frames.Load() > 0
	}, time.Second, time.Millisecond)
	cancel()
	assert.NoError(t, <-errc)
}

func TestProducerConsumer(t *testing.T) {
	m := metric.New("producer-consumer-test")
	v := newViewer(t, probeview.WithMetric(m))
	require.NoError(t, v.Configure(2, sampleRate, 10, nil))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- v.Animate(ctx, time.Millisecond, nil)
	}()
	src := mock.Source{NumChannels: 2, Limit: 6400, BurstSize: 64, Value: 1, Interval: 100 * time.Microsecond}
	pushed, err := src.Run(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, int64(6400), pushed)

	assert.Eventually(t, func() bool {
		return metric.Get("producer-consumer-test")[metric.ColumnCounter] == "640"
	}, 5*time.Second, time.Millisecond)
	cancel()
	assert.NoError(t, <-errc)
	assert.Equal(t, int64(0), v.Overruns(0))
}
