// Package metric publishes viewer counters with expvar.
package metric

import (
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pipelined.dev/probeview/signal"
)

const viewersLabel = "probeview.viewers"

const (
	// SampleCounter measures number of ingested samples of all channels.
	SampleCounter = "Samples"
	// DurationCounter counts what's the duration of ingested signal.
	DurationCounter = "Duration"
	// PixelCounter counts emitted feature values.
	PixelCounter = "Pixels"
	// ColumnCounter counts rendered cursor ticks.
	ColumnCounter = "Columns"
	// OverrunCounter counts samples discarded by the ingest buffer.
	OverrunCounter = "Overruns"
	// BackpressureCounter counts feature values rejected by pixel queues.
	BackpressureCounter = "Backpressure"
	// FrameCounter counts composited frames.
	FrameCounter = "Frames"
	// LatencyCounter measures time between composited frames.
	LatencyCounter = "Latency"
)

var (
	viewers = metrics{
		m: make(map[string]*Metric),
	}

	counters = []string{
		SampleCounter,
		DurationCounter,
		PixelCounter,
		ColumnCounter,
		OverrunCounter,
		BackpressureCounter,
		FrameCounter,
		LatencyCounter,
	}
)

// Metric holds counters of a single viewer. Nil metric is valid and
// measures nothing.
type Metric struct {
	key          string
	samples      *expvar.Int
	duration     *duration
	pixels       *expvar.Int
	columns      *expvar.Int
	overruns     *expvar.Int
	backpressure *expvar.Int
	frames       *expvar.Int
	latency      *duration
	lastFrame    atomic.Int64
}

// New returns the metric for provided viewer id. Metrics are cached, so
// multiple calls for the same id return the same instance.
func New(id string) *Metric {
	return viewers.get(id)
}

// Get metrics values for provided viewer id.
func Get(id string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(id, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// GetAll returns counters for all measured viewers.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	viewers.Lock()
	defer viewers.Unlock()
	for id := range viewers.m {
		m[id] = Get(id)
	}
	return m
}

// Ingest captures samples drained from all channels. Samples of every
// channel are counted, duration advances by the longest channel.
func (m *Metric) Ingest(sampleRates []float64, counts []int) {
	if m == nil {
		return
	}
	var (
		samples int64
		longest time.Duration
	)
	for c, n := range counts {
		samples += int64(n)
		longest = max(longest, signal.DurationOf(sampleRates[c], int64(n)))
	}
	m.samples.Add(samples)
	m.duration.add(longest)
}

// Pixels captures emitted feature values.
func (m *Metric) Pixels(n int64) {
	if m == nil {
		return
	}
	m.pixels.Add(n)
}

// Columns captures rendered cursor ticks.
func (m *Metric) Columns(n int64) {
	if m == nil {
		return
	}
	m.columns.Add(n)
}

// Overruns captures samples discarded by the ingest buffer.
func (m *Metric) Overruns(n int64) {
	if m == nil || n == 0 {
		return
	}
	m.overruns.Add(n)
}

// Backpressure captures a rejected feature value.
func (m *Metric) Backpressure() {
	if m == nil {
		return
	}
	m.backpressure.Add(1)
}

// Frame captures a composited frame and the latency since the previous one.
func (m *Metric) Frame() {
	if m == nil {
		return
	}
	now := time.Now().UnixNano()
	if prev := m.lastFrame.Swap(now); prev != 0 {
		m.latency.set(time.Duration(now - prev))
	}
	m.frames.Add(1)
}

type metrics struct {
	sync.Mutex
	m map[string]*Metric
}

func (m *metrics) get(id string) *Metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[id]; ok {
		// return existing metric if available
		return metric
	}
	// create new metric
	metric := newMetric(id)
	m.m[id] = metric
	return metric
}

func newMetric(id string) *Metric {
	m := &Metric{
		key:          id,
		samples:      expvar.NewInt(key(id, SampleCounter)),
		duration:     &duration{},
		pixels:       expvar.NewInt(key(id, PixelCounter)),
		columns:      expvar.NewInt(key(id, ColumnCounter)),
		overruns:     expvar.NewInt(key(id, OverrunCounter)),
		backpressure: expvar.NewInt(key(id, BackpressureCounter)),
		frames:       expvar.NewInt(key(id, FrameCounter)),
		latency:      &duration{},
	}
	expvar.Publish(key(id, DurationCounter), m.duration)
	expvar.Publish(key(id, LatencyCounter), m.latency)
	return m
}

func key(id, counter string) string {
	return fmt.Sprintf("%s.%s.%s", viewersLabel, id, counter)
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(atomic.LoadInt64(&v.d)).String())
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}

func (v *duration) set(value time.Duration) {
	atomic.StoreInt64(&v.d, int64(value))
}
