package metric_test

import (
	"sync"
	"testing"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"

	"pipelined.dev/probeview/metric"
)

func TestMetric(t *testing.T) {
	var tests = []struct {
		routines         int
		pushes           int
		samples          int64
		sampleRate       float64
		expectedSamples  string
		expectedDuration string
	}{
		{
			routines:         2,
			pushes:           10,
			samples:          100,
			sampleRate:       1000,
			expectedSamples:  "2000",
			expectedDuration: `"2s"`,
		},
		{
			routines:         4,
			pushes:           5,
			samples:          300,
			sampleRate:       30000,
			expectedSamples:  "6000",
			expectedDuration: `"200ms"`,
		},
	}
	// function to push samples.
	testFn := func(m *metric.Metric, wg *sync.WaitGroup, pushes int, sampleRate float64, samples int64) {
		for i := 0; i < pushes; i++ {
			m.Ingest([]float64{sampleRate}, []int{int(samples)})
		}
		wg.Done()
	}

	for _, c := range tests {
		id := xid.New().String()
		m := metric.New(id)
		assert.Same(t, m, metric.New(id))
		wg := &sync.WaitGroup{}
		wg.Add(c.routines)
		for i := 0; i < c.routines; i++ {
			go testFn(m, wg, c.pushes, c.sampleRate, c.samples)
		}
		// check if no data race.
		wg.Wait()
		values := metric.Get(id)
		assert.Equal(t, c.expectedSamples, values[metric.SampleCounter])
		assert.Equal(t, c.expectedDuration, values[metric.DurationCounter])
	}
}

func TestIngestChannels(t *testing.T) {
	id := xid.New().String()
	m := metric.New(id)
	// 100ms on the first channel, 250ms on the second.
	m.Ingest([]float64{1000, 400}, []int{100, 100})
	m.Ingest([]float64{1000, 400}, []int{300, 0})

	values := metric.Get(id)
	assert.Equal(t, "500", values[metric.SampleCounter])
	assert.Equal(t, `"550ms"`, values[metric.DurationCounter])
}

func TestCounters(t *testing.T) {
	id := xid.New().String()
	m := metric.New(id)
	m.Pixels(30)
	m.Columns(10)
	m.Overruns(5)
	m.Overruns(0)
	m.Backpressure()
	m.Frame()
	m.Frame()

	values := metric.Get(id)
	assert.Equal(t, "30", values[metric.PixelCounter])
	assert.Equal(t, "10", values[metric.ColumnCounter])
	assert.Equal(t, "5", values[metric.OverrunCounter])
	assert.Equal(t, "1", values[metric.BackpressureCounter])
	assert.Equal(t, "2", values[metric.FrameCounter])
	assert.Contains(t, metric.GetAll(), id)
}

func TestNilMetric(t *testing.T) {
	var m *metric.Metric
	assert.NotPanics(t, func() {
		m.Ingest([]float64{1000}, []int{10})
		m.Pixels(1)
		m.Columns(1)
		m.Overruns(1)
		m.Backpressure()
		m.Frame()
	})
}
