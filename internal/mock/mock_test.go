package mock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/probeview/internal/mock"
)

var errTest = errors.New("test error")

func TestSource(t *testing.T) {
	tests := []struct {
		source   *mock.Source
		sink     *mock.Sink
		messages int
		samples  int
		err      error
	}{
		{
			source:   &mock.Source{NumChannels: 2, Limit: 11, BurstSize: 5, Value: 1},
			messages: 3,
			samples:  11,
		},
		{
			source:   &mock.Source{NumChannels: 1, Limit: 1000},
			messages: 2,
			samples:  1000,
		},
		{
			source: &mock.Source{NumChannels: 1, Limit: 10, ErrorOnCall: errTest},
			err:    errTest,
		},
		{
			source: &mock.Source{NumChannels: 1, Limit: 10},
			sink:   &mock.Sink{ErrorOnCall: errTest},
			err:    errTest,
		},
	}
	for _, test := range tests {
		if test.sink == nil {
			test.sink = &mock.Sink{}
		}
		pushed, err := test.source.Run(context.Background(), test.sink)
		assert.Equal(t, test.err, err)
		messages, samples := test.sink.Count()
		assert.Equal(t, test.messages, messages)
		assert.Equal(t, test.samples, samples)
		assert.Equal(t, int64(test.samples), pushed)
	}
}

func TestSinkBuffer(t *testing.T) {
	s := mock.Source{NumChannels: 2, Limit: 7, BurstSize: 4, Value: 0.5}
	var sink mock.Sink
	_, err := s.Run(context.Background(), &sink)
	assert.NoError(t, err)
	assert.Equal(t, [][]float64{
		{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5},
		{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5},
	}, sink.Buffer())

	discard := mock.Sink{Discard: true}
	_, err = (&mock.Source{NumChannels: 2, Limit: 7}).Run(context.Background(), &discard)
	assert.NoError(t, err)
	assert.Nil(t, discard.Buffer())
	assert.Equal(t, 7, discard.Samples())
}

func TestSourceCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := mock.Source{NumChannels: 1, Limit: 10}
	_, err := s.Run(ctx, &mock.Sink{})
	assert.Equal(t, context.Canceled, err)
}
