//go:build portaudio

package portaudio_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/probeview"
	"pipelined.dev/probeview/source/portaudio"
)

func TestCapture(t *testing.T) {
	devices, err := portaudio.Devices()
	require.NoError(t, err)
	if len(devices) == 0 {
		t.Skip("no input devices")
	}

	c, err := portaudio.NewCapture(1, 44100, 0)
	require.NoError(t, err)
	v, err := probeview.New()
	require.NoError(t, err)
	require.NoError(t, v.Configure(1, 44100, 1, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	pushed, err := c.Run(ctx, v)
	assert.NoError(t, err)
	assert.Greater(t, pushed, int64(0))
}
