package colour_test

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/probeview/colour"
)

func TestEndpoints(t *testing.T) {
	tests := []struct {
		scheme colour.Scheme
		low    color.RGBA
		high   color.RGBA
	}{
		{colour.Inferno, color.RGBA{0, 0, 4, 255}, color.RGBA{252, 255, 164, 255}},
		{colour.Viridis, color.RGBA{68, 1, 84, 255}, color.RGBA{253, 231, 37, 255}},
		{colour.Plasma, color.RGBA{13, 8, 135, 255}, color.RGBA{240, 249, 33, 255}},
		{colour.Magma, color.RGBA{0, 0, 4, 255}, color.RGBA{252, 253, 191, 255}},
		{colour.Jet, color.RGBA{0, 0, 128, 255}, color.RGBA{128, 0, 0, 255}},
	}
	m := colour.NewMapper()
	for _, test := range tests {
		assert.Equal(t, test.low, m.ColourFor(0, test.scheme), test.scheme.String())
		assert.Equal(t, test.high, m.ColourFor(1, test.scheme), test.scheme.String())
	}
}

func TestClamp(t *testing.T) {
	m := colour.NewMapper()
	low := m.ColourFor(0, colour.Viridis)
	high := m.ColourFor(1, colour.Viridis)
	tests := []struct {
		value    float64
		expected color.RGBA
	}{
		{-0.5, low},
		{math.NaN(), low},
		{math.Inf(-1), low},
		{1.5, high},
		{math.Inf(1), high},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, m.ColourFor(test.value, colour.Viridis))
	}
	// unknown scheme falls back to inferno.
	assert.Equal(t, m.ColourFor(0.3, colour.Inferno), m.ColourFor(0.3, colour.Scheme(42)))
}

func TestMonotonicJetRed(t *testing.T) {
	// jet red channel never decreases over the first 7/8 of the scale.
	m := colour.NewMapper()
	prev := uint8(0)
	for i := 0; i <= 218; i++ {
		c := m.ColourFor(float64(i)/255, colour.Jet)
		require.GreaterOrEqual(t, c.R, prev, "index %d", i)
		prev = c.R
	}
}

func TestParseScheme(t *testing.T) {
	for _, s := range colour.Schemes() {
		parsed, err := colour.ParseScheme(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err := colour.ParseScheme("sepia")
	assert.Error(t, err)
	assert.Equal(t, "unknown", colour.Scheme(-1).String())
}
