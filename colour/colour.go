// Package colour maps normalized feature values to colours of perceptual
// colour schemes.
package colour

import (
	"fmt"
	"image/color"
	"math"
	"strings"
)

// Scheme identifies a colour scheme.
type Scheme int

// Supported schemes.
const (
	Inferno Scheme = iota
	Viridis
	Plasma
	Magma
	Jet
	numSchemes
)

// lutSize is the number of entries per scheme table.
const lutSize = 256

var schemeNames = [numSchemes]string{
	Inferno: "inferno",
	Viridis: "viridis",
	Plasma:  "plasma",
	Magma:   "magma",
	Jet:     "jet",
}

// String returns the scheme name.
func (s Scheme) String() string {
	if s < 0 || s >= numSchemes {
		return "unknown"
	}
	return schemeNames[s]
}

// Schemes returns all supported schemes.
func Schemes() []Scheme {
	s := make([]Scheme, numSchemes)
	for i := range s {
		s[i] = Scheme(i)
	}
	return s
}

// ParseScheme returns the scheme for its name.
func ParseScheme(name string) (Scheme, error) {
	name = strings.ToLower(name)
	for i, n := range schemeNames {
		if n == name {
			return Scheme(i), nil
		}
	}
	return 0, fmt.Errorf("unknown colour scheme %q", name)
}

// stops are evenly spaced control colours of the schemes, from the bottom
// of the scale to the top.
var stops = [numSchemes][]color.NRGBA{
	Inferno: {
		{0, 0, 4, 255},
		{40, 11, 84, 255},
		{101, 21, 110, 255},
		{159, 42, 99, 255},
		{212, 72, 66, 255},
		{245, 125, 21, 255},
		{250, 193, 39, 255},
		{252, 255, 164, 255},
	},
	Viridis: {
		{68, 1, 84, 255},
		{70, 50, 127, 255},
		{54, 92, 141, 255},
		{39, 127, 142, 255},
		{31, 161, 135, 255},
		{74, 194, 109, 255},
		{159, 218, 58, 255},
		{253, 231, 37, 255},
	},
	Plasma: {
		{13, 8, 135, 255},
		{84, 2, 163, 255},
		{139, 10, 165, 255},
		{185, 50, 137, 255},
		{219, 92, 104, 255},
		{244, 136, 73, 255},
		{254, 188, 43, 255},
		{240, 249, 33, 255},
	},
	Magma: {
		{0, 0, 4, 255},
		{28, 16, 68, 255},
		{79, 18, 123, 255},
		{129, 37, 129, 255},
		{181, 54, 122, 255},
		{229, 80, 100, 255},
		{251, 135, 97, 255},
		{252, 253, 191, 255},
	},
	Jet: {
		{0, 0, 128, 255},
		{0, 0, 255, 255},
		{0, 128, 255, 255},
		{0, 255, 255, 255},
		{128, 255, 128, 255},
		{255, 255, 0, 255},
		{255, 128, 0, 255},
		{255, 0, 0, 255},
		{128, 0, 0, 255},
	},
}

// Mapper holds precomputed colour tables. It's safe for concurrent use
// after creation.
type Mapper struct {
	luts [numSchemes][lutSize]color.RGBA
}

// NewMapper builds the tables of all schemes.
func NewMapper() *Mapper {
	var m Mapper
	for s := range m.luts {
		for i := range m.luts[s] {
			m.luts[s][i] = interpolate(stops[s], float64(i)/(lutSize-1))
		}
	}
	return &m
}

// ColourFor returns the colour of normalized value. Values outside of
// [0, 1] are clamped, NaN maps to the bottom of the scale. Unknown scheme
// falls back to Inferno.
func (m *Mapper) ColourFor(v float64, s Scheme) color.RGBA {
	if s < 0 || s >= numSchemes {
		s = Inferno
	}
	return m.luts[s][index(v)]
}

func index(v float64) int {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 1:
		return lutSize - 1
	}
	return int(v*(lutSize-1) + 0.5)
}

// interpolate returns the colour at position t in [0, 1] between stops.
func interpolate(stops []color.NRGBA, t float64) color.RGBA {
	pos := t * float64(len(stops)-1)
	i := int(pos)
	if i >= len(stops)-1 {
		c := stops[len(stops)-1]
		return color.RGBA{c.R, c.G, c.B, c.A}
	}
	frac := pos - float64(i)
	a, b := stops[i], stops[i+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*frac))
	}
	return color.RGBA{lerp(a.R, b.R), lerp(a.G, b.G), lerp(a.B, b.B), lerp(a.A, b.A)}
}
