// Package signal provides an API to manipulate digital signals. It allows to:
// 	- convert interleaved data to non-interleaved
//	- convert bit depth for int signals
//	- measure the duration of a signal
package signal

import (
	"math"
	"time"

	"github.com/go-audio/audio"
)

// Float64 is a non-interleaved float64 signal.
type Float64 [][]float64

const (
	// BitDepth8 is 8 bit depth.
	BitDepth8 = BitDepth(8)
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth24 is 24 bit depth.
	BitDepth24 = BitDepth(24)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// InterInt is an interleaved int signal.
type InterInt struct {
	Data        []int
	NumChannels int
	BitDepth
}

// InterFloat32 is an interleaved float32 signal, the native format of
// capture devices.
type InterFloat32 struct {
	Data        []float32
	NumChannels int
}

// BitDepth contains values required for int-to-float and backward conversion.
type BitDepth int

// divider is used when int to float conversion is done.
func (bitDepth BitDepth) divider() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8
	case BitDepth16:
		return math.MaxInt16
	case BitDepth24:
		return 1<<23 - 1
	case BitDepth32:
		return math.MaxInt32
	default:
		return 1
	}
}

// multiplier is used when float to int conversion is done.
func (bitDepth BitDepth) multiplier() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8 - 1
	case BitDepth16:
		return math.MaxInt16 - 1
	case BitDepth24:
		return 1<<23 - 2
	case BitDepth32:
		return math.MaxInt32 - 1
	default:
		return 1
	}
}

// DurationOf returns time duration of passed samples for this sample rate.
func DurationOf(sampleRate float64, samples int64) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(samples) / sampleRate * float64(time.Second))
}

// AsFloat64 converts interleaved int signal to float64.
func (ints InterInt) AsFloat64() Float64 {
	if ints.Data == nil || ints.NumChannels == 0 {
		return nil
	}
	floats := make([][]float64, ints.NumChannels)
	bufSize := int(math.Ceil(float64(len(ints.Data)) / float64(ints.NumChannels)))

	// determine the divider for bit depth conversion
	divider := float64(ints.BitDepth.divider())

	for i := range floats {
		floats[i] = make([]float64, bufSize)
		pos := 0
		for j := i; j < len(ints.Data); j = j + ints.NumChannels {
			floats[i][pos] = float64(ints.Data[j]) / divider
			pos++
		}
	}
	return floats
}

// AsFloat64 converts interleaved float32 signal to float64. Trailing
// incomplete frames are dropped.
func (floats InterFloat32) AsFloat64() Float64 {
	if floats.Data == nil || floats.NumChannels == 0 {
		return nil
	}
	size := len(floats.Data) / floats.NumChannels
	result := EmptyFloat64(floats.NumChannels, size)
	for i := 0; i < size; i++ {
		for c := range result {
			result[c][i] = float64(floats.Data[i*floats.NumChannels+c])
		}
	}
	return result
}

// AsInterInt converts float64 signal to interleaved int.
func (floats Float64) AsInterInt(bitDepth BitDepth) []int {
	var numChannels int
	if numChannels = len(floats); numChannels == 0 {
		return nil
	}

	// determine the multiplier for bit depth conversion
	multiplier := float64(bitDepth.multiplier())

	ints := make([]int, len(floats[0])*numChannels)

	for j := range floats {
		for i := range floats[j] {
			ints[i*numChannels+j] = int(floats[j][i] * multiplier)
		}
	}
	return ints
}

// FromAudio deinterleaves a go-audio buffer. Values keep the scale of the
// buffer's float representation.
func FromAudio(b audio.Buffer) Float64 {
	if b == nil || b.PCMFormat() == nil || b.PCMFormat().NumChannels == 0 {
		return nil
	}
	fb := b.AsFloatBuffer()
	numChannels := b.PCMFormat().NumChannels
	size := len(fb.Data) / numChannels
	result := EmptyFloat64(numChannels, size)
	for i := 0; i < size; i++ {
		for c := range result {
			result[c][i] = fb.Data[i*numChannels+c]
		}
	}
	return result
}

// EmptyFloat64 returns an empty buffer of specified dimensions.
func EmptyFloat64(numChannels int, bufferSize int) Float64 {
	result := make([][]float64, numChannels)
	for i := range result {
		result[i] = make([]float64, bufferSize)
	}
	return result
}

// NumChannels returns number of channels in this sample slice
func (floats Float64) NumChannels() int {
	return len(floats)
}

// Size returns number of samples in single block in this sample slice
func (floats Float64) Size() int {
	if floats.NumChannels() == 0 {
		return 0
	}
	return len(floats[0])
}

// Counts returns the number of samples in every channel.
func (floats Float64) Counts() []int {
	counts := make([]int, len(floats))
	for i := range floats {
		counts[i] = len(floats[i])
	}
	return counts
}
