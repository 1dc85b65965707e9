// Package portaudio captures live signal from audio input devices.
package portaudio

import (
	"context"
	"fmt"

	"github.com/gordonklaus/portaudio"

	"pipelined.dev/probeview/signal"
	"pipelined.dev/probeview/source"
)

// DefaultBufferSize is the number of frames read per burst.
const DefaultBufferSize = 512

// Capture reads the default input device and pushes every read buffer.
type Capture struct {
	format     source.Format
	bufferSize int
	// Scale multiplies captured samples, which are within [-1, 1]. Zero
	// means 1.
	Scale float64
}

// NewCapture returns capture of the default input device.
func NewCapture(numChannels int, sampleRate float64, bufferSize int) (*Capture, error) {
	if numChannels <= 0 || sampleRate <= 0 {
		return nil, source.ErrInvalidFormat
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Capture{
		format:     source.Format{NumChannels: numChannels, SampleRate: sampleRate},
		bufferSize: bufferSize,
	}, nil
}

// Format returns format of captured signal.
func (c *Capture) Format() source.Format {
	return c.format
}

// Run captures signal until context is done. It initializes portaudio and
// terminates it on return. It returns number of samples pushed per
// channel.
func (c *Capture) Run(ctx context.Context, p source.Pusher) (pushed int64, err error) {
	if err := portaudio.Initialize(); err != nil {
		return 0, fmt.Errorf("initialize portaudio: %w", err)
	}
	defer func() {
		if terr := portaudio.Terminate(); terr != nil && err == nil {
			err = terr
		}
	}()

	buf := make([]float32, c.bufferSize*c.format.NumChannels)
	stream, err := portaudio.OpenDefaultStream(c.format.NumChannels, 0, c.format.SampleRate, c.bufferSize, &buf)
	if err != nil {
		return 0, fmt.Errorf("open input stream: %w", err)
	}
	defer stream.Close()
	if err := stream.Start(); err != nil {
		return 0, fmt.Errorf("start input stream: %w", err)
	}
	defer stream.Stop()

	scale := c.Scale
	if scale == 0 {
		scale = 1
	}
	for {
		if err := ctx.Err(); err != nil {
			return pushed, nil
		}
		if err := stream.Read(); err != nil {
			return pushed, fmt.Errorf("read input stream: %w", err)
		}
		floats := signal.InterFloat32{Data: buf, NumChannels: c.format.NumChannels}.AsFloat64()
		for ch := range floats {
			for i := range floats[ch] {
				floats[ch][i] *= scale
			}
		}
		if err := p.Push(floats, floats.Counts()); err != nil {
			return pushed, err
		}
		pushed += int64(floats.Size())
	}
}

// Device describes an input device.
type Device struct {
	Name              string
	HostAPI           string
	MaxInputChannels  int
	DefaultSampleRate float64
	Default           bool
}

// Devices returns devices with input channels.
func Devices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	def, err := portaudio.DefaultInputDevice()
	if err != nil {
		def = nil
	}
	var devices []Device
	for _, info := range infos {
		if info.MaxInputChannels == 0 {
			continue
		}
		d := Device{
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			Default:           def != nil && info.Name == def.Name,
		}
		if info.HostApi != nil {
			d.HostAPI = info.HostApi.Name
		}
		devices = append(devices, d)
	}
	return devices, nil
}
