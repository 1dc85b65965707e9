package source

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"pipelined.dev/probeview/signal"
)

// ErrUnsupportedBitDepth is returned when wav file has unsupported bit
// depth.
var ErrUnsupportedBitDepth = errors.New("only 8, 16, 24 and 32 bit depth is supported")

// ErrInvalidWav is returned when file is not a valid wav.
var ErrInvalidWav = errors.New("wav is not valid")

// Wav reads samples from wav file and pushes them in bursts. This
// producer cannot be reused for consequent runs.
type Wav struct {
	// BurstSizes are cycled through, DefaultBurstSizes if empty.
	BurstSizes []int
	// Realtime paces bursts with their duration.
	Realtime bool
	// Scale multiplies decoded samples, which are within [-1, 1]. Zero
	// means 1.
	Scale float64

	path     string
	file     *os.File
	decoder  *wav.Decoder
	bitDepth signal.BitDepth
	format   Format
}

// OpenWav opens wav file and reads its format.
func OpenWav(path string) (*Wav, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		if err := file.Close(); err != nil {
			return nil, fmt.Errorf("%v: %w, failed to close the file: %v", path, ErrInvalidWav, err)
		}
		return nil, fmt.Errorf("%v: %w", path, ErrInvalidWav)
	}
	bitDepth := signal.BitDepth(decoder.BitDepth)
	switch bitDepth {
	case signal.BitDepth8, signal.BitDepth16, signal.BitDepth24, signal.BitDepth32:
	default:
		file.Close()
		return nil, fmt.Errorf("%v: %w", path, ErrUnsupportedBitDepth)
	}
	return &Wav{
		path:     path,
		file:     file,
		decoder:  decoder,
		bitDepth: bitDepth,
		format: Format{
			NumChannels: decoder.Format().NumChannels,
			SampleRate:  float64(decoder.SampleRate),
		},
	}, nil
}

// Format returns format of the file.
func (w *Wav) Format() Format {
	return w.format
}

// Close closes the file.
func (w *Wav) Close() error {
	return w.file.Close()
}

// Run pushes the whole file into pusher. It returns number of samples
// pushed per channel.
func (w *Wav) Run(ctx context.Context, p Pusher) (int64, error) {
	sizes := w.BurstSizes
	if len(sizes) == 0 {
		sizes = DefaultBurstSizes
	}
	if err := validateBursts(sizes); err != nil {
		return 0, err
	}
	scale := w.Scale
	if scale == 0 {
		scale = 1
	}
	numChannels := w.format.NumChannels
	ib := &audio.IntBuffer{
		Format:         w.decoder.Format(),
		Data:           make([]int, maxBurst(sizes)*numChannels),
		SourceBitDepth: int(w.bitDepth),
	}

	var pushed int64
	for i := 0; ; i++ {
		ib.Data = ib.Data[:sizes[i%len(sizes)]*numChannels]
		read, err := w.decoder.PCMBuffer(ib)
		if err != nil {
			return pushed, fmt.Errorf("%v: %w", w.path, err)
		}
		if read == 0 {
			return pushed, nil
		}
		floats := signal.InterInt{
			Data:        ib.Data[:read],
			NumChannels: numChannels,
			BitDepth:    w.bitDepth,
		}.AsFloat64()
		if scale != 1 {
			for c := range floats {
				for j := range floats[c] {
					floats[c][j] *= scale
				}
			}
		}
		if err := p.Push(floats, floats.Counts()); err != nil {
			return pushed, err
		}
		pushed += int64(floats.Size())
		if err := pace(ctx, w.Realtime, floats.Size(), w.format.SampleRate); err != nil {
			return pushed, err
		}
	}
}
