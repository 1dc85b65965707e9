// Package tile renders feature columns into a ring of fixed-width raster
// tiles. Every tile is split into horizontal bands, one per channel, with
// channel 0 at the bottom. A cursor points to the column written next.
package tile

import (
	"errors"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"pipelined.dev/probeview/colour"
	"pipelined.dev/probeview/options"
)

// Defaults of display geometry.
const (
	DefaultDisplayWidth = 1920
	DefaultTileWidth    = 64
	DefaultBandHeight   = 2
)

var (
	// ErrInvalidConfig is returned when display geometry is not positive.
	ErrInvalidConfig = errors.New("display width, tile width and band height must be positive")
	// ErrInvalidChannels is returned when renderer is configured without
	// channels.
	ErrInvalidChannels = errors.New("number of channels must be positive")
)

// Mapper maps normalized values to colours.
type Mapper interface {
	ColourFor(v float64, s colour.Scheme) color.RGBA
}

// Config is the display geometry.
type Config struct {
	DisplayWidth int
	TileWidth    int
	BandHeight   int
}

// DefaultConfig returns default display geometry.
func DefaultConfig() Config {
	return Config{
		DisplayWidth: DefaultDisplayWidth,
		TileWidth:    DefaultTileWidth,
		BandHeight:   DefaultBandHeight,
	}
}

// Cursor points to the column of the tile written next.
type Cursor struct {
	Tile   int
	Column int
}

// Renderer owns the tile ring and the cursor.
type Renderer struct {
	cfg         Config
	mapper      Mapper
	ringLen     int
	numChannels int
	tiles       []*image.RGBA
	bands       [][]*image.RGBA
	cursor      Cursor
	ticks       uint64
}

// New returns renderer without tiles. Configure must be called before
// columns are written.
func New(cfg Config, mapper Mapper) (*Renderer, error) {
	if cfg.DisplayWidth <= 0 || cfg.TileWidth <= 0 || cfg.BandHeight <= 0 {
		return nil, ErrInvalidConfig
	}
	return &Renderer{
		cfg:     cfg,
		mapper:  mapper,
		ringLen: (cfg.DisplayWidth + cfg.TileWidth - 1) / cfg.TileWidth,
	}, nil
}

// Configure discards all tiles and allocates a new ring for the number of
// channels. Cursor is reset.
func (r *Renderer) Configure(numChannels int) error {
	if numChannels <= 0 {
		return ErrInvalidChannels
	}
	height := numChannels * r.cfg.BandHeight
	r.numChannels = numChannels
	r.tiles = make([]*image.RGBA, r.ringLen)
	r.bands = make([][]*image.RGBA, r.ringLen)
	for i := range r.tiles {
		t := image.NewRGBA(image.Rect(0, 0, r.cfg.TileWidth, height))
		draw.Draw(t, t.Bounds(), image.Black, image.Point{}, draw.Src)
		r.tiles[i] = t
		r.bands[i] = make([]*image.RGBA, numChannels)
		for c := range r.bands[i] {
			band := image.Rect(0, height-(c+1)*r.cfg.BandHeight, r.cfg.TileWidth, height-c*r.cfg.BandHeight)
			r.bands[i][c] = t.SubImage(band).(*image.RGBA)
		}
	}
	r.cursor = Cursor{}
	r.ticks = 0
	return nil
}

// WriteColumn paints the channel band at the cursor column with the colour
// of the value normalized to bounds.
func (r *Renderer) WriteColumn(channel int, value float64, b options.Bounds, scheme colour.Scheme) {
	if r.tiles == nil || channel < 0 || channel >= r.numChannels {
		return
	}
	c := r.mapper.ColourFor(b.Normalize(value), scheme)
	band := r.bands[r.cursor.Tile][channel]
	rect := band.Bounds()
	x := rect.Min.X + r.cursor.Column
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		band.SetRGBA(x, y, c)
	}
}

// Tick advances the cursor by one column. Entering a tile starts to
// overwrite it.
func (r *Renderer) Tick() {
	r.ticks++
	r.cursor.Column++
	if r.cursor.Column >= r.cfg.TileWidth {
		r.cursor.Column = 0
		r.cursor.Tile = (r.cursor.Tile + 1) % r.ringLen
	}
}

// Cursor returns current cursor.
func (r *Renderer) Cursor() Cursor {
	return r.cursor
}

// Ticks returns the number of ticks since the ring was configured.
func (r *Renderer) Ticks() uint64 {
	return r.ticks
}

// CursorColumn returns absolute display column of the cursor.
func (r *Renderer) CursorColumn() int {
	return r.cursor.Tile*r.cfg.TileWidth + r.cursor.Column
}

// CurrentTileImage returns the tile under the cursor.
func (r *Renderer) CurrentTileImage() *image.RGBA {
	return r.Tile(r.cursor.Tile)
}

// ChannelSubImage returns the band of the channel in the tile. Band shares
// pixels with the tile.
func (r *Renderer) ChannelSubImage(tileIndex, channel int) *image.RGBA {
	if tileIndex < 0 || tileIndex >= len(r.bands) || channel < 0 || channel >= r.numChannels {
		return nil
	}
	return r.bands[tileIndex][channel]
}

// Tile returns tile by its ring index.
func (r *Renderer) Tile(i int) *image.RGBA {
	if i < 0 || i >= len(r.tiles) {
		return nil
	}
	return r.tiles[i]
}

// Len returns ring length.
func (r *Renderer) Len() int {
	return r.ringLen
}

// TileWidth returns width of a tile.
func (r *Renderer) TileWidth() int {
	return r.cfg.TileWidth
}

// Height returns height of tiles, zero before configuration.
func (r *Renderer) Height() int {
	return r.numChannels * r.cfg.BandHeight
}

// NumChannels returns number of channel bands.
func (r *Renderer) NumChannels() int {
	return r.numChannels
}

// BandHeight returns height of a channel band.
func (r *Renderer) BandHeight() int {
	return r.cfg.BandHeight
}
