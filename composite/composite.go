// Package composite assembles the tile ring into one display surface and
// scales it into a viewport.
package composite

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"pipelined.dev/probeview/tile"
)

var (
	// Background fills surface areas without tiles.
	Background = color.RGBA{0, 18, 43, 255}
	// ScrubLine is the colour of the cursor line.
	ScrubLine = color.RGBA{255, 255, 0, 255}
)

// Source provides tiles to compose. It's implemented by tile.Renderer.
type Source interface {
	Len() int
	Tile(i int) *image.RGBA
	TileWidth() int
	Height() int
	NumChannels() int
	Cursor() tile.Cursor
	CursorColumn() int
	Ticks() uint64
}

// Option configures compositor.
type Option func(*Compositor)

// WithScaler sets the interpolator used by Present.
func WithScaler(s draw.Scaler) Option {
	return func(c *Compositor) {
		c.scaler = s
	}
}

// Compositor keeps the composed surface between paints and redraws only
// tiles changed since the previous paint.
type Compositor struct {
	scaler      draw.Scaler
	surface     *image.RGBA
	numChannels int
	invalid     bool
	last        tile.Cursor
	lastTicks   uint64
	// redrawn is the number of tiles drawn by the last Compose.
	redrawn int
}

// New returns compositor that does a full redraw on the first paint.
func New(opts ...Option) *Compositor {
	c := Compositor{
		scaler:  draw.NearestNeighbor,
		invalid: true,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// Invalidate forces full redraw on the next paint. It must be called when
// render mode or tile configuration changes.
func (c *Compositor) Invalidate() {
	c.invalid = true
}

// Surface returns the last composed surface.
func (c *Compositor) Surface() *image.RGBA {
	return c.surface
}

// Redrawn returns the number of tiles drawn by the last Compose.
func (c *Compositor) Redrawn() int {
	return c.redrawn
}

// Compose draws source tiles into the surface and overlays the scrub line
// at the cursor column. It returns nil if source has no tiles.
func (c *Compositor) Compose(src Source) *image.RGBA {
	n, tw, h := src.Len(), src.TileWidth(), src.Height()
	if n == 0 || h == 0 || src.Tile(0) == nil {
		return nil
	}
	size := image.Rect(0, 0, n*tw, h)
	if c.surface == nil || c.surface.Bounds() != size {
		c.surface = image.NewRGBA(size)
		c.invalid = true
	}
	c.numChannels = src.NumChannels()
	cur := src.Cursor()
	ticks := src.Ticks()
	// the cursor lapped the ring since the last paint.
	if ticks < c.lastTicks || ticks-c.lastTicks >= uint64(n*tw-c.last.Column) {
		c.invalid = true
	}

	if c.invalid {
		draw.Draw(c.surface, size, image.NewUniform(Background), image.Point{}, draw.Src)
		for i := 0; i < n; i++ {
			c.drawTile(src, i)
		}
		c.redrawn = n
		c.invalid = false
	} else {
		// tiles from the previously painted one up to the current, at least
		// the preceding tile.
		first := (cur.Tile - 1 + n) % n
		if (cur.Tile-c.last.Tile+n)%n > 1 {
			first = c.last.Tile
		}
		c.redrawn = 0
		for i := first; ; i = (i + 1) % n {
			c.drawTile(src, i)
			c.redrawn++
			if i == cur.Tile {
				break
			}
		}
	}
	x := src.CursorColumn()
	for y := 0; y < h; y++ {
		c.surface.SetRGBA(x, y, ScrubLine)
	}
	c.last = cur
	c.lastTicks = ticks
	return c.surface
}

func (c *Compositor) drawTile(src Source, i int) {
	t := src.Tile(i)
	tw := src.TileWidth()
	r := image.Rect(i*tw, 0, (i+1)*tw, t.Bounds().Dy())
	draw.Draw(c.surface, r, t, t.Bounds().Min, draw.Src)
}

// ScaleFactors returns horizontal and vertical scale of the surface in the
// viewport.
func ScaleFactors(viewportWidth, logicalWidth int, channelPixelHeight float64, numChannels, tileHeight int) (float64, float64) {
	if logicalWidth <= 0 || tileHeight <= 0 {
		return 0, 0
	}
	return float64(viewportWidth) / float64(logicalWidth),
		channelPixelHeight * float64(numChannels) / float64(tileHeight)
}

// Present scales the composed surface into dst so it's viewport width wide
// and every channel is channel pixel height high. It returns the painted
// rectangle.
func (c *Compositor) Present(dst draw.Image, viewportWidth int, channelPixelHeight float64) image.Rectangle {
	if c.surface == nil {
		return image.Rectangle{}
	}
	b := c.surface.Bounds()
	sx, sy := ScaleFactors(viewportWidth, b.Dx(), channelPixelHeight, c.numChannels, b.Dy())
	r := image.Rect(0, 0,
		int(math.Round(float64(b.Dx())*sx)),
		int(math.Round(float64(b.Dy())*sy)),
	).Add(dst.Bounds().Min)
	if r.Empty() {
		return image.Rectangle{}
	}
	c.scaler.Scale(dst, r, c.surface, b, draw.Src, nil)
	return r.Intersect(dst.Bounds())
}
