package main

import (
	"context"
	"errors"
	"flag"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/sync/errgroup"

	"pipelined.dev/probeview"
	"pipelined.dev/probeview/queue"
)

type viewCommand struct {
	source  sourceFlags
	display displayFlags
}

func (cmd *viewCommand) Name() string {
	return "view"
}

func (cmd *viewCommand) Help() string {
	return "Show signal in a window"
}

func (cmd *viewCommand) Register(fs *flag.FlagSet) {
	cmd.source.register(fs, true)
	cmd.display.register(fs)
}

func (cmd *viewCommand) Run() error {
	p, format, closeFn, err := cmd.source.open()
	if err != nil {
		return err
	}
	defer closeFn()
	v, err := cmd.display.viewer(cmd.Name(), format)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := p.Run(gctx, v)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	game := newGame(gctx, v, cmd.display.width, cmd.display.outputHeight(format.NumChannels), cmd.display.channelHeight)
	ebiten.SetWindowTitle("probeview")
	ebiten.SetWindowSize(game.width, game.height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	err = ebiten.RunGame(game)
	cancel()
	if werr := g.Wait(); werr != nil && err == nil {
		err = werr
	}
	return err
}

// game is the consumer side of the viewer driven by the ebiten loop.
type game struct {
	viewer        *probeview.Viewer
	ctx           context.Context
	width         int
	height        int
	channelHeight float64
	dst           *image.RGBA
}

func newGame(ctx context.Context, v *probeview.Viewer, width, height int, channelHeight float64) *game {
	return &game{
		viewer:        v,
		ctx:           ctx,
		width:         width,
		height:        height,
		channelHeight: channelHeight,
		dst:           image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Update refreshes the viewer once per tick. The window is closed when
// producer fails.
func (g *game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	if _, err := g.viewer.Refresh(); err != nil && !errors.Is(err, queue.ErrBackpressure) {
		return err
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.viewer.Present(g.dst, g.width, g.channelHeight)
	screen.WritePixels(g.dst.Pix)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}
