package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"pipelined.dev/probeview"
	"pipelined.dev/probeview/log"
	"pipelined.dev/probeview/metric"
	"pipelined.dev/probeview/queue"
	"pipelined.dev/probeview/source"
)

type renderCommand struct {
	out      string
	interval time.Duration
	source   sourceFlags
	display  displayFlags
}

func (cmd *renderCommand) Name() string {
	return "render"
}

func (cmd *renderCommand) Help() string {
	return "Render signal into png image without display"
}

func (cmd *renderCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.out, "out", "", "png file to write (required)")
	fs.DurationVar(&cmd.interval, "interval", time.Millisecond, "interval between consumer updates")
	cmd.source.register(fs, false)
	cmd.display.register(fs)
}

func (cmd *renderCommand) Run() error {
	if cmd.out == "" {
		return errors.New("missing -out required flag")
	}
	if cmd.source.capture && cmd.source.duration <= 0 {
		return errors.New("-capture requires positive -duration")
	}
	p, format, closeFn, err := cmd.source.open()
	if err != nil {
		return err
	}
	defer closeFn()
	v, err := cmd.display.viewer(cmd.Name(), format)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if cmd.source.capture {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.source.duration)
		defer cancel()
	}
	if err := run(ctx, p, v, cmd.interval); err != nil {
		return err
	}
	// producer and consumer are done, the rest is drained here.
	if _, err := v.Refresh(); err != nil && !errors.Is(err, queue.ErrBackpressure) {
		return err
	}

	dst := image.NewRGBA(image.Rect(0, 0, cmd.display.width, cmd.display.outputHeight(format.NumChannels)))
	v.Present(dst, cmd.display.width, cmd.display.channelHeight)
	f, err := os.Create(cmd.out)
	if err != nil {
		return err
	}
	if err := png.Encode(f, dst); err != nil {
		f.Close()
		return fmt.Errorf("encode %v: %w", cmd.out, err)
	}
	log.GetLogger().Debugf("%v: %v", v, metric.Get(cmd.Name()))
	return f.Close()
}

// run executes producer and consumer until producer is done.
func run(ctx context.Context, p producer, v *probeview.Viewer, interval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		_, err := p.Run(gctx, &lockstep{ctx: gctx, viewer: v})
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return v.Animate(gctx, interval, nil)
	})
	return g.Wait()
}

// lockstep pushes the next burst only after the consumer drained the
// previous one, so no samples are lost when producer is faster than the
// display.
type lockstep struct {
	ctx    context.Context
	viewer *probeview.Viewer
}

func (l *lockstep) Push(frame [][]float64, counts []int) error {
	if err := l.viewer.Push(frame, counts); err != nil {
		return err
	}
	for l.viewer.Pending() {
		select {
		case <-l.ctx.Done():
			return l.ctx.Err()
		case <-time.After(100 * time.Microsecond):
		}
	}
	return nil
}

var _ source.Pusher = (*lockstep)(nil)
