package probeview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"pipelined.dev/probeview/queue"
)

// Animate runs the paced consumer loop: every interval the viewer is
// refreshed and the frame is passed to draw. Backpressure doesn't stop the
// loop, it's logged by Update. Animate returns when context is done or
// refresh fails.
func (v *Viewer) Animate(ctx context.Context, interval time.Duration, draw func(*image.RGBA)) error {
	if interval <= 0 {
		return fmt.Errorf("%v: invalid animation interval %v", v, interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	v.log.Debug(fmt.Sprintf("%v: animation started", v))
	for {
		select {
		case <-ctx.Done():
			v.log.Debug(fmt.Sprintf("%v: animation stopped", v))
			return nil
		case <-ticker.C:
			frame, err := v.Refresh()
			if err != nil && !errors.Is(err, queue.ErrBackpressure) {
				return err
			}
			if frame != nil && draw != nil {
				draw(frame)
			}
		}
	}
}
