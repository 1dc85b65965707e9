/*
Package probeview renders multichannel sample streams as a scrolling
colour-coded raster.

Concept

Every displayed channel is a horizontal band. Time runs left to right and
every pixel column summarizes a fixed number of raw samples with one of
three features:

    RMS - root mean square amplitude around the group midpoint;
    Spike rate - number of samples below the spike threshold per second;
    FFT - power at the selected frequency in dB.

The feature value is mapped to a colour of the selected colour scheme
within the bounds of the render mode.

Pipeline

The viewer has two sides. A producer pushes bursts of samples at whatever
cadence they arrive:

    v, err := probeview.New()
    err = v.Configure(numChannels, sampleRate, probeview.DefaultCapacitySeconds, nil)
    err = v.Push(frame, counts)

A consumer refreshes the viewer once per paint cycle:

    frame, err := v.Refresh()

Refresh drains the ingest buffer, reduces fresh samples to pixels, renders
them into a ring of tiles and composes the tiles into one surface with the
scrub line at the cursor. Only the ingest buffer is shared between the
sides, the rest of the state is owned by the consumer.

Animation

Animate runs the consumer loop with a fixed interval until the context is
done:

    err := v.Animate(ctx, time.Second/60, func(frame *image.RGBA) {
        // paint frame
    })
*/
package probeview
