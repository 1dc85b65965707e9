package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"pipelined.dev/probeview/source/portaudio"
)

type listCommand struct {
	out io.Writer
}

func (cmd *listCommand) Name() string {
	return "list"
}

func (cmd *listCommand) Help() string {
	return "Show the list of available input devices"
}

func (cmd *listCommand) Register(fs *flag.FlagSet) {}

func (cmd *listCommand) Run() error {
	devices, err := portaudio.Devices()
	if err != nil {
		return err
	}
	out := cmd.out
	if out == nil {
		out = os.Stdout
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tHOST API\tCHANNELS\tRATE\tDEFAULT")
	for _, d := range devices {
		def := ""
		if d.Default {
			def = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.0f\t%s\n", d.Name, d.HostAPI, d.MaxInputChannels, d.DefaultSampleRate, def)
	}
	return w.Flush()
}
