package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/cheggaaa/pb"
	"golang.org/x/term"
)

// ProgressDrainer runs the main thread's periodic drain loop (spec §4.7):
// it pulls flushed tasklet buffers off the registry and writes them to
// sink, and when stdout is a terminal it rewrites a single-line progress
// indicator showing active and queued task counts.
type ProgressDrainer struct {
	registry *Registry
	sink     *slog.Logger
	bar      *pb.ProgressBar
}

func NewProgressDrainer(registry *Registry, sink *slog.Logger) *ProgressDrainer {
	d := &ProgressDrainer{registry: registry, sink: sink}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		bar := pb.New(0)
		bar.ShowCounters = false
		bar.ShowBar = false
		bar.SetMaxWidth(100)
		d.bar = bar
	}
	return d
}

// Run drains until ctx is cancelled, updating the progress line after
// every flushed buffer.
func (d *ProgressDrainer) Run(ctx context.Context) {
	if d.bar != nil {
		d.bar.Start()
		defer d.bar.Finish()
	}
	for {
		if !d.registry.Drain(ctx, d.sink) {
			d.registry.DrainAll(d.sink)
			return
		}
		d.render()
	}
}

func (d *ProgressDrainer) render() {
	if d.bar == nil {
		return
	}
	d.bar.Prefix(fmt.Sprintf("active=%d queued=%d ", d.registry.ActiveCount(), d.registry.QueuedCount()))
}
