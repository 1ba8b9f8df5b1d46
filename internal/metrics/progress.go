package metrics

import (
	"os"

	"github.com/cheggaaa/pb"
	"golang.org/x/term"
)

// Progress renders a per-journal progress line when stdout is a
// terminal, and is a silent no-op under redirection (cron, CI), per
// SPEC_FULL.md §4.7.
type Progress struct {
	bar *pb.ProgressBar
}

// NewProgress starts a progress bar over total journals if stdout is a
// terminal, else returns a Progress whose methods are no-ops.
func NewProgress(total int) *Progress {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return &Progress{}
	}
	bar := pb.New(total)
	bar.ShowCounters = true
	bar.ShowTimeLeft = true
	bar.Start()
	return &Progress{bar: bar}
}

func (p *Progress) Increment() {
	if p.bar != nil {
		p.bar.Increment()
	}
}

func (p *Progress) Finish(summaryLine string) {
	if p.bar != nil {
		p.bar.FinishPrint(summaryLine)
	}
}
