package poseoverlay

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/swdee/go-poseoverlay/logger"
)

// Reporter receives progress events from a Pipeline run
type Reporter interface {
	// Start is called once streaming begins, total is zero when the frame
	// count is unknown
	Start(total int)
	// Frame is called after each frame is written
	Frame(index int)
	// Finish is called once with the outcome of the run
	Finish(res Result)
}

// NopReporter discards all progress events
type NopReporter struct{}

func (NopReporter) Start(int)     {}
func (NopReporter) Frame(int)     {}
func (NopReporter) Finish(Result) {}

// BarReporter renders a terminal progress bar on stderr
type BarReporter struct {
	title string
	bar   *pterm.ProgressbarPrinter
}

// NewBarReporter returns a BarReporter showing the given title
func NewBarReporter(title string) *BarReporter {
	return &BarReporter{title: title}
}

// Start creates the bar.  Without a frame count there is nothing to measure
// against, so no bar is shown.
func (b *BarReporter) Start(total int) {

	if total <= 0 {
		return
	}

	bar, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle(b.title).
		WithWriter(os.Stderr).
		WithRemoveWhenDone(true).
		Start()

	if err != nil {
		logger.Logger.Debugw("progress bar unavailable", logger.FieldError, err)
		return
	}

	b.bar = bar
}

// Frame advances the bar
func (b *BarReporter) Frame(int) {
	if b.bar != nil {
		b.bar.Increment()
	}
}

// Finish stops the bar
func (b *BarReporter) Finish(Result) {

	if b.bar == nil {
		return
	}

	if _, err := b.bar.Stop(); err != nil {
		logger.Logger.Debugw("progress bar stop", logger.FieldError, err)
	}

	b.bar = nil
}
