package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// StepReporter shows a progress bar over the extract steps of a run.
type StepReporter struct {
	quiet bool
	out   io.Writer
	bar   *progressbar.ProgressBar
	done  int
	start time.Time
}

// NewStepReporter creates a reporter writing to out. A quiet reporter
// prints nothing.
func NewStepReporter(out io.Writer, quiet bool) *StepReporter {
	return &StepReporter{
		quiet: quiet,
		out:   out,
		start: time.Now(),
	}
}

// Start begins a bar over total steps.
func (r *StepReporter) Start(total int) {
	if r.quiet || total == 0 {
		return
	}
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetDescription("Extracting"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(r.out)
		}),
	)
}

// Step labels the step about to run.
func (r *StepReporter) Step(name string) {
	if r.bar != nil {
		r.bar.Describe(name)
	}
}

// Done marks the current step finished.
func (r *StepReporter) Done() {
	r.done++
	if r.bar != nil {
		r.bar.Add(1)
	}
}

// Finish completes the bar and prints a summary line.
func (r *StepReporter) Finish(files int) {
	if r.quiet {
		return
	}
	if r.bar != nil {
		r.bar.Finish()
		r.bar = nil
	}
	fmt.Fprintf(r.out, "✓ Extract complete: %d steps, %d files in %.1fs\n",
		r.done, files, time.Since(r.start).Seconds())
}
