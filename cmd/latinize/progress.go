package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"latinize/internal/batch"
	"latinize/internal/logging"
)

// progressDisplay renders job progress either as a live bar on a terminal or
// as sampled plain lines when output is redirected.
type progressDisplay struct {
	bar     *progressbar.ProgressBar
	out     io.Writer
	sampler *logging.ProgressSampler
	label   string
}

func newProgressDisplay(out io.Writer, label string, total int) *progressDisplay {
	d := &progressDisplay{out: out, label: label}
	if isInteractive(out) {
		d.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription(label),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		return d
	}
	d.sampler = logging.NewProgressSampler(25)
	return d
}

func (d *progressDisplay) update(p batch.Progress) {
	if d.bar != nil {
		_ = d.bar.Set(p.Done)
		return
	}
	if d.sampler.ShouldLog(p.Done, p.Total, d.label) {
		fmt.Fprintf(d.out, "%s: %d/%d\n", d.label, p.Done, p.Total)
	}
}

func (d *progressDisplay) finish() {
	if d.bar != nil {
		_ = d.bar.Finish()
	}
}

// follow drains the job's progress channel into the display until the job
// finishes, then returns its result.
func (d *progressDisplay) follow(job *batch.Job) (batch.Result, error) {
	for p := range job.Progress() {
		d.update(p)
	}
	d.finish()
	return job.Wait()
}

func isInteractive(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
