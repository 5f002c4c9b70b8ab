// Package cli provides terminal progress reporting and interrupt handling
// for detection runs.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/ledgerloom/ledgerloom/internal/service"
)

// progressScale converts engine completion fractions into bar steps.
const progressScale = 100

// ProgressBar reports detection run progress to the terminal.
type ProgressBar struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
	phase  string
	mu     sync.Mutex
}

// NewProgressBar creates a terminal progress reporter. A nil writer defaults
// to stdout.
func NewProgressBar(writer io.Writer) *ProgressBar {
	if writer == nil {
		writer = os.Stdout
	}
	return &ProgressBar{writer: writer}
}

// StartPhase begins a new named phase with a fresh bar.
func (p *ProgressBar) StartPhase(phase string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		if err := p.bar.Finish(); err != nil {
			slog.Warn("Failed to finish progress bar", "error", err)
		}
	}

	p.phase = phase
	p.bar = progressbar.NewOptions(progressScale,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan][bold]%s[reset]", phase)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(p.writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

// Progress updates the current phase's completion fraction (0 to 1).
func (p *ProgressBar) Progress(fraction float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		return
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	if err := p.bar.Set(int(fraction * progressScale)); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Done finishes the current bar and prints the run outcome.
func (p *ProgressBar) Done(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		if finishErr := p.bar.Finish(); finishErr != nil {
			slog.Warn("Failed to finish progress bar", "error", finishErr)
		}
		p.bar = nil
	}

	if err != nil {
		fmt.Fprintf(p.writer, "\nDetection failed: %v\n", err)
	}
}

var _ service.ProgressReporter = (*ProgressBar)(nil)

// NoopReporter discards all progress events. Useful for scripted runs and
// tests.
type NoopReporter struct{}

// StartPhase implements service.ProgressReporter.
func (NoopReporter) StartPhase(string) {}

// Progress implements service.ProgressReporter.
func (NoopReporter) Progress(float64) {}

// Done implements service.ProgressReporter.
func (NoopReporter) Done(error) {}
