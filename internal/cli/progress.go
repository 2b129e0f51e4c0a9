package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
)

// CLIProgressReporter shows spinner feedback while the Graphviz layout
// engine runs. All output goes to stderr so piped stdout stays clean.
type CLIProgressReporter struct {
	quiet   bool
	spinner *progressbar.ProgressBar
	stopCh  chan struct{}
}

// NewCLIProgressReporter creates a new CLI progress reporter.
func NewCLIProgressReporter(quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{quiet: quiet}
}

// OnExportStart begins the spinner. The spinner animates from a ticker
// goroutine until OnExportComplete.
func (c *CLIProgressReporter) OnExportStart(file, format string) {
	if c.quiet {
		return
	}

	c.spinner = progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(fmt.Sprintf("Rendering %s graph for %s", format, filepath.Base(file))),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	c.stopCh = make(chan struct{})
	go func(spinner *progressbar.ProgressBar, stopCh chan struct{}) {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				spinner.Add(1)
			}
		}
	}(c.spinner, c.stopCh)
}

// OnExportComplete stops the spinner and clears its line.
func (c *CLIProgressReporter) OnExportComplete() {
	if c.spinner == nil {
		return
	}
	close(c.stopCh)
	c.spinner.Finish()
	c.spinner = nil
}
