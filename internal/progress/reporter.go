// Package progress renders generation progress for the request command.
package progress

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter receives progress updates while documents are generated.
type Reporter interface {
	Start(total int)
	Update(current int, message string)
	Finish()
}

// NewReporter picks a reporter for the current environment: plain log
// lines under CI, an interactive bar otherwise.
func NewReporter() Reporter {
	if inCI() {
		return &logReporter{out: os.Stderr}
	}
	return &barReporter{}
}

func inCI() bool {
	return os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != ""
}

// barReporter renders an interactive terminal progress bar. The bar
// description tracks the capability currently being generated.
type barReporter struct {
	bar *progressbar.ProgressBar
}

func (r *barReporter) Start(total int) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Generating documents"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *barReporter) Update(current int, message string) {
	if r.bar == nil {
		return
	}
	r.bar.Describe(message)
	_ = r.bar.Set(current)
}

func (r *barReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// logReporter emits one line per completed document, readable in CI logs.
type logReporter struct {
	out   *os.File
	total int
}

func (r *logReporter) Start(total int) {
	r.total = total
	fmt.Fprintf(r.out, "Starting generation of %d document(s)\n", total)
}

func (r *logReporter) Update(current int, message string) {
	fmt.Fprintf(r.out, "[%d/%d] %s\n", current, r.total, message)
}

func (r *logReporter) Finish() {
	fmt.Fprintln(r.out, "Document generation complete")
}
