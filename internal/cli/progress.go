package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wordup-dev/wordup/internal/importer"
)

type importProgressReporter struct {
	enabled bool
	label   string
	start   time.Time
	count   int
	spinner int
	lastLen int
}

func newImportProgressReporter(label string, asJSON bool) *importProgressReporter {
	stat, err := os.Stderr.Stat()
	enabled := err == nil && (stat.Mode()&os.ModeCharDevice) != 0 && !asJSON
	return &importProgressReporter{
		enabled: enabled,
		label:   label,
		start:   time.Now(),
	}
}

func (r *importProgressReporter) Update(outcome importer.DocumentOutcome) {
	r.count++
	if !r.enabled {
		return
	}
	frames := [4]string{"-", "\\", "|", "/"}
	frame := frames[r.spinner%len(frames)]
	r.spinner++
	file := strings.TrimSpace(outcome.PostType + "/" + outcome.File)
	if len(file) > 88 {
		file = "..." + file[len(file)-85:]
	}
	r.printStatus(fmt.Sprintf("%s %s %d %s %s", frame, r.label, r.count, outcome.Outcome, file))
}

func (r *importProgressReporter) Done() {
	if !r.enabled {
		return
	}
	elapsed := time.Since(r.start).Round(time.Millisecond)
	r.printStatus(fmt.Sprintf("%s complete (%d documents in %s)", r.label, r.count, elapsed))
	fmt.Fprintln(os.Stderr)
}

func (r *importProgressReporter) Reset() {
	r.count = 0
	r.start = time.Now()
}

func (r *importProgressReporter) printStatus(status string) {
	if r.lastLen > len(status) {
		status = status + strings.Repeat(" ", r.lastLen-len(status))
	}
	r.lastLen = len(status)
	fmt.Fprintf(os.Stderr, "\r%s", status)
}
