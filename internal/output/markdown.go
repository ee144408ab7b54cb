package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/dupecheck/internal/detect"
)

// MarkdownWriter outputs the rendered report followed by a footer noting
// batches that contributed nothing.
type MarkdownWriter struct {
	Fields Fields
}

func (m *MarkdownWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}

	body := Render(report.Matches, report.Candidates, m.Fields)
	ew.printf("%s\n", strings.TrimRight(body, "\n"))

	var failed []string
	for _, b := range report.Batches {
		if b.Status != detect.BatchOK {
			failed = append(failed, fmt.Sprintf("%d (%s)", b.Index, b.Status))
		}
	}
	if len(failed) > 0 {
		ew.printf("\n*%d of %d batches returned no usable result: batch %s*\n",
			len(failed), len(report.Batches), strings.Join(failed, ", "))
	}
	return ew.err
}

// errWriter remembers the first write error so callers can check once.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
