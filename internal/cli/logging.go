package cli

import (
	"io"
	"log/slog"

	"github.com/fatih/color"
)

// newLogger builds the run logger. Every record carries the run ID so log
// lines from concurrent batches can be tied back to one invocation.
func newLogger(w io.Writer, runID string) *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if flagLogFormat == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("run", runID)
}

// Status line printers for stderr. fatih/color disables itself when the
// output is not a terminal or NO_COLOR is set.
var (
	statusInfo = color.New(color.FgCyan).FprintfFunc()
	statusOK   = color.New(color.FgGreen).FprintfFunc()
	statusWarn = color.New(color.FgYellow).FprintfFunc()
)
