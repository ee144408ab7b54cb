package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/dupecheck/internal/detect"
)

// Report is the outcome of one duplicate check.
type Report struct {
	Tool       string                `json:"tool"`
	Version    string                `json:"version"`
	RunID      string                `json:"runId"`
	Repo       string                `json:"repo"`
	Target     detect.Target         `json:"target"`
	Provider   string                `json:"provider"`
	Model      string                `json:"model"`
	BatchSize  int                   `json:"batchSize"`
	Candidates []detect.Candidate    `json:"-"`
	Considered int                   `json:"candidates"`
	Matches    []detect.Match        `json:"matches"`
	Batches    []detect.BatchOutcome `json:"batches"`
	Timing     Timing                `json:"timing"`
}

// Timing records where a run spent its time.
type Timing struct {
	TotalMs int64 `json:"totalMs"`
	FetchMs int64 `json:"fetchMs"`
	LLMMs   int64 `json:"llmMs"`
}

// NewReport assembles a Report from a pipeline result.
func NewReport(target detect.Target, candidates []detect.Candidate, res *detect.Result) *Report {
	r := &Report{
		Target:     target,
		Candidates: candidates,
		Considered: len(candidates),
		Matches:    []detect.Match{},
		Batches:    []detect.BatchOutcome{},
	}
	if res != nil {
		if res.Matches != nil {
			r.Matches = res.Matches
		}
		if res.Batches != nil {
			r.Batches = res.Batches
		}
		r.Timing.LLMMs = res.LLMMs
	}
	return r
}

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *Report) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "markdown", "":
		return &MarkdownWriter{Fields: FullFields}, nil
	case "json":
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the report to the specified output (file path or stdout).
func WriteReport(report *Report, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, report)
}
