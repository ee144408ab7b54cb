package detect

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/dupecheck/internal/providers"
)

// MaxBatchSize bounds Options.BatchSize.
const MaxBatchSize = 100

// Options configures a Pipeline. It is passed by value and not modified.
type Options struct {
	Model        string
	Endpoint     string
	MaxTokens    int
	SystemPrompt string
	BatchSize    int
	// Concurrency is the number of batches in flight at once. Values below
	// 2 process batches one at a time.
	Concurrency int
	// LenientFences unwraps a response enclosed in a markdown code fence
	// before parsing it.
	LenientFences bool
}

// Validate checks o for values that would make a run meaningless.
func (o Options) Validate() error {
	if o.BatchSize < 1 || o.BatchSize > MaxBatchSize {
		return fmt.Errorf("%w: batch size %d out of range [1,%d]", ErrInvalidArgument, o.BatchSize, MaxBatchSize)
	}
	if o.MaxTokens < 0 {
		return fmt.Errorf("%w: max tokens must not be negative, got %d", ErrInvalidArgument, o.MaxTokens)
	}
	return nil
}

// BatchStatus describes what one batch contributed.
type BatchStatus string

const (
	BatchOK         BatchStatus = "ok"
	BatchNoResponse BatchStatus = "no_response"
	BatchParseError BatchStatus = "parse_error"
	BatchInvalid    BatchStatus = "invalid"
)

// BatchOutcome records the result of one batch.
type BatchOutcome struct {
	// Index is 1-based.
	Index      int         `json:"index"`
	Size       int         `json:"size"`
	Status     BatchStatus `json:"status"`
	Error      string      `json:"error,omitempty"`
	Matches    []Match     `json:"matches"`
	TokensUsed int         `json:"tokensUsed,omitempty"`
	LLMMs      int64       `json:"llmMs"`
	err        error
}

// Err returns the batch failure wrapped in ErrUpstreamUnavailable or
// ErrMalformedOutput, or nil for a successful batch.
func (b BatchOutcome) Err() error { return b.err }

// Result is the aggregate of a run.
type Result struct {
	// Matches holds every batch's matches in batch order. Repeated issues
	// across batches are kept.
	Matches []Match        `json:"matches"`
	Batches []BatchOutcome `json:"batches"`
	LLMMs   int64          `json:"llmMs"`
}

// Failed returns the number of batches that contributed nothing because of
// an error.
func (r *Result) Failed() int {
	n := 0
	for _, b := range r.Batches {
		if b.Status != BatchOK {
			n++
		}
	}
	return n
}

// Pipeline sends batches of candidates to an inference client and collects
// the validated matches.
type Pipeline struct {
	client providers.Client
	opts   Options
	log    *slog.Logger
}

// NewPipeline creates a Pipeline. A nil logger discards log output.
func NewPipeline(client providers.Client, opts Options, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{client: client, opts: opts, log: log}
}

// Run compares target against candidates. A failing batch contributes no
// matches and does not stop the run; Run only returns an error for invalid
// options or a canceled context.
func (p *Pipeline) Run(ctx context.Context, target Target, candidates []Candidate) (*Result, error) {
	if err := p.opts.Validate(); err != nil {
		return nil, err
	}
	batches, err := Chunk(candidates, p.opts.BatchSize)
	if err != nil {
		return nil, err
	}

	summary := BuildTargetSummary(target.Number, target.Title, target.Body)
	outcomes := make([]BatchOutcome, len(batches))

	p.log.Info("checking for duplicates",
		"target", target.Number,
		"candidates", len(candidates),
		"batches", len(batches),
		"model", p.opts.Model,
		"endpoint", p.opts.Endpoint,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.opts.Concurrency, 1))
	for i, batch := range batches {
		g.Go(func() error {
			out, err := p.runBatch(gctx, summary, i+1, batch)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Batches: outcomes}
	for _, out := range outcomes {
		res.Matches = append(res.Matches, out.Matches...)
		res.LLMMs += out.LLMMs
	}

	p.log.Info("duplicate check complete",
		"target", target.Number,
		"matches", len(res.Matches),
		"failedBatches", res.Failed(),
	)
	return res, nil
}

// runBatch returns an error only for conditions that must stop the run.
func (p *Pipeline) runBatch(ctx context.Context, summary string, index int, batch []Candidate) (BatchOutcome, error) {
	out := BatchOutcome{Index: index, Size: len(batch), Matches: []Match{}}
	log := p.log.With("batch", index, "size", len(batch))

	prompt, err := BuildBatchPrompt(summary, index, batch)
	if err != nil {
		return out, err
	}

	start := time.Now()
	resp, err := p.client.Complete(ctx, providers.Request{
		SystemPrompt: p.opts.SystemPrompt,
		UserPrompt:   prompt,
		Model:        p.opts.Model,
		MaxTokens:    p.opts.MaxTokens,
	})
	out.LLMMs = time.Since(start).Milliseconds()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, ctxErr
	}
	if err == nil && resp.Content == "" {
		err = fmt.Errorf("empty response")
	}
	if err != nil {
		out.Status = BatchNoResponse
		out.err = fmt.Errorf("%w: batch %d: %v", ErrUpstreamUnavailable, index, err)
		out.Error = out.err.Error()
		log.Warn("batch response missing", "provider", p.client.Name(), "err", err)
		return out, nil
	}
	out.TokensUsed = resp.TokensUsed

	content := resp.Content
	if p.opts.LenientFences {
		content = stripFences(content)
	}

	parsed, err := ParseJSON(content)
	if err != nil {
		out.Status = BatchParseError
		out.err = fmt.Errorf("%w: batch %d: %v", ErrMalformedOutput, index, err)
		out.Error = out.err.Error()
		log.Warn("batch response is not valid JSON", "err", err, "response", truncate(resp.Content, 200))
		return out, nil
	}

	matches, ok := Verify(parsed)
	if !ok {
		out.Status = BatchInvalid
		out.err = fmt.Errorf("%w: batch %d: response does not match the expected schema", ErrMalformedOutput, index)
		out.Error = out.err.Error()
		log.Warn("batch response failed validation", "response", truncate(resp.Content, 200))
		return out, nil
	}

	out.Status = BatchOK
	out.Matches = matches
	log.Debug("batch complete", "matches", len(matches), "llmMs", out.LLMMs)
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
