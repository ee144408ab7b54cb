package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dshills/dupecheck/internal/cache"
	"github.com/dshills/dupecheck/internal/config"
	"github.com/dshills/dupecheck/internal/detect"
	"github.com/dshills/dupecheck/internal/github"
	"github.com/dshills/dupecheck/internal/output"
	"github.com/dshills/dupecheck/internal/providers"
	"github.com/dshills/dupecheck/internal/redact"
)

// Check flags
var (
	flagOwner       string
	flagRepo        string
	flagBatchSize   int
	flagState       string
	flagSince       string
	flagLabels      string
	flagNoComment   bool
	flagDryRun      bool
	flagProvider    string
	flagModel       string
	flagEndpoint    string
	flagMaxTokens   int
	flagConcurrency int
	flagFormat      string
	flagOut         string
	flagFailOn      string
)

// issueTracker is the part of the GitHub client a check needs.
type issueTracker interface {
	GetIssue(ctx context.Context, owner, repo string, number int) (*github.Issue, error)
	ListIssues(ctx context.Context, owner, repo string, opts github.ListOptions) ([]detect.Candidate, error)
	CreateComment(ctx context.Context, owner, repo string, number int, body string) error
	AddLabels(ctx context.Context, owner, repo string, number int, labels []string) error
}

// Constructors replaced in tests.
var (
	newTracker = func() (issueTracker, error) { return github.NewClient() }
	newClient  = providers.New
)

func addCheckFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagOwner, "owner", "", "Repository owner (auto-detected if omitted)")
	cmd.Flags().StringVar(&flagRepo, "repo", "", "Repository name (auto-detected if omitted)")
	cmd.Flags().IntVar(&flagBatchSize, "batch-size", 0, "Existing issues per LLM request (1-100)")
	cmd.Flags().StringVar(&flagState, "state", "", "Issue state to compare against (all, open, closed)")
	cmd.Flags().StringVar(&flagSince, "since", "", "Only compare issues updated since this date")
	cmd.Flags().StringVar(&flagLabels, "labels", "", "Labels to add when duplicates are found (comma-separated)")
	cmd.Flags().BoolVar(&flagNoComment, "no-comment", false, "Do not comment on the issue")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Run the check but don't comment or label")
	cmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider (github, openai, anthropic, ollama, vertex)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	cmd.Flags().StringVar(&flagEndpoint, "endpoint", "", "Inference endpoint base URL")
	cmd.Flags().IntVar(&flagMaxTokens, "max-tokens", 0, "Maximum output tokens per request")
	cmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "Batches in flight at once")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (markdown, json)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Exit 1 when a match is at or above this likelihood (none, low, medium, high)")
}

// buildOverrides maps explicitly set flags to config keys. changed reports
// whether a flag was given on the command line, so zero values such as
// --batch-size 0 still reach validation.
func buildOverrides(changed func(name string) bool) map[string]string {
	m := make(map[string]string)
	set := func(flag, key, value string) {
		if changed(flag) {
			m[key] = value
		}
	}
	set("provider", "provider", flagProvider)
	set("model", "model", flagModel)
	set("endpoint", "endpoint", flagEndpoint)
	set("batch-size", "batchSize", strconv.Itoa(flagBatchSize))
	set("max-tokens", "maxTokens", strconv.Itoa(flagMaxTokens))
	set("concurrency", "concurrency", strconv.Itoa(flagConcurrency))
	set("state", "state", flagState)
	set("since", "since", flagSince)
	set("labels", "labels", strings.Join(splitComma(flagLabels), ","))
	set("format", "format", flagFormat)
	set("fail-on", "failOn", flagFailOn)
	if changed("no-comment") && flagNoComment {
		m["comment"] = "false"
	}
	return m
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func parseIssueNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: invalid issue number %q", detect.ErrInvalidArgument, s)
	}
	return n, nil
}

func resolveRepo() (owner, repo string, err error) {
	owner, repo = flagOwner, flagRepo
	if owner != "" && repo != "" {
		return owner, repo, nil
	}
	detectedOwner, detectedRepo, err := github.DetectRepo()
	if err != nil {
		return "", "", fmt.Errorf("%w\nUse --owner and --repo flags to specify manually", err)
	}
	if owner == "" {
		owner = detectedOwner
	}
	if repo == "" {
		repo = detectedRepo
	}
	return owner, repo, nil
}

var checkCmd = &cobra.Command{
	Use:   "check <issue-number>",
	Short: "Check an issue for likely duplicates",
	Long: "Compare an issue against the repository's existing issues in batches, " +
		"print a report, and comment and label the issue when likely duplicates are found.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := parseIssueNumber(args[0])
		if err != nil {
			fail(err)
			return nil
		}

		cfg, err := config.Load(flagConfig, buildOverrides(cmd.Flags().Changed))
		if err != nil {
			fail(err)
			return nil
		}
		if err := config.Validate(cfg); err != nil {
			fail(err)
			return nil
		}

		owner, repo, err := resolveRepo()
		if err != nil {
			fail(err)
			return nil
		}

		exitCode = runCheck(cmd.Context(), cfg, owner, repo, number)
		return nil
	},
}

// runCheck performs one duplicate check and returns the exit code.
func runCheck(ctx context.Context, cfg config.Config, owner, repo string, number int) int {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	runID := uuid.NewString()
	log := newLogger(os.Stderr, runID)

	if cfg.Model == "" {
		cfg.Model = providers.DefaultModel(cfg.Provider)
	}

	since, err := config.ParseSince(cfg.Since)
	if err != nil {
		fail(err)
		return exitCode
	}

	tracker, err := newTracker()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitAuthError
	}

	client, err := newClient(ctx, providers.Settings{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		Endpoint: cfg.Endpoint,
		Vertex: providers.VertexSettings{
			Project:  cfg.Vertex.Project,
			Location: cfg.Vertex.Location,
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitAuthError
	}
	client = providers.NewPaced(client, cfg.RequestsPerMinute)

	store, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		log.Warn("cache unavailable, continuing without it", "err", err)
		store, _ = cache.New(false, "", 0)
	}
	defer store.Close()
	client = cache.Wrap(client, store, cfg.Endpoint, log)
	defer providers.Close(client)

	fetchStart := time.Now()
	issue, err := tracker.GetIssue(ctx, owner, repo, number)
	if err != nil {
		fail(err)
		return exitCode
	}
	candidates, err := tracker.ListIssues(ctx, owner, repo, github.ListOptions{
		State:   cfg.State,
		Since:   since,
		Exclude: number,
	})
	if err != nil {
		fail(err)
		return exitCode
	}
	fetchMs := time.Since(fetchStart).Milliseconds()

	target := issue.Target()
	if cfg.Privacy.RedactSecrets {
		r := redact.New(true)
		target = r.Target(target)
		candidates = r.Candidates(candidates)
		if r.Count() > 0 {
			log.Info("redacted secrets from issue text", "count", r.Count())
		}
	}

	statusInfo(os.Stderr, "Checking #%d in %s/%s against %d issues...\n", number, owner, repo, len(candidates))

	pipeline := detect.NewPipeline(client, detect.Options{
		Model:         cfg.Model,
		Endpoint:      cfg.Endpoint,
		MaxTokens:     cfg.MaxTokens,
		SystemPrompt:  cfg.SystemPrompt,
		BatchSize:     cfg.BatchSize,
		Concurrency:   cfg.Concurrency,
		LenientFences: cfg.LenientFences,
	}, log)
	res, err := pipeline.Run(ctx, target, candidates)
	if err != nil {
		fail(err)
		return exitCode
	}

	report := output.NewReport(target, candidates, res)
	report.Tool = "dupecheck"
	report.Version = version
	report.RunID = runID
	report.Repo = owner + "/" + repo
	report.Provider = cfg.Provider
	report.Model = cfg.Model
	report.BatchSize = cfg.BatchSize
	report.Timing = output.Timing{
		TotalMs: time.Since(start).Milliseconds(),
		FetchMs: fetchMs,
		LLMMs:   res.LLMMs,
	}

	if err := output.WriteReport(report, cfg.Format, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		return ExitRuntimeError
	}

	full := output.Render(res.Matches, candidates, output.FullFields)
	if err := output.AppendStepSummary(os.Getenv(output.StepSummaryEnv), full); err != nil {
		log.Warn("step summary not written", "err", err)
	}

	publish(ctx, log, tracker, cfg, owner, repo, number, res.Matches, candidates)

	if detect.MeetsThreshold(detect.HighestLikelihood(res.Matches), cfg.FailOn) {
		return ExitFindings
	}
	return ExitSuccess
}

// publish comments and labels the target when there are matches. Failures
// are logged and never change the outcome of the check.
func publish(ctx context.Context, log *slog.Logger, tracker issueTracker, cfg config.Config, owner, repo string, number int, matches []detect.Match, candidates []detect.Candidate) {
	if len(matches) == 0 {
		statusOK(os.Stderr, "No similar issues found for #%d.\n", number)
		return
	}
	if flagDryRun {
		statusWarn(os.Stderr, "Dry run: %d possible duplicates found, not posting to GitHub.\n", len(matches))
		return
	}

	if cfg.Comment {
		body := output.Render(matches, candidates, output.CommentFields)
		if err := tracker.CreateComment(ctx, owner, repo, number, body); err != nil {
			logPublishFailure(log, err, "comment")
		} else {
			statusOK(os.Stderr, "Commented on #%d with %d possible duplicates.\n", number, len(matches))
		}
	}

	if len(cfg.Labels) > 0 {
		if err := tracker.AddLabels(ctx, owner, repo, number, cfg.Labels); err != nil {
			logPublishFailure(log, err, "labels")
		} else {
			statusOK(os.Stderr, "Labeled #%d: %s\n", number, strings.Join(cfg.Labels, ", "))
		}
	}
}

func logPublishFailure(log *slog.Logger, err error, what string) {
	if !errors.Is(err, detect.ErrPublish) {
		err = fmt.Errorf("%w: %v", detect.ErrPublish, err)
	}
	log.Error("publish failed", "what", what, "err", err)
}

func init() {
	addCheckFlags(checkCmd)
}
