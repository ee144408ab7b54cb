package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/dupecheck/internal/detect"
)

const (
	defaultAPIURL = "https://api.github.com"
	pageSize      = 100
)

// ErrAuth is returned when GitHub rejects the token.
var ErrAuth = errors.New("github authentication failed")

// ErrNotFound is returned when a repository or issue does not exist.
var ErrNotFound = errors.New("not found")

// Client provides access to the GitHub REST API.
type Client struct {
	token   string
	apiURL  string
	httpCli *http.Client
}

// NewClient creates a new GitHub client. Requires GITHUB_TOKEN env var.
func NewClient() (*Client, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN environment variable is not set")
	}

	apiURL := os.Getenv("GITHUB_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	apiURL = strings.TrimRight(apiURL, "/")

	return &Client{
		token:   token,
		apiURL:  apiURL,
		httpCli: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Issue is the subset of the GitHub issue resource used here.
type Issue struct {
	Number      int              `json:"number"`
	Title       string           `json:"title"`
	Body        string           `json:"body"`
	State       string           `json:"state"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	PullRequest *json.RawMessage `json:"pull_request,omitempty"`
}

// IsPullRequest reports whether the issue is a pull request. The issues
// endpoint returns both.
func (i Issue) IsPullRequest() bool { return i.PullRequest != nil }

// Candidate converts i for the detector.
func (i Issue) Candidate() detect.Candidate {
	return detect.Candidate{
		Number:    i.Number,
		Title:     i.Title,
		Body:      i.Body,
		State:     i.State,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

// Target converts i for the detector.
func (i Issue) Target() detect.Target {
	return detect.Target{Number: i.Number, Title: i.Title, Body: i.Body}
}

// ListOptions filters ListIssues.
type ListOptions struct {
	// State is all, open, or closed. Empty means all.
	State string
	// Since limits results to issues updated at or after this time.
	Since time.Time
	// Exclude drops one issue number, usually the target.
	Exclude int
}

// ListIssues fetches every issue in the repository matching opts, following
// pagination until a short page. Pull requests are skipped.
func (c *Client) ListIssues(ctx context.Context, owner, repo string, opts ListOptions) ([]detect.Candidate, error) {
	state := opts.State
	if state == "" {
		state = "all"
	}

	var out []detect.Candidate
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("state", state)
		q.Set("per_page", strconv.Itoa(pageSize))
		q.Set("page", strconv.Itoa(page))
		if !opts.Since.IsZero() {
			q.Set("since", opts.Since.UTC().Format(time.RFC3339))
		}

		var issues []Issue
		path := fmt.Sprintf("/repos/%s/%s/issues?%s", owner, repo, q.Encode())
		if err := c.do(ctx, http.MethodGet, path, nil, &issues); err != nil {
			return nil, fmt.Errorf("listing issues (page %d): %w", page, err)
		}

		for _, is := range issues {
			if is.IsPullRequest() || is.Number == opts.Exclude {
				continue
			}
			out = append(out, is.Candidate())
		}
		if len(issues) < pageSize {
			break
		}
	}
	return out, nil
}

// GetIssue fetches a single issue.
func (c *Client) GetIssue(ctx context.Context, owner, repo string, number int) (*Issue, error) {
	var is Issue
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", owner, repo, number)
	if err := c.do(ctx, http.MethodGet, path, nil, &is); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("issue #%d %w in %s/%s", number, ErrNotFound, owner, repo)
		}
		return nil, fmt.Errorf("fetching issue #%d: %w", number, err)
	}
	return &is, nil
}

// CreateComment posts body as a comment on an issue.
func (c *Client) CreateComment(ctx context.Context, owner, repo string, number int, body string) error {
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", owner, repo, number)
	payload := struct {
		Body string `json:"body"`
	}{Body: body}
	if err := c.do(ctx, http.MethodPost, path, payload, nil); err != nil {
		return fmt.Errorf("%w: commenting on #%d: %v", detect.ErrPublish, number, err)
	}
	return nil
}

// AddLabels adds labels to an issue. An empty list is a no-op.
func (c *Client) AddLabels(ctx context.Context, owner, repo string, number int, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/labels", owner, repo, number)
	payload := struct {
		Labels []string `json:"labels"`
	}{Labels: labels}
	if err := c.do(ctx, http.MethodPost, path, payload, nil); err != nil {
		return fmt.Errorf("%w: labeling #%d: %v", detect.ErrPublish, number, err)
	}
	return nil
}

// do sends a request and decodes a JSON response into out when out is
// non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == 404:
		return ErrNotFound
	case resp.StatusCode == 401 || resp.StatusCode == 403:
		return fmt.Errorf("%w: %s", ErrAuth, string(body))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("GitHub API error (status %d): %s", resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`)
)

// DetectRepo returns owner/repo from GITHUB_REPOSITORY when set, otherwise
// from the git remote origin URL.
func DetectRepo() (owner, repo string, err error) {
	if env := os.Getenv("GITHUB_REPOSITORY"); env != "" {
		return ParseRepository(env)
	}
	out, err := exec.Command("git", "remote", "get-url", "origin").Output()
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: git remote get-url origin failed: %w", err)
	}
	return ParseRemoteURL(strings.TrimSpace(string(out)))
}

// ParseRepository splits an "owner/repo" string.
func ParseRepository(s string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository %q, want owner/repo", s)
	}
	return owner, repo, nil
}

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(remote string) (owner, repo string, err error) {
	remote = strings.TrimSuffix(remote, ".git")

	if m := httpsRemoteRe.FindStringSubmatch(remote); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(remote); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", remote)
}
