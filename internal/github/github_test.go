package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/dshills/dupecheck/internal/detect"
)

func testClient(server *httptest.Server) *Client {
	return &Client{
		token:   "test-token",
		apiURL:  server.URL,
		httpCli: server.Client(),
	}
}

func TestListIssues_Pagination(t *testing.T) {
	var pages []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("Authorization = %q, want %q", r.Header.Get("Authorization"), "Bearer test-token")
		}
		if r.URL.Path != "/repos/owner/repo/issues" {
			t.Errorf("Path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("per_page") != "100" {
			t.Errorf("per_page = %q, want 100", q.Get("per_page"))
		}
		if q.Get("state") != "open" {
			t.Errorf("state = %q, want open", q.Get("state"))
		}
		if q.Get("since") != "2024-01-02T00:00:00Z" {
			t.Errorf("since = %q", q.Get("since"))
		}
		pages = append(pages, q.Get("page"))

		page, _ := strconv.Atoi(q.Get("page"))
		var issues []map[string]any
		switch page {
		case 1:
			for i := 1; i <= 100; i++ {
				issue := map[string]any{"number": i, "title": fmt.Sprintf("Issue %d", i), "state": "open"}
				if i == 50 {
					issue["pull_request"] = map[string]any{"url": "x"}
				}
				issues = append(issues, issue)
			}
		case 2:
			issues = append(issues, map[string]any{"number": 101, "title": "Last", "body": nil, "state": "open"})
		}
		json.NewEncoder(w).Encode(issues)
	}))
	defer server.Close()

	c := testClient(server)
	got, err := c.ListIssues(context.Background(), "owner", "repo", ListOptions{
		State:   "open",
		Since:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Exclude: 7,
	})
	if err != nil {
		t.Fatalf("ListIssues error: %v", err)
	}

	if len(pages) != 2 || pages[0] != "1" || pages[1] != "2" {
		t.Errorf("pages requested = %v, want [1 2]", pages)
	}
	// 101 issues minus the pull request and the excluded target.
	if len(got) != 99 {
		t.Fatalf("candidates = %d, want 99", len(got))
	}
	for _, c := range got {
		if c.Number == 50 || c.Number == 7 {
			t.Errorf("issue #%d should have been skipped", c.Number)
		}
	}
	if last := got[len(got)-1]; last.Number != 101 || last.Title != "Last" || last.Body != "" {
		t.Errorf("last candidate = %+v", last)
	}
}

func TestListIssues_DefaultsToAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("state"); got != "all" {
			t.Errorf("state = %q, want all", got)
		}
		if r.URL.Query().Has("since") {
			t.Error("since should be omitted when unset")
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	got, err := testClient(server).ListIssues(context.Background(), "owner", "repo", ListOptions{})
	if err != nil {
		t.Fatalf("ListIssues error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("candidates = %d, want 0", len(got))
	}
}

func TestListIssues_401(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
		w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer server.Close()

	_, err := testClient(server).ListIssues(context.Background(), "owner", "repo", ListOptions{})
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("err = %v, want ErrAuth", err)
	}
}

func TestGetIssue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/issues/42" {
			t.Errorf("Path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"number":42,"title":"Crash","body":"stack trace","state":"open"}`))
	}))
	defer server.Close()

	is, err := testClient(server).GetIssue(context.Background(), "owner", "repo", 42)
	if err != nil {
		t.Fatalf("GetIssue error: %v", err)
	}
	target := is.Target()
	if target != (detect.Target{Number: 42, Title: "Crash", Body: "stack trace"}) {
		t.Errorf("target = %+v", target)
	}
}

func TestGetIssue_404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer server.Close()

	_, err := testClient(server).GetIssue(context.Background(), "owner", "repo", 99)
	if err == nil {
		t.Fatal("Expected error for 404")
	}
	if got := err.Error(); got != "issue #99 not found in owner/repo" {
		t.Errorf("error = %q", got)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("error should wrap ErrNotFound")
	}
}

func TestCreateComment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Method = %q, want POST", r.Method)
		}
		if r.URL.Path != "/repos/owner/repo/issues/42/comments" {
			t.Errorf("Path = %q", r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		var payload struct {
			Body string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if payload.Body != "report" {
			t.Errorf("Body = %q", payload.Body)
		}
		w.WriteHeader(201)
		w.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	if err := testClient(server).CreateComment(context.Background(), "owner", "repo", 42, "report"); err != nil {
		t.Fatalf("CreateComment error: %v", err)
	}
}

func TestCreateComment_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(422)
		w.Write([]byte(`{"message":"Validation Failed"}`))
	}))
	defer server.Close()

	err := testClient(server).CreateComment(context.Background(), "owner", "repo", 42, "report")
	if !errors.Is(err, detect.ErrPublish) {
		t.Fatalf("err = %v, want ErrPublish", err)
	}
}

func TestAddLabels(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/repos/owner/repo/issues/42/labels" {
			t.Errorf("Path = %q", r.URL.Path)
		}
		var payload struct {
			Labels []string `json:"labels"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(payload.Labels) != 2 || payload.Labels[0] != "duplicate" || payload.Labels[1] != "triage" {
			t.Errorf("Labels = %v", payload.Labels)
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := testClient(server)
	if err := c.AddLabels(context.Background(), "owner", "repo", 42, []string{"duplicate", "triage"}); err != nil {
		t.Fatalf("AddLabels error: %v", err)
	}
	if err := c.AddLabels(context.Background(), "owner", "repo", 42, nil); err != nil {
		t.Fatalf("AddLabels(nil) error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDetectRepo_Env(t *testing.T) {
	t.Setenv("GITHUB_REPOSITORY", "acme/widgets")
	owner, repo, err := DetectRepo()
	if err != nil {
		t.Fatalf("DetectRepo error: %v", err)
	}
	if owner != "acme" || repo != "widgets" {
		t.Errorf("got %s/%s", owner, repo)
	}
}

func TestParseRepository(t *testing.T) {
	for _, bad := range []string{"", "acme", "/widgets", "acme/", "a/b/c"} {
		if _, _, err := ParseRepository(bad); err == nil {
			t.Errorf("ParseRepository(%q) should fail", bad)
		}
	}
}

func TestNewClient_RequiresToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	if _, err := NewClient(); err == nil {
		t.Fatal("expected error without GITHUB_TOKEN")
	}

	t.Setenv("GITHUB_TOKEN", "tok")
	t.Setenv("GITHUB_API_URL", "https://ghe.example.com/api/v3/")
	c, err := NewClient()
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if c.apiURL != "https://ghe.example.com/api/v3" {
		t.Errorf("apiURL = %q", c.apiURL)
	}
}

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{
			name:      "HTTPS",
			url:       "https://github.com/dshills/dupecheck.git",
			wantOwner: "dshills",
			wantRepo:  "dupecheck",
		},
		{
			name:      "HTTPS no .git",
			url:       "https://github.com/dshills/dupecheck",
			wantOwner: "dshills",
			wantRepo:  "dupecheck",
		},
		{
			name:      "SSH",
			url:       "git@github.com:dshills/dupecheck.git",
			wantOwner: "dshills",
			wantRepo:  "dupecheck",
		},
		{
			name:      "SSH no .git",
			url:       "git@github.com:dshills/dupecheck",
			wantOwner: "dshills",
			wantRepo:  "dupecheck",
		},
		{
			name:    "invalid",
			url:     "not-a-url",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ParseRemoteURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if owner != tt.wantOwner {
				t.Errorf("owner = %q, want %q", owner, tt.wantOwner)
			}
			if repo != tt.wantRepo {
				t.Errorf("repo = %q, want %q", repo, tt.wantRepo)
			}
		})
	}
}
