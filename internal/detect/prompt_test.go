package detect

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTargetSummary(t *testing.T) {
	got := BuildTargetSummary(42, "Crash on start", "Stack trace:\n  at main()")
	want := "Target issue #42\nTitle: Crash on start\nBody:\nStack trace:\n  at main()"
	assert.Equal(t, want, got)
}

func TestBuildTargetSummary_Verbatim(t *testing.T) {
	got := BuildTargetSummary(1, "<b>\"quoted\"</b>", "```json\n{}\n```")
	assert.Contains(t, got, "Title: <b>\"quoted\"</b>\n")
	assert.True(t, strings.HasSuffix(got, "```json\n{}\n```"))
}

func TestBuildBatchPrompt_EmptyBatch(t *testing.T) {
	_, err := BuildBatchPrompt("summary", 1, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyBatch))
}

func TestBuildBatchPrompt_Layout(t *testing.T) {
	summary := BuildTargetSummary(9, "Target title", "Target body")
	batch := []Candidate{
		{Number: 3, Title: "First", Body: "first body"},
		{Number: 5, Title: "Second", Body: ""},
	}

	got, err := BuildBatchPrompt(summary, 2, batch)
	require.NoError(t, err)

	want := Instructions() + "\n\n" +
		summary + "\n\n" +
		"Existing issues (batch 2):\n" +
		"#3 First\nfirst body" +
		"\n---\n" +
		"#5 Second\n" +
		"\n"
	assert.Equal(t, want, got)
}

func TestBuildBatchPrompt_ContainsEveryCandidate(t *testing.T) {
	summary := BuildTargetSummary(1, "T", "B")
	batch := []Candidate{
		{Number: 10, Title: "Alpha"},
		{Number: 11, Title: "Beta"},
		{Number: 12, Title: "Gamma"},
	}
	got, err := BuildBatchPrompt(summary, 1, batch)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, Instructions()))
	assert.Contains(t, got, summary)
	for _, c := range batch {
		assert.Contains(t, got, "#"+strconv.Itoa(c.Number)+" "+c.Title)
	}
	assert.Equal(t, 2, strings.Count(got, "\n---\n"))
}

func TestBuildBatchPrompt_Deterministic(t *testing.T) {
	batch := []Candidate{{Number: 1, Title: "a", Body: "b"}}
	a, err := BuildBatchPrompt("s", 1, batch)
	require.NoError(t, err)
	b, err := BuildBatchPrompt("s", 1, batch)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestInstructions(t *testing.T) {
	text := Instructions()
	for _, want := range []string{
		"exactly one JSON array",
		"no markdown code fences",
		`"issue"`,
		`"likelihood"`,
		`"reason"`,
		"at most 15",
		"[]",
		"Do not include them",
	} {
		assert.Contains(t, text, want)
	}
}
