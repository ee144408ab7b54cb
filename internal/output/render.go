package output

import (
	"strings"

	"github.com/dshills/dupecheck/internal/detect"
)

// NoMatches is the whole report when nothing was found.
const NoMatches = "No similar issues found."

const (
	reportHeading     = "### Possible duplicate issues"
	reportExplanation = "The following existing issues may describe the same problem. Please check them before continuing."
	notAvailable      = "N/A"
)

// Fields selects the optional lines of a rendered match.
type Fields struct {
	State bool
}

var (
	// FullFields is used for standalone reports and the step summary.
	FullFields = Fields{State: true}
	// CommentFields is used for the comment posted on the target issue.
	CommentFields = Fields{State: false}
)

// Render turns validated matches into a markdown report. Title and state are
// looked up by issue number in candidates; a match with no candidate renders
// N/A instead of failing. Matches are rendered in the order given.
func Render(results []detect.Match, candidates []detect.Candidate, fields Fields) string {
	if len(results) == 0 {
		return NoMatches
	}

	byNumber := make(map[int]detect.Candidate, len(candidates))
	for _, c := range candidates {
		byNumber[c.Number] = c
	}

	var b strings.Builder
	b.WriteString(reportHeading)
	b.WriteString("\n")
	b.WriteString(reportExplanation)
	b.WriteString("\n\n")

	for _, m := range results {
		var c detect.Candidate
		n, found := m.IssueNumber()
		if found {
			c, found = byNumber[n]
		}

		b.WriteString("**Issue** #" + m.Issue.String() + ": **" + string(m.Likelihood) + "**\n")
		b.WriteString("**Title:** " + orNA(c.Title, found) + "\n")
		if fields.State {
			b.WriteString("**State:** " + orNA(c.State, found) + "\n")
		}
		b.WriteString("**Reason:** " + orNA(m.Reason, true) + "\n")
		b.WriteString("\n")
	}
	return b.String()
}

func orNA(s string, found bool) string {
	if !found || s == "" {
		return notAvailable
	}
	return s
}
