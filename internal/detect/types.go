package detect

import (
	"encoding/json"
	"strings"
	"time"
)

// Likelihood is the model's categorical confidence that a candidate
// duplicates the target. Values keep the case the model used.
type Likelihood string

const (
	LikelihoodLow    Likelihood = "low"
	LikelihoodMedium Likelihood = "medium"
	LikelihoodHigh   Likelihood = "high"
)

// Canonical returns the lower-cased likelihood.
func (l Likelihood) Canonical() Likelihood {
	return Likelihood(strings.ToLower(string(l)))
}

// Valid reports whether l names one of high, medium, or low, ignoring case.
func (l Likelihood) Valid() bool {
	switch l.Canonical() {
	case LikelihoodHigh, LikelihoodMedium, LikelihoodLow:
		return true
	default:
		return false
	}
}

// LikelihoodRank returns a numeric rank for sorting (higher = more likely).
func LikelihoodRank(l Likelihood) int {
	switch l.Canonical() {
	case LikelihoodHigh:
		return 3
	case LikelihoodMedium:
		return 2
	case LikelihoodLow:
		return 1
	default:
		return 0
	}
}

// MeetsThreshold returns true if l is at or above the threshold.
// A threshold of "none" or "" never matches.
func MeetsThreshold(l Likelihood, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	return LikelihoodRank(l) >= LikelihoodRank(Likelihood(threshold))
}

// Candidate is an existing issue eligible for comparison.
type Candidate struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Target is the issue being checked for duplicates.
type Target struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Match is one validated judgment returned by the model.
//
// Issue holds the number exactly as the model wrote it; it is not checked
// against the candidate list.
type Match struct {
	Issue      json.Number `json:"issue"`
	Likelihood Likelihood  `json:"likelihood"`
	Reason     string      `json:"reason,omitempty"`
}

// IssueNumber returns Issue as an int when it is integral.
func (m Match) IssueNumber() (int, bool) {
	n, err := m.Issue.Int64()
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// HighestLikelihood returns the strongest likelihood among matches, or ""
// when there are none.
func HighestLikelihood(matches []Match) Likelihood {
	var best Likelihood
	for _, m := range matches {
		if LikelihoodRank(m.Likelihood) > LikelihoodRank(best) {
			best = m.Likelihood.Canonical()
		}
	}
	return best
}
