package detect

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxMatchesPerBatch is the most matches the model is asked to return for
// one batch. Verify does not enforce it.
const MaxMatchesPerBatch = 15

const candidateSeparator = "\n---\n"

var instructions = `You compare a target issue against a batch of existing issues and report which existing issues are likely duplicates of the target.

Rules:
1. Respond with exactly one JSON array and nothing else. No prose, no explanation, no markdown code fences.
2. Each array element must be an object with this structure:
   {"issue": <integer issue number>, "likelihood": "high|medium|low", "reason": "<optional short explanation>"}
3. "issue" must be the number of an existing issue from the batch below.
4. "likelihood" must be one of "high", "medium", or "low".
5. Return at most ` + strconv.Itoa(MaxMatchesPerBatch) + ` elements.
6. Omit existing issues that are not similar to the target. Do not include them with "low".
7. If no existing issue is sufficiently similar, respond with an empty array: []`

// Instructions returns the instruction block placed at the top of every
// batch prompt. It is the same for every batch in a run.
func Instructions() string {
	return instructions
}

// BuildTargetSummary renders the target issue. Title and body are included
// verbatim.
func BuildTargetSummary(number int, title, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Target issue #%d\n", number)
	fmt.Fprintf(&b, "Title: %s\n", title)
	b.WriteString("Body:\n")
	b.WriteString(body)
	return b.String()
}

// BuildBatchPrompt renders the full prompt for one batch. batchIndex is
// 1-based. It fails with ErrEmptyBatch when batch has no candidates.
func BuildBatchPrompt(targetSummary string, batchIndex int, batch []Candidate) (string, error) {
	if len(batch) == 0 {
		return "", fmt.Errorf("%w: batch %d", ErrEmptyBatch, batchIndex)
	}

	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\n")
	b.WriteString(targetSummary)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Existing issues (batch %d):\n", batchIndex)

	for i, c := range batch {
		if i > 0 {
			b.WriteString(candidateSeparator)
		}
		fmt.Fprintf(&b, "#%d %s\n", c.Number, c.Title)
		b.WriteString(c.Body)
	}
	b.WriteString("\n")

	return b.String(), nil
}
