package output

import (
	"fmt"
	"os"
	"strings"
)

// StepSummaryEnv names the file a CI job appends its summary to.
const StepSummaryEnv = "GITHUB_STEP_SUMMARY"

// AppendStepSummary appends text to the file at path, creating it when
// needed. An empty path is a no-op.
func AppendStepSummary(path, text string) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening step summary: %w", err)
	}
	defer f.Close()

	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if _, err := f.WriteString(text); err != nil {
		return fmt.Errorf("writing step summary: %w", err)
	}
	return nil
}
