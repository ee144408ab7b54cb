// Package output formats duplicate-check reports for display or machine
// consumption.
//
// [Render] produces the markdown body shared by every human-facing surface.
// The field set decides whether the state line is included: [FullFields] for
// standalone reports and the job step summary, [CommentFields] for the
// comment posted on the target issue.
//
// Two writer formats are supported:
//   - markdown: the rendered report (default)
//   - json: the full structured report with per-batch outcomes
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// [Writer.Write] with an [io.Writer] and a [*Report]. [WriteReport] handles
// destination selection.
package output
