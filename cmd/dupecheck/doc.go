// Dupecheck finds likely duplicates of a GitHub issue using LLM providers.
//
// It compares the issue against the repository's existing issues in
// batches, prints a report, and optionally comments on and labels the issue,
// with deterministic exit codes suitable for CI gating in issue workflows.
//
// Usage:
//
//	dupecheck check 123                        # check issue #123 in the current repo
//	dupecheck check 123 --state open --dry-run # compare against open issues only, post nothing
//	dupecheck check 123 --labels duplicate     # label the issue when matches are found
//	dupecheck config init                      # write a default config file
//	dupecheck models doctor                    # verify provider credentials
package main
