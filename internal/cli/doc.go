// Package cli wires together the Cobra command tree for the dupecheck binary.
//
// It defines the root command and all subcommands (check, config, models,
// cache, version), binds flags, reads configuration, runs the duplicate
// detector, and returns deterministic exit codes for CI gating.
package cli
