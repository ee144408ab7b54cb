// Package config loads and merges dupecheck configuration from multiple
// sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (DUPECHECK_PROVIDER, DUPECHECK_MODEL, DUPECHECK_BATCH_SIZE, etc.)
//  3. Config file ($XDG_CONFIG_HOME/dupecheck/config.yaml)
//  4. A .env file in the working directory, for variables not already set
//  5. Built-in defaults
//
// Use [Load] to obtain a merged [Config] and [Validate] to check it before
// any network call. [Save] and [SetField] back the config subcommands.
// Credentials are read from the environment by the packages that use them
// and are never stored here.
package config
