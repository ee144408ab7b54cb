// Package github provides a minimal GitHub REST API client for reading
// issues and publishing duplicate-check results on them.
//
// It detects the current repository from GITHUB_REPOSITORY or the local git
// remote and authenticates with the GITHUB_TOKEN environment variable.
package github
