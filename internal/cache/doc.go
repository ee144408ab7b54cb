// Package cache provides a LevelDB-backed cache for inference responses.
//
// Entries are keyed by a SHA-256 hash of the provider name, model, endpoint,
// system prompt, and user prompt. Each entry stores the raw response text
// with its creation time; entries older than the TTL are treated as misses
// and removed on read.
//
// The default cache directory is $XDG_CACHE_HOME/dupecheck (or the
// OS-appropriate equivalent). LevelDB holds an exclusive lock on the
// directory, so only one process can use a cache at a time.
package cache
