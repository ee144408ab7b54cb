// Package detect finds likely duplicates of an issue by asking an LLM to
// judge batches of existing issues.
//
// Candidates are split into fixed-size batches with [Chunk]. Each batch is
// rendered into a prompt ([BuildBatchPrompt]) and sent to a
// providers.Client. The raw reply must be a JSON array of
// {issue, likelihood, reason} objects; [Verify] accepts or rejects the
// whole array. [Pipeline.Run] isolates failures per batch: a batch with no
// reply, unparseable JSON, or an invalid array contributes nothing and the
// run continues. Matches are concatenated in batch order without
// deduplication.
package detect
