package detect

import "errors"

var (
	// ErrInvalidArgument reports malformed configuration or arguments.
	// It aborts a run before any inference call is made.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmptyBatch is returned when a prompt is requested for a batch with
	// no candidates. Chunk never produces one.
	ErrEmptyBatch = errors.New("empty batch")

	// ErrUpstreamUnavailable marks a batch whose inference call produced no text.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrMalformedOutput marks a batch whose text was not JSON or failed validation.
	ErrMalformedOutput = errors.New("malformed model output")

	// ErrPublish marks a failed comment or label update.
	ErrPublish = errors.New("publish failed")
)
