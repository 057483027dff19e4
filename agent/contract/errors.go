package contract

import (
	"errors"
	"fmt"
)

var (
	// Infrastructure taxonomy surfaced to callers.
	ErrStoreUnavailable    = errors.New("catalog store unavailable")
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
	ErrInvalidInput        = errors.New("invalid input")
	ErrEmbeddingFailed     = errors.New("embedding generation failed")
	ErrToolOutputMalformed = errors.New("tool output malformed")

	// Model-interaction taxonomy. A failed model invocation is one kind of
	// upstream outage, so ErrModelInvoke matches both sentinels.
	ErrModelInvoke     = fmt.Errorf("%w: model invoke failed", ErrUpstreamUnavailable)
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrValidation      = errors.New("validation failed")
)
