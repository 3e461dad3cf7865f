package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrTemporary    = errors.New("temporary failure")

	// ErrInvalidEditedAnswer is also ErrInvalidInput.
	ErrInvalidEditedAnswer = fmt.Errorf("%w: edited answer", ErrInvalidInput)
)

// Backend failure kinds produced by the embedding and chat clients.
// Callers switch on these with errors.Is instead of inspecting messages.
var (
	ErrEmbeddingUnavailable  = errors.New("embedding backend unavailable")
	ErrEmbeddingModelMissing = errors.New("embedding model missing")
	ErrEmbeddingTimeout      = errors.New("embedding request timed out")

	ErrChatUnavailable  = errors.New("chat backend unavailable")
	ErrChatModelMissing = errors.New("chat model missing")
	ErrChatTimeout      = errors.New("chat request timed out")
	ErrChatFailed       = errors.New("chat request failed")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// IsEmbeddingError reports whether err carries any embedding backend kind.
func IsEmbeddingError(err error) bool {
	return errors.Is(err, ErrEmbeddingUnavailable) ||
		errors.Is(err, ErrEmbeddingModelMissing) ||
		errors.Is(err, ErrEmbeddingTimeout)
}
