package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNodeNotFound = errors.New("node not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrTemporary    = errors.New("temporary failure")

	// ErrSemanticUnavailable marks the semantic source as unreachable for
	// this call: vector index missing, embedder down, or backend error. The
	// orchestrator degrades to exact/fuzzy results instead of failing.
	ErrSemanticUnavailable = errors.New("semantic search unavailable")
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
