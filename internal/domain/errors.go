package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced project, module, node, note or
	// version does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates the backing store rejected a write.
	ErrValidation = errors.New("validation rejected")

	// ErrTransport indicates the backing store was unreachable or timed out.
	ErrTransport = errors.New("transport failure")
)

// NotFoundError wraps ErrNotFound with the entity kind and id.
func NotFoundError(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// ValidationError wraps ErrValidation with a formatted reason.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
