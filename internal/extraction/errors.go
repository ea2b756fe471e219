package extraction

import (
	"errors"
	"fmt"
)

// ErrMissingCredential reports that the user has no extraction API key.
// It is a configuration problem, not an extraction failure.
var ErrMissingCredential = errors.New("Gemini API key not found for user")

// Error is a failed extraction: the model call failed, timed out, or
// returned data that does not satisfy the schema.
type Error struct {
	Kind SourceKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extraction (%s): %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
