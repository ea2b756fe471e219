package pipeline

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/dvloznov/finance-ingest/internal/extraction"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindFetch           Kind = "fetch"
	KindConfiguration   Kind = "configuration"
	KindExtraction      Kind = "extraction"
	KindMaterialization Kind = "materialization"
	KindStatusWrite     Kind = "status_write"
)

// maxErrorMessage caps the error_message stored on a failed RawFile.
const maxErrorMessage = 2000

// Error is a classified stage failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsStatusWrite reports whether err is a failed RawFile status write.
func IsStatusWrite(err error) bool {
	return KindOf(err) == KindStatusWrite
}

// classifyExtraction maps an extraction client error to a pipeline kind.
func classifyExtraction(err error) Kind {
	if errors.Is(err, extraction.ErrMissingCredential) {
		return KindConfiguration
	}
	return KindExtraction
}

// failureMessage is the human-readable text stored on the RawFile.
func failureMessage(err error) string {
	msg := err.Error()
	var pe *Error
	if errors.As(err, &pe) && pe.Err != nil {
		msg = pe.Err.Error()
	}
	if utf8.RuneCountInString(msg) > maxErrorMessage {
		msg = extraction.Truncate(msg, maxErrorMessage)
	}
	return msg
}
