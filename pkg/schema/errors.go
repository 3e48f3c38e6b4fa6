package schema

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrEmptyModel is returned by Snapshot before any document was ingested.
	ErrEmptyModel = errors.New("schema: no documents ingested")

	// ErrNotADocument marks a root value that is not a key/value mapping.
	ErrNotADocument = errors.New("not a document")
)

// DecodeReason describes why a value could not be ingested.
type DecodeReason string

// Decode reasons.
const (
	ReasonNotADocument     DecodeReason = "not_a_document"
	ReasonMalformed        DecodeReason = "malformed"
	ReasonUnsupportedValue DecodeReason = "unsupported_value"
	ReasonTooDeep          DecodeReason = "too_deep"
)

// DecodeError reports an input that cannot be turned into a document.
// Decoders in pkg/decode return it too, so callers handle a single error family.
type DecodeError struct {
	Reason DecodeReason
	Path   string // Field path of the offending value, empty for the root
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "schema: decode error (" + string(e.Reason) + ")"
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError builds a DecodeError. ReasonNotADocument without a cause
// wraps ErrNotADocument.
func NewDecodeError(reason DecodeReason, path string, err error) *DecodeError {
	if err == nil && reason == ReasonNotADocument {
		err = ErrNotADocument
	}
	return &DecodeError{Reason: reason, Path: path, Err: err}
}

// IsDecodeError reports whether err is, or wraps, a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
