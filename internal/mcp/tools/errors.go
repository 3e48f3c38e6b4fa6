package tools

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/usestring/docschema/pkg/schema"
)

// Error codes for MCP tool responses.
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeDecodeError  = "DECODE_ERROR"
	ErrCodeEmptyModel   = "EMPTY_MODEL"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapSchemaError converts errors from decoding and the schema engine to a
// coded error. Errors that are already coded pass through.
func WrapSchemaError(err error) error {
	if err == nil {
		return nil
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return err
	}

	var decodeErr *schema.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		msg := string(decodeErr.Reason)
		if decodeErr.Path != "" {
			msg += " at " + decodeErr.Path
		}
		coded = &CodedError{Code: ErrCodeDecodeError, Message: msg, Cause: err}
	case errors.Is(err, schema.ErrEmptyModel):
		coded = &CodedError{Code: ErrCodeEmptyModel, Message: "no documents ingested", Cause: err}
	default:
		coded = &CodedError{Code: ErrCodeInvalidInput, Message: err.Error(), Cause: err}
	}

	slog.Debug("tool error",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
	)
	return coded
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}
