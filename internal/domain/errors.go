package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a pipeline failure. Fallback and retry decisions key
// off the code, never off message text.
type ErrorCode string

const (
	CodeInvalidInput      ErrorCode = "invalid_input"
	CodeMissingCredential ErrorCode = "missing_credential"
	CodeGeneration        ErrorCode = "generation_failed"
	CodePermissionDenied  ErrorCode = "permission_denied"
	CodeEmptyResponse     ErrorCode = "empty_response"
	CodeComposite         ErrorCode = "composite_failed"
	CodeUpload            ErrorCode = "upload_failed"
	CodeUnknown           ErrorCode = "unknown"
)

// Error is the classified failure type surfaced by every pipeline stage.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf constructs a classified error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a classification to an underlying error.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the classification from err, or CodeUnknown for errors that
// did not originate in the pipeline.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}
