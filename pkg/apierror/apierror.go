package apierror

import (
	"errors"
	"fmt"
)

const (
	CodeMissingCredential = "MISSING_CREDENTIAL"
	CodeSessionExpired    = "SESSION_EXPIRED"
	CodeRequestFailed     = "REQUEST_FAILED"
	CodeUnreachable       = "UNREACHABLE"
)

// Sentinels for errors.Is. Any *APIError with the same Code matches.
var (
	ErrMissingCredential = &APIError{Code: CodeMissingCredential}
	ErrSessionExpired    = &APIError{Code: CodeSessionExpired}
	ErrRequestFailed     = &APIError{Code: CodeRequestFailed}
	ErrUnreachable       = &APIError{Code: CodeUnreachable}
)

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

// MessageOf returns the human-readable message carried by err, or fallback
// when err is not an *APIError or has an empty message.
func MessageOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
