package translate

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTranslation indicates a response that carried no translated text.
	ErrNoTranslation = errors.New("response has no translated text")

	// ErrEmptyText indicates an attempt to translate an empty sentence.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrNoLanguage indicates a missing target language.
	ErrNoLanguage = errors.New("target language cannot be empty")
)

// ErrorCode identifies the kind of translation failure.
type ErrorCode string

const (
	ErrorCodeNetwork     ErrorCode = "NETWORK"
	ErrorCodeDecode      ErrorCode = "DECODE"
	ErrorCodeUnavailable ErrorCode = "UNAVAILABLE"
	ErrorCodeProvider    ErrorCode = "PROVIDER"
)

// Error is a translation failure with the request it belongs to.
type Error struct {
	Code       ErrorCode
	Message    string
	RequestID  string
	StatusCode int
	Cause      error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}
