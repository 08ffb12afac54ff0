// Package apperr defines the structured error shared by the API client and the
// reference backend: a canonical code, a human message, the HTTP status and,
// for failures decoded from a response, the business code and raw body.
package apperr

import (
	"errors"
	"fmt"
)

// Suggestion is a per-field suggestion to fix a validation error.
type Suggestion struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is the rejection value of every failed client operation and the
// canonical error shape returned by backend handlers.
type AppError struct {
	Code        string       `json:"code"`
	Message     string       `json:"message"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
	HTTPStatus  int          `json:"-"`
	// BusinessCode is the envelope code when the failure came from an envelope.
	BusinessCode int `json:"-"`
	// Body is the raw response body, when one was received.
	Body  []byte `json:"-"`
	cause error
	ec    *ErrorCode
}

// New creates a new AppError from an ErrorCode.
func New(ec *ErrorCode) *AppError {
	if ec == nil {
		ec = ErrorCodeInternal
	}
	return &AppError{
		Code:         ec.Code(),
		Message:      ec.Message(),
		HTTPStatus:   ec.HTTPStatus(),
		BusinessCode: ec.Value(),
		ec:           ec,
	}
}

// Newf creates AppError with formatted message.
func Newf(ec *ErrorCode, format string, args ...any) *AppError {
	a := New(ec)
	a.Message = fmt.Sprintf(format, args...)
	return a
}

// FromError returns err as an AppError, wrapping unknown errors as internal.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	a := New(ErrorCodeInternal)
	a.cause = err
	return a
}

// AddSuggestion appends a field suggestion (fluent)
func (a *AppError) AddSuggestion(field, message string) *AppError {
	if a == nil {
		a = New(ErrorCodeInternal)
	}
	a.Suggestions = append(a.Suggestions, Suggestion{
		Field:   field,
		Message: message,
	})
	return a
}

func (a *AppError) Error() string {
	if a == nil {
		return "<nil>"
	}
	if a.cause != nil {
		return fmt.Sprintf("%s: %s: %v", a.Code, a.Message, a.cause)
	}
	return fmt.Sprintf("%s: %s", a.Code, a.Message)
}

// ErrorCode returns the code the error was built from.
func (a *AppError) ErrorCode() *ErrorCode {
	if a == nil {
		return nil
	}
	return a.ec
}

// WithStatus sets/overrides the HTTP status and returns the same AppError for chaining.
func (a *AppError) WithStatus(status int) *AppError {
	if a == nil {
		return New(ErrorCodeInternal).WithStatus(status)
	}
	a.HTTPStatus = status
	return a
}

// WithMessage overrides the message and returns the same AppError for chaining.
func (a *AppError) WithMessage(msg string) *AppError {
	if a == nil {
		return New(ErrorCodeInternal).WithMessage(msg)
	}
	a.Message = msg
	return a
}

// WithBody attaches the raw response body and its business code.
func (a *AppError) WithBody(businessCode int, body []byte) *AppError {
	if a == nil {
		a = New(ErrorCodeInternal)
	}
	a.BusinessCode = businessCode
	a.Body = body
	return a
}

// WithCode replaces the underlying ErrorCode (code/message/status) and returns the AppError.
func (a *AppError) WithCode(ec *ErrorCode) *AppError {
	if ec == nil {
		ec = ErrorCodeInternal
	}
	if a == nil {
		return New(ec)
	}
	a.ec = ec
	a.Code = ec.Code()
	a.Message = ec.Message()
	a.HTTPStatus = ec.HTTPStatus()
	a.BusinessCode = ec.Value()
	return a
}

// Wrap sets the underlying cause and returns the same AppError.
func (a *AppError) Wrap(err error) *AppError {
	if a == nil {
		a = New(ErrorCodeInternal)
	}
	a.cause = err
	return a
}

// Unwrap returns the underlying cause, allowing errors.Unwrap/Is/As to work.
func (a *AppError) Unwrap() error { return a.cause }

// Is matches another *AppError built from the same ErrorCode.
func (a *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || a == nil || t == nil {
		return false
	}
	return a.Code == t.Code
}

// Is reports whether err carries an AppError with the given code.
func Is(err error, ec *ErrorCode) bool {
	if err == nil || ec == nil {
		return false
	}
	var ae *AppError
	if !errors.As(err, &ae) {
		return false
	}
	return ae.Code == ec.Code()
}

// HasErrors returns true if the AppError has a code, message, or suggestions
func (a *AppError) HasErrors() bool {
	if a == nil {
		return false
	}
	return a.Code != "" || a.Message != "" || len(a.Suggestions) > 0
}
