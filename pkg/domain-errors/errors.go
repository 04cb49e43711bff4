// Package domainerrors provides code-based errors for the catalog domain.
//
// Services return these so transport layers can map them to HTTP statuses
// without inspecting error strings. Validation errors additionally carry a
// field-keyed violation list with a stable code taxonomy (required/invalid)
// that the REST layer serializes as-is.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeUnauthorized       Code = "unauthorized"
	CodeInternal           Code = "internal"
)

// Violation codes for field-level validation failures. These form the
// stable wire taxonomy: a missing required value is "required", anything
// present but unacceptable is "invalid".
const (
	ViolationRequired = "required"
	ViolationInvalid  = "invalid"
)

// FieldViolation pinpoints one invalid field in a payload.
type FieldViolation struct {
	Field  string `json:"field"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Error is the domain error type. Fields is non-empty only for
// CodeValidation errors.
type Error struct {
	Code    Code
	Message string
	Fields  []FieldViolation
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap annotates an underlying error with a domain code and message.
// The cause stays reachable through errors.Is/As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// NewValidation creates a field-keyed validation error.
func NewValidation(fields ...FieldViolation) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: "validation failed",
		Fields:  fields,
	}
}

// Required builds a FieldViolation for a missing value.
func Required(field, reason string) FieldViolation {
	return FieldViolation{Field: field, Code: ViolationRequired, Reason: reason}
}

// Invalid builds a FieldViolation for an unacceptable value.
func Invalid(field, reason string) FieldViolation {
	return FieldViolation{Field: field, Code: ViolationInvalid, Reason: reason}
}

// HasCode reports whether err (or anything it wraps) is a domain error
// with the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for e := err; e != nil; {
		if errors.As(e, &de) {
			if de.Code == code {
				return true
			}
			e = de.Unwrap()
			continue
		}
		return false
	}
	return false
}

// Is is shorthand for HasCode, matching the call sites that read better
// as a predicate.
func Is(err error, code Code) bool { return HasCode(err, code) }

// Violations extracts the field violations from err, or nil if err is not
// a validation error.
func Violations(err error) []FieldViolation {
	var de *Error
	if errors.As(err, &de) && de.Code == CodeValidation {
		return de.Fields
	}
	return nil
}
