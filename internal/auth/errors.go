package auth

import (
	"errors"
	"fmt"
)

// ErrorCode classifies token issuance and verification failures.
type ErrorCode string

const (
	CodeSigningError     ErrorCode = "SIGNING_ERROR"
	CodeSignatureInvalid ErrorCode = "SIGNATURE_INVALID"
	CodeTokenExpired     ErrorCode = "TOKEN_EXPIRED"
	CodeSubjectMismatch  ErrorCode = "SUBJECT_MISMATCH"
	CodeMalformedToken   ErrorCode = "MALFORMED_TOKEN"
	CodeIssuerMismatch   ErrorCode = "ISSUER_MISMATCH"
)

var errorMessages = map[ErrorCode]string{
	CodeSigningError:     "token signing failed",
	CodeSignatureInvalid: "token signature invalid",
	CodeTokenExpired:     "token expired",
	CodeSubjectMismatch:  "token subject mismatch",
	CodeMalformedToken:   "token malformed",
	CodeIssuerMismatch:   "token issuer mismatch",
}

// Sentinels for errors.Is. Any *Error with the same code matches.
var (
	ErrSigning          = &Error{Code: CodeSigningError, Message: errorMessages[CodeSigningError]}
	ErrSignatureInvalid = &Error{Code: CodeSignatureInvalid, Message: errorMessages[CodeSignatureInvalid]}
	ErrTokenExpired     = &Error{Code: CodeTokenExpired, Message: errorMessages[CodeTokenExpired]}
	ErrSubjectMismatch  = &Error{Code: CodeSubjectMismatch, Message: errorMessages[CodeSubjectMismatch]}
	ErrMalformedToken   = &Error{Code: CodeMalformedToken, Message: errorMessages[CodeMalformedToken]}
	ErrIssuerMismatch   = &Error{Code: CodeIssuerMismatch, Message: errorMessages[CodeIssuerMismatch]}
)

// Error wraps a token failure with a stable code.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	base := e.Message
	if base == "" {
		base = string(e.Code)
	}
	if e.Err == nil {
		return base
	}
	return fmt.Sprintf("%s: %v", base, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a token error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newError(code ErrorCode, err error) error {
	msg, ok := errorMessages[code]
	if !ok {
		msg = string(code)
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf extracts the token error code from err, or "" if err is not a token error.
func CodeOf(err error) ErrorCode {
	var tokenErr *Error
	if errors.As(err, &tokenErr) {
		return tokenErr.Code
	}
	return ""
}
