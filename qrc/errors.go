package qrc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ytget/qrcdl/errs"
)

// Error codes
const (
	ErrCodeInvalidHex    = "INVALID_HEX"
	ErrCodeDecompression = "DECOMPRESSION_FAILED"
	ErrCodeUTF8          = "UTF8_DECODE_FAILED"
	ErrCodeKeySize       = "INVALID_KEY_SIZE"
)

// Error represents a structured decode error with code and details.
// Unwrap exposes both the matching errs sentinel and the underlying cause.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Details != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Details)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap supports errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.Err }

// MarshalJSON implements json.Marshaler
func (e *Error) MarshalJSON() ([]byte, error) {
	type Alias Error
	return json.Marshal(&struct {
		*Alias
		Error string `json:"error"`
	}{
		Alias: (*Alias)(e),
		Error: e.Error(),
	})
}

// NewError creates a new Error with the given code and message
func NewError(code string, message string, details ...any) *Error {
	e := &Error{
		Code:    code,
		Message: message,
		Err:     sentinelFor(code),
	}
	if len(details) > 0 {
		e.Details = details[0]
	}
	return e
}

func wrapError(code, message string, cause error) *Error {
	e := NewError(code, message)
	if cause != nil {
		e.Err = fmt.Errorf("%w: %w", e.Err, cause)
	}
	return e
}

func sentinelFor(code string) error {
	switch code {
	case ErrCodeInvalidHex:
		return errs.ErrInvalidHex
	case ErrCodeDecompression:
		return errs.ErrDecompression
	case ErrCodeUTF8:
		return errs.ErrUTF8Decode
	default:
		return errs.ErrInvalidInput
	}
}

func hasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// IsInvalidHex reports whether err is a payload hex error.
func IsInvalidHex(err error) bool { return hasCode(err, ErrCodeInvalidHex) }

// IsDecompression reports whether err is a zlib inflate error.
func IsDecompression(err error) bool { return hasCode(err, ErrCodeDecompression) }

// IsUTF8 reports whether err is a text decoding error.
func IsUTF8(err error) bool { return hasCode(err, ErrCodeUTF8) }
