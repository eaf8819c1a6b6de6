// Package generr defines the error taxonomy and diagnostic sink shared by the
// synthesis pipeline.
package generr

import (
	"errors"
	"fmt"
)

// Code categorizes generator errors and diagnostics.
type Code string

const (
	// ConfigurationError aborts the whole run: a required plugin has not run.
	ConfigurationError Code = "ConfigurationError"
	// NamingError aborts the whole run: two declarations want the same exported name.
	NamingError Code = "NamingError"
	// ResolutionError fails the enclosing module: a reference could not be resolved.
	ResolutionError Code = "ResolutionError"
	// UnsupportedRequestBody is a non-fatal diagnostic.
	UnsupportedRequestBody Code = "UnsupportedRequestBody"
	// ShadowedParameter is a non-fatal diagnostic: a later parameter or body
	// property reuses the wire name of an earlier one and is dropped.
	ShadowedParameter Code = "ShadowedParameter"
)

// Sentinels usable with errors.Is.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrNaming        = errors.New("naming error")
	ErrResolution    = errors.New("resolution error")
)

// Error is a structured generator error.
type Error struct {
	Code    Code
	Message string
	Pointer string // JSON pointer into the source document, when known
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Pointer != "" {
		msg = fmt.Sprintf("%s (at %s)", msg, e.Pointer)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is the sentinel matching e.Code.
func (e *Error) Is(target error) bool {
	switch e.Code {
	case ConfigurationError:
		return target == ErrConfiguration
	case NamingError:
		return target == ErrNaming
	case ResolutionError:
		return target == ErrResolution
	}
	return false
}

// Configuration returns a ConfigurationError.
func Configuration(format string, args ...any) *Error {
	return &Error{Code: ConfigurationError, Message: fmt.Sprintf(format, args...)}
}

// Naming returns a NamingError.
func Naming(format string, args ...any) *Error {
	return &Error{Code: NamingError, Message: fmt.Sprintf(format, args...)}
}

// Resolution returns a ResolutionError located at pointer.
func Resolution(pointer string, cause error, format string, args ...any) *Error {
	return &Error{Code: ResolutionError, Message: fmt.Sprintf(format, args...), Pointer: pointer, Cause: cause}
}

// IsFatal reports whether err aborts the whole run rather than a single module.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrNaming)
}
