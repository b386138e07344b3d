// Package errors defines the structured error type used across swarmstat.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// ErrorCode identifies a class of failure.
type ErrorCode string

const (
	// Configuration
	ErrCodeConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Session data
	ErrCodeSessionNotFound  ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeProjectNotFound  ErrorCode = "PROJECT_NOT_FOUND"
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeRecordMalformed  ErrorCode = "RECORD_MALFORMED"

	// Planning artifacts
	ErrCodeArtifactsNotFound ErrorCode = "ARTIFACTS_NOT_FOUND"
	ErrCodeForbiddenPath     ErrorCode = "FORBIDDEN_PATH"

	// General
	ErrCodeInternal     ErrorCode = "INTERNAL"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// SwarmError is an error carrying a code and structured details.
type SwarmError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

func (e *SwarmError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SwarmError) Unwrap() error {
	return e.Cause
}

// WithDetail attaches a key/value pair and returns the same error for chaining.
func (e *SwarmError) WithDetail(key string, value interface{}) *SwarmError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON renders the error, including the cause message, as indented JSON.
func (e *SwarmError) ToJSON() string {
	out := struct {
		*SwarmError
		Cause string `json:"cause,omitempty"`
	}{SwarmError: e}
	if e.Cause != nil {
		out.Cause = e.Cause.Error()
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return string(data)
}

func New(code ErrorCode, message string) *SwarmError {
	return &SwarmError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code ErrorCode, message string) *SwarmError {
	return &SwarmError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is reports whether any SwarmError in err's chain has the given code.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		var se *SwarmError
		if !stderrors.As(err, &se) {
			return false
		}
		if se.Code == code {
			return true
		}
		err = se.Cause
	}
	return false
}

// GetCode returns the code of the outermost SwarmError in err's chain.
func GetCode(err error) ErrorCode {
	var se *SwarmError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}
