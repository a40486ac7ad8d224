// Package errors provides structured error types for the proposal agent.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrProviderNotInitialized = errors.New("provider not initialized")
	ErrTimeout                = errors.New("operation timed out")
	ErrRateLimit              = errors.New("rate limit exceeded")
	ErrNotFound               = errors.New("resource not found")
	ErrParseFailure           = errors.New("response parse failed")
	ErrUnavailable            = errors.New("service unavailable")
)

// APIError represents an error from an external API call.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s API error (status %d): %s: %v", e.Service, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// NewAPIError creates a new API error.
func NewAPIError(service string, statusCode int, message string) *APIError {
	return &APIError{Service: service, StatusCode: statusCode, Message: message}
}

// StageSkipError is returned when a workflow transition would jump more than
// one stage ahead. It always carries the current stage so the caller can
// self-correct without another lookup.
type StageSkipError struct {
	Current int
	Target  int
}

func (e *StageSkipError) Error() string {
	return fmt.Sprintf("cannot skip from stage %d to stage %d: complete stage %d first", e.Current, e.Target, e.Current)
}

// Remediation returns the human-readable fix for the rejected transition.
func (e *StageSkipError) Remediation() string {
	return fmt.Sprintf("complete stage %d first", e.Current)
}

// GenerationError wraps a provider or parse failure together with the
// diagnostic text shown to the end user.
type GenerationError struct {
	Operation  string
	Diagnostic string
	Err        error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %s", e.Operation, e.Diagnostic)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsRetryable returns true if the error is likely transient and worth retrying.
// Provider calls are never retried by this service; this feeds the research
// collaborator client only.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimit) || errors.Is(err, ErrUnavailable)
}
