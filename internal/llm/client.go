// Package llm provides the narrow client interface to the external
// decision-making service, plus parsing of its structured output.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Request carries one instruction to the decision-making service.
type Request struct {
	// System is the role/system instruction, may be empty.
	System string
	// Prompt is the free-form instruction text plus interpolated context.
	Prompt string
	// Model overrides the client's default model when non-empty.
	Model string
	// Temperature of 0 means use the service default.
	Temperature float32
}

// Response is the raw service output. Structured payloads are extracted
// from Text by the caller via Decode.
type Response struct {
	Text       string
	TokensUsed int
}

// Client is the single call surface every higher component goes through.
type Client interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
}

// CallError classifies a failed invocation. Transient failures (timeouts,
// service errors, malformed output) are eligible for retry; permanent ones
// (bad credentials, invalid request) are not.
type CallError struct {
	Op        string
	Transient bool
	Err       error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a retryable call failure.
func Transient(op string, err error) error {
	return &CallError{Op: op, Transient: true, Err: err}
}

// Permanent wraps err as a non-retryable call failure.
func Permanent(op string, err error) error {
	return &CallError{Op: op, Transient: false, Err: err}
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Transient
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}
