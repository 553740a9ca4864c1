package llm

import (
	"context"
	"fmt"
)

// Completer produces one structured JSON completion per call. The pipeline
// depends on this seam, not on a concrete provider, so tests run with a fake.
type Completer interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// ConfigError reports a missing or unusable credential.
type ConfigError struct{ Msg string }

func (e *ConfigError) Error() string { return "llm config: " + e.Msg }

// APIError reports a failed call to the generative service.
type APIError struct{ Err error }

func (e *APIError) Error() string { return fmt.Sprintf("llm api: %v", e.Err) }
func (e *APIError) Unwrap() error { return e.Err }

// TimeoutError reports a call cut off by its deadline.
type TimeoutError struct{ Err error }

func (e *TimeoutError) Error() string { return fmt.Sprintf("llm timeout: %v", e.Err) }
func (e *TimeoutError) Unwrap() error { return e.Err }

// ResponseError reports a reply that could not be used: empty, non-JSON, or
// failing the expected schema.
type ResponseError struct{ Msg string }

func (e *ResponseError) Error() string { return "llm response: " + e.Msg }
