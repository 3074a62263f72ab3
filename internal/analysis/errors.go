package analysis

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"crimelense/pkg/validation"
)

// ErrTimeout is matched by every TimeoutError.
var ErrTimeout = errors.New("analysis timed out")

// ErrClosed is returned by Submit once the machine has been closed,
// for instance because its screen was unmounted.
var ErrClosed = errors.New("analysis machine closed")

// ValidationError lists request fields that failed their rules. It never
// reaches the analysis service.
type ValidationError struct {
	Fields []validation.FieldError
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return "invalid request: " + e.Err.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s (%s)", f.Field, f.Rule))
	}
	return "invalid request: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ServiceFailure wraps an error returned by the analysis service.
type ServiceFailure struct {
	Err error
}

func (e *ServiceFailure) Error() string { return "analysis failed: " + e.Err.Error() }

func (e *ServiceFailure) Unwrap() error { return e.Err }

// TimeoutError reports a request that did not resolve within its bound.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("analysis timed out after %s", e.After)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// ErrorBody is the client-facing description of a Failed state.
type ErrorBody struct {
	Kind      string                  `json:"kind"`
	Message   string                  `json:"message"`
	Fields    []validation.FieldError `json:"fields,omitempty"`
	Retryable bool                    `json:"retryable"`
}

// Describe classifies err for display. Service failures and timeouts are
// retryable by submitting again; validation errors need edited input.
func Describe(err error) *ErrorBody {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	var sf *ServiceFailure
	switch {
	case errors.As(err, &ve):
		return &ErrorBody{Kind: "validation", Message: err.Error(), Fields: ve.Fields}
	case errors.Is(err, ErrTimeout):
		return &ErrorBody{Kind: "timeout", Message: err.Error(), Retryable: true}
	case errors.As(err, &sf):
		return &ErrorBody{Kind: "service", Message: err.Error(), Retryable: true}
	}
	return &ErrorBody{Kind: "unknown", Message: err.Error(), Retryable: true}
}

// ValidateStruct checks params against their `validate` struct tags.
func ValidateStruct[P any](params P) error {
	fields, err := validation.Struct(params)
	if err != nil {
		return &ValidationError{Err: err}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
