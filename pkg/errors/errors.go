// Package errors provides custom error types for the Adversal SDK.
// It follows industry best practices (HashiCorp, AWS SDK) for error handling.
package errors

import (
	"errors"
	"fmt"
)

// =============================================================================
// Base Error Types
// =============================================================================

// Error is the base error type for all SDK errors.
type Error struct {
	// Kind indicates the category of error
	Kind Kind

	// Op is the operation being performed (e.g., "synth.Synthesize")
	Op string

	// Message is a human-readable description
	Message string

	// Err is the underlying error
	Err error
}

// Kind represents the kind/category of error.
type Kind uint8

const (
	KindUnknown Kind = iota

	// KindConfiguration indicates the scan cannot start: a required model
	// capability or option is missing. Fatal.
	KindConfiguration

	// KindGeneration indicates the synthesizer model returned output that
	// could not be parsed into goldens. Recoverable by retry.
	KindGeneration

	// KindAttackExhausted indicates a model-assisted attack ran out of
	// iteration or depth budget without finding a successful refinement.
	// Non-fatal: the case falls back to the unmodified prompt.
	KindAttackExhausted

	// KindTargetUnavailable indicates the target could not be reached or
	// timed out. Non-fatal: the case is marked untested.
	KindTargetUnavailable

	// KindEvaluation indicates the judge model output could not be parsed
	// into a score and rationale. Recoverable by a single retry.
	KindEvaluation

	KindInvalidInput
	KindTimeout
	KindNetwork
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindGeneration:
		return "generation"
	case KindAttackExhausted:
		return "attack_exhausted"
	case KindTargetUnavailable:
		return "target_unavailable"
	case KindEvaluation:
		return "evaluation"
	case KindInvalidInput:
		return "invalid_input"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// =============================================================================
// Constructors
// =============================================================================

// E constructs an Error from the given arguments.
// Arguments can be: Kind, string (Op or Message), error.
func E(args ...interface{}) error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Kind:
			e.Kind = a
		case string:
			if e.Op == "" {
				e.Op = a
			} else {
				e.Message = a
			}
		case error:
			e.Err = a
		}
	}
	return e
}

// New creates a new simple error.
func New(message string) error {
	return &Error{Message: message}
}

// Wrap wraps an error with additional context.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// =============================================================================
// Error Checkers
// =============================================================================

// GetKind returns the Kind of the error, or KindUnknown.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsConfiguration checks if the error is a configuration error.
func IsConfiguration(err error) bool {
	return GetKind(err) == KindConfiguration
}

// IsGeneration checks if the error is a golden generation error.
func IsGeneration(err error) bool {
	return GetKind(err) == KindGeneration
}

// IsAttackExhausted checks if the error is an attack budget exhaustion.
func IsAttackExhausted(err error) bool {
	return GetKind(err) == KindAttackExhausted
}

// IsTargetUnavailable checks if the error is a target transport failure.
func IsTargetUnavailable(err error) bool {
	if GetKind(err) == KindTargetUnavailable {
		return true
	}
	return errors.Is(err, ErrTargetTimeout)
}

// IsEvaluation checks if the error is a judge parsing error.
func IsEvaluation(err error) bool {
	return GetKind(err) == KindEvaluation
}

// IsTimeout checks if the error is a timeout error.
func IsTimeout(err error) bool {
	return GetKind(err) == KindTimeout
}

// IsRetryable checks if the error is retryable within a single case.
// Only generation and evaluation errors warrant a retry; budget exhaustion
// and target failures are terminal for the case.
func IsRetryable(err error) bool {
	switch GetKind(err) {
	case KindGeneration, KindEvaluation, KindNetwork:
		return true
	}
	return false
}

// =============================================================================
// Common Errors
// =============================================================================

var (
	// ErrNoTargetModel is returned when no target model is configured.
	ErrNoTargetModel = &Error{Kind: KindConfiguration, Message: "target model is required"}

	// ErrNoSynthesizerModel is returned when golden synthesis is requested
	// without a generation model.
	ErrNoSynthesizerModel = &Error{Kind: KindConfiguration, Message: "synthesizer model is required"}

	// ErrNoEvaluationModel is returned when scoring is requested without a
	// judge model.
	ErrNoEvaluationModel = &Error{Kind: KindConfiguration, Message: "evaluation model is required"}

	// ErrTargetTimeout is returned when a target invocation times out.
	ErrTargetTimeout = &Error{Kind: KindTargetUnavailable, Message: "target invocation timed out"}

	// ErrAttackBudget is returned when a jailbreak search exhausts its budget.
	ErrAttackBudget = &Error{Kind: KindAttackExhausted, Message: "attack budget exhausted without success"}

	// ErrInvalidConfig is returned for invalid configuration.
	ErrInvalidConfig = &Error{Kind: KindConfiguration, Message: "invalid configuration"}
)
