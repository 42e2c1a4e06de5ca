// Package clienterr provides standardized client error handling.
// Every failure surfaced by the SDK carries exactly one machine-checkable
// kind alongside a human-readable message; callers branch on the kind with
// KindOf or IsKind instead of string matching.
package clienterr

import (
	"errors"
	"fmt"
)

// Kind represents an error kind.
type Kind string

// Standard error kinds.
const (
	// KindParameter marks missing, empty, or wrong-shaped required input.
	// Detected before any remote call is made.
	KindParameter Kind = "PARAMETER"

	// KindPolicyValidation marks malformed optional configuration
	// (unknown fields, wrong-typed values, out-of-range settings).
	KindPolicyValidation Kind = "POLICY_VALIDATION"

	// KindConversion marks an argument value with no native representation.
	KindConversion Kind = "CONVERSION"

	// KindSubmission marks a job the cluster rejected or could not accept.
	// Wraps the underlying cause from the submission primitive.
	KindSubmission Kind = "SUBMISSION"

	// KindJobNotFound marks a status query against an unknown job id.
	KindJobNotFound Kind = "JOB_NOT_FOUND"

	// KindTimeout marks a remote call that exceeded its policy timeout.
	KindTimeout Kind = "TIMEOUT"

	// KindTransport marks a remote failure outside job submission,
	// e.g. a network error during a status query.
	KindTransport Kind = "TRANSPORT"
)

// Error represents a standardized client error.
type Error struct {
	// Machine-readable error kind
	Kind Kind

	// Human-readable error message
	Message string

	// Additional error details (optional)
	Details any

	// Underlying cause (optional)
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// Constructor functions

// New creates a new client error.
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
	}
}

// Wrap wraps an existing error with client error context.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Parameter creates a parameter error.
func Parameter(message string) *Error {
	return New(KindParameter, message)
}

// Parameterf creates a parameter error with a formatted message.
func Parameterf(format string, args ...any) *Error {
	return New(KindParameter, fmt.Sprintf(format, args...))
}

// PolicyValidation creates a policy validation error.
func PolicyValidation(message string) *Error {
	return New(KindPolicyValidation, message)
}

// Conversion creates a conversion error.
func Conversion(message string) *Error {
	return New(KindConversion, message)
}

// Conversionf creates a conversion error with a formatted message.
func Conversionf(format string, args ...any) *Error {
	return New(KindConversion, fmt.Sprintf(format, args...))
}

// Submission wraps a submission primitive failure.
func Submission(err error, message string) *Error {
	if message == "" {
		message = "cluster could not accept the job"
	}
	return Wrap(err, KindSubmission, message)
}

// JobNotFound creates a job-not-found error for the given job id.
func JobNotFound(jobID uint64) *Error {
	return New(KindJobNotFound, fmt.Sprintf("job %d not found", jobID))
}

// Timeout wraps a policy timeout failure for the named operation.
func Timeout(err error, op string) *Error {
	return Wrap(err, KindTimeout, fmt.Sprintf("%s exceeded policy timeout", op))
}

// Transport wraps a remote failure outside job submission.
func Transport(err error, message string) *Error {
	if message == "" {
		message = "cluster call failed"
	}
	return Wrap(err, KindTransport, message)
}

// Helper functions

// KindOf returns the kind carried by err, or the empty kind when err
// is not a client error.
func KindOf(err error) Kind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return ""
}

// IsKind reports whether err is a client error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// FromError converts any error to a client error.
// Errors that already carry a kind pass through unchanged; anything else
// is wrapped as a transport failure.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr
	}

	return Transport(err, "")
}
