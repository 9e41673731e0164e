// Package engineerr defines the engine's typed error kinds, sentinel
// values checked with errors.Is/errors.As rather than string matching,
// in the spirit of the teacher's internal/validation.ValidationErrors
// and the passthrough errors surfaced by internal/risk/circuit_breaker.go.
package engineerr

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error for the purpose of deciding how the
// live loop reacts to it: retry silently, back off, or stop.
type Kind int

const (
	// NetworkTransient covers dial/timeout/connection-reset failures
	// talking to the venue or store. The live loop logs and sleeps.
	NetworkTransient Kind = iota
	// MalformedResponse covers a venue response that fails to decode.
	// Treated the same as NetworkTransient by the live loop.
	MalformedResponse
	// DependencyUnsatisfied covers a missing collaborator (store,
	// notifier) the engine cannot proceed without for this tick.
	DependencyUnsatisfied
	// OperationalFault covers a venue refusal the engine cannot
	// recover from unattended: bad credentials, rejected order,
	// account restriction. Transitions AppState to STOPPED.
	OperationalFault
	// ConfigInvalid covers a startup-time configuration defect.
	// Rejected before the engine ever starts the live loop.
	ConfigInvalid
	// FatalUnhandled covers anything else; treated as OperationalFault
	// by callers that don't specifically distinguish it.
	FatalUnhandled
)

func (k Kind) String() string {
	switch k {
	case NetworkTransient:
		return "network_transient"
	case MalformedResponse:
		return "malformed_response"
	case DependencyUnsatisfied:
		return "dependency_unsatisfied"
	case OperationalFault:
		return "operational_fault"
	case ConfigInvalid:
		return "config_invalid"
	case FatalUnhandled:
		return "fatal_unhandled"
	default:
		return "unknown"
	}
}

// Error is a typed engine error wrapping an underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a typed engine error for op, wrapping err.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err (or anything it wraps) carries kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsTransient reports whether err should be treated as a retryable
// transient failure (spec.md §4.7 step 6: log, sleep 30s, continue).
func IsTransient(err error) bool {
	return Is(err, NetworkTransient) || Is(err, MalformedResponse)
}

// IsOperational reports whether err should transition AppState to
// STOPPED and notify (spec.md §4.7 step 6 / §7).
func IsOperational(err error) bool {
	return Is(err, OperationalFault) || Is(err, FatalUnhandled)
}
