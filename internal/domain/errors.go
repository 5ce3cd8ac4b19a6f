package domain

import (
	"errors"
	"fmt"
)

// RejectionKind classifies the only outcomes that abort an invoke call.
// Everything else degrades into LeadRecord.Errors and the run continues.
type RejectionKind string

const (
	// RejectionDuplicate means the idempotency guard saw an unexpired
	// claim for the key. It is a distinct outcome, not a failure.
	RejectionDuplicate RejectionKind = "duplicate_submission"
	// RejectionInfrastructure means the guard store itself was
	// unreachable and the orchestrator is configured fail-closed.
	RejectionInfrastructure RejectionKind = "infrastructure_unavailable"
	// RejectionInvalidInput means the payload could not be parsed into a
	// mapping at all; capture has nothing to work with.
	RejectionInvalidInput RejectionKind = "invalid_input"
)

// RejectionError is the structured rejection surfaced to callers in place
// of a terminal lead record.
type RejectionError struct {
	Kind   RejectionKind
	Key    string
	Reason string
}

func (e *RejectionError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s (key=%s)", e.Kind, e.Reason, e.Key)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// ErrDuplicate builds the duplicate-submission rejection for a key.
func ErrDuplicate(key string) *RejectionError {
	return &RejectionError{Kind: RejectionDuplicate, Key: key, Reason: "lead already processed within the idempotency window"}
}

// ErrInfrastructure wraps a guard-store outage.
func ErrInfrastructure(cause error) *RejectionError {
	return &RejectionError{Kind: RejectionInfrastructure, Reason: cause.Error()}
}

// ErrInvalidInput marks an unparseable inbound payload.
func ErrInvalidInput(reason string) *RejectionError {
	return &RejectionError{Kind: RejectionInvalidInput, Reason: reason}
}

// RejectionOf extracts a RejectionError from err, or nil.
func RejectionOf(err error) *RejectionError {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej
	}
	return nil
}

// IsDuplicate reports whether err is a duplicate-submission rejection.
func IsDuplicate(err error) bool {
	rej := RejectionOf(err)
	return rej != nil && rej.Kind == RejectionDuplicate
}

// ErrNotFound is returned by lead lookups and retries for unknown ids.
var ErrNotFound = errors.New("lead not found")
