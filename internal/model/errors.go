package model

import (
	"errors"
	"fmt"
)

// ValidationError represents invalid caller input. It is recovered locally
// at the service boundary and never propagates as a crash.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a validation error (including wrapped errors).
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// StoreError wraps an I/O or index failure from the record store. The store
// performs no retries; the error surfaces to the immediate caller.
type StoreError struct {
	Op        string
	Workspace string
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s (workspace %s): %v", e.Op, e.Workspace, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err with the failing operation and workspace.
func NewStoreError(op, workspace string, err error) *StoreError {
	return &StoreError{Op: op, Workspace: workspace, Err: err}
}

// IsStoreError checks if an error is a store error.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// AuthorizationError represents a cross-agent mutation attempt. It is logged
// and dropped, never executed and never silently redirected.
type AuthorizationError struct {
	AgentID  string
	TargetID string
}

func (e AuthorizationError) Error() string {
	return fmt.Sprintf("agent %s may not mutate memory owned by %s", e.AgentID, e.TargetID)
}

// IsAuthorizationError checks if an error is an authorization error.
func IsAuthorizationError(err error) bool {
	var ae AuthorizationError
	return errors.As(err, &ae)
}

// PartialChunkFailure indicates a multi-chunk write did not complete as a
// set, leaving a logical memory with missing or stale chunks.
type PartialChunkFailure struct {
	MemoryID string
	Err      error
}

func (e *PartialChunkFailure) Error() string {
	return fmt.Sprintf("memory %s left partially written: %v", e.MemoryID, e.Err)
}

func (e *PartialChunkFailure) Unwrap() error { return e.Err }

// NewPartialChunkFailure wraps err with the affected logical memory id.
func NewPartialChunkFailure(memoryID string, err error) *PartialChunkFailure {
	return &PartialChunkFailure{MemoryID: memoryID, Err: err}
}

// IsPartialChunkFailure checks if an error is a partial chunk failure.
func IsPartialChunkFailure(err error) bool {
	var pe *PartialChunkFailure
	return errors.As(err, &pe)
}

// DecisionParseError indicates the decision oracle's output contained no
// parseable JSON object. Callers degrade to a no-mutation decision.
type DecisionParseError struct {
	Raw string
}

func (e DecisionParseError) Error() string {
	return fmt.Sprintf("no JSON object found in oracle output (%d bytes)", len(e.Raw))
}

// IsDecisionParseError checks if an error is a decision parse error.
func IsDecisionParseError(err error) bool {
	var de DecisionParseError
	return errors.As(err, &de)
}
