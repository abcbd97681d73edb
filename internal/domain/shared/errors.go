// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrFutureTimestamp = errors.New("timestamp cannot be in the future")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrExpired          = errors.New("expired")

	// Contract violations - programming errors, never user errors.
	ErrInvariantViolation = errors.New("invariant violation")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrOptimisticLock         = errors.New("optimistic lock failure")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "hunter", "mission", "raid"
	Op      string // Operation that failed, e.g., "ApplyXP", "AdvanceProgress"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Hunter domain errors
var (
	ErrHunterNotFound      = NewDomainError("hunter", "Find", ErrNotFound, "hunter not found")
	ErrHunterAlreadyExists = NewDomainError("hunter", "Create", ErrAlreadyExists, "hunter already exists")
	ErrInvalidHunterName   = NewDomainError("hunter", "Validate", ErrInvalidInput, "invalid hunter name")
	ErrInvalidStatKey      = NewDomainError("hunter", "Validate", ErrInvalidInput, "unknown stat key")
	ErrNoAvailablePoints   = NewDomainError("hunter", "AllocateStat", ErrInvalidState, "no available stat points")
	ErrProfileVersionStale = NewDomainError("hunter", "Save", ErrConcurrentModification, "profile changed since read")
)

// Mission domain errors
var (
	ErrMissionNotFound         = NewDomainError("mission", "Find", ErrNotFound, "mission not found")
	ErrMissionAlreadyCompleted = NewDomainError("mission", "Advance", ErrAlreadyProcessed, "mission already completed")
	ErrInvalidProgressAmount   = NewDomainError("mission", "Advance", ErrInvalidInput, "progress amount must be positive")
	ErrMissionRewardPending    = NewDomainError("mission", "Advance", ErrServiceUnavailable, "mission completed but reward grant failed")
)

// Raid domain errors
var (
	ErrRaidNotFound         = NewDomainError("raid", "Find", ErrNotFound, "boss raid not found")
	ErrRaidAlreadyCompleted = NewDomainError("raid", "Advance", ErrAlreadyProcessed, "boss raid already completed")
	ErrInvalidRewardStat    = NewDomainError("raid", "Validate", ErrInvalidInput, "reward references unknown stat")
)

// Achievement domain errors
var (
	ErrAchievementNotFound = NewDomainError("achievement", "Find", ErrNotFound, "achievement not found")
	ErrInvalidRarity       = NewDomainError("achievement", "Validate", ErrInvalidInput, "invalid rarity")
)

// Activity domain errors
var (
	ErrActivityNotFound    = NewDomainError("activity", "Find", ErrNotFound, "activity entry not found")
	ErrInvalidIntensity    = NewDomainError("activity", "Validate", ErrInvalidInput, "invalid workout intensity")
	ErrInvalidAmount       = NewDomainError("activity", "Validate", ErrValueOutOfRange, "amount must be positive")
	ErrDuplicateRequestID  = NewDomainError("activity", "Dedup", ErrAlreadyProcessed, "request already processed")
	ErrUnknownVoiceCommand = NewDomainError("activity", "ParseVoice", ErrInvalidInput, "voice command not recognized")
)

// Leaderboard domain errors
var (
	ErrLeaderboardNotFound = NewDomainError("leaderboard", "Find", ErrNotFound, "leaderboard not found")
	ErrLeaderboardStale    = NewDomainError("leaderboard", "Refresh", ErrExpired, "leaderboard data is stale")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried.
// Concurrency conflicts and transient collaborator failures are safe to
// re-drive because mutating operations are idempotent at the business level:
// re-advancing a completed mission or raid is a no-op and achievement grants
// are insert-if-absent.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
