// Package shared contains common domain types, errors, and events that are
// used across all domain packages. This package has zero external dependencies.
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
	ErrInvalidFormat   = errors.New("invalid format")

	// Requirement-tree errors
	ErrMalformedRequirements = errors.New("malformed requirements")

	// Store / availability errors
	ErrCatalogUnavailable = errors.New("catalog store unavailable")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrTimeout            = errors.New("operation timeout")

	// Concurrency errors
	ErrConcurrentRecompute = errors.New("recompute already in progress for plan")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "plan", "program", "catalog"
	Op      string // Operation that failed, e.g., "Recompute", "Progress"
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

// Plan domain errors
var (
	ErrPlanNotFound        = NewDomainError("plan", "Find", ErrNotFound, "plan not found")
	ErrPlanProgramNotFound = NewDomainError("plan", "FindProgramLink", ErrNotFound, "plan program link not found")
	ErrPlannedCourseBroken = NewDomainError("plan", "ResolveCourse", ErrInvalidEntity, "planned course resolves to no catalog course or class")
)

// Program domain errors
var (
	ErrProgramNotFound     = NewDomainError("program", "Find", ErrNotFound, "program not found")
	ErrEmptyRequirements   = NewDomainError("program", "Parse", ErrMalformedRequirements, "program has no sections")
	ErrDanglingRequirement = NewDomainError("program", "Parse", ErrMalformedRequirements, "requirement references missing section entry")
)

// Catalog domain errors
var (
	ErrCourseNotFound = NewDomainError("catalog", "Find", ErrNotFound, "course not found")
	ErrClassNotFound  = NewDomainError("catalog", "FindClass", ErrNotFound, "class offering not found")
	ErrCatalogDown    = NewDomainError("catalog", "Query", ErrCatalogUnavailable, "catalog store unreachable")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
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

// IsMalformedRequirements checks for the log-and-skip requirement tree class.
func IsMalformedRequirements(err error) bool {
	return errors.Is(err, ErrMalformedRequirements)
}

// IsCatalogUnavailable checks for the fatal catalog outage class.
func IsCatalogUnavailable(err error) bool {
	return errors.Is(err, ErrCatalogUnavailable) || errors.Is(err, ErrStoreUnavailable)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrTimeout)
}
