// Package services defines the business logic of the lead marketplace: job
// posting, provider profiles, matching, the interest lifecycle and the coin
// wallet. This file centralizes service-level errors so callers can check
// them with errors.Is and handlers can map them to HTTP results.
//
// Errors that carry detail (current state, shortfall, existing id) are typed
// and unwrap to the matching sentinel.
package services

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-leads-backend/internal/domain"
	"github.com/tbourn/go-leads-backend/internal/sequence"
)

var (
	// ErrValidation marks malformed input rejected before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden is returned when the caller may not act on the resource.
	ErrForbidden = errors.New("forbidden")

	ErrJobNotFound      = errors.New("job not found")
	ErrInterestNotFound = errors.New("interest not found")
	ErrProfileNotFound  = errors.New("provider profile not found")

	// ErrJobNotActive is returned when interest is expressed in a closed job.
	ErrJobNotActive = errors.New("job is not active")

	// ErrAlreadyInterested is returned when the provider already holds a
	// live interest in the job.
	ErrAlreadyInterested = errors.New("interest already exists")

	// ErrInvalidState is returned when a transition does not start from an
	// allowed predecessor state.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrInsufficientFunds is returned when a debit exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrResourceExhausted is returned when an identifier namespace is full.
	ErrResourceExhausted = sequence.ErrResourceExhausted
)

// ValidationError wraps field errors from the domain constructors.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string        { return e.Err.Error() }
func (e *ValidationError) Unwrap() error        { return e.Err }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}

// InvalidStateError reports the state the interest was actually in.
type InvalidStateError struct {
	Current domain.InterestStatus
	Target  domain.InterestStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot move interest from %s to %s", e.Current, e.Target)
}
func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// InsufficientFundsError reports how many coins are missing.
type InsufficientFundsError struct {
	Balance   int64
	Required  int64
	Shortfall int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %d, required %d, short by %d", e.Balance, e.Required, e.Shortfall)
}
func (e *InsufficientFundsError) Is(target error) bool { return target == ErrInsufficientFunds }

// ConflictError points at the live interest that blocked a create.
type ConflictError struct {
	ExistingID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("interest already exists: %s", e.ExistingID)
}
func (e *ConflictError) Is(target error) bool { return target == ErrAlreadyInterested }
