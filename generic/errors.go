/*
errors.go - Centralized error types for the hydration engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every rejection is synchronous and happens before any write, so a
  caller that gets one of these errors knows nothing was changed.

ERROR CATEGORIES:
  1. Validation errors - Caller input outside the accepted bounds
  2. State errors - Account registered / not registered
  3. Store errors - Persistence failures

USAGE:
    if errors.Is(err, generic.ErrNotRegistered) {
        // 404
    }

    var amountErr *generic.AmountError
    if errors.As(err, &amountErr) {
        fmt.Println(amountErr.Amount)
    }

SEE ALSO:
  - hydration/ledger.go: Returns these errors
  - api/handlers.go: Maps them to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidGoal is returned when a daily goal is outside the accepted range.
	ErrInvalidGoal = errors.New("invalid daily goal")

	// ErrInvalidAmount is returned when a single intake entry is outside the accepted range.
	ErrInvalidAmount = errors.New("invalid intake amount")

	// ErrAlreadyRegistered is returned on a duplicate registration.
	ErrAlreadyRegistered = errors.New("account already registered")

	// ErrNotRegistered is returned for any operation on an unknown account.
	ErrNotRegistered = errors.New("account not registered")

	// ErrTooManyDates is returned when a history lookup asks for too many days.
	ErrTooManyDates = errors.New("too many dates requested")

	// ErrInvalidDayKey is returned when a day key cannot be parsed or names no real day.
	ErrInvalidDayKey = errors.New("invalid day key")

	// ErrClockRegression is returned when the clock reports a day earlier
	// than one the account has already been evaluated on.
	ErrClockRegression = errors.New("clock moved backwards")

	// ErrTransactionFailed is returned when a store transaction cannot be committed.
	ErrTransactionFailed = errors.New("transaction failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// GoalError reports a rejected daily goal.
type GoalError struct {
	Goal     Milliliters
	Min, Max Milliliters
}

func (e *GoalError) Error() string {
	return fmt.Sprintf("invalid daily goal: %d ml (must be between %d and %d)", e.Goal, e.Min, e.Max)
}

func (e *GoalError) Unwrap() error { return ErrInvalidGoal }

// AmountError reports a rejected intake amount.
type AmountError struct {
	Amount Milliliters
	Max    Milliliters
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("invalid intake amount: %d ml (must be between 1 and %d)", e.Amount, e.Max)
}

func (e *AmountError) Unwrap() error { return ErrInvalidAmount }

// DateLimitError reports a history lookup over the per-call limit.
type DateLimitError struct {
	Requested int
	Max       int
}

func (e *DateLimitError) Error() string {
	return fmt.Sprintf("too many dates requested: %d (max %d)", e.Requested, e.Max)
}

func (e *DateLimitError) Unwrap() error { return ErrTooManyDates }

// ClockRegressionError reports a clock that went back past the account's last evaluated day.
type ClockRegressionError struct {
	Account        AccountID
	Today          DayKey
	LastUpdateDate DayKey
}

func (e *ClockRegressionError) Error() string {
	return fmt.Sprintf("clock moved backwards for %s: today %s is before last update %s",
		e.Account, e.Today, e.LastUpdateDate)
}

func (e *ClockRegressionError) Unwrap() error { return ErrClockRegression }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
// None of these are retryable.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidGoal) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrTooManyDates) ||
		errors.Is(err, ErrInvalidDayKey)
}

// IsNotFound returns true if the error indicates a missing account.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotRegistered)
}

// IsConflict returns true if the error conflicts with existing account state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyRegistered) ||
		errors.Is(err, ErrClockRegression)
}
