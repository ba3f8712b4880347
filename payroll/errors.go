/*
errors.go - Error types for the pay calculation engine

PURPOSE:
  All failures are caller-input errors. They are detected before any
  segmentation work starts, and a failed call never returns a partial
  result. Every error is a deterministic function of the inputs, so none
  of them are retryable.

ERROR CATEGORIES:
  1. Interval errors - shift end before start, or longer than 24 hours
  2. Break errors    - break outside the shift, inverted, or overlapping
  3. Timezone errors - unknown IANA identifier
  4. Guide errors    - malformed pay guide (rate, multipliers, windows)
  5. Lookup errors   - no guide effective at an instant

USAGE:
  res, err := payroll.Calculate(shift, guide)
  if errors.Is(err, payroll.ErrInvalidBreakPeriod) {
      var be *payroll.BreakError
      errors.As(err, &be) // be.Index names the offending break
  }

SEE ALSO:
  - calculate.go: validation order
  - api/handlers.go: maps these to HTTP status codes
*/
package payroll

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInterval is returned when a shift ends at or before its
	// start, or spans more than 24 hours.
	ErrInvalidInterval = errors.New("invalid shift interval")

	// ErrInvalidBreakPeriod is returned when a break is inverted, lies
	// outside the shift, or overlaps another break.
	ErrInvalidBreakPeriod = errors.New("invalid break period")

	// ErrUnknownTimezone is returned when a guide's timezone is not a known
	// IANA identifier.
	ErrUnknownTimezone = errors.New("unknown timezone")

	// ErrInvalidPayGuide is returned when a guide violates its own invariants.
	ErrInvalidPayGuide = errors.New("invalid pay guide")

	// ErrInvalidPeriodType is returned for a period type other than
	// weekly, fortnightly or monthly.
	ErrInvalidPeriodType = errors.New("invalid pay period type")

	// ErrGuideNotFound is returned by lookups when no guide is effective.
	ErrGuideNotFound = errors.New("pay guide not found")
)

// MaxShiftDuration bounds a single shift.
const MaxShiftDuration = 24 * time.Hour

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// IntervalError describes a malformed shift interval.
type IntervalError struct {
	Start  time.Time
	End    time.Time
	Reason string
}

func (e *IntervalError) Error() string {
	return fmt.Sprintf("invalid shift interval [%s, %s]: %s",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339), e.Reason)
}

func (e *IntervalError) Unwrap() error { return ErrInvalidInterval }

// BreakError describes a malformed break. Index refers to the caller's
// original ordering.
type BreakError struct {
	Index  int
	Break  BreakPeriod
	Reason string
}

func (e *BreakError) Error() string {
	return fmt.Sprintf("invalid break %d [%s, %s]: %s", e.Index,
		e.Break.Start.Format(time.RFC3339), e.Break.End.Format(time.RFC3339), e.Reason)
}

func (e *BreakError) Unwrap() error { return ErrInvalidBreakPeriod }

// TimezoneError names the identifier that failed to load.
type TimezoneError struct {
	Name  string
	Cause error
}

func (e *TimezoneError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unknown timezone %q: %v", e.Name, e.Cause)
	}
	return fmt.Sprintf("unknown timezone %q", e.Name)
}

func (e *TimezoneError) Unwrap() error { return ErrUnknownTimezone }

// GuideError describes a malformed pay guide field.
type GuideError struct {
	GuideID GuideID
	Field   string
	Reason  string
}

func (e *GuideError) Error() string {
	return fmt.Sprintf("invalid pay guide %q: %s: %s", e.GuideID, e.Field, e.Reason)
}

func (e *GuideError) Unwrap() error { return ErrInvalidPayGuide }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInterval) ||
		errors.Is(err, ErrInvalidBreakPeriod) ||
		errors.Is(err, ErrUnknownTimezone) ||
		errors.Is(err, ErrInvalidPayGuide) ||
		errors.Is(err, ErrInvalidPeriodType)
}

// IsNotFound returns true if the error indicates a missing pay guide.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrGuideNotFound)
}
