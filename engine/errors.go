/*
errors.go - Error taxonomy of the entitlement engine

PURPOSE:
  Only caller bugs and broken catalogs surface as Go errors. Every
  expected outcome - a rejected insertion, a missing initialization, an
  exhausted chain - is data on the returned structures, because the UI
  has to render those, not crash on them.

CATEGORIES:
  1. Precondition violations - nil group, zero reference date
  2. Configuration errors    - unknown group/type reached at runtime
  3. Reject reasons          - structured data, never returned as error

SEE ALSO:
  - simulator.go: attaches RejectReason to day outcomes
  - catalog/catalog.go: configuration validation at load time
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidGroup is returned when a zero-value group is passed in.
	// This is a caller bug, not a data problem.
	ErrInvalidGroup = errors.New("invalid group")

	// ErrMissingReferenceDate is returned for a zero reference date.
	ErrMissingReferenceDate = errors.New("missing reference date")

	// ErrUnknownAbsenceType is returned when a persisted absence carries a
	// code the catalog does not know. The catalog validates group codes at
	// load time, so this points at corrupt absence rows.
	ErrUnknownAbsenceType = errors.New("unknown absence type")
)

// PreconditionError wraps a sentinel with call-site context.
type PreconditionError struct {
	Op  string
	Err error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// =============================================================================
// REJECT REASONS - expected outcomes, represented as data
// =============================================================================

// RejectReason explains why a simulated insertion did not succeed.
type RejectReason string

const (
	ReasonNone RejectReason = ""

	// ReasonLimitExceeded: a period existed but the limit is used up,
	// in this group and every chained one.
	ReasonLimitExceeded RejectReason = "limit_exceeded"

	// ReasonCodeNotTakable: no group in the chain takes the code.
	ReasonCodeNotTakable RejectReason = "code_not_takable"

	// ReasonDuplicate: an identical absence (same day, same code) exists.
	ReasonDuplicate RejectReason = "duplicate_absence"

	// ReasonOutsidePeriods: the date falls inside no accounting period of
	// any group in the chain.
	ReasonOutsidePeriods RejectReason = "outside_periods"
)
