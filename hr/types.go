// Package hr holds the durable personnel model consumed by the engine:
// people, offices, contracts with their vacation periods and
// initialization anchors, and recorded absences. The engine never loads
// these itself; callers fetch them and inject plain collections.
package hr

import (
	"sort"
	"time"

	"github.com/attimo/absence-engine/interval"
)

// =============================================================================
// PEOPLE AND OFFICES
// =============================================================================

type Office struct {
	ID        int64
	Name      string
	BeginDate interval.Date
}

type Person struct {
	ID        int64
	Name      string
	Surname   string
	BeginDate interval.Date
	Office    Office
}

// Owner is the closed set of configuration owners. Entitlement anchors and
// parameters can hang off an office or off a single person; dispatch is an
// exhaustive type switch, not a runtime class check.
type Owner interface {
	isOwner()
}

type OfficeOwner struct{ Office Office }
type PersonOwner struct{ Person Person }

func (OfficeOwner) isOwner() {}
func (PersonOwner) isOwner() {}

// OwnerBeginDate returns the date an owner entered the system.
func OwnerBeginDate(o Owner) interval.Date {
	switch v := o.(type) {
	case OfficeOwner:
		return v.Office.BeginDate
	case PersonOwner:
		return v.Person.BeginDate
	default:
		// Owner is sealed; a new variant must be handled here.
		panic("hr: unknown owner variant")
	}
}

// =============================================================================
// VACATION CODES AND PERIODS
// =============================================================================

// VacationCode is the annual vacation entitlement class, e.g. "26+4"
// (26 vacation days plus 4 permission days) or "28+4".
type VacationCode struct {
	Name           string
	VacationDays   int
	PermissionDays int
}

var (
	VacationCode26Plus4 = VacationCode{Name: "26+4", VacationDays: 26, PermissionDays: 4}
	VacationCode28Plus4 = VacationCode{Name: "28+4", VacationDays: 28, PermissionDays: 4}
)

// VacationPeriod is a sub-interval of a contract with its own vacation
// code. An open To follows the contract's own end.
type VacationPeriod struct {
	Interval interval.Interval
	Code     VacationCode
}

// DefaultVacationPeriods builds the standard progression for a new
// contract: 26+4 for the first three years, 28+4 from then on.
func DefaultVacationPeriods(begin interval.Date) []VacationPeriod {
	switchDate := begin.AddYears(3)
	return []VacationPeriod{
		{Interval: interval.Closed(begin, switchDate.AddDays(-1)), Code: VacationCode26Plus4},
		{Interval: interval.OpenEnded(switchDate), Code: VacationCode28Plus4},
	}
}

// =============================================================================
// CONTRACT
// =============================================================================

// Contract is one employment of a person. End is the planned fixed-term
// end, EndContract an early termination; the effective end is the earlier
// of the two. Nil pointers mean open-ended.
//
// The Source* anchors pre-seed accounting for contracts that predate the
// system going live: counters before the source date are already folded
// into the "already used" fields and must not be recomputed.
type Contract struct {
	ID              int64
	PersonID        int64
	Begin           interval.Date
	End             *interval.Date
	EndContract     *interval.Date
	WorkTimePercent int // 100 = full time

	SourceDateResidual   *interval.Date
	SourceDateVacation   *interval.Date
	SourceDateMealTicket *interval.Date

	// Already-used counters at the source date.
	SourceUsedMinutes             int64 // residual minutes (661 and kin)
	SourceVacationLastYearUsed    int   // days
	SourceVacationCurrentYearUsed int   // days
	SourcePermissionUsed          int   // days

	VacationPeriods []VacationPeriod
}

// EffectiveEnd returns the day the contract actually stops, nil when open.
func (c Contract) EffectiveEnd() *interval.Date {
	if c.EndContract != nil {
		return c.EndContract
	}
	return c.End
}

// Range is the contract's effective life as an interval.
func (c Contract) Range() interval.Interval {
	if end := c.EffectiveEnd(); end != nil {
		return interval.Closed(c.Begin, *end)
	}
	return interval.OpenEnded(c.Begin)
}

// IsActiveOn reports whether the contract covers the day.
func (c Contract) IsActiveOn(d interval.Date) bool {
	return c.Range().Contains(d)
}

// WorkPercent defaults to full time when unset.
func (c Contract) WorkPercent() int {
	if c.WorkTimePercent <= 0 {
		return 100
	}
	return c.WorkTimePercent
}

// VacationPeriodOn returns the vacation period in force on the day.
func (c Contract) VacationPeriodOn(d interval.Date) (VacationPeriod, bool) {
	for _, vp := range c.VacationPeriods {
		if vp.Interval.Contains(d) {
			return vp, true
		}
	}
	return VacationPeriod{}, false
}

// =============================================================================
// ABSENCE
// =============================================================================

// Absence is one recorded absence day. JustifiedMinutes is meaningful for
// minute-justified codes only; day-justified codes leave it zero.
type Absence struct {
	ID               int64
	PersonID         int64
	Date             interval.Date
	Code             string
	JustifiedMinutes int64
}

// SameDayAndCode reports whether two absences would collide.
func (a Absence) SameDayAndCode(other Absence) bool {
	return a.Code == other.Code && a.Date.Equal(other.Date)
}

// =============================================================================
// SMALL HELPERS
// =============================================================================

// ContractsOverlapping filters and orders contracts by begin date
// ascending, keeping those whose life intersects the interval. This is the
// in-memory twin of the store query of the same name.
func ContractsOverlapping(contracts []Contract, i interval.Interval) []Contract {
	var out []Contract
	for _, c := range contracts {
		if c.Range().Overlaps(i) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Begin.Before(out[b].Begin) })
	return out
}

// DateOf is a convenience for building dates in callers and tests.
func DateOf(year int, month time.Month, day int) interval.Date {
	return interval.NewDate(year, month, day)
}
