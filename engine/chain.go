/*
chain.go - The transient value objects of one entitlement query

PURPOSE:
  A PeriodChain is everything the engine computes for one
  (person, group, date) question: the ordered accounting periods, their
  takable/taken/remaining amounts, the per-day breakdown, and - in
  simulation mode - the successful insertion, if any.

LIFECYCLE:
  All types here are request-scoped and recomputed from persisted rows on
  every call. Nothing is persisted. The chain owns its periods: no other
  component mutates them after Resolve.

SEE ALSO:
  - builder.go:    derives the period structure from contracts
  - accountant.go: fills in the amounts
  - simulator.go:  clones chains to try candidate insertions
*/
package engine

import (
	"github.com/attimo/absence-engine/catalog"
	"github.com/attimo/absence-engine/hr"
	"github.com/attimo/absence-engine/interval"
)

// =============================================================================
// PER-DAY BOOKKEEPING
// =============================================================================

// TakenAbsence is one absence charged against a period, with the amount
// it cost in the group's unit.
type TakenAbsence struct {
	Absence hr.Absence
	Amount  int64
}

// ComplationAbsence tracks a completion-coded day against the completion
// counter. When the counter was already exhausted before this day,
// NeedsReplacement is set and ReplacingCode says what the caller should
// substitute. The engine signals, the caller decides.
type ComplationAbsence struct {
	Absence          hr.Absence
	ResidualBefore   int64
	ResidualAfter    int64
	ReplacingCode    string
	NeedsReplacement bool
}

// DayInPeriod is one calendar day inside a period and what landed on it.
type DayInPeriod struct {
	Date       interval.Date
	Taken      []TakenAbsence
	Complation *ComplationAbsence
}

// =============================================================================
// PERIODS
// =============================================================================

// SubPeriod is a slice of a yearly period with a single vacation code in
// force. Amount is the code's pro-rated contribution to the period's
// takable amount, fixed at build time.
type SubPeriod struct {
	Interval interval.Interval
	Code     hr.VacationCode
	Amount   int64
}

// AbsencePeriod is one accounting interval for one group/contract
// combination. Amounts are in the group's AmountType.
type AbsencePeriod struct {
	GroupName string
	Contract  hr.Contract
	Interval  interval.Interval

	// SubPeriods is populated for vacation-code-driven yearly periods
	// that span a code change; read-only after build.
	SubPeriods []SubPeriod

	AmountType       catalog.AmountType
	TakableWithLimit bool

	TakableAmount int64
	TakenAmount   int64

	// InitializationAmount is the part of TakenAmount pre-seeded from the
	// contract's source counters.
	InitializationAmount int64

	// InitializationMissing flags a contract that predates the system but
	// carries no residual source date. Periods are still produced; the
	// caller decides whether to block on this.
	InitializationMissing bool

	// ExpireDate is the last day the period stays consumable; zero means
	// the period's own To. Vacation periods outlive their year through
	// the carry window.
	ExpireDate interval.Date

	Days []DayInPeriod
}

// RemainingAmount is max(0, takable - taken): a derived view, never an
// accumulator passed between periods.
func (p *AbsencePeriod) RemainingAmount() int64 {
	if !p.TakableWithLimit {
		return 0
	}
	if r := p.TakableAmount - p.TakenAmount; r > 0 {
		return r
	}
	return 0
}

// expireDate resolves the effective expiration day; zero for open periods.
func (p *AbsencePeriod) expireDate() interval.Date {
	if !p.ExpireDate.IsZero() {
		return p.ExpireDate
	}
	return p.Interval.To
}

// ExpiredOn reports whether the period is no longer consumable on the day.
func (p *AbsencePeriod) ExpiredOn(today interval.Date) bool {
	exp := p.expireDate()
	if exp.IsZero() {
		return false
	}
	return today.After(exp)
}

// UsableAmount is the remaining amount, zeroed once expired.
func (p *AbsencePeriod) UsableAmount(today interval.Date) int64 {
	if p.ExpiredOn(today) {
		return 0
	}
	return p.RemainingAmount()
}

// UsableTotal ignores expiration; diagnostic value only.
func (p *AbsencePeriod) UsableTotal() int64 {
	return p.RemainingAmount()
}

// AccruedAmount is the takable amount earned up to asOf, pro-rated over
// the period's calendar coverage, truncating.
func (p *AbsencePeriod) AccruedAmount(asOf interval.Date) int64 {
	if asOf.Before(p.Interval.From) {
		return 0
	}
	if p.Interval.IsOpen() || asOf.AfterOrEqual(p.Interval.To) {
		return p.TakableAmount
	}
	elapsed := interval.DaysBetween(p.Interval.From, asOf) + 1
	return Prorate(p.TakableAmount, elapsed, p.Interval.DayCount())
}

// carryWindow is the post-period interval during which carry codes still
// consume this period. Empty when the group has no carry window.
func (p *AbsencePeriod) carryWindow() (interval.Interval, bool) {
	exp := p.expireDate()
	if p.Interval.IsOpen() || exp.IsZero() || !exp.After(p.Interval.To) {
		return interval.Interval{}, false
	}
	return interval.Closed(p.Interval.To.AddDays(1), exp), true
}

// afterDeadlineWindow is the extended post-period interval for
// after-deadline carry codes: the whole calendar year following the
// period, not just the slice up to the carry deadline.
func (p *AbsencePeriod) afterDeadlineWindow() (interval.Interval, bool) {
	exp := p.expireDate()
	if p.Interval.IsOpen() || exp.IsZero() || !exp.After(p.Interval.To) {
		return interval.Interval{}, false
	}
	return interval.Closed(p.Interval.To.AddDays(1), interval.EndOfYear(p.Interval.To.Year()+1)), true
}

// day returns the bookkeeping row for a date, creating it in order.
func (p *AbsencePeriod) day(d interval.Date) *DayInPeriod {
	for i := range p.Days {
		if p.Days[i].Date.Equal(d) {
			return &p.Days[i]
		}
	}
	p.Days = append(p.Days, DayInPeriod{Date: d})
	// keep ascending order
	for i := len(p.Days) - 1; i > 0 && p.Days[i].Date.Before(p.Days[i-1].Date); i-- {
		p.Days[i], p.Days[i-1] = p.Days[i-1], p.Days[i]
	}
	for i := range p.Days {
		if p.Days[i].Date.Equal(d) {
			return &p.Days[i]
		}
	}
	return nil // unreachable
}

// =============================================================================
// CHAIN
// =============================================================================

// SuccessPeriodInsert records a candidate that fit, in simulation mode.
type SuccessPeriodInsert struct {
	AttemptedInsertAbsence hr.Absence
	GroupName              string
	Amount                 int64
}

// PeriodChain is the ordered list of periods computed for one query.
type PeriodChain struct {
	Person  hr.Person
	Group   catalog.Group
	Date    interval.Date
	Periods []AbsencePeriod

	// Success is set by the insertion simulator, never by plain resolves.
	Success *SuccessPeriodInsert
}

// IsEmpty means "no entitlement for this date", not a failure.
func (pc *PeriodChain) IsEmpty() bool { return len(pc.Periods) == 0 }

// PeriodContaining returns the index of the period whose interval holds
// the date, or -1.
func (pc *PeriodChain) PeriodContaining(d interval.Date) int {
	for i := range pc.Periods {
		if pc.Periods[i].Interval.Contains(d) {
			return i
		}
	}
	return -1
}

// periodForConsumption locates the period a given code dated d consumes:
// carry codes land in the period whose carry window holds the date,
// after-deadline carry codes in the period whose extended window holds
// it, ordinary taken codes in the period whose interval holds it.
func (pc *PeriodChain) periodForConsumption(code string, d interval.Date) int {
	if pc.Group.CarryTakenCodes.Has(code) {
		for i := range pc.Periods {
			if w, ok := pc.Periods[i].carryWindow(); ok && w.Contains(d) {
				return i
			}
		}
		return -1
	}
	if pc.Group.CarryAfterDeadlineCodes.Has(code) {
		for i := range pc.Periods {
			if w, ok := pc.Periods[i].afterDeadlineWindow(); ok && w.Contains(d) {
				return i
			}
		}
		return -1
	}
	if !pc.Group.Takable.TakenCodes.Has(code) {
		return -1
	}
	return pc.PeriodContaining(d)
}

// TotalRemaining sums the remaining amounts of all periods.
func (pc *PeriodChain) TotalRemaining() int64 {
	var total int64
	for i := range pc.Periods {
		total += pc.Periods[i].RemainingAmount()
	}
	return total
}

// PeriodForYear returns the index of the period starting in the given
// calendar year, or -1. Useful for yearly groups.
func (pc *PeriodChain) PeriodForYear(year int) int {
	for i := range pc.Periods {
		if pc.Periods[i].Interval.From.Year() == year {
			return i
		}
	}
	return -1
}

// clone deep-copies the chain so a simulation can re-resolve without
// touching the phase-1 result. SubPeriods are immutable after build and
// stay shared; day bookkeeping is copied.
func (pc *PeriodChain) clone() PeriodChain {
	out := *pc
	out.Success = nil
	out.Periods = make([]AbsencePeriod, len(pc.Periods))
	copy(out.Periods, pc.Periods)
	for i := range out.Periods {
		p := &out.Periods[i]
		if p.Days == nil {
			continue
		}
		days := make([]DayInPeriod, len(p.Days))
		copy(days, p.Days)
		for j := range days {
			days[j].Taken = append([]TakenAbsence(nil), days[j].Taken...)
			if days[j].Complation != nil {
				c := *days[j].Complation
				days[j].Complation = &c
			}
		}
		p.Days = days
	}
	return out
}
