package engine

import (
	"fmt"
	"sort"

	"github.com/attimo/absence-engine/catalog"
	"github.com/attimo/absence-engine/hr"
	"github.com/attimo/absence-engine/interval"
)

// =============================================================================
// ENTITLEMENT ACCOUNTANT
// =============================================================================

// Resolve fills in every period's takable, taken and remaining amounts
// from the persisted absences. It mutates the chain in place and is
// idempotent: resolving the same inputs twice yields identical totals,
// because all computed state is reset first.
//
// Each period's taken amount is local to its own interval (plus the carry
// window for carry codes); remaining is a derived view, not a balance
// carried into the next period.
func (e *Engine) Resolve(chain *PeriodChain, absences []hr.Absence) error {
	if chain == nil || chain.IsEmpty() {
		return nil
	}
	group := chain.Group

	for i := range chain.Periods {
		p := &chain.Periods[i]
		p.AmountType = group.Takable.AmountType
		p.TakableWithLimit = group.Takable.HasLimit()
		p.TakableAmount = 0
		p.TakenAmount = 0
		p.InitializationAmount = 0
		p.InitializationMissing = false
		p.Days = nil
	}

	sorted := append([]hr.Absence(nil), absences...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var complationResidual int64
	if group.Completion != nil {
		complationResidual = group.Completion.LimitAmount
	}

	for i := range chain.Periods {
		p := &chain.Periods[i]

		p.TakableAmount = e.takableFor(group, p)
		e.flagMissingInitialization(chain.Person, p)

		p.InitializationAmount = initializationFor(group, p)
		p.TakenAmount = p.InitializationAmount

		for _, a := range sorted {
			if a.PersonID != 0 && chain.Person.ID != 0 && a.PersonID != chain.Person.ID {
				continue
			}
			if !consumesPeriod(group, p, a) {
				continue
			}

			t, err := e.Catalog.TypeByCode(a.Code)
			if err != nil {
				return fmt.Errorf("%w: %q on %s", ErrUnknownAbsenceType, a.Code, a.Date)
			}
			amount := justifiedAmount(group.Takable.AmountType, t, a)

			day := p.day(a.Date)
			day.Taken = append(day.Taken, TakenAbsence{Absence: a, Amount: amount})
			p.TakenAmount += amount

			if group.Completion != nil && group.Completion.CompletionCodes.Has(a.Code) {
				before := complationResidual
				after := before - amount
				if after < 0 {
					after = 0
				}
				complationResidual = after
				day.Complation = &ComplationAbsence{
					Absence:          a,
					ResidualBefore:   before,
					ResidualAfter:    after,
					ReplacingCode:    group.Completion.ReplacingCode,
					NeedsReplacement: before <= 0,
				}
			}
		}
	}
	return nil
}

// consumesPeriod decides whether an absence charges this period: ordinary
// taken codes inside the period interval, carry codes inside the carry
// window that follows it, after-deadline carry codes anywhere in the
// following year.
func consumesPeriod(group catalog.Group, p *AbsencePeriod, a hr.Absence) bool {
	if group.Takable.TakenCodes.Has(a.Code) && p.Interval.Contains(a.Date) {
		return true
	}
	if group.CarryTakenCodes.Has(a.Code) {
		if w, ok := p.carryWindow(); ok && w.Contains(a.Date) {
			return true
		}
	}
	if group.CarryAfterDeadlineCodes.Has(a.Code) {
		if w, ok := p.afterDeadlineWindow(); ok && w.Contains(a.Date) {
			return true
		}
	}
	return false
}

// takableFor computes the period's limit in the behaviour's unit.
//
// Vacation-code sources sum the sub-period contributions, capped at the
// highest code's full quota when a mid-year code change would exceed it.
// Fixed sources apply the group's adjustment: work-time proportion only
// for career limits (a mid-year start does NOT further reduce them - the
// proportion follows the work-time fraction, not calendar coverage),
// calendar proportion for yearly quotas.
func (e *Engine) takableFor(group catalog.Group, p *AbsencePeriod) int64 {
	b := group.Takable

	switch b.Source {
	case catalog.SourceVacationCode, catalog.SourcePermissionCode:
		var sum, maxBase int64
		for _, sp := range p.SubPeriods {
			sum += sp.Amount
			base := DaysToUnits(sp.Code.VacationDays)
			if b.Source == catalog.SourcePermissionCode {
				base = DaysToUnits(sp.Code.PermissionDays)
			}
			if base > maxBase {
				maxBase = base
			}
		}
		if sum > maxBase {
			sum = maxBase
		}
		return sum

	default:
		if b.FixedLimit < 0 {
			return 0
		}
		switch b.Adjustment {
		case catalog.AdjustWorkTime:
			return Prorate(b.FixedLimit, p.Contract.WorkPercent(), 100)
		case catalog.AdjustCalendarDays:
			dc := p.Interval.DayCount()
			if dc < 0 {
				return b.FixedLimit
			}
			return Prorate(b.FixedLimit, dc, interval.DaysInYear(p.Interval.From.Year()))
		default:
			return b.FixedLimit
		}
	}
}

// initializationFor pre-seeds the taken amount from the contract's source
// counters. Each counter lands in exactly one period: the one whose year
// the source date belongs to (or, for the previous-year vacation counter,
// the year before it), so later periods never double-count.
func initializationFor(group catalog.Group, p *AbsencePeriod) int64 {
	c := p.Contract

	switch group.Takable.Source {
	case catalog.SourceVacationCode:
		if c.SourceDateVacation == nil {
			return 0
		}
		year := p.Interval.From.Year()
		switch c.SourceDateVacation.Year() {
		case year:
			return DaysToUnits(c.SourceVacationCurrentYearUsed)
		case year + 1:
			return DaysToUnits(c.SourceVacationLastYearUsed)
		}
		return 0

	case catalog.SourcePermissionCode:
		if c.SourceDateVacation != nil && c.SourceDateVacation.Year() == p.Interval.From.Year() {
			return DaysToUnits(c.SourcePermissionUsed)
		}
		return 0

	default:
		if c.SourceDateResidual != nil && p.Interval.Contains(*c.SourceDateResidual) {
			return c.SourceUsedMinutes
		}
		return 0
	}
}

// flagMissingInitialization marks contracts that predate the owner's
// system entry but carry no residual source date. Periods are still
// produced; blocking on the flag is a caller decision.
func (e *Engine) flagMissingInitialization(person hr.Person, p *AbsencePeriod) {
	if p.Contract.SourceDateResidual != nil {
		return
	}
	entry := hr.OwnerBeginDate(hr.OfficeOwner{Office: person.Office})
	if b := hr.OwnerBeginDate(hr.PersonOwner{Person: person}); b.After(entry) {
		entry = b
	}
	if !entry.IsZero() && p.Contract.Begin.Before(entry) {
		p.InitializationMissing = true
	}
}

// justifiedAmount is the charge of one absence in the group's unit.
func justifiedAmount(at catalog.AmountType, t catalog.AbsenceType, a hr.Absence) int64 {
	switch t.Mode {
	case catalog.JustifiedSpecifiedMinutes:
		return a.JustifiedMinutes
	case catalog.JustifiedAllDayLimit:
		// The six-hour rule: a whole day charges the per-type cap, not
		// the literal working time.
		return t.JustifiedMinutes
	default:
		if at == catalog.AmountUnits {
			return DaysToUnits(1)
		}
		if t.JustifiedMinutes > 0 {
			return t.JustifiedMinutes
		}
		return DefaultWorkingDayMinutes
	}
}
