package engine

import (
	"sort"
	"time"

	"github.com/attimo/absence-engine/catalog"
	"github.com/attimo/absence-engine/hr"
	"github.com/attimo/absence-engine/interval"
)

// =============================================================================
// PERIOD BUILDER
// =============================================================================

// BuildPeriods derives the ordered accounting periods for one group and
// one person, from the contracts the caller fetched.
//
// Career groups get one period per contract, clipped to the contract's
// initialization date. Yearly groups get one period per calendar year the
// contract overlaps, up to the reference year, split into sub-periods at
// vacation-code boundaries. Monthly groups get one period per month of
// the reference year.
//
// An empty or non-intersecting contract list yields an empty chain: "no
// entitlement for this date", not a failure. A zero-value group or a zero
// reference date is a caller bug and fails fast.
func (e *Engine) BuildPeriods(person hr.Person, group catalog.Group, referenceDate interval.Date, contracts []hr.Contract) (PeriodChain, error) {
	if group.Name == "" {
		return PeriodChain{}, &PreconditionError{Op: "BuildPeriods", Err: ErrInvalidGroup}
	}
	if referenceDate.IsZero() {
		return PeriodChain{}, &PreconditionError{Op: "BuildPeriods", Err: ErrMissingReferenceDate}
	}

	chain := PeriodChain{Person: person, Group: group, Date: referenceDate}

	ordered := append([]hr.Contract(nil), contracts...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Begin.Before(ordered[j].Begin) })
	for _, c := range ordered {
		switch group.PeriodType {
		case catalog.PeriodCareer:
			if p, ok := e.careerPeriod(person, group, c); ok {
				chain.Periods = append(chain.Periods, p)
			}
		case catalog.PeriodYearly:
			chain.Periods = append(chain.Periods, e.yearlyPeriods(group, referenceDate, c)...)
		case catalog.PeriodMonthly:
			chain.Periods = append(chain.Periods, e.monthlyPeriods(group, referenceDate, c)...)
		}
	}

	sort.SliceStable(chain.Periods, func(i, j int) bool {
		return chain.Periods[i].Interval.From.Before(chain.Periods[j].Interval.From)
	})
	return chain, nil
}

// careerPeriod covers a whole contract, starting at the initialization
// date: the residual source date when one exists, else the latest of the
// contract, office and person begin dates.
func (e *Engine) careerPeriod(person hr.Person, group catalog.Group, c hr.Contract) (AbsencePeriod, bool) {
	from := dateForInitialization(person, c)

	iv := interval.OpenEnded(from)
	if end := c.EffectiveEnd(); end != nil {
		if end.Before(from) {
			return AbsencePeriod{}, false
		}
		iv = interval.Closed(from, *end)
	}

	return AbsencePeriod{
		GroupName: group.Name,
		Contract:  c,
		Interval:  iv,
	}, true
}

func dateForInitialization(person hr.Person, c hr.Contract) interval.Date {
	if c.SourceDateResidual != nil {
		return *c.SourceDateResidual
	}
	from := c.Begin
	owners := []hr.Owner{
		hr.OfficeOwner{Office: person.Office},
		hr.PersonOwner{Person: person},
	}
	for _, o := range owners {
		if b := hr.OwnerBeginDate(o); !b.IsZero() && b.After(from) {
			from = b
		}
	}
	return from
}

// yearlyPeriods emits one period per calendar year the contract overlaps,
// bounded by the reference year so chains stay finite for open contracts.
func (e *Engine) yearlyPeriods(group catalog.Group, referenceDate interval.Date, c hr.Contract) []AbsencePeriod {
	lastYear := referenceDate.Year()
	if end := c.EffectiveEnd(); end != nil && end.Year() < lastYear {
		lastYear = end.Year()
	}

	var periods []AbsencePeriod
	for year := c.Begin.Year(); year <= lastYear; year++ {
		clipped, ok := c.Range().Intersect(interval.Year(year))
		if !ok {
			continue
		}

		p := AbsencePeriod{
			GroupName:  group.Name,
			Contract:   c,
			Interval:   clipped,
			SubPeriods: e.subPeriods(group, c, clipped, year),
		}
		if group.HasCarryWindow() {
			p.ExpireDate = interval.NewDate(year+1, time.Month(group.CarryExpireMonth), group.CarryExpireDay)
		}
		periods = append(periods, p)
	}
	return periods
}

// subPeriods splits a yearly period at vacation-code boundaries and fixes
// each slice's pro-rated contribution. Amounts are structural: they
// depend on the calendar only, never on absences, so they are computed
// once here and stay immutable.
func (e *Engine) subPeriods(group catalog.Group, c hr.Contract, clipped interval.Interval, year int) []SubPeriod {
	src := group.Takable.Source
	if src != catalog.SourceVacationCode && src != catalog.SourcePermissionCode {
		return nil
	}

	vps := c.VacationPeriods
	if len(vps) == 0 {
		vps = hr.DefaultVacationPeriods(c.Begin)
	}

	var subs []SubPeriod
	for _, vp := range vps {
		sub, ok := vp.Interval.Intersect(clipped)
		if !ok {
			continue
		}
		base := DaysToUnits(vp.Code.VacationDays)
		if src == catalog.SourcePermissionCode {
			base = DaysToUnits(vp.Code.PermissionDays)
		}
		subs = append(subs, SubPeriod{
			Interval: sub,
			Code:     vp.Code,
			Amount:   Prorate(base, sub.DayCount(), interval.DaysInYear(year)),
		})
	}
	return subs
}

// monthlyPeriods emits one period per month of the reference year that
// the contract overlaps.
func (e *Engine) monthlyPeriods(group catalog.Group, referenceDate interval.Date, c hr.Contract) []AbsencePeriod {
	year := referenceDate.Year()

	var periods []AbsencePeriod
	for m := time.January; m <= time.December; m++ {
		month := interval.Closed(interval.StartOfMonth(year, m), interval.EndOfMonth(year, m))
		clipped, ok := c.Range().Intersect(month)
		if !ok {
			continue
		}
		periods = append(periods, AbsencePeriod{
			GroupName: group.Name,
			Contract:  c,
			Interval:  clipped,
		})
	}
	return periods
}
