/*
Package vacation composes the engine into the classic vacation dashboard
triad: last year / current year / permissions.

Each summary is one period builder + accountant run against the vacation
or permission group, anchored at the right year. Values are whole days;
the fixed-point arithmetic underneath truncates, so a pro-rated 21.01-day
quota reads as 21.
*/
package vacation

import (
	"fmt"
	"sync"

	"github.com/attimo/absence-engine/catalog"
	"github.com/attimo/absence-engine/engine"
	"github.com/attimo/absence-engine/hr"
	"github.com/attimo/absence-engine/interval"
)

// =============================================================================
// SUMMARIES
// =============================================================================

// VacationSummary is one category of the dashboard, in whole days.
//
//   Total:       full entitlement of the period
//   Accrued:     entitlement earned up to the reference date
//   Used:        consumed (including initialization counters)
//   UsableTotal: total minus used, ignoring expiration and accrual
//   Usable:      what can be requested now - zero once expired; capped to
//                the accrued part during the first contract year
type VacationSummary struct {
	Title string
	Year  int

	Total       int
	Accrued     int
	Used        int
	UsableTotal int
	Usable      int

	Expired bool

	// InitializationMissing propagates the accountant's diagnostic flag.
	InitializationMissing bool
}

// VacationSituation is the triad the vacation dashboard renders.
type VacationSituation struct {
	Person hr.Person
	Year   int

	LastYear    VacationSummary
	CurrentYear VacationSummary
	Permissions VacationSummary
}

// =============================================================================
// CALCULATOR
// =============================================================================

type cacheKey struct {
	contractID int64
	year       int
}

// Calculator builds vacation situations on top of the engine, with a
// small per-contract/year cache. Cached entries go stale when absences
// are committed; pass forceRecompute after a write.
type Calculator struct {
	Engine *engine.Engine

	mu    sync.Mutex
	cache map[cacheKey]VacationSituation
}

func NewCalculator(e *engine.Engine) *Calculator {
	return &Calculator{Engine: e, cache: make(map[cacheKey]VacationSituation)}
}

// BuildVacationSituation computes the triad for one contract and year.
// Contracts and absences are caller-fetched collections; the reference
// date doubles as "today" for expiration and accrual.
func (c *Calculator) BuildVacationSituation(
	person hr.Person,
	contract hr.Contract,
	year int,
	referenceDate interval.Date,
	forceRecompute bool,
	absences []hr.Absence,
) (VacationSituation, error) {
	if referenceDate.IsZero() {
		return VacationSituation{}, fmt.Errorf("vacation: %w", engine.ErrMissingReferenceDate)
	}

	key := cacheKey{contractID: contract.ID, year: year}
	if !forceRecompute {
		c.mu.Lock()
		cached, ok := c.cache[key]
		c.mu.Unlock()
		if ok {
			return cached, nil
		}
	}

	ferie, err := c.Engine.Catalog.GroupByName(catalog.GroupVacation)
	if err != nil {
		return VacationSituation{}, err
	}
	perms, err := c.Engine.Catalog.GroupByName(catalog.GroupPermission)
	if err != nil {
		return VacationSituation{}, err
	}

	lastYear, err := c.summary(person, contract, ferie, year-1, referenceDate, absences,
		fmt.Sprintf("Vacation %d", year-1))
	if err != nil {
		return VacationSituation{}, err
	}
	currentYear, err := c.summary(person, contract, ferie, year, referenceDate, absences,
		fmt.Sprintf("Vacation %d", year))
	if err != nil {
		return VacationSituation{}, err
	}
	permissions, err := c.summary(person, contract, perms, year, referenceDate, absences,
		fmt.Sprintf("Permissions %d", year))
	if err != nil {
		return VacationSituation{}, err
	}

	situation := VacationSituation{
		Person:      person,
		Year:        year,
		LastYear:    lastYear,
		CurrentYear: currentYear,
		Permissions: permissions,
	}

	c.mu.Lock()
	c.cache[key] = situation
	c.mu.Unlock()
	return situation, nil
}

// summary runs builder + accountant for one group and picks the period
// anchored at the target year.
func (c *Calculator) summary(
	person hr.Person,
	contract hr.Contract,
	group catalog.Group,
	year int,
	referenceDate interval.Date,
	absences []hr.Absence,
	title string,
) (VacationSummary, error) {
	out := VacationSummary{Title: title, Year: year}

	// Anchor the chain so the target year is built even when the
	// reference date sits in an earlier year.
	anchor := referenceDate
	if anchor.Year() < year {
		anchor = interval.EndOfYear(year)
	}

	chain, err := c.Engine.BuildPeriods(person, group, anchor, []hr.Contract{contract})
	if err != nil {
		return VacationSummary{}, err
	}
	if err := c.Engine.Resolve(&chain, absences); err != nil {
		return VacationSummary{}, err
	}

	idx := chain.PeriodForYear(year)
	if idx < 0 {
		// Contract did not exist that year: an empty category, not an error.
		return out, nil
	}
	p := &chain.Periods[idx]

	out.Total = engine.UnitsToDays(p.TakableAmount)
	out.Used = engine.UnitsToDays(p.TakenAmount)
	out.UsableTotal = engine.UnitsToDays(p.UsableTotal())
	out.Accrued = engine.UnitsToDays(p.AccruedAmount(referenceDate))
	out.Expired = p.ExpiredOn(referenceDate)
	out.InitializationMissing = p.InitializationMissing

	switch {
	case out.Expired:
		out.Usable = 0
	case contract.Begin.Year() == year:
		// First contract year: only what has accrued so far is usable.
		usable := out.Accrued - out.Used
		if usable < 0 {
			usable = 0
		}
		out.Usable = usable
	default:
		// From the second calendar year on, the full quota is usable
		// from the first day.
		out.Usable = out.UsableTotal
	}
	return out, nil
}
