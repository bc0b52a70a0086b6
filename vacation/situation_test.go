package vacation_test

import (
	"errors"
	"testing"
	"time"

	"github.com/attimo/absence-engine/catalog"
	"github.com/attimo/absence-engine/engine"
	"github.com/attimo/absence-engine/hr"
	"github.com/attimo/absence-engine/interval"
	"github.com/attimo/absence-engine/vacation"
)

func date(y int, m time.Month, d int) interval.Date { return interval.NewDate(y, m, d) }

func newCalculator() *vacation.Calculator {
	return vacation.NewCalculator(engine.New(catalog.Default()))
}

func person() hr.Person { return hr.Person{ID: 1, Name: "Rita", Surname: "Levi"} }

func contractFrom(begin interval.Date) hr.Contract {
	return hr.Contract{ID: 10, PersonID: 1, Begin: begin, WorkTimePercent: 100}
}

// the classic dashboard scenario: two previous-year days taken within the
// deadline, one current-year day, one permission day
func standardAbsences() []hr.Absence {
	return []hr.Absence{
		{PersonID: 1, Date: date(2025, time.February, 10), Code: catalog.CodeVacationLastYear},
		{PersonID: 1, Date: date(2025, time.February, 11), Code: catalog.CodeVacationLastYear},
		{PersonID: 1, Date: date(2025, time.March, 5), Code: catalog.CodeVacationCurrentYear},
		{PersonID: 1, Date: date(2025, time.April, 1), Code: catalog.CodePermissionDay},
	}
}

func TestVacationSituation_Triad(t *testing.T) {
	// GIVEN a long-running 28+4 contract and the standard absences, viewed
	// after the 31 August carry deadline
	calc := newCalculator()
	c := contractFrom(date(2018, time.January, 1))

	s, err := calc.BuildVacationSituation(person(), c, 2025, date(2025, time.October, 15), false, standardAbsences())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN last year is fully counted but expired
	ly := s.LastYear
	if ly.Total != 28 || ly.Used != 2 || ly.UsableTotal != 26 {
		t.Errorf("last year = total %d used %d usableTotal %d, want 28/2/26", ly.Total, ly.Used, ly.UsableTotal)
	}
	if !ly.Expired || ly.Usable != 0 {
		t.Errorf("last year must be expired with usable 0, got expired=%v usable=%d", ly.Expired, ly.Usable)
	}

	// AND the current year is fully usable from day one
	cy := s.CurrentYear
	if cy.Total != 28 || cy.Used != 1 || cy.Usable != 27 {
		t.Errorf("current year = total %d used %d usable %d, want 28/1/27", cy.Total, cy.Used, cy.Usable)
	}
	if cy.Expired {
		t.Error("current year must not be expired")
	}

	// AND permissions follow the code's permission-day quota
	pm := s.Permissions
	if pm.Total != 4 || pm.Used != 1 || pm.Usable != 3 {
		t.Errorf("permissions = total %d used %d usable %d, want 4/1/3", pm.Total, pm.Used, pm.Usable)
	}
}

func TestVacationSituation_FixedTermContractProRatesTheYear(t *testing.T) {
	// GIVEN the same scenario on a contract ending 1 October
	calc := newCalculator()
	c := contractFrom(date(2018, time.January, 1))
	end := date(2025, time.October, 1)
	c.End = &end

	s, err := calc.BuildVacationSituation(person(), c, 2025, date(2025, time.September, 15), false, standardAbsences())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN the current year quota is pro-rated over 274 covered days,
	// truncating: 28 * 274/365 = 21.01 -> 21
	cy := s.CurrentYear
	if cy.Total != 21 {
		t.Errorf("current year total = %d, want 21", cy.Total)
	}
	if cy.Used != 1 || cy.Usable != 20 {
		t.Errorf("current year used/usable = %d/%d, want 1/20", cy.Used, cy.Usable)
	}
	if got := s.Permissions.Total; got != 3 {
		t.Errorf("permissions total = %d, want 3 (4 * 274/365 truncated)", got)
	}
}

func TestVacationSituation_FirstContractYearCapsAtAccrued(t *testing.T) {
	// GIVEN a contract begun 1 March of the reference year, viewed 30 June
	calc := newCalculator()
	c := contractFrom(date(2025, time.March, 1))

	s, err := calc.BuildVacationSituation(person(), c, 2025, date(2025, time.June, 30), false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cy := s.CurrentYear
	// 26 * 306/365 truncated
	if cy.Total != 21 {
		t.Errorf("current year total = %d, want 21", cy.Total)
	}
	// 122 of 306 covered days elapsed
	if cy.Accrued != 8 {
		t.Errorf("accrued = %d, want 8", cy.Accrued)
	}
	if cy.Usable != 8 {
		t.Errorf("usable = %d, want accrued %d during the first contract year", cy.Usable, cy.Accrued)
	}

	// AND the last-year category is empty, not an error
	if s.LastYear.Total != 0 {
		t.Errorf("last year total = %d for a contract that did not exist", s.LastYear.Total)
	}
}

func TestVacationSituation_SecondYearIsFullyUsableFromDayOne(t *testing.T) {
	calc := newCalculator()
	c := contractFrom(date(2025, time.March, 1))

	s, err := calc.BuildVacationSituation(person(), c, 2026, date(2026, time.January, 10), false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cy := s.CurrentYear
	if cy.Total != 26 {
		t.Errorf("current year total = %d, want 26", cy.Total)
	}
	if cy.Usable != 26 {
		t.Errorf("usable = %d, want the full quota on 10 January", cy.Usable)
	}

	// the partial first year carries over until 31 August
	ly := s.LastYear
	if ly.Total != 21 || ly.Expired || ly.Usable != 21 {
		t.Errorf("last year = total %d expired %v usable %d, want 21/false/21", ly.Total, ly.Expired, ly.Usable)
	}
}

func TestVacationSituation_MidYearCodeChangeBlendsTheQuota(t *testing.T) {
	// GIVEN a contract whose vacation code switches from 26+4 to 28+4 on
	// 1 July of the reference year
	calc := newCalculator()
	c := contractFrom(date(2018, time.January, 1))
	c.VacationPeriods = []hr.VacationPeriod{
		{Interval: interval.Closed(c.Begin, date(2025, time.June, 30)), Code: hr.VacationCode26Plus4},
		{Interval: interval.OpenEnded(date(2025, time.July, 1)), Code: hr.VacationCode28Plus4},
	}

	s, err := calc.BuildVacationSituation(person(), c, 2025, date(2025, time.November, 3), false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 26 * 181/365 + 28 * 184/365, each slice truncated: 12.89 + 14.11 -> 27
	if got := s.CurrentYear.Total; got != 27 {
		t.Errorf("current year total = %d, want 27", got)
	}
}

func TestVacationSituation_CacheAndForceRecompute(t *testing.T) {
	calc := newCalculator()
	c := contractFrom(date(2018, time.January, 1))
	ref := date(2025, time.October, 15)

	first, err := calc.BuildVacationSituation(person(), c, 2025, ref, false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.CurrentYear.Used != 0 {
		t.Fatalf("used = %d before any absence", first.CurrentYear.Used)
	}

	// WHEN absences are committed but the cache is not invalidated
	cached, err := calc.BuildVacationSituation(person(), c, 2025, ref, false, standardAbsences())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// THEN the stale entry is returned
	if cached.CurrentYear.Used != 0 {
		t.Errorf("expected the cached situation, got used = %d", cached.CurrentYear.Used)
	}

	// WHEN a recompute is forced
	fresh, err := calc.BuildVacationSituation(person(), c, 2025, ref, true, standardAbsences())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh.CurrentYear.Used != 1 {
		t.Errorf("expected a fresh situation, got used = %d", fresh.CurrentYear.Used)
	}
}

func TestVacationSituation_RequiresReferenceDate(t *testing.T) {
	calc := newCalculator()
	c := contractFrom(date(2018, time.January, 1))

	_, err := calc.BuildVacationSituation(person(), c, 2025, interval.Date{}, false, nil)
	if !errors.Is(err, engine.ErrMissingReferenceDate) {
		t.Errorf("expected ErrMissingReferenceDate, got %v", err)
	}
}
