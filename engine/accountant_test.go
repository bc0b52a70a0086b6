package engine_test

import (
	"testing"
	"time"

	"github.com/attimo/absence-engine/catalog"
	"github.com/attimo/absence-engine/engine"
	"github.com/attimo/absence-engine/hr"
)

func resolvedChain(t *testing.T, e *engine.Engine, groupName string, c hr.Contract, absences []hr.Absence) engine.PeriodChain {
	t.Helper()
	g := mustGroup(t, e, groupName)
	chain, err := e.BuildPeriods(testPerson(), g, date(2025, time.June, 15), []hr.Contract{c})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := e.Resolve(&chain, absences); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return chain
}

func minutesAbsence(y int, m time.Month, d int, minutes int64) hr.Absence {
	return hr.Absence{PersonID: 1, Date: date(y, m, d), Code: catalog.CodeSpecialLeaveMinutes, JustifiedMinutes: minutes}
}

// =============================================================================
// SPECIAL LEAVE LIMITS (CAREER, MINUTES)
// =============================================================================

func TestResolve_SpecialLeave_FullTime(t *testing.T) {
	// GIVEN a full-time open-ended contract begun before the reference year
	e := newEngine()
	c := fullTimeContract(date(2018, time.January, 1))

	// WHEN the special-leave chain is resolved with no absences
	chain := resolvedChain(t, e, catalog.GroupSpecialLeave, c, nil)

	// THEN the career period carries the full 18-hour limit
	if len(chain.Periods) != 1 {
		t.Fatalf("expected one career period, got %d", len(chain.Periods))
	}
	p := chain.Periods[0]
	if p.TakableAmount != 1080 {
		t.Errorf("takable = %d, want 1080", p.TakableAmount)
	}
	if p.RemainingAmount() != 1080 {
		t.Errorf("remaining = %d, want 1080", p.RemainingAmount())
	}
}

func TestResolve_SpecialLeave_PartTimeHalvesTheLimit(t *testing.T) {
	e := newEngine()
	c := fullTimeContract(date(2018, time.January, 1))
	c.WorkTimePercent = 50

	chain := resolvedChain(t, e, catalog.GroupSpecialLeave, c, nil)

	if got := chain.Periods[0].TakableAmount; got != 540 {
		t.Errorf("takable = %d, want 540", got)
	}
}

func TestResolve_SpecialLeave_MidYearStartDoesNotReduceFurther(t *testing.T) {
	// GIVEN a 50% part-time contract starting in March of the reference year
	e := newEngine()
	c := fullTimeContract(date(2025, time.March, 1))
	c.WorkTimePercent = 50

	chain := resolvedChain(t, e, catalog.GroupSpecialLeave, c, nil)

	// THEN the limit follows the work-time proportion only
	if got := chain.Periods[0].TakableAmount; got != 540 {
		t.Errorf("takable = %d, want 540: career limits must not shrink with calendar coverage", got)
	}
}

func TestResolve_SpecialLeave_MinutesAccumulate(t *testing.T) {
	e := newEngine()
	c := fullTimeContract(date(2018, time.January, 1))
	absences := []hr.Absence{
		minutesAbsence(2025, time.March, 4, 80),
		minutesAbsence(2025, time.March, 5, 40),
	}

	chain := resolvedChain(t, e, catalog.GroupSpecialLeave, c, absences)

	p := chain.Periods[0]
	if p.TakenAmount != 120 {
		t.Errorf("taken = %d, want 120", p.TakenAmount)
	}
	if p.RemainingAmount() != 960 {
		t.Errorf("remaining = %d, want 960", p.RemainingAmount())
	}
	if len(p.Days) != 2 {
		t.Errorf("expected 2 bookkeeping days, got %d", len(p.Days))
	}
}

func TestResolve_SpecialLeave_WholeDayChargesSixHours(t *testing.T) {
	// GIVEN a whole-day special leave on a 7h12m working day
	e := newEngine()
	c := fullTimeContract(date(2018, time.January, 1))
	absences := []hr.Absence{
		{PersonID: 1, Date: date(2025, time.March, 4), Code: catalog.CodeSpecialLeaveDay},
	}

	chain := resolvedChain(t, e, catalog.GroupSpecialLeave, c, absences)

	// THEN the charge is the flat six-hour cap, not the working time
	if got := chain.Periods[0].TakenAmount; got != 360 {
		t.Errorf("taken = %d, want 360", got)
	}
}

func TestResolve_RemainingNeverNegative(t *testing.T) {
	e := newEngine()
	c := fullTimeContract(date(2018, time.January, 1))
	absences := []hr.Absence{
		minutesAbsence(2025, time.March, 4, 700),
		minutesAbsence(2025, time.March, 5, 700),
	}

	chain := resolvedChain(t, e, catalog.GroupSpecialLeave, c, absences)

	p := chain.Periods[0]
	if p.TakenAmount != 1400 {
		t.Errorf("taken = %d, want 1400", p.TakenAmount)
	}
	if p.RemainingAmount() != 0 {
		t.Errorf("remaining = %d, want 0 when overdrawn", p.RemainingAmount())
	}
}

func TestResolve_IsIdempotent(t *testing.T) {
	e := newEngine()
	c := fullTimeContract(date(2018, time.January, 1))
	absences := []hr.Absence{minutesAbsence(2025, time.March, 4, 80)}

	chain := resolvedChain(t, e, catalog.GroupSpecialLeave, c, absences)
	first := chain.Periods[0]

	// WHEN the same chain is resolved again with the same absences
	if err := e.Resolve(&chain, absences); err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	second := chain.Periods[0]

	// THEN nothing accumulates across resolves
	if first.TakenAmount != second.TakenAmount || first.TakableAmount != second.TakableAmount {
		t.Errorf("resolve not idempotent: %d/%d then %d/%d",
			first.TakableAmount, first.TakenAmount, second.TakableAmount, second.TakenAmount)
	}
	if len(first.Days) != len(second.Days) {
		t.Errorf("day bookkeeping grew from %d to %d rows", len(first.Days), len(second.Days))
	}
}

// =============================================================================
// INITIALIZATION COUNTERS
// =============================================================================

func TestResolve_ResidualSourceSeedsTakenMinutes(t *testing.T) {
	// GIVEN a contract migrated into the system with 500 minutes already used
	e := newEngine()
	c := fullTimeContract(date(2015, time.January, 1))
	c.SourceDateResidual = datePtr(2024, time.January, 1)
	c.SourceUsedMinutes = 500

	chain := resolvedChain(t, e, catalog.GroupSpecialLeave, c, nil)

	p := chain.Periods[0]
	if !p.Interval.From.Equal(date(2024, time.January, 1)) {
		t.Errorf("period must start at the residual source date, got %v", p.Interval.From)
	}
	if p.InitializationAmount != 500 {
		t.Errorf("initialization = %d, want 500", p.InitializationAmount)
	}
	if p.TakenAmount != 500 {
		t.Errorf("taken = %d, want 500", p.TakenAmount)
	}
	if p.RemainingAmount() != 580 {
		t.Errorf("remaining = %d, want 580", p.RemainingAmount())
	}
}

func TestResolve_VacationSourceCountersLandInTheRightYears(t *testing.T) {
	// GIVEN vacation counters anchored at 2025-03-01: 2 previous-year days
	// and 1 current-year day already used at migration time
	e := newEngine()
	c := fullTimeContract(date(2018, time.January, 1))
	c.SourceDateVacation = datePtr(2025, time.March, 1)
	c.SourceVacationLastYearUsed = 2
	c.SourceVacationCurrentYearUsed = 1
	c.SourcePermissionUsed = 1

	ferie := resolvedChain(t, e, catalog.GroupVacation, c, nil)

	if idx := ferie.PeriodForYear(2024); idx < 0 {
		t.Fatal("missing 2024 period")
	} else if got := ferie.Periods[idx].InitializationAmount; got != 200 {
		t.Errorf("2024 initialization = %d, want 200", got)
	}
	if idx := ferie.PeriodForYear(2025); idx < 0 {
		t.Fatal("missing 2025 period")
	} else if got := ferie.Periods[idx].InitializationAmount; got != 100 {
		t.Errorf("2025 initialization = %d, want 100", got)
	}
	// earlier years stay untouched
	if idx := ferie.PeriodForYear(2023); idx >= 0 && ferie.Periods[idx].InitializationAmount != 0 {
		t.Error("2023 must not pick up source counters")
	}

	perms := resolvedChain(t, e, catalog.GroupPermission, c, nil)
	if idx := perms.PeriodForYear(2025); idx < 0 {
		t.Fatal("missing 2025 permission period")
	} else if got := perms.Periods[idx].InitializationAmount; got != 100 {
		t.Errorf("2025 permission initialization = %d, want 100", got)
	}
}

func TestResolve_FlagsMissingInitialization(t *testing.T) {
	// GIVEN a contract that predates the office's system entry, with no
	// residual source date
	e := newEngine()
	person := testPerson()
	person.Office = hr.Office{ID: 2, Name: "IIT", BeginDate: date(2020, time.January, 1)}
	c := fullTimeContract(date(2019, time.June, 1))

	g := mustGroup(t, e, catalog.GroupSpecialLeave)
	chain, err := e.BuildPeriods(person, g, date(2025, time.June, 15), []hr.Contract{c})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := e.Resolve(&chain, nil); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// THEN the period is produced anyway, flagged for the caller
	if !chain.Periods[0].InitializationMissing {
		t.Error("expected InitializationMissing on a pre-system contract without residual anchor")
	}
}

// =============================================================================
// VACATION CARRY WINDOW
// =============================================================================

func TestResolve_CarryCodesConsumeThePreviousYear(t *testing.T) {
	e := newEngine()
	c := fullTimeContract(date(2018, time.January, 1))
	absences := []hr.Absence{
		{PersonID: 1, Date: date(2024, time.May, 6), Code: catalog.CodeVacationCurrentYear},
		{PersonID: 1, Date: date(2024, time.May, 7), Code: catalog.CodeVacationCurrentYear},
		// previous-year code dated in 2025, inside the carry window
		{PersonID: 1, Date: date(2025, time.February, 10), Code: catalog.CodeVacationLastYear},
	}

	chain := resolvedChain(t, e, catalog.GroupVacation, c, absences)

	y2024 := chain.Periods[chain.PeriodForYear(2024)]
	if y2024.TakenAmount != 300 {
		t.Errorf("2024 taken = %d, want 300: the carry code must charge 2024", y2024.TakenAmount)
	}
	y2025 := chain.Periods[chain.PeriodForYear(2025)]
	if y2025.TakenAmount != 0 {
		t.Errorf("2025 taken = %d, want 0", y2025.TakenAmount)
	}
}

func TestResolve_CarryCodePastDeadlineConsumesNothing(t *testing.T) {
	e := newEngine()
	c := fullTimeContract(date(2018, time.January, 1))
	absences := []hr.Absence{
		// dated after 31 August, outside every carry window
		{PersonID: 1, Date: date(2025, time.September, 8), Code: catalog.CodeVacationLastYear},
	}

	g := mustGroup(t, e, catalog.GroupVacation)
	chain, err := e.BuildPeriods(testPerson(), g, date(2025, time.October, 15), []hr.Contract{c})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := e.Resolve(&chain, absences); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	for i := range chain.Periods {
		if chain.Periods[i].TakenAmount != 0 {
			t.Errorf("period %v picked up an out-of-window carry code", chain.Periods[i].Interval)
		}
	}
}

func TestResolve_AfterDeadlineCodeChargesThePreviousYear(t *testing.T) {
	e := newEngine()
	c := fullTimeContract(date(2018, time.January, 1))
	absences := []hr.Absence{
		// dated after 31 August: code 37 still charges the previous year,
		// through the end of the following year
		{PersonID: 1, Date: date(2025, time.September, 8), Code: catalog.CodeVacationAfterDeadline},
	}

	g := mustGroup(t, e, catalog.GroupVacation)
	chain, err := e.BuildPeriods(testPerson(), g, date(2025, time.October, 15), []hr.Contract{c})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := e.Resolve(&chain, absences); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	y2024 := chain.Periods[chain.PeriodForYear(2024)]
	if y2024.TakenAmount != 100 {
		t.Errorf("2024 taken = %d, want 100: code 37 must charge 2024", y2024.TakenAmount)
	}
	y2025 := chain.Periods[chain.PeriodForYear(2025)]
	if y2025.TakenAmount != 0 {
		t.Errorf("2025 taken = %d, want 0", y2025.TakenAmount)
	}
}

// =============================================================================
// COMPLETION OVERLAY
// =============================================================================

func miniChainCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	types := []catalog.AbsenceType{
		{Code: "X", Mode: catalog.JustifiedAllDay},
		{Code: "Y", Mode: catalog.JustifiedAllDay},
	}
	groups := []catalog.Group{
		{
			Name:       "A",
			Priority:   1,
			PeriodType: catalog.PeriodYearly,
			Takable: catalog.TakableBehaviour{
				AmountType:   catalog.AmountUnits,
				Source:       catalog.SourceFixed,
				FixedLimit:   200, // two days
				TakableCodes: catalog.NewCodeSet("X"),
				TakenCodes:   catalog.NewCodeSet("X"),
			},
			Completion: &catalog.CompletionBehaviour{
				AmountType:      catalog.AmountUnits,
				LimitAmount:     200,
				CompletionCodes: catalog.NewCodeSet("X"),
				ReplacingCode:   "Y",
			},
			NextGroupToCheck: "B",
		},
		{
			Name:       "B",
			Priority:   2,
			PeriodType: catalog.PeriodYearly,
			Takable: catalog.TakableBehaviour{
				AmountType:   catalog.AmountUnits,
				Source:       catalog.SourceFixed,
				FixedLimit:   300,
				TakableCodes: catalog.NewCodeSet("Y"),
				TakenCodes:   catalog.NewCodeSet("Y"),
			},
		},
	}
	cat, err := catalog.New(types, groups)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

func TestResolve_CompletionFlagsReplacementOnceExhausted(t *testing.T) {
	// GIVEN a two-day completion counter and three completion-coded days
	e := engine.New(miniChainCatalog(t))
	c := fullTimeContract(date(2025, time.January, 1))
	absences := []hr.Absence{
		{PersonID: 1, Date: date(2025, time.March, 3), Code: "X"},
		{PersonID: 1, Date: date(2025, time.March, 4), Code: "X"},
		{PersonID: 1, Date: date(2025, time.March, 5), Code: "X"},
	}

	chain := resolvedChain(t, e, "A", c, absences)

	p := chain.Periods[0]
	if len(p.Days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(p.Days))
	}

	// THEN the residual drains day by day and the third day is flagged
	first := p.Days[0].Complation
	if first == nil || first.ResidualBefore != 200 || first.ResidualAfter != 100 {
		t.Errorf("unexpected first-day residual: %+v", first)
	}
	if first.NeedsReplacement {
		t.Error("first day must not need replacement")
	}
	third := p.Days[2].Complation
	if third == nil || !third.NeedsReplacement {
		t.Fatalf("third day must need replacement, got %+v", third)
	}
	if third.ReplacingCode != "Y" {
		t.Errorf("replacing code = %q, want Y", third.ReplacingCode)
	}
}
