package engine_test

import (
	"testing"
	"time"

	"github.com/attimo/absence-engine/catalog"
	"github.com/attimo/absence-engine/engine"
	"github.com/attimo/absence-engine/hr"
	"github.com/attimo/absence-engine/interval"
)

func specialLeaveSnapshot(t *testing.T, e *engine.Engine, c hr.Contract, persisted []hr.Absence) *engine.Snapshot {
	t.Helper()
	g := mustGroup(t, e, catalog.GroupSpecialLeave)
	s, err := e.Snapshot(testPerson(), g, date(2025, time.June, 15), []hr.Contract{c}, persisted)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return s
}

// =============================================================================
// PHASE 1
// =============================================================================

func TestSnapshot_MatchesDirectResolve(t *testing.T) {
	// GIVEN the same inputs resolved directly and through a snapshot
	e := newEngine()
	c := fullTimeContract(date(2018, time.January, 1))
	persisted := []hr.Absence{minutesAbsence(2025, time.March, 4, 80)}

	direct := resolvedChain(t, e, catalog.GroupSpecialLeave, c, persisted)
	s := specialLeaveSnapshot(t, e, c, persisted)
	status := s.GroupStatus()

	// THEN phase 1 with no candidates reproduces the plain resolve
	if len(status.Periods) != len(direct.Periods) {
		t.Fatalf("period count differs: %d vs %d", len(status.Periods), len(direct.Periods))
	}
	for i := range direct.Periods {
		d, p := direct.Periods[i], status.Periods[i]
		if d.TakableAmount != p.TakableAmount || d.TakenAmount != p.TakenAmount {
			t.Errorf("period %d differs: %d/%d vs %d/%d",
				i, d.TakableAmount, d.TakenAmount, p.TakableAmount, p.TakenAmount)
		}
	}
}

func TestSnapshot_RequiresReferenceDate(t *testing.T) {
	e := newEngine()
	g := mustGroup(t, e, catalog.GroupSpecialLeave)

	if _, err := e.Snapshot(testPerson(), g, interval.Date{}, nil, nil); err == nil {
		t.Error("expected error for zero reference date")
	}
}

// =============================================================================
// PHASE 2 - SINGLE CANDIDATES
// =============================================================================

func TestSimulateInsert_Fits(t *testing.T) {
	// GIVEN 80 minutes already persisted against the 18-hour limit
	e := newEngine()
	c := fullTimeContract(date(2018, time.January, 1))
	s := specialLeaveSnapshot(t, e, c, []hr.Absence{minutesAbsence(2025, time.March, 4, 80)})

	// WHEN a 40-minute candidate is simulated
	candidate := minutesAbsence(2025, time.March, 5, 40)
	out := e.SimulateInsert(s, candidate)

	// THEN it fits, and the returned chain records the insertion
	if out.Kind != engine.OutcomeSuccess {
		t.Fatalf("kind = %s (%s), want success", out.Kind, out.Reason)
	}
	if out.GroupUsed != catalog.GroupSpecialLeave {
		t.Errorf("group used = %q", out.GroupUsed)
	}
	if out.Chain == nil || out.Chain.Success == nil {
		t.Fatal("accepting chain must carry the success record")
	}
	if !out.Chain.Success.AttemptedInsertAbsence.Date.Equal(candidate.Date) {
		t.Error("success record must carry the candidate")
	}
	if got := out.Chain.Periods[0].TakenAmount; got != 120 {
		t.Errorf("simulated taken = %d, want 120", got)
	}
}

func TestSimulateInsert_DoesNotMutateTheSnapshot(t *testing.T) {
	e := newEngine()
	c := fullTimeContract(date(2018, time.January, 1))
	s := specialLeaveSnapshot(t, e, c, []hr.Absence{minutesAbsence(2025, time.March, 4, 80)})

	e.SimulateInsert(s, minutesAbsence(2025, time.March, 5, 40))
	e.SimulateInsert(s, minutesAbsence(2025, time.March, 6, 40))

	// phase 1 totals are untouched by any number of phase-2 calls
	if got := s.GroupStatus().Periods[0].TakenAmount; got != 80 {
		t.Errorf("snapshot taken = %d after simulations, want 80", got)
	}
}

func TestSimulateInsert_LimitExceeded(t *testing.T) {
	e := newEngine()
	c := fullTimeContract(date(2018, time.January, 1))
	s := specialLeaveSnapshot(t, e, c, []hr.Absence{minutesAbsence(2025, time.March, 4, 1050)})

	out := e.SimulateInsert(s, minutesAbsence(2025, time.March, 5, 40))

	if out.Kind != engine.OutcomeError || out.Reason != engine.ReasonLimitExceeded {
		t.Errorf("got %s/%s, want error/limit exceeded", out.Kind, out.Reason)
	}
}

func TestSimulateInsert_Duplicate(t *testing.T) {
	e := newEngine()
	c := fullTimeContract(date(2018, time.January, 1))
	persisted := []hr.Absence{minutesAbsence(2025, time.March, 4, 80)}
	s := specialLeaveSnapshot(t, e, c, persisted)

	out := e.SimulateInsert(s, minutesAbsence(2025, time.March, 4, 40))

	if out.Kind != engine.OutcomeError || out.Reason != engine.ReasonDuplicate {
		t.Errorf("got %s/%s, want error/duplicate", out.Kind, out.Reason)
	}
}

func TestSimulateInsert_OutsidePeriods(t *testing.T) {
	e := newEngine()
	c := fullTimeContract(date(2020, time.January, 1))
	s := specialLeaveSnapshot(t, e, c, nil)

	// a weekday before the contract begins
	out := e.SimulateInsert(s, minutesAbsence(2019, time.June, 3, 60))

	if out.Kind != engine.OutcomeError || out.Reason != engine.ReasonOutsidePeriods {
		t.Errorf("got %s/%s, want error/outside periods", out.Kind, out.Reason)
	}
}

func TestSimulateInsert_CodeNotTakable(t *testing.T) {
	e := newEngine()
	c := fullTimeContract(date(2018, time.January, 1))
	s := specialLeaveSnapshot(t, e, c, nil)

	// a permission day against the special-leave chain
	out := e.SimulateInsert(s, hr.Absence{PersonID: 1, Date: date(2025, time.March, 4), Code: catalog.CodePermissionDay})

	if out.Kind != engine.OutcomeError || out.Reason != engine.ReasonCodeNotTakable {
		t.Errorf("got %s/%s, want error/code not takable", out.Kind, out.Reason)
	}
}

func TestSimulateInsert_WeekendIgnored(t *testing.T) {
	e := newEngine()
	c := fullTimeContract(date(2018, time.January, 1))
	s := specialLeaveSnapshot(t, e, c, nil)

	// 2025-03-08 is a Saturday
	out := e.SimulateInsert(s, minutesAbsence(2025, time.March, 8, 60))

	if out.Kind != engine.OutcomeIgnored {
		t.Errorf("kind = %s, want ignored", out.Kind)
	}
}

func TestSimulateInsert_CarryCodeChargesPreviousYear(t *testing.T) {
	// GIVEN a vacation snapshot in 2025
	e := newEngine()
	g := mustGroup(t, e, catalog.GroupVacation)
	c := fullTimeContract(date(2018, time.January, 1))
	s, err := e.Snapshot(testPerson(), g, date(2025, time.June, 15), []hr.Contract{c}, nil)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	// WHEN a previous-year code is simulated inside the carry window
	out := e.SimulateInsert(s, hr.Absence{PersonID: 1, Date: date(2025, time.March, 3), Code: catalog.CodeVacationLastYear})

	// THEN it fits and charges the 2024 period
	if out.Kind != engine.OutcomeSuccess {
		t.Fatalf("kind = %s (%s), want success", out.Kind, out.Reason)
	}
	y2024 := out.Chain.Periods[out.Chain.PeriodForYear(2024)]
	if y2024.TakenAmount != 100 {
		t.Errorf("2024 taken = %d, want 100", y2024.TakenAmount)
	}
}

func TestSimulateInsert_AfterDeadlineCodeUsesThePreviousYear(t *testing.T) {
	// GIVEN a vacation snapshot taken after the 31 August carry deadline
	e := newEngine()
	g := mustGroup(t, e, catalog.GroupVacation)
	c := fullTimeContract(date(2018, time.January, 1))
	s, err := e.Snapshot(testPerson(), g, date(2025, time.October, 15), []hr.Contract{c}, nil)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	// WHEN a code-37 day dated past the deadline is simulated
	out := e.SimulateInsert(s, hr.Absence{PersonID: 1, Date: date(2025, time.September, 8), Code: catalog.CodeVacationAfterDeadline})

	// THEN it still fits, charging the 2024 period
	if out.Kind != engine.OutcomeSuccess {
		t.Fatalf("kind = %s (%s), want success", out.Kind, out.Reason)
	}
	if out.GroupUsed != catalog.GroupVacation {
		t.Errorf("group used = %q", out.GroupUsed)
	}
	y2024 := out.Chain.Periods[out.Chain.PeriodForYear(2024)]
	if y2024.TakenAmount != 100 {
		t.Errorf("2024 taken = %d, want 100", y2024.TakenAmount)
	}
}

// =============================================================================
// GROUP CHAIN FALLTHROUGH
// =============================================================================

func TestSimulateInsert_FallsThroughWithReplacingCode(t *testing.T) {
	// GIVEN group A exhausted by two persisted days, chaining into B
	e := engine.New(miniChainCatalog(t))
	c := fullTimeContract(date(2025, time.January, 1))
	persisted := []hr.Absence{
		{PersonID: 1, Date: date(2025, time.March, 3), Code: "X"},
		{PersonID: 1, Date: date(2025, time.March, 4), Code: "X"},
	}
	g := mustGroup(t, e, "A")
	s, err := e.Snapshot(testPerson(), g, date(2025, time.June, 15), []hr.Contract{c}, persisted)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	// WHEN a third X day is simulated
	out := e.SimulateInsert(s, hr.Absence{PersonID: 1, Date: date(2025, time.March, 5), Code: "X"})

	// THEN it lands in B under the replacing code
	if out.Kind != engine.OutcomeReplacing {
		t.Fatalf("kind = %s (%s), want replacing", out.Kind, out.Reason)
	}
	if out.GroupUsed != "B" {
		t.Errorf("group used = %q, want B", out.GroupUsed)
	}
	if out.ReplacingCode != "Y" || out.Absence.Code != "Y" {
		t.Errorf("substitution missing: code %q, replacing %q", out.Absence.Code, out.ReplacingCode)
	}
	if got := out.Chain.Periods[0].TakenAmount; got != 100 {
		t.Errorf("B taken = %d, want 100", got)
	}
}

func TestSimulateInsert_WholeChainExhausted(t *testing.T) {
	e := engine.New(miniChainCatalog(t))
	c := fullTimeContract(date(2025, time.January, 1))
	// A full (2 days) and B full (3 days under the replacing code)
	persisted := []hr.Absence{
		{PersonID: 1, Date: date(2025, time.March, 3), Code: "X"},
		{PersonID: 1, Date: date(2025, time.March, 4), Code: "X"},
		{PersonID: 1, Date: date(2025, time.March, 5), Code: "Y"},
		{PersonID: 1, Date: date(2025, time.March, 6), Code: "Y"},
		{PersonID: 1, Date: date(2025, time.March, 7), Code: "Y"},
	}
	g := mustGroup(t, e, "A")
	s, err := e.Snapshot(testPerson(), g, date(2025, time.June, 15), []hr.Contract{c}, persisted)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	out := e.SimulateInsert(s, hr.Absence{PersonID: 1, Date: date(2025, time.March, 10), Code: "X"})

	if out.Kind != engine.OutcomeError || out.Reason != engine.ReasonLimitExceeded {
		t.Errorf("got %s/%s, want error/limit exceeded", out.Kind, out.Reason)
	}
}

// =============================================================================
// BATCH INSERTION
// =============================================================================

func TestInsertBatch_SkipsWeekends(t *testing.T) {
	// GIVEN a vacation batch from Thursday to the following Monday
	e := newEngine()
	g := mustGroup(t, e, catalog.GroupVacation)
	c := fullTimeContract(date(2018, time.January, 1))
	s, err := e.Snapshot(testPerson(), g, date(2025, time.June, 15), []hr.Contract{c}, nil)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	report := e.InsertBatch(s, catalog.CodeVacationCurrentYear, 0,
		date(2025, time.March, 6), date(2025, time.March, 10))

	if report.HowManySuccess != 3 {
		t.Errorf("success = %d, want 3 (Thu, Fri, Mon)", report.HowManySuccess)
	}
	if report.HowManyIgnored != 2 {
		t.Errorf("ignored = %d, want 2 (Sat, Sun)", report.HowManyIgnored)
	}
	if report.HowManyError != 0 {
		t.Errorf("error = %d, want 0", report.HowManyError)
	}
	if len(report.Outcomes) != 5 {
		t.Errorf("outcomes = %d, want one per day", len(report.Outcomes))
	}
}

func TestInsertBatch_AcceptedDaysCountAgainstLaterDays(t *testing.T) {
	// GIVEN a four-day permission quota and a batch spanning six weekdays
	e := newEngine()
	g := mustGroup(t, e, catalog.GroupPermission)
	c := fullTimeContract(date(2018, time.January, 1))
	s, err := e.Snapshot(testPerson(), g, date(2025, time.June, 15), []hr.Contract{c}, nil)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	// Mon 3 .. Mon 10: four fit, Fri and the second Mon exceed the quota
	report := e.InsertBatch(s, catalog.CodePermissionDay, 0,
		date(2025, time.March, 3), date(2025, time.March, 10))

	if report.HowManySuccess != 4 {
		t.Errorf("success = %d, want 4", report.HowManySuccess)
	}
	if report.HowManyError != 2 {
		t.Errorf("error = %d, want 2", report.HowManyError)
	}
	if report.HowManyIgnored != 2 {
		t.Errorf("ignored = %d, want 2", report.HowManyIgnored)
	}
	for _, o := range report.Outcomes {
		if o.Kind == engine.OutcomeError && o.Reason != engine.ReasonLimitExceeded {
			t.Errorf("day %v rejected for %s, want limit exceeded", o.Date, o.Reason)
		}
	}

	// the snapshot still reports an untouched quota
	status := s.GroupStatus()
	if got := status.Periods[status.PeriodForYear(2025)].TakenAmount; got != 0 {
		t.Errorf("snapshot taken = %d after batch, want 0", got)
	}
}
