/*
simulator.go - Two-phase candidate insertion

PURPOSE:
  Batch-insert UIs loop over a date range, asking day by day whether one
  more absence fits. The expensive part - building and resolving the
  period chains - depends only on (person, group, date, contracts,
  persisted absences), so it is done once (phase 1) and frozen in a
  Snapshot. Phase 2 tries one candidate against that snapshot and returns
  a fresh chain with the affected period re-resolved; the snapshot is
  never mutated, so phase 2 is safe to call repeatedly with different
  candidates, and a batch loop can abort between days without side
  effects.

GROUP CHAINING:
  When a group's limit is exhausted, the candidate falls through to the
  group's NextGroupToCheck, substituting the completion behaviour's
  replacing code when the next group does not take the original one. The
  first group with room wins. A chain with no room anywhere is a reported
  outcome, not an error.
*/
package engine

import (
	"github.com/attimo/absence-engine/catalog"
	"github.com/attimo/absence-engine/hr"
	"github.com/attimo/absence-engine/interval"
)

// =============================================================================
// PHASE 1 - SNAPSHOT
// =============================================================================

// Snapshot is the frozen phase-1 result: every chain of the group's
// fallthrough sequence, built and resolved against the persisted
// absences only. Immutable after construction.
type Snapshot struct {
	person    hr.Person
	group     catalog.Group
	date      interval.Date
	contracts []hr.Contract
	persisted []hr.Absence

	order  []catalog.Group
	chains map[string]PeriodChain
}

// Snapshot runs phase 1. Pure function of its inputs; safe to memoize
// per request and to share across many phase-2 calls.
func (e *Engine) Snapshot(person hr.Person, group catalog.Group, referenceDate interval.Date, contracts []hr.Contract, persisted []hr.Absence) (*Snapshot, error) {
	groups, err := e.Catalog.Chain(group.Name)
	if err != nil {
		return nil, &PreconditionError{Op: "Snapshot", Err: ErrInvalidGroup}
	}
	if referenceDate.IsZero() {
		return nil, &PreconditionError{Op: "Snapshot", Err: ErrMissingReferenceDate}
	}

	s := &Snapshot{
		person:    person,
		group:     group,
		date:      referenceDate,
		contracts: append([]hr.Contract(nil), contracts...),
		persisted: append([]hr.Absence(nil), persisted...),
		order:     groups,
		chains:    make(map[string]PeriodChain, len(groups)),
	}

	for _, g := range groups {
		chain, err := e.BuildPeriods(person, g, referenceDate, contracts)
		if err != nil {
			return nil, err
		}
		if err := e.Resolve(&chain, persisted); err != nil {
			return nil, err
		}
		s.chains[g.Name] = chain
	}
	return s, nil
}

// Chain returns a copy of the phase-1 chain for a group in the sequence.
func (s *Snapshot) Chain(name string) (PeriodChain, bool) {
	chain, ok := s.chains[name]
	if !ok {
		return PeriodChain{}, false
	}
	return chain.clone(), true
}

// GroupStatus returns the phase-1 chain of the primary group.
func (s *Snapshot) GroupStatus() PeriodChain {
	chain, _ := s.Chain(s.group.Name)
	return chain
}

func (s *Snapshot) Date() interval.Date { return s.date }

// =============================================================================
// PHASE 2 - CANDIDATE INSERTION
// =============================================================================

// OutcomeKind classifies one simulated day.
type OutcomeKind string

const (
	OutcomeSuccess   OutcomeKind = "success"
	OutcomeReplacing OutcomeKind = "replacing" // completion substitution occurred
	OutcomeIgnored   OutcomeKind = "ignored"   // holiday skipped per group policy
	OutcomeError     OutcomeKind = "error"
)

// DayOutcome is the phase-2 result for one candidate.
type DayOutcome struct {
	Date    interval.Date
	Kind    OutcomeKind
	Reason  RejectReason
	Absence hr.Absence // the absence as it would be inserted (possibly substituted)

	// GroupUsed names the chain group that accepted the candidate.
	GroupUsed     string
	ReplacingCode string

	// Chain is the re-resolved chain of the accepting group, with
	// Success populated. Nil unless the candidate fit.
	Chain *PeriodChain
}

// SimulateInsert runs phase 2 for one candidate against the snapshot.
// It never mutates the snapshot; each call returns its own period-local
// totals.
func (e *Engine) SimulateInsert(s *Snapshot, candidate hr.Absence) DayOutcome {
	return e.simulate(s, candidate, nil)
}

func (e *Engine) simulate(s *Snapshot, candidate hr.Absence, accepted []hr.Absence) DayOutcome {
	out := DayOutcome{Date: candidate.Date, Absence: candidate}

	if candidate.Date.IsZero() {
		out.Kind = OutcomeError
		out.Reason = ReasonOutsidePeriods
		return out
	}
	if candidate.Date.IsWeekend() && !s.group.TakableOnHolidays {
		out.Kind = OutcomeIgnored
		return out
	}
	for _, a := range s.persisted {
		if a.SameDayAndCode(candidate) {
			out.Kind = OutcomeError
			out.Reason = ReasonDuplicate
			return out
		}
	}
	for _, a := range accepted {
		if a.SameDayAndCode(candidate) {
			out.Kind = OutcomeError
			out.Reason = ReasonDuplicate
			return out
		}
	}

	var (
		sawTakable bool
		sawPeriod  bool
		prev       *catalog.Group
	)

	for gi := range s.order {
		g := s.order[gi]

		useCode, substituted, ok := effectiveCode(candidate.Code, prev, g)
		prev = &s.order[gi]
		if !ok {
			continue
		}
		sawTakable = true

		phase1 := s.chains[g.Name]
		idx := phase1.periodForConsumption(useCode, candidate.Date)
		if idx < 0 {
			continue
		}
		sawPeriod = true

		eff := candidate
		eff.Code = useCode

		cloned := phase1.clone()
		all := make([]hr.Absence, 0, len(s.persisted)+len(accepted)+1)
		all = append(all, s.persisted...)
		all = append(all, accepted...)
		all = append(all, eff)
		if err := e.Resolve(&cloned, all); err != nil {
			out.Kind = OutcomeError
			out.Reason = ReasonCodeNotTakable
			return out
		}

		p := &cloned.Periods[idx]
		if !p.TakableWithLimit || p.TakenAmount <= p.TakableAmount {
			t, _ := e.Catalog.TypeByCode(useCode)
			cloned.Success = &SuccessPeriodInsert{
				AttemptedInsertAbsence: eff,
				GroupName:              g.Name,
				Amount:                 justifiedAmount(g.Takable.AmountType, t, eff),
			}
			out.Absence = eff
			out.GroupUsed = g.Name
			out.Chain = &cloned
			if substituted {
				out.Kind = OutcomeReplacing
				out.ReplacingCode = useCode
			} else {
				out.Kind = OutcomeSuccess
			}
			return out
		}
		// limit exhausted here, fall through to the next group
	}

	out.Kind = OutcomeError
	switch {
	case !sawTakable:
		out.Reason = ReasonCodeNotTakable
	case !sawPeriod:
		out.Reason = ReasonOutsidePeriods
	default:
		out.Reason = ReasonLimitExceeded
	}
	return out
}

// effectiveCode resolves which code the candidate uses under a chain
// group: the original when the group takes it, else the previous group's
// replacing code when the candidate is one of its completion codes.
func effectiveCode(code string, prev *catalog.Group, g catalog.Group) (string, bool, bool) {
	if g.Takable.TakableCodes.Has(code) {
		return code, false, true
	}
	if prev != nil && prev.Completion != nil &&
		prev.Completion.CompletionCodes.Has(code) &&
		g.Takable.TakableCodes.Has(prev.Completion.ReplacingCode) {
		return prev.Completion.ReplacingCode, true, true
	}
	return "", false, false
}

// =============================================================================
// BATCH INSERTION REPORT
// =============================================================================

// InsertReport aggregates per-day phase-2 outcomes over a date range.
type InsertReport struct {
	HowManySuccess   int
	HowManyReplacing int
	HowManyIgnored   int
	HowManyError     int
	Outcomes         []DayOutcome
}

func (r *InsertReport) Add(o DayOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Kind {
	case OutcomeSuccess:
		r.HowManySuccess++
	case OutcomeReplacing:
		r.HowManyReplacing++
	case OutcomeIgnored:
		r.HowManyIgnored++
	default:
		r.HowManyError++
	}
}

// InsertBatch simulates inserting one code on every day of [from, to].
// Days accepted earlier in the batch count against later days, but the
// snapshot itself stays untouched: committing the accepted absences is
// the caller's transaction.
func (e *Engine) InsertBatch(s *Snapshot, code string, justifiedMinutes int64, from, to interval.Date) InsertReport {
	var report InsertReport
	var accepted []hr.Absence

	for d := from; !d.IsZero() && d.BeforeOrEqual(to); d = d.AddDays(1) {
		candidate := hr.Absence{
			PersonID:         s.person.ID,
			Date:             d,
			Code:             code,
			JustifiedMinutes: justifiedMinutes,
		}
		o := e.simulate(s, candidate, accepted)
		if o.Kind == OutcomeSuccess || o.Kind == OutcomeReplacing {
			accepted = append(accepted, o.Absence)
		}
		report.Add(o)
	}
	return report
}
