/*
Package catalog holds the static absence rule definitions.

PURPOSE:
  An absence code never carries its own limits. Codes are bundled into
  Groups, and each Group owns a TakableBehaviour (the limit policy) and
  optionally a CompletionBehaviour (the substitution policy once the
  primary limit is exhausted). Groups can point at a next group to check,
  forming a fallthrough chain evaluated by the engine.

KEY CONCEPTS:
  - AbsenceType:        one absence code and its justified-time semantics
  - TakableBehaviour:   how much can be taken, in which unit, with which
                        proportional adjustment
  - CompletionBehaviour: which codes complete into a replacing code once
                        the completion counter runs out
  - Group:              the bundle, plus the optional chain link

AMOUNT REPRESENTATION:
  All amounts are fixed-point int64:
    - AmountUnits:   hundredths of a day (one day = 100)
    - AmountMinutes: minutes
  Proportional adjustments truncate, never round.

SEE ALSO:
  - catalog.go:  the validated registry and chain traversal
  - defaults.go: the reference groups (FERIE, PERMESSI, G_661, G_23/G_25)
*/
package catalog

import "github.com/attimo/absence-engine/interval"

// =============================================================================
// AMOUNTS AND PERIOD KINDS
// =============================================================================

// AmountType is the unit of a behaviour's fixed-point amounts.
type AmountType string

const (
	// AmountUnits counts hundredths of a day: one full day is 100.
	AmountUnits AmountType = "units"
	// AmountMinutes counts minutes of justified time.
	AmountMinutes AmountType = "minutes"
)

// PeriodType controls how the period builder slices a contract.
type PeriodType string

const (
	PeriodCareer  PeriodType = "career"  // one period per contract
	PeriodYearly  PeriodType = "yearly"  // one period per calendar year
	PeriodMonthly PeriodType = "monthly" // one period per month
)

// AmountAdjustment selects the proportional adjustment of a takable limit.
//
// The asymmetry is deliberate policy data: career-long limits shrink with
// the work-time percentage only (a part-timer hired mid-year keeps the same
// limit as one hired in January), while yearly quotas shrink with calendar
// coverage of the year.
type AmountAdjustment string

const (
	AdjustNone         AmountAdjustment = "none"
	AdjustWorkTime     AmountAdjustment = "work_time_percent"
	AdjustCalendarDays AmountAdjustment = "calendar_days"
)

// AmountSource says where a behaviour's base amount comes from.
type AmountSource string

const (
	// SourceFixed uses TakableBehaviour.FixedLimit.
	SourceFixed AmountSource = "fixed"
	// SourceVacationCode reads the vacation-day quota of the vacation code
	// in force during the (sub)period.
	SourceVacationCode AmountSource = "vacation_code"
	// SourcePermissionCode reads the permission-day quota of the vacation code.
	SourcePermissionCode AmountSource = "permission_code"
)

// =============================================================================
// ABSENCE TYPE - one code of the catalog
// =============================================================================

// JustifiedMode is how an absence of a given type charges the entitlement.
type JustifiedMode string

const (
	// JustifiedAllDay charges one full day (100 units, or the working-day
	// minutes when counted in minutes).
	JustifiedAllDay JustifiedMode = "all_day"
	// JustifiedSpecifiedMinutes charges the minutes recorded on the absence.
	JustifiedSpecifiedMinutes JustifiedMode = "specified_minutes"
	// JustifiedAllDayLimit charges a flat per-type minute cap regardless of
	// the actual working time (the 661G six-hour rule: a 7h12m day charges
	// a flat 360 minutes).
	JustifiedAllDayLimit JustifiedMode = "all_day_limit"
)

type AbsenceType struct {
	Code        string
	Description string
	Mode        JustifiedMode

	// JustifiedMinutes is the flat charge for JustifiedAllDayLimit types.
	JustifiedMinutes int64

	// Validity bounds when the code may be used. Zero interval = always.
	Validity interval.Interval
}

// IsValidOn reports whether the code can be used on the given day.
func (t AbsenceType) IsValidOn(d interval.Date) bool {
	if t.Validity.From.IsZero() {
		return true
	}
	return t.Validity.Contains(d)
}

// =============================================================================
// BEHAVIOURS
// =============================================================================

// CodeSet is a set of absence-type codes.
type CodeSet map[string]struct{}

func NewCodeSet(codes ...string) CodeSet {
	s := make(CodeSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

func (s CodeSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// TakableBehaviour is the limit policy of a group.
//
// TakableCodes are the codes a request may use under the group.
// TakenCodes are the codes that count against the limit; the two sets may
// differ (a code can consume a limit it cannot be requested under).
type TakableBehaviour struct {
	Name       string
	AmountType AmountType
	Source     AmountSource

	// FixedLimit is the base amount for SourceFixed, in AmountType units.
	// A negative value means no limit.
	FixedLimit int64

	Adjustment AmountAdjustment

	TakableCodes CodeSet
	TakenCodes   CodeSet
}

// HasLimit reports whether the behaviour enforces a ceiling at all.
func (b TakableBehaviour) HasLimit() bool {
	return b.Source != SourceFixed || b.FixedLimit >= 0
}

// CompletionBehaviour is the substitution policy of a group: completion
// codes draw on their own counter, and once it is exhausted further
// completion-coded days are flagged for substitution by the replacing code.
// The engine signals the substitution; it never applies it on its own.
type CompletionBehaviour struct {
	Name            string
	AmountType      AmountType
	LimitAmount     int64
	CompletionCodes CodeSet
	ReplacingCode   string
}

// =============================================================================
// GROUP
// =============================================================================

type Group struct {
	Name        string
	Description string
	Priority    int
	PeriodType  PeriodType

	Takable    TakableBehaviour
	Completion *CompletionBehaviour

	// NextGroupToCheck names the group the engine falls through to when
	// this group's limit is exhausted. Empty = end of chain.
	NextGroupToCheck string

	// TakableOnHolidays: when false, candidate days landing on weekends are
	// skipped (reported as ignored) instead of rejected.
	TakableOnHolidays bool

	// CarryTakenCodes consume this group's entitlement when dated inside
	// the carry window that follows the period (previous-year vacation
	// codes). CarryExpireMonth/Day bound that window; zero = no carry.
	CarryTakenCodes  CodeSet
	CarryExpireMonth int
	CarryExpireDay   int

	// CarryAfterDeadlineCodes consume the entitlement anywhere in the year
	// that follows the period, deadline included or not. They model the
	// authorized-past-deadline codes that outlive the ordinary carry window.
	CarryAfterDeadlineCodes CodeSet
}

// HasCarryWindow reports whether periods of this group stay consumable
// past their end, up to the configured deadline of the following year.
func (g Group) HasCarryWindow() bool {
	return g.CarryExpireMonth != 0 &&
		(len(g.CarryTakenCodes) > 0 || len(g.CarryAfterDeadlineCodes) > 0)
}
