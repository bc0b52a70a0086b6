package catalog

// =============================================================================
// REFERENCE CATALOG
// =============================================================================
// The standard public-sector rule set: vacation and permission days driven
// by the contract's vacation code, the 661 special-leave hours, and the
// paid parental leave chain completing into the 30%-pay group.

// Well-known group names.
const (
	GroupVacation     = "FERIE"
	GroupPermission   = "PERMESSI"
	GroupSpecialLeave = "G_661"
	GroupPaidLeave    = "G_23"
	GroupReducedLeave = "G_25"
)

// Well-known absence codes.
const (
	CodeVacationLastYear      = "31"   // previous-year vacation, within deadline
	CodeVacationCurrentYear   = "32"   // current-year vacation
	CodeVacationAfterDeadline = "37"   // previous-year vacation, authorized past deadline
	CodePermissionDay         = "94"   // personal permission day
	CodeSpecialLeaveMinutes   = "661M" // special leave, justified minutes
	CodeSpecialLeaveDay       = "661G" // special leave, whole day (six-hour rule)
	CodePaidLeave             = "23"   // parental leave, full pay
	CodeReducedLeave          = "25"   // parental leave, reduced pay
)

// MinutesSpecialLeaveDay is the flat charge of a whole-day 661 absence:
// six hours, whatever the working time of the day.
const MinutesSpecialLeaveDay = 360

// DefaultTypes returns the reference absence types.
func DefaultTypes() []AbsenceType {
	return []AbsenceType{
		{Code: CodeVacationLastYear, Description: "Previous year vacation", Mode: JustifiedAllDay},
		{Code: CodeVacationCurrentYear, Description: "Current year vacation", Mode: JustifiedAllDay},
		{Code: CodeVacationAfterDeadline, Description: "Previous year vacation after deadline", Mode: JustifiedAllDay},
		{Code: CodePermissionDay, Description: "Personal permission day", Mode: JustifiedAllDay},
		{Code: CodeSpecialLeaveMinutes, Description: "Special leave (minutes)", Mode: JustifiedSpecifiedMinutes},
		{Code: CodeSpecialLeaveDay, Description: "Special leave (whole day)", Mode: JustifiedAllDayLimit, JustifiedMinutes: MinutesSpecialLeaveDay},
		{Code: CodePaidLeave, Description: "Parental leave, full pay", Mode: JustifiedAllDay},
		{Code: CodeReducedLeave, Description: "Parental leave, reduced pay", Mode: JustifiedAllDay},
	}
}

// DefaultGroups returns the reference groups.
func DefaultGroups() []Group {
	return []Group{
		{
			Name:        GroupVacation,
			Description: "Vacation days",
			Priority:    1,
			PeriodType:  PeriodYearly,
			Takable: TakableBehaviour{
				Name:         "vacation-quota",
				AmountType:   AmountUnits,
				Source:       SourceVacationCode,
				Adjustment:   AdjustCalendarDays,
				TakableCodes: NewCodeSet(CodeVacationLastYear, CodeVacationCurrentYear, CodeVacationAfterDeadline),
				TakenCodes:   NewCodeSet(CodeVacationCurrentYear),
			},
			// Code 31 consumes the entitlement until 31 August of the
			// following year; code 37 covers authorized use through the
			// whole following year, past that deadline.
			CarryTakenCodes:         NewCodeSet(CodeVacationLastYear),
			CarryAfterDeadlineCodes: NewCodeSet(CodeVacationAfterDeadline),
			CarryExpireMonth:        8,
			CarryExpireDay:          31,
		},
		{
			Name:        GroupPermission,
			Description: "Personal permission days",
			Priority:    2,
			PeriodType:  PeriodYearly,
			Takable: TakableBehaviour{
				Name:         "permission-quota",
				AmountType:   AmountUnits,
				Source:       SourcePermissionCode,
				Adjustment:   AdjustCalendarDays,
				TakableCodes: NewCodeSet(CodePermissionDay),
				TakenCodes:   NewCodeSet(CodePermissionDay),
			},
		},
		{
			Name:        GroupSpecialLeave,
			Description: "Special leave, 18 hours per contract",
			Priority:    3,
			PeriodType:  PeriodCareer,
			Takable: TakableBehaviour{
				Name:       "special-leave-limit",
				AmountType: AmountMinutes,
				Source:     SourceFixed,
				FixedLimit: 1080, // 18 hours
				// Work-time proportion only: a part-timer gets half the
				// minutes, a mid-year hire keeps them all.
				Adjustment:   AdjustWorkTime,
				TakableCodes: NewCodeSet(CodeSpecialLeaveMinutes, CodeSpecialLeaveDay),
				TakenCodes:   NewCodeSet(CodeSpecialLeaveMinutes, CodeSpecialLeaveDay),
			},
		},
		{
			Name:        GroupPaidLeave,
			Description: "Parental leave at full pay",
			Priority:    4,
			PeriodType:  PeriodYearly,
			Takable: TakableBehaviour{
				Name:         "paid-leave-limit",
				AmountType:   AmountUnits,
				Source:       SourceFixed,
				FixedLimit:   3000, // 30 days
				Adjustment:   AdjustNone,
				TakableCodes: NewCodeSet(CodePaidLeave),
				TakenCodes:   NewCodeSet(CodePaidLeave),
			},
			Completion: &CompletionBehaviour{
				Name:            "paid-leave-completion",
				AmountType:      AmountUnits,
				LimitAmount:     3000,
				CompletionCodes: NewCodeSet(CodePaidLeave),
				ReplacingCode:   CodeReducedLeave,
			},
			NextGroupToCheck: GroupReducedLeave,
		},
		{
			Name:        GroupReducedLeave,
			Description: "Parental leave at reduced pay",
			Priority:    5,
			PeriodType:  PeriodYearly,
			Takable: TakableBehaviour{
				Name:         "reduced-leave-limit",
				AmountType:   AmountUnits,
				Source:       SourceFixed,
				FixedLimit:   15000, // 150 days
				Adjustment:   AdjustNone,
				TakableCodes: NewCodeSet(CodeReducedLeave),
				TakenCodes:   NewCodeSet(CodeReducedLeave),
			},
		},
	}
}

// Default builds the reference catalog. The reference data is known-good;
// a failure here is a programming error.
func Default() *Catalog {
	c, err := New(DefaultTypes(), DefaultGroups())
	if err != nil {
		panic(err)
	}
	return c
}
