/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DATES:
  All dates travel as YYYY-MM-DD strings; an empty string means
  open-ended. Amounts are rendered both raw (fixed-point int64) and
  formatted for display.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - engine/chain.go: The domain types behind the period DTOs
*/
package api

import (
	"sort"

	"github.com/attimo/absence-engine/catalog"
	"github.com/attimo/absence-engine/engine"
	"github.com/attimo/absence-engine/hr"
	"github.com/attimo/absence-engine/interval"
	"github.com/attimo/absence-engine/vacation"
)

// =============================================================================
// PEOPLE AND CONTRACTS
// =============================================================================

// PersonDTO represents a person in API responses.
type PersonDTO struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Surname   string     `json:"surname"`
	BeginDate string     `json:"begin_date,omitempty"`
	Office    *OfficeDTO `json:"office,omitempty"`
}

type OfficeDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	BeginDate string `json:"begin_date,omitempty"`
}

// CreatePersonRequest is the request to create a person.
type CreatePersonRequest struct {
	Name      string     `json:"name"`
	Surname   string     `json:"surname"`
	BeginDate string     `json:"begin_date,omitempty"`
	Office    *OfficeDTO `json:"office,omitempty"`
}

// ContractDTO represents a contract in API responses.
type ContractDTO struct {
	ID              int64  `json:"id"`
	PersonID        int64  `json:"person_id"`
	Begin           string `json:"begin"`
	End             string `json:"end,omitempty"`
	EndContract     string `json:"end_contract,omitempty"`
	WorkTimePercent int    `json:"work_time_percent"`

	SourceDateResidual            string `json:"source_date_residual,omitempty"`
	SourceDateVacation            string `json:"source_date_vacation,omitempty"`
	SourceUsedMinutes             int64  `json:"source_used_minutes,omitempty"`
	SourceVacationLastYearUsed    int    `json:"source_vacation_last_year_used,omitempty"`
	SourceVacationCurrentYearUsed int    `json:"source_vacation_current_year_used,omitempty"`
	SourcePermissionUsed          int    `json:"source_permission_used,omitempty"`

	VacationPeriods []VacationPeriodDTO `json:"vacation_periods,omitempty"`
}

type VacationPeriodDTO struct {
	From           string `json:"from"`
	To             string `json:"to,omitempty"`
	Code           string `json:"code"`
	VacationDays   int    `json:"vacation_days"`
	PermissionDays int    `json:"permission_days"`
}

// CreateContractRequest is the request to create a contract. Vacation
// periods default to the standard 26+4/28+4 progression when omitted.
type CreateContractRequest struct {
	Begin           string `json:"begin"`
	End             string `json:"end,omitempty"`
	EndContract     string `json:"end_contract,omitempty"`
	WorkTimePercent int    `json:"work_time_percent,omitempty"`

	SourceDateResidual            string `json:"source_date_residual,omitempty"`
	SourceDateVacation            string `json:"source_date_vacation,omitempty"`
	SourceUsedMinutes             int64  `json:"source_used_minutes,omitempty"`
	SourceVacationLastYearUsed    int    `json:"source_vacation_last_year_used,omitempty"`
	SourceVacationCurrentYearUsed int    `json:"source_vacation_current_year_used,omitempty"`
	SourcePermissionUsed          int    `json:"source_permission_used,omitempty"`

	VacationPeriods []VacationPeriodDTO `json:"vacation_periods,omitempty"`
}

// =============================================================================
// ABSENCES AND INSERTION
// =============================================================================

// AbsenceDTO represents one recorded absence day.
type AbsenceDTO struct {
	ID               int64  `json:"id"`
	PersonID         int64  `json:"person_id"`
	Date             string `json:"date"`
	Code             string `json:"code"`
	JustifiedMinutes int64  `json:"justified_minutes,omitempty"`
}

// InsertAbsencesRequest asks for a batch insertion of one code over a
// date range. With dry_run the report is computed but nothing is saved.
type InsertAbsencesRequest struct {
	Code             string `json:"code"`
	JustifiedMinutes int64  `json:"justified_minutes,omitempty"`
	From             string `json:"from"`
	To               string `json:"to"`
	DryRun           bool   `json:"dry_run,omitempty"`
}

// DayOutcomeDTO is the per-day result of an insertion simulation.
type DayOutcomeDTO struct {
	Date          string `json:"date"`
	Outcome       string `json:"outcome"`
	Reason        string `json:"reason,omitempty"`
	Code          string `json:"code"`
	GroupUsed     string `json:"group_used,omitempty"`
	ReplacingCode string `json:"replacing_code,omitempty"`
}

// InsertReportDTO aggregates a batch insertion.
type InsertReportDTO struct {
	Success   int             `json:"success"`
	Replacing int             `json:"replacing"`
	Ignored   int             `json:"ignored"`
	Errors    int             `json:"errors"`
	Committed bool            `json:"committed"`
	Outcomes  []DayOutcomeDTO `json:"outcomes"`
}

// =============================================================================
// PERIOD CHAINS
// =============================================================================

// PeriodDTO is one accounting period with its amounts.
type PeriodDTO struct {
	From       string `json:"from"`
	To         string `json:"to,omitempty"`
	AmountType string `json:"amount_type"`

	TakableWithLimit bool   `json:"takable_with_limit"`
	Takable          int64  `json:"takable"`
	Taken            int64  `json:"taken"`
	Remaining        int64  `json:"remaining"`
	TakableDisplay   string `json:"takable_display"`
	TakenDisplay     string `json:"taken_display"`
	RemainingDisplay string `json:"remaining_display"`

	InitializationAmount  int64  `json:"initialization_amount,omitempty"`
	InitializationMissing bool   `json:"initialization_missing,omitempty"`
	ExpireDate            string `json:"expire_date,omitempty"`

	SubPeriods []SubPeriodDTO `json:"sub_periods,omitempty"`
}

type SubPeriodDTO struct {
	From   string `json:"from"`
	To     string `json:"to,omitempty"`
	Code   string `json:"code"`
	Amount int64  `json:"amount"`
}

// PeriodChainDTO is the resolved chain for one group.
type PeriodChainDTO struct {
	Group   string      `json:"group"`
	Date    string      `json:"date"`
	Periods []PeriodDTO `json:"periods"`
}

// =============================================================================
// VACATION SITUATION
// =============================================================================

type VacationSummaryDTO struct {
	Title                 string `json:"title"`
	Year                  int    `json:"year"`
	Total                 int    `json:"total"`
	Accrued               int    `json:"accrued"`
	Used                  int    `json:"used"`
	UsableTotal           int    `json:"usable_total"`
	Usable                int    `json:"usable"`
	Expired               bool   `json:"expired"`
	InitializationMissing bool   `json:"initialization_missing,omitempty"`
}

type VacationSituationDTO struct {
	PersonID    int64              `json:"person_id"`
	Year        int                `json:"year"`
	LastYear    VacationSummaryDTO `json:"last_year"`
	CurrentYear VacationSummaryDTO `json:"current_year"`
	Permissions VacationSummaryDTO `json:"permissions"`
}

// =============================================================================
// CATALOG
// =============================================================================

type GroupDTO struct {
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	PeriodType       string   `json:"period_type"`
	AmountType       string   `json:"amount_type"`
	TakableCodes     []string `json:"takable_codes"`
	NextGroupToCheck string   `json:"next_group_to_check,omitempty"`
}

type AbsenceTypeDTO struct {
	Code             string `json:"code"`
	Description      string `json:"description,omitempty"`
	Mode             string `json:"mode"`
	JustifiedMinutes int64  `json:"justified_minutes,omitempty"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toPersonDTO(p hr.Person) PersonDTO {
	dto := PersonDTO{
		ID:        p.ID,
		Name:      p.Name,
		Surname:   p.Surname,
		BeginDate: dateString(p.BeginDate),
	}
	if p.Office.ID != 0 || p.Office.Name != "" {
		dto.Office = &OfficeDTO{
			ID:        p.Office.ID,
			Name:      p.Office.Name,
			BeginDate: dateString(p.Office.BeginDate),
		}
	}
	return dto
}

func toContractDTO(c hr.Contract) ContractDTO {
	dto := ContractDTO{
		ID:              c.ID,
		PersonID:        c.PersonID,
		Begin:           c.Begin.String(),
		End:             datePtrString(c.End),
		EndContract:     datePtrString(c.EndContract),
		WorkTimePercent: c.WorkPercent(),

		SourceDateResidual:            datePtrString(c.SourceDateResidual),
		SourceDateVacation:            datePtrString(c.SourceDateVacation),
		SourceUsedMinutes:             c.SourceUsedMinutes,
		SourceVacationLastYearUsed:    c.SourceVacationLastYearUsed,
		SourceVacationCurrentYearUsed: c.SourceVacationCurrentYearUsed,
		SourcePermissionUsed:          c.SourcePermissionUsed,
	}
	for _, vp := range c.VacationPeriods {
		dto.VacationPeriods = append(dto.VacationPeriods, VacationPeriodDTO{
			From:           vp.Interval.From.String(),
			To:             intervalToString(vp.Interval),
			Code:           vp.Code.Name,
			VacationDays:   vp.Code.VacationDays,
			PermissionDays: vp.Code.PermissionDays,
		})
	}
	return dto
}

func toAbsenceDTO(a hr.Absence) AbsenceDTO {
	return AbsenceDTO{
		ID:               a.ID,
		PersonID:         a.PersonID,
		Date:             a.Date.String(),
		Code:             a.Code,
		JustifiedMinutes: a.JustifiedMinutes,
	}
}

func toPeriodChainDTO(chain engine.PeriodChain) PeriodChainDTO {
	dto := PeriodChainDTO{
		Group:   chain.Group.Name,
		Date:    chain.Date.String(),
		Periods: make([]PeriodDTO, 0, len(chain.Periods)),
	}
	for i := range chain.Periods {
		p := &chain.Periods[i]
		pd := PeriodDTO{
			From:             p.Interval.From.String(),
			To:               intervalToString(p.Interval),
			AmountType:       string(p.AmountType),
			TakableWithLimit: p.TakableWithLimit,
			Takable:          p.TakableAmount,
			Taken:            p.TakenAmount,
			Remaining:        p.RemainingAmount(),
			TakableDisplay:   engine.FormatAmount(p.AmountType, p.TakableAmount),
			TakenDisplay:     engine.FormatAmount(p.AmountType, p.TakenAmount),
			RemainingDisplay: engine.FormatAmount(p.AmountType, p.RemainingAmount()),

			InitializationAmount:  p.InitializationAmount,
			InitializationMissing: p.InitializationMissing,
			ExpireDate:            dateString(p.ExpireDate),
		}
		for _, sp := range p.SubPeriods {
			pd.SubPeriods = append(pd.SubPeriods, SubPeriodDTO{
				From:   sp.Interval.From.String(),
				To:     intervalToString(sp.Interval),
				Code:   sp.Code.Name,
				Amount: sp.Amount,
			})
		}
		dto.Periods = append(dto.Periods, pd)
	}
	return dto
}

func toDayOutcomeDTO(o engine.DayOutcome) DayOutcomeDTO {
	return DayOutcomeDTO{
		Date:          o.Date.String(),
		Outcome:       string(o.Kind),
		Reason:        string(o.Reason),
		Code:          o.Absence.Code,
		GroupUsed:     o.GroupUsed,
		ReplacingCode: o.ReplacingCode,
	}
}

func toInsertReportDTO(report engine.InsertReport, committed bool) InsertReportDTO {
	dto := InsertReportDTO{
		Success:   report.HowManySuccess,
		Replacing: report.HowManyReplacing,
		Ignored:   report.HowManyIgnored,
		Errors:    report.HowManyError,
		Committed: committed,
		Outcomes:  make([]DayOutcomeDTO, 0, len(report.Outcomes)),
	}
	for _, o := range report.Outcomes {
		dto.Outcomes = append(dto.Outcomes, toDayOutcomeDTO(o))
	}
	return dto
}

func toVacationSummaryDTO(s vacation.VacationSummary) VacationSummaryDTO {
	return VacationSummaryDTO{
		Title:                 s.Title,
		Year:                  s.Year,
		Total:                 s.Total,
		Accrued:               s.Accrued,
		Used:                  s.Used,
		UsableTotal:           s.UsableTotal,
		Usable:                s.Usable,
		Expired:               s.Expired,
		InitializationMissing: s.InitializationMissing,
	}
}

func toVacationSituationDTO(s vacation.VacationSituation) VacationSituationDTO {
	return VacationSituationDTO{
		PersonID:    s.Person.ID,
		Year:        s.Year,
		LastYear:    toVacationSummaryDTO(s.LastYear),
		CurrentYear: toVacationSummaryDTO(s.CurrentYear),
		Permissions: toVacationSummaryDTO(s.Permissions),
	}
}

func toGroupDTO(g catalog.Group) GroupDTO {
	dto := GroupDTO{
		Name:             g.Name,
		Description:      g.Description,
		PeriodType:       string(g.PeriodType),
		AmountType:       string(g.Takable.AmountType),
		NextGroupToCheck: g.NextGroupToCheck,
	}
	for code := range g.Takable.TakableCodes {
		dto.TakableCodes = append(dto.TakableCodes, code)
	}
	sort.Strings(dto.TakableCodes)
	return dto
}

func dateString(d interval.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func datePtrString(d *interval.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func intervalToString(i interval.Interval) string {
	if i.IsOpen() {
		return ""
	}
	return i.To.String()
}
