/*
Package factory provides JSON to Go catalog conversion.

PURPOSE:
  Converts JSON rule definitions into catalog.AbsenceType and
  catalog.Group objects. This enables rule configuration without code
  changes - HR can define absence groups in JSON, and the factory builds
  a validated catalog.

WHY JSON?
  - Non-developers can modify the rule set
  - Easy integration with an admin UI
  - Version control for rule definitions
  - Database storage of catalog configs

JSON SCHEMA:
  {
    "types": [
      {"code": "661M", "description": "Special leave (minutes)",
       "mode": "specified_minutes"},
      {"code": "661G", "mode": "all_day_limit", "justified_minutes": 360}
    ],
    "groups": [
      {
        "name": "G_661",
        "period_type": "career",
        "takable": {
          "amount_type": "minutes",
          "source": "fixed",
          "fixed_limit": 1080,
          "adjustment": "work_time_percent",
          "takable_codes": ["661M", "661G"],
          "taken_codes": ["661M", "661G"]
        }
      }
    ]
  }

KEY FEATURES:
  - Sets sensible defaults (units, no adjustment, taken = takable)
  - Delegates structural validation to catalog.New: unknown codes,
    dangling chain links and cycles fail at load time, not at request time

USAGE:
  cat, err := factory.ParseCatalog(jsonBytes)
  cat, err := factory.LoadCatalog("./config/catalog.json")

SEE ALSO:
  - catalog/types.go:    the Go rule types
  - catalog/defaults.go: the built-in reference rule set
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/attimo/absence-engine/catalog"
	"github.com/attimo/absence-engine/interval"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// CatalogJSON is the JSON representation of a full rule catalog.
type CatalogJSON struct {
	Types  []TypeJSON  `json:"types"`
	Groups []GroupJSON `json:"groups"`
}

// TypeJSON represents one absence code.
type TypeJSON struct {
	Code             string `json:"code"`
	Description      string `json:"description,omitempty"`
	Mode             string `json:"mode"` // all_day, specified_minutes, all_day_limit
	JustifiedMinutes int64  `json:"justified_minutes,omitempty"`
	ValidFrom        string `json:"valid_from,omitempty"`
	ValidTo          string `json:"valid_to,omitempty"`
}

// GroupJSON represents one absence group.
type GroupJSON struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Priority    int    `json:"priority,omitempty"`
	PeriodType  string `json:"period_type"` // career, yearly, monthly

	Takable    TakableJSON     `json:"takable"`
	Completion *CompletionJSON `json:"completion,omitempty"`

	NextGroupToCheck  string `json:"next_group_to_check,omitempty"`
	TakableOnHolidays bool   `json:"takable_on_holidays,omitempty"`

	CarryTakenCodes         []string `json:"carry_taken_codes,omitempty"`
	CarryAfterDeadlineCodes []string `json:"carry_after_deadline_codes,omitempty"`
	CarryExpireMonth        int      `json:"carry_expire_month,omitempty"`
	CarryExpireDay          int      `json:"carry_expire_day,omitempty"`
}

// TakableJSON represents a group's limit policy.
type TakableJSON struct {
	Name       string `json:"name,omitempty"`
	AmountType string `json:"amount_type,omitempty"` // units (default), minutes
	Source     string `json:"source,omitempty"`      // fixed (default), vacation_code, permission_code
	FixedLimit int64  `json:"fixed_limit,omitempty"`
	Adjustment string `json:"adjustment,omitempty"` // none (default), work_time_percent, calendar_days

	TakableCodes []string `json:"takable_codes"`
	// TakenCodes defaults to TakableCodes when omitted.
	TakenCodes []string `json:"taken_codes,omitempty"`
}

// CompletionJSON represents a group's substitution policy.
type CompletionJSON struct {
	Name            string   `json:"name,omitempty"`
	AmountType      string   `json:"amount_type,omitempty"`
	LimitAmount     int64    `json:"limit_amount"`
	CompletionCodes []string `json:"completion_codes"`
	ReplacingCode   string   `json:"replacing_code"`
}

// =============================================================================
// CATALOG FACTORY
// =============================================================================

// ParseCatalog parses JSON bytes into a validated catalog.
func ParseCatalog(data []byte) (*catalog.Catalog, error) {
	var cj CatalogJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	return FromJSON(cj)
}

// LoadCatalog reads and parses a catalog file.
func LoadCatalog(path string) (*catalog.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return ParseCatalog(data)
}

// FromJSON converts CatalogJSON to a validated catalog.
func FromJSON(cj CatalogJSON) (*catalog.Catalog, error) {
	types := make([]catalog.AbsenceType, 0, len(cj.Types))
	for _, tj := range cj.Types {
		t, err := parseType(tj)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}

	groups := make([]catalog.Group, 0, len(cj.Groups))
	for _, gj := range cj.Groups {
		g, err := parseGroup(gj)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}

	return catalog.New(types, groups)
}

// ToJSON converts a runtime catalog back to its JSON form (for admin UI).
func ToJSON(c *catalog.Catalog) CatalogJSON {
	var cj CatalogJSON
	for _, t := range c.Types() {
		tj := TypeJSON{
			Code:             t.Code,
			Description:      t.Description,
			Mode:             string(t.Mode),
			JustifiedMinutes: t.JustifiedMinutes,
		}
		if !t.Validity.From.IsZero() {
			tj.ValidFrom = t.Validity.From.String()
		}
		if !t.Validity.IsOpen() && !t.Validity.To.IsZero() {
			tj.ValidTo = t.Validity.To.String()
		}
		cj.Types = append(cj.Types, tj)
	}
	for _, name := range c.GroupNames() {
		g, _ := c.GroupByName(name)
		gj := GroupJSON{
			Name:              g.Name,
			Description:       g.Description,
			Priority:          g.Priority,
			PeriodType:        string(g.PeriodType),
			NextGroupToCheck:        g.NextGroupToCheck,
			TakableOnHolidays:       g.TakableOnHolidays,
			CarryTakenCodes:         codeList(g.CarryTakenCodes),
			CarryAfterDeadlineCodes: codeList(g.CarryAfterDeadlineCodes),
			CarryExpireMonth:        g.CarryExpireMonth,
			CarryExpireDay:          g.CarryExpireDay,
			Takable: TakableJSON{
				Name:         g.Takable.Name,
				AmountType:   string(g.Takable.AmountType),
				Source:       string(g.Takable.Source),
				FixedLimit:   g.Takable.FixedLimit,
				Adjustment:   string(g.Takable.Adjustment),
				TakableCodes: codeList(g.Takable.TakableCodes),
				TakenCodes:   codeList(g.Takable.TakenCodes),
			},
		}
		if g.Completion != nil {
			gj.Completion = &CompletionJSON{
				Name:            g.Completion.Name,
				AmountType:      string(g.Completion.AmountType),
				LimitAmount:     g.Completion.LimitAmount,
				CompletionCodes: codeList(g.Completion.CompletionCodes),
				ReplacingCode:   g.Completion.ReplacingCode,
			}
		}
		cj.Groups = append(cj.Groups, gj)
	}
	return cj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseType(tj TypeJSON) (catalog.AbsenceType, error) {
	t := catalog.AbsenceType{
		Code:             tj.Code,
		Description:      tj.Description,
		JustifiedMinutes: tj.JustifiedMinutes,
	}

	switch tj.Mode {
	case "", "all_day":
		t.Mode = catalog.JustifiedAllDay
	case "specified_minutes":
		t.Mode = catalog.JustifiedSpecifiedMinutes
	case "all_day_limit":
		t.Mode = catalog.JustifiedAllDayLimit
	default:
		return t, fmt.Errorf("type %q: unknown mode %q", tj.Code, tj.Mode)
	}

	if tj.ValidFrom != "" {
		from, err := interval.Parse(tj.ValidFrom)
		if err != nil {
			return t, fmt.Errorf("type %q: invalid valid_from: %w", tj.Code, err)
		}
		t.Validity = interval.OpenEnded(from)
		if tj.ValidTo != "" {
			to, err := interval.Parse(tj.ValidTo)
			if err != nil {
				return t, fmt.Errorf("type %q: invalid valid_to: %w", tj.Code, err)
			}
			t.Validity = interval.Closed(from, to)
		}
	}
	return t, nil
}

func parseGroup(gj GroupJSON) (catalog.Group, error) {
	g := catalog.Group{
		Name:              gj.Name,
		Description:       gj.Description,
		Priority:          gj.Priority,
		NextGroupToCheck:        gj.NextGroupToCheck,
		TakableOnHolidays:       gj.TakableOnHolidays,
		CarryTakenCodes:         catalog.NewCodeSet(gj.CarryTakenCodes...),
		CarryAfterDeadlineCodes: catalog.NewCodeSet(gj.CarryAfterDeadlineCodes...),
		CarryExpireMonth:        gj.CarryExpireMonth,
		CarryExpireDay:          gj.CarryExpireDay,
	}

	switch gj.PeriodType {
	case "career":
		g.PeriodType = catalog.PeriodCareer
	case "", "yearly":
		g.PeriodType = catalog.PeriodYearly
	case "monthly":
		g.PeriodType = catalog.PeriodMonthly
	default:
		return g, fmt.Errorf("group %q: unknown period_type %q", gj.Name, gj.PeriodType)
	}

	takable, err := parseTakable(gj.Name, gj.Takable)
	if err != nil {
		return g, err
	}
	g.Takable = takable

	if gj.Completion != nil {
		g.Completion = &catalog.CompletionBehaviour{
			Name:            gj.Completion.Name,
			AmountType:      parseAmountType(gj.Completion.AmountType),
			LimitAmount:     gj.Completion.LimitAmount,
			CompletionCodes: catalog.NewCodeSet(gj.Completion.CompletionCodes...),
			ReplacingCode:   gj.Completion.ReplacingCode,
		}
	}
	return g, nil
}

func parseTakable(groupName string, tj TakableJSON) (catalog.TakableBehaviour, error) {
	b := catalog.TakableBehaviour{
		Name:         tj.Name,
		AmountType:   parseAmountType(tj.AmountType),
		FixedLimit:   tj.FixedLimit,
		TakableCodes: catalog.NewCodeSet(tj.TakableCodes...),
		TakenCodes:   catalog.NewCodeSet(tj.TakenCodes...),
	}
	if len(tj.TakenCodes) == 0 {
		b.TakenCodes = catalog.NewCodeSet(tj.TakableCodes...)
	}

	switch tj.Source {
	case "", "fixed":
		b.Source = catalog.SourceFixed
	case "vacation_code":
		b.Source = catalog.SourceVacationCode
	case "permission_code":
		b.Source = catalog.SourcePermissionCode
	default:
		return b, fmt.Errorf("group %q: unknown source %q", groupName, tj.Source)
	}

	switch tj.Adjustment {
	case "", "none":
		b.Adjustment = catalog.AdjustNone
	case "work_time_percent":
		b.Adjustment = catalog.AdjustWorkTime
	case "calendar_days":
		b.Adjustment = catalog.AdjustCalendarDays
	default:
		return b, fmt.Errorf("group %q: unknown adjustment %q", groupName, tj.Adjustment)
	}
	return b, nil
}

func parseAmountType(s string) catalog.AmountType {
	if s == "minutes" {
		return catalog.AmountMinutes
	}
	return catalog.AmountUnits
}

func codeList(s catalog.CodeSet) []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
