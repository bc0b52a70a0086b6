/*
handlers.go - HTTP request handlers

PURPOSE:
  Implements the REST endpoints: people and contracts, absence recording,
  group status queries, insertion simulation and the vacation dashboard.
  Handlers follow a consistent pattern:
  1. Parse and validate input (path params, query params, JSON body)
  2. Fetch the person's contracts and absences from the store
  3. Call the engine / calculator with plain collections
  4. Map the result (or the error) to a DTO and status code

ERROR MAPPING:
  - unknown person, unknown group       -> 404
  - malformed input, zero dates         -> 400
  - duplicate absence on commit         -> 409
  - everything else                     -> 500

WRITE PATH:
  Absence insertion is simulate-then-commit: the whole batch is simulated
  against a snapshot first, and only accepted days are saved. With
  dry_run=true the commit step is skipped and the report alone returns.

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go:    Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/attimo/absence-engine/engine"
	"github.com/attimo/absence-engine/hr"
	"github.com/attimo/absence-engine/interval"
	"github.com/attimo/absence-engine/vacation"
)

// Handler holds the dependencies of all endpoints.
type Handler struct {
	store     hr.Store
	engine    *engine.Engine
	vacations *vacation.Calculator
	log       *logrus.Logger
}

// NewHandler creates a handler with its dependencies.
func NewHandler(store hr.Store, eng *engine.Engine, vac *vacation.Calculator, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{store: store, engine: eng, vacations: vac, log: log}
}

// =============================================================================
// PEOPLE
// =============================================================================

// ListPeople handles GET /api/people
func (h *Handler) ListPeople(w http.ResponseWriter, r *http.Request) {
	people, err := h.store.ListPeople(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list people", err)
		return
	}
	out := make([]PersonDTO, 0, len(people))
	for _, p := range people {
		out = append(out, toPersonDTO(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreatePerson handles POST /api/people
func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req CreatePersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Name == "" || req.Surname == "" {
		writeError(w, http.StatusBadRequest, "name and surname are required", nil)
		return
	}

	person := hr.Person{Name: req.Name, Surname: req.Surname}
	if req.BeginDate != "" {
		d, err := interval.Parse(req.BeginDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid begin_date", err)
			return
		}
		person.BeginDate = d
	}
	if req.Office != nil {
		person.Office = hr.Office{ID: req.Office.ID, Name: req.Office.Name}
		if req.Office.BeginDate != "" {
			d, err := interval.Parse(req.Office.BeginDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid office begin_date", err)
				return
			}
			person.Office.BeginDate = d
		}
	}

	if err := h.store.SavePerson(r.Context(), &person); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save person", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"person_id": person.ID,
		"surname":   person.Surname,
	}).Info("person created")
	writeJSON(w, http.StatusCreated, toPersonDTO(person))
}

// GetPerson handles GET /api/people/{personID}
func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	personID, ok := h.pathID(w, r, "personID")
	if !ok {
		return
	}
	person, err := h.store.GetPerson(r.Context(), personID)
	if err != nil {
		h.writeDomainError(w, "failed to get person", err)
		return
	}
	writeJSON(w, http.StatusOK, toPersonDTO(person))
}

// =============================================================================
// CONTRACTS
// =============================================================================

// ListContracts handles GET /api/people/{personID}/contracts
func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	personID, ok := h.pathID(w, r, "personID")
	if !ok {
		return
	}
	if _, err := h.store.GetPerson(r.Context(), personID); err != nil {
		h.writeDomainError(w, "failed to get person", err)
		return
	}
	contracts, err := h.store.ContractsByPerson(r.Context(), personID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list contracts", err)
		return
	}
	out := make([]ContractDTO, 0, len(contracts))
	for _, c := range contracts {
		out = append(out, toContractDTO(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateContract handles POST /api/people/{personID}/contracts
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	personID, ok := h.pathID(w, r, "personID")
	if !ok {
		return
	}
	if _, err := h.store.GetPerson(r.Context(), personID); err != nil {
		h.writeDomainError(w, "failed to get person", err)
		return
	}

	var req CreateContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	contract, err := contractFromRequest(personID, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid contract", err)
		return
	}

	if err := h.store.SaveContract(r.Context(), &contract); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save contract", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"person_id":   personID,
		"contract_id": contract.ID,
		"begin":       contract.Begin.String(),
	}).Info("contract created")
	writeJSON(w, http.StatusCreated, toContractDTO(contract))
}

func contractFromRequest(personID int64, req CreateContractRequest) (hr.Contract, error) {
	begin, err := interval.Parse(req.Begin)
	if err != nil {
		return hr.Contract{}, fmt.Errorf("invalid begin: %w", err)
	}

	c := hr.Contract{
		PersonID:        personID,
		Begin:           begin,
		WorkTimePercent: req.WorkTimePercent,

		SourceUsedMinutes:             req.SourceUsedMinutes,
		SourceVacationLastYearUsed:    req.SourceVacationLastYearUsed,
		SourceVacationCurrentYearUsed: req.SourceVacationCurrentYearUsed,
		SourcePermissionUsed:          req.SourcePermissionUsed,
	}

	optional := func(field, value string) (*interval.Date, error) {
		if value == "" {
			return nil, nil
		}
		d, err := interval.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", field, err)
		}
		return &d, nil
	}
	if c.End, err = optional("end", req.End); err != nil {
		return hr.Contract{}, err
	}
	if c.EndContract, err = optional("end_contract", req.EndContract); err != nil {
		return hr.Contract{}, err
	}
	if c.SourceDateResidual, err = optional("source_date_residual", req.SourceDateResidual); err != nil {
		return hr.Contract{}, err
	}
	if c.SourceDateVacation, err = optional("source_date_vacation", req.SourceDateVacation); err != nil {
		return hr.Contract{}, err
	}

	if len(req.VacationPeriods) == 0 {
		// Standard progression when the caller does not spell periods out.
		c.VacationPeriods = hr.DefaultVacationPeriods(begin)
		return c, nil
	}
	for _, vp := range req.VacationPeriods {
		from, err := interval.Parse(vp.From)
		if err != nil {
			return hr.Contract{}, fmt.Errorf("invalid vacation period from: %w", err)
		}
		iv := interval.OpenEnded(from)
		if vp.To != "" {
			to, err := interval.Parse(vp.To)
			if err != nil {
				return hr.Contract{}, fmt.Errorf("invalid vacation period to: %w", err)
			}
			iv = interval.Closed(from, to)
		}
		c.VacationPeriods = append(c.VacationPeriods, hr.VacationPeriod{
			Interval: iv,
			Code: hr.VacationCode{
				Name:           vp.Code,
				VacationDays:   vp.VacationDays,
				PermissionDays: vp.PermissionDays,
			},
		})
	}
	return c, nil
}

// =============================================================================
// ABSENCES
// =============================================================================

// ListAbsences handles GET /api/people/{personID}/absences
func (h *Handler) ListAbsences(w http.ResponseWriter, r *http.Request) {
	personID, ok := h.pathID(w, r, "personID")
	if !ok {
		return
	}
	if _, err := h.store.GetPerson(r.Context(), personID); err != nil {
		h.writeDomainError(w, "failed to get person", err)
		return
	}
	absences, err := h.store.AbsencesByPerson(r.Context(), personID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list absences", err)
		return
	}
	out := make([]AbsenceDTO, 0, len(absences))
	for _, a := range absences {
		out = append(out, toAbsenceDTO(a))
	}
	writeJSON(w, http.StatusOK, out)
}

// InsertAbsences handles POST /api/people/{personID}/absences
//
// The body names one code and a date range. The whole range is simulated
// first; accepted days (including completion substitutions) are then
// committed, unless dry_run is set.
func (h *Handler) InsertAbsences(w http.ResponseWriter, r *http.Request) {
	personID, ok := h.pathID(w, r, "personID")
	if !ok {
		return
	}

	var req InsertAbsencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required", nil)
		return
	}
	from, err := interval.Parse(req.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date", err)
		return
	}
	to := from
	if req.To != "" {
		if to, err = interval.Parse(req.To); err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date", err)
			return
		}
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to precedes from", nil)
		return
	}

	groups := h.engine.Catalog.GroupsForCode(req.Code)
	if len(groups) == 0 {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("code %q is not takable under any group", req.Code), nil)
		return
	}

	person, contracts, absences, ok := h.loadPersonData(w, r, personID)
	if !ok {
		return
	}

	snapshot, err := h.engine.Snapshot(person, groups[0], to, contracts, absences)
	if err != nil {
		h.writeDomainError(w, "failed to build snapshot", err)
		return
	}
	report := h.engine.InsertBatch(snapshot, req.Code, req.JustifiedMinutes, from, to)

	committed := false
	if !req.DryRun {
		for _, o := range report.Outcomes {
			if o.Kind != engine.OutcomeSuccess && o.Kind != engine.OutcomeReplacing {
				continue
			}
			a := o.Absence
			if err := h.store.SaveAbsence(r.Context(), &a); err != nil {
				h.writeDomainError(w, "failed to save absence", err)
				return
			}
		}
		committed = true
	}

	h.log.WithFields(logrus.Fields{
		"person_id": personID,
		"code":      req.Code,
		"from":      from.String(),
		"to":        to.String(),
		"success":   report.HowManySuccess,
		"replacing": report.HowManyReplacing,
		"ignored":   report.HowManyIgnored,
		"errors":    report.HowManyError,
		"dry_run":   req.DryRun,
	}).Info("absence batch processed")
	writeJSON(w, http.StatusOK, toInsertReportDTO(report, committed))
}

// DeleteAbsence handles DELETE /api/absences/{absenceID}
func (h *Handler) DeleteAbsence(w http.ResponseWriter, r *http.Request) {
	absenceID, ok := h.pathID(w, r, "absenceID")
	if !ok {
		return
	}
	if err := h.store.DeleteAbsence(r.Context(), absenceID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete absence", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// GROUP STATUS
// =============================================================================

// GroupStatus handles GET /api/people/{personID}/groups/{group}/status?date=YYYY-MM-DD
//
// Returns the resolved period chain of one group at the reference date
// (today when omitted).
func (h *Handler) GroupStatus(w http.ResponseWriter, r *http.Request) {
	personID, ok := h.pathID(w, r, "personID")
	if !ok {
		return
	}
	group, err := h.engine.Catalog.GroupByName(chi.URLParam(r, "group"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown group", err)
		return
	}
	date, ok := h.queryDate(w, r, "date", interval.Today())
	if !ok {
		return
	}

	person, contracts, absences, ok := h.loadPersonData(w, r, personID)
	if !ok {
		return
	}

	chain, err := h.engine.BuildPeriods(person, group, date, contracts)
	if err != nil {
		h.writeDomainError(w, "failed to build periods", err)
		return
	}
	if err := h.engine.Resolve(&chain, absences); err != nil {
		h.writeDomainError(w, "failed to resolve periods", err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodChainDTO(chain))
}

// =============================================================================
// VACATION SITUATION
// =============================================================================

// VacationSituation handles
// GET /api/people/{personID}/vacation-situation?year=&date=&force=
//
// The contract in force on the reference date drives the triad; year
// defaults to the reference date's year. force=true bypasses the cache,
// which callers should do right after committing absences.
func (h *Handler) VacationSituation(w http.ResponseWriter, r *http.Request) {
	personID, ok := h.pathID(w, r, "personID")
	if !ok {
		return
	}
	date, ok := h.queryDate(w, r, "date", interval.Today())
	if !ok {
		return
	}
	year := date.Year()
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year", err)
			return
		}
		year = y
	}
	force := r.URL.Query().Get("force") == "true"

	person, contracts, absences, ok := h.loadPersonData(w, r, personID)
	if !ok {
		return
	}
	contract, found := contractOn(contracts, date)
	if !found {
		writeError(w, http.StatusNotFound, "no contract covers the reference date", nil)
		return
	}

	situation, err := h.vacations.BuildVacationSituation(person, contract, year, date, force, absences)
	if err != nil {
		h.writeDomainError(w, "failed to build vacation situation", err)
		return
	}
	writeJSON(w, http.StatusOK, toVacationSituationDTO(situation))
}

// contractOn picks the contract active on the date, falling back to the
// most recent one so ex-employees still get a (frozen) dashboard.
func contractOn(contracts []hr.Contract, d interval.Date) (hr.Contract, bool) {
	for _, c := range contracts {
		if c.IsActiveOn(d) {
			return c, true
		}
	}
	if len(contracts) == 0 {
		return hr.Contract{}, false
	}
	return contracts[len(contracts)-1], true
}

// =============================================================================
// CATALOG
// =============================================================================

// ListGroups handles GET /api/catalog/groups
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	names := h.engine.Catalog.GroupNames()
	out := make([]GroupDTO, 0, len(names))
	for _, name := range names {
		g, err := h.engine.Catalog.GroupByName(name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load group", err)
			return
		}
		out = append(out, toGroupDTO(g))
	}
	writeJSON(w, http.StatusOK, out)
}

// ListAbsenceTypes handles GET /api/catalog/types
func (h *Handler) ListAbsenceTypes(w http.ResponseWriter, r *http.Request) {
	types := h.engine.Catalog.Types()
	out := make([]AbsenceTypeDTO, 0, len(types))
	for _, t := range types {
		out = append(out, AbsenceTypeDTO{
			Code:             t.Code,
			Description:      t.Description,
			Mode:             string(t.Mode),
			JustifiedMinutes: t.JustifiedMinutes,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadPersonData fetches the person with their contracts and absences;
// on failure the response is already written.
func (h *Handler) loadPersonData(w http.ResponseWriter, r *http.Request, personID int64) (hr.Person, []hr.Contract, []hr.Absence, bool) {
	person, err := h.store.GetPerson(r.Context(), personID)
	if err != nil {
		h.writeDomainError(w, "failed to get person", err)
		return hr.Person{}, nil, nil, false
	}
	contracts, err := h.store.ContractsByPerson(r.Context(), personID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list contracts", err)
		return hr.Person{}, nil, nil, false
	}
	absences, err := h.store.AbsencesByPerson(r.Context(), personID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list absences", err)
		return hr.Person{}, nil, nil, false
	}
	return person, contracts, absences, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name), err)
		return 0, false
	}
	return id, true
}

func (h *Handler) queryDate(w http.ResponseWriter, r *http.Request, name string, fallback interval.Date) (interval.Date, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, true
	}
	d, err := interval.Parse(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name), err)
		return interval.Date{}, false
	}
	return d, true
}

// writeDomainError maps domain errors to status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, hr.ErrPersonNotFound):
		writeError(w, http.StatusNotFound, "person not found", err)
	case errors.Is(err, hr.ErrDuplicateAbsence):
		writeError(w, http.StatusConflict, "absence already recorded", err)
	case errors.Is(err, engine.ErrMissingReferenceDate),
		errors.Is(err, engine.ErrInvalidGroup),
		errors.Is(err, engine.ErrUnknownAbsenceType):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.log.WithError(err).Error(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
