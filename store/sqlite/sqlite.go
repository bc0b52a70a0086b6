/*
Package sqlite provides a SQLite-backed implementation of the hr storage
interfaces.

PURPOSE:
  Implements hr.Store (PersonStore, ContractStore, AbsenceStore) using
  SQLite. In production, the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

KEY TABLES:
  offices:          office registry with system entry dates
  people:           person records, each linked to an office
  contracts:        employments with their initialization anchors
  vacation_periods: per-contract vacation code progression
  absences:         one row per absence day and code

INVARIANTS:
  - idx_absences_unique enforces at most one absence per
    (person, date, code); violations surface as hr.ErrDuplicateAbsence
  - dates are stored as ISO YYYY-MM-DD strings; NULL means open-ended

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block and there is a single writer at a time.

USAGE:
  store, err := sqlite.New("./data/absences.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - hr/store.go: interface definitions
  - store/memory: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/attimo/absence-engine/hr"
	"github.com/attimo/absence-engine/interval"
)

// Store implements hr.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS offices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		begin_date TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS people (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		surname TEXT NOT NULL,
		begin_date TEXT NOT NULL DEFAULT '',
		office_id INTEGER,
		FOREIGN KEY (office_id) REFERENCES offices(id)
	);

	CREATE TABLE IF NOT EXISTS contracts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		person_id INTEGER NOT NULL,
		begin_date TEXT NOT NULL,
		end_date TEXT,
		end_contract_date TEXT,
		work_time_percent INTEGER NOT NULL DEFAULT 100,

		source_date_residual TEXT,
		source_date_vacation TEXT,
		source_date_meal_ticket TEXT,
		source_used_minutes INTEGER NOT NULL DEFAULT 0,
		source_vacation_last_year_used INTEGER NOT NULL DEFAULT 0,
		source_vacation_current_year_used INTEGER NOT NULL DEFAULT 0,
		source_permission_used INTEGER NOT NULL DEFAULT 0,

		FOREIGN KEY (person_id) REFERENCES people(id)
	);

	CREATE INDEX IF NOT EXISTS idx_contracts_person
		ON contracts(person_id, begin_date);

	CREATE TABLE IF NOT EXISTS vacation_periods (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		contract_id INTEGER NOT NULL,
		from_date TEXT NOT NULL,
		to_date TEXT,
		code_name TEXT NOT NULL,
		vacation_days INTEGER NOT NULL,
		permission_days INTEGER NOT NULL,
		FOREIGN KEY (contract_id) REFERENCES contracts(id)
	);

	CREATE INDEX IF NOT EXISTS idx_vacation_periods_contract
		ON vacation_periods(contract_id, from_date);

	CREATE TABLE IF NOT EXISTS absences (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		person_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		code TEXT NOT NULL,
		justified_minutes INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (person_id) REFERENCES people(id)
	);

	-- one absence per person, day and code (hot path for simulation)
	CREATE UNIQUE INDEX IF NOT EXISTS idx_absences_unique
		ON absences(person_id, date, code);
	CREATE INDEX IF NOT EXISTS idx_absences_person_date
		ON absences(person_id, date);
	CREATE INDEX IF NOT EXISTS idx_absences_person_code_date
		ON absences(person_id, code, date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PERSON STORE (hr.PersonStore interface)
// =============================================================================

// SavePerson inserts or updates a person and its office, assigning IDs on
// first save.
func (s *Store) SavePerson(ctx context.Context, p *hr.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.saveOffice(ctx, &p.Office); err != nil {
		return err
	}

	if p.ID == 0 {
		res, err := s.db.ExecContext(ctx,
			"INSERT INTO people (name, surname, begin_date, office_id) VALUES (?, ?, ?, ?)",
			p.Name, p.Surname, dateString(p.BeginDate), nullOfficeID(p.Office),
		)
		if err != nil {
			return fmt.Errorf("failed to insert person: %w", err)
		}
		p.ID, err = res.LastInsertId()
		return err
	}

	_, err := s.db.ExecContext(ctx,
		"UPDATE people SET name = ?, surname = ?, begin_date = ?, office_id = ? WHERE id = ?",
		p.Name, p.Surname, dateString(p.BeginDate), nullOfficeID(p.Office), p.ID,
	)
	return err
}

// nullOfficeID maps the zero office to NULL so the offices foreign key
// only applies to people actually assigned somewhere.
func nullOfficeID(o hr.Office) any {
	if o.ID == 0 {
		return nil
	}
	return o.ID
}

func (s *Store) saveOffice(ctx context.Context, o *hr.Office) error {
	if o.Name == "" && o.ID == 0 {
		return nil
	}
	if o.ID == 0 {
		res, err := s.db.ExecContext(ctx,
			"INSERT INTO offices (name, begin_date) VALUES (?, ?)",
			o.Name, dateString(o.BeginDate),
		)
		if err != nil {
			return fmt.Errorf("failed to insert office: %w", err)
		}
		o.ID, err = res.LastInsertId()
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE offices SET name = ?, begin_date = ? WHERE id = ?",
		o.Name, dateString(o.BeginDate), o.ID,
	)
	return err
}

// GetPerson retrieves a person with its office.
func (s *Store) GetPerson(ctx context.Context, id int64) (hr.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT p.id, p.name, p.surname, p.begin_date,
		       COALESCE(o.id, 0), COALESCE(o.name, ''), COALESCE(o.begin_date, '')
		FROM people p
		LEFT JOIN offices o ON o.id = p.office_id
		WHERE p.id = ?
	`

	var (
		p                      hr.Person
		beginDate, officeBegin string
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Surname, &beginDate,
		&p.Office.ID, &p.Office.Name, &officeBegin,
	)
	if err == sql.ErrNoRows {
		return hr.Person{}, hr.ErrPersonNotFound
	}
	if err != nil {
		return hr.Person{}, fmt.Errorf("failed to load person: %w", err)
	}

	p.BeginDate = parseDate(beginDate)
	p.Office.BeginDate = parseDate(officeBegin)
	return p, nil
}

// ListPeople returns all people, ordered by surname then name.
func (s *Store) ListPeople(ctx context.Context) ([]hr.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT p.id, p.name, p.surname, p.begin_date,
		       COALESCE(o.id, 0), COALESCE(o.name, ''), COALESCE(o.begin_date, '')
		FROM people p
		LEFT JOIN offices o ON o.id = p.office_id
		ORDER BY p.surname, p.name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var people []hr.Person
	for rows.Next() {
		var (
			p                      hr.Person
			beginDate, officeBegin string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Surname, &beginDate,
			&p.Office.ID, &p.Office.Name, &officeBegin); err != nil {
			return nil, err
		}
		p.BeginDate = parseDate(beginDate)
		p.Office.BeginDate = parseDate(officeBegin)
		people = append(people, p)
	}
	return people, rows.Err()
}

// =============================================================================
// CONTRACT STORE (hr.ContractStore interface)
// =============================================================================

// SaveContract inserts or updates a contract with its vacation periods.
// Vacation periods are replaced wholesale; they are configuration, not an
// append-only history.
func (s *Store) SaveContract(ctx context.Context, c *hr.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if c.ID == 0 {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO contracts
			(person_id, begin_date, end_date, end_contract_date, work_time_percent,
			 source_date_residual, source_date_vacation, source_date_meal_ticket,
			 source_used_minutes, source_vacation_last_year_used,
			 source_vacation_current_year_used, source_permission_used)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.PersonID, dateString(c.Begin), nullDate(c.End), nullDate(c.EndContract),
			c.WorkTimePercent,
			nullDate(c.SourceDateResidual), nullDate(c.SourceDateVacation), nullDate(c.SourceDateMealTicket),
			c.SourceUsedMinutes, c.SourceVacationLastYearUsed,
			c.SourceVacationCurrentYearUsed, c.SourcePermissionUsed,
		)
		if err != nil {
			return fmt.Errorf("failed to insert contract: %w", err)
		}
		if c.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	} else {
		_, err := tx.ExecContext(ctx, `
			UPDATE contracts SET
				person_id = ?, begin_date = ?, end_date = ?, end_contract_date = ?,
				work_time_percent = ?,
				source_date_residual = ?, source_date_vacation = ?, source_date_meal_ticket = ?,
				source_used_minutes = ?, source_vacation_last_year_used = ?,
				source_vacation_current_year_used = ?, source_permission_used = ?
			WHERE id = ?`,
			c.PersonID, dateString(c.Begin), nullDate(c.End), nullDate(c.EndContract),
			c.WorkTimePercent,
			nullDate(c.SourceDateResidual), nullDate(c.SourceDateVacation), nullDate(c.SourceDateMealTicket),
			c.SourceUsedMinutes, c.SourceVacationLastYearUsed,
			c.SourceVacationCurrentYearUsed, c.SourcePermissionUsed,
			c.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update contract: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM vacation_periods WHERE contract_id = ?", c.ID); err != nil {
		return err
	}
	for _, vp := range c.VacationPeriods {
		var to any
		if !vp.Interval.IsOpen() {
			to = vp.Interval.To.String()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO vacation_periods
			(contract_id, from_date, to_date, code_name, vacation_days, permission_days)
			VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, vp.Interval.From.String(), to,
			vp.Code.Name, vp.Code.VacationDays, vp.Code.PermissionDays,
		)
		if err != nil {
			return fmt.Errorf("failed to insert vacation period: %w", err)
		}
	}

	return tx.Commit()
}

// ContractsOverlapping returns the person's contracts whose life
// intersects the interval, ordered by begin date ascending.
func (s *Store) ContractsOverlapping(ctx context.Context, personID int64, i interval.Interval) ([]hr.Contract, error) {
	contracts, err := s.ContractsByPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	return hr.ContractsOverlapping(contracts, i), nil
}

// ContractsByPerson returns all contracts with their vacation periods,
// ordered by begin ascending.
func (s *Store) ContractsByPerson(ctx context.Context, personID int64) ([]hr.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, person_id, begin_date, end_date, end_contract_date, work_time_percent,
		       source_date_residual, source_date_vacation, source_date_meal_ticket,
		       source_used_minutes, source_vacation_last_year_used,
		       source_vacation_current_year_used, source_permission_used
		FROM contracts
		WHERE person_id = ?
		ORDER BY begin_date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	var contracts []hr.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range contracts {
		vps, err := s.vacationPeriods(ctx, contracts[i].ID)
		if err != nil {
			return nil, err
		}
		contracts[i].VacationPeriods = vps
	}
	return contracts, nil
}

func scanContract(rows *sql.Rows) (hr.Contract, error) {
	var (
		c                   hr.Contract
		begin               string
		end, endContract    sql.NullString
		residual, vac, meal sql.NullString
	)
	err := rows.Scan(
		&c.ID, &c.PersonID, &begin, &end, &endContract, &c.WorkTimePercent,
		&residual, &vac, &meal,
		&c.SourceUsedMinutes, &c.SourceVacationLastYearUsed,
		&c.SourceVacationCurrentYearUsed, &c.SourcePermissionUsed,
	)
	if err != nil {
		return c, fmt.Errorf("failed to scan contract: %w", err)
	}

	c.Begin = parseDate(begin)
	c.End = parseNullDate(end)
	c.EndContract = parseNullDate(endContract)
	c.SourceDateResidual = parseNullDate(residual)
	c.SourceDateVacation = parseNullDate(vac)
	c.SourceDateMealTicket = parseNullDate(meal)
	return c, nil
}

func (s *Store) vacationPeriods(ctx context.Context, contractID int64) ([]hr.VacationPeriod, error) {
	query := `
		SELECT from_date, to_date, code_name, vacation_days, permission_days
		FROM vacation_periods
		WHERE contract_id = ?
		ORDER BY from_date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vps []hr.VacationPeriod
	for rows.Next() {
		var (
			from string
			to   sql.NullString
			code hr.VacationCode
		)
		if err := rows.Scan(&from, &to, &code.Name, &code.VacationDays, &code.PermissionDays); err != nil {
			return nil, err
		}
		iv := interval.OpenEnded(parseDate(from))
		if to.Valid && to.String != "" {
			iv = interval.Closed(parseDate(from), parseDate(to.String))
		}
		vps = append(vps, hr.VacationPeriod{Interval: iv, Code: code})
	}
	return vps, rows.Err()
}

// =============================================================================
// ABSENCE STORE (hr.AbsenceStore interface)
// =============================================================================

// SaveAbsence inserts an absence, assigning its ID. A second absence with
// the same person, date and code fails with hr.ErrDuplicateAbsence.
func (s *Store) SaveAbsence(ctx context.Context, a *hr.Absence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO absences (person_id, date, code, justified_minutes) VALUES (?, ?, ?, ?)",
		a.PersonID, a.Date.String(), a.Code, a.JustifiedMinutes,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return hr.ErrDuplicateAbsence
		}
		return fmt.Errorf("failed to insert absence: %w", err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

// DeleteAbsence removes an absence by ID.
func (s *Store) DeleteAbsence(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM absences WHERE id = ?", id)
	return err
}

// AbsencesByCodeInPeriod returns the person's absences with a code in the
// set, dated inside the interval, ordered by date ascending. An empty
// code set matches every code.
func (s *Store) AbsencesByCodeInPeriod(ctx context.Context, personID int64, codes []string, i interval.Interval) ([]hr.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString(`
		SELECT id, person_id, date, code, justified_minutes
		FROM absences
		WHERE person_id = ? AND date >= ?
	`)
	args := []any{personID, i.From.String()}

	if !i.IsOpen() {
		sb.WriteString(" AND date <= ?")
		args = append(args, i.To.String())
	}
	if len(codes) > 0 {
		sb.WriteString(" AND code IN (?" + strings.Repeat(", ?", len(codes)-1) + ")")
		for _, c := range codes {
			args = append(args, c)
		}
	}
	sb.WriteString(" ORDER BY date ASC")

	return s.queryAbsences(ctx, sb.String(), args...)
}

// AbsencesByPerson returns every absence of a person, ordered by date.
func (s *Store) AbsencesByPerson(ctx context.Context, personID int64) ([]hr.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, person_id, date, code, justified_minutes
		FROM absences
		WHERE person_id = ?
		ORDER BY date ASC
	`
	return s.queryAbsences(ctx, query, personID)
}

func (s *Store) queryAbsences(ctx context.Context, query string, args ...any) ([]hr.Absence, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query absences: %w", err)
	}
	defer rows.Close()

	var absences []hr.Absence
	for rows.Next() {
		var (
			a    hr.Absence
			date string
		)
		if err := rows.Scan(&a.ID, &a.PersonID, &date, &a.Code, &a.JustifiedMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan absence: %w", err)
		}
		a.Date = parseDate(date)
		absences = append(absences, a)
	}
	return absences, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"absences", "vacation_periods", "contracts", "people", "offices"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func dateString(d interval.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func nullDate(d *interval.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func parseDate(s string) interval.Date {
	if s == "" {
		return interval.Date{}
	}
	d, _ := interval.Parse(s)
	return d
}

func parseNullDate(ns sql.NullString) *interval.Date {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	d := parseDate(ns.String)
	return &d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
