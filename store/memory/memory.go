// Package memory provides an in-memory hr.Store implementation (for
// testing/dev). Semantics mirror the sqlite store, including the
// duplicate-absence invariant.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/attimo/absence-engine/hr"
	"github.com/attimo/absence-engine/interval"
)

type Store struct {
	mu        sync.RWMutex
	people    map[int64]hr.Person
	contracts map[int64]hr.Contract
	absences  map[int64]hr.Absence

	nextPersonID   int64
	nextOfficeID   int64
	nextContractID int64
	nextAbsenceID  int64
}

func New() *Store {
	return &Store{
		people:    make(map[int64]hr.Person),
		contracts: make(map[int64]hr.Contract),
		absences:  make(map[int64]hr.Absence),
	}
}

// =============================================================================
// PERSON STORE
// =============================================================================

func (s *Store) SavePerson(_ context.Context, p *hr.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Office.ID == 0 && p.Office.Name != "" {
		s.nextOfficeID++
		p.Office.ID = s.nextOfficeID
	}
	if p.ID == 0 {
		s.nextPersonID++
		p.ID = s.nextPersonID
	}
	s.people[p.ID] = *p
	return nil
}

func (s *Store) GetPerson(_ context.Context, id int64) (hr.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.people[id]
	if !ok {
		return hr.Person{}, hr.ErrPersonNotFound
	}
	return p, nil
}

func (s *Store) ListPeople(_ context.Context) ([]hr.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	people := make([]hr.Person, 0, len(s.people))
	for _, p := range s.people {
		people = append(people, p)
	}
	sort.Slice(people, func(i, j int) bool {
		if people[i].Surname != people[j].Surname {
			return people[i].Surname < people[j].Surname
		}
		return people[i].Name < people[j].Name
	})
	return people, nil
}

// =============================================================================
// CONTRACT STORE
// =============================================================================

func (s *Store) SaveContract(_ context.Context, c *hr.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == 0 {
		s.nextContractID++
		c.ID = s.nextContractID
	}
	s.contracts[c.ID] = *c
	return nil
}

func (s *Store) ContractsByPerson(_ context.Context, personID int64) ([]hr.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var contracts []hr.Contract
	for _, c := range s.contracts {
		if c.PersonID == personID {
			contracts = append(contracts, c)
		}
	}
	sort.Slice(contracts, func(i, j int) bool { return contracts[i].Begin.Before(contracts[j].Begin) })
	return contracts, nil
}

func (s *Store) ContractsOverlapping(ctx context.Context, personID int64, i interval.Interval) ([]hr.Contract, error) {
	contracts, err := s.ContractsByPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	return hr.ContractsOverlapping(contracts, i), nil
}

// =============================================================================
// ABSENCE STORE
// =============================================================================

func (s *Store) SaveAbsence(_ context.Context, a *hr.Absence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.absences {
		if existing.PersonID == a.PersonID && existing.SameDayAndCode(*a) {
			return hr.ErrDuplicateAbsence
		}
	}
	if a.ID == 0 {
		s.nextAbsenceID++
		a.ID = s.nextAbsenceID
	}
	s.absences[a.ID] = *a
	return nil
}

func (s *Store) DeleteAbsence(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.absences, id)
	return nil
}

func (s *Store) AbsencesByCodeInPeriod(_ context.Context, personID int64, codes []string, i interval.Interval) ([]hr.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	codeSet := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		codeSet[c] = struct{}{}
	}

	var absences []hr.Absence
	for _, a := range s.absences {
		if a.PersonID != personID || !i.Contains(a.Date) {
			continue
		}
		if len(codeSet) > 0 {
			if _, ok := codeSet[a.Code]; !ok {
				continue
			}
		}
		absences = append(absences, a)
	}
	sort.Slice(absences, func(x, y int) bool { return absences[x].Date.Before(absences[y].Date) })
	return absences, nil
}

func (s *Store) AbsencesByPerson(_ context.Context, personID int64) ([]hr.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var absences []hr.Absence
	for _, a := range s.absences {
		if a.PersonID == personID {
			absences = append(absences, a)
		}
	}
	sort.Slice(absences, func(x, y int) bool { return absences[x].Date.Before(absences[y].Date) })
	return absences, nil
}
