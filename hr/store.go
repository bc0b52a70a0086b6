package hr

import (
	"context"
	"errors"

	"github.com/attimo/absence-engine/interval"
)

// =============================================================================
// STORE INTERFACES - the persistence collaborator contract
// =============================================================================
// The engine itself never queries these. The REST layer (or any other
// caller) fetches contracts and absences, then hands the collections to
// the engine.

var (
	ErrPersonNotFound = errors.New("person not found")

	// ErrDuplicateAbsence is returned by stores enforcing the one
	// (person, date, code) row invariant.
	ErrDuplicateAbsence = errors.New("absence already recorded for this day and code")
)

type PersonStore interface {
	SavePerson(ctx context.Context, p *Person) error
	GetPerson(ctx context.Context, id int64) (Person, error)
	ListPeople(ctx context.Context) ([]Person, error)
}

type ContractStore interface {
	SaveContract(ctx context.Context, c *Contract) error

	// ContractsOverlapping returns the person's contracts whose life
	// intersects the interval, ordered by begin date ascending.
	ContractsOverlapping(ctx context.Context, personID int64, i interval.Interval) ([]Contract, error)

	// ContractsByPerson returns all contracts, ordered by begin ascending.
	ContractsByPerson(ctx context.Context, personID int64) ([]Contract, error)
}

type AbsenceStore interface {
	SaveAbsence(ctx context.Context, a *Absence) error
	DeleteAbsence(ctx context.Context, id int64) error

	// AbsencesByCodeInPeriod returns the person's absences with a code in
	// the set, dated inside the interval, ordered by date ascending. An
	// empty code set matches every code.
	AbsencesByCodeInPeriod(ctx context.Context, personID int64, codes []string, i interval.Interval) ([]Absence, error)

	AbsencesByPerson(ctx context.Context, personID int64) ([]Absence, error)
}

// Store is the full persistence surface the server wires together.
type Store interface {
	PersonStore
	ContractStore
	AbsenceStore
}
