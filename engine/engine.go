/*
Package engine computes absence entitlements.

PURPOSE:
  Given a person's contract history and the absences already recorded,
  the engine answers three questions:
    - which accounting periods cover an entitlement (period builder)
    - how much is takable, taken and remaining per period (accountant)
    - would one more absence fit, and where (insertion simulator)

DESIGN:
  Pure, synchronous, request-scoped computation. The engine performs no
  I/O: contracts and absences arrive as already-fetched collections, which
  makes every path testable without a database. Concurrent calls for
  different people are independent; serializing simulation-then-commit for
  the same person is the caller's job, because the persisted-absences
  snapshot goes stale the moment another writer commits.

SEE ALSO:
  - builder.go:    period derivation
  - accountant.go: amount resolution
  - simulator.go:  two-phase candidate insertion
*/
package engine

import (
	"github.com/attimo/absence-engine/catalog"
)

// Engine is the stateless computation core.
type Engine struct {
	Catalog *catalog.Catalog
}

func New(c *catalog.Catalog) *Engine {
	return &Engine{Catalog: c}
}
