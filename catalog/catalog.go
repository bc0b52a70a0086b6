package catalog

import (
	"fmt"
	"sort"
)

// =============================================================================
// CATALOG - validated registry of types and groups
// =============================================================================

// Catalog is the immutable rule registry. It is built once at startup and
// shared for the process lifetime; a malformed catalog fails construction,
// never a request.
type Catalog struct {
	types  map[string]AbsenceType
	groups map[string]Group
	names  []string // group names, priority then name order
}

// New validates and indexes the catalog. It fails on:
//   - duplicate type or group names
//   - behaviours referencing unknown absence codes
//   - NextGroupToCheck pointing at a missing group
//   - cycles in the group chain
func New(types []AbsenceType, groups []Group) (*Catalog, error) {
	c := &Catalog{
		types:  make(map[string]AbsenceType, len(types)),
		groups: make(map[string]Group, len(groups)),
	}

	for _, t := range types {
		if t.Code == "" {
			return nil, fmt.Errorf("catalog: absence type with empty code")
		}
		if _, dup := c.types[t.Code]; dup {
			return nil, fmt.Errorf("catalog: duplicate absence type %q", t.Code)
		}
		c.types[t.Code] = t
	}

	for _, g := range groups {
		if g.Name == "" {
			return nil, fmt.Errorf("catalog: group with empty name")
		}
		if _, dup := c.groups[g.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate group %q", g.Name)
		}
		if err := c.checkCodes(g); err != nil {
			return nil, err
		}
		c.groups[g.Name] = g
		c.names = append(c.names, g.Name)
	}

	for _, g := range c.groups {
		if g.NextGroupToCheck == "" {
			continue
		}
		if _, ok := c.groups[g.NextGroupToCheck]; !ok {
			return nil, fmt.Errorf("catalog: group %q chains to unknown group %q",
				g.Name, g.NextGroupToCheck)
		}
	}

	if err := c.checkChainCycles(); err != nil {
		return nil, err
	}

	sort.Slice(c.names, func(i, j int) bool {
		a, b := c.groups[c.names[i]], c.groups[c.names[j]]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.Name < b.Name
	})

	return c, nil
}

func (c *Catalog) checkCodes(g Group) error {
	check := func(set CodeSet, what string) error {
		for code := range set {
			if _, ok := c.types[code]; !ok {
				return fmt.Errorf("catalog: group %q references unknown %s code %q",
					g.Name, what, code)
			}
		}
		return nil
	}
	if err := check(g.Takable.TakableCodes, "takable"); err != nil {
		return err
	}
	if err := check(g.Takable.TakenCodes, "taken"); err != nil {
		return err
	}
	if err := check(g.CarryTakenCodes, "carry"); err != nil {
		return err
	}
	if err := check(g.CarryAfterDeadlineCodes, "after-deadline carry"); err != nil {
		return err
	}
	if g.Completion != nil {
		if err := check(g.Completion.CompletionCodes, "completion"); err != nil {
			return err
		}
		if _, ok := c.types[g.Completion.ReplacingCode]; !ok {
			return fmt.Errorf("catalog: group %q replacing code %q is unknown",
				g.Name, g.Completion.ReplacingCode)
		}
	}
	return nil
}

// checkChainCycles walks every chain to its end; a chain longer than the
// group count has revisited a node.
func (c *Catalog) checkChainCycles() error {
	for name := range c.groups {
		seen := map[string]bool{}
		for cur := name; cur != ""; cur = c.groups[cur].NextGroupToCheck {
			if seen[cur] {
				return fmt.Errorf("catalog: group chain starting at %q cycles through %q", name, cur)
			}
			seen[cur] = true
		}
	}
	return nil
}

// =============================================================================
// LOOKUPS
// =============================================================================

// GroupByName resolves a group. Missing groups are a configuration error.
func (c *Catalog) GroupByName(name string) (Group, error) {
	g, ok := c.groups[name]
	if !ok {
		return Group{}, fmt.Errorf("catalog: unknown group %q", name)
	}
	return g, nil
}

// TypeByCode resolves an absence type.
func (c *Catalog) TypeByCode(code string) (AbsenceType, error) {
	t, ok := c.types[code]
	if !ok {
		return AbsenceType{}, fmt.Errorf("catalog: unknown absence type %q", code)
	}
	return t, nil
}

// Types lists all absence types, ordered by code.
func (c *Catalog) Types() []AbsenceType {
	out := make([]AbsenceType, 0, len(c.types))
	for _, t := range c.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// GroupNames lists all group names in priority order.
func (c *Catalog) GroupNames() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Chain returns the group followed by every group it falls through to,
// in evaluation order. Cycle-free by construction.
func (c *Catalog) Chain(name string) ([]Group, error) {
	g, err := c.GroupByName(name)
	if err != nil {
		return nil, err
	}
	chain := []Group{g}
	for g.NextGroupToCheck != "" {
		g = c.groups[g.NextGroupToCheck]
		chain = append(chain, g)
	}
	return chain, nil
}

// GroupsForCode lists every group under which the code is takable,
// in priority order.
func (c *Catalog) GroupsForCode(code string) []Group {
	var out []Group
	for _, name := range c.names {
		g := c.groups[name]
		if g.Takable.TakableCodes.Has(code) {
			out = append(out, g)
		}
	}
	return out
}
