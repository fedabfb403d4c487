// Package stepgraph defines the per-role ordered step tables and the
// applicability filter the flow controller walks on every navigation.
package stepgraph

import (
	"fmt"
	"strings"

	"onboarding-orchestrator/internal/common/validation"
	"onboarding-orchestrator/internal/onboarding/formdata"
)

type Role string

const (
	RoleWorker  Role = "worker"
	RoleSponsor Role = "sponsor"
	RoleAgency  Role = "agency"
)

// Roles lists every role in display order.
func Roles() []Role {
	return []Role{RoleWorker, RoleSponsor, RoleAgency}
}

func (r Role) Valid() bool {
	switch r {
	case RoleWorker, RoleSponsor, RoleAgency:
		return true
	}
	return false
}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// SideEffects is what a step's OnEnter hook may do.
type SideEffects interface {
	AwardPoints(amount int, reason string) int
	UnlockAchievement(id string) bool
	TriggerCelebration(kind string)
}

// Predicate decides whether a step is shown for the current form data. It
// must be a pure function of data.
type Predicate func(data formdata.Reader) bool

type Step struct {
	ID           string
	ComponentKey string
	// Applicable is nil for steps that always apply.
	Applicable Predicate
	Skippable  bool
	OnEnter    func(SideEffects)
	// Requires lists the fields a central advance guard checks. Nil means
	// the step's own component is the only gate.
	Requires *validation.JSONSchema
}

func (s Step) IsApplicable(data formdata.Reader) bool {
	return s.Applicable == nil || s.Applicable(data)
}

// Graph holds one ordered step table per role.
type Graph struct {
	tables map[Role][]Step
}

// New validates tables: every role present, non-empty, unique step ids.
func New(tables map[Role][]Step) (*Graph, error) {
	for _, role := range Roles() {
		steps := tables[role]
		if len(steps) == 0 {
			return nil, fmt.Errorf("role %s has no steps", role)
		}
		seen := map[string]bool{}
		for _, step := range steps {
			if step.ID == "" {
				return nil, fmt.Errorf("role %s has a step without id", role)
			}
			if seen[step.ID] {
				return nil, fmt.Errorf("role %s: duplicate step id %q", role, step.ID)
			}
			seen[step.ID] = true
		}
	}
	return &Graph{tables: tables}, nil
}

// Resolve returns a copy of role's full table. Unknown roles yield nil.
func (g *Graph) Resolve(role Role) []Step {
	steps := g.tables[role]
	if steps == nil {
		return nil
	}
	out := make([]Step, len(steps))
	copy(out, steps)
	return out
}

// Applicable filters role's table by each step's predicate, in table order.
func (g *Graph) Applicable(role Role, data formdata.Reader) []Step {
	steps := g.tables[role]
	out := make([]Step, 0, len(steps))
	for _, step := range steps {
		if step.IsApplicable(data) {
			out = append(out, step)
		}
	}
	return out
}

func (g *Graph) Lookup(role Role, id string) (Step, bool) {
	if i := g.Position(role, id); i >= 0 {
		return g.tables[role][i], true
	}
	return Step{}, false
}

// Position is the index of id in role's full table, or -1.
func (g *Graph) Position(role Role, id string) int {
	for i, step := range g.tables[role] {
		if step.ID == id {
			return i
		}
	}
	return -1
}

// First returns the first applicable step.
func (g *Graph) First(role Role, data formdata.Reader) (Step, bool) {
	for _, step := range g.tables[role] {
		if step.IsApplicable(data) {
			return step, true
		}
	}
	return Step{}, false
}

// After returns the first applicable step positioned after id in the full
// table. id itself need not be applicable.
func (g *Graph) After(role Role, id string, data formdata.Reader) (Step, bool) {
	pos := g.Position(role, id)
	if pos < 0 {
		return Step{}, false
	}
	for _, step := range g.tables[role][pos+1:] {
		if step.IsApplicable(data) {
			return step, true
		}
	}
	return Step{}, false
}

// Before returns the nearest applicable step positioned before id.
func (g *Graph) Before(role Role, id string, data formdata.Reader) (Step, bool) {
	pos := g.Position(role, id)
	for i := pos - 1; i >= 0; i-- {
		if step := g.tables[role][i]; step.IsApplicable(data) {
			return step, true
		}
	}
	return Step{}, false
}
