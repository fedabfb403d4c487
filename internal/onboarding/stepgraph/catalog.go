package stepgraph

import (
	"encoding/json"
	"time"

	"onboarding-orchestrator/pkg/registry"
)

// Catalog describes every role's table for the step UI.
func (g *Graph) Catalog(version string) *registry.StepCatalog {
	catalog := &registry.StepCatalog{
		Version:     version,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
	}

	for _, role := range Roles() {
		rc := registry.RoleCatalog{Role: string(role)}
		for i, step := range g.tables[role] {
			entry := registry.StepEntry{
				ID:           step.ID,
				ComponentKey: step.ComponentKey,
				Position:     i,
				Skippable:    step.Skippable,
				Conditional:  step.Applicable != nil,
				HasEnterHook: step.OnEnter != nil,
			}
			if step.Requires != nil {
				entry.RequiredFields = append([]string(nil), step.Requires.Required...)
				entry.InputSchema = schemaMap(step.Requires)
			}
			rc.Steps = append(rc.Steps, entry)
		}
		catalog.Roles = append(catalog.Roles, rc)
	}
	return catalog
}

func schemaMap(v interface{}) map[string]interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
