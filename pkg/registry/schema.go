// pkg/registry/schema.go
package registry

// StepCatalog is the exported description of every role's step table,
// consumed by the step UI to map step ids to components.
type StepCatalog struct {
	Version     string        `json:"version"`
	LastUpdated string        `json:"lastUpdated"`
	Roles       []RoleCatalog `json:"roles"`
}

type RoleCatalog struct {
	Role  string      `json:"role"`
	Steps []StepEntry `json:"steps"`
}

type StepEntry struct {
	ID             string                 `json:"id"`
	ComponentKey   string                 `json:"componentKey"`
	Position       int                    `json:"position"`
	Skippable      bool                   `json:"skippable"`
	Conditional    bool                   `json:"conditional"`
	HasEnterHook   bool                   `json:"hasEnterHook"`
	RequiredFields []string               `json:"requiredFields,omitempty"`
	InputSchema    map[string]interface{} `json:"inputSchema,omitempty"`
}

// Find returns the entry for role and step id.
func (c *StepCatalog) Find(role, stepID string) (*StepEntry, bool) {
	for i := range c.Roles {
		if c.Roles[i].Role != role {
			continue
		}
		for j := range c.Roles[i].Steps {
			if c.Roles[i].Steps[j].ID == stepID {
				return &c.Roles[i].Steps[j], true
			}
		}
	}
	return nil, false
}
