// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

func LoadCatalog(path string) (*StepCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var catalog StepCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &catalog, nil
}

// SaveCatalog writes catalog as indented JSON, creating parent directories.
func SaveCatalog(path string, catalog *StepCatalog) error {
	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Diff lists step ids added to or removed from next relative to prev, per role.
func Diff(prev, next *StepCatalog) []string {
	index := func(c *StepCatalog) map[string]bool {
		out := map[string]bool{}
		if c == nil {
			return out
		}
		for _, r := range c.Roles {
			for _, s := range r.Steps {
				out[r.Role+"/"+s.ID] = true
			}
		}
		return out
	}

	before, after := index(prev), index(next)
	var changes []string
	if next != nil {
		for _, r := range next.Roles {
			for _, s := range r.Steps {
				if key := r.Role + "/" + s.ID; !before[key] {
					changes = append(changes, "+ "+key)
				}
			}
		}
	}
	if prev != nil {
		for _, r := range prev.Roles {
			for _, s := range r.Steps {
				if key := r.Role + "/" + s.ID; !after[key] {
					changes = append(changes, "- "+key)
				}
			}
		}
	}
	return changes
}
