// Package formdata holds the single record accumulated across every
// onboarding step. Values are stored in their JSON shape so a persisted
// snapshot reloads deep-equal to what was written.
package formdata

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NestedKeys are sub-records merged one level deep on update.
var NestedKeys = map[string]bool{
	"consents":            true,
	"social_media":        true,
	"employmentReference": true,
}

// MultiSelectKeys hold unique-element sequences.
var MultiSelectKeys = map[string]bool{
	"skills":              true,
	"languages":           true,
	"nationalities":       true,
	"preferred_countries": true,
	"services":            true,
	"specializations":     true,
}

// Reader is the read-only view handed to applicability predicates.
type Reader interface {
	Get(path string) (interface{}, bool)
	String(path string) string
	Bool(path string) bool
	Strings(path string) []string
}

// Store is not safe for concurrent use; the flow controller serialises access.
type Store struct {
	data map[string]interface{}
}

func New() *Store {
	return &Store{data: map[string]interface{}{}}
}

// FromMap builds a store holding a canonical copy of m.
func FromMap(m map[string]interface{}) (*Store, error) {
	s := New()
	if err := s.Replace(m); err != nil {
		return nil, err
	}
	return s, nil
}

// Update merges partial into the store. Top-level keys overwrite, except
// NestedKeys whose members are merged and MultiSelectKeys which are
// deduplicated keeping first occurrence. A nil value stores null.
func (s *Store) Update(partial map[string]interface{}) error {
	canon, err := canonicalize(partial)
	if err != nil {
		return err
	}

	for key, value := range canon {
		if NestedKeys[key] {
			if incoming, ok := value.(map[string]interface{}); ok {
				merged := map[string]interface{}{}
				if existing, ok := s.data[key].(map[string]interface{}); ok {
					for k, v := range existing {
						merged[k] = v
					}
				}
				for k, v := range incoming {
					merged[k] = v
				}
				s.data[key] = merged
				continue
			}
		}
		if MultiSelectKeys[key] {
			if items, ok := value.([]interface{}); ok {
				s.data[key] = dedupe(items)
				continue
			}
		}
		s.data[key] = value
	}
	return nil
}

// Get resolves a dotted path such as "consents.terms".
func (s *Store) Get(path string) (interface{}, bool) {
	var current interface{} = s.data
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func (s *Store) String(path string) string {
	v, _ := s.Get(path)
	str, _ := v.(string)
	return str
}

func (s *Store) Bool(path string) bool {
	v, _ := s.Get(path)
	b, _ := v.(bool)
	return b
}

// Strings returns the string members of an array field.
func (s *Store) Strings(path string) []string {
	v, _ := s.Get(path)
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if str, ok := item.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

// Reset clears every field. Only a full restart calls it.
func (s *Store) Reset() {
	s.data = map[string]interface{}{}
}

// Snapshot returns a deep copy of the record.
func (s *Store) Snapshot() map[string]interface{} {
	return deepCopy(s.data).(map[string]interface{})
}

// Replace swaps the whole record for a canonical copy of m.
func (s *Store) Replace(m map[string]interface{}) error {
	canon, err := canonicalize(m)
	if err != nil {
		return err
	}
	s.data = canon
	return nil
}

func (s *Store) Len() int {
	return len(s.data)
}

func canonicalize(m map[string]interface{}) (map[string]interface{}, error) {
	if m == nil {
		return map[string]interface{}{}, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("form data is not JSON-serialisable: %w", err)
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("form data decode: %w", err)
	}
	return out, nil
}

func dedupe(items []interface{}) []interface{} {
	seen := make(map[string]struct{}, len(items))
	result := make([]interface{}, 0, len(items))
	for _, item := range items {
		key := dedupeKey(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, item)
	}
	return result
}

func dedupeKey(v interface{}) string {
	if str, ok := v.(string); ok {
		return "s:" + str
	}
	raw, _ := json.Marshal(v)
	return "j:" + string(raw)
}

func deepCopy(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}
