package indexprofile

import (
	"time"

	"onboarding-orchestrator/internal/common/validation"
	"onboarding-orchestrator/internal/onboarding/stepgraph"
)

// Input is read from the onboarding-finalization process variables.
type Input struct {
	SessionID    string
	Role         stepgraph.Role
	AccountID    string
	FormData     map[string]interface{}
	Points       int
	Achievements []string
}

// Document is the searchable profile stored per account.
type Document struct {
	AccountID    string         `json:"accountId"`
	SessionID    string         `json:"sessionId"`
	Role         stepgraph.Role `json:"role"`
	DisplayName  string         `json:"displayName"`
	Email        string         `json:"email"`
	Premium      bool           `json:"premium"`
	Points       int            `json:"points"`
	Achievements []string       `json:"achievements"`
	Countries    []string       `json:"countries,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	Profile      interface{}    `json:"profile"`
	IndexedAt    time.Time      `json:"indexedAt"`
}

type Output struct {
	Indexed    bool
	Index      string
	DocumentID string
}

func (o *Output) Variables() map[string]interface{} {
	return map[string]interface{}{
		"profileIndexed":    o.Indexed,
		"profileIndex":      o.Index,
		"profileDocumentId": o.DocumentID,
	}
}

// InputSchema lists the process variables the worker needs.
func InputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"sessionId": {Type: "string"},
			"accountId": {Type: "string"},
			"role":      {Type: "string", Enum: []string{string(stepgraph.RoleWorker), string(stepgraph.RoleSponsor), string(stepgraph.RoleAgency)}},
			"formData":  {Type: "object"},
			"points":    {Type: "number"},
		},
		Required: []string{"accountId", "role", "formData"},
	}
}
