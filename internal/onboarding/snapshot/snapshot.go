// Package snapshot persists in-progress onboarding flows so a reload resumes
// where the user left off.
package snapshot

import (
	"context"
	"time"

	"onboarding-orchestrator/internal/onboarding/ledger"
)

// DefaultSchemaVersion is bumped whenever the encoded shape changes
// incompatibly. Snapshots with any other version are discarded on load.
const DefaultSchemaVersion = 3

type Snapshot struct {
	SchemaVersion int                    `json:"schema_version"`
	SessionID     string                 `json:"session_id"`
	Flow          FlowState              `json:"flow"`
	FormData      map[string]interface{} `json:"form_data"`
	Ledger        ledger.Ledger          `json:"ledger"`
	SavedAt       time.Time              `json:"saved_at"`
}

// FlowState is the persisted position of the flow controller.
type FlowState struct {
	Role          string   `json:"role"`
	History       []string `json:"history"`
	Visited       []string `json:"visited"`
	Skipped       []string `json:"skipped"`
	CurrentStepID string   `json:"current_step_id"`
	IsComplete    bool     `json:"is_complete"`
}

// Persister is what the flow controller saves through. Save is best effort:
// callers log nothing themselves and never block on its error.
type Persister interface {
	Save(ctx context.Context, sessionID string, snap *Snapshot) error
	// Load returns nil when there is nothing usable to resume.
	Load(ctx context.Context, sessionID string) *Snapshot
	Clear(ctx context.Context, sessionID string) error
}
