// Package finalize holds the account-finalization collaborators the flow
// controller hands a completed onboarding to.
package finalize

import (
	"context"

	"onboarding-orchestrator/internal/onboarding/stepgraph"
)

// Request is the committed onboarding handed to a Finalizer.
type Request struct {
	SessionID    string                 `json:"sessionId"`
	Role         stepgraph.Role         `json:"role"`
	FormData     map[string]interface{} `json:"formData"`
	Points       int                    `json:"points"`
	Achievements []string               `json:"achievements"`
	// AccountID is set by a Chain once an earlier member created the account.
	AccountID string `json:"accountId,omitempty"`
}

type Result struct {
	AccountID   string            `json:"accountId"`
	RedirectURL string            `json:"redirectUrl,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Finalizer commits an onboarding. A returned error's message is shown to
// the user as is.
type Finalizer interface {
	Finalize(ctx context.Context, req Request) (*Result, error)
}

type Func func(ctx context.Context, req Request) (*Result, error)

func (f Func) Finalize(ctx context.Context, req Request) (*Result, error) { return f(ctx, req) }

// Compensator undoes a successful Finalize when a later chain member fails.
type Compensator interface {
	Compensate(ctx context.Context, req Request, res *Result) error
}

func (r *Result) merge(other *Result) {
	if other == nil {
		return
	}
	if r.AccountID == "" {
		r.AccountID = other.AccountID
	}
	if other.RedirectURL != "" {
		r.RedirectURL = other.RedirectURL
	}
	for k, v := range other.Metadata {
		if r.Metadata == nil {
			r.Metadata = map[string]string{}
		}
		r.Metadata[k] = v
	}
}
