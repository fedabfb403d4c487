package flow

import (
	"onboarding-orchestrator/internal/common/errors"
	"onboarding-orchestrator/internal/common/validation"
	"onboarding-orchestrator/internal/onboarding/stepgraph"
)

// AdvanceGuard decides centrally whether the current step may be left
// forward. Without one, each step component gates its own continue button.
type AdvanceGuard interface {
	CanAdvance(step stepgraph.Step, data map[string]interface{}) error
}

type AdvanceGuardFunc func(step stepgraph.Step, data map[string]interface{}) error

func (f AdvanceGuardFunc) CanAdvance(step stepgraph.Step, data map[string]interface{}) error {
	return f(step, data)
}

// SchemaGuard checks the step's Requires schema against the form data.
type SchemaGuard struct{}

func (SchemaGuard) CanAdvance(step stepgraph.Step, data map[string]interface{}) error {
	if step.Requires == nil {
		return nil
	}
	result := validation.ValidateInput(data, *step.Requires)
	if result.Valid {
		return nil
	}
	return errors.NewAdvanceBlockedError(step.ID, result.GetErrorMessages())
}
