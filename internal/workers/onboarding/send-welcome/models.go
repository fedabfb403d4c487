package sendwelcome

import (
	"onboarding-orchestrator/internal/common/validation"
	"onboarding-orchestrator/internal/onboarding/stepgraph"
)

type Input struct {
	AccountID string
	Role      stepgraph.Role
	FormData  map[string]interface{}
	Points    int
}

// Delivery status values.
const (
	StatusSent     = "SENT"
	StatusSkipped  = "SKIPPED"
	StatusDisabled = "DISABLED"
)

type Output struct {
	Status       string
	EmailID      string
	SMSID        string
	EmailSkipped string
	SMSSkipped   string
}

func (o *Output) Variables() map[string]interface{} {
	vars := map[string]interface{}{"welcomeStatus": o.Status}
	if o.EmailID != "" {
		vars["welcomeEmailId"] = o.EmailID
	}
	if o.SMSID != "" {
		vars["welcomeSmsId"] = o.SMSID
	}
	return vars
}

func InputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"accountId": {Type: "string"},
			"role":      {Type: "string", Enum: []string{string(stepgraph.RoleWorker), string(stepgraph.RoleSponsor), string(stepgraph.RoleAgency)}},
			"formData":  {Type: "object"},
			"points":    {Type: "number"},
		},
		Required: []string{"role", "formData"},
	}
}
