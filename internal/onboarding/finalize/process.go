package finalize

import (
	"context"
	"fmt"

	"onboarding-orchestrator/internal/common/errors"
)

// ProcessStarter starts a BPMN process and waits for its output variables.
type ProcessStarter interface {
	StartProcessWithResult(ctx context.Context, processID string, variables map[string]interface{}) (map[string]interface{}, error)
}

// ProcessFinalizer runs the onboarding-finalization process on Zeebe. The
// process reports a rejection by setting errorMessage, which is surfaced to
// the user verbatim.
type ProcessFinalizer struct {
	starter   ProcessStarter
	processID string
}

func NewProcessFinalizer(starter ProcessStarter, processID string) *ProcessFinalizer {
	return &ProcessFinalizer{starter: starter, processID: processID}
}

func (p *ProcessFinalizer) Finalize(ctx context.Context, req Request) (*Result, error) {
	vars := map[string]interface{}{
		"sessionId":    req.SessionID,
		"role":         string(req.Role),
		"formData":     req.FormData,
		"points":       req.Points,
		"achievements": req.Achievements,
	}
	if req.AccountID != "" {
		vars["accountId"] = req.AccountID
	}

	out, err := p.starter.StartProcessWithResult(ctx, p.processID, vars)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewProcessStartFailedError(p.processID, err)
	}

	if msg, _ := out["errorMessage"].(string); msg != "" {
		code, _ := out["errorCode"].(string)
		if code == "" {
			code = string(errors.ErrCodeCompletionFailed)
		}
		return nil, &errors.StandardError{Code: errors.ErrorCode(code), Message: msg}
	}

	res := &Result{
		AccountID: stringVar(out, "accountId"),
		Metadata:  map[string]string{},
	}
	if res.AccountID == "" {
		res.AccountID = req.AccountID
	}
	if url := stringVar(out, "redirectUrl"); url != "" {
		res.RedirectURL = url
	}
	if key := stringVar(out, "processInstanceKey"); key != "" {
		res.Metadata["processInstanceKey"] = key
	}
	return res, nil
}

func stringVar(vars map[string]interface{}, key string) string {
	switch v := vars[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
