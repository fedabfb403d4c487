package flow

import (
	"onboarding-orchestrator/internal/common/errors"
)

// Sentinels for errors.Is. Errors returned by the controller carry details
// but match these by code.
var (
	ErrNoRoleSelected       = &errors.StandardError{Code: errors.ErrCodeNoRoleSelected, Message: "No onboarding role selected"}
	ErrInvalidRole          = &errors.StandardError{Code: errors.ErrCodeInvalidRole, Message: "Unknown onboarding role"}
	ErrStepNotApplicable    = &errors.StandardError{Code: errors.ErrCodeStepNotApplicable, Message: "Current step is not applicable"}
	ErrStepNotSkippable     = &errors.StandardError{Code: errors.ErrCodeStepNotSkippable, Message: "Step cannot be skipped"}
	ErrAdvanceBlocked       = &errors.StandardError{Code: errors.ErrCodeAdvanceBlocked, Message: "Step is not ready to advance"}
	ErrCompletionInProgress = &errors.StandardError{Code: errors.ErrCodeCompletionInProgress, Message: "Onboarding completion is in progress"}
	ErrFlowCompleted        = &errors.StandardError{Code: errors.ErrCodeFlowCompleted, Message: "Onboarding already completed"}
	ErrCompletionFailed     = &errors.StandardError{Code: errors.ErrCodeCompletionFailed, Message: "Onboarding completion failed"}
)

// CompletionError wraps a finalizer failure. Its message is the
// collaborator's, unchanged, so the step UI can show it.
type CompletionError struct {
	Err error
}

func (e *CompletionError) Error() string {
	if stdErr, ok := errors.As(e.Err); ok && stdErr.Message != "" {
		return stdErr.Message
	}
	return e.Err.Error()
}

func (e *CompletionError) Unwrap() error { return e.Err }

func (e *CompletionError) Is(target error) bool {
	t, ok := target.(*errors.StandardError)
	return ok && t.Code == errors.ErrCodeCompletionFailed
}

// Code is the collaborator's error code, or COMPLETION_FAILED when it has none.
func (e *CompletionError) Code() errors.ErrorCode {
	if stdErr, ok := errors.As(e.Err); ok {
		return stdErr.Code
	}
	return errors.ErrCodeCompletionFailed
}
