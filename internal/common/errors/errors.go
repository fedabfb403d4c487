// Package errors provides the standardized error model shared by the onboarding
// orchestrator, its HTTP surface and the finalization job workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Flow orchestration errors.
const (
	ErrCodeNoRoleSelected         ErrorCode = "NO_ROLE_SELECTED"
	ErrCodeInvalidRole            ErrorCode = "INVALID_ROLE"
	ErrCodeStepNotApplicable      ErrorCode = "STEP_NOT_APPLICABLE"
	ErrCodeStepNotSkippable       ErrorCode = "STEP_NOT_SKIPPABLE"
	ErrCodeAdvanceBlocked         ErrorCode = "ADVANCE_BLOCKED"
	ErrCodeCompletionInProgress   ErrorCode = "COMPLETION_IN_PROGRESS"
	ErrCodeFlowCompleted          ErrorCode = "FLOW_COMPLETED"
	ErrCodeCompletionFailed       ErrorCode = "COMPLETION_FAILED"
	ErrCodeSessionNotFound        ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeInvalidRequest         ErrorCode = "INVALID_REQUEST"
	ErrCodePersistenceWriteFailed ErrorCode = "PERSISTENCE_WRITE_FAILED"
	ErrCodePersistenceLoadCorrupt ErrorCode = "PERSISTENCE_LOAD_CORRUPT"
)

// Finalization collaborator errors.
const (
	ErrCodeAccountExists          ErrorCode = "ACCOUNT_EXISTS"
	ErrCodeAccountCreateFailed    ErrorCode = "ACCOUNT_CREATE_FAILED"
	ErrCodeCRMAPIError            ErrorCode = "CRM_API_ERROR"
	ErrCodeProcessStartFailed     ErrorCode = "PROCESS_START_FAILED"
	ErrCodeWebhookFailed          ErrorCode = "WEBHOOK_FAILED"
	ErrCodeIndexFailed            ErrorCode = "INDEX_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInputParsingFailed     ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeValidationFailed       ErrorCode = "VALIDATION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is matches another StandardError with the same code, so package-level
// sentinels work with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	return ok && t.Code == e.Code
}

// As extracts a *StandardError from err's chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the StandardError code in err's chain, or "UNKNOWN_ERROR".
func CodeOf(err error) ErrorCode {
	if stdErr, ok := As(err); ok {
		return stdErr.Code
	}
	return "UNKNOWN_ERROR"
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error thrown back to the Camunda workflow engine by
// the finalization job workers.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoRoleSelectedError reports navigation attempted before a role was chosen.
func NewNoRoleSelectedError(operation string) *StandardError {
	return newError(ErrCodeNoRoleSelected, "No onboarding role selected", fmt.Sprintf("operation: %s", operation), false)
}

func NewInvalidRoleError(role string) *StandardError {
	return newError(ErrCodeInvalidRole, "Unknown onboarding role", fmt.Sprintf("role: %s", role), false)
}

// NewStepNotApplicableError flags a current step whose applicability predicate
// no longer holds. It signals a programming error in the step graph.
func NewStepNotApplicableError(stepID string) *StandardError {
	return newError(ErrCodeStepNotApplicable, "Current step is not applicable", fmt.Sprintf("stepId: %s", stepID), false)
}

func NewStepNotSkippableError(stepID string) *StandardError {
	return newError(ErrCodeStepNotSkippable, "Step cannot be skipped", fmt.Sprintf("stepId: %s", stepID), false)
}

func NewAdvanceBlockedError(stepID string, problems []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAdvanceBlocked,
		Message:   "Step is not ready to advance",
		Details:   fmt.Sprintf("stepId: %s, problems: %s", stepID, strings.Join(problems, "; ")),
		Metadata:  map[string]interface{}{"stepId": stepID, "problems": problems},
		Timestamp: time.Now().UTC(),
	}
}

func NewCompletionInProgressError() *StandardError {
	return newError(ErrCodeCompletionInProgress, "Onboarding completion is in progress", "", true)
}

func NewFlowCompletedError() *StandardError {
	return newError(ErrCodeFlowCompleted, "Onboarding already completed", "", false)
}

// NewPersistenceWriteFailedError wraps a snapshot write failure. It is logged,
// never surfaced to the step UI.
func NewPersistenceWriteFailedError(key string, err error) *StandardError {
	return newError(ErrCodePersistenceWriteFailed, "Snapshot write failed", fmt.Sprintf("key: %s, error: %s", key, err.Error()), true)
}

// NewPersistenceLoadCorruptError covers schema mismatches and parse failures.
func NewPersistenceLoadCorruptError(key, details string) *StandardError {
	return newError(ErrCodePersistenceLoadCorrupt, "Persisted snapshot discarded", fmt.Sprintf("key: %s, %s", key, details), false)
}

func NewSessionNotFoundError(sessionID string) *StandardError {
	return newError(ErrCodeSessionNotFound, "Onboarding session not found", fmt.Sprintf("sessionId: %s", sessionID), false)
}

func NewInvalidRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidRequest, "Invalid request", details, false)
}

// NewAccountExistsError reports a duplicate account. Message is the text shown
// to the user verbatim.
func NewAccountExistsError(message, details string) *StandardError {
	return newError(ErrCodeAccountExists, message, details, false)
}

func NewAccountCreateFailedError(err error, retryable bool) *StandardError {
	return newError(ErrCodeAccountCreateFailed, "Account creation failed", err.Error(), retryable)
}

func NewProcessStartFailedError(processID string, err error) *StandardError {
	return newError(ErrCodeProcessStartFailed, "Finalization process could not be started", fmt.Sprintf("processId: %s, error: %s", processID, err.Error()), true)
}

func NewIndexFailedError(index string, err error) *StandardError {
	return newError(ErrCodeIndexFailed, "Profile indexing failed", fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed", fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()), true)
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return newError("EXTERNAL_SERVICE_ERROR", fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError("TIMEOUT_ERROR", fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError("RESOURCE_NOT_FOUND", fmt.Sprintf("Resource not found in %s", service), details, false)
}

func NewBusinessRuleError(message, details string) *StandardError {
	return newError("BUSINESS_RULE_VIOLATION", message, details, false)
}

func NewAuthenticationError(details string) *StandardError {
	return newError("AUTHENTICATION_ERROR", "Authentication failed", details, false)
}

// ==========================
// 4. Retry / BPMN mapping
// ==========================

// GetRetryCount is the number of job retries granted per code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeIndexFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeCRMAPIError,
		"EXTERNAL_SERVICE_ERROR":
		return 3
	case "TIMEOUT_ERROR":
		return 2
	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "PERSISTENCE"):
		return "PERSISTENCE"
	case strings.Contains(codeStr, "ROLE") || strings.Contains(codeStr, "STEP") ||
		strings.Contains(codeStr, "ADVANCE") || strings.Contains(codeStr, "FLOW"):
		return "FLOW"
	case strings.Contains(codeStr, "COMPLETION") || strings.Contains(codeStr, "ACCOUNT") ||
		strings.Contains(codeStr, "PROCESS") || strings.Contains(codeStr, "WEBHOOK") ||
		strings.Contains(codeStr, "CRM"):
		return "FINALIZATION"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "INDEX"):
		return "POST_COMMIT"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
