package httptransport

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"onboarding-orchestrator/internal/common/errors"
	"onboarding-orchestrator/internal/onboarding/flow"
)

type errorBody struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Meta    map[string]interface{} `json:"metadata,omitempty"`
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidRole, errors.ErrCodeInvalidRequest, errors.ErrCodeValidationFailed:
		return http.StatusBadRequest
	case errors.ErrCodeNoRoleSelected, errors.ErrCodeStepNotSkippable,
		errors.ErrCodeCompletionInProgress, errors.ErrCodeFlowCompleted, errors.ErrCodeAccountExists:
		return http.StatusConflict
	case errors.ErrCodeAdvanceBlocked:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeError renders err as {error, message}. Completion failures keep the
// collaborator's message so the step UI can show it.
func writeError(w http.ResponseWriter, err error) {
	var completionErr *flow.CompletionError
	if stderrors.As(err, &completionErr) {
		status := statusFor(completionErr.Code())
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, errorBody{
			Error:   string(completionErr.Code()),
			Message: completionErr.Error(),
		})
		return
	}

	stdErr, ok := errors.As(err)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error:   "INTERNAL_ERROR",
			Message: "Unexpected error",
		})
		return
	}
	writeJSON(w, statusFor(stdErr.Code), errorBody{
		Error:   string(stdErr.Code),
		Message: stdErr.Message,
		Details: stdErr.Details,
		Meta:    stdErr.Metadata,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
