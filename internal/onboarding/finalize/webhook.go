package finalize

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"onboarding-orchestrator/internal/common/errors"
	commonhttp "onboarding-orchestrator/internal/common/http"
)

// HTTPFinalizer posts the Request as JSON to an accounts service and expects
// a Result back.
type HTTPFinalizer struct {
	url    string
	client *commonhttp.Client
}

func NewHTTPFinalizer(url string, timeout time.Duration) *HTTPFinalizer {
	return &HTTPFinalizer{url: url, client: commonhttp.NewClient(timeout)}
}

type webhookError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func (h *HTTPFinalizer) Finalize(ctx context.Context, req Request) (*Result, error) {
	var res Result
	resp, err := h.client.DoJSON(ctx, http.MethodPost, h.url, req, &res)
	if err != nil {
		return nil, errors.NewExternalServiceError("finalization-webhook", err)
	}
	if resp.OK() {
		return &res, nil
	}

	var body webhookError
	_ = json.Unmarshal(resp.Body, &body)
	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	if msg == "" {
		msg = fmt.Sprintf("Account finalization failed (status %d)", resp.StatusCode)
	}
	code := errors.ErrCodeWebhookFailed
	if resp.StatusCode == http.StatusConflict {
		code = errors.ErrCodeAccountExists
	}
	return nil, &errors.StandardError{
		Code:      code,
		Message:   msg,
		Details:   body.Code,
		Retryable: resp.StatusCode >= 500,
		Timestamp: time.Now().UTC(),
	}
}
