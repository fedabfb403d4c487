package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"onboarding-orchestrator/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"NOT_FOUND: no process with id onboarding-finalization", false},
		{"permission denied", false},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(stderrors.New(tt.msg)))
		})
	}
}

func TestMapZeebeError(t *testing.T) {
	c := &Client{config: &ClientConfig{RetryConfig: DefaultRetryConfig}}

	tests := []struct {
		msg  string
		code errors.ErrorCode
	}{
		{"connection refused", "EXTERNAL_SERVICE_ERROR"},
		{"deadline exceeded", "TIMEOUT_ERROR"},
		{"process not found", "RESOURCE_NOT_FOUND"},
		{"instance already exists", "BUSINESS_RULE_VIOLATION"},
		{"unauthorized", "AUTHENTICATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := c.mapZeebeError(stderrors.New(tt.msg), "create-instance", 1)
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}
}

func TestExecuteWithRetry(t *testing.T) {
	c := &Client{config: &ClientConfig{RetryConfig: &RetryConfig{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
	}}}

	t.Run("retries transient errors", func(t *testing.T) {
		calls := 0
		result, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			calls++
			if calls < 3 {
				return nil, stderrors.New("unavailable")
			}
			return "ok", nil
		}, "op")
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on permanent errors", func(t *testing.T) {
		calls := 0
		_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			calls++
			return nil, stderrors.New("not found")
		}, "op")
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
