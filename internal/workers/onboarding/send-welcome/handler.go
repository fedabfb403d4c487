// Package sendwelcome is the onboarding-finalization job worker that greets a
// new account by email and SMS.
package sendwelcome

import (
	"context"
	"fmt"
	"time"

	"onboarding-orchestrator/internal/common/errors"
	"onboarding-orchestrator/internal/common/logger"
	"onboarding-orchestrator/internal/common/metrics"
	"onboarding-orchestrator/internal/common/validation"
	"onboarding-orchestrator/internal/onboarding/stepgraph"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
)

const TaskType = "onboarding.welcome.send"

type Handler struct {
	config  *Config
	logger  logger.Logger
	service *Service
}

type HandlerOptions struct {
	Config *Config
	Email  EmailSender
	SMS    SMSSender
	Logger logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", WorkerName, err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"worker": TaskType})

	return &Handler{
		config: cfg,
		logger: log,
		service: NewService(ServiceDependencies{
			Email:  opts.Email,
			SMS:    opts.SMS,
			Logger: log,
		}, cfg),
	}, nil
}

// Handle implements camunda.JobHandler.
func (h *Handler) Handle(ctx context.Context, job entities.Job) (map[string]interface{}, error) {
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("Processing welcome notification", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	if !h.config.Enabled {
		return (&Output{Status: StatusDisabled}).Variables(), nil
	}

	input, err := h.parseInput(job)
	if err != nil {
		return nil, err
	}

	output, err := h.service.Execute(ctx, input)
	if err != nil {
		return nil, err
	}
	return output.Variables(), nil
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, &errors.StandardError{
			Code:      errors.ErrCodeInputParsingFailed,
			Message:   "Failed to parse job variables",
			Details:   err.Error(),
			Timestamp: time.Now().UTC(),
		}
	}

	result := validation.ValidateInput(variables, InputSchema())
	if !result.Valid {
		return nil, &errors.StandardError{
			Code:      errors.ErrCodeValidationFailed,
			Message:   "Input validation failed",
			Details:   fmt.Sprintf("Validation errors: %v", result.GetErrorMessages()),
			Timestamp: time.Now().UTC(),
		}
	}

	role, err := stepgraph.ParseRole(variables["role"].(string))
	if err != nil {
		return nil, errors.NewInvalidRoleError(variables["role"].(string))
	}

	input := &Input{
		Role:     role,
		FormData: variables["formData"].(map[string]interface{}),
	}
	if accountID, ok := variables["accountId"].(string); ok {
		input.AccountID = accountID
	}
	if points, ok := variables["points"].(float64); ok {
		input.Points = int(points)
	}
	return input, nil
}

func (h *Handler) TaskType() string { return TaskType }

func (h *Handler) Config() *Config { return h.config }
