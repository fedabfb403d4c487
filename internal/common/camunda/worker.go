// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"onboarding-orchestrator/internal/common/errors"
	"onboarding-orchestrator/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

// JobHandler processes one activated job and returns the output variables.
type JobHandler interface {
	Handle(ctx context.Context, job entities.Job) (map[string]interface{}, error)
}

// JobWorker polls one task type and completes or fails jobs via the handler.
type JobWorker struct {
	worker     worker.JobWorker
	logger     *zap.Logger
	taskType   string
	errHandler *errors.JobErrorHandler
}

// NewJobWorker opens a Zeebe job worker for taskType.
func NewJobWorker(
	client zbc.Client,
	taskType string,
	maxJobsActive int,
	timeout time.Duration,
	handler JobHandler,
	logger *zap.Logger,
	errLogger errors.Logger,
) *JobWorker {
	w := &JobWorker{
		logger:     logger,
		taskType:   taskType,
		errHandler: errors.NewJobErrorHandler(errLogger),
	}

	w.worker = client.NewJobWorker().
		JobType(taskType).
		Handler(func(jc worker.JobClient, job entities.Job) {
			w.dispatch(jc, job, handler, timeout)
		}).
		MaxJobsActive(maxJobsActive).
		Timeout(timeout).
		Open()

	return w
}

func (w *JobWorker) dispatch(jc worker.JobClient, job entities.Job, handler JobHandler, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.WorkerJobDuration.WithLabelValues(w.taskType).Observe(time.Since(start).Seconds())
	}()

	output, err := handler.Handle(ctx, job)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(w.taskType, string(errors.CodeOf(err))).Inc()
		w.errHandler.HandleJobError(ctx, jc, job, err)
		return
	}

	cmd, err := jc.NewCompleteJobCommand().JobKey(job.Key).VariablesFromMap(output)
	if err != nil {
		w.errHandler.HandleJobError(ctx, jc, job, errors.NewExternalServiceError("zeebe", err))
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		w.logger.Error("failed to complete job", zap.Error(err), zap.Int64("jobKey", job.Key))
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(w.taskType).Inc()
	w.logger.Debug("job completed", zap.String("taskType", w.taskType), zap.Int64("jobKey", job.Key))
}

func (w *JobWorker) TaskType() string { return w.taskType }

// Stop closes the poller and waits for in-flight jobs.
func (w *JobWorker) Stop() {
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))
	w.worker.Close()
	w.worker.AwaitClose()
}
