// internal/workers/analysis/correlate-effort/handler.go
package correlateeffort

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"reading-effort/internal/common/errors"
	"reading-effort/internal/common/logger"
	"reading-effort/internal/common/metrics"
	"reading-effort/internal/common/validation"
	"reading-effort/internal/correlation"
)

const TaskType = "correlate-effort"

// Correlator is implemented by correlation.Service.
type Correlator interface {
	Correlate(ctx context.Context, req correlation.CorrelateRequest) (*correlation.CorrelationResult, error)
}

type Handler struct {
	config    *Config
	service   Correlator
	validator *validation.Validator
	errors    *errors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, service Correlator, validator *validation.Validator, log logger.Logger) (*Handler, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if service == nil {
		return nil, fmt.Errorf("%s requires a correlation service", TaskType)
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		service:   service,
		validator: validator,
		errors:    errors.NewErrorHandler(log),
		logger:    log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err == nil {
		_, err = cmd.Send(ctx)
	}
	if err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	vars := []byte(job.GetVariables())
	if err := h.validator.Validate(TaskType, vars); err != nil {
		return nil, err
	}
	var input Input
	if err := json.Unmarshal(vars, &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse variables: %v", err))
	}
	return &input, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	res, err := h.service.Correlate(ctx, input.request())
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, errors.NewAnalysisTimeoutError(TaskType)
	}
	if err != nil {
		return nil, err
	}

	h.logger.Info("correlation computed", map[string]interface{}{
		"matched":     res.MatchedCount,
		"totalWords":  res.TotalWords,
		"usedColumns": res.UsedColumns,
	})
	return newOutput(res), nil
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	code := string(errors.ErrCodeInternal)
	if stdErr, ok := errors.AsStandardError(err); ok {
		code = string(stdErr.Code)
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.errors.HandleJobError(context.WithoutCancel(ctx), client, job, err)
}
