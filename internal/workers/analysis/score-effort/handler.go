// internal/workers/analysis/score-effort/handler.go
package scoreeffort

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
	"reading-effort/internal/effort"
)

const TaskType = "score-effort"

type Handler struct {
	config    *Config
	validator *validation.Validator
	errors    *errors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, validator *validation.Validator, log logger.Logger) (*Handler, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
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

	if err := h.completeJob(ctx, client, job, output); err != nil {
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
	vars := job.GetVariables()
	if err := h.validator.Validate(TaskType, []byte(vars)); err != nil {
		return nil, err
	}
	var input Input
	if err := json.Unmarshal([]byte(vars), &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse variables: %v", err))
	}
	return &input, nil
}

// Execute scores the attention matrix of one input.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	res, err := effort.Analyze(input.Tokens, input.Attention, input.Knownness)
	if err != nil {
		return nil, err
	}
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, errors.NewAnalysisTimeoutError(TaskType)
	}

	h.logger.Debug("effort scored", map[string]interface{}{"words": len(res.Effort)})
	return &Output{
		Tokens:       res.Tokens,
		Integration:  res.Integration,
		Contribution: res.Contribution,
		Effort:       res.Effort,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		return err
	}
	_, err = cmd.Send(ctx)
	return err
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	code := string(errors.ErrCodeInternal)
	if stdErr, ok := errors.AsStandardError(err); ok {
		code = string(stdErr.Code)
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.errors.HandleJobError(context.WithoutCancel(ctx), client, job, err)
}
