// internal/workers/ai-conversation/invalidate-query-cache/handler.go
package invalidatequerycache

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "library-ai-workers/internal/common/errors"
	"library-ai-workers/internal/common/logger"
	"library-ai-workers/internal/common/metrics"
	"library-ai-workers/internal/common/validation"
)

const TaskType = "invalidate-query-cache"

// Invalidator is implemented by cache.QueryCache.
type Invalidator interface {
	Invalidate(ctx context.Context, ownerID string) (int, error)
	InvalidateAdmin(ctx context.Context) (int, error)
}

type Handler struct {
	config       *Config
	cache        Invalidator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, cache Invalidator, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		cache:        cache,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	variables, err := job.GetVariablesAsMap()
	if err != nil {
		h.fail(ctx, client, job, apperrors.NewInvalidJobInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	input, err := parseVariables(variables)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	var (
		removed int
		err     error
	)
	switch input.Scope {
	case ScopeAdmin:
		removed, err = h.cache.InvalidateAdmin(ctx)
	default:
		removed, err = h.cache.Invalidate(ctx, input.UserID)
	}
	if err != nil {
		return nil, err
	}

	h.logger.Info("query cache invalidated", map[string]interface{}{
		"scope":       input.Scope,
		"userId":      input.UserID,
		"removedKeys": removed,
	})
	return &Output{Invalidated: true, RemovedKeys: removed}, nil
}

func parseVariables(variables map[string]interface{}) (*Input, error) {
	result := validation.ValidateInput(variables, GetInputSchema())
	if !result.Valid {
		return nil, apperrors.NewInvalidJobInputError(result.Error())
	}

	input := &Input{Scope: variables["scope"].(string)}
	if userID, ok := variables["userId"].(string); ok {
		input.UserID = userID
	}
	if input.Scope == ScopeUser && input.UserID == "" {
		return nil, apperrors.NewInvalidJobInputError("userId is required for scope user")
	}
	return input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	code := string(apperrors.ErrCodeInternal)
	if stdErr, ok := apperrors.AsStandardError(err); ok {
		code = string(stdErr.Code)
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
