// internal/workers/ai-conversation/book-query/handler.go
package bookquery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"library-ai-workers/internal/aiquery"
	apperrors "library-ai-workers/internal/common/errors"
	"library-ai-workers/internal/common/logger"
	"library-ai-workers/internal/common/metrics"
	"library-ai-workers/internal/common/observability"
	"library-ai-workers/internal/common/validation"
)

const TaskType = "ai-book-query"

const (
	statusCompleted = "completed"
	statusFailed    = "failed"
)

type Handler struct {
	config       *Config
	processor    aiquery.Processor
	errorHandler *apperrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

type HandlerOptions struct {
	Config        *Config
	Processor     aiquery.Processor
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Processor == nil {
		return nil, fmt.Errorf("invalid configuration for %s: processor is required", TaskType)
	}
	if opts.Config == nil {
		opts.Config = &Config{Enabled: true, Timeout: 60 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewStructured("info", "json")
	}

	log := opts.Logger.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       opts.Config,
		processor:    opts.Processor,
		errorHandler: apperrors.NewErrorHandler(log),
		obs:          opts.Observability,
		logger:       log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing book query", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.recordFailure(ctx, err, startTime)
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output := h.Execute(ctx, input)
	h.completeJob(ctx, client, job, output)

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, statusCompleted)
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), statusCompleted)
}

// Execute answers the question. It never fails: unsuccessful queries come back
// as a response with Success false.
func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	return h.processor.ProcessQuery(ctx, input.Query, input.UserID, input.IsAdmin)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, apperrors.NewInvalidJobInputError(fmt.Sprintf("failed to parse job variables: %v", err))
	}
	return parseVariables(variables)
}

// parseVariables trusts isAdmin as verified identity set upstream by the auth layer.
func parseVariables(variables map[string]interface{}) (*Input, error) {
	result := validation.ValidateInput(variables, GetInputSchema())
	if !result.Valid {
		details := result.Error()
		if q, ok := variables["query"].(string); ok && strings.TrimSpace(q) == "" {
			details = "Query cant be empty"
		}
		return nil, apperrors.NewInvalidJobInputError(details)
	}

	input := &Input{
		Query:  variables["query"].(string),
		UserID: variables["userId"].(string),
	}
	if isAdmin, ok := variables["isAdmin"].(bool); ok {
		input.IsAdmin = isAdmin
	}
	return input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("Book query completed", map[string]interface{}{
		"jobKey":    job.GetKey(),
		"success":   output.Success,
		"queryType": output.InterpretedQueryType,
	})
}

func (h *Handler) recordFailure(ctx context.Context, err error, startTime time.Time) {
	code := string(apperrors.ErrCodeInternal)
	if stdErr, ok := apperrors.AsStandardError(err); ok {
		code = string(stdErr.Code)
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, statusFailed)
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), statusFailed)
}
