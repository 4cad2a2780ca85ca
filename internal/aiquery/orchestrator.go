package aiquery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "library-ai-workers/internal/common/errors"
	"library-ai-workers/internal/common/logger"
	"library-ai-workers/internal/common/metrics"
)

const (
	FailureErrorMessage = "I'm sorry, I couldn't process your query. Please try rephrasing it."
	FailureAnswer       = "An error occurred while processing your request."

	adminContext = "User is an admin and can query all books across all users."
)

// Orchestrator runs classify, dispatch and synthesize for one question.
type Orchestrator struct {
	llm         LanguageModel
	dispatcher  *Dispatcher
	synthesizer *Synthesizer
	log         logger.Logger
}

func NewOrchestrator(llm LanguageModel, books BookStore, users UserLookup, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		llm:         llm,
		dispatcher:  NewDispatcher(books, users, log),
		synthesizer: NewSynthesizer(llm, log),
		log:         logger.ForComponent(log, "orchestrator"),
	}
}

// CallerContext describes what the caller may see, for the classifier prompt.
func CallerContext(callerID string, isAdmin bool) string {
	if isAdmin {
		return adminContext
	}
	return fmt.Sprintf("User can only query their own books (UserId: %s).", callerID)
}

// ProcessQuery never returns an error: every failure is logged in full and
// folded into the same generic response.
func (o *Orchestrator) ProcessQuery(ctx context.Context, query, callerID string, isAdmin bool) *AiQueryResponse {
	start := time.Now()
	log := o.log.With(map[string]interface{}{
		"requestId": uuid.NewString(),
		"callerId":  callerID,
		"isAdmin":   isAdmin,
	})

	result, answer, err := o.run(ctx, log, query, callerID, isAdmin)
	if err != nil {
		o.logFailure(log, query, err)
		queryType := "UNKNOWN"
		if result != nil {
			queryType = result.QueryType.String()
		}
		metrics.AIQueriesTotal.WithLabelValues(queryType, metrics.OutcomeFailure).Inc()
		metrics.AIQueryDuration.WithLabelValues(metrics.OutcomeFailure).Observe(time.Since(start).Seconds())
		return FailureResponse()
	}

	log.Info("Query processed", map[string]interface{}{
		"queryType":  result.QueryType.String(),
		"rowCount":   len(result.Rows),
		"chartType":  string(result.ChartType),
		"durationMs": time.Since(start).Milliseconds(),
	})
	metrics.AIQueriesTotal.WithLabelValues(result.QueryType.String(), metrics.OutcomeSuccess).Inc()
	metrics.AIQueryDuration.WithLabelValues(metrics.OutcomeSuccess).Observe(time.Since(start).Seconds())

	return &AiQueryResponse{
		Success:              true,
		Answer:               answer,
		InterpretedQueryType: result.QueryType.String(),
		Rows:                 rowValues(result.Rows),
		ChartType:            string(result.ChartType),
	}
}

// run returns the partial result alongside an error when the failure happened
// after dispatch, so metrics can still be labelled by query type.
func (o *Orchestrator) run(ctx context.Context, log logger.Logger, query, callerID string, isAdmin bool) (*QueryResult, string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, "", apperrors.NewValidationError("Query cant be empty", query)
	}

	raw, err := o.llm.ClassifyIntent(ctx, query, CallerContext(callerID, isAdmin))
	if err != nil {
		return nil, "", externalError("language-model", err)
	}
	log.Debug("Classifier responded", map[string]interface{}{"raw": raw})

	intent, err := ParseIntent(raw)
	if err != nil {
		return nil, "", err
	}

	result, err := o.dispatcher.Dispatch(ctx, *intent, callerID, isAdmin)
	if err != nil {
		return nil, "", err
	}

	answer, err := o.synthesizer.Synthesize(ctx, query, result)
	if err != nil {
		return result, "", err
	}
	return result, answer, nil
}

func (o *Orchestrator) logFailure(log logger.Logger, query string, err error) {
	fields := map[string]interface{}{
		"query": query,
		"error": err.Error(),
	}
	if stdErr, ok := apperrors.AsStandardError(err); ok {
		fields["errorCode"] = string(stdErr.Code)
		fields["message"] = stdErr.Message
		fields["details"] = stdErr.Details
		fields["errorCategory"] = apperrors.GetErrorCategory(stdErr.Code)
		if len(stdErr.Metadata) > 0 {
			fields["metadata"] = stdErr.Metadata
		}
	}
	log.Error("Error processing AI query", fields)
}

// FailureResponse is the single response returned for every failed query.
func FailureResponse() *AiQueryResponse {
	return &AiQueryResponse{
		Success:      false,
		ErrorMessage: FailureErrorMessage,
		Answer:       FailureAnswer,
	}
}
