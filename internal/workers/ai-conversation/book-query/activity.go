package bookquery

import (
	"library-ai-workers/internal/common/config"
	apperrors "library-ai-workers/internal/common/errors"
	"library-ai-workers/pkg/registry"
)

// Activity describes the worker for the activity registry.
func Activity() registry.Activity {
	return registry.Activity{
		ID:          TaskType,
		DisplayName: "AI Book Query",
		Description: "Answers a natural-language question about the book collection. Unanswerable questions still complete the job with success=false.",
		TaskType:    TaskType,
		InputSchema: GetInputSchema(),
		OutputFields: []string{
			"success", "answer", "interpretedQueryType", "rows", "chartType", "errorMessage",
		},
		ErrorCodes: []string{apperrors.BPMNErrorMapping[apperrors.ErrCodeInvalidJobInput]},
		Timeout:    NewConfig(config.WorkerConfig{}).Timeout.String(),
		Retries:    apperrors.GetRetryCount(apperrors.ErrCodeInvalidJobInput),
	}
}
