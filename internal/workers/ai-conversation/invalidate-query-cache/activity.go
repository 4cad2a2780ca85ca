package invalidatequerycache

import (
	"library-ai-workers/internal/common/config"
	apperrors "library-ai-workers/internal/common/errors"
	"library-ai-workers/pkg/registry"
)

// Activity describes the worker for the activity registry.
func Activity() registry.Activity {
	return registry.Activity{
		ID:           TaskType,
		DisplayName:  "Invalidate Query Cache",
		Description:  "Drops cached answers after a book is created, updated or deleted.",
		TaskType:     TaskType,
		InputSchema:  GetInputSchema(),
		OutputFields: []string{"cacheInvalidated", "removedKeys"},
		ErrorCodes: []string{
			apperrors.BPMNErrorMapping[apperrors.ErrCodeInvalidJobInput],
			apperrors.BPMNErrorMapping[apperrors.ErrCodeCacheOperationFailed],
		},
		Timeout: NewConfig(config.WorkerConfig{}).Timeout.String(),
		Retries: apperrors.GetRetryCount(apperrors.ErrCodeCacheOperationFailed),
	}
}
