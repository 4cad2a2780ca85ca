// internal/workers/ai-conversation/book-query/models.go
package bookquery

import "library-ai-workers/internal/aiquery"

type Input struct {
	Query   string `json:"query"`
	UserID  string `json:"userId"`
	IsAdmin bool   `json:"isAdmin"`
}

// Output is the response as-is; failed queries still complete the job.
type Output = aiquery.AiQueryResponse
