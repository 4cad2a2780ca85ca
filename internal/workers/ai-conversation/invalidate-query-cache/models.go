// internal/workers/ai-conversation/invalidate-query-cache/models.go
package invalidatequerycache

const (
	ScopeUser  = "user"
	ScopeAdmin = "admin"
)

// Input is sent after a book is created, updated or deleted. Scope "user"
// clears the owner's answers and every admin answer; "admin" clears only admin
// answers.
type Input struct {
	UserID string `json:"userId,omitempty"`
	Scope  string `json:"scope"`
}

type Output struct {
	Invalidated bool `json:"cacheInvalidated"`
	RemovedKeys int  `json:"removedKeys"`
}
