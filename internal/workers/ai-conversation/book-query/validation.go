// internal/workers/ai-conversation/book-query/validation.go
package bookquery

import "library-ai-workers/internal/common/validation"

// GetInputSchema allows extra properties: Zeebe hands the worker every process
// variable in scope.
func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"query", "userId"},
		Properties: map[string]validation.Property{
			"query": {
				Type:        "string",
				Description: "Natural-language question about the book collection",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(2000),
				Pattern:     `\S`,
			},
			"userId": {
				Type:        "string",
				Description: "Id of the caller asking the question",
				MinLength:   validation.IntPtr(1),
			},
			"isAdmin": {
				Type:        "boolean",
				Description: "Whether the caller may query every user's books",
			},
		},
	}
}
