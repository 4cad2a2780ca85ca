// internal/workers/ai-conversation/invalidate-query-cache/validation.go
package invalidatequerycache

import "library-ai-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"scope"},
		Properties: map[string]validation.Property{
			"scope": {
				Type:        "string",
				Description: "Which cached answers to drop",
				Enum:        []string{ScopeUser, ScopeAdmin},
			},
			"userId": {
				Type:        "string",
				Description: "Owner of the changed book; required for scope user",
			},
		},
	}
}
