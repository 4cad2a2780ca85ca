package aiquery

import (
	"encoding/json"
	"strings"

	apperrors "library-ai-workers/internal/common/errors"
)

// ParseIntent decodes the classifier output. Models often wrap JSON in a
// markdown fence, so leading ```json / ``` and a trailing ``` are stripped.
// Field names match case-insensitively.
func ParseIntent(raw string) (*QueryIntent, error) {
	cleaned := stripCodeFence(raw)

	var intent *QueryIntent
	if err := json.Unmarshal([]byte(cleaned), &intent); err != nil {
		return nil, apperrors.NewClassificationError(err).WithMetadata("raw", raw)
	}
	if intent == nil {
		return nil, apperrors.NewClassificationError(nil).WithMetadata("raw", raw)
	}
	return intent, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
