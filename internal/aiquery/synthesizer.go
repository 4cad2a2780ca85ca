package aiquery

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	apperrors "library-ai-workers/internal/common/errors"
	"library-ai-workers/internal/common/logger"
	"library-ai-workers/internal/models"
)

// NoBooksAnswer replaces the model's answer when a caller's statistics are empty.
const NoBooksAnswer = "You aren't reading any books."

// Synthesizer turns a query result into a natural-language answer.
type Synthesizer struct {
	llm LanguageModel
	log logger.Logger
}

func NewSynthesizer(llm LanguageModel, log logger.Logger) *Synthesizer {
	return &Synthesizer{llm: llm, log: logger.ForComponent(log, "synthesizer")}
}

// Synthesize asks the model to phrase result as an answer to query. Empty or
// all-zero USER_STATISTICS results get NoBooksAnswer without a model call.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, result *QueryResult) (string, error) {
	if overrideApplies(result) {
		s.log.Debug("Using fixed answer for empty statistics", map[string]interface{}{
			"queryType": result.QueryType.String(),
		})
		return NoBooksAnswer, nil
	}

	data, err := SerializeRows(result.Rows)
	if err != nil {
		return "", apperrors.NewQueryExecutionFailedError(result.QueryType.String(), err)
	}

	answer, err := s.llm.GenerateAnswer(ctx, query, data)
	if err != nil {
		return "", externalError("language-model", err)
	}
	return answer, nil
}

// SerializeRows renders rows as the JSON array sent to the model.
func SerializeRows(rows []Row) (string, error) {
	data, err := json.Marshal(rowValues(rows))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func overrideApplies(result *QueryResult) bool {
	if result == nil || result.QueryType != models.QueryTypeUserStatistics {
		return false
	}
	if len(result.Rows) == 0 {
		return true
	}
	for _, row := range result.Rows {
		for _, v := range row.Values() {
			if zero, numeric := numericZero(v); numeric && !zero {
				return false
			}
		}
	}
	return true
}

// numericZero reports whether v is a number and, if so, whether it is zero.
func numericZero(v interface{}) (zero bool, numeric bool) {
	switch n := v.(type) {
	case int:
		return n == 0, true
	case int64:
		return n == 0, true
	case float64:
		return n == 0, true
	case decimal.Decimal:
		return n.IsZero(), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return false, false
		}
		return d.IsZero(), true
	default:
		return false, false
	}
}
