package aiquery

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "library-ai-workers/internal/common/errors"
	"library-ai-workers/internal/common/logger"
	"library-ai-workers/internal/models"
)

func TestSynthesizer_PassesModelAnswerThrough(t *testing.T) {
	llm := &fakeLLM{answerOut: "You own 3 books."}
	s := NewSynthesizer(llm, logger.NewTestLogger(t))

	result := &QueryResult{
		QueryType: models.QueryTypeMyBookCount,
		Rows:      []Row{MetricRow{Metric: "Total Books", Value: 3}},
		ChartType: ChartSingle,
	}
	answer, err := s.Synthesize(context.Background(), "how many books?", result)
	require.NoError(t, err)
	assert.Equal(t, "You own 3 books.", answer)
	assert.JSONEq(t, `[{"metric":"Total Books","value":3}]`, llm.lastData)
}

func TestSynthesizer_UserStatisticsOverride(t *testing.T) {
	tests := []struct {
		name          string
		rows          []Row
		wantOverride  bool
		wantModelCall bool
	}{
		{"no rows", []Row{}, true, false},
		{"all numeric zero", []Row{
			MetricRow{Metric: "Total Books", Value: 0},
			MetricRow{Metric: "Average Book Price", Value: dec("0.00")},
			MetricRow{Metric: "Most Common Genre", Value: "N/A"},
		}, true, false},
		{"one book not started at price zero", []Row{
			MetricRow{Metric: "Total Books", Value: 1},
			MetricRow{Metric: "Books Reading", Value: 0},
			MetricRow{Metric: "Average Book Price", Value: dec("0")},
		}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLM{answerOut: "model text"}
			s := NewSynthesizer(llm, logger.NewTestLogger(t))

			answer, err := s.Synthesize(context.Background(), "my stats", &QueryResult{
				QueryType: models.QueryTypeUserStatistics,
				Rows:      tt.rows,
				ChartType: ChartTable,
			})
			require.NoError(t, err)
			if tt.wantOverride {
				assert.Equal(t, NoBooksAnswer, answer)
			} else {
				assert.Equal(t, "model text", answer)
			}
			assert.Equal(t, tt.wantModelCall, llm.answerCalls == 1)
		})
	}
}

func TestSynthesizer_OverrideOnlyForUserStatistics(t *testing.T) {
	llm := &fakeLLM{answerOut: "Nothing found."}
	s := NewSynthesizer(llm, logger.NewTestLogger(t))

	answer, err := s.Synthesize(context.Background(), "fantasy books", &QueryResult{
		QueryType: models.QueryTypeBooksByGenre,
		Rows:      []Row{},
		ChartType: ChartTable,
	})
	require.NoError(t, err)
	assert.Equal(t, "Nothing found.", answer)
	assert.Equal(t, "[]", llm.lastData)
}

func TestSynthesizer_ModelFailure(t *testing.T) {
	s := NewSynthesizer(&fakeLLM{answerErr: errors.New("503")}, logger.NewTestLogger(t))

	_, err := s.Synthesize(context.Background(), "q", &QueryResult{
		QueryType: models.QueryTypeMyBookCount,
		Rows:      []Row{MetricRow{Metric: "Total Books", Value: 1}},
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeExternalServiceError))
}

func TestSerializeRows_DecimalsAreNumbers(t *testing.T) {
	data, err := SerializeRows([]Row{
		ExpensiveBookRow{ID: "9", Title: "T", Author: "A", Price: dec("19.99"), Genre: "G"},
	})
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(data), &decoded))
	assert.Equal(t, 19.99, decoded[0]["price"])
	assert.Equal(t, "9", decoded[0]["id"])
}
