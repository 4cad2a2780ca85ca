package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReadingStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    ReadingStatus
		wantErr bool
	}{
		{"reading", ReadingStatusReading, false},
		{"COMPLETED", ReadingStatusCompleted, false},
		{" NotStarted ", ReadingStatusNotStarted, false},
		{"2", ReadingStatusCompleted, false},
		{"xyz", 0, true},
		{"7", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseReadingStatus(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBook_JSONAcceptsNumericAndNamedStatus(t *testing.T) {
	var numeric, named Book
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","price":"12.50","readingStatus":1,"userId":"u1"}`), &numeric))
	require.NoError(t, json.Unmarshal([]byte(`{"id":"2","price":3,"readingStatus":"completed","userId":"u1"}`), &named))

	assert.Equal(t, ReadingStatusReading, numeric.ReadingStatus)
	assert.True(t, decimal.RequireFromString("12.5").Equal(numeric.Price))
	assert.Equal(t, ReadingStatusCompleted, named.ReadingStatus)

	out, err := json.Marshal(named)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"readingStatus":"Completed"`)

	var bad Book
	assert.Error(t, json.Unmarshal([]byte(`{"readingStatus":9}`), &bad))
}

func TestParseQueryType(t *testing.T) {
	qt, ok := ParseQueryType(" expensive_books ")
	assert.True(t, ok)
	assert.Equal(t, QueryTypeExpensiveBooks, qt)

	_, ok = ParseQueryType("DELETE_ALL_BOOKS")
	assert.False(t, ok)

	assert.Len(t, AllQueryTypes, 10)
	assert.True(t, QueryTypeGeneralStatistics.AdminOnly())
	assert.False(t, QueryTypeMyBookCount.AdminOnly())
}
