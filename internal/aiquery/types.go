// Package aiquery answers natural-language questions about a book collection.
// A language model classifies the question into one of a closed set of query
// types, a typed handler computes the data, and the model phrases the answer.
package aiquery

import (
	"context"

	"library-ai-workers/internal/models"
)

// QueryParameters holds the optional arguments the classifier may extract.
type QueryParameters struct {
	Limit  *int    `json:"limit,omitempty"`
	Genre  *string `json:"genre,omitempty"`
	Status *string `json:"status,omitempty"`
}

// QueryIntent is the classifier's answer: which query to run and with what.
type QueryIntent struct {
	QueryType  string           `json:"queryType"`
	Parameters *QueryParameters `json:"parameters,omitempty"`
}

// Params returns the parameters, never nil.
func (i QueryIntent) Params() QueryParameters {
	if i.Parameters == nil {
		return QueryParameters{}
	}
	return *i.Parameters
}

// ChartType hints how a result should be visualized.
type ChartType string

const (
	ChartBar    ChartType = "bar"
	ChartTable  ChartType = "table"
	ChartSingle ChartType = "single"
)

// QueryResult is a handler's output. Every row has the same concrete type, so
// the key set and chart type depend only on the handler.
type QueryResult struct {
	QueryType models.QueryType
	Rows      []Row
	ChartType ChartType
}

// AiQueryResponse is what callers of ProcessQuery receive.
type AiQueryResponse struct {
	Success              bool                     `json:"success"`
	Answer               string                   `json:"answer"`
	InterpretedQueryType string                   `json:"interpretedQueryType,omitempty"`
	Rows                 []map[string]interface{} `json:"rows"`
	ChartType            string                   `json:"chartType,omitempty"`
	ErrorMessage         string                   `json:"errorMessage,omitempty"`
}

// BookStore is the read side of the book repository.
type BookStore interface {
	AllBooks(ctx context.Context) ([]models.Book, error)
	BooksByOwner(ctx context.Context, ownerID string) ([]models.Book, error)
	BooksByOwnerAndStatus(ctx context.Context, ownerID string, status models.ReadingStatus) ([]models.Book, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}

// UserLookup resolves a user id to a display name. found is false when the user
// does not exist; that is not an error.
type UserLookup interface {
	DisplayName(ctx context.Context, userID string) (name string, found bool, err error)
}

// LanguageModel is the pair of model calls a query needs.
type LanguageModel interface {
	ClassifyIntent(ctx context.Context, query, contextDescription string) (string, error)
	GenerateAnswer(ctx context.Context, query, serializedData string) (string, error)
}

// Processor answers one question for one caller. Failures are reported inside
// the response, never as an error.
type Processor interface {
	ProcessQuery(ctx context.Context, query, callerID string, isAdmin bool) *AiQueryResponse
}
