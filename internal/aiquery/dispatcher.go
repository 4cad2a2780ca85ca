package aiquery

import (
	"context"

	apperrors "library-ai-workers/internal/common/errors"
	"library-ai-workers/internal/common/logger"
	"library-ai-workers/internal/models"
)

// queryRequest is the caller context every handler receives. Identity has been
// verified before it reaches the dispatcher.
type queryRequest struct {
	Params   QueryParameters
	CallerID string
	IsAdmin  bool
}

// QueryFunc computes one query type.
type QueryFunc func(ctx context.Context, req queryRequest) (*QueryResult, error)

// Dispatcher routes an intent to the handler for its query type.
type Dispatcher struct {
	books    BookStore
	users    UserLookup
	log      logger.Logger
	registry map[models.QueryType]QueryFunc
}

func NewDispatcher(books BookStore, users UserLookup, log logger.Logger) *Dispatcher {
	d := &Dispatcher{
		books: books,
		users: users,
		log:   logger.ForComponent(log, "dispatcher"),
	}
	d.registry = map[models.QueryType]QueryFunc{
		models.QueryTypeUserWithMostBooks: d.userWithMostBooks,
		models.QueryTypeMostPopularBook:   d.mostPopularBook,
		models.QueryTypeExpensiveBooks:    d.expensiveBooks,
		models.QueryTypeBooksByGenre:      d.booksByGenre,
		models.QueryTypeBooksByStatus:     d.booksByStatus,
		models.QueryTypeUserStatistics:    d.userStatistics,
		models.QueryTypeGeneralStatistics: d.generalStatistics,
		models.QueryTypeMyBookCount:       d.myBookCount,
		models.QueryTypeCurrentlyReading:  d.currentlyReading,
		models.QueryTypeCommonGenre:       d.commonGenre,
	}
	return d
}

// Dispatch runs the handler matching intent.QueryType (case-insensitive).
func (d *Dispatcher) Dispatch(ctx context.Context, intent QueryIntent, callerID string, isAdmin bool) (*QueryResult, error) {
	queryType, ok := models.ParseQueryType(intent.QueryType)
	if !ok {
		return nil, apperrors.NewUnsupportedQueryError(intent.QueryType)
	}

	handler, ok := d.registry[queryType]
	if !ok {
		return nil, apperrors.NewUnsupportedQueryError(intent.QueryType)
	}

	d.log.Debug("Dispatching query", map[string]interface{}{
		"queryType": queryType.String(),
		"isAdmin":   isAdmin,
	})

	result, err := handler(ctx, queryRequest{
		Params:   intent.Params(),
		CallerID: callerID,
		IsAdmin:  isAdmin,
	})
	if err != nil {
		return nil, err
	}
	result.QueryType = queryType
	return result, nil
}
