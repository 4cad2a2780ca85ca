// internal/models/query_types.go
package models

import "strings"

// QueryType is the closed set of questions the query engine can answer.
type QueryType string

const (
	QueryTypeUserWithMostBooks QueryType = "USER_WITH_MOST_BOOKS"
	QueryTypeMostPopularBook   QueryType = "MOST_POPULAR_BOOK"
	QueryTypeExpensiveBooks    QueryType = "EXPENSIVE_BOOKS"
	QueryTypeBooksByGenre      QueryType = "BOOKS_BY_GENRE"
	QueryTypeBooksByStatus     QueryType = "BOOKS_BY_STATUS"
	QueryTypeUserStatistics    QueryType = "USER_STATISTICS"
	QueryTypeGeneralStatistics QueryType = "GENERAL_STATISTICS"
	QueryTypeMyBookCount       QueryType = "MY_BOOK_COUNT"
	QueryTypeCurrentlyReading  QueryType = "CURRENTLY_READING"
	QueryTypeCommonGenre       QueryType = "COMMON_GENRE"
)

// AllQueryTypes lists every supported type in prompt order.
var AllQueryTypes = []QueryType{
	QueryTypeUserWithMostBooks,
	QueryTypeMostPopularBook,
	QueryTypeExpensiveBooks,
	QueryTypeBooksByGenre,
	QueryTypeBooksByStatus,
	QueryTypeUserStatistics,
	QueryTypeGeneralStatistics,
	QueryTypeMyBookCount,
	QueryTypeCurrentlyReading,
	QueryTypeCommonGenre,
}

// ParseQueryType matches raw against the known types ignoring case and
// surrounding whitespace.
func ParseQueryType(raw string) (QueryType, bool) {
	candidate := QueryType(strings.ToUpper(strings.TrimSpace(raw)))
	for _, qt := range AllQueryTypes {
		if qt == candidate {
			return qt, true
		}
	}
	return "", false
}

func (q QueryType) String() string {
	return string(q)
}

// AdminOnly reports whether only admins may run the query.
func (q QueryType) AdminOnly() bool {
	switch q {
	case QueryTypeUserWithMostBooks, QueryTypeMostPopularBook, QueryTypeGeneralStatistics:
		return true
	default:
		return false
	}
}
