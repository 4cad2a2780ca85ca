package aiquery

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Row is one line of a query result.
type Row interface {
	// Keys lists the row's column names in display order.
	Keys() []string
	// Values maps every key to a JSON-ready scalar.
	Values() map[string]interface{}
}

var (
	userBookCountKeys = []string{"userName", "bookCount"}
	popularBookKeys   = []string{"title", "author", "ownedBy"}
	expensiveBookKeys = []string{"id", "title", "author", "price", "genre"}
	genreBookKeys     = []string{"title", "author", "genre", "price", "status"}
	statusBookKeys    = []string{"title", "author", "genre", "status"}
	metricKeys        = []string{"metric", "value"}
)

type UserBookCountRow struct {
	UserName  string
	BookCount int
}

func (UserBookCountRow) Keys() []string { return userBookCountKeys }

func (r UserBookCountRow) Values() map[string]interface{} {
	return map[string]interface{}{"userName": r.UserName, "bookCount": r.BookCount}
}

// PopularBookRow counts copies of a title that are being read or finished.
type PopularBookRow struct {
	Title   string
	Author  string
	OwnedBy int
}

func (PopularBookRow) Keys() []string { return popularBookKeys }

func (r PopularBookRow) Values() map[string]interface{} {
	return map[string]interface{}{"title": r.Title, "author": r.Author, "ownedBy": r.OwnedBy}
}

type ExpensiveBookRow struct {
	ID     string
	Title  string
	Author string
	Price  decimal.Decimal
	Genre  string
}

func (ExpensiveBookRow) Keys() []string { return expensiveBookKeys }

func (r ExpensiveBookRow) Values() map[string]interface{} {
	return map[string]interface{}{
		"id":     r.ID,
		"title":  r.Title,
		"author": r.Author,
		"price":  jsonScalar(r.Price),
		"genre":  r.Genre,
	}
}

type GenreBookRow struct {
	Title  string
	Author string
	Genre  string
	Price  decimal.Decimal
	Status string
}

func (GenreBookRow) Keys() []string { return genreBookKeys }

func (r GenreBookRow) Values() map[string]interface{} {
	return map[string]interface{}{
		"title":  r.Title,
		"author": r.Author,
		"genre":  r.Genre,
		"price":  jsonScalar(r.Price),
		"status": r.Status,
	}
}

type StatusBookRow struct {
	Title  string
	Author string
	Genre  string
	Status string
}

func (StatusBookRow) Keys() []string { return statusBookKeys }

func (r StatusBookRow) Values() map[string]interface{} {
	return map[string]interface{}{
		"title":  r.Title,
		"author": r.Author,
		"genre":  r.Genre,
		"status": r.Status,
	}
}

// MetricRow is a named statistic. Value is an int, a decimal.Decimal or a string.
type MetricRow struct {
	Metric string
	Value  interface{}
}

func (MetricRow) Keys() []string { return metricKeys }

func (r MetricRow) Values() map[string]interface{} {
	return map[string]interface{}{"metric": r.Metric, "value": jsonScalar(r.Value)}
}

// jsonScalar renders decimals as JSON numbers rather than quoted strings.
func jsonScalar(v interface{}) interface{} {
	if d, ok := v.(decimal.Decimal); ok {
		return json.Number(d.String())
	}
	return v
}

// rowValues converts rows for the response and for the answer prompt. The result
// is never nil so an empty result serializes as [].
func rowValues(rows []Row) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Values())
	}
	return out
}
