package aiquery

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "library-ai-workers/internal/common/errors"
	"library-ai-workers/internal/common/logger"
	"library-ai-workers/internal/models"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func newTestDispatcher(t *testing.T, store *fakeBookStore, users *fakeUsers) *Dispatcher {
	t.Helper()
	if users == nil {
		users = &fakeUsers{}
	}
	return NewDispatcher(store, users, logger.NewTestLogger(t))
}

func dispatch(t *testing.T, d *Dispatcher, queryType string, params *QueryParameters, caller string, admin bool) (*QueryResult, error) {
	t.Helper()
	return d.Dispatch(context.Background(), QueryIntent{QueryType: queryType, Parameters: params}, caller, admin)
}

func libraryBooks() []models.Book {
	return []models.Book{
		book("1", "u1", "Dune", "Herbert", "SciFi", "12.50", models.ReadingStatusReading),
		book("2", "u2", "Dune", "Herbert", "SciFi", "15.00", models.ReadingStatusCompleted),
		book("3", "u2", "Emma", "Austen", "Romance", "8.00", models.ReadingStatusNotStarted),
		book("4", "u3", "Hobbit", "Tolkien", "Fantasy", "30.00", models.ReadingStatusCompleted),
		book("5", "u2", "Hobbit", "Tolkien", "Fantasy", "22.00", models.ReadingStatusNotStarted),
		book("6", "u1", "Go in Action", "Kennedy", "Programming", "45.99", models.ReadingStatusCompleted),
		book("7", "u1", "Clean Code", "Martin", "programming", "33.10", models.ReadingStatusNotStarted),
	}
}

func TestDispatcher_RegistryCoversEveryQueryType(t *testing.T) {
	d := newTestDispatcher(t, &fakeBookStore{}, nil)
	for _, qt := range models.AllQueryTypes {
		_, ok := d.registry[qt]
		assert.True(t, ok, "no handler for %s", qt)
	}
	assert.Len(t, d.registry, len(models.AllQueryTypes))
}

func TestDispatcher_UnsupportedQueryType(t *testing.T) {
	store := &fakeBookStore{books: libraryBooks()}
	d := newTestDispatcher(t, store, nil)

	for _, qt := range []string{"", "DROP_TABLE", "books by genre"} {
		_, err := dispatch(t, d, qt, nil, "u1", true)
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnsupportedQueryType), qt)
	}
	assert.Zero(t, store.totalCalls())
}

func TestDispatcher_MatchesTypeCaseInsensitively(t *testing.T) {
	d := newTestDispatcher(t, &fakeBookStore{books: libraryBooks()}, nil)

	result, err := dispatch(t, d, "my_book_count", nil, "u1", false)
	require.NoError(t, err)
	assert.Equal(t, models.QueryTypeMyBookCount, result.QueryType)
	assert.Equal(t, []Row{MetricRow{Metric: "Total Books", Value: 3}}, result.Rows)
	assert.Equal(t, ChartSingle, result.ChartType)
}

func TestAdminOnlyHandlers_RejectNonAdmins(t *testing.T) {
	tests := []struct {
		queryType string
		message   string
	}{
		{"USER_WITH_MOST_BOOKS", "Only admins can see all users' book counts"},
		{"MOST_POPULAR_BOOK", "Only admins can see most popular books across all users"},
		{"GENERAL_STATISTICS", "Only admins can see general statistics"},
	}

	for _, tt := range tests {
		t.Run(tt.queryType, func(t *testing.T) {
			store := &fakeBookStore{books: libraryBooks()}
			d := newTestDispatcher(t, store, nil)

			_, err := dispatch(t, d, tt.queryType, nil, "u1", false)
			require.Error(t, err)

			stdErr, ok := apperrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodeUnauthorized, stdErr.Code)
			assert.Equal(t, tt.message, stdErr.UserMessage())
			assert.Zero(t, store.allCalls)
		})
	}
}

func TestUserWithMostBooks(t *testing.T) {
	store := &fakeBookStore{books: libraryBooks()}
	users := &fakeUsers{names: map[string]string{"u1": "alice", "u2": "bob"}}
	d := newTestDispatcher(t, store, users)

	result, err := dispatch(t, d, "USER_WITH_MOST_BOOKS", nil, "admin", true)
	require.NoError(t, err)

	// u1 and u2 tie at 3; u1 was seen first. u3 has no user record.
	want := []Row{
		UserBookCountRow{UserName: "alice", BookCount: 3},
		UserBookCountRow{UserName: "bob", BookCount: 3},
		UserBookCountRow{UserName: "Unknown", BookCount: 1},
	}
	assert.Empty(t, cmp.Diff(want, result.Rows))
	assert.Equal(t, ChartBar, result.ChartType)
}

func TestUserWithMostBooks_TopTen(t *testing.T) {
	var books []models.Book
	names := map[string]string{}
	for i := 0; i < 12; i++ {
		owner := fmt.Sprintf("u%02d", i)
		names[owner] = owner
		for j := 0; j <= i; j++ {
			books = append(books, book(fmt.Sprintf("%d-%d", i, j), owner, "T", "A", "G", "1", models.ReadingStatusReading))
		}
	}
	d := newTestDispatcher(t, &fakeBookStore{books: books}, &fakeUsers{names: names})

	result, err := dispatch(t, d, "USER_WITH_MOST_BOOKS", nil, "admin", true)
	require.NoError(t, err)
	require.Len(t, result.Rows, 10)
	assert.Equal(t, UserBookCountRow{UserName: "u11", BookCount: 12}, result.Rows[0])
	assert.Equal(t, UserBookCountRow{UserName: "u02", BookCount: 3}, result.Rows[9])
}

func TestUserWithMostBooks_LookupFailureAborts(t *testing.T) {
	store := &fakeBookStore{books: libraryBooks()}
	d := newTestDispatcher(t, store, &fakeUsers{err: errors.New("connection refused")})

	_, err := dispatch(t, d, "USER_WITH_MOST_BOOKS", nil, "admin", true)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeExternalServiceError))
}

func TestMostPopularBook_CountsReadingAndCompletedCopies(t *testing.T) {
	d := newTestDispatcher(t, &fakeBookStore{books: libraryBooks()}, nil)

	result, err := dispatch(t, d, "MOST_POPULAR_BOOK", nil, "admin", true)
	require.NoError(t, err)

	want := []Row{
		PopularBookRow{Title: "Dune", Author: "Herbert", OwnedBy: 2},
		PopularBookRow{Title: "Hobbit", Author: "Tolkien", OwnedBy: 1},
		PopularBookRow{Title: "Go in Action", Author: "Kennedy", OwnedBy: 1},
		PopularBookRow{Title: "Emma", Author: "Austen", OwnedBy: 0},
		PopularBookRow{Title: "Clean Code", Author: "Martin", OwnedBy: 0},
	}
	assert.Empty(t, cmp.Diff(want, result.Rows))
	assert.Equal(t, ChartBar, result.ChartType)
}

func TestExpensiveBooks_Limit(t *testing.T) {
	tests := []struct {
		name     string
		limit    *int
		admin    bool
		wantIDs  []string
		wantCall string
	}{
		{"default limit for admin", nil, true, []string{"6", "7", "4", "5", "2"}, "all"},
		{"zero falls back to default", intPtr(0), true, []string{"6", "7", "4", "5", "2"}, "all"},
		{"negative falls back to default", intPtr(-3), true, []string{"6", "7", "4", "5", "2"}, "all"},
		{"explicit limit", intPtr(2), true, []string{"6", "7"}, "all"},
		{"limit above count", intPtr(50), false, []string{"6", "7", "1"}, "owner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeBookStore{books: libraryBooks()}
			d := newTestDispatcher(t, store, nil)

			result, err := dispatch(t, d, "EXPENSIVE_BOOKS", &QueryParameters{Limit: tt.limit}, "u1", tt.admin)
			require.NoError(t, err)
			assert.Equal(t, ChartTable, result.ChartType)

			var ids []string
			var prev *decimal.Decimal
			for _, r := range result.Rows {
				row := r.(ExpensiveBookRow)
				ids = append(ids, row.ID)
				if prev != nil {
					assert.True(t, row.Price.LessThanOrEqual(*prev), "rows must be non-increasing by price")
				}
				p := row.Price
				prev = &p
			}
			assert.Equal(t, tt.wantIDs, ids)

			if tt.wantCall == "all" {
				assert.Equal(t, 1, store.allCalls)
				assert.Zero(t, store.ownerCalls)
			} else {
				assert.Zero(t, store.allCalls)
				assert.Equal(t, 1, store.ownerCalls)
			}
		})
	}
}

func TestBooksByGenre_CaseInsensitiveSubstring(t *testing.T) {
	d := newTestDispatcher(t, &fakeBookStore{books: libraryBooks()}, nil)

	result, err := dispatch(t, d, "BOOKS_BY_GENRE", &QueryParameters{Genre: strPtr("PROGRAM")}, "u1", false)
	require.NoError(t, err)

	want := []Row{
		GenreBookRow{Title: "Go in Action", Author: "Kennedy", Genre: "Programming", Price: dec("45.99"), Status: "Completed"},
		GenreBookRow{Title: "Clean Code", Author: "Martin", Genre: "programming", Price: dec("33.10"), Status: "NotStarted"},
	}
	assert.Empty(t, cmp.Diff(want, result.Rows, decimalEqual))
	assert.Equal(t, ChartTable, result.ChartType)
}

func TestBooksByGenre_MissingGenreMatchesAll(t *testing.T) {
	d := newTestDispatcher(t, &fakeBookStore{books: libraryBooks()}, nil)

	result, err := dispatch(t, d, "BOOKS_BY_GENRE", nil, "admin", true)
	require.NoError(t, err)
	assert.Len(t, result.Rows, 7)
}

func TestBooksByStatus(t *testing.T) {
	t.Run("user goes through the store filter", func(t *testing.T) {
		store := &fakeBookStore{books: libraryBooks()}
		d := newTestDispatcher(t, store, nil)

		result, err := dispatch(t, d, "BOOKS_BY_STATUS", &QueryParameters{Status: strPtr("notstarted")}, "u2", false)
		require.NoError(t, err)

		want := []Row{
			StatusBookRow{Title: "Emma", Author: "Austen", Genre: "Romance", Status: "NotStarted"},
			StatusBookRow{Title: "Hobbit", Author: "Tolkien", Genre: "Fantasy", Status: "NotStarted"},
		}
		assert.Empty(t, cmp.Diff(want, result.Rows))
		assert.Equal(t, 1, store.statusCalls)
		assert.Zero(t, store.allCalls)
	})

	t.Run("admin filters every book", func(t *testing.T) {
		store := &fakeBookStore{books: libraryBooks()}
		d := newTestDispatcher(t, store, nil)

		result, err := dispatch(t, d, "BOOKS_BY_STATUS", &QueryParameters{Status: strPtr("READING")}, "admin", true)
		require.NoError(t, err)
		assert.Equal(t, []Row{StatusBookRow{Title: "Dune", Author: "Herbert", Genre: "SciFi", Status: "Reading"}}, result.Rows)
		assert.Equal(t, 1, store.allCalls)
		assert.Zero(t, store.statusCalls)
	})

	for _, status := range []*string{strPtr("xyz"), strPtr(""), nil} {
		store := &fakeBookStore{books: libraryBooks()}
		d := newTestDispatcher(t, store, nil)

		_, err := dispatch(t, d, "BOOKS_BY_STATUS", &QueryParameters{Status: status}, "u1", true)
		require.Error(t, err)
		stdErr, ok := apperrors.AsStandardError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeValidationFailed, stdErr.Code)
		assert.Contains(t, stdErr.UserMessage(), "Invalid reading status")
		assert.Zero(t, store.totalCalls(), "no data access on invalid status")
	}
}

func TestUserStatistics(t *testing.T) {
	t.Run("caller books only, even for admins", func(t *testing.T) {
		store := &fakeBookStore{books: libraryBooks()}
		d := newTestDispatcher(t, store, nil)

		result, err := dispatch(t, d, "USER_STATISTICS", nil, "u1", true)
		require.NoError(t, err)

		want := []Row{
			MetricRow{Metric: "Total Books", Value: 3},
			MetricRow{Metric: "Books Reading", Value: 1},
			MetricRow{Metric: "Books Completed", Value: 1},
			MetricRow{Metric: "Books Not Started", Value: 1},
			MetricRow{Metric: "Average Book Price", Value: dec("30.53")},
			MetricRow{Metric: "Most Common Genre", Value: "SciFi"},
		}
		assert.Empty(t, cmp.Diff(want, result.Rows, decimalEqual))
		assert.Equal(t, ChartTable, result.ChartType)
		assert.Zero(t, store.allCalls)
	})

	t.Run("average price rounds half to even", func(t *testing.T) {
		store := &fakeBookStore{books: []models.Book{
			book("1", "u1", "A", "X", "Drama", "10.00", models.ReadingStatusReading),
			book("2", "u1", "B", "X", "Drama", "10.25", models.ReadingStatusReading),
			book("3", "u1", "C", "X", "Drama", "10.00", models.ReadingStatusReading),
			book("4", "u1", "D", "X", "Drama", "10.25", models.ReadingStatusReading),
		}}
		d := newTestDispatcher(t, store, nil)

		result, err := dispatch(t, d, "USER_STATISTICS", nil, "u1", false)
		require.NoError(t, err)
		require.Len(t, result.Rows, 6)

		avg, ok := result.Rows[4].(MetricRow)
		require.True(t, ok)
		assert.Equal(t, "Average Book Price", avg.Metric)
		assert.Empty(t, cmp.Diff(dec("10.12"), avg.Value, decimalEqual))
	})

	t.Run("no books", func(t *testing.T) {
		d := newTestDispatcher(t, &fakeBookStore{books: libraryBooks()}, nil)

		result, err := dispatch(t, d, "USER_STATISTICS", nil, "nobody", false)
		require.NoError(t, err)
		assert.NotNil(t, result.Rows)
		assert.Empty(t, result.Rows)
		assert.Equal(t, ChartTable, result.ChartType)
	})
}

func TestGeneralStatistics(t *testing.T) {
	store := &fakeBookStore{books: []models.Book{
		book("1", "A", "One", "X", "Drama", "10", models.ReadingStatusReading),
		book("2", "B", "Two", "Y", "Drama", "30", models.ReadingStatusNotStarted),
	}}
	d := newTestDispatcher(t, store, nil)

	result, err := dispatch(t, d, "GENERAL_STATISTICS", nil, "admin", true)
	require.NoError(t, err)

	want := []Row{
		MetricRow{Metric: "Total Books", Value: 2},
		MetricRow{Metric: "Total Users with Books", Value: 2},
		MetricRow{Metric: "Average Books per User", Value: dec("1.0")},
		MetricRow{Metric: "Most Expensive Book", Value: dec("30")},
		MetricRow{Metric: "Average Book Price", Value: dec("20.0")},
		MetricRow{Metric: "Most Popular Genre", Value: "Drama"},
	}
	assert.Empty(t, cmp.Diff(want, result.Rows, decimalEqual))
	assert.Equal(t, ChartTable, result.ChartType)
}

func TestGeneralStatistics_EmptyLibrary(t *testing.T) {
	d := newTestDispatcher(t, &fakeBookStore{}, nil)

	result, err := dispatch(t, d, "GENERAL_STATISTICS", nil, "admin", true)
	require.NoError(t, err)

	want := []Row{
		MetricRow{Metric: "Total Books", Value: 0},
		MetricRow{Metric: "Total Users with Books", Value: 0},
		MetricRow{Metric: "Average Books per User", Value: 0},
		MetricRow{Metric: "Most Expensive Book", Value: 0},
		MetricRow{Metric: "Average Book Price", Value: 0},
		MetricRow{Metric: "Most Popular Genre", Value: "N/A"},
	}
	assert.Empty(t, cmp.Diff(want, result.Rows))
}

func TestCurrentlyReading_FiltersCompleted(t *testing.T) {
	store := &fakeBookStore{books: libraryBooks()}
	d := newTestDispatcher(t, store, nil)

	result, err := dispatch(t, d, "CURRENTLY_READING", nil, "u1", false)
	require.NoError(t, err)
	assert.Equal(t, []Row{StatusBookRow{Title: "Go in Action", Author: "Kennedy", Genre: "Programming", Status: "Completed"}}, result.Rows)
	assert.Equal(t, ChartTable, result.ChartType)
	assert.Equal(t, 1, store.statusCalls)

	result, err = dispatch(t, d, "CURRENTLY_READING", nil, "admin", true)
	require.NoError(t, err)
	assert.Len(t, result.Rows, 3)
}

func TestCommonGenre(t *testing.T) {
	store := &fakeBookStore{books: []models.Book{
		book("1", "u1", "A", "X", "Fantasy", "1", models.ReadingStatusReading),
		book("2", "u1", "B", "X", "Fantasy", "1", models.ReadingStatusReading),
		book("3", "u1", "C", "X", "SciFi", "1", models.ReadingStatusReading),
		book("4", "u2", "D", "X", "SciFi", "1", models.ReadingStatusReading),
		book("5", "u2", "E", "X", "SciFi", "1", models.ReadingStatusReading),
	}}
	d := newTestDispatcher(t, store, nil)

	result, err := dispatch(t, d, "COMMON_GENRE", nil, "u1", false)
	require.NoError(t, err)
	assert.Equal(t, []Row{MetricRow{Metric: "Most Common Genre", Value: "Fantasy"}}, result.Rows)
	assert.Equal(t, ChartSingle, result.ChartType)

	result, err = dispatch(t, d, "COMMON_GENRE", nil, "admin", true)
	require.NoError(t, err)
	assert.Equal(t, []Row{MetricRow{Metric: "Most Common Genre", Value: "SciFi"}}, result.Rows)

	result, err = dispatch(t, d, "COMMON_GENRE", nil, "nobody", false)
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
	assert.Equal(t, ChartSingle, result.ChartType)
}

func TestCommonGenre_TieGoesToFirstSeen(t *testing.T) {
	store := &fakeBookStore{books: []models.Book{
		book("1", "u1", "A", "X", "Horror", "1", models.ReadingStatusReading),
		book("2", "u1", "B", "X", "Poetry", "1", models.ReadingStatusReading),
		book("3", "u1", "C", "X", "Poetry", "1", models.ReadingStatusReading),
		book("4", "u1", "D", "X", "Horror", "1", models.ReadingStatusReading),
	}}
	d := newTestDispatcher(t, store, nil)

	result, err := dispatch(t, d, "COMMON_GENRE", nil, "u1", false)
	require.NoError(t, err)
	assert.Equal(t, "Horror", result.Rows[0].(MetricRow).Value)
}

func TestHandlers_ChartTypeIsFixedAndKeysUniform(t *testing.T) {
	wantChart := map[models.QueryType]ChartType{
		models.QueryTypeUserWithMostBooks: ChartBar,
		models.QueryTypeMostPopularBook:   ChartBar,
		models.QueryTypeExpensiveBooks:    ChartTable,
		models.QueryTypeBooksByGenre:      ChartTable,
		models.QueryTypeBooksByStatus:     ChartTable,
		models.QueryTypeUserStatistics:    ChartTable,
		models.QueryTypeGeneralStatistics: ChartTable,
		models.QueryTypeMyBookCount:       ChartSingle,
		models.QueryTypeCurrentlyReading:  ChartTable,
		models.QueryTypeCommonGenre:       ChartSingle,
	}
	params := &QueryParameters{Status: strPtr("Completed"), Genre: strPtr("fi")}

	for _, books := range [][]models.Book{nil, libraryBooks()} {
		d := newTestDispatcher(t, &fakeBookStore{books: books}, &fakeUsers{})
		for _, qt := range models.AllQueryTypes {
			for i := 0; i < 2; i++ {
				result, err := dispatch(t, d, string(qt), params, "u1", true)
				require.NoError(t, err, qt)
				assert.Equal(t, wantChart[qt], result.ChartType, qt)

				for _, row := range result.Rows {
					assert.Equal(t, result.Rows[0].Keys(), row.Keys(), qt)
					assert.Len(t, row.Values(), len(row.Keys()), qt)
				}
			}
		}
	}
}

func TestHandlers_StoreErrorsAreExternal(t *testing.T) {
	store := &fakeBookStore{err: errors.New("db down")}
	d := newTestDispatcher(t, store, nil)

	for _, qt := range models.AllQueryTypes {
		params := &QueryParameters{Status: strPtr("Reading")}
		_, err := dispatch(t, d, string(qt), params, "u1", true)
		require.Error(t, err, qt)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeExternalServiceError), qt)
	}
}

func TestDecimalRatio_RoundsHalfToEven(t *testing.T) {
	assert.True(t, dec("1.12").Equal(decimalRatio(9, 8)))
	assert.True(t, dec("0.38").Equal(decimalRatio(3, 8)))
	assert.True(t, dec("0.33").Equal(decimalRatio(1, 3)))
}
