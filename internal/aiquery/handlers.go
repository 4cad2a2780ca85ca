package aiquery

import (
	"context"
	"fmt"
	"strings"
	"sync"

	apperrors "library-ai-workers/internal/common/errors"
	"library-ai-workers/internal/models"
)

const (
	defaultExpensiveLimit = 5
	topGroupsLimit        = 10
	unknownUserName       = "Unknown"
	notAvailable          = "N/A"
)

// userWithMostBooks ranks owners by how many books they hold.
func (d *Dispatcher) userWithMostBooks(ctx context.Context, req queryRequest) (*QueryResult, error) {
	if !req.IsAdmin {
		return nil, apperrors.NewAuthorizationError("Only admins can see all users' book counts")
	}

	books, err := d.allBooks(ctx)
	if err != nil {
		return nil, err
	}

	groups := groupBooks(books, func(b models.Book) string { return b.OwnerID })
	sortByCountDesc(groups, func(g bookGroup[string]) int { return len(g.books) })
	if len(groups) > topGroupsLimit {
		groups = groups[:topGroupsLimit]
	}

	names, err := d.resolveNames(ctx, groups)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(groups))
	for i, g := range groups {
		rows = append(rows, UserBookCountRow{UserName: names[i], BookCount: len(g.books)})
	}
	return &QueryResult{Rows: rows, ChartType: ChartBar}, nil
}

// resolveNames looks up owner display names concurrently. names[i] belongs to
// groups[i].
func (d *Dispatcher) resolveNames(ctx context.Context, groups []bookGroup[string]) ([]string, error) {
	names := make([]string, len(groups))
	errChan := make(chan error, len(groups))
	var wg sync.WaitGroup

	for i, g := range groups {
		wg.Add(1)
		go func(i int, ownerID string) {
			defer wg.Done()
			name, found, err := d.users.DisplayName(ctx, ownerID)
			if err != nil {
				errChan <- externalError("user-lookup", err)
				return
			}
			if !found || name == "" {
				name = unknownUserName
			}
			names[i] = name
		}(i, g.key)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		return nil, err
	}
	return names, nil
}

// mostPopularBook counts, per (title, author), the copies being read or finished.
func (d *Dispatcher) mostPopularBook(ctx context.Context, req queryRequest) (*QueryResult, error) {
	if !req.IsAdmin {
		return nil, apperrors.NewAuthorizationError("Only admins can see most popular books across all users")
	}

	books, err := d.allBooks(ctx)
	if err != nil {
		return nil, err
	}

	type titleKey struct{ title, author string }
	groups := groupBooks(books, func(b models.Book) titleKey { return titleKey{b.Title, b.Author} })

	active := func(g bookGroup[titleKey]) int {
		return countStatus(g.books, models.ReadingStatusReading) + countStatus(g.books, models.ReadingStatusCompleted)
	}
	sortByCountDesc(groups, active)
	if len(groups) > topGroupsLimit {
		groups = groups[:topGroupsLimit]
	}

	rows := make([]Row, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, PopularBookRow{Title: g.key.title, Author: g.key.author, OwnedBy: active(g)})
	}
	return &QueryResult{Rows: rows, ChartType: ChartBar}, nil
}

func (d *Dispatcher) expensiveBooks(ctx context.Context, req queryRequest) (*QueryResult, error) {
	limit := defaultExpensiveLimit
	if req.Params.Limit != nil && *req.Params.Limit > 0 {
		limit = *req.Params.Limit
	}

	books, err := d.scopedBooks(ctx, req)
	if err != nil {
		return nil, err
	}

	sorted := make([]models.Book, len(books))
	copy(sorted, books)
	sortBooksByPriceDesc(sorted)
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	rows := make([]Row, 0, len(sorted))
	for _, b := range sorted {
		rows = append(rows, ExpensiveBookRow{ID: b.ID, Title: b.Title, Author: b.Author, Price: b.Price, Genre: b.Genre})
	}
	return &QueryResult{Rows: rows, ChartType: ChartTable}, nil
}

// booksByGenre matches the genre as a case-insensitive substring. A missing
// genre matches every book.
func (d *Dispatcher) booksByGenre(ctx context.Context, req queryRequest) (*QueryResult, error) {
	genre := ""
	if req.Params.Genre != nil {
		genre = strings.ToLower(*req.Params.Genre)
	}

	books, err := d.scopedBooks(ctx, req)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0)
	for _, b := range books {
		if !strings.Contains(strings.ToLower(b.Genre), genre) {
			continue
		}
		rows = append(rows, GenreBookRow{
			Title:  b.Title,
			Author: b.Author,
			Genre:  b.Genre,
			Price:  b.Price,
			Status: b.ReadingStatus.String(),
		})
	}
	return &QueryResult{Rows: rows, ChartType: ChartTable}, nil
}

// booksByStatus validates the status before touching the store.
func (d *Dispatcher) booksByStatus(ctx context.Context, req queryRequest) (*QueryResult, error) {
	raw := ""
	if req.Params.Status != nil {
		raw = *req.Params.Status
	}
	status, err := models.ParseReadingStatus(raw)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("Invalid reading status: %s", raw), raw)
	}

	books, err := d.booksWithStatus(ctx, req, status)
	if err != nil {
		return nil, err
	}
	return &QueryResult{Rows: statusRows(books), ChartType: ChartTable}, nil
}

// userStatistics always reports on the caller's own books, admin or not.
func (d *Dispatcher) userStatistics(ctx context.Context, req queryRequest) (*QueryResult, error) {
	books, err := d.ownBooks(ctx, req.CallerID)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return &QueryResult{Rows: []Row{}, ChartType: ChartTable}, nil
	}

	genre, _ := mostCommonGenre(books)
	rows := []Row{
		MetricRow{Metric: "Total Books", Value: len(books)},
		MetricRow{Metric: "Books Reading", Value: countStatus(books, models.ReadingStatusReading)},
		MetricRow{Metric: "Books Completed", Value: countStatus(books, models.ReadingStatusCompleted)},
		MetricRow{Metric: "Books Not Started", Value: countStatus(books, models.ReadingStatusNotStarted)},
		MetricRow{Metric: "Average Book Price", Value: averagePrice(books)},
		MetricRow{Metric: "Most Common Genre", Value: genre},
	}
	return &QueryResult{Rows: rows, ChartType: ChartTable}, nil
}

func (d *Dispatcher) generalStatistics(ctx context.Context, req queryRequest) (*QueryResult, error) {
	if !req.IsAdmin {
		return nil, apperrors.NewAuthorizationError("Only admins can see general statistics")
	}

	books, err := d.allBooks(ctx)
	if err != nil {
		return nil, err
	}

	owners := len(groupBooks(books, func(b models.Book) string { return b.OwnerID }))

	var perOwner interface{} = 0
	if owners > 0 {
		perOwner = decimalRatio(len(books), owners)
	}
	var maxValue, avgValue interface{} = 0, 0
	if len(books) > 0 {
		maxValue = maxPrice(books)
		avgValue = averagePrice(books)
	}
	genre, ok := mostCommonGenre(books)
	if !ok {
		genre = notAvailable
	}

	rows := []Row{
		MetricRow{Metric: "Total Books", Value: len(books)},
		MetricRow{Metric: "Total Users with Books", Value: owners},
		MetricRow{Metric: "Average Books per User", Value: perOwner},
		MetricRow{Metric: "Most Expensive Book", Value: maxValue},
		MetricRow{Metric: "Average Book Price", Value: avgValue},
		MetricRow{Metric: "Most Popular Genre", Value: genre},
	}
	return &QueryResult{Rows: rows, ChartType: ChartTable}, nil
}

func (d *Dispatcher) myBookCount(ctx context.Context, req queryRequest) (*QueryResult, error) {
	count, err := d.books.CountByOwner(ctx, req.CallerID)
	if err != nil {
		return nil, externalError("book-store", err)
	}
	return &QueryResult{
		Rows:      []Row{MetricRow{Metric: "Total Books", Value: count}},
		ChartType: ChartSingle,
	}, nil
}

// currentlyReading filters on Completed, not Reading, as the existing product
// does. Suspected bug, kept as observed; see DESIGN.md.
func (d *Dispatcher) currentlyReading(ctx context.Context, req queryRequest) (*QueryResult, error) {
	books, err := d.booksWithStatus(ctx, req, models.ReadingStatusCompleted)
	if err != nil {
		return nil, err
	}
	return &QueryResult{Rows: statusRows(books), ChartType: ChartTable}, nil
}

func (d *Dispatcher) commonGenre(ctx context.Context, req queryRequest) (*QueryResult, error) {
	books, err := d.scopedBooks(ctx, req)
	if err != nil {
		return nil, err
	}

	genre, ok := mostCommonGenre(books)
	if !ok {
		return &QueryResult{Rows: []Row{}, ChartType: ChartSingle}, nil
	}
	return &QueryResult{
		Rows:      []Row{MetricRow{Metric: "Most Common Genre", Value: genre}},
		ChartType: ChartSingle,
	}, nil
}

func (d *Dispatcher) allBooks(ctx context.Context) ([]models.Book, error) {
	books, err := d.books.AllBooks(ctx)
	if err != nil {
		return nil, externalError("book-store", err)
	}
	return books, nil
}

func (d *Dispatcher) ownBooks(ctx context.Context, ownerID string) ([]models.Book, error) {
	books, err := d.books.BooksByOwner(ctx, ownerID)
	if err != nil {
		return nil, externalError("book-store", err)
	}
	return books, nil
}

// scopedBooks returns every book for admins and the caller's books otherwise.
func (d *Dispatcher) scopedBooks(ctx context.Context, req queryRequest) ([]models.Book, error) {
	if req.IsAdmin {
		return d.allBooks(ctx)
	}
	return d.ownBooks(ctx, req.CallerID)
}

// booksWithStatus filters in memory for admins and lets the store filter for
// everyone else.
func (d *Dispatcher) booksWithStatus(ctx context.Context, req queryRequest, status models.ReadingStatus) ([]models.Book, error) {
	if req.IsAdmin {
		books, err := d.allBooks(ctx)
		if err != nil {
			return nil, err
		}
		return filterStatus(books, status), nil
	}

	books, err := d.books.BooksByOwnerAndStatus(ctx, req.CallerID, status)
	if err != nil {
		return nil, externalError("book-store", err)
	}
	return books, nil
}

func statusRows(books []models.Book) []Row {
	rows := make([]Row, 0, len(books))
	for _, b := range books {
		rows = append(rows, StatusBookRow{
			Title:  b.Title,
			Author: b.Author,
			Genre:  b.Genre,
			Status: b.ReadingStatus.String(),
		})
	}
	return rows
}

// externalError keeps typed errors from the stores and wraps anything else.
func externalError(service string, err error) error {
	if _, ok := apperrors.AsStandardError(err); ok {
		return err
	}
	return apperrors.NewExternalServiceError(service, err)
}
