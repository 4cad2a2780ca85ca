// Package repository holds the read-only book store and user lookup backends.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "library-ai-workers/internal/common/errors"
	"library-ai-workers/internal/common/logger"
	"library-ai-workers/internal/models"
)

const bookColumns = `id, title, author, genre, price, reading_status, user_id, publication_year, rating`

// PostgresBookStore reads the books table.
type PostgresBookStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresBookStore(db *sql.DB, log logger.Logger) *PostgresBookStore {
	return &PostgresBookStore{
		db:     db,
		logger: logger.ForComponent(log, "postgres-book-store"),
	}
}

func (s *PostgresBookStore) AllBooks(ctx context.Context) ([]models.Book, error) {
	return s.queryBooks(ctx, "all_books",
		`SELECT `+bookColumns+` FROM books ORDER BY id`)
}

func (s *PostgresBookStore) BooksByOwner(ctx context.Context, ownerID string) ([]models.Book, error) {
	return s.queryBooks(ctx, "books_by_owner",
		`SELECT `+bookColumns+` FROM books WHERE user_id = $1 ORDER BY id`, ownerID)
}

func (s *PostgresBookStore) BooksByOwnerAndStatus(ctx context.Context, ownerID string, status models.ReadingStatus) ([]models.Book, error) {
	return s.queryBooks(ctx, "books_by_owner_and_status",
		`SELECT `+bookColumns+` FROM books WHERE user_id = $1 AND reading_status = $2 ORDER BY id`,
		ownerID, int(status))
}

func (s *PostgresBookStore) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE user_id = $1`, ownerID).Scan(&count)
	if err != nil {
		return 0, s.wrap("count_by_owner", err)
	}
	return count, nil
}

func (s *PostgresBookStore) queryBooks(ctx context.Context, op, query string, args ...interface{}) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.wrap(op, err)
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, s.wrap(op, err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap(op, err)
	}

	s.logger.Debug("books loaded", map[string]interface{}{
		"operation": op,
		"count":     len(books),
	})
	return books, nil
}

func scanBook(rows *sql.Rows) (models.Book, error) {
	var (
		book   models.Book
		price  decimal.NullDecimal
		status int
		year   sql.NullInt64
		rating sql.NullInt64
		genre  sql.NullString
		author sql.NullString
	)
	if err := rows.Scan(&book.ID, &book.Title, &author, &genre, &price, &status, &book.OwnerID, &year, &rating); err != nil {
		return book, fmt.Errorf("scan book: %w", err)
	}

	book.Author = author.String
	book.Genre = genre.String
	if price.Valid {
		book.Price = price.Decimal
	}
	book.ReadingStatus = models.ReadingStatus(status)
	if !book.ReadingStatus.Valid() {
		return book, fmt.Errorf("book %s has unknown reading status %d", book.ID, status)
	}
	book.PublicationYear = nullIntPtr(year)
	book.Rating = nullIntPtr(rating)
	return book, nil
}

func nullIntPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func (s *PostgresBookStore) wrap(op string, err error) error {
	return apperrors.NewQueryExecutionFailedError(op, err)
}
