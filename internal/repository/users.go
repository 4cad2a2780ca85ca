package repository

import (
	"context"
	"database/sql"
	"errors"

	apperrors "library-ai-workers/internal/common/errors"
)

// PostgresUserLookup resolves display names from the users table.
type PostgresUserLookup struct {
	db *sql.DB
}

func NewPostgresUserLookup(db *sql.DB) *PostgresUserLookup {
	return &PostgresUserLookup{db: db}
}

// DisplayName returns found=false for an unknown user.
func (l *PostgresUserLookup) DisplayName(ctx context.Context, userID string) (string, bool, error) {
	var name sql.NullString
	err := l.db.QueryRowContext(ctx, `SELECT user_name FROM users WHERE id = $1`, userID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.NewQueryExecutionFailedError("user_display_name", err)
	}
	return name.String, true, nil
}
