// internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err came from a unique index. gorm only
// translates driver errors when the connection is opened with TranslateError,
// so the Postgres error code is checked as well.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// transaction runs fn inside a database transaction, logging rollbacks.
func transaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	err := db.WithContext(ctx).Transaction(fn)
	if err != nil {
		slog.DebugContext(ctx, "Rolled back transaction", "error", err)
	}
	return err
}

// Page bounds a list query.
type Page struct {
	Offset int
	Limit  int
}

const defaultPageLimit = 100

func (p Page) apply(q *gorm.DB) *gorm.DB {
	limit := p.Limit
	if limit <= 0 || limit > defaultPageLimit {
		limit = defaultPageLimit
	}
	q = q.Limit(limit)
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	return q
}
