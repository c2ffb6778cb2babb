package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/guttosm/stockdash/internal/domain/models"
)

// UserRepository persists users and their watchlists.
type UserRepository interface {
	CreateUserWithWatchlist(ctx context.Context, username, email string, companyIDs []int64) (int64, error)
	FindUser(ctx context.Context, username, email string) (*models.User, error)
	ListWatchlist(ctx context.Context, userID int64) ([]models.CompanyRef, error)
}

type userRepository struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// NewUserRepository returns a UserRepository over db. Each call runs under queryTimeout.
func NewUserRepository(db *sql.DB, queryTimeout time.Duration) UserRepository {
	return &userRepository{db: db, queryTimeout: queryTimeout}
}

// CreateUserWithWatchlist inserts the user and every watchlist row in one transaction.
// Any failure rolls back, so no user is left behind without its watchlist.
func (r *userRepository) CreateUserWithWatchlist(ctx context.Context, username, email string, companyIDs []int64) (int64, error) {
	ctx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrap("begin registration", err)
	}

	var userID int64
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO users (username, email) VALUES ($1, $2) RETURNING user_id`,
		username, email,
	).Scan(&userID); err != nil {
		_ = tx.Rollback()
		return 0, wrap("insert user", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO watchlists (user_id, company_id) VALUES ($1, $2)`)
	if err != nil {
		_ = tx.Rollback()
		return 0, wrap("prepare watchlist insert", err)
	}
	for _, companyID := range companyIDs {
		if _, err := stmt.ExecContext(ctx, userID, companyID); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return 0, wrap("insert watchlist entry", err)
		}
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return 0, wrap("close watchlist insert", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, wrap("commit registration", err)
	}
	return userID, nil
}

// FindUser returns the first user whose username or email matches.
// An empty identifier is sent as NULL so it never matches.
func (r *userRepository) FindUser(ctx context.Context, username, email string) (*models.User, error) {
	ctx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	var u models.User
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, username, email FROM users WHERE username = $1 OR email = $2 LIMIT 1`,
		nullString(username), nullString(email),
	).Scan(&u.UserID, &u.Username, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap("find user", err)
	}
	return &u, nil
}

// ListWatchlist returns the companies on a user's watchlist in insertion order.
// An unknown user yields an empty list.
func (r *userRepository) ListWatchlist(ctx context.Context, userID int64) ([]models.CompanyRef, error) {
	ctx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT w.company_id, c.symbol, c.name
		FROM watchlists w
		JOIN companies c ON w.company_id = c.company_id
		WHERE w.user_id = $1
		ORDER BY w.watchlist_id`, userID)
	if err != nil {
		return nil, wrap("list watchlist", err)
	}
	defer rows.Close()
	return scanCompanyRefs(rows)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
