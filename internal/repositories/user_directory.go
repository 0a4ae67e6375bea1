package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"realtime-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserDirectory is the narrow read-only view of the platform's profile store
// used to hydrate display fields. Profile writes happen elsewhere.
type UserDirectory interface {
	GetUser(ctx context.Context, userID int) (models.User, error)
	BulkUsers(ctx context.Context, ids []int) ([]models.User, error)
}

// UserDir reads the shared users table.
type UserDir struct {
	db *sqlx.DB
}

// NewUserDir constructs a UserDir.
func NewUserDir(db *sqlx.DB) *UserDir {
	return &UserDir{db: db}
}

// GetUser fetches a single profile row.
func (r *UserDir) GetUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT id, username, COALESCE(avatar_url, '') AS avatar_url, role FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// BulkUsers fetches multiple profiles in one query.
func (r *UserDir) BulkUsers(ctx context.Context, ids []int) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT id, username, COALESCE(avatar_url, '') AS avatar_url, role FROM users WHERE id = ANY($1)`, pq.Array(ids))
	return users, err
}
