package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/kanjibot/pkg/models"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "telegram_id, username, first_name, notification_enabled, notification_hour, reviews_per_session, created_at"

// Ensure registers the user on first contact and refreshes the profile fields
// afterwards; settings are left untouched
func (r *UserRepository) Ensure(ctx context.Context, user models.User) (*models.User, error) {
	query := r.db.Rebind(`
		INSERT INTO users (telegram_id, username, first_name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name
	`)
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Username, user.FirstName, time.Now().UnixMilli())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to save user %d", user.ID)
	}
	return r.GetByID(ctx, user.ID)
}

// GetByID returns a user by Telegram ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind("SELECT "+userColumns+" FROM users WHERE telegram_id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get user %d", id)
	}
	return &user, nil
}

// GetUsersForNotification returns users who want a reminder at the given hour
func (r *UserRepository) GetUsersForNotification(ctx context.Context, hour int) ([]models.User, error) {
	var users []models.User
	query := r.db.Rebind(`
		SELECT ` + userColumns + ` FROM users
		WHERE notification_enabled = ? AND notification_hour = ?
		ORDER BY telegram_id
	`)
	if err := r.db.SelectContext(ctx, &users, query, true, hour); err != nil {
		return nil, errors.Wrap(err, "failed to get users for notification")
	}
	return users, nil
}

// UpdateNotification changes the reminder settings of a user
func (r *UserRepository) UpdateNotification(ctx context.Context, id int64, enabled bool, hour int) error {
	query := r.db.Rebind("UPDATE users SET notification_enabled = ?, notification_hour = ? WHERE telegram_id = ?")
	return r.updateOne(ctx, id, query, enabled, hour, id)
}

// UpdateReviewsPerSession changes how many cards a session shows
func (r *UserRepository) UpdateReviewsPerSession(ctx context.Context, id int64, count int) error {
	query := r.db.Rebind("UPDATE users SET reviews_per_session = ? WHERE telegram_id = ?")
	return r.updateOne(ctx, id, query, count, id)
}

func (r *UserRepository) updateOne(ctx context.Context, id int64, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrapf(err, "failed to update user %d", id)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
