package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/kanjibot/internal/spaced_repetition"
	"github.com/example/kanjibot/pkg/models"
)

// ReviewRepository is the SQL backed ReviewStore of one user
type ReviewRepository struct {
	db     *sqlx.DB
	userID int64
}

// NewReviewRepository creates a repository scoped to userID
func NewReviewRepository(db *sqlx.DB, userID int64) *ReviewRepository {
	return &ReviewRepository{db: db, userID: userID}
}

type reviewRow struct {
	ItemID string `db:"item_id"`
	models.ReviewRecord
}

// Get returns the record of an item
func (r *ReviewRepository) Get(ctx context.Context, itemID string) (models.ReviewRecord, bool, error) {
	var rec models.ReviewRecord
	query := r.db.Rebind(`
		SELECT level, ease_factor, next_review_at, is_done
		FROM review_records
		WHERE user_id = ? AND item_id = ?
	`)
	err := r.db.GetContext(ctx, &rec, query, r.userID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ReviewRecord{}, false, nil
	}
	if err != nil {
		return models.ReviewRecord{}, false, errors.Wrapf(err, "failed to get review record %s", itemID)
	}
	return rec, true, nil
}

// Put inserts or replaces the record of an item
func (r *ReviewRepository) Put(ctx context.Context, itemID string, rec models.ReviewRecord) error {
	return r.put(ctx, r.db, itemID, rec)
}

func (r *ReviewRepository) put(ctx context.Context, ex sqlx.ExecerContext, itemID string, rec models.ReviewRecord) error {
	query := r.db.Rebind(`
		INSERT INTO review_records (
			user_id, item_id, level, ease_factor, next_review_at, is_done, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, item_id) DO UPDATE SET
			level = excluded.level,
			ease_factor = excluded.ease_factor,
			next_review_at = excluded.next_review_at,
			is_done = excluded.is_done,
			updated_at = excluded.updated_at
	`)
	_, err := ex.ExecContext(ctx, query,
		r.userID,
		itemID,
		rec.Level,
		rec.EaseFactor,
		rec.NextReviewAt,
		rec.IsDone,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to put review record %s", itemID)
	}
	return nil
}

// Delete removes the record of an item
func (r *ReviewRepository) Delete(ctx context.Context, itemID string) error {
	return r.delete(ctx, r.db, itemID)
}

func (r *ReviewRepository) delete(ctx context.Context, ex sqlx.ExecerContext, itemID string) error {
	query := r.db.Rebind("DELETE FROM review_records WHERE user_id = ? AND item_id = ?")
	if _, err := ex.ExecContext(ctx, query, r.userID, itemID); err != nil {
		return errors.Wrapf(err, "failed to delete review record %s", itemID)
	}
	return nil
}

// GetAll returns every record of the user keyed by item ID
func (r *ReviewRepository) GetAll(ctx context.Context) (map[string]models.ReviewRecord, error) {
	var rows []reviewRow
	query := r.db.Rebind(`
		SELECT item_id, level, ease_factor, next_review_at, is_done
		FROM review_records
		WHERE user_id = ?
	`)
	if err := r.db.SelectContext(ctx, &rows, query, r.userID); err != nil {
		return nil, errors.Wrap(err, "failed to get review records")
	}

	records := make(map[string]models.ReviewRecord, len(rows))
	for _, row := range rows {
		records[row.ItemID] = row.ReviewRecord
	}
	return records, nil
}

// Clear removes all progress of the user
func (r *ReviewRepository) Clear(ctx context.Context) error {
	query := r.db.Rebind("DELETE FROM review_records WHERE user_id = ?")
	if _, err := r.db.ExecContext(ctx, query, r.userID); err != nil {
		return errors.Wrap(err, "failed to clear review records")
	}
	return nil
}

// Snapshot captures the current record of an item
func (r *ReviewRepository) Snapshot(ctx context.Context, itemID string) (Snapshot, error) {
	rec, found, err := r.Get(ctx, itemID)
	if err != nil {
		return Snapshot{}, err
	}
	return snapshotOf(itemID, rec, found), nil
}

// Restore writes a snapshot back in a single transaction
func (r *ReviewRepository) Restore(ctx context.Context, snap Snapshot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin restore")
	}
	defer tx.Rollback()

	if snap.Record == nil {
		err = r.delete(ctx, tx, snap.ItemID)
	} else {
		err = r.put(ctx, tx, snap.ItemID, *snap.Record)
	}
	if err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "failed to commit restore")
}

// CountDue returns how many records are due at now
func (r *ReviewRepository) CountDue(ctx context.Context, now time.Time) (int, error) {
	var count int
	query := r.db.Rebind(`
		SELECT COUNT(*) FROM review_records
		WHERE user_id = ? AND is_done = ? AND (next_review_at = 0 OR next_review_at <= ?)
	`)
	if err := r.db.GetContext(ctx, &count, query, r.userID, false, now.UnixMilli()); err != nil {
		return 0, errors.Wrap(err, "failed to count due records")
	}
	return count, nil
}

// Stats returns statistics about the user's progress
func (r *ReviewRepository) Stats(ctx context.Context, now time.Time) (models.Stats, error) {
	var stats models.Stats
	query := r.db.Rebind(`
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN is_done = ? AND (next_review_at = 0 OR next_review_at <= ?) THEN 1 ELSE 0 END), 0) AS due,
			COALESCE(SUM(CASE WHEN next_review_at = 0 THEN 1 ELSE 0 END), 0) AS learning,
			COALESCE(SUM(CASE WHEN next_review_at <> 0 AND level >= ? THEN 1 ELSE 0 END), 0) AS mastered,
			COALESCE(AVG(ease_factor), 2.5) AS avg_ease
		FROM review_records
		WHERE user_id = ?
	`)
	err := r.db.GetContext(ctx, &stats, query, false, now.UnixMilli(), spaced_repetition.MasteredLevel, r.userID)
	if err != nil {
		return models.Stats{}, errors.Wrap(err, "failed to get statistics")
	}
	return stats, nil
}

// DueCounter counts due records of any user
type DueCounter struct {
	db *sqlx.DB
}

// NewDueCounter creates a counter over db
func NewDueCounter(db *sqlx.DB) *DueCounter {
	return &DueCounter{db: db}
}

// CountDue returns how many records of userID are due at now
func (c *DueCounter) CountDue(ctx context.Context, userID int64, now time.Time) (int, error) {
	return NewReviewRepository(c.db, userID).CountDue(ctx, now)
}
