package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/kanjibot/pkg/models"
)

// ItemRepository handles database operations for the item catalogue
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository creates a new repository instance
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = "id, kind, term, meaning, reading, deck, position"

// GetByID returns an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*models.Item, error) {
	var item models.Item
	err := r.db.GetContext(ctx, &item, r.db.Rebind("SELECT "+itemColumns+" FROM items WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get item %s", id)
	}
	return &item, nil
}

// Upsert creates the item or updates the existing one with the same ID
func (r *ItemRepository) Upsert(ctx context.Context, item *models.Item) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, errors.Wrap(err, "failed to begin item upsert")
	}
	defer tx.Rollback()

	var exists int
	err = tx.GetContext(ctx, &exists, r.db.Rebind("SELECT COUNT(*) FROM items WHERE id = ?"), item.ID)
	if err != nil {
		return false, errors.Wrapf(err, "failed to look up item %s", item.ID)
	}

	if exists == 0 {
		_, err = tx.ExecContext(ctx, r.db.Rebind(`
			INSERT INTO items (`+itemColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`), item.ID, item.Kind, item.Character, item.Meaning, item.Reading, item.Deck, item.Position)
	} else {
		_, err = tx.ExecContext(ctx, r.db.Rebind(`
			UPDATE items SET kind = ?, term = ?, meaning = ?, reading = ?, deck = ?, position = ?
			WHERE id = ?
		`), item.Kind, item.Character, item.Meaning, item.Reading, item.Deck, item.Position, item.ID)
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to save item %s", item.ID)
	}

	if err := tx.Commit(); err != nil {
		return false, errors.Wrap(err, "failed to commit item upsert")
	}
	return exists == 0, nil
}

// List returns the items of a deck in study order; an empty deck lists everything
func (r *ItemRepository) List(ctx context.Context, deck string) ([]models.Item, error) {
	var items []models.Item
	var err error
	if deck == "" {
		err = r.db.SelectContext(ctx, &items, "SELECT "+itemColumns+" FROM items ORDER BY deck, position, id")
	} else {
		err = r.db.SelectContext(ctx, &items,
			r.db.Rebind("SELECT "+itemColumns+" FROM items WHERE deck = ? ORDER BY position, id"), deck)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to list items")
	}
	return items, nil
}

// Decks returns every deck with its item count
func (r *ItemRepository) Decks(ctx context.Context) ([]DeckSummary, error) {
	var decks []DeckSummary
	err := r.db.SelectContext(ctx, &decks, "SELECT deck, COUNT(*) AS items FROM items GROUP BY deck ORDER BY deck")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list decks")
	}
	return decks, nil
}
