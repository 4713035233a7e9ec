package database

import (
	"context"

	"github.com/pkg/errors"

	"github.com/example/kanjibot/pkg/models"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// ReviewStore persists scheduling records of a single learner keyed by item ID
type ReviewStore interface {
	// Get returns the record of itemID; found is false when the item was never reviewed
	Get(ctx context.Context, itemID string) (rec models.ReviewRecord, found bool, err error)
	// Put stores rec for itemID, replacing any previous record
	Put(ctx context.Context, itemID string, rec models.ReviewRecord) error
	Delete(ctx context.Context, itemID string) error
	GetAll(ctx context.Context) (map[string]models.ReviewRecord, error)
	// Clear removes all progress of the learner
	Clear(ctx context.Context) error
	// Snapshot captures the current state of itemID so it can be restored verbatim
	Snapshot(ctx context.Context, itemID string) (Snapshot, error)
	// Restore writes back a snapshot; a snapshot of a missing record deletes it
	Restore(ctx context.Context, snap Snapshot) error
}

// Snapshot is the pre-review state of one item
type Snapshot struct {
	ItemID string
	Record *models.ReviewRecord // nil when the item had no record
}

func snapshotOf(itemID string, rec models.ReviewRecord, found bool) Snapshot {
	snap := Snapshot{ItemID: itemID}
	if found {
		r := rec
		snap.Record = &r
	}
	return snap
}
