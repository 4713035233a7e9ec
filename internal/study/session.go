package study

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/example/kanjibot/internal/database"
	"github.com/example/kanjibot/internal/spaced_repetition"
	"github.com/example/kanjibot/pkg/models"
)

// DefaultUndoDepth is how many reviews a session can take back
const DefaultUndoDepth = 50

// ErrNothingToUndo is returned by Undo when no review is left to take back
var ErrNothingToUndo = errors.New("nothing to undo")

// Result describes one applied review
type Result struct {
	ItemID  string
	Before  *models.ReviewRecord // nil for an item reviewed for the first time
	After   models.ReviewRecord
	Snoozed bool // the item was not due and was left unchanged
}

// Session drives reviews of one learner: it reads a record, schedules it and
// writes it back as one step per item, and keeps pre-review snapshots for undo
type Session struct {
	store     database.ReviewStore
	srs       *spaced_repetition.SRS
	locks     *keyedMutex
	undoDepth int

	mu      sync.Mutex
	history []database.Snapshot
}

// NewSession creates a session over store. undoDepth <= 0 uses DefaultUndoDepth.
func NewSession(store database.ReviewStore, srs *spaced_repetition.SRS, undoDepth int) *Session {
	if srs == nil {
		srs = spaced_repetition.NewSRS()
	}
	if undoDepth <= 0 {
		undoDepth = DefaultUndoDepth
	}
	return &Session{
		store:     store,
		srs:       srs,
		locks:     newKeyedMutex(),
		undoDepth: undoDepth,
	}
}

// Review applies a review outcome to itemID and persists the new record
func (s *Session) Review(ctx context.Context, itemID string, quality spaced_repetition.Quality) (Result, error) {
	unlock := s.locks.Lock(itemID)
	defer unlock()

	snap, err := s.store.Snapshot(ctx, itemID)
	if err != nil {
		return Result{}, errors.Wrapf(err, "failed to read %s", itemID)
	}

	now := s.srs.CurrentTime()
	next := s.srs.ReviewAt(snap.Record, quality, now)
	result := Result{ItemID: itemID, Before: snap.Record, After: next}
	if quality == spaced_repetition.QualityFail && snap.Record != nil && snap.Record.NextReviewAt > now.UnixMilli() {
		// Snoozed: nothing changed, nothing to undo
		result.Snoozed = true
		return result, nil
	}

	if err := s.store.Put(ctx, itemID, next); err != nil {
		return Result{}, errors.Wrapf(err, "failed to save %s", itemID)
	}
	s.push(snap)
	return result, nil
}

// Undo restores the record of the most recently reviewed item to its
// pre-review state and returns that item's ID
func (s *Session) Undo(ctx context.Context) (string, error) {
	for {
		itemID, ok := s.peek()
		if !ok {
			return "", ErrNothingToUndo
		}

		// The item lock comes before the pop so a review of the same item in
		// flight lands first and is the one taken back
		unlock := s.locks.Lock(itemID)
		snap, ok := s.popIf(itemID)
		if !ok {
			unlock()
			continue
		}

		err := s.store.Restore(ctx, snap)
		if err != nil {
			s.push(snap)
		}
		unlock()
		if err != nil {
			return "", errors.Wrapf(err, "failed to undo %s", snap.ItemID)
		}
		return snap.ItemID, nil
	}
}

// CanUndo reports whether a review can be taken back
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history) > 0
}

// Next returns up to limit item IDs to study: due items first, then items from
// catalogue that were never reviewed, in catalogue order. limit <= 0 means all.
func (s *Session) Next(ctx context.Context, catalogue []string, limit int) ([]string, error) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load records")
	}

	queue := spaced_repetition.DueItems(records, s.srs.CurrentTime(), limit)
	for _, id := range catalogue {
		if limit > 0 && len(queue) >= limit {
			break
		}
		if _, seen := records[id]; !seen {
			queue = append(queue, id)
		}
	}
	return queue, nil
}

// Reset deletes all progress of the learner
func (s *Session) Reset(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return errors.Wrap(err, "failed to reset progress")
	}
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
	return nil
}

func (s *Session) push(snap database.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, snap)
	if len(s.history) > s.undoDepth {
		s.history = s.history[len(s.history)-s.undoDepth:]
	}
}

func (s *Session) peek() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) == 0 {
		return "", false
	}
	return s.history[len(s.history)-1].ItemID, true
}

// popIf pops the newest snapshot when it belongs to itemID
func (s *Session) popIf(itemID string) (database.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) == 0 || s.history[len(s.history)-1].ItemID != itemID {
		return database.Snapshot{}, false
	}
	snap := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	return snap, true
}
