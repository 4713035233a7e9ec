package database

import (
	"context"
	"sync"

	"github.com/example/kanjibot/pkg/models"
)

// MemoryStore is a ReviewStore kept in process memory
type MemoryStore struct {
	mutex   sync.RWMutex
	records map[string]models.ReviewRecord
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]models.ReviewRecord)}
}

func (s *MemoryStore) Get(_ context.Context, itemID string) (models.ReviewRecord, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	rec, ok := s.records[itemID]
	return rec, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, itemID string, rec models.ReviewRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.records[itemID] = rec
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, itemID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.records, itemID)
	return nil
}

func (s *MemoryStore) GetAll(_ context.Context) (map[string]models.ReviewRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	all := make(map[string]models.ReviewRecord, len(s.records))
	for id, rec := range s.records {
		all[id] = rec
	}
	return all, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.records = make(map[string]models.ReviewRecord)
	return nil
}

func (s *MemoryStore) Snapshot(ctx context.Context, itemID string) (Snapshot, error) {
	rec, found, err := s.Get(ctx, itemID)
	if err != nil {
		return Snapshot{}, err
	}
	return snapshotOf(itemID, rec, found), nil
}

func (s *MemoryStore) Restore(ctx context.Context, snap Snapshot) error {
	if snap.Record == nil {
		return s.Delete(ctx, snap.ItemID)
	}
	return s.Put(ctx, snap.ItemID, *snap.Record)
}
