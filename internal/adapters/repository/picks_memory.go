package repository

import (
	"context"
	"sync"

	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
)

// MemoryPickStore keeps pick lists in process. Used for local runs and tests.
type MemoryPickStore struct {
	mu    sync.RWMutex
	picks map[string][]model.DraftPick
}

// NewMemoryPickStore creates an empty store.
func NewMemoryPickStore() *MemoryPickStore {
	return &MemoryPickStore{picks: make(map[string][]model.DraftPick)}
}

// GetPicks returns a copy of the stored picks. An unknown draft has no picks.
func (s *MemoryPickStore) GetPicks(_ context.Context, draftID string) ([]model.DraftPick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.picks[draftID]
	out := make([]model.DraftPick, len(stored))
	copy(out, stored)
	return out, nil
}

// SavePicks replaces the draft's picks.
func (s *MemoryPickStore) SavePicks(_ context.Context, draftID string, picks []model.DraftPick) error {
	cp := make([]model.DraftPick, len(picks))
	copy(cp, picks)
	s.mu.Lock()
	s.picks[draftID] = cp
	s.mu.Unlock()
	return nil
}

// ClearPicks drops the draft's picks.
func (s *MemoryPickStore) ClearPicks(_ context.Context, draftID string) error {
	s.mu.Lock()
	delete(s.picks, draftID)
	s.mu.Unlock()
	return nil
}
