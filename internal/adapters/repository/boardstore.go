package repository

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	"github.com/ckwame-jpg/fantasy-tool/pkg/metrics"
)

// MemoryBoardStore keeps one immutable snapshot per query key. Readers never block on writers.
type MemoryBoardStore struct {
	mu     sync.RWMutex
	boards map[string]*atomic.Pointer[Snapshot]
	gen    atomic.Uint64
	now    func() time.Time
}

// NewMemoryBoardStore creates an empty store.
func NewMemoryBoardStore(opts ...Option) *MemoryBoardStore {
	s := &MemoryBoardStore{
		boards: make(map[string]*atomic.Pointer[Snapshot]),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextGeneration implements BoardStore.
func (s *MemoryBoardStore) NextGeneration() uint64 { return s.gen.Add(1) }

func (s *MemoryBoardStore) slot(key string, create bool) *atomic.Pointer[Snapshot] {
	s.mu.RLock()
	p := s.boards[key]
	s.mu.RUnlock()
	if p != nil || !create {
		return p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p = s.boards[key]; p == nil {
		p = &atomic.Pointer[Snapshot]{}
		s.boards[key] = p
	}
	return p
}

// Put implements BoardStore. ranked must already be in rank order.
func (s *MemoryBoardStore) Put(_ context.Context, q model.BoardQuery, gen uint64, ranked []model.NormalizedPlayer) error {
	q = q.Normalized()
	players := make([]model.NormalizedPlayer, len(ranked))
	copy(players, ranked)
	byID := make(map[string]int, len(players))
	for i, p := range players {
		byID[p.ID] = i
	}
	next := &Snapshot{Query: q, Generation: gen, BuiltAt: s.now(), Players: players, byID: byID}

	slot := s.slot(q.Key(), true)
	for {
		cur := slot.Load()
		if cur != nil && cur.Generation >= gen {
			metrics.RecordBoardStaleDrop()
			return ErrStaleGeneration
		}
		if slot.CompareAndSwap(cur, next) {
			break
		}
	}
	metrics.UpdateBoardPlayers(strconv.Itoa(q.Season), q.Position, len(players))
	return nil
}

// Get implements BoardStore.
func (s *MemoryBoardStore) Get(_ context.Context, q model.BoardQuery) (*Snapshot, error) {
	slot := s.slot(q.Key(), false)
	if slot == nil {
		return nil, ErrNotFound
	}
	snap := slot.Load()
	if snap == nil {
		return nil, ErrNotFound
	}
	return snap, nil
}

// Rank implements BoardStore.
func (s *MemoryBoardStore) Rank(ctx context.Context, q model.BoardQuery, playerID string) (Entry, error) {
	snap, err := s.Get(ctx, q)
	if err != nil {
		return Entry{}, err
	}
	p, ok := snap.Player(playerID)
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}
	return entryOf(p), nil
}

// TopN implements BoardStore.
func (s *MemoryBoardStore) TopN(ctx context.Context, q model.BoardQuery, n int) ([]Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	snap, err := s.Get(ctx, q)
	if err != nil {
		return nil, err
	}
	n = min(n, len(snap.Players))
	out := make([]Entry, n)
	for i := 0; i < n; i++ {
		out[i] = entryOf(snap.Players[i])
	}
	return out, nil
}

// Count implements BoardStore.
func (s *MemoryBoardStore) Count(ctx context.Context, q model.BoardQuery) int {
	snap, err := s.Get(ctx, q)
	if err != nil {
		return 0
	}
	return len(snap.Players)
}

func entryOf(p model.NormalizedPlayer) Entry {
	return Entry{
		Rank:     p.Rank,
		PlayerID: p.ID,
		Name:     p.Name,
		Position: string(p.Position),
		Score:    p.Score,
		Tier:     string(p.Tier),
	}
}
