// Package repository stores ranked boards and persisted draft picks.
package repository

import (
	"context"
	"time"

	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
)

// Entry is one ranked board row.
type Entry struct {
	Rank     int     `json:"rank"`
	PlayerID string  `json:"playerId"`
	Name     string  `json:"name"`
	Position string  `json:"position"`
	Score    float64 `json:"score"`
	Tier     string  `json:"tier"`
}

// Snapshot is an immutable ranked board for one query.
type Snapshot struct {
	Query      model.BoardQuery
	Generation uint64
	BuiltAt    time.Time
	// Players are in rank order.
	Players []model.NormalizedPlayer

	byID map[string]int
}

// Player returns a player of the snapshot by id.
func (s *Snapshot) Player(id string) (model.NormalizedPlayer, bool) {
	i, ok := s.byID[id]
	if !ok {
		return model.NormalizedPlayer{}, false
	}
	return s.Players[i], true
}

// BoardStore holds the latest ranked board per query.
type BoardStore interface {
	// NextGeneration issues a generation token to tag a board build with.
	NextGeneration() uint64
	// Put stores a ranked board unless a newer generation is already stored.
	Put(ctx context.Context, q model.BoardQuery, gen uint64, ranked []model.NormalizedPlayer) error
	Get(ctx context.Context, q model.BoardQuery) (*Snapshot, error)
	// Rank returns a player's row on a board.
	Rank(ctx context.Context, q model.BoardQuery, playerID string) (Entry, error)
	// TopN returns the first n rows by rank.
	TopN(ctx context.Context, q model.BoardQuery, n int) ([]Entry, error)
	Count(ctx context.Context, q model.BoardQuery) int
}
