package draft

import (
	"context"

	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
)

// PickStore is the authoritative persisted pick list of a draft.
type PickStore interface {
	GetPicks(ctx context.Context, draftID string) ([]model.DraftPick, error)
	SavePicks(ctx context.Context, draftID string, picks []model.DraftPick) error
	ClearPicks(ctx context.Context, draftID string) error
}

// Persister accepts save jobs to be executed asynchronously.
type Persister interface {
	Enqueue(ctx context.Context, job model.PersistJob) error
}

// Transport announces local changes to the other participants of a draft.
type Transport interface {
	Join(ctx context.Context, draftID string) error
	NotifyDraft(ctx context.Context, draftID string, player model.NormalizedPlayer) error
	NotifyRemove(ctx context.Context, draftID, playerID string) error
}

// Directory resolves player ids to known players.
type Directory interface {
	Player(id string) (model.NormalizedPlayer, bool)
}

// DirectoryFunc adapts a function to Directory.
type DirectoryFunc func(id string) (model.NormalizedPlayer, bool)

// Player implements Directory.
func (f DirectoryFunc) Player(id string) (model.NormalizedPlayer, bool) { return f(id) }

// StaticDirectory is a fixed id lookup, handy for tools and tests.
type StaticDirectory map[string]model.NormalizedPlayer

// NewStaticDirectory indexes players by id.
func NewStaticDirectory(players []model.NormalizedPlayer) StaticDirectory {
	d := make(StaticDirectory, len(players))
	for _, p := range players {
		d[p.ID] = p
	}
	return d
}

// Player implements Directory.
func (d StaticDirectory) Player(id string) (model.NormalizedPlayer, bool) {
	p, ok := d[id]
	return p, ok
}
