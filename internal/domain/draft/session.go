// Package draft keeps the drafted list of one draft converged across local actions,
// the persisted pick list, and events pushed by other participants.
package draft

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	"github.com/ckwame-jpg/fantasy-tool/pkg/logger"
	"github.com/ckwame-jpg/fantasy-tool/pkg/metrics"
)

// State is the sync state of a session.
type State int

const (
	Uninitialized State = iota
	Synced
	// Mutating is reported while a local change is being applied, saved and announced.
	Mutating
)

func (s State) String() string {
	switch s {
	case Synced:
		return "synced"
	case Mutating:
		return "mutating"
	}
	return "uninitialized"
}

// Mutation origins, used as metric labels.
const (
	originLocal    = "local"
	originRemote   = "remote"
	originFetch    = "fetch"
	originExternal = "external"
)

// Session owns the drafted list of one draft. All mutation goes through its methods.
// Local changes are applied before persistence and transport calls are issued;
// persistence failures are logged and never rolled back.
type Session struct {
	id  string
	dir Directory

	store     PickStore
	persister Persister
	transport Transport
	log       logger.Logger
	now       func() time.Time

	picksPerRound int
	totalRounds   int

	mu         sync.RWMutex
	drafted    []model.NormalizedPlayer
	index      map[string]struct{}
	state      State
	connected  bool
	lastSynced time.Time
	version    uint64

	fetchSeq atomic.Uint64
	mutating atomic.Int32
}

// NewSession creates an uninitialized session for draftID.
func NewSession(draftID string, dir Directory, opts ...Option) *Session {
	s := &Session{
		id:            draftID,
		dir:           dir,
		log:           logger.Nop(),
		now:           time.Now,
		picksPerRound: 15,
		totalRounds:   1,
		index:         make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.String("draft_id", draftID))
	return s
}

// ID returns the draft id.
func (s *Session) ID() string { return s.id }

// Load fetches the persisted picks and replaces the drafted list with the ones that resolve.
// On failure the list is left as is.
func (s *Session) Load(ctx context.Context) error {
	return s.fetch(ctx, originFetch)
}

// OnConnect handles a transport (re)connect: re-announce membership and resync from the store.
func (s *Session) OnConnect(ctx context.Context) error {
	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()

	if s.transport != nil {
		if err := s.transport.Join(ctx, s.id); err != nil {
			s.log.Warn(ctx, "join draft failed", logger.Error(err))
		}
	}
	return s.fetch(ctx, originFetch)
}

// OnDisconnect records that the transport dropped.
func (s *Session) OnDisconnect() {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
}

// ReplaceExternal replaces the drafted list with picks mirrored from an external platform.
func (s *Session) ReplaceExternal(ctx context.Context, picks []model.DraftPick) error {
	seq := s.fetchSeq.Add(1)
	return s.replace(ctx, seq, picks, originExternal)
}

func (s *Session) fetch(ctx context.Context, origin string) error {
	if s.store == nil {
		return ErrNoStore
	}
	seq := s.fetchSeq.Add(1)
	picks, err := s.store.GetPicks(ctx, s.id)
	if err != nil {
		metrics.RecordDraftSync("error")
		s.log.Warn(ctx, "fetch picks failed", logger.Error(err))
		return fmt.Errorf("fetch picks for draft %s: %w", s.id, err)
	}
	return s.replace(ctx, seq, picks, origin)
}

func (s *Session) replace(ctx context.Context, seq uint64, picks []model.DraftPick, origin string) error {
	players := make([]model.NormalizedPlayer, 0, len(picks))
	index := make(map[string]struct{}, len(picks))
	dropped := 0
	for _, pick := range picks {
		p, ok := s.dir.Player(pick.PlayerID)
		if !ok {
			dropped++
			continue
		}
		if _, dup := index[p.ID]; dup {
			continue
		}
		index[p.ID] = struct{}{}
		players = append(players, p)
	}

	s.mu.Lock()
	if seq != s.fetchSeq.Load() {
		s.mu.Unlock()
		metrics.RecordDraftStaleFetch()
		s.log.Debug(ctx, "discarding superseded pick list", logger.String("origin", origin))
		return ErrStaleFetch
	}
	changed := !sameOrder(s.drafted, players)
	if changed {
		s.version++
	}
	s.drafted = players
	s.index = index
	s.state = Synced
	s.lastSynced = s.now()
	n := len(s.drafted)
	s.mu.Unlock()

	metrics.RecordDraftSync("ok")
	if changed {
		metrics.RecordDraftMutation(origin, "replace")
		metrics.UpdateDraftedPlayers(s.id, n)
	}
	if dropped > 0 {
		s.log.Debug(ctx, "dropped unresolved picks", logger.Int("dropped", dropped))
	}
	return nil
}

func sameOrder(a, b []model.NormalizedPlayer) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

// Draft appends a known player, persists the full list and notifies the transport.
func (s *Session) Draft(ctx context.Context, playerID string) (model.NormalizedPlayer, error) {
	s.mutating.Add(1)
	defer s.mutating.Add(-1)

	p, ok := s.dir.Player(playerID)
	if !ok {
		return model.NormalizedPlayer{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}

	s.mu.Lock()
	if _, dup := s.index[p.ID]; dup {
		s.mu.Unlock()
		metrics.RecordDraftDuplicate()
		return model.NormalizedPlayer{}, fmt.Errorf("%w: %s", ErrAlreadyDrafted, p.ID)
	}
	s.drafted = append(s.drafted, p)
	s.index[p.ID] = struct{}{}
	job := s.jobLocked(false)
	s.mu.Unlock()

	metrics.RecordDraftMutation(originLocal, "draft")
	metrics.UpdateDraftedPlayers(s.id, len(job.Picks))
	s.persist(ctx, job)
	if s.transport != nil {
		if err := s.transport.NotifyDraft(ctx, s.id, p); err != nil {
			s.log.Warn(ctx, "notify draft failed", logger.String("player_id", p.ID), logger.Error(err))
		}
	}
	return p, nil
}

// Remove takes a player off the list, persists and notifies the transport.
func (s *Session) Remove(ctx context.Context, playerID string) error {
	s.mutating.Add(1)
	defer s.mutating.Add(-1)

	s.mu.Lock()
	if !s.removeLocked(playerID) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotDrafted, playerID)
	}
	job := s.jobLocked(false)
	s.mu.Unlock()

	metrics.RecordDraftMutation(originLocal, "remove")
	metrics.UpdateDraftedPlayers(s.id, len(job.Picks))
	s.persist(ctx, job)
	if s.transport != nil {
		if err := s.transport.NotifyRemove(ctx, s.id, playerID); err != nil {
			s.log.Warn(ctx, "notify remove failed", logger.String("player_id", playerID), logger.Error(err))
		}
	}
	return nil
}

// Reset clears the drafted list and the persisted picks.
func (s *Session) Reset(ctx context.Context) {
	s.mutating.Add(1)
	defer s.mutating.Add(-1)

	s.mu.Lock()
	s.drafted = nil
	s.index = make(map[string]struct{})
	job := s.jobLocked(true)
	s.mu.Unlock()

	metrics.RecordDraftMutation(originLocal, "reset")
	metrics.UpdateDraftedPlayers(s.id, 0)
	s.persist(ctx, job)
}

// OnPlayerDrafted merges a player drafted by another participant. It reports whether the list changed.
// Unknown and already-present players are ignored.
func (s *Session) OnPlayerDrafted(ctx context.Context, player model.NormalizedPlayer) bool {
	p, ok := s.dir.Player(player.ID)
	if !ok {
		s.log.Debug(ctx, "ignoring remote pick of unknown player", logger.String("player_id", player.ID))
		return false
	}

	s.mu.Lock()
	if _, dup := s.index[p.ID]; dup {
		s.mu.Unlock()
		metrics.RecordDraftDuplicate()
		return false
	}
	s.drafted = append(s.drafted, p)
	s.index[p.ID] = struct{}{}
	s.version++
	n := len(s.drafted)
	s.mu.Unlock()

	metrics.RecordDraftMutation(originRemote, "draft")
	metrics.UpdateDraftedPlayers(s.id, n)
	return true
}

// OnPlayerRemoved drops a player removed by another participant. It reports whether the list changed.
func (s *Session) OnPlayerRemoved(_ context.Context, playerID string) bool {
	s.mu.Lock()
	changed := s.removeLocked(playerID)
	if changed {
		s.version++
	}
	n := len(s.drafted)
	s.mu.Unlock()

	if changed {
		metrics.RecordDraftMutation(originRemote, "remove")
		metrics.UpdateDraftedPlayers(s.id, n)
	}
	return changed
}

func (s *Session) removeLocked(playerID string) bool {
	if _, ok := s.index[playerID]; !ok {
		return false
	}
	delete(s.index, playerID)
	kept := s.drafted[:0:0]
	for _, p := range s.drafted {
		if p.ID != playerID {
			kept = append(kept, p)
		}
	}
	s.drafted = kept
	return true
}

// jobLocked bumps the version and snapshots the list as a save job. Caller holds mu.
func (s *Session) jobLocked(clear bool) model.PersistJob {
	s.version++
	return model.PersistJob{
		DraftID:    s.id,
		Generation: s.version,
		Picks:      model.BuildPicks(s.drafted, s.picksPerRound, s.now()),
		Clear:      clear,
	}
}

func (s *Session) persist(ctx context.Context, job model.PersistJob) {
	if s.persister != nil {
		if err := s.persister.Enqueue(ctx, job); err != nil {
			metrics.RecordPicksPersistError()
			s.log.Error(ctx, "enqueue pick save failed", logger.Error(err))
		}
		return
	}
	if s.store == nil {
		return
	}

	var err error
	if job.Clear {
		err = s.store.ClearPicks(ctx, s.id)
	} else {
		err = s.store.SavePicks(ctx, s.id, job.Picks)
	}
	if err != nil {
		metrics.RecordPicksPersistError()
		s.log.Error(ctx, "save picks failed", logger.Error(err))
		return
	}
	metrics.RecordPicksPersisted()
}

// Drafted returns a copy of the drafted list in draft order.
func (s *Session) Drafted() []model.NormalizedPlayer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.NormalizedPlayer, len(s.drafted))
	copy(out, s.drafted)
	return out
}

// DraftedIDs returns the drafted player ids in draft order.
func (s *Session) DraftedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.drafted))
	for i, p := range s.drafted {
		ids[i] = p.ID
	}
	return ids
}

// IsDrafted reports whether id is on the list.
func (s *Session) IsDrafted(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

// Picks returns the drafted list numbered as picks.
func (s *Session) Picks() []model.DraftPick {
	return model.BuildPicks(s.Drafted(), s.picksPerRound, s.now())
}

// LastSyncedAt is when the list was last replaced from an authoritative source. Zero if never.
func (s *Session) LastSyncedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSynced
}

// State returns the sync state. A synced session reports Mutating while a local change is in flight.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == Synced && s.mutating.Load() > 0 {
		return Mutating
	}
	return s.state
}

// Connected reports the transport overlay status.
func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Version increases on every change to the list.
func (s *Session) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Progress describes how far along the draft is.
type Progress struct {
	Drafted      int     `json:"drafted"`
	CurrentRound int     `json:"currentRound"`
	CurrentPick  int     `json:"currentPick"`
	TotalPicks   int     `json:"totalPicks"`
	Percent      float64 `json:"percent"`
}

// Progress computes pacing from the number of drafted players.
func (s *Session) Progress() Progress {
	s.mu.RLock()
	n := len(s.drafted)
	s.mu.RUnlock()

	total := s.picksPerRound * s.totalRounds
	return Progress{
		Drafted:      n,
		CurrentRound: n/s.picksPerRound + 1,
		CurrentPick:  n%s.picksPerRound + 1,
		TotalPicks:   total,
		Percent:      math.Min(float64(n)/float64(total)*100, 100),
	}
}
