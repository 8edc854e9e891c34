package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/backend"
	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/platform"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/draft"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/roster"
	"github.com/ckwame-jpg/fantasy-tool/pkg/logger"
)

// loadGate lets exactly one caller load a draft, and lets the next caller retry after a failure.
type loadGate struct {
	mu   sync.Mutex
	done bool
}

// DraftView is the state of a draft as served to clients.
type DraftView struct {
	DraftID      string                   `json:"draftId"`
	State        string                   `json:"state"`
	Connected    bool                     `json:"connected"`
	Version      uint64                   `json:"version"`
	LastSyncedAt *time.Time               `json:"lastSyncedAt,omitempty"`
	Progress     draft.Progress           `json:"progress"`
	Drafted      []model.NormalizedPlayer `json:"drafted"`
}

// session returns the session of draftID, loading it from the pick store on first use.
func (s *Service) session(ctx context.Context, draftID string) (*draft.Session, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	draftID = strings.TrimSpace(draftID)
	if draftID == "" {
		return nil, fmt.Errorf("%w: empty draft id", ErrInvalidArgument)
	}

	sess, _ := s.registry.Session(draftID)

	s.loadMu.Lock()
	gate, ok := s.loads[draftID]
	if !ok {
		gate = &loadGate{}
		s.loads[draftID] = gate
	}
	s.loadMu.Unlock()

	gate.mu.Lock()
	defer gate.mu.Unlock()
	if gate.done {
		return sess, nil
	}
	if err := s.load(ctx, sess); err != nil {
		return nil, err
	}
	gate.done = true
	return sess, nil
}

func (s *Service) load(ctx context.Context, sess *draft.Session) error {
	// Stored picks resolve against the board, so it has to exist first.
	if _, err := s.snapshot(ctx, s.defaultQuery(), false); err != nil {
		return fmt.Errorf("build board for draft %s: %w", sess.ID(), err)
	}

	var err error
	s.mu.RLock()
	t := s.transport
	s.mu.RUnlock()
	switch conn := t.(type) {
	case nil:
		err = sess.Load(ctx)
	case interface{ Connected() bool }:
		if conn.Connected() {
			err = sess.OnConnect(ctx)
			break
		}
		// Not connected yet: remember the room so the next connect announces it.
		if jerr := t.Join(ctx, sess.ID()); jerr != nil {
			s.logger.Debug(ctx, "join deferred", logger.String("draft_id", sess.ID()), logger.Error(jerr))
		}
		err = sess.Load(ctx)
	default:
		err = sess.OnConnect(ctx)
	}
	if err != nil && !errors.Is(err, draft.ErrStaleFetch) {
		return fmt.Errorf("load draft %s: %w", sess.ID(), err)
	}
	return nil
}

// DraftPlayer adds a player to a draft.
func (s *Service) DraftPlayer(ctx context.Context, draftID, playerID string) (model.NormalizedPlayer, error) {
	if strings.TrimSpace(playerID) == "" {
		return model.NormalizedPlayer{}, fmt.Errorf("%w: empty player id", ErrInvalidArgument)
	}
	sess, err := s.session(ctx, draftID)
	if err != nil {
		return model.NormalizedPlayer{}, err
	}
	return sess.Draft(ctx, playerID)
}

// RemovePlayer takes a player off a draft.
func (s *Service) RemovePlayer(ctx context.Context, draftID, playerID string) error {
	sess, err := s.session(ctx, draftID)
	if err != nil {
		return err
	}
	return sess.Remove(ctx, playerID)
}

// ResetDraft clears a draft.
func (s *Service) ResetDraft(ctx context.Context, draftID string) error {
	sess, err := s.session(ctx, draftID)
	if err != nil {
		return err
	}
	sess.Reset(ctx)
	return nil
}

// SyncDraft reloads a draft from the pick store, replacing local state.
func (s *Service) SyncDraft(ctx context.Context, draftID string) (DraftView, error) {
	sess, err := s.session(ctx, draftID)
	if err != nil {
		return DraftView{}, err
	}
	if err := sess.Load(ctx); err != nil && !errors.Is(err, draft.ErrStaleFetch) {
		return DraftView{}, fmt.Errorf("sync draft %s: %w", draftID, err)
	}
	return viewOf(sess), nil
}

// DraftState returns the drafted list, sync state and pacing of a draft.
func (s *Service) DraftState(ctx context.Context, draftID string) (DraftView, error) {
	sess, err := s.session(ctx, draftID)
	if err != nil {
		return DraftView{}, err
	}
	return viewOf(sess), nil
}

func viewOf(sess *draft.Session) DraftView {
	v := DraftView{
		DraftID:   sess.ID(),
		State:     sess.State().String(),
		Connected: sess.Connected(),
		Version:   sess.Version(),
		Progress:  sess.Progress(),
		Drafted:   sess.Drafted(),
	}
	if ts := sess.LastSyncedAt(); !ts.IsZero() {
		v.LastSyncedAt = &ts
	}
	return v
}

// Roster slots the drafted players of a draft into the default lineup.
func (s *Service) Roster(ctx context.Context, draftID string) (roster.Lineup, error) {
	sess, err := s.session(ctx, draftID)
	if err != nil {
		return roster.Lineup{}, err
	}
	return roster.Assign(roster.DefaultTemplate, sess.Drafted()), nil
}

// SaveTeam stores the drafted list of a draft as a named team and makes it the active one.
func (s *Service) SaveTeam(ctx context.Context, draftID, name string) (backend.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return backend.Team{}, fmt.Errorf("%w: empty team name", ErrInvalidArgument)
	}
	if s.teams == nil {
		return backend.Team{}, fmt.Errorf("%w: team store", ErrNotConfigured)
	}
	sess, err := s.session(ctx, draftID)
	if err != nil {
		return backend.Team{}, err
	}

	picks := model.BuildPicks(sess.Drafted(), s.picksPerRound, s.now())
	team, err := s.teams.CreateTeam(ctx, name, picks)
	if err != nil {
		return backend.Team{}, fmt.Errorf("create team %q: %w", name, err)
	}
	if err := s.teams.SetActiveTeam(ctx, team.ID); err != nil {
		return team, fmt.Errorf("activate team %s: %w", team.ID, err)
	}
	s.logger.Info(ctx, "team saved",
		logger.String("draft_id", draftID), logger.String("team_id", team.ID), logger.Int("picks", len(picks)))
	return team, nil
}

// WatchExternal mirrors the picks of an external draft into draftID on the configured schedule.
func (s *Service) WatchExternal(ctx context.Context, externalID, draftID string) error {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return fmt.Errorf("%w: empty external draft id", ErrInvalidArgument)
	}
	if s.poller == nil {
		return fmt.Errorf("%w: external draft source", ErrNotConfigured)
	}
	sess, err := s.session(ctx, draftID)
	if err != nil {
		return err
	}
	if err := s.poller.Add(s.externalSchedule, platform.Watch{ExternalID: externalID, DraftID: sess.ID(), Target: sess}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	s.logger.Info(ctx, "watching external draft",
		logger.String("external_id", externalID), logger.String("draft_id", sess.ID()))
	// First poll right away rather than waiting a full interval.
	go s.poller.Poll(context.WithoutCancel(ctx), sess.ID())
	return nil
}

// UnwatchExternal stops mirroring into draftID.
func (s *Service) UnwatchExternal(draftID string) bool {
	if s.poller == nil {
		return false
	}
	return s.poller.Remove(draftID)
}

// Lookup returns an already created session. It never creates one.
func (s *Service) Lookup(draftID string) (*draft.Session, bool) {
	if !s.running() {
		return nil, false
	}
	return s.registry.Lookup(draftID)
}

// Observe mirrors events published by relay participants into local sessions.
func (s *Service) Observe(ctx context.Context, ev model.DraftEvent) {
	sess, ok := s.Lookup(ev.DraftID)
	if !ok {
		return
	}
	switch ev.Type {
	case model.EventPlayerDrafted:
		if ev.Player != nil {
			sess.OnPlayerDrafted(ctx, *ev.Player)
		}
	case model.EventPlayerRemoved:
		sess.OnPlayerRemoved(ctx, ev.PlayerID)
	}
}
