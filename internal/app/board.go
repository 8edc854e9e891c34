package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/repository"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/board"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/filter"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	"github.com/ckwame-jpg/fantasy-tool/pkg/logger"
	"github.com/ckwame-jpg/fantasy-tool/pkg/metrics"
)

// BoardRequest selects and shapes a board view.
type BoardRequest struct {
	Query    model.BoardQuery
	Criteria filter.Criteria
	Sort     filter.SortSpec
	// Limit caps the number of returned players; 0 means all.
	Limit int
	// DraftID hides the players already drafted in that draft unless IncludeDrafted is set.
	DraftID        string
	IncludeDrafted bool
	// Refresh forces a rebuild from upstream.
	Refresh bool
}

// BoardView is a filtered and sorted board.
type BoardView struct {
	Season     int                      `json:"season"`
	Position   string                   `json:"position"`
	Generation uint64                   `json:"generation"`
	BuiltAt    time.Time                `json:"builtAt"`
	Total      int                      `json:"total"`
	Matched    int                      `json:"matched"`
	Players    []model.NormalizedPlayer `json:"players"`
}

// BuildBoard fetches, normalizes, joins and ranks the board for q, then stores it.
// When a newer build of the same query finished first, that build is returned instead.
func (s *Service) BuildBoard(ctx context.Context, q model.BoardQuery) (*repository.Snapshot, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	q = q.Normalized()
	if q.Season == 0 {
		q.Season = s.defaultSeason
	}
	gen := s.boards.NextGeneration()
	start := time.Now()

	records, err := s.players.Players(ctx, q)
	if err != nil {
		metrics.RecordBoardBuild("error")
		metrics.RecordErrorByComponent("board", "upstream_players")
		return nil, fmt.Errorf("fetch players for %s: %w", q.Key(), err)
	}

	var adp []model.ADPEntry
	if s.adp != nil {
		adp, err = s.adp.ADP(ctx, q.Season)
		if err != nil {
			// The board is still usable on the players' own adp values.
			metrics.RecordErrorByComponent("board", "upstream_adp")
			s.logger.Warn(ctx, "adp feed unavailable", logger.Int("season", q.Season), logger.Error(err))
		}
	}

	res := board.Build(records, adp)
	recordJoin(res.Join)
	if res.Join.Misses > 0 {
		s.logger.Debug(ctx, "adp join misses",
			logger.Int("misses", res.Join.Misses), logger.Any("sample", sample(res.Join.Missed, 10)))
	}

	err = s.boards.Put(ctx, q, gen, res.Players)
	switch {
	case errors.Is(err, repository.ErrStaleGeneration):
		metrics.RecordBoardBuild("stale")
		s.logger.Debug(ctx, "discarding superseded board build", logger.String("query", q.Key()))
	case err != nil:
		metrics.RecordBoardBuild("error")
		return nil, fmt.Errorf("store board %s: %w", q.Key(), err)
	default:
		metrics.RecordBoardBuild("ok")
		metrics.RecordBoardBuildLatency(float64(time.Since(start).Milliseconds()))
		s.logger.Info(ctx, "board built",
			logger.String("query", q.Key()),
			logger.Int("players", len(res.Players)),
			logger.Int("skipped", res.Skipped),
			logger.Int("adp_misses", res.Join.Misses),
		)
	}
	return s.boards.Get(ctx, q)
}

func recordJoin(st board.JoinStats) {
	for i := 0; i < st.ByID; i++ {
		metrics.RecordADPJoinHit("id")
	}
	for i := 0; i < st.ByKey; i++ {
		metrics.RecordADPJoinHit("name_position")
	}
	for i := 0; i < st.Misses; i++ {
		metrics.RecordADPJoinMiss()
	}
}

func sample(ids []string, n int) []string {
	if len(ids) > n {
		return ids[:n]
	}
	return ids
}

// snapshot returns a fresh enough board for q, building it when missing, expired or forced.
// Concurrent requests for the same query share one build.
func (s *Service) snapshot(ctx context.Context, q model.BoardQuery, refresh bool) (*repository.Snapshot, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	q = q.Normalized()
	if q.Season == 0 {
		q.Season = s.defaultSeason
	}
	if !refresh {
		if snap, err := s.boards.Get(ctx, q); err == nil && s.now().Sub(snap.BuiltAt) < s.boardTTL {
			return snap, nil
		}
	}

	mu := s.buildLock(q.Key())
	mu.Lock()
	defer mu.Unlock()
	if !refresh {
		// Another request may have rebuilt it while we waited.
		if snap, err := s.boards.Get(ctx, q); err == nil && s.now().Sub(snap.BuiltAt) < s.boardTTL {
			return snap, nil
		}
	}
	snap, err := s.BuildBoard(ctx, q)
	if err != nil {
		// Serve the previous board, if any, when upstream is down.
		if old, gerr := s.boards.Get(ctx, q); gerr == nil {
			s.logger.Warn(ctx, "serving previous board", logger.String("query", q.Key()), logger.Error(err))
			return old, nil
		}
		return nil, err
	}
	return snap, nil
}

func (s *Service) buildLock(key string) *sync.Mutex {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	mu, ok := s.builds[key]
	if !ok {
		mu = &sync.Mutex{}
		s.builds[key] = mu
	}
	return mu
}

// Board returns the filtered, sorted view of a ranked board.
func (s *Service) Board(ctx context.Context, req BoardRequest) (BoardView, error) {
	snap, err := s.snapshot(ctx, req.Query, req.Refresh)
	if err != nil {
		return BoardView{}, err
	}

	c := req.Criteria
	if c.FavoritesOnly && c.Favorites == nil {
		ids, err := s.Favorites(ctx)
		if err != nil {
			return BoardView{}, err
		}
		c.Favorites = filter.IDSet(ids)
	}
	if req.DraftID != "" && !req.IncludeDrafted {
		sess, err := s.session(ctx, req.DraftID)
		if err != nil {
			return BoardView{}, err
		}
		c.Exclude = filter.IDSet(sess.DraftedIDs())
	}
	if req.Sort.Field == "" {
		req.Sort = filter.DefaultSort
	}

	players := filter.View(snap.Players, c, req.Sort)
	matched := len(players)
	if req.Limit > 0 && len(players) > req.Limit {
		players = players[:req.Limit]
	}
	return BoardView{
		Season:     snap.Query.Season,
		Position:   snap.Query.Position,
		Generation: snap.Generation,
		BuiltAt:    snap.BuiltAt,
		Total:      len(snap.Players),
		Matched:    matched,
		Players:    players,
	}, nil
}

// BoardPlayer returns one ranked player of a board.
func (s *Service) BoardPlayer(ctx context.Context, q model.BoardQuery, playerID string) (model.NormalizedPlayer, error) {
	snap, err := s.snapshot(ctx, q, false)
	if err != nil {
		return model.NormalizedPlayer{}, err
	}
	p, ok := snap.Player(playerID)
	if !ok {
		return model.NormalizedPlayer{}, fmt.Errorf("player %s on board %s: %w", playerID, snap.Query.Key(), repository.ErrNotFound)
	}
	return p, nil
}

// TopN returns the first n rows of a board by rank.
func (s *Service) TopN(ctx context.Context, q model.BoardQuery, n int) ([]repository.Entry, error) {
	snap, err := s.snapshot(ctx, q, false)
	if err != nil {
		return nil, err
	}
	return s.boards.TopN(ctx, snap.Query, n)
}

// Favorites returns the favorite player ids.
func (s *Service) Favorites(ctx context.Context) ([]string, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	ids, err := s.favorites.Favorites(ctx)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	return ids, nil
}

// SetFavorites replaces the favorite player ids. Duplicates and empty ids are dropped.
func (s *Service) SetFavorites(ctx context.Context, ids []string) ([]string, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	seen := make(map[string]struct{}, len(ids))
	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		clean = append(clean, id)
	}
	saved, err := s.favorites.PutFavorites(ctx, clean)
	if err != nil {
		return nil, fmt.Errorf("save favorites: %w", err)
	}
	s.logger.Debug(ctx, "favorites saved", logger.String("count", strconv.Itoa(len(saved))))
	return saved, nil
}
