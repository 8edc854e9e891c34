// Package service wires the board, draft sessions and persistence together and
// implements the dependencies required by the HTTP API and the MCP tools.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/backend"
	eventqueue "github.com/ckwame-jpg/fantasy-tool/internal/adapters/mq/queue"
	workerpool "github.com/ckwame-jpg/fantasy-tool/internal/adapters/mq/worker"
	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/platform"
	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/repository"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/draft"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	"github.com/ckwame-jpg/fantasy-tool/pkg/logger"
	"github.com/ckwame-jpg/fantasy-tool/pkg/metrics"
)

const shutdownTimeout = 30 * time.Second

// PlayerSource returns raw player records for a board query.
type PlayerSource interface {
	Players(ctx context.Context, q model.BoardQuery) ([]model.PlayerRecord, error)
}

// ADPSource returns the ADP feed of a season.
type ADPSource interface {
	ADP(ctx context.Context, season int) ([]model.ADPEntry, error)
}

// FavoritesStore keeps the user's favorite player ids.
type FavoritesStore interface {
	Favorites(ctx context.Context) ([]string, error)
	PutFavorites(ctx context.Context, ids []string) ([]string, error)
}

// TeamStore saves finished rosters.
type TeamStore interface {
	CreateTeam(ctx context.Context, name string, picks []model.DraftPick) (backend.Team, error)
	SetActiveTeam(ctx context.Context, teamID string) error
}

// ExternalSource returns the picks of a draft hosted elsewhere.
type ExternalSource = platform.Source

// Service implements the API dependencies of the draftboard.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	players   PlayerSource
	adp       ADPSource
	picks     draft.PickStore
	boards    repository.BoardStore
	favorites FavoritesStore
	teams     TeamStore
	transport draft.Transport
	external  ExternalSource

	// Owned components
	queue    *eventqueue.InMemoryQueue
	pool     *workerpool.Pool
	registry *draft.Registry
	poller   *platform.Poller

	// Configuration
	workerCount      int
	queueSize        int
	maxDrafts        int
	picksPerRound    int
	totalRounds      int
	defaultSeason    int
	onTeamOnly       bool
	boardTTL         time.Duration
	externalSchedule string
	now              func() time.Time

	loadMu sync.Mutex
	loads  map[string]*loadGate

	buildMu sync.Mutex
	builds  map[string]*sync.Mutex

	// State
	started bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   2,
		queueSize:     1_024,
		maxDrafts:     256,
		picksPerRound: 15,
		totalRounds:   1,
		defaultSeason: 2025,
		onTeamOnly:    true,
		boardTTL:      5 * time.Minute,
		now:           time.Now,
		loads:         make(map[string]*loadGate),
		builds:        make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetTransport sets the live transport for sessions created after the call.
// The transport usually needs the service itself to route events, hence not an Option.
func (s *Service) SetTransport(t draft.Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transport = t
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.players == nil {
		return fmt.Errorf("%w: player source", ErrNotConfigured)
	}
	s.logger.Info(ctx, "starting draftboard service...")

	if s.boards == nil {
		s.boards = repository.NewMemoryBoardStore()
	}
	if s.picks == nil {
		s.picks = repository.NewMemoryPickStore()
		s.logger.Warn(ctx, "no pick store configured; picks are kept in memory only")
	}
	if s.favorites == nil {
		s.favorites = newLocalFavorites()
	}

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.picks, workerpool.WithLogger(s.logger.Named("worker")))
	// Workers outlive the start context; Stop drains them.
	s.pool.Start(context.WithoutCancel(ctx))

	transport := s.transport
	s.registry = draft.NewRegistry(func(draftID string) *draft.Session {
		opts := []draft.Option{
			draft.WithPickStore(s.picks),
			draft.WithPersister(s.queue),
			draft.WithLogger(s.logger.Named("draft")),
			draft.WithClock(s.now),
			draft.WithPacing(s.picksPerRound, s.totalRounds),
		}
		if transport != nil {
			opts = append(opts, draft.WithTransport(transport))
		}
		return draft.NewSession(draftID, draft.DirectoryFunc(s.draftable), opts...)
	}, draft.WithCapacity(s.maxDrafts), draft.WithPinned(s.watched), draft.WithEvictHook(s.forget))

	if s.external != nil {
		s.poller = platform.NewPoller(s.external, platform.WithPollerLogger(s.logger.Named("platform")))
		s.poller.Start()
	}

	s.started = true
	s.logger.Info(ctx, "draftboard service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("picksPerRound", s.picksPerRound),
		logger.Int("totalRounds", s.totalRounds),
	)
	return nil
}

// Stop gracefully shuts down the service. Queued pick saves are drained first.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping draftboard service...")

	if s.poller != nil {
		s.poller.Stop(5 * time.Second)
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "persistence workers did not drain", logger.Error(err))
	}
	if closer, ok := s.picks.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(ctx, "closing pick store failed", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "draftboard service stopped")
}

func (s *Service) running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"maxDrafts":     s.maxDrafts,
		"picksPerRound": s.picksPerRound,
		"totalRounds":   s.totalRounds,
	}
	if !s.started {
		return stats
	}

	queueLen := s.queue.Len(context.Background())
	stats["queueLength"] = queueLen
	stats["sessions"] = s.registry.Len()
	stats["drafts"] = s.registry.IDs()
	stats["boardPlayers"] = s.boards.Count(context.Background(), s.defaultQuery())
	if s.poller != nil {
		stats["externalSync"] = s.poller.Status()
	}

	metrics.UpdateQueueSize(queueLen, s.queueSize)
	metrics.UpdateDraftSessions(s.registry.Len())
	return stats
}

// watched keeps drafts mirrored from an external platform in the registry.
func (s *Service) watched(draftID string) bool {
	return s.poller != nil && s.poller.Watching(draftID)
}

// forget drops the load gate of an evicted draft so its next use loads it again.
func (s *Service) forget(draftID string) {
	s.loadMu.Lock()
	delete(s.loads, draftID)
	s.loadMu.Unlock()
	s.logger.Debug(context.Background(), "draft session evicted", logger.String("draft_id", draftID))
}

// draftable resolves a drafted id against the default board, the one every session ranks on.
func (s *Service) draftable(id string) (model.NormalizedPlayer, bool) {
	snap, err := s.boards.Get(context.Background(), s.defaultQuery())
	if err != nil {
		return model.NormalizedPlayer{}, false
	}
	return snap.Player(id)
}

func (s *Service) defaultQuery() model.BoardQuery {
	return model.BoardQuery{Season: s.defaultSeason, Position: model.AllPositions, OnTeamOnly: s.onTeamOnly}.Normalized()
}

// localFavorites keeps favorites in process when no backend is configured.
type localFavorites struct {
	mu  sync.Mutex
	ids []string
}

func newLocalFavorites() *localFavorites { return &localFavorites{} }

func (f *localFavorites) Favorites(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...), nil
}

func (f *localFavorites) PutFavorites(_ context.Context, ids []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append([]string(nil), ids...)
	return append([]string(nil), f.ids...), nil
}
