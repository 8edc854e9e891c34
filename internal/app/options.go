package service

import (
	"time"

	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/repository"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/draft"
	"github.com/ckwame-jpg/fantasy-tool/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPlayerSource sets where raw player records come from.
func WithPlayerSource(src PlayerSource) Option {
	return func(s *Service) { s.players = src }
}

// WithADPSource sets where ADP rows come from. Without one, players keep their own adp field.
func WithADPSource(src ADPSource) Option {
	return func(s *Service) { s.adp = src }
}

// WithPickStore sets the authoritative pick store. Defaults to an in-memory store.
func WithPickStore(store draft.PickStore) Option {
	return func(s *Service) { s.picks = store }
}

// WithBoardStore replaces the in-memory board store.
func WithBoardStore(store repository.BoardStore) Option {
	return func(s *Service) { s.boards = store }
}

// WithFavorites sets the favorites backend. Defaults to an in-process set.
func WithFavorites(f FavoritesStore) Option {
	return func(s *Service) { s.favorites = f }
}

// WithTeams sets the saved-team backend used by SaveTeam.
func WithTeams(t TeamStore) Option {
	return func(s *Service) { s.teams = t }
}

// WithExternalSource enables mirroring drafts from an external platform on schedule.
func WithExternalSource(src ExternalSource, schedule string) Option {
	return func(s *Service) {
		s.external = src
		s.externalSchedule = schedule
	}
}

// WithWorkerCount sets the number of persistence workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the persistence queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxDrafts bounds the number of drafts kept in memory. Idle drafts past it are evicted
// and reloaded from the pick store on their next use.
func WithMaxDrafts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxDrafts = n
		}
	}
}

// WithPacing sets picks per round and total rounds for every draft.
func WithPacing(picksPerRound, totalRounds int) Option {
	return func(s *Service) {
		if picksPerRound > 0 {
			s.picksPerRound = picksPerRound
		}
		if totalRounds > 0 {
			s.totalRounds = totalRounds
		}
	}
}

// WithDefaultQuery sets the board used to resolve drafted players.
func WithDefaultQuery(season int, onTeamOnly bool) Option {
	return func(s *Service) {
		if season > 0 {
			s.defaultSeason = season
		}
		s.onTeamOnly = onTeamOnly
	}
}

// WithBoardTTL sets how long a built board is served before it is rebuilt.
func WithBoardTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.boardTTL = ttl
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
