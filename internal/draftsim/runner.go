package draftsim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/ckwame-jpg/fantasy-tool/pkg/logger"
)

const (
	directoryPermission = 0o750
	reportPermission    = 0o600
	healthRetries       = 30
	healthDelay         = time.Second
)

// ErrInconsistent is returned when verification finds problems.
var ErrInconsistent = errors.New("draft state inconsistent")

// Run fills cfg.DraftID with concurrent drafters, verifies the result and writes a report.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	log := logger.Get().Named("draftsim")
	stats := &Stats{StartTime: time.Now()}
	c := newClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting draft simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("draftId", cfg.DraftID),
		logger.Int("drafters", cfg.Drafters),
		logger.Int("rounds", cfg.Rounds),
		logger.Float64("rate", cfg.Rate))

	if err := waitHealthy(ctx, c, log); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}
	if cfg.Reset {
		if err := c.reset(ctx, cfg.DraftID); err != nil {
			return nil, fmt.Errorf("reset draft: %w", err)
		}
	}

	picks, err := simulate(ctx, c, cfg, stats, log)
	if err != nil {
		return nil, fmt.Errorf("simulation failed: %w", err)
	}

	problems, err := verify(ctx, c, cfg.DraftID, picks)
	if err != nil {
		return nil, fmt.Errorf("verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	report := &Report{
		DraftID:  cfg.DraftID,
		Drafters: cfg.Drafters,
		Rounds:   cfg.Rounds,
		Picks:    picks,
		Problems: problems,
		Duration: stats.Duration.String(),
	}
	if err := saveReport(ctx, log, cfg.Output, report); err != nil {
		log.Warn(ctx, "failed to save report", logger.Error(err))
	}

	for _, p := range problems {
		log.Error(ctx, "verification problem", logger.String("problem", p))
	}
	if len(problems) > 0 {
		return report, fmt.Errorf("%w: %d problem(s)", ErrInconsistent, len(problems))
	}
	log.Info(ctx, "simulation completed successfully")
	return report, nil
}

// waitHealthy polls /healthz until the service reports ready.
func waitHealthy(ctx context.Context, c *client, log logger.Logger) error {
	var err error
	for i := 0; i < healthRetries; i++ {
		if err = c.health(ctx); err == nil {
			log.Info(ctx, "service is healthy")
			return nil
		}
		log.Debug(ctx, "service not ready", logger.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(healthDelay):
		}
	}
	return err
}

// simulate runs cfg.Drafters goroutines, each making cfg.Rounds picks of the best available player.
func simulate(ctx context.Context, c *client, cfg *Config, stats *Stats, log logger.Logger) ([]Pick, error) {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}

	var (
		attempted, made, conflicts, failed, fetches atomic.Int64

		mu       sync.Mutex
		picks    []Pick
		firstErr error
		wg       sync.WaitGroup
	)

	for d := 1; d <= cfg.Drafters; d++ {
		wg.Add(1)
		go func(drafter int) {
			defer wg.Done()
			for round := 1; round <= cfg.Rounds; round++ {
				p, err := pickBest(ctx, c, cfg, limiter, &attempted, &conflicts, &fetches)
				if errors.Is(err, errBoardExhausted) {
					log.Info(ctx, "board exhausted", logger.Int("drafter", drafter), logger.Int("round", round))
					return
				}
				if err != nil {
					failed.Add(1)
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
				made.Add(1)
				pick := Pick{Drafter: drafter, Round: round, PlayerID: p.ID, Name: p.Name, Position: string(p.Position), Rank: p.Rank}
				mu.Lock()
				picks = append(picks, pick)
				mu.Unlock()
				log.Debug(ctx, "pick made",
					logger.Int("drafter", drafter), logger.Int("round", round),
					logger.String("player", p.Name), logger.Int("rank", p.Rank))
			}
		}(d)
	}
	wg.Wait()

	stats.PicksAttempted = int(attempted.Load())
	stats.PicksMade = int(made.Load())
	stats.Conflicts = int(conflicts.Load())
	stats.Failed = int(failed.Load())
	stats.BoardFetches = int(fetches.Load())

	if firstErr != nil && len(picks) == 0 {
		return nil, firstErr
	}
	if firstErr != nil {
		log.Warn(ctx, "some drafters stopped early", logger.Error(firstErr))
	}
	return picks, nil
}
