package draftsim

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ckwame-jpg/fantasy-tool/pkg/logger"
)

// verify checks the server's view of draftID against the acknowledged picks.
// Transport errors are returned; inconsistencies are reported as problems.
func verify(ctx context.Context, c *client, draftID string, picks []Pick) ([]string, error) {
	var problems []string

	seen := make(map[string]int, len(picks))
	for _, p := range picks {
		seen[p.PlayerID]++
		if seen[p.PlayerID] == 2 {
			problems = append(problems, fmt.Sprintf("player %s acknowledged to two drafters", p.PlayerID))
		}
	}

	state, err := c.state(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	drafted := make(map[string]bool, len(state.Drafted))
	for _, p := range state.Drafted {
		if drafted[p.ID] {
			problems = append(problems, fmt.Sprintf("player %s drafted twice", p.ID))
		}
		drafted[p.ID] = true
	}
	for _, p := range picks {
		if !drafted[p.PlayerID] {
			problems = append(problems, fmt.Sprintf("acknowledged pick %s missing from draft", p.PlayerID))
		}
	}
	if state.Progress.Drafted != len(state.Drafted) {
		problems = append(problems, fmt.Sprintf("progress counts %d picks, list has %d",
			state.Progress.Drafted, len(state.Drafted)))
	}

	board, err := c.available(ctx, draftID, len(state.Drafted)+1)
	if err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	for _, p := range board.Players {
		if drafted[p.ID] {
			problems = append(problems, fmt.Sprintf("drafted player %s still on the available board", p.ID))
		}
	}

	lineup, err := c.roster(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("get roster: %w", err)
	}
	placed := len(lineup.Bench)
	for _, s := range lineup.Starters {
		if !s.Empty() {
			placed++
		}
	}
	if placed != len(state.Drafted) {
		problems = append(problems, fmt.Sprintf("roster places %d players, draft has %d", placed, len(state.Drafted)))
	}
	return problems, nil
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var picksPerSecond float64
	if stats.Duration > 0 {
		picksPerSecond = float64(stats.PicksMade) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("picksAttempted", stats.PicksAttempted),
		logger.Int("picksMade", stats.PicksMade),
		logger.Int("conflicts", stats.Conflicts),
		logger.Int("failed", stats.Failed),
		logger.Int("boardFetches", stats.BoardFetches),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("picksPerSecond", picksPerSecond))
}

func saveReport(ctx context.Context, log logger.Logger, filename string, report *Report) error {
	if filename == "" {
		filename = "draft_sim_" + time.Now().Format("20060102_150405") + ".json"
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(filename, data, reportPermission); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	log.Info(ctx, "report saved", logger.String("filename", filename))
	return nil
}
