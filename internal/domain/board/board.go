// Package board turns raw upstream records and an ADP feed into a ranked board.
package board

import (
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/normalize"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/ranking"
)

// JoinStats counts how ADP rows were matched to players.
type JoinStats struct {
	ByID   int
	ByKey  int
	Misses int
	// Missed lists the ids of players no ADP row matched.
	Missed []string
}

// JoinADP sets each player's ADP from the feed, matching by player id first and by
// the name|position key second. A player no row matches keeps the ADP of its own record.
// The input is not modified.
func JoinADP(players []model.NormalizedPlayer, rows []model.ADPEntry) ([]model.NormalizedPlayer, JoinStats) {
	byID := make(map[string]float64, len(rows))
	byKey := make(map[string]float64, len(rows))
	// A key repeated in the feed takes the ADP of its last row.
	for _, r := range rows {
		if r.PlayerID != "" {
			byID[r.PlayerID] = r.ADP
		}
		if r.Name != "" {
			byKey[model.JoinKey(r.Name, r.Position)] = r.ADP
		}
	}

	out := make([]model.NormalizedPlayer, len(players))
	var st JoinStats
	for i, p := range players {
		if v, ok := byID[p.ID]; ok {
			p.ADP = model.Float(v)
			st.ByID++
		} else if v, ok := byKey[model.JoinKey(p.Name, string(p.Position))]; ok {
			p.ADP = model.Float(v)
			st.ByKey++
		} else if len(rows) > 0 {
			st.Misses++
			st.Missed = append(st.Missed, p.ID)
		}
		out[i] = p
	}
	return out, st
}

// Result is a built board.
type Result struct {
	Players []model.NormalizedPlayer
	Join    JoinStats
	// Skipped counts records that could not be normalized.
	Skipped int
}

// Build normalizes records, joins ADP and ranks the result.
func Build(records []model.PlayerRecord, adp []model.ADPEntry) Result {
	players, skipped := normalize.Players(records)
	joined, st := JoinADP(players, adp)
	return Result{Players: ranking.Rank(joined), Join: st, Skipped: skipped}
}
