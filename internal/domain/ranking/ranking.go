// Package ranking computes the blended draft score, overall rank, percentile tier and
// position rank for one board query (one season and position filter).
package ranking

import (
	"math"
	"sort"
	"strings"

	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
)

// Blend weights. Draft-market consensus (ADP) dominates last-season output.
const (
	ADPWeight    = 0.65
	PointsWeight = 0.35
)

// Breakpoints are the cumulative rank fractions closing T1..T4.
var Breakpoints = [4]float64{0.08, 0.24, 0.48, 0.72}

var tiers = [4]model.Tier{model.T1, model.T2, model.T3, model.T4}

// bounds holds the observed ADP and points ranges of a player set.
type bounds struct {
	minADP, maxADP float64
	minPts, maxPts float64
}

func observe(players []model.NormalizedPlayer) bounds {
	b := bounds{minADP: math.Inf(1), maxADP: math.Inf(-1), minPts: math.Inf(1), maxPts: math.Inf(-1)}
	for _, p := range players {
		if p.ADP != nil && !math.IsNaN(*p.ADP) && !math.IsInf(*p.ADP, 0) {
			b.minADP = math.Min(b.minADP, *p.ADP)
			b.maxADP = math.Max(b.maxADP, *p.ADP)
		}
		pts := points(p)
		b.minPts = math.Min(b.minPts, pts)
		b.maxPts = math.Max(b.maxPts, pts)
	}
	if math.IsInf(b.minADP, 1) {
		b.minADP, b.maxADP = 1, 1
	}
	if math.IsInf(b.minPts, 1) {
		b.minPts, b.maxPts = 0, 0
	}
	return b
}

// points returns fantasy points with absent treated as 0. Used for scoring only.
func points(p model.NormalizedPlayer) float64 {
	if p.FantasyPoints == nil {
		return 0
	}
	return *p.FantasyPoints
}

func (b bounds) score(p model.NormalizedPlayer) float64 {
	normADP := 0.0
	if p.ADP != nil && !math.IsNaN(*p.ADP) && !math.IsInf(*p.ADP, 0) {
		normADP = (b.maxADP - *p.ADP) / math.Max(b.maxADP-b.minADP, 1)
	}
	normPts := (points(p) - b.minPts) / math.Max(b.maxPts-b.minPts, 1)
	return ADPWeight*normADP + PointsWeight*normPts
}

// TierFor maps a 1-based rank among n players to its tier.
func TierFor(rank, n int) model.Tier {
	for i, bp := range Breakpoints {
		if rank <= int(math.Ceil(bp*float64(n))) {
			return tiers[i]
		}
	}
	return model.TierNone
}

// Rank scores and ranks players. The input slice is not modified; the result is ordered by rank.
// Equal scores break by id ascending so recomputation is deterministic.
func Rank(players []model.NormalizedPlayer) []model.NormalizedPlayer {
	out := make([]model.NormalizedPlayer, len(players))
	copy(out, players)
	if len(out) == 0 {
		return out
	}

	b := observe(out)
	for i := range out {
		out[i].Score = b.score(out[i])
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})

	n := len(out)
	for i := range out {
		out[i].Rank = i + 1
		out[i].Tier = TierFor(i+1, n)
	}

	assignPosRanks(out)
	return out
}

// assignPosRanks ranks each position bucket by fantasy points descending.
// Absent points sort last; ties break by id.
func assignPosRanks(players []model.NormalizedPlayer) {
	buckets := make(map[string][]int)
	for i, p := range players {
		key := strings.ToUpper(string(p.Position))
		buckets[key] = append(buckets[key], i)
	}
	for _, idx := range buckets {
		sort.SliceStable(idx, func(a, b int) bool {
			pa, pb := players[idx[a]], players[idx[b]]
			va, vb := math.Inf(-1), math.Inf(-1)
			if pa.FantasyPoints != nil {
				va = *pa.FantasyPoints
			}
			if pb.FantasyPoints != nil {
				vb = *pb.FantasyPoints
			}
			if va != vb {
				return va > vb
			}
			return pa.ID < pb.ID
		})
		for r, i := range idx {
			players[i].PosRank = r + 1
		}
	}
}
