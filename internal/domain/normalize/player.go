package normalize

import (
	"fmt"
	"strings"

	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
)

// Player projects a raw record onto a NormalizedPlayer. Computed ranking fields stay zero.
// ok is false when the record has no usable id.
func Player(rec model.PlayerRecord) (model.NormalizedPlayer, bool) {
	id := text(rec["id"])
	if id == "" {
		id = text(rec["player_id"])
	}
	if id == "" {
		return model.NormalizedPlayer{}, false
	}

	name := text(rec["name"])
	if name == "" {
		name = text(rec["full_name"])
	}
	if name == "" {
		name = strings.TrimSpace(text(rec["first_name"]) + " " + text(rec["last_name"]))
	}

	pos, _ := model.ParsePosition(text(rec["position"]))

	p := model.NormalizedPlayer{
		ID:       id,
		Name:     name,
		Team:     text(rec["team"]),
		Position: pos,
		Stats:    Stats(rec),
	}
	for _, key := range []string{"adp", "adp_ppr"} {
		if v, ok := rec[key]; ok && v != nil {
			if f, ok := ToNumber(v); ok {
				p.ADP = model.Float(f)
			}
			break
		}
	}
	return p, true
}

// Players normalizes a batch, skipping records without an id. skipped reports how many were dropped.
func Players(recs []model.PlayerRecord) (players []model.NormalizedPlayer, skipped int) {
	players = make([]model.NormalizedPlayer, 0, len(recs))
	for _, rec := range recs {
		p, ok := Player(rec)
		if !ok {
			skipped++
			continue
		}
		players = append(players, p)
	}
	return players, skipped
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
