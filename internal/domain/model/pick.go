package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DraftPick is the persisted form of one drafted player.
type DraftPick struct {
	ID         string  `json:"id"`
	PlayerID   string  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Position   string  `json:"position"`
	Team       string  `json:"team"`
	Round      int     `json:"round"`
	Overall    int     `json:"overall"`
	Slot       *string `json:"slot"`
	Timestamp  float64 `json:"timestamp"`
}

// BuildPicks converts the ordered drafted list into picks. Round and overall come from list position.
func BuildPicks(players []NormalizedPlayer, picksPerRound int, now time.Time) []DraftPick {
	if picksPerRound < 1 {
		picksPerRound = 1
	}
	ts := float64(now.Unix())
	picks := make([]DraftPick, len(players))
	for i, p := range players {
		picks[i] = DraftPick{
			ID:         uuid.NewString(),
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Position:   string(p.Position),
			Team:       p.Team,
			Round:      i/picksPerRound + 1,
			Overall:    i + 1,
			Timestamp:  ts,
		}
	}
	return picks
}

// ADPEntry is one row of an ADP feed.
type ADPEntry struct {
	PlayerID string  `json:"player_id,omitempty"`
	Name     string  `json:"name"`
	Position string  `json:"position"`
	Team     string  `json:"team,omitempty"`
	ADP      float64 `json:"adp"`
}

// JoinKey builds the name|position key used to correlate ADP rows with stat rows.
func JoinKey(name, position string) string {
	return strings.ToUpper(strings.TrimSpace(name)) + "|" + strings.ToUpper(strings.TrimSpace(position))
}
