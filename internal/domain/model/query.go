package model

import (
	"strconv"
	"strings"
)

// AllPositions selects every position in a BoardQuery.
const AllPositions = "ALL"

// BoardQuery identifies one ranked board: a season and a position filter.
type BoardQuery struct {
	Season     int    `json:"season"`
	Position   string `json:"position"`
	OnTeamOnly bool   `json:"onTeamOnly"`
}

// Normalized uppercases the position and maps an empty one to AllPositions.
func (q BoardQuery) Normalized() BoardQuery {
	pos := strings.ToUpper(strings.TrimSpace(q.Position))
	if pos == "" {
		pos = AllPositions
	} else if p, ok := ParsePosition(pos); ok {
		pos = string(p)
	}
	q.Position = pos
	return q
}

// Key is a stable cache key for the query.
func (q BoardQuery) Key() string {
	n := q.Normalized()
	return strconv.Itoa(n.Season) + "|" + n.Position + "|" + strconv.FormatBool(n.OnTeamOnly)
}
