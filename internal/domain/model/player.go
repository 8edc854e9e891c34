// Package model contains domain models passed between layers.
package model

import "strings"

// PlayerRecord is a raw upstream player object. Its key shape is not controlled by us.
type PlayerRecord = map[string]any

// Position is a roster position code.
type Position string

// Positions.
const (
	QB  Position = "QB"
	RB  Position = "RB"
	WR  Position = "WR"
	TE  Position = "TE"
	K   Position = "K"
	DEF Position = "DEF"
)

// Positions lists every valid position in display order.
var Positions = []Position{QB, RB, WR, TE, K, DEF}

// ParsePosition normalizes a position code. Unknown codes are returned uppercased
// with ok=false so callers can still bucket them.
func ParsePosition(s string) (Position, bool) {
	p := Position(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case QB, RB, WR, TE, K, DEF:
		return p, true
	case "DST", "D/ST":
		return DEF, true
	}
	return p, false
}

// Tier is a coarse percentile bucket of the overall rank.
type Tier string

// Tiers. TierNone is the sentinel for players past the last breakpoint.
const (
	T1       Tier = "T1"
	T2       Tier = "T2"
	T3       Tier = "T3"
	T4       Tier = "T4"
	TierNone Tier = "😴"
)

// Stats holds the canonical optional stat line. A nil pointer means the source had no value.
type Stats struct {
	FantasyPoints *float64 `json:"fantasyPoints,omitempty"`
	RushAtt       *float64 `json:"rushAtt,omitempty"`
	RushYds       *float64 `json:"rushYds,omitempty"`
	RushTD        *float64 `json:"rushTD,omitempty"`
	Receptions    *float64 `json:"receptions,omitempty"`
	Targets       *float64 `json:"targets,omitempty"`
	RecYds        *float64 `json:"recYds,omitempty"`
	RecTD         *float64 `json:"recTD,omitempty"`
	PassAtt       *float64 `json:"passAtt,omitempty"`
	PassCmp       *float64 `json:"passCmp,omitempty"`
	PassYds       *float64 `json:"passYds,omitempty"`
	PassTD        *float64 `json:"passTD,omitempty"`
}

// StatNames lists the canonical stat keys in schema order.
var StatNames = []string{
	"fantasyPoints", "rushAtt", "rushYds", "rushTD", "receptions", "targets",
	"recYds", "recTD", "passAtt", "passCmp", "passYds", "passTD",
}

// Field returns a pointer to the slot holding the named stat, or nil for unknown names.
func (s *Stats) Field(name string) **float64 {
	switch name {
	case "fantasyPoints":
		return &s.FantasyPoints
	case "rushAtt":
		return &s.RushAtt
	case "rushYds":
		return &s.RushYds
	case "rushTD":
		return &s.RushTD
	case "receptions":
		return &s.Receptions
	case "targets":
		return &s.Targets
	case "recYds":
		return &s.RecYds
	case "recTD":
		return &s.RecTD
	case "passAtt":
		return &s.PassAtt
	case "passCmp":
		return &s.PassCmp
	case "passYds":
		return &s.PassYds
	case "passTD":
		return &s.PassTD
	}
	return nil
}

// Get returns the named stat value.
func (s Stats) Get(name string) (float64, bool) {
	slot := s.Field(name)
	if slot == nil || *slot == nil {
		return 0, false
	}
	return **slot, true
}

// NormalizedPlayer is the canonical projection of a PlayerRecord plus computed ranking fields.
type NormalizedPlayer struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Team     string   `json:"team"`
	Position Position `json:"position"`
	Stats
	ADP *float64 `json:"adp,omitempty"`

	Score   float64 `json:"score"`
	Rank    int     `json:"rank"`
	Tier    Tier    `json:"tier"`
	PosRank int     `json:"posRank"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
