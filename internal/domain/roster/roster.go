// Package roster partitions a drafted list into starter slots and bench.
package roster

import "github.com/ckwame-jpg/fantasy-tool/internal/domain/model"

// Flex is the slot name accepting any of RB, WR or TE.
const Flex = "FLEX"

// DefaultTemplate is the standard single-QB lineup.
var DefaultTemplate = []string{"QB", "RB", "RB", "WR", "WR", "TE", Flex, "K", "DEF"}

var flexEligible = map[model.Position]bool{model.RB: true, model.WR: true, model.TE: true}

// Slot is one starter position. Player is nil when the slot is empty.
type Slot struct {
	Name   string                  `json:"name"`
	Player *model.NormalizedPlayer `json:"player"`
}

// Empty reports whether no player fills the slot.
func (s Slot) Empty() bool { return s.Player == nil }

// Lineup is the starters in template order plus everyone else.
type Lineup struct {
	Starters []Slot                   `json:"starters"`
	Bench    []model.NormalizedPlayer `json:"bench"`
}

// Accepts reports whether a player at pos may fill slot.
func Accepts(slot string, pos model.Position) bool {
	if slot == Flex {
		return flexEligible[pos]
	}
	want, ok := model.ParsePosition(slot)
	return ok && want == pos
}

// Assign walks template in order and gives each slot the first unused drafted player it accepts.
// Every drafted player ends up in exactly one of Starters or Bench.
func Assign(template []string, drafted []model.NormalizedPlayer) Lineup {
	used := make([]bool, len(drafted))
	starters := make([]Slot, len(template))
	for i, name := range template {
		starters[i] = Slot{Name: name}
		for j := range drafted {
			if used[j] || !Accepts(name, drafted[j].Position) {
				continue
			}
			used[j] = true
			p := drafted[j]
			starters[i].Player = &p
			break
		}
	}

	bench := make([]model.NormalizedPlayer, 0, len(drafted))
	for j, p := range drafted {
		if !used[j] {
			bench = append(bench, p)
		}
	}
	return Lineup{Starters: starters, Bench: bench}
}
