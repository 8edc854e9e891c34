// Package filter produces the visible subset and order of a ranked board.
package filter

import (
	"regexp"
	"strings"

	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
)

var (
	freeAgentTeams = map[string]struct{}{"FA": {}, "FA*": {}, "FREE AGENT": {}}
	nameBlacklist  = regexp.MustCompile(`(?i)\b(invalid|player invalid|free agent|practice squad)\b`)
)

// Criteria is the board filter state.
type Criteria struct {
	// Search is matched case-insensitively as a substring of the name.
	Search string
	// Tier keeps only players in this tier when non-empty.
	Tier model.Tier
	// ByeWeek selects a week for bye handling; 0 means none.
	ByeWeek int
	// ShowByeWeeks keeps players on bye in ByeWeek when true.
	ShowByeWeeks bool
	// FavoritesOnly keeps only ids present in Favorites.
	FavoritesOnly bool
	Favorites     map[string]struct{}
	// Exclude drops these ids (e.g. already drafted players).
	Exclude map[string]struct{}
}

// Eligible reports whether a player is rostered and not a placeholder entry.
// It holds regardless of any other criteria.
func Eligible(p model.NormalizedPlayer) bool {
	team := strings.ToUpper(strings.TrimSpace(p.Team))
	if team == "" {
		return false
	}
	if _, fa := freeAgentTeams[team]; fa {
		return false
	}
	return !nameBlacklist.MatchString(p.Name)
}

// Match reports whether p passes every active criterion.
func (c Criteria) Match(p model.NormalizedPlayer) bool {
	if !Eligible(p) {
		return false
	}
	if c.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(c.Search)) {
		return false
	}
	if !c.ShowByeWeeks && OnBye(p.Team, c.ByeWeek) {
		return false
	}
	if c.Tier != "" && p.Tier != c.Tier {
		return false
	}
	if c.FavoritesOnly {
		if _, ok := c.Favorites[p.ID]; !ok {
			return false
		}
	}
	if _, excluded := c.Exclude[p.ID]; excluded {
		return false
	}
	return true
}

// Apply returns the players passing c, preserving input order.
func Apply(players []model.NormalizedPlayer, c Criteria) []model.NormalizedPlayer {
	out := make([]model.NormalizedPlayer, 0, len(players))
	for _, p := range players {
		if c.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// View filters then sorts.
func View(players []model.NormalizedPlayer, c Criteria, s SortSpec) []model.NormalizedPlayer {
	out := Apply(players, c)
	Sort(out, s)
	return out
}

// IDSet builds a lookup set from ids.
func IDSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
