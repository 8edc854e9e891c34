package filter

import (
	"math"
	"sort"
	"strings"

	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
)

// SortSpec names the active sort field and direction.
type SortSpec struct {
	Field string
	Desc  bool
}

// DefaultSort orders by ADP ascending.
var DefaultSort = SortSpec{Field: "adp"}

var numericFields = map[string]bool{
	"adp": true, "fantasyPoints": true, "rushAtt": true, "rushYds": true, "rushTD": true,
	"targets": true, "receptions": true, "recYds": true, "recTD": true, "passAtt": true,
	"passCmp": true, "passYds": true, "passTD": true, "rank": true, "posRank": true, "score": true,
}

// IsNumeric reports whether field sorts numerically.
func IsNumeric(field string) bool { return numericFields[field] }

// ParseSort reads "field" or "-field" (descending). Empty input yields DefaultSort.
func ParseSort(s string) SortSpec {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultSort
	}
	if strings.HasPrefix(s, "-") {
		return SortSpec{Field: strings.TrimPrefix(s, "-"), Desc: true}
	}
	return SortSpec{Field: strings.TrimPrefix(s, "+")}
}

// Toggle returns the next sort after a user selects field: same field flips direction,
// a new field starts descending.
func (s SortSpec) Toggle(field string) SortSpec {
	if s.Field == field {
		return SortSpec{Field: field, Desc: !s.Desc}
	}
	return SortSpec{Field: field, Desc: true}
}

func numericValue(p model.NormalizedPlayer, field string) (float64, bool) {
	switch field {
	case "adp":
		if p.ADP == nil {
			return 0, false
		}
		return *p.ADP, true
	case "rank":
		return float64(p.Rank), true
	case "posRank":
		return float64(p.PosRank), true
	case "score":
		return p.Score, true
	}
	return p.Stats.Get(field)
}

func stringValue(p model.NormalizedPlayer, field string) string {
	switch field {
	case "name":
		return p.Name
	case "team":
		return p.Team
	case "position":
		return string(p.Position)
	case "tier":
		return string(p.Tier)
	case "id":
		return p.ID
	}
	return ""
}

// Sort orders players in place. Missing numeric values go to the end in either direction;
// numeric ties break by case-insensitive name.
func Sort(players []model.NormalizedPlayer, s SortSpec) {
	if s.Field == "" {
		return
	}
	if IsNumeric(s.Field) {
		missing := math.Inf(1)
		if s.Desc {
			missing = math.Inf(-1)
		}
		key := func(p model.NormalizedPlayer) float64 {
			if v, ok := numericValue(p, s.Field); ok {
				return v
			}
			return missing
		}
		sort.SliceStable(players, func(i, j int) bool {
			a, b := key(players[i]), key(players[j])
			if a != b {
				if s.Desc {
					return a > b
				}
				return a < b
			}
			return lessFold(players[i].Name, players[j].Name)
		})
		return
	}

	sort.SliceStable(players, func(i, j int) bool {
		a, b := stringValue(players[i], s.Field), stringValue(players[j], s.Field)
		if s.Desc {
			return lessFold(b, a)
		}
		return lessFold(a, b)
	})
}

func lessFold(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
