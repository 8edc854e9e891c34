package filter

import "strings"

// byeWeeks is the 2025 regular-season bye table.
var byeWeeks = map[string]int{
	"ARI": 11, "ATL": 12, "BAL": 14, "BUF": 12, "CAR": 7, "CHI": 7, "CIN": 12, "CLE": 10,
	"DAL": 7, "DEN": 14, "DET": 5, "GB": 10, "HOU": 14, "IND": 14, "JAX": 12, "KC": 6,
	"LV": 10, "LAC": 5, "LAR": 6, "MIA": 6, "MIN": 6, "NE": 14, "NO": 12, "NYG": 11,
	"NYJ": 12, "PHI": 5, "PIT": 9, "SF": 9, "SEA": 10, "TB": 11, "TEN": 5, "WAS": 14,
}

// ByeWeek returns the bye week of a team code, or 0 when the team is unknown.
func ByeWeek(team string) int {
	return byeWeeks[strings.ToUpper(strings.TrimSpace(team))]
}

// OnBye reports whether team is on bye in week. Week 0 means no week selected.
func OnBye(team string, week int) bool {
	if week <= 0 {
		return false
	}
	bye := ByeWeek(team)
	return bye != 0 && bye == week
}
