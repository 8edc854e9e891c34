// Package normalize maps heterogeneous upstream player records onto the canonical stat schema.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
)

// alias lists the acceptable keys for one canonical stat. Flat keys win over nested paths.
type alias struct {
	stat   string
	flat   []string
	nested []string
}

var aliases = []alias{
	{"fantasyPoints", []string{"fantasy_points", "fantasyPoints", "fp", "points", "pts"}, []string{"fantasy.points"}},
	{"rushAtt", []string{"rush_att", "rushing_att", "rush_attempts", "carries", "att_rush", "attempts_rush"}, []string{"rushing.att", "rushing.attempts", "rush.att"}},
	{"rushYds", []string{"rush_yds", "rushing_yds", "rush_yards"}, []string{"rushing.yds", "rushing.yards", "rush.yds"}},
	{"rushTD", []string{"rush_td", "rushing_td", "rush_tds", "rushing_tds", "rtd"}, []string{"rushing.td", "rushing.tds", "rush.td"}},
	{"receptions", []string{"rec", "receptions", "recs", "catches"}, []string{"receiving.rec", "receiving.receptions", "rec.rec"}},
	{"targets", []string{"targets", "tgt"}, []string{"receiving.targets", "rec.targets"}},
	{"recYds", []string{"rec_yds", "receiving_yds", "rec_yards", "recv_yards"}, []string{"receiving.yds", "receiving.yards", "rec.yds"}},
	{"recTD", []string{"rec_td", "receiving_td", "rec_tds", "receiving_tds"}, []string{"receiving.td", "receiving.tds", "rec.td"}},
	{"passAtt", []string{"pass_att", "attempts", "att"}, []string{"passing.att", "passing.attempts", "pass.att", "pass.attempts"}},
	{"passCmp", []string{"pass_cmp", "cmp", "completions", "pass_completions"}, []string{"passing.cmp", "passing.completions", "pass.cmp", "pass.completions"}},
	{"passYds", []string{"pass_yds", "passing_yds", "pass_yards"}, []string{"passing.yds", "passing.yards", "pass.yds"}},
	{"passTD", []string{"pass_td", "passing_td", "pass_tds", "passing_tds"}, []string{"passing.td", "passing.tds", "pass.td"}},
}

// Aliases returns the flat and nested keys accepted for stat, in lookup order.
func Aliases(stat string) (flat, nested []string) {
	for _, a := range aliases {
		if a.stat == stat {
			return append([]string(nil), a.flat...), append([]string(nil), a.nested...)
		}
	}
	return nil, nil
}

// ToNumber coerces a raw value to a finite number.
// Strings are trimmed; "", "-" and "na" (any case) are absent.
func ToNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		return parseNumber(n.String())
	case string:
		return parseNumber(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || strings.EqualFold(s, "na") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// lookup walks a dotted path through nested objects.
func lookup(rec map[string]any, path string) (any, bool) {
	cur := any(rec)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// resolve returns the first alias with a present, non-null value, coerced to a number.
// A present value that is not numeric, an object under a flat key included, ends the
// search with "absent".
func resolve(rec map[string]any, a alias) (float64, bool) {
	for _, key := range a.flat {
		if v, ok := rec[key]; ok && v != nil {
			return ToNumber(v)
		}
	}
	for _, path := range a.nested {
		if v, ok := lookup(rec, path); ok {
			return ToNumber(v)
		}
	}
	return 0, false
}

// Stats returns the canonical stats resolvable from rec. Unresolved stats stay nil.
func Stats(rec model.PlayerRecord) model.Stats {
	var s model.Stats
	Apply(&s, rec)
	return s
}

// Apply writes every resolvable stat of rec into dst. Fields that do not resolve are left untouched.
func Apply(dst *model.Stats, rec model.PlayerRecord) {
	if dst == nil || rec == nil {
		return
	}
	for _, a := range aliases {
		if v, ok := resolve(rec, a); ok {
			*dst.Field(a.stat) = model.Float(v)
		}
	}
}
