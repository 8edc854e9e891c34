package normalize_test

import (
	"encoding/json"
	"math"
	"slices"
	"testing"

	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func TestToNumber(t *testing.T) {
	Convey("Given raw scalar values", t, func() {
		Convey("Then finite numbers pass through", func() {
			for _, v := range []any{12, int64(12), float32(12), 12.0, json.Number("12"), " 12 ", "12.0"} {
				f, ok := normalize.ToNumber(v)
				So(ok, ShouldBeTrue)
				So(f, ShouldEqual, 12)
			}
		})

		Convey("Then sentinels and junk are absent, never zero", func() {
			for _, v := range []any{"", "  ", "-", "NA", "na", "Na", "abc", math.NaN(), math.Inf(1), "Infinity", nil, map[string]any{}, true} {
				_, ok := normalize.ToNumber(v)
				So(ok, ShouldBeFalse)
			}
		})
	})
}

func TestStatsAliases(t *testing.T) {
	Convey("Given every alias of every canonical stat", t, func() {
		for _, stat := range model.StatNames {
			flat, nested := normalize.Aliases(stat)
			So(len(flat), ShouldBeGreaterThan, 0)

			Convey("For "+stat+" each flat alias yields the same field", func() {
				for _, key := range flat {
					s := normalize.Stats(model.PlayerRecord{key: 42.0})
					v, ok := s.Get(stat)
					So(ok, ShouldBeTrue)
					So(v, ShouldEqual, 42)
				}
			})

			Convey("For "+stat+" each nested path yields the same field", func() {
				for _, path := range nested {
					rec := nestedRecord(path, "7")
					s := normalize.Stats(rec)
					v, ok := s.Get(stat)
					if slices.Contains(flat, splitDots(path)[0]) {
						// The object under the flat key resolves first.
						So(ok, ShouldBeFalse)
						continue
					}
					So(ok, ShouldBeTrue)
					So(v, ShouldEqual, 7)
				}
			})

			Convey("For "+stat+" sentinel strings leave the field absent", func() {
				for _, sentinel := range []string{"", "-", "NA"} {
					s := normalize.Stats(model.PlayerRecord{flat[0]: sentinel})
					_, ok := s.Get(stat)
					So(ok, ShouldBeFalse)
				}
			})
		}
	})
}

func TestStatsPrecedence(t *testing.T) {
	Convey("Given a record with both flat and nested values", t, func() {
		rec := model.PlayerRecord{
			"rush_yds": "1,000",
			"rushing":  map[string]any{"yds": 900.0, "att": 250.0},
			"carries":  nil,
			"rush_att": 260,
		}
		s := normalize.Stats(rec)

		Convey("Then the first present flat alias wins even if it is not numeric", func() {
			_, ok := s.Get("rushYds")
			So(ok, ShouldBeFalse)
		})

		Convey("Then null flat values fall through to later aliases", func() {
			v, ok := s.Get("rushAtt")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 260)
		})

		Convey("Then nested paths are used when no flat alias is present", func() {
			s2 := normalize.Stats(model.PlayerRecord{"rushing": map[string]any{"yards": 1500}})
			v, ok := s2.Get("rushYds")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 1500)
		})

		Convey("Then an object under a flat alias resolves it to absent", func() {
			s2 := normalize.Stats(model.PlayerRecord{"rec": map[string]any{"rec": 90, "targets": 120}})
			_, ok := s2.Get("receptions")
			So(ok, ShouldBeFalse)

			v, ok := s2.Get("targets")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 120)
		})
	})
}

func TestApplyDoesNotClear(t *testing.T) {
	Convey("Given an existing stat line", t, func() {
		dst := model.Stats{Targets: model.Float(120), RecYds: model.Float(1400)}

		Convey("When applying a record that lacks those stats", func() {
			normalize.Apply(&dst, model.PlayerRecord{"rec": 90, "tgt": "-"})

			Convey("Then existing fields survive and resolved ones are written", func() {
				So(*dst.Targets, ShouldEqual, 120)
				So(*dst.RecYds, ShouldEqual, 1400)
				So(*dst.Receptions, ShouldEqual, 90)
			})
		})
	})
}

func TestPlayer(t *testing.T) {
	Convey("Given raw player records", t, func() {
		Convey("When the record uses first/last names and a numeric id", func() {
			p, ok := normalize.Player(model.PlayerRecord{
				"id": 4046.0, "first_name": "Ja'Marr", "last_name": "Chase",
				"team": "CIN", "position": "wr", "adp": "3.4", "fantasy_points": 276.5,
			})

			Convey("Then it is projected onto the canonical shape", func() {
				So(ok, ShouldBeTrue)
				So(p.ID, ShouldEqual, "4046")
				So(p.Name, ShouldEqual, "Ja'Marr Chase")
				So(p.Position, ShouldEqual, model.WR)
				So(*p.ADP, ShouldEqual, 3.4)
				So(*p.FantasyPoints, ShouldEqual, 276.5)
				So(p.Rank, ShouldEqual, 0)
			})
		})

		Convey("When a batch contains records without ids", func() {
			players, skipped := normalize.Players([]model.PlayerRecord{
				{"id": "1", "name": "A"}, {"name": "no id"}, {"player_id": "3", "name": "C", "adp": nil},
			})

			Convey("Then those are skipped and counted", func() {
				So(players, ShouldHaveLength, 2)
				So(skipped, ShouldEqual, 1)
				So(players[1].ID, ShouldEqual, "3")
				So(players[1].ADP, ShouldBeNil)
			})
		})
	})
}

// nestedRecord builds {"a": {"b": value}} from "a.b".
func nestedRecord(path string, value any) model.PlayerRecord {
	parts := splitDots(path)
	var cur any = value
	for i := len(parts) - 1; i >= 0; i-- {
		cur = map[string]any{parts[i]: cur}
	}
	return cur.(map[string]any)
}

func splitDots(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}
