package board_test

import (
	"testing"

	"github.com/ckwame-jpg/fantasy-tool/internal/domain/board"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestJoinADP(t *testing.T) {
	Convey("Given players and an ADP feed", t, func() {
		players := []model.NormalizedPlayer{
			{ID: "10", Name: "Ja'Marr Chase", Position: model.WR},
			{ID: "20", Name: "Bijan Robinson", Position: model.RB},
			{ID: "30", Name: "Marvin Harrison Jr.", Position: model.WR, ADP: model.Float(40)},
			{ID: "40", Name: "Nobody", Position: model.TE},
		}
		rows := []model.ADPEntry{
			{PlayerID: "10", Name: "Jamarr Chase", Position: "WR", ADP: 1.2},
			{Name: " bijan robinson ", Position: "rb", ADP: 2.5},
			{Name: "Bijan Robinson", Position: "RB", ADP: 99},
			{Name: "Marvin Harrison", Position: "WR", ADP: 30},
			{PlayerID: "10", ADP: 1.1},
		}

		Convey("When joining", func() {
			out, st := board.JoinADP(players, rows)

			Convey("Then ids match before name and position", func() {
				So(st.ByID, ShouldEqual, 1)
				So(st.ByKey, ShouldEqual, 1)
			})

			Convey("Then a repeated id or name takes its last row", func() {
				So(*out[0].ADP, ShouldEqual, 1.1)
				So(*out[1].ADP, ShouldEqual, 99)
			})

			Convey("Then misses are reported and keep their own ADP", func() {
				So(st.Misses, ShouldEqual, 2)
				So(st.Missed, ShouldResemble, []string{"30", "40"})
				So(*out[2].ADP, ShouldEqual, 40)
				So(out[3].ADP, ShouldBeNil)
			})

			Convey("Then the input is untouched", func() {
				So(players[0].ADP, ShouldBeNil)
			})
		})

		Convey("When the feed is empty", func() {
			_, st := board.JoinADP(players, nil)
			So(st.Misses, ShouldEqual, 0)
		})
	})
}

func TestBuild(t *testing.T) {
	Convey("Given raw records and ADP rows", t, func() {
		records := []model.PlayerRecord{
			{"id": "1", "name": "A", "team": "KC", "position": "RB", "fantasyPoints": 200.0},
			{"id": "2", "name": "B", "team": "KC", "position": "RB", "fantasy_points": "100"},
			{"name": "no id", "position": "RB"},
		}
		rows := []model.ADPEntry{{PlayerID: "1", ADP: 5}, {PlayerID: "2", ADP: 50}}

		Convey("When building the board", func() {
			res := board.Build(records, rows)

			Convey("Then players are normalized, joined and ranked", func() {
				So(res.Skipped, ShouldEqual, 1)
				So(len(res.Players), ShouldEqual, 2)
				So(res.Players[0].ID, ShouldEqual, "1")
				So(res.Players[0].Rank, ShouldEqual, 1)
				So(res.Players[0].Tier, ShouldEqual, model.T1)
				So(res.Players[1].Rank, ShouldEqual, 2)
			})
		})
	})
}
