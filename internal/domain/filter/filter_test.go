package filter_test

import (
	"testing"

	"github.com/ckwame-jpg/fantasy-tool/internal/domain/filter"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func f(v float64) *float64 { return model.Float(v) }

func ids(players []model.NormalizedPlayer) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.ID
	}
	return out
}

func board() []model.NormalizedPlayer {
	return []model.NormalizedPlayer{
		{ID: "1", Name: "Patrick Mahomes", Team: "KC", Position: model.QB, ADP: f(30), Tier: model.T1, Stats: model.Stats{FantasyPoints: f(350)}},
		{ID: "2", Name: "Derrick Henry", Team: "BAL", Position: model.RB, ADP: f(8), Tier: model.T1, Stats: model.Stats{FantasyPoints: f(300)}},
		{ID: "3", Name: "Amon-Ra St. Brown", Team: "DET", Position: model.WR, ADP: f(6), Tier: model.T2, Stats: model.Stats{FantasyPoints: f(290)}},
		{ID: "4", Name: "Some Rookie", Team: "PHI", Position: model.WR, Tier: model.T4},
		{ID: "5", Name: "Ghost Entry", Team: "FA", Position: model.RB, ADP: f(1)},
	}
}

func TestEligible(t *testing.T) {
	Convey("Given players with unusual team or name values", t, func() {
		base := model.NormalizedPlayer{ID: "x", Name: "Real Player", Team: "KC"}

		Convey("Then rostered players are eligible", func() {
			So(filter.Eligible(base), ShouldBeTrue)
			lower := base
			lower.Team = " kc "
			So(filter.Eligible(lower), ShouldBeTrue)
		})

		Convey("Then free agents and empty teams never are", func() {
			for _, team := range []string{"", "  ", "FA", "fa", "FA*", "Free Agent"} {
				p := base
				p.Team = team
				So(filter.Eligible(p), ShouldBeFalse)
			}
		})

		Convey("Then placeholder names are rejected", func() {
			for _, name := range []string{"Invalid", "Player Invalid", "free agent pool", "Practice Squad Guy"} {
				p := base
				p.Name = name
				So(filter.Eligible(p), ShouldBeFalse)
			}
			p := base
			p.Name = "Invalidson"
			So(filter.Eligible(p), ShouldBeTrue)
		})
	})
}

func TestByeWeek(t *testing.T) {
	Convey("Given the bye table", t, func() {
		So(filter.ByeWeek("det"), ShouldEqual, 5)
		So(filter.ByeWeek("BAL"), ShouldEqual, 14)
		So(filter.ByeWeek("XYZ"), ShouldEqual, 0)

		So(filter.OnBye("DET", 5), ShouldBeTrue)
		So(filter.OnBye("DET", 6), ShouldBeFalse)
		So(filter.OnBye("DET", 0), ShouldBeFalse)
		So(filter.OnBye("XYZ", 5), ShouldBeFalse)
	})
}

func TestApply(t *testing.T) {
	Convey("Given a board", t, func() {
		players := board()

		Convey("When no criteria are set", func() {
			out := filter.Apply(players, filter.Criteria{})

			Convey("Then only ineligible players are dropped", func() {
				So(ids(out), ShouldResemble, []string{"1", "2", "3", "4"})
			})
		})

		Convey("When searching by name", func() {
			out := filter.Apply(players, filter.Criteria{Search: "HENRY"})
			So(ids(out), ShouldResemble, []string{"2"})
		})

		Convey("When searching for a free agent by name", func() {
			out := filter.Apply(players, filter.Criteria{Search: "ghost"})
			So(out, ShouldBeEmpty)
		})

		Convey("When a bye week is selected", func() {
			Convey("Then players on bye are hidden", func() {
				out := filter.Apply(players, filter.Criteria{ByeWeek: 5})
				So(ids(out), ShouldResemble, []string{"1", "2"})
			})

			Convey("Then showing bye weeks keeps them", func() {
				out := filter.Apply(players, filter.Criteria{ByeWeek: 5, ShowByeWeeks: true})
				So(len(out), ShouldEqual, 4)
			})
		})

		Convey("When filtering by tier", func() {
			out := filter.Apply(players, filter.Criteria{Tier: model.T1})
			So(ids(out), ShouldResemble, []string{"1", "2"})
		})

		Convey("When only favorites are requested", func() {
			c := filter.Criteria{FavoritesOnly: true, Favorites: filter.IDSet([]string{"3", "5"})}
			out := filter.Apply(players, c)
			So(ids(out), ShouldResemble, []string{"3"})
		})

		Convey("When drafted ids are excluded", func() {
			c := filter.Criteria{Exclude: filter.IDSet([]string{"1"})}
			So(ids(filter.Apply(players, c)), ShouldResemble, []string{"2", "3", "4"})
		})
	})
}

func TestSort(t *testing.T) {
	Convey("Given eligible players", t, func() {
		players := filter.Apply(board(), filter.Criteria{})

		Convey("When sorting by ADP ascending", func() {
			filter.Sort(players, filter.DefaultSort)

			Convey("Then missing ADP goes last", func() {
				So(ids(players), ShouldResemble, []string{"3", "2", "1", "4"})
			})
		})

		Convey("When sorting by ADP descending", func() {
			filter.Sort(players, filter.SortSpec{Field: "adp", Desc: true})

			Convey("Then missing ADP still goes last", func() {
				So(ids(players), ShouldResemble, []string{"1", "2", "3", "4"})
			})
		})

		Convey("When sorting by name descending", func() {
			filter.Sort(players, filter.SortSpec{Field: "name", Desc: true})
			So(ids(players), ShouldResemble, []string{"4", "1", "2", "3"})
		})

		Convey("When numeric values tie", func() {
			tied := []model.NormalizedPlayer{
				{ID: "b", Name: "zed", ADP: f(3)},
				{ID: "a", Name: "Adam", ADP: f(3)},
			}
			filter.Sort(tied, filter.SortSpec{Field: "adp", Desc: true})

			Convey("Then names break the tie ascending in either direction", func() {
				So(ids(tied), ShouldResemble, []string{"a", "b"})
			})
		})
	})
}

func TestParseSort(t *testing.T) {
	Convey("Given sort strings", t, func() {
		So(filter.ParseSort(""), ShouldResemble, filter.DefaultSort)
		So(filter.ParseSort("-rank"), ShouldResemble, filter.SortSpec{Field: "rank", Desc: true})
		So(filter.ParseSort("name"), ShouldResemble, filter.SortSpec{Field: "name"})
		So(filter.IsNumeric("posRank"), ShouldBeTrue)
		So(filter.IsNumeric("team"), ShouldBeFalse)

		Convey("And toggling flips the same field and resets on a new one", func() {
			s := filter.SortSpec{Field: "adp"}
			So(s.Toggle("adp"), ShouldResemble, filter.SortSpec{Field: "adp", Desc: true})
			So(s.Toggle("rank"), ShouldResemble, filter.SortSpec{Field: "rank", Desc: true})
		})
	})
}

func TestView(t *testing.T) {
	Convey("Given a board", t, func() {
		out := filter.View(board(), filter.Criteria{Tier: model.T1}, filter.ParseSort("-fantasyPoints"))
		So(ids(out), ShouldResemble, []string{"1", "2"})
	})
}
