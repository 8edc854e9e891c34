package adpimport

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const rankingsPage = `<html><body>
<table id="nav"><tr><td>Home</td><td>News</td></tr></table>
<table>
  <thead><tr><th>Rank</th><th>Player</th><th>Team</th><th>POS</th><th>AVG</th></tr></thead>
  <tbody>
    <tr><td>1</td><td data-player-id="4984">Ja'Marr  Chase</td><td>cin</td><td>WR1</td><td>1.4</td></tr>
    <tr><td>2</td><td>Bijan Robinson</td><td>ATL</td><td>RB1</td><td>2.1</td></tr>
    <tr><td>3</td><td>Philadelphia</td><td>PHI</td><td>DST1</td><td>120.5</td></tr>
    <tr><td>4</td><td>No Adp Guy</td><td>NYJ</td><td>TE9</td><td>-</td></tr>
  </tbody>
</table>
</body></html>`

func TestParse(t *testing.T) {
	Convey("Given an HTML page with a navigation table and an ADP table", t, func() {
		rows, err := Parse(strings.NewReader(rankingsPage))

		Convey("Then the ADP table is picked and rows without a number are dropped", func() {
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 3)
		})

		Convey("And cells are trimmed and positions reduced to codes", func() {
			So(rows[0].Name, ShouldEqual, "Ja'Marr Chase")
			So(rows[0].Team, ShouldEqual, "CIN")
			So(rows[0].Position, ShouldEqual, "WR")
			So(rows[0].ADP, ShouldAlmostEqual, 1.4)
			So(rows[0].PlayerID, ShouldEqual, "4984")
			So(rows[1].PlayerID, ShouldBeEmpty)
			So(rows[2].Position, ShouldEqual, "DEF")
		})
	})

	Convey("Given a table whose header row uses td cells", t, func() {
		page := `<table><tr><td>Name</td><td>Position</td><td>ADP</td></tr>
			<tr><td>Josh Allen</td><td>QB</td><td>22</td></tr></table>`
		rows, err := Parse(strings.NewReader(page))

		Convey("Then the header is recognised and not emitted as a row", func() {
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 1)
			So(rows[0].Name, ShouldEqual, "Josh Allen")
			So(rows[0].ADP, ShouldEqual, 22)
		})
	})

	Convey("Given a page without an ADP column", t, func() {
		_, err := Parse(strings.NewReader(`<table><tr><th>Player</th><th>Pts</th></tr></table>`))

		Convey("Then ErrNoTable is returned", func() {
			So(errors.Is(err, ErrNoTable), ShouldBeTrue)
		})
	})
}

func TestFileSource(t *testing.T) {
	Convey("Given an ADP file on disk", t, func() {
		path := filepath.Join(t.TempDir(), "adp.html")
		So(os.WriteFile(path, []byte(rankingsPage), 0o600), ShouldBeNil)
		src := NewFileSource(path, nil)

		Convey("When ADP is requested", func() {
			rows, err := src.ADP(context.Background(), 2025)

			Convey("Then the parsed rows are returned", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 3)
			})
		})

		Convey("When the file is missing", func() {
			_, err := NewFileSource(path+".missing", nil).ADP(context.Background(), 2025)

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
