package draftsim

import (
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/http/api"
	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/repository"
	service "github.com/ckwame-jpg/fantasy-tool/internal/app"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	"github.com/ckwame-jpg/fantasy-tool/pkg/logger"
)

type players []model.PlayerRecord

func (p players) Players(context.Context, model.BoardQuery) ([]model.PlayerRecord, error) {
	return p, nil
}

func pool(n int) players {
	positions := []string{"QB", "RB", "WR", "TE"}
	out := make(players, n)
	for i := range out {
		out[i] = model.PlayerRecord{
			"id":             "p" + strconv.Itoa(i+1),
			"name":           "Player " + strconv.Itoa(i+1),
			"team":           "KC",
			"position":       positions[i%len(positions)],
			"fantasy_points": float64(300 - 10*i),
		}
	}
	return out
}

// serve runs the real service and API over n players.
func serve(n int) (*httptest.Server, func()) {
	svc := service.New(
		service.WithLogger(logger.Nop()),
		service.WithPlayerSource(pool(n)),
		service.WithPickStore(repository.NewMemoryPickStore()),
		service.WithDefaultQuery(2025, false),
		service.WithPacing(4, 4),
	)
	So(svc.Start(context.Background()), ShouldBeNil)
	ts := httptest.NewServer(api.NewServer(svc, api.WithOnTeamOnly(false)).Handler())
	return ts, func() {
		ts.Close()
		svc.Stop()
	}
}

func config(url, dir string) *Config {
	return &Config{
		BaseURL:  url,
		DraftID:  "sim",
		Drafters: 3,
		Rounds:   2,
		Window:   5,
		Timeout:  5 * time.Second,
		Reset:    true,
		Output:   filepath.Join(dir, "report.json"),
	}
}

func TestRun(t *testing.T) {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		t.Fatal(err)
	}

	Convey("Given a running draft board with eight players", t, func() {
		ts, stop := serve(8)
		defer stop()
		cfg := config(ts.URL, t.TempDir())

		Convey("When three drafters make two picks each", func() {
			report, err := Run(context.Background(), cfg)

			Convey("Then every pick is distinct and verified", func() {
				So(err, ShouldBeNil)
				So(report.Picks, ShouldHaveLength, 6)
				So(report.Problems, ShouldBeEmpty)
				seen := map[string]bool{}
				for _, p := range report.Picks {
					So(seen[p.PlayerID], ShouldBeFalse)
					seen[p.PlayerID] = true
				}
			})

			Convey("Then the report is written", func() {
				_, statErr := os.Stat(cfg.Output)
				So(statErr, ShouldBeNil)
			})
		})

		Convey("When drafters want more players than the board holds", func() {
			cfg.Rounds = 4
			report, err := Run(context.Background(), cfg)

			Convey("Then they stop once the board is exhausted", func() {
				So(err, ShouldBeNil)
				So(report.Picks, ShouldHaveLength, 8)
			})
		})

		Convey("When picks are rate limited", func() {
			cfg.Drafters, cfg.Rounds, cfg.Rate = 2, 1, 100
			report, err := Run(context.Background(), cfg)

			Convey("Then the run still completes", func() {
				So(err, ShouldBeNil)
				So(report.Picks, ShouldHaveLength, 2)
			})
		})
	})
}

func TestVerify(t *testing.T) {
	Convey("Given a draft with one pick", t, func() {
		ts, stop := serve(4)
		defer stop()
		c := newClient(ts.URL, 5*time.Second)
		ctx := context.Background()
		_, err := c.draft(ctx, "v", "p1")
		So(err, ShouldBeNil)

		Convey("When the acknowledged picks match", func() {
			problems, err := verify(ctx, c, "v", []Pick{{PlayerID: "p1"}})

			Convey("Then there are no problems", func() {
				So(err, ShouldBeNil)
				So(problems, ShouldBeEmpty)
			})
		})

		Convey("When a pick was acknowledged twice and another is missing", func() {
			problems, err := verify(ctx, c, "v", []Pick{{PlayerID: "p1"}, {PlayerID: "p1"}, {PlayerID: "p3"}})

			Convey("Then both are reported", func() {
				So(err, ShouldBeNil)
				So(problems, ShouldHaveLength, 2)
			})
		})

		Convey("When the same player is drafted again", func() {
			_, err := c.draft(ctx, "v", "p1")

			Convey("Then the client reports a conflict", func() {
				So(err, ShouldWrap, errConflict)
			})
		})
	})
}
