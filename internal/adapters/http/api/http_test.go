package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/backend"
	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/http/api"
	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/repository"
	service "github.com/ckwame-jpg/fantasy-tool/internal/app"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/draft"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/roster"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDeps struct {
	lastBoard service.BoardRequest
	lastQuery model.BoardQuery
	boardErr  error
	drafted   map[string]bool
	favorites []string
	watched   map[string]string
	teamErr   error
	stats     map[string]any
}

func newMockDeps() *mockDeps {
	return &mockDeps{drafted: map[string]bool{}, watched: map[string]string{}, stats: map[string]any{"started": true}}
}

func (m *mockDeps) Board(_ context.Context, req service.BoardRequest) (service.BoardView, error) {
	m.lastBoard = req
	if m.boardErr != nil {
		return service.BoardView{}, m.boardErr
	}
	return service.BoardView{Season: req.Query.Season, Position: req.Query.Position, Total: 1, Matched: 1,
		Players: []model.NormalizedPlayer{{ID: "1", Name: "Josh Allen", Position: model.QB, Team: "BUF", Rank: 1}}}, nil
}

func (m *mockDeps) BoardPlayer(_ context.Context, q model.BoardQuery, id string) (model.NormalizedPlayer, error) {
	m.lastQuery = q
	if id != "1" {
		return model.NormalizedPlayer{}, fmt.Errorf("player %s: %w", id, repository.ErrNotFound)
	}
	return model.NormalizedPlayer{ID: "1", Name: "Josh Allen"}, nil
}

func (m *mockDeps) TopN(_ context.Context, _ model.BoardQuery, n int) ([]repository.Entry, error) {
	out := make([]repository.Entry, n)
	for i := range out {
		out[i] = repository.Entry{Rank: i + 1, PlayerID: fmt.Sprint(i + 1)}
	}
	return out, nil
}

func (m *mockDeps) DraftState(_ context.Context, id string) (service.DraftView, error) {
	return service.DraftView{DraftID: id, State: "synced"}, nil
}

func (m *mockDeps) DraftPlayer(_ context.Context, _, playerID string) (model.NormalizedPlayer, error) {
	switch {
	case playerID == "404":
		return model.NormalizedPlayer{}, fmt.Errorf("%w: %s", draft.ErrUnknownPlayer, playerID)
	case m.drafted[playerID]:
		return model.NormalizedPlayer{}, fmt.Errorf("%w: %s", draft.ErrAlreadyDrafted, playerID)
	}
	m.drafted[playerID] = true
	return model.NormalizedPlayer{ID: playerID}, nil
}

func (m *mockDeps) RemovePlayer(_ context.Context, _, playerID string) error {
	if !m.drafted[playerID] {
		return fmt.Errorf("%w: %s", draft.ErrNotDrafted, playerID)
	}
	delete(m.drafted, playerID)
	return nil
}

func (m *mockDeps) ResetDraft(context.Context, string) error {
	m.drafted = map[string]bool{}
	return nil
}

func (m *mockDeps) SyncDraft(ctx context.Context, id string) (service.DraftView, error) {
	return m.DraftState(ctx, id)
}

func (m *mockDeps) Roster(context.Context, string) (roster.Lineup, error) {
	return roster.Assign(roster.DefaultTemplate, []model.NormalizedPlayer{{ID: "1", Position: model.QB}}), nil
}

func (m *mockDeps) SaveTeam(_ context.Context, _, name string) (backend.Team, error) {
	if m.teamErr != nil {
		return backend.Team{}, m.teamErr
	}
	if strings.TrimSpace(name) == "" {
		return backend.Team{}, fmt.Errorf("%w: empty team name", service.ErrInvalidArgument)
	}
	return backend.Team{ID: "t1", Name: name}, nil
}

func (m *mockDeps) WatchExternal(_ context.Context, externalID, draftID string) error {
	if externalID == "" {
		return fmt.Errorf("%w: empty external draft id", service.ErrInvalidArgument)
	}
	m.watched[draftID] = externalID
	return nil
}

func (m *mockDeps) UnwatchExternal(draftID string) bool {
	_, ok := m.watched[draftID]
	delete(m.watched, draftID)
	return ok
}

func (m *mockDeps) Favorites(context.Context) ([]string, error) { return m.favorites, nil }

func (m *mockDeps) SetFavorites(_ context.Context, ids []string) ([]string, error) {
	m.favorites = ids
	return ids, nil
}

func (m *mockDeps) GetStats() map[string]any {
	out := make(map[string]any, len(m.stats))
	for k, v := range m.stats {
		out[k] = v
	}
	return out
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body.Code
}

func TestServer_Board(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := newMockDeps()
		h := api.NewServer(deps, api.WithMaxLimit(50), api.WithOnTeamOnly(false)).Handler()

		Convey("When the board is requested with every parameter", func() {
			w := serve(h, http.MethodGet,
				"/board?season=2024&position=wr&search=%20al%20&tier=t2&bye_week=7&show_bye=false&favorites_only=true&sort=-fantasyPoints&limit=10&draft_id=d1", "")

			Convey("Then they reach the service parsed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				req := deps.lastBoard
				So(req.Query.Season, ShouldEqual, 2024)
				So(req.Query.Position, ShouldEqual, "WR")
				So(req.Query.OnTeamOnly, ShouldBeFalse)
				So(req.Criteria.Search, ShouldEqual, "al")
				So(req.Criteria.Tier, ShouldEqual, model.T2)
				So(req.Criteria.ByeWeek, ShouldEqual, 7)
				So(req.Criteria.ShowByeWeeks, ShouldBeFalse)
				So(req.Criteria.FavoritesOnly, ShouldBeTrue)
				So(req.Sort.Field, ShouldEqual, "fantasyPoints")
				So(req.Sort.Desc, ShouldBeTrue)
				So(req.Limit, ShouldEqual, 10)
				So(req.DraftID, ShouldEqual, "d1")
			})

			Convey("Then the body is the board view", func() {
				var view service.BoardView
				So(json.Unmarshal(w.Body.Bytes(), &view), ShouldBeNil)
				So(view.Players, ShouldHaveLength, 1)
				So(view.Players[0].Name, ShouldEqual, "Josh Allen")
			})
		})

		Convey("When the board is requested bare", func() {
			w := serve(h, http.MethodGet, "/board", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastBoard.Query.Position, ShouldEqual, model.AllPositions)
			So(deps.lastBoard.Sort.Field, ShouldEqual, "adp")
		})

		Convey("When parameters are invalid", func() {
			for _, target := range []string{
				"/board?position=XX", "/board?tier=T9", "/board?limit=-1", "/board?limit=51",
				"/board?bye_week=abc", "/board?season=x", "/board?favorites_only=maybe",
			} {
				w := serve(h, http.MethodGet, target, "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When upstream is down", func() {
			deps.boardErr = fmt.Errorf("fetch players: %w", backend.ErrCircuitOpen)
			w := serve(h, http.MethodGet, "/board", "")
			So(w.Code, ShouldEqual, http.StatusBadGateway)
			So(errorCode(w), ShouldEqual, "upstream_error")
		})

		Convey("When a single player is requested", func() {
			So(serve(h, http.MethodGet, "/board/1?position=QB", "").Code, ShouldEqual, http.StatusOK)
			So(deps.lastQuery.Position, ShouldEqual, "QB")
			w := serve(h, http.MethodGet, "/board/77", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(errorCode(w), ShouldEqual, "not_found")
		})

		Convey("When the top rows are requested", func() {
			w := serve(h, http.MethodGet, "/board/top?limit=3", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var rows []repository.Entry
			So(json.Unmarshal(w.Body.Bytes(), &rows), ShouldBeNil)
			So(rows, ShouldHaveLength, 3)

			So(serve(h, http.MethodGet, "/board/top", "").Code, ShouldEqual, http.StatusBadRequest)
			w = serve(h, http.MethodGet, "/board/top?limit=51", "")
			So(errorCode(w), ShouldEqual, "limit_exceeded")
		})
	})
}

func TestServer_Drafts(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := newMockDeps()
		h := api.NewServer(deps).Handler()

		Convey("When a player is drafted", func() {
			w := serve(h, http.MethodPost, "/drafts/d1/picks", `{"player_id":"7"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)

			Convey("Then drafting again conflicts", func() {
				w := serve(h, http.MethodPost, "/drafts/d1/picks", `{"player_id":"7"}`)
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(errorCode(w), ShouldEqual, "already_drafted")
			})

			Convey("Then it can be removed once", func() {
				So(serve(h, http.MethodDelete, "/drafts/d1/picks/7", "").Code, ShouldEqual, http.StatusNoContent)
				w := serve(h, http.MethodDelete, "/drafts/d1/picks/7", "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(errorCode(w), ShouldEqual, "not_drafted")
			})

			Convey("Then the draft can be cleared", func() {
				So(serve(h, http.MethodDelete, "/drafts/d1/picks", "").Code, ShouldEqual, http.StatusNoContent)
				So(deps.drafted, ShouldBeEmpty)
			})
		})

		Convey("When a pick request is malformed", func() {
			So(serve(h, http.MethodPost, "/drafts/d1/picks", `{`).Code, ShouldEqual, http.StatusBadRequest)
			So(serve(h, http.MethodPost, "/drafts/d1/picks", `{}`).Code, ShouldEqual, http.StatusBadRequest)
			w := serve(h, http.MethodPost, "/drafts/d1/picks", `{"player_id":"404"}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(errorCode(w), ShouldEqual, "unknown_player")
		})

		Convey("When draft state, sync and roster are requested", func() {
			w := serve(h, http.MethodGet, "/drafts/d1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var view service.DraftView
			So(json.Unmarshal(w.Body.Bytes(), &view), ShouldBeNil)
			So(view.DraftID, ShouldEqual, "d1")

			So(serve(h, http.MethodPost, "/drafts/d1/sync", "").Code, ShouldEqual, http.StatusOK)

			w = serve(h, http.MethodGet, "/drafts/d1/roster", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var lineup roster.Lineup
			So(json.Unmarshal(w.Body.Bytes(), &lineup), ShouldBeNil)
			So(lineup.Starters[0].Player.ID, ShouldEqual, "1")
		})

		Convey("When a team is saved", func() {
			So(serve(h, http.MethodPost, "/drafts/d1/team", `{"name":"Squad"}`).Code, ShouldEqual, http.StatusCreated)
			So(serve(h, http.MethodPost, "/drafts/d1/team", `{"name":""}`).Code, ShouldEqual, http.StatusBadRequest)

			deps.teamErr = fmt.Errorf("%w: team store", service.ErrNotConfigured)
			w := serve(h, http.MethodPost, "/drafts/d1/team", `{"name":"Squad"}`)
			So(w.Code, ShouldEqual, http.StatusNotImplemented)
		})

		Convey("When an external draft is watched", func() {
			So(serve(h, http.MethodPost, "/drafts/d1/external", `{"external_id":"sl-1"}`).Code, ShouldEqual, http.StatusAccepted)
			So(deps.watched["d1"], ShouldEqual, "sl-1")
			So(serve(h, http.MethodPost, "/drafts/d1/external", `{}`).Code, ShouldEqual, http.StatusBadRequest)
			So(serve(h, http.MethodDelete, "/drafts/d1/external", "").Code, ShouldEqual, http.StatusNoContent)
			So(serve(h, http.MethodDelete, "/drafts/d1/external", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestServer_Misc(t *testing.T) {
	Convey("Given an API server with extras", t, func() {
		deps := newMockDeps()
		ready := false
		live := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
		h := api.NewServer(deps,
			api.WithReadiness(func() bool { return ready }),
			api.WithLiveHandler(live),
			api.WithStats("live", func() any { return map[string]int{"clients": 2} }),
		).Handler()

		Convey("Then health follows readiness", func() {
			So(serve(h, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusServiceUnavailable)
			ready = true
			So(serve(h, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then metrics are exposed", func() {
			w := serve(h, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "fantasy_draftboard_")

			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set("Accept", "text/plain")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			So(rec.Body.String(), ShouldContainSubstring, "# HELP")
		})

		Convey("Then stats include extra sections", func() {
			w := serve(h, http.MethodGet, "/stats", "")
			var stats map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["started"], ShouldEqual, true)
			So(stats["live"], ShouldNotBeNil)
		})

		Convey("Then favorites round-trip", func() {
			w := serve(h, http.MethodGet, "/favorites", "")
			So(w.Body.String(), ShouldContainSubstring, `"player_ids":[]`)
			w = serve(h, http.MethodPut, "/favorites", `{"player_ids":["1","2"]}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.favorites, ShouldResemble, []string{"1", "2"})
		})

		Convey("Then the live relay is mounted and unknown routes 404", func() {
			So(serve(h, http.MethodGet, "/ws", "").Code, ShouldEqual, http.StatusTeapot)
			So(serve(h, http.MethodGet, "/nope", "").Code, ShouldEqual, http.StatusNotFound)
			So(serve(h, http.MethodGet, "/mcp", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestClassify(t *testing.T) {
	Convey("Given wrapped errors", t, func() {
		err := api.WrapKind("api.op", api.ErrBadRequest, errors.New("boom"))

		Convey("Then the kind and the cause are both visible", func() {
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: boom")
			So(api.NewKind("api.op", api.ErrBadRequest).Error(), ShouldEqual, "api.op: bad request")
		})
	})
}
