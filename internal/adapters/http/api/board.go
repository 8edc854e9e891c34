package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/repository"
	service "github.com/ckwame-jpg/fantasy-tool/internal/app"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/filter"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
)

// BoardDependencies defines the board read operations.
type BoardDependencies interface {
	Board(ctx context.Context, req service.BoardRequest) (service.BoardView, error)
	BoardPlayer(ctx context.Context, q model.BoardQuery, playerID string) (model.NormalizedPlayer, error)
	TopN(ctx context.Context, q model.BoardQuery, n int) ([]repository.Entry, error)
}

// BoardHandler serves ranked boards.
type BoardHandler struct {
	deps       BoardDependencies
	maxLimit   int
	onTeamOnly bool
}

// NewBoardHandler creates a board handler. onTeamOnly is the default of the on_team_only parameter.
func NewBoardHandler(deps BoardDependencies, maxLimit int, onTeamOnly bool) *BoardHandler {
	return &BoardHandler{deps: deps, maxLimit: maxLimit, onTeamOnly: onTeamOnly}
}

// HandleBoard handles GET /board.
func (h *BoardHandler) HandleBoard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_board"
	q, err := h.query(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	crit, err := criteria(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	limit, ok := queryInt(r, "limit", 0)
	if !ok || limit < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if limit > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	includeDrafted, ok := queryBool(r, "include_drafted", false)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	refresh, ok := queryBool(r, "refresh", false)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	view, err := h.deps.Board(r.Context(), service.BoardRequest{
		Query:          q,
		Criteria:       crit,
		Sort:           filter.ParseSort(r.URL.Query().Get("sort")),
		Limit:          limit,
		DraftID:        strings.TrimSpace(r.URL.Query().Get("draft_id")),
		IncludeDrafted: includeDrafted,
		Refresh:        refresh,
	})
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleTop handles GET /board/top?limit=N, the compact rank rows of a board.
func (h *BoardHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_board_top"
	n, ok := queryInt(r, "limit", 0)
	if !ok || n < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	q, err := h.query(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	entries, err := h.deps.TopN(r.Context(), q, n)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandlePlayer handles GET /board/{playerId}.
func (h *BoardHandler) HandlePlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_board_player"
	id := strings.TrimSpace(chi.URLParam(r, "playerId"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	q, err := h.query(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	p, err := h.deps.BoardPlayer(r.Context(), q, id)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *BoardHandler) query(r *http.Request) (model.BoardQuery, error) {
	season, ok := queryInt(r, "season", 0)
	if !ok || season < 0 {
		return model.BoardQuery{}, errors.New("invalid season")
	}
	onTeam, ok := queryBool(r, "on_team_only", h.onTeamOnly)
	if !ok {
		return model.BoardQuery{}, errors.New("invalid on_team_only")
	}
	pos := strings.TrimSpace(r.URL.Query().Get("position"))
	if pos != "" && !strings.EqualFold(pos, model.AllPositions) {
		if _, ok := model.ParsePosition(pos); !ok {
			return model.BoardQuery{}, errors.New("unknown position " + pos)
		}
	}
	return model.BoardQuery{Season: season, Position: pos, OnTeamOnly: onTeam}.Normalized(), nil
}

func criteria(r *http.Request) (filter.Criteria, error) {
	v := r.URL.Query()
	c := filter.Criteria{Search: strings.TrimSpace(v.Get("search"))}

	switch tier := strings.ToUpper(strings.TrimSpace(v.Get("tier"))); tier {
	case "":
	case "NONE", string(model.TierNone):
		c.Tier = model.TierNone
	case string(model.T1), string(model.T2), string(model.T3), string(model.T4):
		c.Tier = model.Tier(tier)
	default:
		return c, errors.New("unknown tier " + tier)
	}

	week, ok := queryInt(r, "bye_week", 0)
	if !ok || week < 0 || week > 18 {
		return c, errors.New("invalid bye_week")
	}
	c.ByeWeek = week
	if c.ShowByeWeeks, ok = queryBool(r, "show_bye", false); !ok {
		return c, errors.New("invalid show_bye")
	}
	if c.FavoritesOnly, ok = queryBool(r, "favorites_only", false); !ok {
		return c, errors.New("invalid favorites_only")
	}
	return c, nil
}
