package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/backend"
	service "github.com/ckwame-jpg/fantasy-tool/internal/app"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/roster"
)

// DraftDependencies defines the draft operations.
type DraftDependencies interface {
	DraftState(ctx context.Context, draftID string) (service.DraftView, error)
	DraftPlayer(ctx context.Context, draftID, playerID string) (model.NormalizedPlayer, error)
	RemovePlayer(ctx context.Context, draftID, playerID string) error
	ResetDraft(ctx context.Context, draftID string) error
	SyncDraft(ctx context.Context, draftID string) (service.DraftView, error)
	Roster(ctx context.Context, draftID string) (roster.Lineup, error)
	SaveTeam(ctx context.Context, draftID, name string) (backend.Team, error)
	WatchExternal(ctx context.Context, externalID, draftID string) error
	UnwatchExternal(draftID string) bool
}

type pickRequest struct {
	PlayerID string `json:"player_id"`
}

type teamRequest struct {
	Name string `json:"name"`
}

type externalRequest struct {
	ExternalID string `json:"external_id"`
}

// DraftsHandler serves draft sessions.
type DraftsHandler struct {
	deps DraftDependencies
}

// NewDraftsHandler creates a drafts handler.
func NewDraftsHandler(deps DraftDependencies) *DraftsHandler {
	return &DraftsHandler{deps: deps}
}

func draftID(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "draftId"))
	if id == "" {
		return "", errors.New("missing draft id")
	}
	return id, nil
}

// HandleGet handles GET /drafts/{draftId}.
func (h *DraftsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_draft"
	id, err := draftID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.DraftState(r.Context(), id)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleDraft handles POST /drafts/{draftId}/picks.
func (h *DraftsHandler) HandleDraft(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_pick"
	id, err := draftID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	var req pickRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.PlayerID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing player_id")))
		return
	}
	p, err := h.deps.DraftPlayer(r.Context(), id, strings.TrimSpace(req.PlayerID))
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleRemove handles DELETE /drafts/{draftId}/picks/{playerId}.
func (h *DraftsHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_pick"
	id, err := draftID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.RemovePlayer(r.Context(), id, chi.URLParam(r, "playerId")); err != nil {
		fail(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleReset handles DELETE /drafts/{draftId}/picks.
func (h *DraftsHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.reset_draft"
	id, err := draftID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.ResetDraft(r.Context(), id); err != nil {
		fail(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSync handles POST /drafts/{draftId}/sync.
func (h *DraftsHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	const op = "api.sync_draft"
	id, err := draftID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.SyncDraft(r.Context(), id)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleRoster handles GET /drafts/{draftId}/roster.
func (h *DraftsHandler) HandleRoster(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_roster"
	id, err := draftID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	lineup, err := h.deps.Roster(r.Context(), id)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, lineup)
}

// HandleSaveTeam handles POST /drafts/{draftId}/team.
func (h *DraftsHandler) HandleSaveTeam(w http.ResponseWriter, r *http.Request) {
	const op = "api.save_team"
	id, err := draftID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	var req teamRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	team, err := h.deps.SaveTeam(r.Context(), id, req.Name)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

// HandleWatch handles POST /drafts/{draftId}/external.
func (h *DraftsHandler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.watch_external"
	id, err := draftID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	var req externalRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.WatchExternal(r.Context(), req.ExternalID, id); err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "watching", "draftId": id, "externalId": req.ExternalID})
}

// HandleUnwatch handles DELETE /drafts/{draftId}/external.
func (h *DraftsHandler) HandleUnwatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "draftId")
	if !h.deps.UnwatchExternal(id) {
		writeError(w, http.StatusNotFound, "not_found", NewKind("api.unwatch_external", errors.New("no watch for draft")))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
