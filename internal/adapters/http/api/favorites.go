package api

import (
	"context"
	"net/http"
)

// FavoritesDependencies defines the favorites operations.
type FavoritesDependencies interface {
	Favorites(ctx context.Context) ([]string, error)
	SetFavorites(ctx context.Context, ids []string) ([]string, error)
}

type favoritesBody struct {
	PlayerIDs []string `json:"player_ids"`
}

// FavoritesHandler serves the favorite player ids.
type FavoritesHandler struct {
	deps FavoritesDependencies
}

// NewFavoritesHandler creates a favorites handler.
func NewFavoritesHandler(deps FavoritesDependencies) *FavoritesHandler {
	return &FavoritesHandler{deps: deps}
}

// HandleGet handles GET /favorites.
func (h *FavoritesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ids, err := h.deps.Favorites(r.Context())
	if err != nil {
		fail(w, "api.get_favorites", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, favoritesBody{PlayerIDs: ids})
}

// HandlePut handles PUT /favorites.
func (h *FavoritesHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_favorites"
	var req favoritesBody
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	ids, err := h.deps.SetFavorites(r.Context(), req.PlayerIDs)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, favoritesBody{PlayerIDs: ids})
}
