package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/backend"
	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/cache"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/draft"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ draft.PickStore = (*backend.Client)(nil)

func newClient(t *testing.T, h http.Handler, opts ...backend.Option) *backend.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := backend.New(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := backend.New("not a url")
	assert.Error(t, err)
}

func TestPlayersQueryAndCache(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/players", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "RB", r.URL.Query().Get("position"))
		assert.Equal(t, "2025", r.URL.Query().Get("season"))
		assert.Equal(t, "true", r.URL.Query().Get("on_team_only"))
		_, _ = w.Write([]byte(`[{"id":"4046","name":"A","position":"RB","rushing":{"att":250}}]`))
	})
	c := newClient(t, mux, backend.WithCache(cache.NewMemory(), time.Minute))
	ctx := context.Background()
	q := model.BoardQuery{Season: 2025, Position: "rb", OnTeamOnly: true}

	recs, err := c.Players(ctx, q)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "4046", recs[0]["id"])

	_, err = c.Players(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "second read should be served from cache")
}

func TestPicksCRUD(t *testing.T) {
	var stored []model.DraftPick
	var lastMethod string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastMethod = r.Method
		assert.Equal(t, "/drafts/d1/picks", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(stored)
		case http.MethodPut:
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&stored))
			_ = json.NewEncoder(w).Encode(stored)
		case http.MethodDelete:
			stored = []model.DraftPick{}
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	})
	c := newClient(t, h)
	ctx := context.Background()

	require.NoError(t, c.SavePicks(ctx, "d1", []model.DraftPick{{ID: "x", PlayerID: "1", Overall: 1}}))
	got, err := c.GetPicks(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].PlayerID)

	require.NoError(t, c.ClearPicks(ctx, "d1"))
	assert.Equal(t, http.MethodDelete, lastMethod)
	got, err = c.GetPicks(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpstreamErrorAndBreaker(t *testing.T) {
	var hits atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusBadGateway)
	})
	c := newClient(t, h)
	ctx := context.Background()

	_, err := c.ADP(ctx, 2025)
	require.Error(t, err)
	assert.True(t, errors.Is(err, backend.ErrUpstream))
	var se *backend.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.Equal(t, "boom", se.Body)

	for i := 0; i < 10; i++ {
		_, err = c.ADP(ctx, 2025)
	}
	assert.True(t, errors.Is(err, backend.ErrCircuitOpen))
	assert.Equal(t, "open", c.BreakerState())
	assert.Equal(t, int32(5), hits.Load(), "open breaker should stop calling the backend")
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "team not found", http.StatusNotFound)
	})
	c := newClient(t, h)
	for i := 0; i < 10; i++ {
		err := c.SetActiveTeam(context.Background(), "nope")
		assert.True(t, errors.Is(err, backend.ErrUpstream))
	}
	assert.Equal(t, "closed", c.BreakerState())
}

func TestTeamsAndFavorites(t *testing.T) {
	favorites := []string{"1"}
	var activeID string
	mux := http.NewServeMux()
	mux.HandleFunc("/teams", func(w http.ResponseWriter, r *http.Request) {
		var in backend.Team
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Mine", in.Name)
		assert.Len(t, in.Picks, 1)
		_ = json.NewEncoder(w).Encode(backend.Team{ID: "t-9", Name: in.Name})
	})
	mux.HandleFunc("/teams/active", func(w http.ResponseWriter, r *http.Request) {
		activeID = r.URL.Query().Get("team_id")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	mux.HandleFunc("/favorites", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			var in struct {
				PlayerIDs []string `json:"player_ids"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			favorites = in.PlayerIDs
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"player_ids": favorites})
	})
	c := newClient(t, mux, backend.WithCache(cache.NewMemory(), time.Minute), backend.WithRateLimit(100, 5))
	ctx := context.Background()

	team, err := c.CreateTeam(ctx, "Mine", []model.DraftPick{{PlayerID: "1"}})
	require.NoError(t, err)
	assert.Equal(t, "t-9", team.ID)
	require.NoError(t, c.SetActiveTeam(ctx, team.ID))
	assert.Equal(t, "t-9", activeID)

	ids, err := c.Favorites(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids)

	ids, err = c.PutFavorites(ctx, []string{"2", "3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, ids)

	ids, err = c.Favorites(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, ids, "cache refreshed by the write")
}
