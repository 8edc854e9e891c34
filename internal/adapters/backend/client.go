// Package backend is the HTTP client of the players/ADP/picks/teams/favorites backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/cache"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	"github.com/ckwame-jpg/fantasy-tool/pkg/logger"
	"github.com/ckwame-jpg/fantasy-tool/pkg/metrics"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultCacheTTL = 300 * time.Second
	maxErrorBody    = 512
)

// Team is a saved roster on the backend.
type Team struct {
	ID    string            `json:"id"`
	Name  string            `json:"name"`
	Picks []model.DraftPick `json:"picks,omitempty"`
}

type favoritesPayload struct {
	PlayerIDs []string `json:"player_ids"`
}

// Client talks to the backend. Reads go through an optional cache; every call goes through
// a rate limiter and a circuit breaker.
type Client struct {
	base    *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	cache   cache.Cache
	ttl     time.Duration
	log     logger.Logger
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", baseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{Timeout: defaultTimeout},
		ttl:  defaultCacheTTL,
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// A 4xx is the caller's fault, not the backend's.
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(name, int(to))
			c.log.Warn(context.Background(), "circuit breaker state changed",
				logger.String("breaker", name), logger.String("from", from.String()), logger.String("to", to.String()))
		},
	})
	return c, nil
}

// BreakerState reports the circuit breaker state.
func (c *Client) BreakerState() string { return c.breaker.State().String() }

// Players fetches raw player records for a board query.
func (c *Client) Players(ctx context.Context, q model.BoardQuery) ([]model.PlayerRecord, error) {
	q = q.Normalized()
	key := cache.PlayersKey(q.Season, q.Position, q.OnTeamOnly)
	var recs []model.PlayerRecord
	if c.cached(ctx, key, &recs) {
		return recs, nil
	}

	params := url.Values{}
	params.Set("position", q.Position)
	params.Set("season", strconv.Itoa(q.Season))
	params.Set("on_team_only", strconv.FormatBool(q.OnTeamOnly))
	if err := c.do(ctx, "players", http.MethodGet, "/players", params, nil, &recs); err != nil {
		return nil, err
	}
	c.store(ctx, key, recs)
	return recs, nil
}

// ADP fetches the season's ADP feed.
func (c *Client) ADP(ctx context.Context, season int) ([]model.ADPEntry, error) {
	key := cache.ADPKey(season)
	var rows []model.ADPEntry
	if c.cached(ctx, key, &rows) {
		return rows, nil
	}
	if err := c.do(ctx, "adp", http.MethodGet, "/adp/"+strconv.Itoa(season), nil, nil, &rows); err != nil {
		return nil, err
	}
	c.store(ctx, key, rows)
	return rows, nil
}

// GetPicks implements draft.PickStore.
func (c *Client) GetPicks(ctx context.Context, draftID string) ([]model.DraftPick, error) {
	var picks []model.DraftPick
	if err := c.do(ctx, "picks", http.MethodGet, picksPath(draftID), nil, nil, &picks); err != nil {
		return nil, err
	}
	return picks, nil
}

// SavePicks implements draft.PickStore by replacing the full list.
func (c *Client) SavePicks(ctx context.Context, draftID string, picks []model.DraftPick) error {
	if picks == nil {
		picks = []model.DraftPick{}
	}
	return c.do(ctx, "picks", http.MethodPut, picksPath(draftID), nil, picks, nil)
}

// ClearPicks implements draft.PickStore.
func (c *Client) ClearPicks(ctx context.Context, draftID string) error {
	return c.do(ctx, "picks", http.MethodDelete, picksPath(draftID), nil, nil, nil)
}

func picksPath(draftID string) string {
	return "/drafts/" + url.PathEscape(draftID) + "/picks"
}

// Teams lists saved teams.
func (c *Client) Teams(ctx context.Context) ([]Team, error) {
	var teams []Team
	if err := c.do(ctx, "teams", http.MethodGet, "/teams", nil, nil, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// ActiveTeam returns the active team, or nil when none is set.
func (c *Client) ActiveTeam(ctx context.Context) (*Team, error) {
	var team *Team
	if err := c.do(ctx, "teams", http.MethodGet, "/teams/active", nil, nil, &team); err != nil {
		return nil, err
	}
	return team, nil
}

// CreateTeam saves a named team with its picks.
func (c *Client) CreateTeam(ctx context.Context, name string, picks []model.DraftPick) (Team, error) {
	var team Team
	body := Team{Name: name, Picks: picks}
	if err := c.do(ctx, "teams", http.MethodPost, "/teams", nil, body, &team); err != nil {
		return Team{}, err
	}
	return team, nil
}

// SetActiveTeam marks a team active.
func (c *Client) SetActiveTeam(ctx context.Context, teamID string) error {
	params := url.Values{}
	params.Set("team_id", teamID)
	return c.do(ctx, "teams", http.MethodPost, "/teams/active", params, nil, nil)
}

// Favorites returns the favorite player ids.
func (c *Client) Favorites(ctx context.Context) ([]string, error) {
	var fav favoritesPayload
	if c.cached(ctx, cache.FavoritesKey, &fav) {
		return fav.PlayerIDs, nil
	}
	if err := c.do(ctx, "favorites", http.MethodGet, "/favorites", nil, nil, &fav); err != nil {
		return nil, err
	}
	c.store(ctx, cache.FavoritesKey, fav)
	return fav.PlayerIDs, nil
}

// PutFavorites replaces the favorite player ids.
func (c *Client) PutFavorites(ctx context.Context, ids []string) ([]string, error) {
	if ids == nil {
		ids = []string{}
	}
	var out favoritesPayload
	if err := c.do(ctx, "favorites", http.MethodPut, "/favorites", nil, favoritesPayload{PlayerIDs: ids}, &out); err != nil {
		return nil, err
	}
	if out.PlayerIDs == nil {
		out.PlayerIDs = ids
	}
	c.store(ctx, cache.FavoritesKey, out)
	return out.PlayerIDs, nil
}

// Invalidate drops cached reads for the given keys.
func (c *Client) Invalidate(ctx context.Context, keys ...string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Delete(ctx, keys...); err != nil {
		c.log.Warn(ctx, "cache delete failed", logger.Error(err))
	}
}

func (c *Client) cached(ctx context.Context, key string, dest any) bool {
	if c.cache == nil {
		return false
	}
	err := cache.GetJSON(ctx, c.cache, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrMiss) {
		c.log.Warn(ctx, "cache read failed", logger.String("key", key), logger.Error(err))
	}
	return false
}

func (c *Client) store(ctx context.Context, key string, value any) {
	if c.cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, c.cache, key, value, c.ttl); err != nil {
		c.log.Warn(ctx, "cache write failed", logger.String("key", key), logger.Error(err))
	}
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, params url.Values, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait for %s: %w", endpoint, err)
		}
	}

	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, endpoint, method, path, params, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.RecordErrorByComponent("backend", "circuit_open")
		return fmt.Errorf("%w: %s", ErrCircuitOpen, endpoint)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, endpoint, method, path string, params url.Values, body, out any) error {
	u := *c.base
	u.Path = c.base.Path + path
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", endpoint, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, "error", latency)
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(endpoint, strconv.Itoa(resp.StatusCode), latency)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}
