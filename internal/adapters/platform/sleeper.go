// Package platform mirrors drafts hosted on external fantasy platforms into local sessions.
package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	"github.com/ckwame-jpg/fantasy-tool/pkg/logger"
	"github.com/ckwame-jpg/fantasy-tool/pkg/metrics"
)

// DefaultSleeperURL is the public Sleeper API root.
const DefaultSleeperURL = "https://api.sleeper.app/v1"

var (
	// ErrDraftNotFound is returned for unknown external draft ids.
	ErrDraftNotFound = errors.New("platform: draft not found")
	// ErrUnavailable is returned when the platform answers with an error or the breaker is open.
	ErrUnavailable = errors.New("platform: unavailable")
)

// SleeperPick is one pick of a Sleeper draft.
type SleeperPick struct {
	PickNo    int    `json:"pick_no"`
	Round     int    `json:"round"`
	DraftSlot int    `json:"draft_slot"`
	RosterID  any    `json:"roster_id"`
	PlayerID  string `json:"player_id"`
	PickedBy  string `json:"picked_by"`
	Metadata  struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Position  string `json:"position"`
		Team      string `json:"team"`
	} `json:"metadata"`
}

// Name joins first and last name.
func (p SleeperPick) Name() string {
	return strings.TrimSpace(p.Metadata.FirstName + " " + p.Metadata.LastName)
}

// SleeperDraft is the subset of Sleeper draft metadata used for pacing.
type SleeperDraft struct {
	DraftID  string `json:"draft_id"`
	LeagueID string `json:"league_id"`
	Status   string `json:"status"`
	Settings struct {
		Rounds int `json:"rounds"`
		Teams  int `json:"teams"`
	} `json:"settings"`
}

// Active reports whether the draft is in progress.
func (d SleeperDraft) Active() bool { return d.Status == "drafting" }

// SleeperClient reads public draft data from Sleeper.
type SleeperClient struct {
	base    string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	log     logger.Logger
	now     func() time.Time
}

// SleeperOption configures a SleeperClient.
type SleeperOption func(*SleeperClient)

// WithSleeperHTTPClient replaces the HTTP client.
func WithSleeperHTTPClient(hc *http.Client) SleeperOption {
	return func(c *SleeperClient) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithSleeperLogger sets the client logger.
func WithSleeperLogger(l logger.Logger) SleeperOption {
	return func(c *SleeperClient) {
		if l != nil {
			c.log = l
		}
	}
}

// NewSleeperClient creates a client rooted at baseURL, DefaultSleeperURL when empty.
func NewSleeperClient(baseURL string, opts ...SleeperOption) *SleeperClient {
	if baseURL == "" {
		baseURL = DefaultSleeperURL
	}
	c := &SleeperClient{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
		log:  logger.Nop(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "sleeper",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrDraftNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(name, int(to))
			c.log.Warn(context.Background(), "circuit breaker state changed",
				logger.String("breaker", name), logger.String("from", from.String()), logger.String("to", to.String()))
		},
	})
	return c
}

// Draft fetches draft metadata.
func (c *SleeperClient) Draft(ctx context.Context, draftID string) (SleeperDraft, error) {
	var d SleeperDraft
	err := c.get(ctx, "sleeper_draft", "/draft/"+url.PathEscape(draftID), &d)
	return d, err
}

// Picks fetches the picks made so far, ordered by pick number.
func (c *SleeperClient) Picks(ctx context.Context, draftID string) ([]SleeperPick, error) {
	var picks []SleeperPick
	if err := c.get(ctx, "sleeper_picks", "/draft/"+url.PathEscape(draftID)+"/picks", &picks); err != nil {
		return nil, err
	}
	sort.SliceStable(picks, func(i, j int) bool { return picks[i].PickNo < picks[j].PickNo })
	return picks, nil
}

// DraftPicks fetches the picks and converts them to local picks.
func (c *SleeperClient) DraftPicks(ctx context.Context, draftID string) ([]model.DraftPick, error) {
	picks, err := c.Picks(ctx, draftID)
	if err != nil {
		return nil, err
	}
	return ToDraftPicks(picks, c.now()), nil
}

// ToDraftPicks maps Sleeper picks to local picks. Picks without a player id are skipped.
// Sleeper does not report pick times, so every pick is stamped with now.
func ToDraftPicks(picks []SleeperPick, now time.Time) []model.DraftPick {
	ts := float64(now.Unix())
	out := make([]model.DraftPick, 0, len(picks))
	for _, p := range picks {
		if p.PlayerID == "" {
			continue
		}
		pos, _ := model.ParsePosition(p.Metadata.Position)
		out = append(out, model.DraftPick{
			ID:         uuid.NewString(),
			PlayerID:   p.PlayerID,
			PlayerName: p.Name(),
			Position:   string(pos),
			Team:       strings.ToUpper(p.Metadata.Team),
			Round:      p.Round,
			Overall:    p.PickNo,
			Timestamp:  ts,
		})
	}
	return out
}

func (c *SleeperClient) get(ctx context.Context, endpoint, path string, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.fetch(ctx, endpoint, path, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.RecordErrorByComponent("platform", "circuit_open")
		return fmt.Errorf("%w: circuit open", ErrUnavailable)
	}
	return err
}

func (c *SleeperClient) fetch(ctx context.Context, endpoint, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, "error", latency)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(endpoint, strconv.Itoa(resp.StatusCode), latency)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrDraftNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %s returned %d", ErrUnavailable, endpoint, resp.StatusCode)
	}

	// Sleeper answers unknown drafts with a literal null.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", endpoint, err)
	}
	if strings.TrimSpace(string(body)) == "null" {
		return ErrDraftNotFound
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}
