package draftsim

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
	"time"

	service "github.com/ckwame-jpg/fantasy-tool/internal/app"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/roster"
)

// errConflict marks a pick another drafter won first.
var errConflict = errors.New("player already drafted")

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string { return fmt.Sprintf("status %d: %s", e.Code, e.Body) }

// client is a small JSON client for the draft board API.
type client struct {
	base string
	hc   *http.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{base: baseURL, hc: &http.Client{Timeout: timeout}}
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		if resp.StatusCode == http.StatusConflict {
			return fmt.Errorf("%w: %s", errConflict, bytes.TrimSpace(data))
		}
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (c *client) health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// available returns the best n undrafted players of draftID.
func (c *client) available(ctx context.Context, draftID string, n int) (service.BoardView, error) {
	q := url.Values{}
	q.Set("draft_id", draftID)
	q.Set("limit", strconv.Itoa(n))
	var view service.BoardView
	err := c.do(ctx, http.MethodGet, "/board?"+q.Encode(), nil, &view)
	return view, err
}

func (c *client) draft(ctx context.Context, draftID, playerID string) (model.NormalizedPlayer, error) {
	var p model.NormalizedPlayer
	err := c.do(ctx, http.MethodPost, "/drafts/"+url.PathEscape(draftID)+"/picks",
		map[string]string{"player_id": playerID}, &p)
	return p, err
}

func (c *client) reset(ctx context.Context, draftID string) error {
	return c.do(ctx, http.MethodDelete, "/drafts/"+url.PathEscape(draftID)+"/picks", nil, nil)
}

func (c *client) state(ctx context.Context, draftID string) (service.DraftView, error) {
	var v service.DraftView
	err := c.do(ctx, http.MethodGet, "/drafts/"+url.PathEscape(draftID), nil, &v)
	return v, err
}

func (c *client) roster(ctx context.Context, draftID string) (roster.Lineup, error) {
	var l roster.Lineup
	err := c.do(ctx, http.MethodGet, "/drafts/"+url.PathEscape(draftID)+"/roster", nil, &l)
	return l, err
}
