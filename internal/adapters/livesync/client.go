package livesync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/ckwame-jpg/fantasy-tool/internal/domain/dedupe"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/draft"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	"github.com/ckwame-jpg/fantasy-tool/pkg/logger"
	"github.com/ckwame-jpg/fantasy-tool/pkg/metrics"
)

// ErrNotConnected is returned by notifications sent while the relay is unreachable.
var ErrNotConnected = errors.New("livesync: not connected")

// Sessions resolves draft ids to local sessions.
type Sessions interface {
	Lookup(draftID string) (*draft.Session, bool)
}

// Client is a relay participant shared by every local draft session. It implements draft.Transport.
//
// On each (re)connect it clears the seen-event set and calls OnConnect on every joined
// session, which re-joins the room and resyncs from the pick store.
type Client struct {
	url        string
	sessions   Sessions
	httpClient *http.Client
	seen       dedupe.Deduper
	log        logger.Logger
	minBackoff time.Duration
	maxBackoff time.Duration

	mu    sync.Mutex
	conn  *websocket.Conn
	rooms map[string]struct{}
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBackoff bounds the reconnect delay.
func WithBackoff(minDelay, maxDelay time.Duration) ClientOption {
	return func(c *Client) {
		if minDelay > 0 {
			c.minBackoff = minDelay
		}
		if maxDelay >= c.minBackoff {
			c.maxBackoff = maxDelay
		}
	}
}

// WithDeduper replaces the seen-event set.
func WithDeduper(d dedupe.Deduper) ClientOption {
	return func(c *Client) {
		if d != nil {
			c.seen = d
		}
	}
}

// WithDialHTTPClient sets the HTTP client used for the websocket handshake.
func WithDialHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithClientLogger sets the client logger.
func WithClientLogger(l logger.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient creates a participant for the relay at url (ws:// or wss://).
func NewClient(url string, sessions Sessions, opts ...ClientOption) *Client {
	c := &Client{
		url:        url,
		sessions:   sessions,
		seen:       dedupe.NewInMemoryDeduper(),
		log:        logger.Nop(),
		minBackoff: 500 * time.Millisecond,
		maxBackoff: 15 * time.Second,
		rooms:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connected reports whether the relay connection is up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Run keeps the connection alive until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	delay := c.minBackoff
	for {
		dialed, err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		c.log.Warn(ctx, "relay connection lost", logger.Error(err), logger.Duration("retry_in", delay))
		metrics.RecordLiveReconnect()

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		if dialed {
			delay = c.minBackoff
		} else if delay *= 2; delay > c.maxBackoff {
			delay = c.maxBackoff
		}
	}
}

// session runs one connection until it fails. dialed reports whether the handshake succeeded.
func (c *Client) session(ctx context.Context) (dialed bool, err error) {
	conn, _, err := websocket.Dial(ctx, c.url, &websocket.DialOptions{HTTPClient: c.httpClient})
	if err != nil {
		return false, err
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.seen.Reset()
	c.log.Info(ctx, "relay connected", logger.String("url", c.url))

	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		for _, id := range c.joined() {
			if s, ok := c.sessions.Lookup(id); ok {
				s.OnDisconnect()
			}
		}
	}()

	// Read concurrently so join acknowledgements and events are not held up by the resync below.
	errc := make(chan error, 1)
	go func() { errc <- c.readLoop(ctx, conn) }()

	for _, id := range c.joined() {
		if s, ok := c.sessions.Lookup(id); ok {
			if err := s.OnConnect(ctx); err != nil {
				c.log.Warn(ctx, "resync after connect failed", logger.String("draft_id", id), logger.Error(err))
			}
		}
	}
	return true, <-errc
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		var ev model.DraftEvent
		if err := json.Unmarshal(data, &ev); err != nil || ev.Type == "" {
			c.log.Debug(ctx, "ignoring relay message", logger.Int("bytes", len(data)))
			continue
		}
		c.dispatch(ctx, ev)
	}
}

func (c *Client) dispatch(ctx context.Context, ev model.DraftEvent) {
	metrics.RecordLiveEvent(string(ev.Type), "in")
	if ev.EventID != "" && c.seen.SeenAndRecord(ctx, ev.EventID) {
		return
	}
	s, ok := c.sessions.Lookup(ev.DraftID)
	if !ok {
		return
	}
	switch ev.Type {
	case model.EventPlayerDrafted:
		if ev.Player != nil {
			s.OnPlayerDrafted(ctx, *ev.Player)
		}
	case model.EventPlayerRemoved:
		s.OnPlayerRemoved(ctx, ev.PlayerID)
	}
}

func (c *Client) joined() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Join records membership in draftID and announces it when connected.
func (c *Client) Join(ctx context.Context, draftID string) error {
	c.mu.Lock()
	c.rooms[draftID] = struct{}{}
	c.mu.Unlock()
	return c.emit(ctx, model.DraftEvent{Type: model.EventJoinDraft, DraftID: draftID})
}

// NotifyDraft sends draft_pick.
func (c *Client) NotifyDraft(ctx context.Context, draftID string, player model.NormalizedPlayer) error {
	return c.emit(ctx, model.DraftEvent{Type: model.EventDraftPick, DraftID: draftID, Player: &player})
}

// NotifyRemove sends remove_pick.
func (c *Client) NotifyRemove(ctx context.Context, draftID, playerID string) error {
	return c.emit(ctx, model.DraftEvent{Type: model.EventRemovePick, DraftID: draftID, PlayerID: playerID})
}

func (c *Client) emit(ctx context.Context, ev model.DraftEvent) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	if err := writeJSON(ctx, conn, ev); err != nil {
		return err
	}
	metrics.RecordLiveEvent(string(ev.Type), "out")
	return nil
}

var _ draft.Transport = (*Client)(nil)
var _ draft.Transport = (*HubTransport)(nil)
