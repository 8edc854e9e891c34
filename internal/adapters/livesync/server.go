package livesync

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	"github.com/ckwame-jpg/fantasy-tool/pkg/logger"
	"github.com/ckwame-jpg/fantasy-tool/pkg/metrics"
)

const writeTimeout = 3 * time.Second

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// HandlerOption configures the websocket handler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	accept websocket.AcceptOptions
	log    logger.Logger
}

// WithOriginPatterns allows cross-origin participants matching the given host patterns.
func WithOriginPatterns(patterns ...string) HandlerOption {
	return func(c *handlerConfig) { c.accept.OriginPatterns = patterns }
}

// WithHandlerLogger sets the handler logger.
func WithHandlerLogger(l logger.Logger) HandlerOption {
	return func(c *handlerConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// Handler upgrades the request and relays the participant's events through h.
//
// Participants send join_draft, draft_pick and remove_pick. The room receives
// player_drafted and player_removed, the sender included.
func Handler(h *Hub, opts ...HandlerOption) http.HandlerFunc {
	cfg := handlerConfig{log: logger.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &cfg.accept)
		if err != nil {
			cfg.log.Warn(r.Context(), "websocket accept failed", logger.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		out := make(chan model.DraftEvent, outboxSize)
		h.Register(clientID, out)
		defer h.Leave(clientID)

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for ev := range out {
				if err := writeJSON(writeCtx, conn, ev); err != nil {
					writeCancel()
					return
				}
			}
			// Dropped by the hub.
			_ = conn.Close(websocket.StatusPolicyViolation, "too slow")
		}()

		var room string
		for {
			_, data, err := conn.Read(writeCtx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					cfg.log.Debug(r.Context(), "participant read ended",
						logger.String("client_id", clientID), logger.Error(err))
				}
				return
			}

			var ev model.DraftEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				_ = writeJSON(writeCtx, conn, errorMessage{Type: "error", Error: "bad json"})
				continue
			}
			metrics.RecordLiveEvent(string(ev.Type), "in")
			if ev.DraftID == "" {
				ev.DraftID = room
			}

			msg, reason := relay(ev)
			if reason != "" {
				_ = writeJSON(writeCtx, conn, errorMessage{Type: "error", Error: reason})
				continue
			}
			if ev.Type == model.EventJoinDraft {
				room = ev.DraftID
				h.Join(clientID, room)
				continue
			}
			h.Publish(r.Context(), msg)
		}
	}
}

// relay maps a participant message to the event broadcast to the room.
// A non-empty reason rejects the message.
func relay(ev model.DraftEvent) (model.DraftEvent, string) {
	if ev.DraftID == "" {
		return ev, "missing draft_id"
	}
	switch ev.Type {
	case model.EventJoinDraft:
		return ev, ""
	case model.EventDraftPick:
		if ev.Player == nil || ev.Player.ID == "" {
			return ev, "missing player"
		}
		return model.DraftEvent{
			EventID:  ev.EventID,
			Type:     model.EventPlayerDrafted,
			DraftID:  ev.DraftID,
			Player:   ev.Player,
			PlayerID: ev.Player.ID,
		}, ""
	case model.EventRemovePick:
		id := ev.PlayerID
		if id == "" && ev.Player != nil {
			id = ev.Player.ID
		}
		if id == "" {
			return ev, "missing player_id"
		}
		return model.DraftEvent{
			EventID:  ev.EventID,
			Type:     model.EventPlayerRemoved,
			DraftID:  ev.DraftID,
			PlayerID: id,
		}, ""
	}
	return ev, "unknown type"
}

func writeJSON(ctx context.Context, conn *websocket.Conn, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}
