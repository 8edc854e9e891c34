// Package livesync relays draft events between participants over websockets.
//
// The Hub is an actor: one goroutine owns the room table and every change goes
// through its inbox. The Client is the participant side used by local draft sessions.
package livesync

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	"github.com/ckwame-jpg/fantasy-tool/pkg/logger"
	"github.com/ckwame-jpg/fantasy-tool/pkg/metrics"
)

const outboxSize = 16

// Observer sees every event published by a connected participant, before it is broadcast.
type Observer interface {
	Observe(ctx context.Context, ev model.DraftEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev model.DraftEvent)

// Observe implements Observer.
func (f ObserverFunc) Observe(ctx context.Context, ev model.DraftEvent) { f(ctx, ev) }

type hubMsg interface{ isHubMsg() }

type registerMsg struct {
	clientID string
	outbox   chan model.DraftEvent
}

type joinMsg struct{ clientID, draftID string }

type leaveMsg struct{ clientID string }

type broadcastMsg struct{ ev model.DraftEvent }

type statsMsg struct{ reply chan Stats }

func (registerMsg) isHubMsg()  {}
func (joinMsg) isHubMsg()      {}
func (leaveMsg) isHubMsg()     {}
func (broadcastMsg) isHubMsg() {}
func (statsMsg) isHubMsg()     {}

// Stats is a point-in-time view of the hub.
type Stats struct {
	Clients int            `json:"clients"`
	Rooms   map[string]int `json:"rooms"`
}

type member struct {
	outbox chan model.DraftEvent
	room   string
}

// Hub tracks connected participants and the draft room each one joined.
type Hub struct {
	inbox    chan hubMsg
	members  map[string]*member
	rooms    map[string]map[string]struct{}
	observer Observer
	log      logger.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithObserver feeds participant events to o, e.g. to mirror them into local sessions.
func WithObserver(o Observer) HubOption {
	return func(h *Hub) { h.observer = o }
}

// WithHubLogger sets the hub logger.
func WithHubLogger(l logger.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.log = l
		}
	}
}

// NewHub starts a hub that runs until parent is cancelled or Close is called.
func NewHub(parent context.Context, opts ...HubOption) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan hubMsg, 64),
		members: make(map[string]*member),
		rooms:   make(map[string]map[string]struct{}),
		log:     logger.Nop(),
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	go h.loop()
	return h
}

// Register adds a participant. The hub closes outbox when the participant leaves or falls behind.
func (h *Hub) Register(clientID string, outbox chan model.DraftEvent) {
	h.send(registerMsg{clientID: clientID, outbox: outbox})
}

// Join moves a participant into a draft room, leaving any previous one.
func (h *Hub) Join(clientID, draftID string) {
	h.send(joinMsg{clientID: clientID, draftID: draftID})
}

// Leave removes a participant and closes its outbox.
func (h *Hub) Leave(clientID string) {
	h.send(leaveMsg{clientID: clientID})
}

// Publish hands a participant event to the observer and broadcasts it to the room.
func (h *Hub) Publish(ctx context.Context, ev model.DraftEvent) {
	ev = h.stamp(ev)
	if h.observer != nil {
		h.observer.Observe(ctx, ev)
	}
	h.send(broadcastMsg{ev: ev})
}

// Broadcast sends ev to every member of its room without notifying the observer.
func (h *Hub) Broadcast(ev model.DraftEvent) {
	h.send(broadcastMsg{ev: h.stamp(ev)})
}

// Stats returns membership counts. A closed hub reports zero values.
func (h *Hub) Stats() Stats {
	reply := make(chan Stats, 1)
	if !h.send(statsMsg{reply: reply}) {
		return Stats{Rooms: map[string]int{}}
	}
	select {
	case s := <-reply:
		return s
	case <-h.done:
		return Stats{Rooms: map[string]int{}}
	}
}

// Close stops the hub and closes every outbox.
func (h *Hub) Close() {
	h.cancel()
	<-h.done
}

func (h *Hub) stamp(ev model.DraftEvent) model.DraftEvent {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.TS.IsZero() {
		ev.TS = h.now().UTC()
	}
	return ev
}

func (h *Hub) send(m hubMsg) bool {
	select {
	case h.inbox <- m:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case registerMsg:
				if old, ok := h.members[msg.clientID]; ok {
					h.drop(msg.clientID, old)
				}
				h.members[msg.clientID] = &member{outbox: msg.outbox}

			case joinMsg:
				mb, ok := h.members[msg.clientID]
				if !ok {
					break
				}
				h.leaveRoom(msg.clientID, mb)
				mb.room = msg.draftID
				room := h.rooms[msg.draftID]
				if room == nil {
					room = make(map[string]struct{})
					h.rooms[msg.draftID] = room
				}
				room[msg.clientID] = struct{}{}
				h.log.Debug(h.ctx, "participant joined draft",
					logger.String("client_id", msg.clientID), logger.String("draft_id", msg.draftID))

			case leaveMsg:
				if mb, ok := h.members[msg.clientID]; ok {
					h.drop(msg.clientID, mb)
				}

			case broadcastMsg:
				h.broadcast(msg.ev)

			case statsMsg:
				s := Stats{Clients: len(h.members), Rooms: make(map[string]int, len(h.rooms))}
				for id, room := range h.rooms {
					s.Rooms[id] = len(room)
				}
				msg.reply <- s
			}
			metrics.UpdateLiveConnections(len(h.members))
			metrics.UpdateLiveRooms(len(h.rooms))
		}
	}
}

// broadcast delivers to every room member, including the sender. Members whose outbox is full are dropped.
func (h *Hub) broadcast(ev model.DraftEvent) {
	for id := range h.rooms[ev.DraftID] {
		mb := h.members[id]
		select {
		case mb.outbox <- ev:
			metrics.RecordLiveEvent(string(ev.Type), "out")
		default:
			h.log.Warn(h.ctx, "dropping slow participant", logger.String("client_id", id))
			h.drop(id, mb)
		}
	}
}

func (h *Hub) leaveRoom(clientID string, mb *member) {
	if mb.room == "" {
		return
	}
	if room := h.rooms[mb.room]; room != nil {
		delete(room, clientID)
		if len(room) == 0 {
			delete(h.rooms, mb.room)
		}
	}
	mb.room = ""
}

func (h *Hub) drop(clientID string, mb *member) {
	h.leaveRoom(clientID, mb)
	delete(h.members, clientID)
	close(mb.outbox)
}

func (h *Hub) shutdown() {
	for id, mb := range h.members {
		h.drop(id, mb)
	}
}

// HubTransport lets in-process sessions announce changes straight to the hub's rooms.
type HubTransport struct {
	hub *Hub
}

// NewHubTransport wraps h as a draft transport.
func NewHubTransport(h *Hub) *HubTransport { return &HubTransport{hub: h} }

// Join is a no-op: in-process sessions do not occupy a room.
func (t *HubTransport) Join(context.Context, string) error { return nil }

// NotifyDraft broadcasts player_drafted to the room.
func (t *HubTransport) NotifyDraft(_ context.Context, draftID string, player model.NormalizedPlayer) error {
	t.hub.Broadcast(model.DraftEvent{Type: model.EventPlayerDrafted, DraftID: draftID, Player: &player, PlayerID: player.ID})
	return nil
}

// NotifyRemove broadcasts player_removed to the room.
func (t *HubTransport) NotifyRemove(_ context.Context, draftID, playerID string) error {
	t.hub.Broadcast(model.DraftEvent{Type: model.EventPlayerRemoved, DraftID: draftID, PlayerID: playerID})
	return nil
}
