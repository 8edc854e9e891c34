package model

import "time"

// EventType names a live draft event on the wire.
type EventType string

// Live events. The first three are sent by participants, the last two are broadcast by the relay.
const (
	EventJoinDraft     EventType = "join_draft"
	EventDraftPick     EventType = "draft_pick"
	EventRemovePick    EventType = "remove_pick"
	EventPlayerDrafted EventType = "player_drafted"
	EventPlayerRemoved EventType = "player_removed"
)

// DraftEvent is a live-sync message scoped to one draft.
type DraftEvent struct {
	EventID  string            `json:"event_id,omitempty"`
	Type     EventType         `json:"type"`
	DraftID  string            `json:"draft_id"`
	Player   *NormalizedPlayer `json:"player,omitempty"`
	PlayerID string            `json:"player_id,omitempty"`
	TS       time.Time         `json:"ts,omitempty"`
}

// PersistJob asks a worker to save the full pick list of a draft.
// Generation orders jobs of the same draft; workers skip jobs older than the last saved one.
type PersistJob struct {
	DraftID    string
	Generation uint64
	Picks      []DraftPick
	Clear      bool
}
