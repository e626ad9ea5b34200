package world

import (
	"time"

	"htrae.ai/internal/protocol"
	"htrae.ai/internal/sim/model"
	"htrae.ai/internal/sim/tick"
)

// AttachRequest registers a websocket session. The world replies on Resp
// with the session id and then pushes an initial world_update to Out.
type AttachRequest struct {
	Out  chan []byte
	Resp chan AttachResponse
}

type AttachResponse struct {
	SessionID string
}

// InboundEnvelope carries one decoded (or rejected) frame from a session.
// When ErrCode is set the frame failed decoding and only an error reply is
// sent back to the origin.
type InboundEnvelope struct {
	SessionID string
	Msg       protocol.Inbound

	ErrCode string
	ErrMsg  string
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

// Transcript receives every persisted message and world event.
type Transcript interface {
	RecordMessage(m model.Message)
	RecordEvent(tick uint64, ev model.WorldEvent)
}

type TickLogEntry struct {
	Tick uint64    `json:"tick"`
	At   time.Time `json:"at"`
	Day  int       `json:"day"`
	Time string    `json:"time"`

	Action     string     `json:"action,omitempty"`
	Activity   string     `json:"activity,omitempty"`
	LocationID string     `json:"location_id,omitempty"`
	Mood       model.Mood `json:"mood"`

	Report    tick.Report `json:"report"`
	Forgotten int         `json:"forgotten,omitempty"`

	Digest string `json:"digest"`
}

type AuditEntry struct {
	Tick     uint64 `json:"tick"`
	Session  string `json:"session,omitempty"`
	PlayerID string `json:"player_id,omitempty"`
	Action   string `json:"action"` // e.g. "JOIN", "CHAT", "START"
	Detail   string `json:"detail,omitempty"`
}

// ChatResult is returned by the synchronous Chat call.
type ChatResult struct {
	PlayerID string          `json:"playerId"`
	Reply    string          `json:"reply"`
	Messages []model.Message `json:"messages"`
}

// Status is the HTTP view of the world.
type Status struct {
	WorldState *model.WorldState `json:"worldState"`
	Locations  []model.Location  `json:"locations"`
	NPCs       []model.NPC       `json:"npcs"`
}
