package protocol

import (
	"encoding/json"

	"htrae.ai/internal/sim/model"
)

const Version = "1.0"

// Inbound message types.
const (
	TypePlayerJoin         = "player_join"
	TypeChatMessage        = "chat_message"
	TypeRequestWorldUpdate = "request_world_update"
)

// Outbound message types.
const (
	TypeWorldUpdate    = "world_update"
	TypeMessagesUpdate = "messages_update"
	TypeError          = "error"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

func IsInboundType(t string) bool {
	switch t {
	case TypePlayerJoin, TypeChatMessage, TypeRequestWorldUpdate:
		return true
	}
	return false
}

type PlayerJoinData struct {
	Name string `json:"name,omitempty"`
}

type ChatMessageData struct {
	Content string `json:"content"`
}

// Envelope is the outbound frame shape.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// WorldUpdate is the full snapshot sent to one session. Absent singletons are
// encoded as null.
type WorldUpdate struct {
	Spectra         *model.Spectra    `json:"spectra"`
	WorldState      *model.WorldState `json:"worldState"`
	CurrentLocation *model.Location   `json:"currentLocation"`
	NPCsInLocation  []model.NPC       `json:"npcsInLocation"`
	Locations       []model.Location  `json:"locations"`
	Messages        []model.Message   `json:"messages"`
}

type MessagesUpdate struct {
	Messages []model.Message `json:"messages"`
}

type ErrorData struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func encode(typ string, data any) ([]byte, error) {
	return json.Marshal(Envelope{Type: typ, Data: data})
}

func EncodeWorldUpdate(u WorldUpdate) ([]byte, error) {
	if u.NPCsInLocation == nil {
		u.NPCsInLocation = []model.NPC{}
	}
	if u.Locations == nil {
		u.Locations = []model.Location{}
	}
	if u.Messages == nil {
		u.Messages = []model.Message{}
	}
	return encode(TypeWorldUpdate, u)
}

func EncodeMessagesUpdate(msgs []model.Message) ([]byte, error) {
	if msgs == nil {
		msgs = []model.Message{}
	}
	return encode(TypeMessagesUpdate, MessagesUpdate{Messages: msgs})
}

func EncodeError(code, message string) []byte {
	b, _ := encode(TypeError, ErrorData{Message: message, Code: code})
	return b
}
