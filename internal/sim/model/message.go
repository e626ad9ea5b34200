package model

import "time"

type Sender string

const (
	SenderPlayer  Sender = "player"
	SenderSpectra Sender = "spectra"
	SenderSystem  Sender = "system"
)

type MessageType string

const (
	MessageChat   MessageType = "chat"
	MessageEvent  MessageType = "event"
	MessageSystem MessageType = "system"
)

// DefaultMessageWindow is how many recent messages reads return by default.
const DefaultMessageWindow = 50

type Message struct {
	ID          string      `json:"id"`
	Sender      Sender      `json:"sender"`
	Content     string      `json:"content"`
	Timestamp   time.Time   `json:"timestamp"`
	MessageType MessageType `json:"messageType"`
	Metadata    Properties  `json:"metadata"`
}

func (m Message) Clone() Message {
	out := m
	out.Metadata = m.Metadata.Clone()
	return out
}

const (
	MinInfluence = 1
	MaxInfluence = 10
)

type Player struct {
	ID                      string    `json:"id"`
	Name                    string    `json:"name"`
	IsOnline                bool      `json:"isOnline"`
	LastSeen                time.Time `json:"lastSeen"`
	RelationshipWithSpectra string    `json:"relationshipWithSpectra"`
	InfluenceLevel          int       `json:"influenceLevel"`
	CreatedAt               time.Time `json:"createdAt"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

func ClampInfluence(v int) int { return clampInt(v, MinInfluence, MaxInfluence) }
