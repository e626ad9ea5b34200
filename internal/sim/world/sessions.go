package world

import (
	"strings"

	"htrae.ai/internal/protocol"
	"htrae.ai/internal/sim/model"
	"htrae.ai/internal/sim/respond"
	"htrae.ai/internal/sim/store"
)

func (w *World) handleAttach(req AttachRequest) {
	s := &session{id: store.NewID(), out: req.Out}
	w.sessions[s.id] = s
	if req.Resp != nil {
		req.Resp <- AttachResponse{SessionID: s.id}
	}
	w.send(s, w.worldUpdateFrame())
	w.publishMetrics(0)
}

func (w *World) handleLeave(sessionID string) {
	s, ok := w.sessions[sessionID]
	if !ok {
		return
	}
	delete(w.sessions, sessionID)
	if s.playerID != "" {
		now := w.now()
		if _, err := w.store.UpdatePlayer(s.playerID, func(p *model.Player) {
			p.IsOnline = false
			p.LastSeen = now
		}); err != nil {
			w.log.Printf("leave %s: %v", sessionID, err)
		}
		w.audit(AuditEntry{Session: sessionID, PlayerID: s.playerID, Action: "LEAVE"})
	}
	w.publishMetrics(0)
}

func (w *World) handleInbound(env InboundEnvelope) {
	s, ok := w.sessions[env.SessionID]
	if !ok {
		return
	}
	if env.ErrCode != "" {
		w.send(s, protocol.EncodeError(env.ErrCode, env.ErrMsg))
		return
	}
	switch env.Msg.Type {
	case protocol.TypePlayerJoin:
		w.handleJoin(s, env.Msg.Join.Name)
	case protocol.TypeChatMessage:
		if s.playerID == "" {
			w.send(s, protocol.EncodeError(protocol.ErrNotJoined, "join the simulation before chatting"))
			return
		}
		w.processChat(s.id, s.playerID, env.Msg.Chat.Content)
		w.broadcastMessages()
	case protocol.TypeRequestWorldUpdate:
		w.send(s, w.worldUpdateFrame())
	default:
		w.send(s, protocol.EncodeError(protocol.ErrUnknownType, "unknown message type"))
	}
}

func (w *World) handleJoin(s *session, name string) {
	p := w.createPlayer(name)
	if s.playerID != "" && s.playerID != p.ID {
		// Rejoining replaces the bound player.
		now := w.now()
		_, _ = w.store.UpdatePlayer(s.playerID, func(old *model.Player) {
			old.IsOnline = false
			old.LastSeen = now
		})
	}
	s.playerID = p.ID
	w.audit(AuditEntry{Session: s.id, PlayerID: p.ID, Action: "JOIN", Detail: p.Name})

	w.broadcastMessages()
	w.send(s, w.worldUpdateFrame())
	w.publishMetrics(0)
}

// createPlayer stores an online player and announces it with a system message.
func (w *World) createPlayer(name string) model.Player {
	name = strings.TrimSpace(name)
	p := w.store.CreatePlayer(model.Player{
		Name:                    name,
		IsOnline:                true,
		LastSeen:                w.now(),
		RelationshipWithSpectra: "curious",
		InfluenceLevel:          model.MinInfluence,
	})
	w.persistMessage(model.Message{
		Sender:      model.SenderSystem,
		Content:     p.Name + " has joined the simulation",
		MessageType: model.MessageSystem,
		Metadata:    model.Properties{"playerId": model.String(p.ID)},
	})
	return p
}

// processChat stores the player's line and Spectra's reply. Without a Spectra
// only the player's line is kept and the reply is empty.
func (w *World) processChat(sessionID, playerID, content string) string {
	now := w.now()
	w.persistMessage(model.Message{
		Sender:      model.SenderPlayer,
		Content:     content,
		MessageType: model.MessageChat,
		Metadata:    model.Properties{"playerId": model.String(playerID)},
	})
	_, _ = w.store.UpdatePlayer(playerID, func(p *model.Player) { p.LastSeen = now })
	w.audit(AuditEntry{Session: sessionID, PlayerID: playerID, Action: "CHAT", Detail: content})

	sp, ok := w.store.Spectra()
	if !ok {
		return ""
	}
	reply := respond.Respond(content, sp)
	if _, err := w.store.UpdateSpectra(sp.ID, func(x *model.Spectra) {
		x.Mood = x.Mood.Apply(model.MoodDelta{Social: w.cfg.ChatSocialBoost})
	}); err != nil {
		w.log.Printf("chat: %v", err)
	}
	w.persistMessage(model.Message{
		Sender:      model.SenderSpectra,
		Content:     reply,
		MessageType: model.MessageChat,
		Metadata: model.Properties{
			"responseToPlayer": model.Bool(true),
			"playerId":         model.String(playerID),
		},
	})
	return reply
}

func (w *World) persistMessage(m model.Message) model.Message {
	m = w.store.CreateMessage(m)
	if w.transcript != nil {
		w.transcript.RecordMessage(m)
	}
	return m
}

func (w *World) broadcastMessages() {
	if len(w.sessions) == 0 {
		return
	}
	b := w.messagesFrame()
	for _, s := range w.sessions {
		w.send(s, b)
	}
}

// broadcastWorldUpdate sends every session a freshly built snapshot.
func (w *World) broadcastWorldUpdate() {
	for _, s := range w.sessions {
		w.send(s, w.worldUpdateFrame())
	}
}

func (w *World) audit(e AuditEntry) {
	if w.auditLogger == nil {
		return
	}
	e.Tick = w.tick.Load()
	if err := w.auditLogger.WriteAudit(e); err != nil {
		w.log.Printf("audit: %v", err)
	}
}
