package world

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"htrae.ai/internal/protocol"
	"htrae.ai/internal/sim/model"
)

func (w *World) buildWorldUpdate() protocol.WorldUpdate {
	u := protocol.WorldUpdate{
		Locations: w.store.Locations(),
		Messages:  w.store.Messages(w.cfg.MessageWindow),
	}
	if sp, ok := w.store.Spectra(); ok {
		u.Spectra = &sp
		if loc, ok := w.store.Location(sp.LocationID); ok {
			u.CurrentLocation = &loc
			u.NPCsInLocation = w.store.NPCsByLocation(loc.ID)
		}
	}
	if ws, ok := w.store.WorldState(); ok {
		u.WorldState = &ws
	}
	return u
}

func (w *World) worldUpdateFrame() []byte {
	b, err := protocol.EncodeWorldUpdate(w.buildWorldUpdate())
	if err != nil {
		w.log.Printf("encode world_update: %v", err)
		return nil
	}
	return b
}

func (w *World) messagesFrame() []byte {
	b, err := protocol.EncodeMessagesUpdate(w.store.Messages(w.cfg.MessageWindow))
	if err != nil {
		w.log.Printf("encode messages_update: %v", err)
		return nil
	}
	return b
}

type digestView struct {
	Spectra    *model.Spectra    `json:"spectra"`
	WorldState *model.WorldState `json:"world_state"`
	Locations  []model.Location  `json:"locations"`
	NPCs       []model.NPC       `json:"npcs"`
}

// stateDigest hashes the simulated state (not the chat log) so journal
// entries can be compared across runs.
func (w *World) stateDigest() string {
	v := digestView{Locations: w.store.Locations(), NPCs: w.store.NPCs()}
	if sp, ok := w.store.Spectra(); ok {
		v.Spectra = &sp
	}
	if ws, ok := w.store.WorldState(); ok {
		v.WorldState = &ws
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
