package world

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"htrae.ai/internal/persistence/snapshot"
	"htrae.ai/internal/protocol"
	"htrae.ai/internal/sim/memory"
	"htrae.ai/internal/sim/model"
)

var (
	ErrStopped   = errors.New("world stopped")
	ErrEmptyChat = errors.New("chat content is empty")
)

// exec runs fn on the actor goroutine and waits for it. A caller whose ctx
// ends before the actor picks the call up abandons it and fn never runs; once
// fn has started, exec waits for it so the result always matches the effect.
func (w *World) exec(ctx context.Context, fn func()) error {
	const (
		pending int32 = iota
		started
		abandoned
	)
	var state atomic.Int32
	done := make(chan struct{})
	call := func() {
		defer close(done)
		if !state.CompareAndSwap(pending, started) {
			return
		}
		fn()
	}
	select {
	case w.calls <- call:
	case <-ctx.Done():
		return ctx.Err()
	case <-w.stop:
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
	case <-w.stop:
	}
	if state.CompareAndSwap(pending, abandoned) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrStopped
	}
	<-done
	return nil
}

// Spectra returns the singleton; ok is false when none is stored.
func (w *World) Spectra(ctx context.Context) (sp model.Spectra, ok bool, err error) {
	err = w.exec(ctx, func() { sp, ok = w.store.Spectra() })
	return sp, ok, err
}

func (w *World) Status(ctx context.Context) (Status, error) {
	var st Status
	err := w.exec(ctx, func() {
		if ws, ok := w.store.WorldState(); ok {
			st.WorldState = &ws
		}
		st.Locations = w.store.Locations()
		st.NPCs = w.store.NPCs()
	})
	return st, err
}

func (w *World) Messages(ctx context.Context, limit int) ([]model.Message, error) {
	var out []model.Message
	err := w.exec(ctx, func() { out = w.store.Messages(limit) })
	return out, err
}

// Snapshot builds the same payload a session receives for world_update.
func (w *World) Snapshot(ctx context.Context) (protocol.WorldUpdate, error) {
	var u protocol.WorldUpdate
	err := w.exec(ctx, func() { u = w.buildWorldUpdate() })
	return u, err
}

func (w *World) StartSimulation(ctx context.Context) error {
	return w.exec(ctx, func() {
		w.manual = true
		w.startSimulation("api")
	})
}

func (w *World) StopSimulation(ctx context.Context) error {
	return w.exec(ctx, func() {
		w.manual = true
		w.stopSimulation("api")
	})
}

// Chat posts content as the named player, creating the player on first use,
// and returns Spectra's reply. Websocket sessions see the new messages.
func (w *World) Chat(ctx context.Context, playerName, content string) (ChatResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return ChatResult{}, ErrEmptyChat
	}
	var res ChatResult
	err := w.exec(ctx, func() {
		name := strings.TrimSpace(playerName)
		if name == "" {
			name = "Player"
		}
		id, ok := w.apiPlayers[name]
		if _, exists := w.store.Player(id); !ok || !exists {
			id = w.createPlayer(name).ID
			w.apiPlayers[name] = id
		}
		res.PlayerID = id
		res.Reply = w.processChat("", id, content)
		res.Messages = w.store.Messages(w.cfg.MessageWindow)
		w.broadcastMessages()
		w.publishMetrics(0)
	})
	return res, err
}

// Memories recalls importance-ranked entries containing q.
func (w *World) Memories(ctx context.Context, q string) ([]memory.Entry, error) {
	var out []memory.Entry
	err := w.exec(ctx, func() { out = w.mem.Recall(q) })
	return out, err
}

// Export captures the whole world graph, every message and the memory store.
func (w *World) Export(ctx context.Context, worldID string) (snapshot.SnapshotV1, error) {
	var snap snapshot.SnapshotV1
	err := w.exec(ctx, func() {
		snap = snapshot.SnapshotV1{
			Header: snapshot.Header{
				Version: snapshot.Version,
				WorldID: worldID,
				Tick:    w.tick.Load(),
				Digest:  w.stateDigest(),
			},
			Locations: w.store.Locations(),
			NPCs:      w.store.NPCs(),
			Players:   w.store.Players(),
			Messages:  w.store.Messages(w.store.MessageCount()),
			Memories:  w.mem.All(),
		}
		if sp, ok := w.store.Spectra(); ok {
			snap.Spectra = &sp
		}
		if ws, ok := w.store.WorldState(); ok {
			snap.WorldState = &ws
			snap.Header.Day = ws.CurrentDay
			snap.Header.Time = ws.CurrentTime
		}
	})
	return snap, err
}
