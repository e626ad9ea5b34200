package world

import (
	"time"

	"htrae.ai/internal/sim/decision"
	"htrae.ai/internal/sim/memory"
	"htrae.ai/internal/sim/model"
)

// StepOnce runs one decide/tick/decay/journal/broadcast cycle and returns the
// journal entry. It must only be called while Run is not running (tests,
// offline tools).
func (w *World) StepOnce() TickLogEntry {
	return w.stepInternal()
}

func (w *World) decisionInput(sp model.Spectra) decision.Input {
	in := decision.Input{Spectra: sp, Hour: w.now().Hour()}
	loc, ok := w.store.Location(sp.LocationID)
	if !ok {
		return in
	}
	in.Location = &loc
	for _, id := range loc.ConnectedLocations {
		if n, ok := w.store.Location(id); ok {
			in.Neighbors = append(in.Neighbors, n)
		}
	}
	in.NPCs = w.store.NPCsByLocation(loc.ID)
	return in
}

func (w *World) stepInternal() TickLogEntry {
	stepStart := time.Now()
	now := w.now()
	nowTick := w.tick.Add(1)
	entry := TickLogEntry{Tick: nowTick, At: now}

	if sp, ok := w.store.Spectra(); ok {
		out := w.decider.Decide(w.decisionInput(sp))
		updated, err := w.store.UpdateSpectra(sp.ID, func(x *model.Spectra) {
			decision.Apply(x, out, now, w.cfg.HelpTrustBoost)
		})
		if err != nil {
			w.log.Printf("tick %d decide: %v", nowTick, err)
		} else {
			entry.Action = string(out.Action)
			entry.Activity = updated.CurrentActivity
			entry.LocationID = updated.LocationID
			entry.Mood = updated.Mood
		}
		if out.Memory != "" {
			w.mem.Add(out.Memory, memory.ShortTerm, w.cfg.MemoryImportance, now)
		}
		if out.AutonomousMessage != "" {
			w.persistMessage(model.Message{
				Sender:      model.SenderSpectra,
				Content:     out.AutonomousMessage,
				MessageType: model.MessageChat,
				Metadata: model.Properties{
					"autonomous": model.Bool(true),
					"activity":   model.String(out.Activity),
				},
			})
		}
	}

	rep := w.ticker.Tick(w.store, now)
	for _, err := range rep.Errors {
		w.log.Printf("tick %d: %v", nowTick, err)
	}
	if w.transcript != nil {
		for _, ev := range rep.Events {
			w.transcript.RecordEvent(nowTick, ev)
		}
	}
	entry.Report = rep
	entry.Day, entry.Time = rep.Day, rep.Time

	entry.Forgotten = w.mem.Decay(w.cfg.MemoryDecayRate)
	entry.Digest = w.stateDigest()

	if w.tickLogger != nil {
		if err := w.tickLogger.WriteTick(entry); err != nil {
			w.log.Printf("tick log: %v", err)
		}
	}

	w.broadcastWorldUpdate()
	w.publishMetrics(float64(time.Since(stepStart).Microseconds()) / 1000.0)
	return entry
}
