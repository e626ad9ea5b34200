package world

import (
	"context"
	"time"

	"htrae.ai/internal/sim/model"
)

// Run owns the store until ctx is cancelled or Stop is called. Ticks that
// fire while a step is running are coalesced by the ticker, never queued.
func (w *World) Run(ctx context.Context) error {
	defer w.stopClock()

	var autoStart <-chan time.Time
	if w.cfg.AutoStart {
		t := time.NewTimer(w.cfg.AutoStartDelay)
		defer t.Stop()
		autoStart = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.attach:
			w.handleAttach(req)
		case id := <-w.leave:
			w.handleLeave(id)
		case env := <-w.inbox:
			w.handleInbound(env)
		case fn := <-w.calls:
			fn()
		case <-autoStart:
			autoStart = nil
			if !w.running && !w.manual {
				w.log.Printf("auto-starting simulation every %s", w.cfg.TickInterval)
				w.startSimulation("auto")
			}
		case <-w.clockC():
			w.stepInternal()
		}
	}
}

// Stop ends Run. It is safe to call more than once.
func (w *World) Stop() { w.stopOnce.Do(func() { close(w.stop) }) }

func (w *World) clockC() <-chan time.Time {
	if w.clock == nil {
		return nil
	}
	return w.clock.C
}

func (w *World) stopClock() {
	if w.clock != nil {
		w.clock.Stop()
		w.clock = nil
	}
}

// startSimulation (re)arms the tick scheduler and marks the world active.
func (w *World) startSimulation(by string) {
	w.stopClock()
	w.clock = time.NewTicker(w.cfg.TickInterval)
	w.running = true
	w.setActive(true)
	w.audit(AuditEntry{Action: "START", Detail: by})
	w.publishMetrics(0)
}

func (w *World) stopSimulation(by string) {
	w.stopClock()
	w.running = false
	w.setActive(false)
	w.audit(AuditEntry{Action: "STOP", Detail: by})
	w.publishMetrics(0)
}

func (w *World) setActive(active bool) {
	ws, ok := w.store.WorldState()
	if !ok {
		return
	}
	if _, err := w.store.UpdateWorldState(ws.ID, func(s *model.WorldState) { s.SimulationActive = active }); err != nil {
		w.log.Printf("set simulation active=%v: %v", active, err)
	}
}
