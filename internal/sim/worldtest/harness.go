// Package worldtest drives a seeded world through its exported API for
// multi-tick scenario tests.
package worldtest

import (
	"math/rand/v2"
	"testing"
	"time"

	"htrae.ai/internal/sim/decision"
	"htrae.ai/internal/sim/model"
	"htrae.ai/internal/sim/seed"
	"htrae.ai/internal/sim/store"
	"htrae.ai/internal/sim/tick"
	"htrae.ai/internal/sim/tuning"
	world "htrae.ai/internal/sim/world"
)

type Options struct {
	RNGSeed uint64
	// Start is the wall clock at the first step.
	Start time.Time
	// Step advances the wall clock between ticks. Zero uses the tuning interval.
	Step   time.Duration
	Tuning *tuning.Tuning
}

// Harness steps the world synchronously with StepOnce; the actor loop is never
// started. It records everything the world reports through its logger and
// transcript hooks:
//   - Ticks holds every journal entry in order
//   - Messages and Events mirror what the transcript index would store
type Harness struct {
	T *testing.T
	W *world.World

	Ticks    []world.TickLogEntry
	Messages []model.Message
	Events   []model.WorldEvent
	Audits   []world.AuditEntry

	now  time.Time
	step time.Duration
}

func NewHarness(t *testing.T, opts Options) *Harness {
	t.Helper()

	tune := tuning.Defaults()
	if opts.Tuning != nil {
		tune = *opts.Tuning
	}
	if opts.Start.IsZero() {
		opts.Start = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	}
	if opts.Step <= 0 {
		opts.Step = tune.TickInterval
	}

	st := store.New()
	if _, err := seed.Load(st, ""); err != nil {
		t.Fatalf("seed: %v", err)
	}
	cfg := world.ConfigFromTuning(tune)
	cfg.AutoStart = false
	dec := decision.New(rand.New(rand.NewPCG(opts.RNGSeed, 1)), decision.Options{AutonomousMessageChance: tune.AutonomousMessageChance})
	tk := tick.New(rand.New(rand.NewPCG(opts.RNGSeed, 2)), tune.World, nil)

	h := &Harness{T: t, now: opts.Start, step: opts.Step}
	h.W = world.New(cfg, st, dec, tk, nil)
	h.W.SetClock(func() time.Time { return h.now })
	h.W.SetTickLogger(h)
	h.W.SetAuditLogger(h)
	h.W.SetTranscript(h)
	return h
}

func (h *Harness) WriteTick(e world.TickLogEntry) error {
	h.Ticks = append(h.Ticks, e)
	return nil
}

func (h *Harness) WriteAudit(e world.AuditEntry) error {
	h.Audits = append(h.Audits, e)
	return nil
}

func (h *Harness) RecordMessage(m model.Message) { h.Messages = append(h.Messages, m) }

func (h *Harness) RecordEvent(_ uint64, ev model.WorldEvent) { h.Events = append(h.Events, ev) }

// Now is the wall clock the world currently sees.
func (h *Harness) Now() time.Time { return h.now }

// Step advances the wall clock and runs one tick.
func (h *Harness) Step() world.TickLogEntry {
	h.T.Helper()
	h.now = h.now.Add(h.step)
	return h.W.StepOnce()
}

func (h *Harness) StepN(n int) []world.TickLogEntry {
	h.T.Helper()
	out := make([]world.TickLogEntry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, h.Step())
	}
	return out
}

// Autonomous returns the recorded messages Spectra volunteered on her own.
func (h *Harness) Autonomous() []model.Message {
	var out []model.Message
	for _, m := range h.Messages {
		if v, ok := m.Metadata["autonomous"].AsBool(); ok && v {
			out = append(out, m)
		}
	}
	return out
}
