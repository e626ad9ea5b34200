// Package world runs the simulation actor. A single goroutine owns the
// world store; sessions, HTTP calls and the tick scheduler all reach it
// through channels.
package world

import (
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"htrae.ai/internal/sim/decision"
	"htrae.ai/internal/sim/memory"
	"htrae.ai/internal/sim/store"
	"htrae.ai/internal/sim/tick"
	"htrae.ai/internal/sim/tuning"
)

type Config struct {
	TickInterval   time.Duration
	AutoStart      bool
	AutoStartDelay time.Duration

	ChatSocialBoost int
	HelpTrustBoost  int
	MessageWindow   int
	SessionQueue    int

	MemoryImportance float64
	MemoryDecayRate  float64
}

func ConfigFromTuning(t tuning.Tuning) Config {
	return Config{
		TickInterval:     t.TickInterval,
		AutoStart:        t.AutoStart,
		AutoStartDelay:   t.AutoStartDelay,
		ChatSocialBoost:  t.ChatSocialBoost,
		HelpTrustBoost:   t.HelpTrustBoost,
		MessageWindow:    t.MessageWindow,
		SessionQueue:     t.SessionQueue,
		MemoryImportance: t.MemoryImportance,
		MemoryDecayRate:  t.MemoryDecayRate,
	}
}

type session struct {
	id       string
	out      chan []byte
	playerID string
}

type World struct {
	cfg Config
	log *log.Logger

	store   *store.Store
	decider *decision.Engine
	ticker  *tick.Engine
	mem     *memory.Store
	now     func() time.Time

	tickLogger  TickLogger
	auditLogger AuditLogger
	transcript  Transcript

	sessions   map[string]*session
	apiPlayers map[string]string // display name -> player id for HTTP chat

	running bool
	manual  bool // a start/stop call pre-empts auto-start
	clock   *time.Ticker

	attach chan AttachRequest
	leave  chan string
	inbox  chan InboundEnvelope
	calls  chan func()
	stop   chan struct{}

	stopOnce sync.Once

	tick          atomic.Uint64
	droppedFrames atomic.Uint64
	metrics       atomic.Value // WorldMetrics
}

// New wires the actor around an already seeded store. lg may be nil.
func New(cfg Config, st *store.Store, dec *decision.Engine, tk *tick.Engine, lg *log.Logger) *World {
	if cfg.MessageWindow <= 0 {
		cfg.MessageWindow = 50
	}
	if cfg.SessionQueue <= 0 {
		cfg.SessionQueue = 8
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 30 * time.Second
	}
	if lg == nil {
		lg = log.New(io.Discard, "", 0)
	}
	w := &World{
		cfg:        cfg,
		log:        lg,
		store:      st,
		decider:    dec,
		ticker:     tk,
		mem:        memory.New(),
		now:        time.Now,
		sessions:   map[string]*session{},
		apiPlayers: map[string]string{},
		attach:     make(chan AttachRequest, 64),
		leave:      make(chan string, 64),
		inbox:      make(chan InboundEnvelope, 256),
		calls:      make(chan func(), 64),
		stop:       make(chan struct{}),
	}
	w.seedMemory()
	w.publishMetrics(0)
	return w
}

func (w *World) SetTickLogger(l TickLogger)   { w.tickLogger = l }
func (w *World) SetAuditLogger(l AuditLogger) { w.auditLogger = l }
func (w *World) SetTranscript(t Transcript)   { w.transcript = t }

// SetClock replaces the wall clock for the world and its store.
func (w *World) SetClock(now func() time.Time) {
	w.now = now
	w.store.SetClock(now)
}

func (w *World) Attach() chan<- AttachRequest  { return w.attach }
func (w *World) Leave() chan<- string          { return w.leave }
func (w *World) Inbox() chan<- InboundEnvelope { return w.inbox }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

// seedMemory turns the seeded Spectra memories into long-term entries.
func (w *World) seedMemory() {
	sp, ok := w.store.Spectra()
	if !ok {
		return
	}
	now := w.now()
	for _, m := range sp.Memories {
		w.mem.Add(m, memory.LongTerm, memory.MaxImportance, now)
	}
}

func sendLatest(ch chan []byte, b []byte) bool {
	select {
	case ch <- b:
		return true
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
	return false
}

func (w *World) send(s *session, b []byte) {
	if s == nil || b == nil {
		return
	}
	if !sendLatest(s.out, b) {
		w.droppedFrames.Add(1)
	}
}
