// Package tick advances the world by one step: clock, weather, NPC
// micro-actions and macro metrics.
package tick

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"htrae.ai/internal/sim/model"
	"htrae.ai/internal/sim/store"
	"htrae.ai/internal/sim/tuning"
)

// ErrNoWorld is reported when the world state singleton does not exist yet.
var ErrNoWorld = errors.New("world state missing")

// Store is the part of the world graph the tick engine touches.
type Store interface {
	WorldState() (model.WorldState, bool)
	UpdateWorldState(id string, fn func(*model.WorldState)) (model.WorldState, error)
	Locations() []model.Location
	Location(id string) (model.Location, bool)
	NPCs() []model.NPC
	UpdateNPC(id string, fn func(*model.NPC)) (model.NPC, error)
}

// IDSource mints world event ids.
type IDSource func() string

type Engine struct {
	rng   *rand.Rand
	p     tuning.WorldChances
	newID IDSource
}

func New(rng *rand.Rand, p tuning.WorldChances, newID IDSource) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if newID == nil {
		newID = store.NewID
	}
	return &Engine{rng: rng, p: p, newID: newID}
}

type NPCAction struct {
	NPCID  string `json:"npc_id"`
	Action string `json:"action"`
}

// Report summarises one tick.
type Report struct {
	Aborted bool `json:"aborted,omitempty"`

	Day       int    `json:"day"`
	Time      string `json:"time"`
	DayRolled bool   `json:"day_rolled,omitempty"`

	WeatherChanged []string           `json:"weather_changed,omitempty"`
	NPCActions     []NPCAction        `json:"npc_actions,omitempty"`
	Events         []model.WorldEvent `json:"events,omitempty"`
	MetricsChanged bool               `json:"metrics_changed,omitempty"`

	Errors []error `json:"-"`
}

func (r *Report) fail(step string, err error) {
	r.Errors = append(r.Errors, fmt.Errorf("%s: %w", step, err))
}

// Tick runs every sub-step against st. A missing world state aborts the tick;
// any other failure is recorded on the report and the remaining sub-steps still
// run.
func (e *Engine) Tick(st Store, now time.Time) Report {
	var r Report
	if _, ok := st.WorldState(); !ok {
		r.Aborted = true
		r.fail("tick", ErrNoWorld)
		return r
	}
	if err := e.advanceClock(st, now, &r); err != nil {
		r.fail("clock", err)
	}
	if err := e.updateWeather(st, &r); err != nil {
		r.fail("weather", err)
	}
	if err := e.updateNPCs(st, now, &r); err != nil {
		r.fail("npcs", err)
	}
	if err := e.updateMetrics(st, &r); err != nil {
		r.fail("metrics", err)
	}
	return r
}

func (e *Engine) advanceClock(st Store, now time.Time, r *Report) error {
	ws, ok := st.WorldState()
	if !ok {
		return ErrNoWorld
	}
	c, err := model.ParseClock(ws.CurrentTime)
	if err != nil {
		return err
	}
	next, rolled := c.Advance()
	day := ws.CurrentDay
	if rolled {
		day++
	}
	_, err = st.UpdateWorldState(ws.ID, func(w *model.WorldState) {
		w.CurrentTime = next.String()
		w.CurrentDay = day
		w.LastTick = now
	})
	if err != nil {
		return err
	}
	r.Day, r.Time, r.DayRolled = day, next.String(), rolled
	return nil
}

func (e *Engine) updateWeather(st Store, r *Report) error {
	if e.rng.Float64() >= e.p.Weather {
		return nil
	}
	ws, ok := st.WorldState()
	if !ok {
		return ErrNoWorld
	}
	next := make(map[string]model.Weather, len(ws.WeatherConditions))
	for k, v := range ws.WeatherConditions {
		next[k] = v
	}
	var changed []string
	for _, loc := range st.Locations() {
		if e.rng.Float64() >= e.p.WeatherLocation {
			continue
		}
		palette := weatherPalette(loc.Type)
		next[loc.ID] = model.Weather{
			Condition: palette[e.rng.IntN(len(palette))],
			Intensity: e.rng.IntN(model.MaxWeatherIntensity) + 1,
		}
		changed = append(changed, loc.ID)
	}
	if _, err := st.UpdateWorldState(ws.ID, func(w *model.WorldState) { w.WeatherConditions = next }); err != nil {
		return err
	}
	r.WeatherChanged = changed
	return nil
}

func (e *Engine) updateNPCs(st Store, now time.Time, r *Report) error {
	var errs []error
	for _, npc := range st.NPCs() {
		if !npc.IsActive {
			continue
		}
		if e.rng.Float64() >= float64(npc.AutonomousLevel)*e.p.NPCActionScale {
			continue
		}
		if _, ok := st.Location(npc.LocationID); !ok {
			continue
		}
		actions := npcActions(npc.Type)
		action := actions[e.rng.IntN(len(actions))]
		if _, err := st.UpdateNPC(npc.ID, func(n *model.NPC) {
			n.CurrentAction = action
			n.LastAction = now
		}); err != nil {
			errs = append(errs, err)
			continue
		}
		r.NPCActions = append(r.NPCActions, NPCAction{NPCID: npc.ID, Action: action})

		if e.rng.Float64() < e.p.NPCEvent {
			desc := npc.Name + " " + cases.Lower(language.English).String(action)
			ev, err := e.CreateWorldEvent(st, "npc_action", desc, "minor", now)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			r.Events = append(r.Events, ev)
		}
	}
	return errors.Join(errs...)
}

// nudge returns v moved by a uniform amount in [-span/2, span/2), clamped to [0,max].
func (e *Engine) nudge(v, span, max float64) float64 {
	v += (e.rng.Float64() - 0.5) * span
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

func (e *Engine) updateMetrics(st Store, r *Report) error {
	ws, ok := st.WorldState()
	if !ok {
		return ErrNoWorld
	}
	econ := ws.EconomicState
	tension := ws.PoliticalTension
	balance := ws.MagicTechBalance

	if e.rng.Float64() < e.p.Economy {
		econ.Stability = e.nudge(econ.Stability, 10, 100)
		econ.TradeVolume = e.nudge(econ.TradeVolume, 20, model.MaxTradeVolume)
	}
	if e.rng.Float64() < e.p.Tension {
		tension = e.nudge(tension, 20, 100)
	}
	if e.rng.Float64() < e.p.Balance {
		balance = e.nudge(balance, 10, 100)
	}
	if econ == ws.EconomicState && tension == ws.PoliticalTension && balance == ws.MagicTechBalance {
		return nil
	}
	if _, err := st.UpdateWorldState(ws.ID, func(w *model.WorldState) {
		w.EconomicState = econ
		w.PoliticalTension = tension
		w.MagicTechBalance = balance
	}); err != nil {
		return err
	}
	r.MetricsChanged = true
	return nil
}

// CreateWorldEvent appends an event stamped with the wall-clock "HH:MM" of now.
// The event list keeps only the newest model.MaxGlobalEvents entries.
func (e *Engine) CreateWorldEvent(st Store, typ, description, impact string, now time.Time) (model.WorldEvent, error) {
	ws, ok := st.WorldState()
	if !ok {
		return model.WorldEvent{}, ErrNoWorld
	}
	ev := model.WorldEvent{
		ID:          e.newID(),
		Type:        typ,
		Description: description,
		Timestamp:   now.Format("15:04"),
		Impact:      impact,
	}
	if _, err := st.UpdateWorldState(ws.ID, func(w *model.WorldState) { w.AddEvent(ev) }); err != nil {
		return model.WorldEvent{}, err
	}
	return ev, nil
}
