// Package seed builds the starting world from a YAML document.
package seed

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"htrae.ai/internal/sim/model"
	"htrae.ai/internal/sim/store"
)

//go:embed default_world.yaml
var defaultWorld []byte

// Default returns the embedded default world document.
func Default() []byte { return append([]byte(nil), defaultWorld...) }

type World struct {
	Locations []LocationSeed `yaml:"locations"`
	NPCs      []NPCSeed      `yaml:"npcs"`
	Spectra   SpectraSeed    `yaml:"spectra"`
	State     StateSeed      `yaml:"world"`
}

type LocationSeed struct {
	Key         string             `yaml:"key"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Type        model.LocationType `yaml:"type"`
	Connected   []string           `yaml:"connected"`
	Properties  model.Properties   `yaml:"properties"`
	Weather     *model.Weather     `yaml:"weather"`
}

type NPCSeed struct {
	Key             string            `yaml:"key"`
	Name            string            `yaml:"name"`
	Type            string            `yaml:"type"`
	Location        string            `yaml:"location"`
	Personality     model.Personality `yaml:"personality"`
	CurrentAction   string            `yaml:"current_action"`
	AutonomousLevel int               `yaml:"autonomous_level"`
	Active          *bool             `yaml:"active"` // nil means active
	Relationship    *RelationshipSeed `yaml:"relationship"`
}

type RelationshipSeed struct {
	Label string `yaml:"label"`
	Trust int    `yaml:"trust"`
}

type SpectraSeed struct {
	Name            string     `yaml:"name"`
	Status          string     `yaml:"status"`
	Mood            model.Mood `yaml:"mood"`
	CurrentActivity string     `yaml:"current_activity"`
	Location        string     `yaml:"location"`
	Memories        []string   `yaml:"memories"`
	Goals           []string   `yaml:"goals"`
	Uptime          int        `yaml:"uptime"`
}

type EventSeed struct {
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Timestamp   string `yaml:"timestamp"`
	Impact      string `yaml:"impact"`
}

// Metric defaults for keys the document leaves out. An explicit 0 is kept.
const (
	DefaultPoliticalTension = 30
	DefaultMagicTechBalance = 50
)

type StateSeed struct {
	Day              int                 `yaml:"day"`
	Time             string              `yaml:"time"`
	Events           []EventSeed         `yaml:"events"`
	Economy          model.EconomicState `yaml:"economy"`
	PoliticalTension *float64            `yaml:"political_tension"`
	MagicTechBalance *float64            `yaml:"magic_tech_balance"`
	Active           bool                `yaml:"active"`
}

// Result maps seed keys to the ids assigned in the store.
type Result struct {
	SpectraID    string
	WorldStateID string
	Locations    map[string]string
	NPCs         map[string]string
}

func Parse(raw []byte) (World, error) {
	var w World
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return w, fmt.Errorf("seed: %w", err)
	}
	return w, nil
}

// Load reads a seed file, or the embedded default when path is empty, and
// installs it into st.
func Load(st *store.Store, path string) (Result, error) {
	raw := defaultWorld
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Result{}, err
		}
		raw = b
	}
	w, err := Parse(raw)
	if err != nil {
		return Result{}, err
	}
	return Apply(st, w)
}

// Apply creates every seeded entity, resolves key references and validates the
// resulting graph.
func Apply(st *store.Store, w World) (Result, error) {
	res := Result{Locations: map[string]string{}, NPCs: map[string]string{}}
	if len(w.Locations) == 0 {
		return res, fmt.Errorf("seed: no locations")
	}

	for _, ls := range w.Locations {
		if ls.Key == "" {
			return res, fmt.Errorf("seed: location %q has no key", ls.Name)
		}
		if _, dup := res.Locations[ls.Key]; dup {
			return res, fmt.Errorf("seed: duplicate location key %q", ls.Key)
		}
		switch ls.Type {
		case model.LocationCyberpunk, model.LocationFantasy, model.LocationHybrid, model.LocationIndustrial:
		default:
			return res, fmt.Errorf("seed: location %q: unknown type %q", ls.Key, ls.Type)
		}
		l := st.CreateLocation(model.Location{
			Name:        ls.Name,
			Description: ls.Description,
			Type:        ls.Type,
			Properties:  ls.Properties,
		})
		res.Locations[ls.Key] = l.ID
	}
	for _, ls := range w.Locations {
		id := res.Locations[ls.Key]
		conns := make([]string, 0, len(ls.Connected))
		for _, k := range ls.Connected {
			cid, ok := res.Locations[k]
			if !ok {
				return res, fmt.Errorf("seed: location %q: unknown connection %q", ls.Key, k)
			}
			conns = append(conns, cid)
		}
		if _, err := st.UpdateLocation(id, func(l *model.Location) { l.ConnectedLocations = conns }); err != nil {
			return res, err
		}
	}

	rels := map[string]model.Relationship{}
	for _, ns := range w.NPCs {
		lid, ok := res.Locations[ns.Location]
		if !ok {
			return res, fmt.Errorf("seed: npc %q: unknown location %q", ns.Key, ns.Location)
		}
		if _, dup := res.NPCs[ns.Key]; dup {
			return res, fmt.Errorf("seed: duplicate npc key %q", ns.Key)
		}
		n := st.CreateNPC(model.NPC{
			Name:            ns.Name,
			Type:            ns.Type,
			LocationID:      lid,
			Personality:     ns.Personality,
			CurrentAction:   ns.CurrentAction,
			AutonomousLevel: ns.AutonomousLevel,
			IsActive:        ns.Active == nil || *ns.Active,
		})
		res.NPCs[ns.Key] = n.ID
		if _, err := st.UpdateLocation(lid, func(l *model.Location) { l.NPCs = append(l.NPCs, n.ID) }); err != nil {
			return res, err
		}
		if ns.Relationship != nil {
			rels[n.ID] = model.Relationship{Name: ns.Name, Relationship: ns.Relationship.Label, Trust: ns.Relationship.Trust}
		}
	}

	ss := w.Spectra
	lid, ok := res.Locations[ss.Location]
	if !ok {
		return res, fmt.Errorf("seed: spectra: unknown location %q", ss.Location)
	}
	sp := st.CreateSpectra(model.Spectra{
		Name:            ss.Name,
		Status:          ss.Status,
		Mood:            ss.Mood,
		CurrentActivity: ss.CurrentActivity,
		LocationID:      lid,
		Memories:        ss.Memories,
		Relationships:   rels,
		AutonomousGoals: ss.Goals,
		Uptime:          ss.Uptime,
	})
	res.SpectraID = sp.ID

	if w.State.Time != "" {
		if _, err := model.ParseClock(w.State.Time); err != nil {
			return res, fmt.Errorf("seed: world: %w", err)
		}
	}
	weather := map[string]model.Weather{}
	for _, ls := range w.Locations {
		if ls.Weather != nil {
			weather[res.Locations[ls.Key]] = *ls.Weather
		}
	}
	ws := model.WorldState{
		CurrentDay:        w.State.Day,
		CurrentTime:       w.State.Time,
		WeatherConditions: weather,
		EconomicState:     w.State.Economy,
		PoliticalTension:  orDefault(w.State.PoliticalTension, DefaultPoliticalTension),
		MagicTechBalance:  orDefault(w.State.MagicTechBalance, DefaultMagicTechBalance),
		SimulationActive:  w.State.Active,
	}
	for _, ev := range w.State.Events {
		ws.AddEvent(model.WorldEvent{
			ID:          store.NewID(),
			Type:        ev.Type,
			Description: ev.Description,
			Timestamp:   ev.Timestamp,
			Impact:      ev.Impact,
		})
	}
	res.WorldStateID = st.CreateWorldState(ws).ID

	if err := st.ValidateGraph(); err != nil {
		return res, fmt.Errorf("seed: %w", err)
	}
	return res, nil
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
