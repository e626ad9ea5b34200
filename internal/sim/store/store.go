// Package store holds the world graph: the Spectra singleton, locations, NPCs,
// world state, messages and players.
//
// A Store is not safe for concurrent use. The world actor is its only writer.
package store

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"htrae.ai/internal/sim/model"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	now func() time.Time

	spectra *model.Spectra
	world   *model.WorldState

	locations   map[string]*model.Location
	locationIDs []string

	npcs   map[string]*model.NPC
	npcIDs []string

	messages []model.Message

	players map[string]*model.Player
}

func New() *Store {
	return &Store{
		now:       time.Now,
		locations: map[string]*model.Location{},
		npcs:      map[string]*model.NPC{},
		players:   map[string]*model.Player{},
	}
}

// SetClock overrides the timestamp source used for created/updated fields.
func (s *Store) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// NewID returns a fresh entity id.
func NewID() string { return uuid.NewString() }

// ---- Spectra ----

func (s *Store) Spectra() (model.Spectra, bool) {
	if s.spectra == nil {
		return model.Spectra{}, false
	}
	return s.spectra.Clone(), true
}

// CreateSpectra installs the singleton, replacing any previous one. Zero fields
// take their defaults.
func (s *Store) CreateSpectra(sp model.Spectra) model.Spectra {
	now := s.now()
	if sp.ID == "" {
		sp.ID = NewID()
	}
	if sp.Name == "" {
		sp.Name = "Spectra"
	}
	if sp.Status == "" {
		sp.Status = "active"
	}
	if sp.Mood == (model.Mood{}) {
		sp.Mood = model.Mood{Curiosity: 80, Social: 60, Energy: 85}
	}
	sp.Mood = sp.Mood.Clamp()
	if sp.CurrentActivity == "" {
		sp.CurrentActivity = "Exploring"
	}
	if sp.Relationships == nil {
		sp.Relationships = map[string]model.Relationship{}
	}
	if len(sp.Memories) > model.MaxMemories {
		sp.Memories = sp.Memories[len(sp.Memories)-model.MaxMemories:]
	}
	if sp.LastDecision.IsZero() {
		sp.LastDecision = now
	}
	sp.CreatedAt, sp.UpdatedAt = now, now
	c := sp.Clone()
	s.spectra = &c
	return sp.Clone()
}

// UpdateSpectra applies fn to the singleton and re-establishes its invariants.
func (s *Store) UpdateSpectra(id string, fn func(*model.Spectra)) (model.Spectra, error) {
	if s.spectra == nil || s.spectra.ID != id {
		return model.Spectra{}, fmt.Errorf("update spectra %s: %w", id, ErrNotFound)
	}
	fn(s.spectra)
	s.spectra.ID = id
	s.spectra.Mood = s.spectra.Mood.Clamp()
	if over := len(s.spectra.Memories) - model.MaxMemories; over > 0 {
		s.spectra.Memories = append([]string(nil), s.spectra.Memories[over:]...)
	}
	s.spectra.UpdatedAt = s.now()
	return s.spectra.Clone(), nil
}

// ---- Locations ----

func (s *Store) Location(id string) (model.Location, bool) {
	l, ok := s.locations[id]
	if !ok {
		return model.Location{}, false
	}
	return l.Clone(), true
}

// Locations returns every location in insertion order.
func (s *Store) Locations() []model.Location {
	out := make([]model.Location, 0, len(s.locationIDs))
	for _, id := range s.locationIDs {
		out = append(out, s.locations[id].Clone())
	}
	return out
}

func (s *Store) CreateLocation(l model.Location) model.Location {
	now := s.now()
	if l.ID == "" {
		l.ID = NewID()
	}
	if l.Properties == nil {
		l.Properties = model.Properties{}
	}
	l.CreatedAt, l.UpdatedAt = now, now
	c := l.Clone()
	if _, exists := s.locations[l.ID]; !exists {
		s.locationIDs = append(s.locationIDs, l.ID)
	}
	s.locations[l.ID] = &c
	return l.Clone()
}

func (s *Store) UpdateLocation(id string, fn func(*model.Location)) (model.Location, error) {
	l, ok := s.locations[id]
	if !ok {
		return model.Location{}, fmt.Errorf("update location %s: %w", id, ErrNotFound)
	}
	fn(l)
	l.ID = id
	l.UpdatedAt = s.now()
	return l.Clone(), nil
}

// ---- NPCs ----

func (s *Store) NPC(id string) (model.NPC, bool) {
	n, ok := s.npcs[id]
	if !ok {
		return model.NPC{}, false
	}
	return n.Clone(), true
}

// NPCs returns every NPC in insertion order.
func (s *Store) NPCs() []model.NPC {
	out := make([]model.NPC, 0, len(s.npcIDs))
	for _, id := range s.npcIDs {
		out = append(out, s.npcs[id].Clone())
	}
	return out
}

func (s *Store) NPCsByLocation(locationID string) []model.NPC {
	var out []model.NPC
	for _, id := range s.npcIDs {
		if n := s.npcs[id]; n.LocationID == locationID {
			out = append(out, n.Clone())
		}
	}
	return out
}

func (s *Store) CreateNPC(n model.NPC) model.NPC {
	now := s.now()
	if n.ID == "" {
		n.ID = NewID()
	}
	if n.AutonomousLevel == 0 {
		n.AutonomousLevel = 3
	}
	n.AutonomousLevel = model.ClampAutonomy(n.AutonomousLevel)
	if n.LastAction.IsZero() {
		n.LastAction = now
	}
	n.CreatedAt, n.UpdatedAt = now, now
	c := n.Clone()
	if _, exists := s.npcs[n.ID]; !exists {
		s.npcIDs = append(s.npcIDs, n.ID)
	}
	s.npcs[n.ID] = &c
	return n.Clone()
}

func (s *Store) UpdateNPC(id string, fn func(*model.NPC)) (model.NPC, error) {
	n, ok := s.npcs[id]
	if !ok {
		return model.NPC{}, fmt.Errorf("update npc %s: %w", id, ErrNotFound)
	}
	fn(n)
	n.ID = id
	n.AutonomousLevel = model.ClampAutonomy(n.AutonomousLevel)
	n.UpdatedAt = s.now()
	return n.Clone(), nil
}

// ---- World state ----

func (s *Store) WorldState() (model.WorldState, bool) {
	if s.world == nil {
		return model.WorldState{}, false
	}
	return s.world.Clone(), true
}

func (s *Store) CreateWorldState(w model.WorldState) model.WorldState {
	now := s.now()
	if w.ID == "" {
		w.ID = NewID()
	}
	if w.CurrentDay < 1 {
		w.CurrentDay = 1
	}
	if w.CurrentTime == "" {
		w.CurrentTime = "12:00"
	}
	if w.WeatherConditions == nil {
		w.WeatherConditions = map[string]model.Weather{}
	}
	if w.EconomicState == (model.EconomicState{}) {
		w.EconomicState = model.EconomicState{Stability: 75, TradeVolume: 100}
	}
	if len(w.GlobalEvents) > model.MaxGlobalEvents {
		w.GlobalEvents = w.GlobalEvents[len(w.GlobalEvents)-model.MaxGlobalEvents:]
	}
	if w.LastTick.IsZero() {
		w.LastTick = now
	}
	w.UpdatedAt = now
	c := w.Clone()
	s.world = &c
	return w.Clone()
}

func (s *Store) UpdateWorldState(id string, fn func(*model.WorldState)) (model.WorldState, error) {
	if s.world == nil || s.world.ID != id {
		return model.WorldState{}, fmt.Errorf("update world state %s: %w", id, ErrNotFound)
	}
	fn(s.world)
	s.world.ID = id
	if over := len(s.world.GlobalEvents) - model.MaxGlobalEvents; over > 0 {
		s.world.GlobalEvents = append([]model.WorldEvent(nil), s.world.GlobalEvents[over:]...)
	}
	s.world.EconomicState = s.world.EconomicState.Clamp()
	s.world.PoliticalTension = model.ClampUnit(s.world.PoliticalTension)
	s.world.MagicTechBalance = model.ClampUnit(s.world.MagicTechBalance)
	s.world.UpdatedAt = s.now()
	return s.world.Clone(), nil
}

// ---- Messages ----

// Messages returns the newest limit messages in chronological order. A
// non-positive limit uses model.DefaultMessageWindow.
func (s *Store) Messages(limit int) []model.Message {
	if limit <= 0 {
		limit = model.DefaultMessageWindow
	}
	start := len(s.messages) - limit
	if start < 0 {
		start = 0
	}
	out := make([]model.Message, 0, len(s.messages)-start)
	for _, m := range s.messages[start:] {
		out = append(out, m.Clone())
	}
	return out
}

func (s *Store) MessageCount() int { return len(s.messages) }

func (s *Store) CreateMessage(m model.Message) model.Message {
	if m.ID == "" {
		m.ID = NewID()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = s.now()
	}
	if m.MessageType == "" {
		m.MessageType = model.MessageChat
	}
	if m.Metadata == nil {
		m.Metadata = model.Properties{}
	}
	s.messages = append(s.messages, m.Clone())
	return m.Clone()
}

// ---- Players ----

func (s *Store) Player(id string) (model.Player, bool) {
	p, ok := s.players[id]
	if !ok {
		return model.Player{}, false
	}
	return *p, true
}

func (s *Store) CreatePlayer(p model.Player) model.Player {
	now := s.now()
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.Name == "" {
		p.Name = "Player"
	}
	if p.RelationshipWithSpectra == "" {
		p.RelationshipWithSpectra = "curious"
	}
	p.InfluenceLevel = model.ClampInfluence(p.InfluenceLevel)
	if p.LastSeen.IsZero() {
		p.LastSeen = now
	}
	p.CreatedAt, p.UpdatedAt = now, now
	c := p
	s.players[p.ID] = &c
	return p
}

// Players returns every player ordered by creation time.
func (s *Store) Players() []model.Player {
	out := make([]model.Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) UpdatePlayer(id string, fn func(*model.Player)) (model.Player, error) {
	p, ok := s.players[id]
	if !ok {
		return model.Player{}, fmt.Errorf("update player %s: %w", id, ErrNotFound)
	}
	fn(p)
	p.ID = id
	p.InfluenceLevel = model.ClampInfluence(p.InfluenceLevel)
	p.UpdatedAt = s.now()
	return *p, nil
}

// ValidateGraph checks that location links are symmetric and point at known
// locations, and that every NPC sits at a known location.
func (s *Store) ValidateGraph() error {
	var errs []error
	for _, id := range s.locationIDs {
		l := s.locations[id]
		for _, c := range l.ConnectedLocations {
			other, ok := s.locations[c]
			switch {
			case c == id:
				errs = append(errs, fmt.Errorf("location %s: connected to itself", id))
			case !ok:
				errs = append(errs, fmt.Errorf("location %s: dangling connection %s", id, c))
			case !other.IsConnectedTo(id):
				errs = append(errs, fmt.Errorf("location %s: connection to %s is not reciprocated", id, c))
			}
		}
		for _, n := range l.NPCs {
			if _, ok := s.npcs[n]; !ok {
				errs = append(errs, fmt.Errorf("location %s: unknown npc %s", id, n))
			}
		}
	}
	for _, id := range s.npcIDs {
		n := s.npcs[id]
		if _, ok := s.locations[n.LocationID]; !ok {
			errs = append(errs, fmt.Errorf("npc %s: unknown location %s", id, n.LocationID))
		}
	}
	if s.spectra != nil && s.spectra.LocationID != "" {
		if _, ok := s.locations[s.spectra.LocationID]; !ok {
			errs = append(errs, fmt.Errorf("spectra: unknown location %s", s.spectra.LocationID))
		}
	}
	return errors.Join(errs...)
}
