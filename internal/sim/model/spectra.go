package model

import "time"

const (
	MoodMin = 0
	MoodMax = 100

	// MaxMemories bounds Spectra.Memories; the oldest entry is evicted first.
	MaxMemories = 20
)

type Mood struct {
	Curiosity int `json:"curiosity" yaml:"curiosity"`
	Social    int `json:"social" yaml:"social"`
	Energy    int `json:"energy" yaml:"energy"`
}

// MoodDelta is applied field-wise and the result clamped to [0,100].
type MoodDelta struct {
	Curiosity int
	Social    int
	Energy    int
}

func (m Mood) Clamp() Mood {
	return Mood{
		Curiosity: clampInt(m.Curiosity, MoodMin, MoodMax),
		Social:    clampInt(m.Social, MoodMin, MoodMax),
		Energy:    clampInt(m.Energy, MoodMin, MoodMax),
	}
}

func (m Mood) Apply(d MoodDelta) Mood {
	return Mood{
		Curiosity: m.Curiosity + d.Curiosity,
		Social:    m.Social + d.Social,
		Energy:    m.Energy + d.Energy,
	}.Clamp()
}

type Relationship struct {
	Name         string `json:"name" yaml:"name"`
	Relationship string `json:"relationship" yaml:"relationship"`
	Trust        int    `json:"trust" yaml:"trust"`
}

type Spectra struct {
	ID              string                  `json:"id"`
	Name            string                  `json:"name"`
	Status          string                  `json:"status"`
	Mood            Mood                    `json:"mood"`
	CurrentActivity string                  `json:"currentActivity"`
	LocationID      string                  `json:"locationId"`
	Memories        []string                `json:"memories"`
	Relationships   map[string]Relationship `json:"relationships"`
	AutonomousGoals []string                `json:"autonomousGoals"`
	LastDecision    time.Time               `json:"lastDecision"`
	Uptime          int                     `json:"uptime"`
	CreatedAt       time.Time               `json:"createdAt"`
	UpdatedAt       time.Time               `json:"updatedAt"`
}

// Remember appends a memory, evicting the oldest entries beyond MaxMemories.
func (s *Spectra) Remember(text string) {
	s.Memories = append(s.Memories, text)
	if over := len(s.Memories) - MaxMemories; over > 0 {
		s.Memories = append([]string(nil), s.Memories[over:]...)
	}
}

// AdjustTrust nudges the trust of an existing relationship. Unknown ids are ignored.
func (s *Spectra) AdjustTrust(npcID string, delta int) bool {
	rel, ok := s.Relationships[npcID]
	if !ok {
		return false
	}
	rel.Trust = clampInt(rel.Trust+delta, 0, 100)
	s.Relationships[npcID] = rel
	return true
}

func (s Spectra) Clone() Spectra {
	out := s
	out.Memories = append([]string(nil), s.Memories...)
	out.AutonomousGoals = append([]string(nil), s.AutonomousGoals...)
	if s.Relationships != nil {
		out.Relationships = make(map[string]Relationship, len(s.Relationships))
		for k, v := range s.Relationships {
			out.Relationships[k] = v
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
