package model

import "time"

type LocationType string

const (
	LocationCyberpunk  LocationType = "cyberpunk"
	LocationFantasy    LocationType = "fantasy"
	LocationHybrid     LocationType = "hybrid"
	LocationIndustrial LocationType = "industrial"
)

type Location struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	Description        string       `json:"description"`
	Type               LocationType `json:"type"`
	ConnectedLocations []string     `json:"connectedLocations"`
	NPCs               []string     `json:"npcs"`
	Properties         Properties   `json:"properties"`
	CreatedAt          time.Time    `json:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt"`
}

func (l Location) Clone() Location {
	out := l
	out.ConnectedLocations = append([]string(nil), l.ConnectedLocations...)
	out.NPCs = append([]string(nil), l.NPCs...)
	out.Properties = l.Properties.Clone()
	return out
}

// IsConnectedTo reports whether id is a direct neighbour.
func (l Location) IsConnectedTo(id string) bool {
	for _, c := range l.ConnectedLocations {
		if c == id {
			return true
		}
	}
	return false
}

type Personality struct {
	Traits                []string `json:"traits" yaml:"traits"`
	Goals                 []string `json:"goals" yaml:"goals"`
	RelationshipToSpectra string   `json:"relationshipToSpectra" yaml:"relationship_to_spectra"`
}

const (
	MinAutonomousLevel = 1
	MaxAutonomousLevel = 5
)

type NPC struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Type            string      `json:"type"` // dragon, human, elf, cyborg, alien, dwarf, ...
	LocationID      string      `json:"locationId"`
	Personality     Personality `json:"personality"`
	CurrentAction   string      `json:"currentAction"`
	LastAction      time.Time   `json:"lastAction"`
	AutonomousLevel int         `json:"autonomousLevel"`
	IsActive        bool        `json:"isActive"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

func (n NPC) Clone() NPC {
	out := n
	out.Personality.Traits = append([]string(nil), n.Personality.Traits...)
	out.Personality.Goals = append([]string(nil), n.Personality.Goals...)
	return out
}

// ClampAutonomy keeps AutonomousLevel within [1,5].
func ClampAutonomy(level int) int {
	return clampInt(level, MinAutonomousLevel, MaxAutonomousLevel)
}
