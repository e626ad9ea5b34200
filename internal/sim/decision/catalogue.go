package decision

import (
	"strings"

	"htrae.ai/internal/sim/model"
)

type Action string

const (
	Explore     Action = "explore"
	Socialize   Action = "socialize"
	Reflect     Action = "reflect"
	Learn       Action = "learn"
	Investigate Action = "investigate"
	Create      Action = "create"
	Meditate    Action = "meditate"
	Adventure   Action = "adventure"
	Trade       Action = "trade"
	Study       Action = "study"
	Help        Action = "help"
	Contemplate Action = "contemplate"
)

// Catalogue is the candidate order used by Select. Reordering it changes
// which action wins on boundaries.
var Catalogue = []Action{
	Explore, Socialize, Reflect, Learn, Investigate, Create,
	Meditate, Adventure, Trade, Study, Help, Contemplate,
}

type Candidate struct {
	Action Action
	Weight float64
}

// Input is the context a decision is made in. Location is nil when Spectra
// stands somewhere unknown to the store.
type Input struct {
	Spectra   model.Spectra
	Location  *model.Location
	Neighbors []model.Location
	NPCs      []model.NPC
	Hour      int
}

func pick(cond bool, yes, no float64) float64 {
	if cond {
		return yes
	}
	return no
}

// Weights evaluates every catalogue entry for in, in catalogue order.
func Weights(in Input) []Candidate {
	cur := float64(in.Spectra.Mood.Curiosity)
	soc := float64(in.Spectra.Mood.Social)
	en := float64(in.Spectra.Mood.Energy)

	var typ model.LocationType
	var name string
	if in.Location != nil {
		typ, name = in.Location.Type, in.Location.Name
	}
	hasNPCs := len(in.NPCs) > 0
	night := in.Hour > 22 || in.Hour < 6

	w := map[Action]float64{
		Explore:     cur * pick(typ == model.LocationFantasy, 1.5, 1.0),
		Socialize:   soc * pick(hasNPCs, 2.0, 0.3),
		Reflect:     (100 - en) * pick(night, 1.8, 1.0),
		Learn:       (cur + en) / 2 * pick(typ == model.LocationHybrid, 1.3, 1.0),
		Investigate: cur * 0.8 * pick(typ == model.LocationCyberpunk, 1.4, 1.0),
		Create:      (en + cur) / 2 * 0.7,
		Meditate:    (100 - en + cur) / 2 * 0.6,
		Adventure:   (en + cur) / 2 * 0.9,
		Trade:       soc * 0.6 * pick(strings.Contains(name, "Market"), 2.0, 0.5),
		Study:       cur * 0.8,
		Help:        soc * pick(hasNPCs, 1.5, 0.5),
		Contemplate: (cur + (100 - soc)) / 2,
	}
	out := make([]Candidate, len(Catalogue))
	for i, a := range Catalogue {
		out[i] = Candidate{Action: a, Weight: w[a]}
	}
	return out
}

// Total sums the positive weights.
func Total(cands []Candidate) float64 {
	var sum float64
	for _, c := range cands {
		if c.Weight > 0 {
			sum += c.Weight
		}
	}
	return sum
}

// Select walks cands in order, subtracting each weight from r, and returns
// the candidate that brings the remainder to zero or below, for r in
// [0, Total(cands)). A boundary r goes to the earlier candidate. Non-positive
// weights never win. A degenerate table selects Explore; an r at or past the
// total selects the last positively weighted candidate.
func Select(cands []Candidate, r float64) Action {
	var cum float64
	last := Action("")
	for _, c := range cands {
		if c.Weight <= 0 {
			continue
		}
		cum += c.Weight
		last = c.Action
		if cum >= r {
			return c.Action
		}
	}
	if last == "" {
		return Explore
	}
	return last
}
