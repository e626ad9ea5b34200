package decision

import (
	"math"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"htrae.ai/internal/sim/model"
)

func testEngine(seed uint64, chance float64) *Engine {
	return New(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), Options{AutonomousMessageChance: chance})
}

func TestSelectBoundaries(t *testing.T) {
	abc := func(a, b, c float64) []Candidate {
		return []Candidate{{"A", a}, {"B", b}, {"C", c}}
	}
	for _, r := range []float64{0, 0.5, 5, 9.999999} {
		if got := Select(abc(10, 0, 0), r); got != "A" {
			t.Fatalf("[10,0,0] r=%v: got %s", r, got)
		}
		if got := Select(abc(0, 10, 0), r); got != "B" {
			t.Fatalf("[0,10,0] r=%v: got %s", r, got)
		}
	}
	if got := Select(abc(5, 5, 0), 5); got != "A" {
		t.Fatalf("r on the A/B boundary should go to A, got %s", got)
	}
	if got := Select(abc(5, 5, 0), 5.000001); got != "B" {
		t.Fatalf("r just past the A/B boundary should go to B, got %s", got)
	}
	if got := Select(abc(0, 5, 5), 5); got != "B" {
		t.Fatalf("zero-weight A must not take the B/C boundary, got %s", got)
	}
}

func TestSelectDegenerate(t *testing.T) {
	if got := Select(nil, 0); got != Explore {
		t.Fatalf("empty table: got %s", got)
	}
	if got := Select([]Candidate{{"A", 0}, {"B", -3}}, 0); got != Explore {
		t.Fatalf("zero table: got %s", got)
	}
	if got := Select([]Candidate{{"A", 1}, {"B", 2}, {"C", 0}}, 3); got != "B" {
		t.Fatalf("overflow should pick last positive candidate, got %s", got)
	}
}

func TestWeightsFollowCatalogueOrder(t *testing.T) {
	cands := Weights(Input{Spectra: model.Spectra{Mood: model.Mood{Curiosity: 50, Social: 50, Energy: 50}}})
	if len(cands) != len(Catalogue) {
		t.Fatalf("len=%d", len(cands))
	}
	for i, c := range cands {
		if c.Action != Catalogue[i] {
			t.Fatalf("position %d: %s want %s", i, c.Action, Catalogue[i])
		}
	}
}

func TestWeightsContext(t *testing.T) {
	sp := model.Spectra{Mood: model.Mood{Curiosity: 90, Social: 10, Energy: 50}}
	loc := &model.Location{Type: model.LocationCyberpunk, Name: "Neon District"}
	w := map[Action]float64{}
	for _, c := range Weights(Input{Spectra: sp, Location: loc, Hour: 12}) {
		w[c.Action] = c.Weight
	}
	if !approx(w[Explore], 90) {
		t.Fatalf("explore=%v", w[Explore])
	}
	if !approx(w[Socialize], 3) {
		t.Fatalf("socialize=%v", w[Socialize])
	}
	if !approx(w[Trade], 3) {
		t.Fatalf("trade=%v want 10*0.6*0.5", w[Trade])
	}

	market := &model.Location{Type: model.LocationFantasy, Name: "Night Market"}
	w = map[Action]float64{}
	for _, c := range Weights(Input{Spectra: sp, Location: market, Hour: 23}) {
		w[c.Action] = c.Weight
	}
	if !approx(w[Explore], 135) || !approx(w[Trade], 12) || !approx(w[Reflect], 90) {
		t.Fatalf("fantasy market at night: explore=%v trade=%v reflect=%v", w[Explore], w[Trade], w[Reflect])
	}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCyberpunkWithoutNPCsPrefersExplore(t *testing.T) {
	e := testEngine(7, 0)
	in := Input{
		Spectra:  model.Spectra{Mood: model.Mood{Curiosity: 90, Social: 10, Energy: 50}},
		Location: &model.Location{Type: model.LocationCyberpunk, Name: "Neon District"},
		Hour:     12,
	}
	counts := map[Action]int{}
	for i := 0; i < 5000; i++ {
		counts[e.Decide(in).Action]++
	}
	if counts[Explore] <= counts[Socialize] {
		t.Fatalf("explore=%d socialize=%d", counts[Explore], counts[Socialize])
	}
	if counts[Socialize]*5 > counts[Explore] {
		t.Fatalf("socialize not suppressed: explore=%d socialize=%d", counts[Explore], counts[Socialize])
	}
}

func TestAdventureMovesToNeighbor(t *testing.T) {
	e := testEngine(1, 0)
	in := Input{
		Spectra:   model.Spectra{LocationID: "here", Mood: model.Mood{Curiosity: 50, Social: 50, Energy: 50}},
		Location:  &model.Location{ID: "here", ConnectedLocations: []string{"x", "y"}},
		Neighbors: []model.Location{{ID: "x", Name: "X"}, {ID: "y", Name: "Y"}},
	}
	for i := 0; i < 50; i++ {
		out := e.Execute(Adventure, in)
		sp := in.Spectra.Clone()
		Apply(&sp, out, time.Now(), 0)
		if sp.LocationID != "x" && sp.LocationID != "y" {
			t.Fatalf("moved to %q", sp.LocationID)
		}
		if !strings.HasPrefix(sp.CurrentActivity, "Embarking on an adventure to ") {
			t.Fatalf("activity=%q", sp.CurrentActivity)
		}
	}
}

func TestAdventureWithoutConnectionsPlans(t *testing.T) {
	e := testEngine(1, 0)
	in := Input{
		Spectra:  model.Spectra{LocationID: "here", Mood: model.Mood{Curiosity: 50, Social: 50, Energy: 50}},
		Location: &model.Location{ID: "here"},
	}
	sp := in.Spectra.Clone()
	Apply(&sp, e.Execute(Adventure, in), time.Now(), 0)
	if sp.LocationID != "here" || sp.CurrentActivity != PlanningActivity {
		t.Fatalf("location=%q activity=%q", sp.LocationID, sp.CurrentActivity)
	}
	if sp.Mood != in.Spectra.Mood {
		t.Fatalf("planning should not change mood: %+v", sp.Mood)
	}
}

func TestRepeatedDecisionsKeepInvariants(t *testing.T) {
	e := testEngine(42, 0.15)
	sp := model.Spectra{
		LocationID:    "a",
		Mood:          model.Mood{Curiosity: 100, Social: 0, Energy: 100},
		Relationships: map[string]model.Relationship{"n": {Name: "N", Trust: 99}},
	}
	locs := map[string]model.Location{
		"a": {ID: "a", Name: "A Market", Type: model.LocationCyberpunk, ConnectedLocations: []string{"b"}},
		"b": {ID: "b", Name: "B", Type: model.LocationFantasy, ConnectedLocations: []string{"a"}},
	}
	npcs := []model.NPC{{ID: "n", Name: "N", LocationID: "a"}}
	start := sp.Uptime
	for i := 0; i < 2000; i++ {
		loc := locs[sp.LocationID]
		in := Input{Spectra: sp, Location: &loc, Hour: i % 24}
		for _, c := range loc.ConnectedLocations {
			in.Neighbors = append(in.Neighbors, locs[c])
		}
		if sp.LocationID == "a" {
			in.NPCs = npcs
		}
		Apply(&sp, e.Decide(in), time.Now(), 2)

		m := sp.Mood
		if m.Curiosity < 0 || m.Curiosity > 100 || m.Social < 0 || m.Social > 100 || m.Energy < 0 || m.Energy > 100 {
			t.Fatalf("step %d: mood out of range %+v", i, m)
		}
		if len(sp.Memories) > model.MaxMemories {
			t.Fatalf("step %d: %d memories", i, len(sp.Memories))
		}
		if tr := sp.Relationships["n"].Trust; tr < 0 || tr > 100 {
			t.Fatalf("step %d: trust %d", i, tr)
		}
	}
	if sp.Uptime != start+2000 {
		t.Fatalf("uptime=%d", sp.Uptime)
	}
}

func TestHelpRaisesTrust(t *testing.T) {
	e := testEngine(3, 0)
	sp := model.Spectra{Relationships: map[string]model.Relationship{"n": {Name: "N", Trust: 40}}}
	in := Input{Spectra: sp, NPCs: []model.NPC{{ID: "n", Name: "N"}}}
	out := e.Execute(Help, in)
	Apply(&sp, out, time.Now(), 2)
	if sp.Relationships["n"].Trust != 42 {
		t.Fatalf("trust=%d", sp.Relationships["n"].Trust)
	}
	if len(sp.Memories) != 1 || !strings.HasPrefix(sp.Memories[0], "Helped N") {
		t.Fatalf("memories=%v", sp.Memories)
	}
}

func TestAutonomousMessageAlwaysWhenChanceIsOne(t *testing.T) {
	e := testEngine(9, 1)
	out := e.Decide(Input{Spectra: model.Spectra{Mood: model.Mood{Curiosity: 50, Social: 50, Energy: 50}}})
	if out.AutonomousMessage == "" {
		t.Fatalf("expected an autonomous message")
	}
	if e := testEngine(9, 0); e.Decide(Input{}).AutonomousMessage != "" {
		t.Fatalf("chance 0 should never talk")
	}
}
