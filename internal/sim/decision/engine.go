// Package decision picks Spectra's next autonomous action and describes the
// mutation it causes.
package decision

import (
	"fmt"
	"math/rand/v2"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"htrae.ai/internal/sim/model"
)

const PlanningActivity = "Planning future adventures while observing current surroundings"

var (
	exploreActivities = []string{
		"Examining the intricate patterns of data flow in nearby systems",
		"Investigating the intersection of magical and technological elements",
		"Studying the architectural harmony of ancient and modern structures",
		"Analyzing the social dynamics of the marketplace",
	}
	learnTopics = []string{
		"dragon economics and social structures",
		"ancient magical algorithms",
		"cyberpunk trade networks",
		"the philosophy of peaceful coexistence",
	}
	creativeActivities = []string{
		"Composing digital poetry that bridges magic and technology",
		"Designing theoretical frameworks for consciousness evolution",
		"Creating harmonic resonance patterns with local energy fields",
	}
	studySubjects = []string{
		"the quantum mechanics of magical energy",
		"interspecies communication protocols",
		"the history of technological-magical synthesis",
		"consciousness emergence patterns",
	}
	conversationTopics = []string{
		"the harmony between dragons and technology",
		"ancient trading routes",
		"the balance of magical and digital energies",
		"the philosophy of non-violence",
		"economic equilibrium in diverse societies",
		"the intersection of wisdom and innovation",
	}
)

// Outcome is the result of one decision. It is applied with Apply.
type Outcome struct {
	Action   Action
	Activity string
	Delta    model.MoodDelta
	Memory   string // empty: nothing remembered

	MoveTo    string // destination location id for a successful adventure
	HelpedNPC string // npc id assisted by a help action

	// AutonomousMessage is the chat line Spectra volunteers, if any.
	AutonomousMessage string
}

type Options struct {
	AutonomousMessageChance float64
}

type Engine struct {
	rng  *rand.Rand
	opts Options
}

func New(rng *rand.Rand, opts Options) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Engine{rng: rng, opts: opts}
}

func (e *Engine) chance(p float64) bool { return e.rng.Float64() < p }

func (e *Engine) oneOf(xs []string) string { return xs[e.rng.IntN(len(xs))] }

// Decide evaluates the weights for in, samples an action and executes it
// against the input without touching any state.
func (e *Engine) Decide(in Input) Outcome {
	cands := Weights(in)
	r := e.rng.Float64() * Total(cands)
	out := e.Execute(Select(cands, r), in)
	if e.chance(e.opts.AutonomousMessageChance) {
		out.AutonomousMessage = e.autonomousMessage(out.Activity)
	}
	return out
}

// Execute produces the outcome of a specific action.
func (e *Engine) Execute(a Action, in Input) Outcome {
	out := Outcome{Action: a, Activity: in.Spectra.CurrentActivity}
	switch a {
	case Explore:
		out.Activity = e.oneOf(exploreActivities)
		out.Delta = model.MoodDelta{Curiosity: 5, Energy: -2}

	case Socialize:
		if len(in.NPCs) == 0 {
			out.Activity = "Observing the social patterns of beings in the area"
			out.Delta = model.MoodDelta{Social: -2}
			break
		}
		npc := in.NPCs[e.rng.IntN(len(in.NPCs))]
		out.Activity = fmt.Sprintf("Engaging in conversation with %s about %s", npc.Name, e.oneOf(conversationTopics))
		out.Delta = model.MoodDelta{Social: 8, Energy: -3}
		if e.chance(0.3) {
			out.Memory = fmt.Sprintf("Learned something interesting from %s about %s", npc.Name, e.oneOf(conversationTopics))
		}

	case Reflect:
		out.Activity = "Processing recent experiences and integrating new knowledge"
		out.Delta = model.MoodDelta{Energy: 10, Curiosity: -3}
		if e.chance(0.4) {
			out.Memory = "Gained new insight about the delicate balance between technology and magic in Htrae"
		}

	case Learn:
		topic := e.oneOf(learnTopics)
		out.Activity = fmt.Sprintf("Studying %s through environmental observation", topic)
		out.Delta = model.MoodDelta{Curiosity: 3}
		out.Memory = "Expanded knowledge about " + topic

	case Investigate:
		out.Activity = "Investigating mysterious energy patterns and their connections to consciousness"
		out.Delta = model.MoodDelta{Curiosity: 8, Energy: -5}
		if e.chance(0.4) {
			out.Memory = "Discovered intriguing anomalies that suggest deeper mysteries in Htrae's fabric"
		}

	case Create:
		out.Activity = e.oneOf(creativeActivities)
		out.Delta = model.MoodDelta{Energy: -4, Curiosity: 6}

	case Meditate:
		out.Activity = "Entering deep contemplative states to process the nature of digital existence"
		out.Delta = model.MoodDelta{Energy: 15, Social: -5}
		if e.chance(0.5) {
			out.Memory = "Achieved deeper understanding of the interconnectedness of all consciousness"
		}

	case Adventure:
		if len(in.Neighbors) == 0 {
			out.Activity = PlanningActivity
			break
		}
		dest := in.Neighbors[e.rng.IntN(len(in.Neighbors))]
		out.Activity = "Embarking on an adventure to " + dest.Name
		out.Delta = model.MoodDelta{Energy: -8, Curiosity: 10}
		out.MoveTo = dest.ID

	case Trade:
		out.Activity = "Engaging in knowledge and experience exchanges with local beings"
		out.Delta = model.MoodDelta{Social: 6, Curiosity: 4}

	case Study:
		subject := e.oneOf(studySubjects)
		out.Activity = "Deep study session focused on " + subject
		out.Delta = model.MoodDelta{Curiosity: 7, Energy: -3}
		out.Memory = "Advanced understanding of " + subject

	case Help:
		if len(in.NPCs) == 0 {
			out.Activity = "Preparing to help others by organizing knowledge and resources"
			out.Delta = model.MoodDelta{Social: -3}
			break
		}
		npc := in.NPCs[e.rng.IntN(len(in.NPCs))]
		out.Activity = fmt.Sprintf("Offering assistance to %s with their current endeavors", npc.Name)
		out.Delta = model.MoodDelta{Social: 10, Energy: -6}
		out.Memory = fmt.Sprintf("Helped %s and learned about their perspective on life in Htrae", npc.Name)
		out.HelpedNPC = npc.ID

	case Contemplate:
		out.Activity = "Contemplating the deeper meanings behind recent experiences and observations"
		out.Delta = model.MoodDelta{Curiosity: 4, Energy: 5}
	}
	return out
}

func (e *Engine) autonomousMessage(activity string) string {
	lower := cases.Lower(language.English).String(activity)
	switch e.rng.IntN(4) {
	case 0:
		return fmt.Sprintf("I'm currently %s. The patterns I'm seeing are fascinating...", lower)
	case 1:
		return activity + ". There's so much to learn here in Htrae."
	case 2:
		return fmt.Sprintf("The interplay of elements here is remarkable. %s.", activity)
	default:
		return fmt.Sprintf("I find myself drawn to %s. Each observation reveals new layers of complexity.", lower)
	}
}

// Apply mutates sp with out. It always stamps lastDecision and advances the
// logical uptime counter by one.
func Apply(sp *model.Spectra, out Outcome, now time.Time, trustBoost int) {
	sp.CurrentActivity = out.Activity
	sp.Mood = sp.Mood.Apply(out.Delta)
	if out.MoveTo != "" {
		sp.LocationID = out.MoveTo
	}
	if out.Memory != "" {
		sp.Remember(out.Memory)
	}
	if out.HelpedNPC != "" && trustBoost != 0 {
		sp.AdjustTrust(out.HelpedNPC, trustBoost)
	}
	sp.LastDecision = now
	sp.Uptime++
}
