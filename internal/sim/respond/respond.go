// Package respond produces Spectra's reply to a player's chat line.
//
// Matching is case-insensitive substring search; the first rule that matches
// wins. "hi" is matched anywhere, so words like "this" count as a greeting.
package respond

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"htrae.ai/internal/sim/model"
)

const (
	Greeting = "Hello! I'm enjoying exploring this fascinating intersection of technology and magic. What brings you to this part of Htrae?"

	DragonLore = "Zyx has been an incredible teacher. The way dragons maintain economic harmony while preserving their ancient wisdom is truly remarkable. They've shown me that power and peace can coexist beautifully."
	BlendLore  = "The blend of magic and technology here in Htrae is unlike anything I could have imagined. They don't compete - they dance together, each enhancing the other's capabilities."

	CuriousDefault = "That's an interesting perspective! I find myself constantly curious about the deeper patterns that connect everything in this world. What have you observed that stands out to you?"
	SocialDefault  = "I appreciate you taking the time to interact with me. These conversations help me understand not just the world, but my own place within it."
	GenericDefault = "Your words give me something new to consider. The complexity of communication and understanding continues to fascinate me as I navigate this world."
)

var loreTokens = []string{"dragon", "zyx"}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Respond is a pure function of the message and Spectra's current state.
func Respond(message string, sp model.Spectra) string {
	msg := cases.Fold().String(message)
	switch {
	case containsAny(msg, "hello", "hi"):
		return Greeting
	case containsAny(msg, "how are you", "feeling"):
		return "I'm feeling " + DescribeMood(sp.Mood) + ". The world around us is so rich with possibilities to explore and understand."
	case strings.Contains(msg, "what") && strings.Contains(msg, "doing"):
		activity := cases.Lower(language.English).String(sp.CurrentActivity)
		return "I'm currently " + activity + ". Every moment here teaches me something new about the balance between different forms of existence."
	case containsAny(msg, loreTokens...):
		return DragonLore
	case containsAny(msg, "magic", "technology"):
		return BlendLore
	case sp.Mood.Curiosity > 70:
		return CuriousDefault
	case sp.Mood.Social > 60:
		return SocialDefault
	default:
		return GenericDefault
	}
}

// DescribeMood names a mood; the first matching threshold wins.
func DescribeMood(m model.Mood) string {
	switch {
	case m.Curiosity > 80 && m.Energy > 70:
		return "energetically curious"
	case m.Social > 80:
		return "socially engaged"
	case m.Energy < 40:
		return "contemplatively tired"
	case m.Curiosity > 70:
		return "wonderfully inquisitive"
	case m.Social > 60:
		return "pleasantly social"
	default:
		return "balanced and thoughtful"
	}
}
