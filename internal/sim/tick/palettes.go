package tick

import "htrae.ai/internal/sim/model"

func weatherPalette(t model.LocationType) []string {
	switch t {
	case model.LocationCyberpunk:
		return []string{"clear", "neon_rain", "smog", "digital_storm", "holo_fog"}
	case model.LocationFantasy:
		return []string{"clear", "mystical_fog", "fairy_dust", "aurora_lights", "magical_storm"}
	case model.LocationHybrid:
		return []string{"clear", "aurora_winds", "techno_mist", "quantum_rain", "harmonic_storm"}
	case model.LocationIndustrial:
		return []string{"clear", "acid_rain", "industrial_smog", "steam_clouds", "toxic_winds"}
	default:
		return []string{"clear", "cloudy", "rain", "storm"}
	}
}

func npcActions(npcType string) []string {
	switch npcType {
	case "dragon":
		return []string{
			"Sharing ancient wisdom with nearby beings",
			"Analyzing economic patterns in the marketplace",
			"Mediating a dispute between traders",
			"Examining technological artifacts with interest",
			"Teaching young beings about harmony and balance",
		}
	case "human":
		return []string{
			"Negotiating trades with other merchants",
			"Upgrading cybernetic implants at a tech stall",
			"Seeking information about new opportunities",
			"Socializing with other traders",
			"Maintaining equipment and inventory",
		}
	case "elf":
		return []string{
			"Communing with nature spirits in digital form",
			"Crafting magical-technological hybrid items",
			"Sharing stories of the old world",
			"Teaching traditional crafts with modern tools",
			"Maintaining the balance between realms",
		}
	case "cyborg":
		return []string{
			"Recalibrating neural implants after a firmware update",
			"Trading diagnostic routines with other augmented beings",
			"Patrolling the data conduits for anomalies",
			"Debating the nature of consciousness with a street vendor",
		}
	case "alien":
		return []string{
			"Cataloguing local customs with quiet fascination",
			"Exchanging star charts for rare crystals",
			"Humming in frequencies that make the neon flicker",
			"Studying how magic and technology coexist here",
		}
	case "dwarf":
		return []string{
			"Hammering runes into a freshly forged circuit board",
			"Haggling over the price of enchanted ore",
			"Inspecting the forge bellows for wear",
			"Telling tales of the deep mines to passersby",
		}
	default:
		return []string{
			"Moving about their daily activities",
			"Interacting with the environment",
			"Pursuing their personal goals",
		}
	}
}
