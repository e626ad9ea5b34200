package tuning

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix scopes environment overrides, e.g. HTRAE_TICK_INTERVAL=10s.
const EnvPrefix = "HTRAE_"

type Tuning struct {
	TickInterval   time.Duration `yaml:"tick_interval" env:"TICK_INTERVAL"`
	AutoStart      bool          `yaml:"auto_start" env:"AUTO_START"`
	AutoStartDelay time.Duration `yaml:"auto_start_delay" env:"AUTO_START_DELAY"`

	AutonomousMessageChance float64 `yaml:"autonomous_message_chance" env:"AUTONOMOUS_MESSAGE_CHANCE"`
	ChatSocialBoost         int     `yaml:"chat_social_boost" env:"CHAT_SOCIAL_BOOST"`
	HelpTrustBoost          int     `yaml:"help_trust_boost" env:"HELP_TRUST_BOOST"`

	MessageWindow int `yaml:"message_window" env:"MESSAGE_WINDOW"`
	SessionQueue  int `yaml:"session_queue" env:"SESSION_QUEUE"`

	MemoryImportance float64 `yaml:"memory_importance" env:"MEMORY_IMPORTANCE"`
	MemoryDecayRate  float64 `yaml:"memory_decay_rate" env:"MEMORY_DECAY_RATE"`

	World WorldChances `yaml:"world" envPrefix:"WORLD_"`
}

// WorldChances are the per-tick probabilities of the world tick sub-steps.
type WorldChances struct {
	Weather         float64 `yaml:"weather" env:"WEATHER"`
	WeatherLocation float64 `yaml:"weather_location" env:"WEATHER_LOCATION"`
	NPCActionScale  float64 `yaml:"npc_action_scale" env:"NPC_ACTION_SCALE"`
	NPCEvent        float64 `yaml:"npc_event" env:"NPC_EVENT"`
	Economy         float64 `yaml:"economy" env:"ECONOMY"`
	Tension         float64 `yaml:"tension" env:"TENSION"`
	Balance         float64 `yaml:"balance" env:"BALANCE"`
}

func Defaults() Tuning {
	return Tuning{
		TickInterval:   30 * time.Second,
		AutoStart:      true,
		AutoStartDelay: 5 * time.Second,

		AutonomousMessageChance: 0.15,
		ChatSocialBoost:         5,
		HelpTrustBoost:          2,

		MessageWindow: 50,
		SessionQueue:  8,

		MemoryImportance: 5,
		MemoryDecayRate:  1,

		World: WorldChances{
			Weather:         0.1,
			WeatherLocation: 0.3,
			NPCActionScale:  0.1,
			NPCEvent:        0.05,
			Economy:         0.2,
			Tension:         0.1,
			Balance:         0.05,
		},
	}
}

// Load reads path over Defaults. A missing file is not an error.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return t, err
		default:
			if err := yaml.Unmarshal(raw, &t); err != nil {
				return t, fmt.Errorf("tuning.yaml: %w", err)
			}
		}
	}
	if err := ApplyEnv(&t); err != nil {
		return t, err
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// ApplyEnv overrides fields from HTRAE_* variables that are set.
func ApplyEnv(t *Tuning) error {
	if err := env.ParseWithOptions(t, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (t Tuning) Validate() error {
	var errs []error
	if t.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick_interval must be positive, got %s", t.TickInterval))
	}
	if t.AutoStartDelay < 0 {
		errs = append(errs, fmt.Errorf("auto_start_delay must not be negative"))
	}
	if t.MessageWindow <= 0 {
		errs = append(errs, fmt.Errorf("message_window must be positive"))
	}
	if t.SessionQueue <= 0 {
		errs = append(errs, fmt.Errorf("session_queue must be positive"))
	}
	if t.MemoryDecayRate < 0 {
		errs = append(errs, fmt.Errorf("memory_decay_rate must not be negative"))
	}
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"autonomous_message_chance", t.AutonomousMessageChance},
		{"world.weather", t.World.Weather},
		{"world.weather_location", t.World.WeatherLocation},
		{"world.npc_event", t.World.NPCEvent},
		{"world.economy", t.World.Economy},
		{"world.tension", t.World.Tension},
		{"world.balance", t.World.Balance},
	} {
		if p.v < 0 || p.v > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0,1], got %v", p.name, p.v))
		}
	}
	if s := t.World.NPCActionScale; s < 0 || s*5 > 1 {
		errs = append(errs, fmt.Errorf("world.npc_action_scale must keep level*scale within [0,1], got %v", s))
	}
	return errors.Join(errs...)
}
