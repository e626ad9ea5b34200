package model

import (
	"fmt"
	"strconv"
	"time"
)

const (
	// MaxGlobalEvents bounds WorldState.GlobalEvents; the oldest entry is dropped first.
	MaxGlobalEvents = 10

	MaxWeatherIntensity = 5
	MaxTradeVolume      = 200
)

// Clock is a 24h wall clock inside the simulation ("HH:MM").
type Clock struct {
	Hour   int
	Minute int
}

func ParseClock(s string) (Clock, error) {
	var c Clock
	if len(s) != 5 || s[2] != ':' {
		return c, fmt.Errorf("bad clock %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil {
		return c, fmt.Errorf("bad clock %q: %w", s, err)
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil {
		return c, fmt.Errorf("bad clock %q: %w", s, err)
	}
	c.Hour, c.Minute = h, m
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return c, fmt.Errorf("bad clock %q: out of range", s)
	}
	return c, nil
}

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// Advance moves the clock forward one minute and reports whether the day rolled over.
func (c Clock) Advance() (Clock, bool) {
	c.Minute++
	if c.Minute >= 60 {
		c.Minute = 0
		c.Hour++
	}
	if c.Hour >= 24 {
		c.Hour = 0
		return c, true
	}
	return c, false
}

type Weather struct {
	Condition string `json:"condition" yaml:"condition"`
	Intensity int    `json:"intensity" yaml:"intensity"`
}

type WorldEvent struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
	Impact      string `json:"impact"`
}

type EconomicState struct {
	Stability   float64 `json:"stability" yaml:"stability"`
	TradeVolume float64 `json:"trade_volume" yaml:"trade_volume"`
}

func (e EconomicState) Clamp() EconomicState {
	return EconomicState{
		Stability:   clampFloat(e.Stability, 0, 100),
		TradeVolume: clampFloat(e.TradeVolume, 0, MaxTradeVolume),
	}
}

type WorldState struct {
	ID                string             `json:"id"`
	CurrentDay        int                `json:"currentDay"`
	CurrentTime       string             `json:"currentTime"`
	WeatherConditions map[string]Weather `json:"weatherConditions"`
	GlobalEvents      []WorldEvent       `json:"globalEvents"`
	EconomicState     EconomicState      `json:"economicState"`
	PoliticalTension  float64            `json:"politicalTension"`
	MagicTechBalance  float64            `json:"magicTechBalance"`
	SimulationActive  bool               `json:"simulationActive"`
	LastTick          time.Time          `json:"lastTick"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// AddEvent appends ev in insertion order, keeping only the newest MaxGlobalEvents.
func (w *WorldState) AddEvent(ev WorldEvent) {
	w.GlobalEvents = append(w.GlobalEvents, ev)
	if over := len(w.GlobalEvents) - MaxGlobalEvents; over > 0 {
		w.GlobalEvents = append([]WorldEvent(nil), w.GlobalEvents[over:]...)
	}
}

func (w WorldState) Clone() WorldState {
	out := w
	out.GlobalEvents = append([]WorldEvent(nil), w.GlobalEvents...)
	if w.WeatherConditions != nil {
		out.WeatherConditions = make(map[string]Weather, len(w.WeatherConditions))
		for k, v := range w.WeatherConditions {
			out.WeatherConditions[k] = v
		}
	}
	return out
}

// ClampUnit clamps a 0..100 world metric.
func ClampUnit(v float64) float64 { return clampFloat(v, 0, 100) }
