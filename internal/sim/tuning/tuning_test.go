package tuning

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.TickInterval != 30*time.Second || got.AutonomousMessageChance != 0.15 {
		t.Fatalf("defaults not applied: %+v", got)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	src := "tick_interval: 2s\nworld:\n  weather: 0.5\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.TickInterval != 2*time.Second || got.World.Weather != 0.5 {
		t.Fatalf("overlay: %+v", got)
	}
	if got.World.Economy != 0.2 {
		t.Fatalf("untouched field lost its default: %v", got.World.Economy)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("HTRAE_TICK_INTERVAL", "750ms")
	t.Setenv("HTRAE_WORLD_TENSION", "0.4")
	got, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.TickInterval != 750*time.Millisecond || got.World.Tension != 0.4 {
		t.Fatalf("env override: %+v", got)
	}
}

func TestValidate(t *testing.T) {
	tu := Defaults()
	tu.World.Weather = 1.5
	tu.TickInterval = 0
	if err := tu.Validate(); err == nil {
		t.Fatalf("invalid tuning accepted")
	}
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestShippedConfigMatchesDefaults(t *testing.T) {
	got, err := Load("../../../configs/tuning.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != Defaults() {
		t.Fatalf("configs/tuning.yaml drifted from Defaults():\n got %+v\nwant %+v", got, Defaults())
	}
}
