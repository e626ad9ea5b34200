package main

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	persistlog "htrae.ai/internal/persistence/log"
	"htrae.ai/internal/sim/decision"
	"htrae.ai/internal/sim/seed"
	"htrae.ai/internal/sim/store"
	"htrae.ai/internal/sim/tick"
	"htrae.ai/internal/sim/tuning"
	"htrae.ai/internal/sim/world"
	"htrae.ai/internal/transport/api"
	"htrae.ai/internal/transport/ws"
)

type serveOptions struct {
	Addr       string
	DataDir    string
	TuningPath string
	SeedFile   string
	RNGSeed    uint64
	WSPath     string
	DisableDB  bool
	Admin      bool
}

func serveCmd() *cobra.Command {
	o := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulation and serve websocket + HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.Addr, "addr", ":8080", "http listen address")
	f.StringVar(&o.DataDir, "data", "./data", "runtime data directory (journal, index)")
	f.StringVar(&o.TuningPath, "tuning", "./configs/tuning.yaml", "path to tuning.yaml (missing file uses defaults)")
	f.StringVar(&o.SeedFile, "seed-file", "", "seed world yaml (default: embedded world)")
	f.Uint64Var(&o.RNGSeed, "rng-seed", 0, "random seed for decisions and world ticks (0: random)")
	f.StringVar(&o.WSPath, "ws-path", "/ws/simulation", "websocket path")
	f.BoolVar(&o.DisableDB, "disable-db", false, "disable the sqlite transcript index")
	f.BoolVar(&o.Admin, "admin", defaultEnableAdminHTTP(), "mount loopback-only /admin/v1 endpoints")
	return cmd
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

// buildWorld loads tuning and the seed world and wires the actor.
func buildWorld(tuningPath, seedFile string, rngSeed uint64, logger *log.Logger) (*world.World, tuning.Tuning, error) {
	tune, err := tuning.Load(tuningPath)
	if err != nil {
		return nil, tune, fmt.Errorf("load tuning: %w", err)
	}
	st := store.New()
	if _, err := seed.Load(st, seedFile); err != nil {
		return nil, tune, fmt.Errorf("load seed: %w", err)
	}
	if rngSeed == 0 {
		rngSeed = rand.Uint64()
	}
	dec := decision.New(rand.New(rand.NewPCG(rngSeed, 1)), decision.Options{AutonomousMessageChance: tune.AutonomousMessageChance})
	tk := tick.New(rand.New(rand.NewPCG(rngSeed, 2)), tune.World, nil)
	return world.New(world.ConfigFromTuning(tune), st, dec, tk, logger), tune, nil
}

func runServe(o *serveOptions) error {
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)
	worldLogger := log.New(os.Stdout, "[world] ", log.LstdFlags|log.Lmicroseconds)
	wsLogger := log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds)

	if err := os.MkdirAll(o.DataDir, 0o755); err != nil {
		return err
	}

	w, tune, err := buildWorld(o.TuningPath, o.SeedFile, o.RNGSeed, worldLogger)
	if err != nil {
		return err
	}

	// Optional: read-model index (never read back into the world).
	idx, err := openRuntimeIndex(o.DataDir, o.DisableDB)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	var transcripts api.TranscriptSource
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertConfig("tuning", tune); err != nil {
			logger.Printf("index: upsert tuning: %v", err)
		}
		w.SetTranscript(idx)
		transcripts = idx
	}

	tickLog := persistlog.NewTickLogger(o.DataDir)
	auditLog := persistlog.NewAuditLogger(o.DataDir)
	defer tickLog.Close()
	defer auditLog.Close()
	w.SetTickLogger(multiTickLogger{a: tickLog, b: nilIfNoIndex(idx)})
	w.SetAuditLogger(multiAuditLogger{a: auditLog, b: nilIfNoIndexAudit(idx)})

	ctx, cancel := signalContext()
	defer cancel()

	worldDone := make(chan struct{})
	go func() {
		defer close(worldDone)
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	api.NewServer(w, transcripts, logger, api.Options{EnableAdmin: o.Admin, SnapshotDir: filepath.Join(o.DataDir, "snapshots")}).Register(mux)
	mux.HandleFunc(o.WSPath, ws.NewServer(w, wsLogger, ws.Options{SessionQueue: tune.SessionQueue}).Handler())

	srv := &http.Server{
		Addr:              o.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (ws %s, tick every %s)", o.Addr, o.WSPath, tune.TickInterval)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	<-worldDone
	return nil
}

func journalDir(dataDir string) string { return filepath.Join(dataDir, "journal") }
