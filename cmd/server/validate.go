package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"htrae.ai/internal/sim/seed"
	"htrae.ai/internal/sim/store"
	"htrae.ai/internal/sim/tuning"
)

func validateCmd() *cobra.Command {
	var tuningPath, seedFile string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check tuning.yaml and the seed world without serving",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), tuningPath, seedFile)
		},
	}
	cmd.Flags().StringVar(&tuningPath, "tuning", "./configs/tuning.yaml", "path to tuning.yaml")
	cmd.Flags().StringVar(&seedFile, "seed-file", "", "seed world yaml (default: embedded world)")
	return cmd
}

func runValidate(out io.Writer, tuningPath, seedFile string) error {
	tune, err := tuning.Load(tuningPath)
	if err != nil {
		return fmt.Errorf("tuning: %w", err)
	}
	st := store.New()
	if _, err := seed.Load(st, seedFile); err != nil {
		return err
	}
	if err := st.ValidateGraph(); err != nil {
		return err
	}
	sp, ok := st.Spectra()
	if !ok {
		return fmt.Errorf("seed: no spectra")
	}
	ws, ok := st.WorldState()
	if !ok {
		return fmt.Errorf("seed: no world state")
	}
	fmt.Fprintf(out, "tuning ok: tick every %s, auto_start=%v\n", tune.TickInterval, tune.AutoStart)
	fmt.Fprintf(out, "seed ok: %d locations, %d npcs\n", len(st.Locations()), len(st.NPCs()))
	fmt.Fprintf(out, "%s at %s, day %d %s\n", sp.Name, sp.LocationID, ws.CurrentDay, ws.CurrentTime)
	return nil
}
