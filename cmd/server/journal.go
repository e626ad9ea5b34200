package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	persistlog "htrae.ai/internal/persistence/log"
	"htrae.ai/internal/sim/world"
)

func journalCmd() *cobra.Command {
	var (
		dataDir string
		kind    string
		from    uint64
		raw     bool
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print the compressed tick or audit journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dumpJournal(cmd.OutOrStdout(), journalDir(dataDir), kind, from, raw)
		},
	}
	cmd.Flags().StringVar(&dataDir, "data", "./data", "runtime data directory")
	cmd.Flags().StringVar(&kind, "kind", "ticks", "journal kind: ticks|audit")
	cmd.Flags().Uint64Var(&from, "from", 0, "skip entries before this tick")
	cmd.Flags().BoolVar(&raw, "raw", false, "print raw JSON lines")
	return cmd
}

func dumpJournal(out io.Writer, dir, kind string, from uint64, raw bool) error {
	if kind != "ticks" && kind != "audit" {
		return fmt.Errorf("unknown journal kind %q", kind)
	}
	files, err := persistlog.Files(dir, kind)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s journal under %s", kind, dir)
	}
	for _, path := range files {
		err := persistlog.Scan(path, func(line []byte) error {
			if kind == "audit" {
				var e world.AuditEntry
				if err := json.Unmarshal(line, &e); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if e.Tick < from {
					return nil
				}
				if raw {
					_, err := fmt.Fprintf(out, "%s\n", line)
					return err
				}
				_, err := fmt.Fprintf(out, "tick=%d %s player=%s %s\n", e.Tick, e.Action, e.PlayerID, e.Detail)
				return err
			}
			var e world.TickLogEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if e.Tick < from {
				return nil
			}
			if raw {
				_, err := fmt.Fprintf(out, "%s\n", line)
				return err
			}
			_, err := fmt.Fprintf(out, "tick=%d day=%d %s action=%s mood=%d/%d/%d events=%d digest=%.12s\n",
				e.Tick, e.Day, e.Time, e.Action,
				e.Mood.Curiosity, e.Mood.Social, e.Mood.Energy,
				len(e.Report.Events), e.Digest)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}
