package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	persistlog "htrae.ai/internal/persistence/log"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "transcript":
			transcriptCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		case "inspect":
			inspectCmd(os.Args[2:])
			return
		case "start", "stop":
			simulationCmd(os.Args[1], os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

// listCmd prints the journal files and the index path under the data dir.
func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	dir := filepath.Join(*dataDir, "journal")
	for _, kind := range []string{"ticks", "audit"} {
		files, err := persistlog.Files(dir, kind)
		if err != nil {
			fmt.Fprintln(os.Stderr, "glob:", err)
			os.Exit(1)
		}
		for _, f := range files {
			fmt.Println(f)
		}
	}
	snaps, _ := filepath.Glob(filepath.Join(*dataDir, "snapshots", "*.snap.zst"))
	for _, f := range snaps {
		fmt.Println(f)
	}
	idx := indexPath(*dataDir)
	if _, err := os.Stat(idx); err == nil {
		fmt.Println(idx)
	}
}

func indexPath(dataDir string) string {
	return filepath.Join(dataDir, "index", "transcript.sqlite")
}
