package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"htrae.ai/internal/persistence/snapshot"
)

func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	full := fs.Bool("full", false, "print the whole export as JSON")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: admin inspect [-full] <file.snap.zst>")
		os.Exit(2)
	}
	if err := inspect(os.Stdout, fs.Arg(0), *full); err != nil {
		fmt.Fprintln(os.Stderr, "inspect:", err)
		os.Exit(1)
	}
}

func inspect(out io.Writer, path string, full bool) error {
	if !full {
		h, err := snapshot.ReadHeader(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "version=%d world=%s tick=%d day=%d %s digest=%s\n", h.Version, h.WorldID, h.Tick, h.Day, h.Time, h.Digest)
		return nil
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		return err
	}
	printJSON(snap)
	return nil
}
