// Package snapshot writes point-in-time exports of the world graph for
// inspection. Exports are never loaded back into a running world.
package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"htrae.ai/internal/sim/memory"
	"htrae.ai/internal/sim/model"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
	Day     int    `json:"day"`
	Time    string `json:"time"`
	Digest  string `json:"digest"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Spectra    *model.Spectra    `json:"spectra"`
	WorldState *model.WorldState `json:"worldState"`
	Locations  []model.Location  `json:"locations"`
	NPCs       []model.NPC       `json:"npcs"`
	Players    []model.Player    `json:"players"`
	Messages   []model.Message   `json:"messages"`
	Memories   []memory.Entry    `json:"memories"`
}

// Path is where the export for tick lives under dir.
func Path(dir string, tick uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%d.snap.zst", tick))
}

// WriteSnapshot stores snap as a JSON header line followed by the JSON body,
// zstd-compressed. The file is written to a temp name and renamed into place.
func WriteSnapshot(path string, snap SnapshotV1) error {
	if snap.Header.Version == 0 {
		snap.Header.Version = Version
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := writeFile(tmp, snap); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func writeFile(path string, snap SnapshotV1) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := json.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Close()
}

// ReadHeader decodes only the first line of an export.
func ReadHeader(path string) (Header, error) {
	var h Header
	err := read(path, func(br *bufio.Reader) error {
		line, err := br.ReadBytes('\n')
		if err != nil {
			return err
		}
		return json.Unmarshal(line, &h)
	})
	return h, err
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	err := read(path, func(br *bufio.Reader) error {
		// The body repeats the header.
		if _, err := br.ReadBytes('\n'); err != nil {
			return err
		}
		if err := json.NewDecoder(br).Decode(&snap); err != nil {
			return fmt.Errorf("json decode: %w", err)
		}
		return nil
	})
	return snap, err
}

func read(path string, fn func(*bufio.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	return fn(bufio.NewReaderSize(dec, 256*1024))
}
