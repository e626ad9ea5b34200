package log

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"htrae.ai/internal/sim/world"
)

func TestTickLoggerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)
	for i := uint64(1); i <= 3; i++ {
		if err := l.WriteTick(world.TickLogEntry{Tick: i, Action: "explore", Time: fmt.Sprintf("14:3%d", i), Digest: "d"}); err != nil {
			t.Fatalf("WriteTick: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := Files(filepath.Join(dir, "journal"), "ticks")
	if err != nil || len(files) != 1 {
		t.Fatalf("files=%v err=%v", files, err)
	}
	var got []world.TickLogEntry
	err = Scan(files[0], func(line []byte) error {
		var e world.TickLogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return err
		}
		got = append(got, e)
		return nil
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 3 || got[0].Tick != 1 || got[2].Time != "14:33" || got[1].Action != "explore" {
		t.Fatalf("entries=%+v", got)
	}
}

func TestAuditLoggerWritesSeparateStream(t *testing.T) {
	dir := t.TempDir()
	l := NewAuditLogger(dir)
	if err := l.WriteAudit(world.AuditEntry{Tick: 4, Session: "s1", Action: "chat", Detail: "hello"}); err != nil {
		t.Fatalf("WriteAudit: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	files, _ := Files(filepath.Join(dir, "journal"), "audit")
	if len(files) != 1 {
		t.Fatalf("files=%v", files)
	}
	n := 0
	if err := Scan(files[0], func([]byte) error { n++; return nil }); err != nil || n != 1 {
		t.Fatalf("lines=%d err=%v", n, err)
	}
	if ticks, _ := Files(filepath.Join(dir, "journal"), "ticks"); len(ticks) != 0 {
		t.Fatalf("audit leaked into ticks: %v", ticks)
	}
}

func TestJournalStartsSegmentEachHour(t *testing.T) {
	dir := t.TempDir()
	j := NewJournal(dir, "ticks")
	at := time.Date(2026, 3, 1, 9, 59, 0, 0, time.UTC)
	j.now = func() time.Time { return at }

	write := func(tick int) {
		t.Helper()
		if err := j.Append(map[string]int{"tick": tick}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	write(1)
	write(2)
	at = at.Add(2 * time.Minute)
	write(3)
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Reopening the same hour appends rather than truncating.
	write(4)
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := Files(dir, "ticks")
	if err != nil || len(files) != 2 {
		t.Fatalf("files=%v err=%v", files, err)
	}
	if !strings.HasSuffix(files[0], "ticks-2026-03-01-09.jsonl.zst") || !strings.HasSuffix(files[1], "ticks-2026-03-01-10.jsonl.zst") {
		t.Fatalf("files=%v", files)
	}
	want := []int{2, 2}
	for i, f := range files {
		n := 0
		if err := Scan(f, func([]byte) error { n++; return nil }); err != nil {
			t.Fatalf("Scan %s: %v", f, err)
		}
		if n != want[i] {
			t.Fatalf("%s: lines=%d want %d", f, n, want[i])
		}
	}
}

func TestJournalRejectsUnmarshalableValue(t *testing.T) {
	dir := t.TempDir()
	j := NewJournal(dir, "audit")
	if err := j.Append(func() {}); err == nil {
		t.Fatalf("func value accepted")
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if files, _ := Files(dir, "audit"); len(files) != 0 {
		t.Fatalf("bad value opened a segment: %v", files)
	}
}
