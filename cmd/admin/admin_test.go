package main

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"htrae.ai/internal/persistence/indexdb"
	"htrae.ai/internal/persistence/snapshot"
	"htrae.ai/internal/sim/model"
	"htrae.ai/internal/sim/world"
)

func TestRunQueryReadsIndex(t *testing.T) {
	dataDir := t.TempDir()
	idx, err := indexdb.OpenSQLite(indexPath(dataDir))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	idx.RecordMessage(model.Message{ID: "m1", Sender: model.SenderPlayer, Content: "hi", Timestamp: now, MessageType: model.MessageChat})
	idx.RecordMessage(model.Message{ID: "m2", Sender: model.SenderSpectra, Content: "hello", Timestamp: now, MessageType: model.MessageChat})
	_ = idx.WriteTick(world.TickLogEntry{Tick: 1, At: now, Day: 15, Time: "14:30", Action: "explore"})
	_ = idx.WriteAudit(world.AuditEntry{Tick: 1, PlayerID: "p1", Action: "JOIN"})
	if err := idx.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err := sql.Open("sqlite", filepath.Clean(indexPath(dataDir)))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	var got []any
	emit := func(v any) { got = append(got, v) }

	if err := runQuery(db, "messages", 10, "spectra", "", emit); err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(got) != 1 || got[0].(messageRow).ID != "m2" {
		t.Fatalf("messages=%+v", got)
	}

	got = nil
	if err := runQuery(db, "ticks", 10, "", "", emit); err != nil {
		t.Fatalf("ticks: %v", err)
	}
	if len(got) != 1 || got[0].(tickRow).Action != "explore" {
		t.Fatalf("ticks=%+v", got)
	}

	got = nil
	if err := runQuery(db, "audits", 10, "", "p1", emit); err != nil {
		t.Fatalf("audits: %v", err)
	}
	if len(got) != 1 || got[0].(auditRow).Action != "JOIN" {
		t.Fatalf("audits=%+v", got)
	}

	if err := runQuery(db, "snapshots", 10, "", "", emit); err == nil {
		t.Fatalf("expected unknown query error")
	}
}

func TestCallExitCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/api/simulation/stop" {
			_, _ = rw.Write([]byte(`{"success":true}`))
			return
		}
		http.Error(rw, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	if code := call(http.MethodPost, endpoint(srv.URL+"/", "/api/simulation/stop", nil)); code != 0 {
		t.Fatalf("stop exit=%d", code)
	}
	if code := call(http.MethodGet, endpoint(srv.URL, "/admin/v1/state", nil)); code != 1 {
		t.Fatalf("state exit=%d", code)
	}
}

func TestInspectHeader(t *testing.T) {
	path := snapshot.Path(t.TempDir(), 9)
	if err := snapshot.WriteSnapshot(path, snapshot.SnapshotV1{Header: snapshot.Header{WorldID: "htrae", Tick: 9, Day: 15, Time: "14:30"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out bytes.Buffer
	if err := inspect(&out, path, false); err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.HasPrefix(out.String(), "version=1 world=htrae tick=9 day=15 14:30") {
		t.Fatalf("out=%q", out.String())
	}
}
