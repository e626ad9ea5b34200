package indexdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"htrae.ai/internal/sim/model"
	"htrae.ai/internal/sim/world"
)

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqTick, tick: world.TickLogEntry{Tick: 1}}

	_ = s.WriteTick(world.TickLogEntry{Tick: 2})
	_ = s.WriteAudit(world.AuditEntry{Tick: 2})
	s.RecordMessage(model.Message{ID: "m1"})
	s.RecordEvent(2, model.WorldEvent{ID: "e1"})

	st := s.Stats()
	if st.DropTickTotal != 1 || st.DropAuditTotal != 1 || st.DropMessageTotal != 1 || st.DropEventTotal != 1 {
		t.Fatalf("drops=%+v", st)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestSQLiteIndex_TranscriptRoundTrip(t *testing.T) {
	dir := t.TempDir()
	idx, err := OpenSQLite(filepath.Join(dir, "index", "transcript.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer func() { _ = idx.Close() }()

	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, c := range []string{"first", "second", "third"} {
		idx.RecordMessage(model.Message{
			ID:          string(rune('a' + i)),
			Sender:      model.SenderPlayer,
			Content:     c,
			MessageType: model.MessageChat,
			Timestamp:   ts.Add(time.Duration(i) * time.Second),
			Metadata:    model.Properties{"playerId": model.String("p1")},
		})
	}
	idx.RecordMessage(model.Message{ID: "a", Content: "duplicate id ignored"})
	idx.RecordEvent(7, model.WorldEvent{ID: "ev1", Type: "npc_activity", Description: "Zyx stirs", Timestamp: "14:40", Impact: "minor"})
	_ = idx.WriteTick(world.TickLogEntry{Tick: 7, Day: 15, Time: "14:40", Action: "explore", Digest: "abc"})

	page, err := idx.Transcript(context.Background(), 2)
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if len(page.Messages) != 2 || page.Messages[0].Content != "second" || page.Messages[1].Content != "third" {
		t.Fatalf("messages=%+v", page.Messages)
	}
	if id, _ := page.Messages[0].Metadata["playerId"].AsString(); id != "p1" {
		t.Fatalf("metadata=%v", page.Messages[0].Metadata)
	}
	if !page.Messages[0].Timestamp.Equal(ts.Add(time.Second)) {
		t.Fatalf("timestamp=%v", page.Messages[0].Timestamp)
	}
	if len(page.Events) != 1 || page.Events[0].Tick != 7 || page.Events[0].Description != "Zyx stirs" {
		t.Fatalf("events=%+v", page.Events)
	}
	if page.Ticks != 1 {
		t.Fatalf("ticks=%d", page.Ticks)
	}
}

func TestSQLiteIndex_AuditsAndConfigSurviveClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	_ = idx.WriteAudit(world.AuditEntry{Tick: 3, Session: "s1", PlayerID: "p1", Action: "JOIN", Detail: "Ada"})
	_ = idx.WriteAudit(world.AuditEntry{Tick: 3, Session: "s1", PlayerID: "p1", Action: "CHAT", Detail: "hello"})
	if err := idx.UpsertConfig("tuning", map[string]any{"tick_interval": "30s"}); err != nil {
		t.Fatalf("UpsertConfig: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM audits WHERE tick=3 AND player_id='p1'`).Scan(&n); err != nil || n != 2 {
		t.Fatalf("audits=%d err=%v", n, err)
	}
	var action string
	if err := db.QueryRow(`SELECT action FROM audits WHERE tick=3 AND seq=1`).Scan(&action); err != nil || action != "CHAT" {
		t.Fatalf("seq 1 action=%q err=%v", action, err)
	}
	var digest, raw string
	if err := db.QueryRow(`SELECT digest,json FROM configs WHERE name='tuning'`).Scan(&digest, &raw); err != nil {
		t.Fatalf("config: %v", err)
	}
	if len(digest) != 64 || raw != `{"tick_interval":"30s"}` {
		t.Fatalf("digest=%q raw=%q", digest, raw)
	}
}

func TestSQLiteIndex_NilIsNoop(t *testing.T) {
	var s *SQLiteIndex
	if err := s.WriteTick(world.TickLogEntry{Tick: 1}); err != nil {
		t.Fatalf("WriteTick: %v", err)
	}
	s.RecordMessage(model.Message{})
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if st := s.Stats(); st.QueueCapacity != 0 {
		t.Fatalf("stats=%+v", st)
	}
}
