package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	sender := fs.String("sender", "", "sender filter (messages)")
	player := fs.String("player", "", "player_id filter (audits)")
	_ = fs.Parse(args)

	q := "ticks"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = indexPath(*dataDir)
	}
	if *limit <= 0 {
		*limit = 20
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := runQuery(db, q, *limit, *sender, *player, printJSON); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type tickRow struct {
	Tick       int64  `json:"tick"`
	Day        int    `json:"day"`
	Clock      string `json:"clock"`
	Action     string `json:"action"`
	Activity   string `json:"activity"`
	LocationID string `json:"location_id"`
	Digest     string `json:"digest"`
}

type messageRow struct {
	Seq         int64           `json:"seq"`
	ID          string          `json:"id"`
	Sender      string          `json:"sender"`
	Content     string          `json:"content"`
	MessageType string          `json:"message_type"`
	Timestamp   string          `json:"ts"`
	Metadata    json.RawMessage `json:"metadata"`
}

type eventRow struct {
	ID          string `json:"id"`
	Tick        int64  `json:"tick"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Clock       string `json:"clock"`
	Impact      string `json:"impact"`
}

type auditRow struct {
	Tick     int64  `json:"tick"`
	Seq      int64  `json:"seq"`
	Session  string `json:"session"`
	PlayerID string `json:"player_id"`
	Action   string `json:"action"`
	Detail   string `json:"detail"`
}

type configRow struct {
	Name      string          `json:"name"`
	Digest    string          `json:"digest"`
	JSON      json.RawMessage `json:"json"`
	UpdatedAt string          `json:"updated_at"`
}

// runQuery reads one table newest first and hands each row to emit.
func runQuery(db *sql.DB, q string, limit int, sender, player string, emit func(any)) error {
	switch q {
	case "ticks":
		rows, err := db.Query(`SELECT tick,day,clock,action,activity,location_id,digest FROM ticks ORDER BY tick DESC LIMIT ?`, limit)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r tickRow
			if err := rows.Scan(&r.Tick, &r.Day, &r.Clock, &r.Action, &r.Activity, &r.LocationID, &r.Digest); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			emit(r)
		}
		return rows.Err()

	case "messages":
		query := `SELECT seq,id,sender,content,message_type,ts,metadata_json FROM messages`
		qargs := []any{}
		if sender != "" {
			query += ` WHERE sender=?`
			qargs = append(qargs, sender)
		}
		query += ` ORDER BY seq DESC LIMIT ?`
		qargs = append(qargs, limit)
		rows, err := db.Query(query, qargs...)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r messageRow
			var meta string
			if err := rows.Scan(&r.Seq, &r.ID, &r.Sender, &r.Content, &r.MessageType, &r.Timestamp, &meta); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			r.Metadata = json.RawMessage(meta)
			emit(r)
		}
		return rows.Err()

	case "events":
		rows, err := db.Query(`SELECT id,tick,type,description,clock,impact FROM events ORDER BY tick DESC LIMIT ?`, limit)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r eventRow
			if err := rows.Scan(&r.ID, &r.Tick, &r.Type, &r.Description, &r.Clock, &r.Impact); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			emit(r)
		}
		return rows.Err()

	case "audits":
		query := `SELECT tick,seq,session,player_id,action,COALESCE(detail,'') FROM audits`
		qargs := []any{}
		if player != "" {
			query += ` WHERE player_id=?`
			qargs = append(qargs, player)
		}
		query += ` ORDER BY tick DESC, seq DESC LIMIT ?`
		qargs = append(qargs, limit)
		rows, err := db.Query(query, qargs...)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r auditRow
			if err := rows.Scan(&r.Tick, &r.Seq, &r.Session, &r.PlayerID, &r.Action, &r.Detail); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			emit(r)
		}
		return rows.Err()

	case "configs":
		rows, err := db.Query(`SELECT name,digest,json,updated_at FROM configs ORDER BY name`)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r configRow
			var raw string
			if err := rows.Scan(&r.Name, &r.Digest, &raw, &r.UpdatedAt); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			r.JSON = json.RawMessage(raw)
			emit(r)
		}
		return rows.Err()
	}
	return fmt.Errorf("unknown query %q (ticks|messages|events|audits|configs)", q)
}

func printJSON(v any) {
	b, _ := json.Marshal(v)
	fmt.Println(string(b))
}
