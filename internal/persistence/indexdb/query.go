package indexdb

import (
	"context"
	"encoding/json"
	"time"

	"htrae.ai/internal/sim/model"
)

const defaultTranscriptLimit = 200

// TranscriptPage is what the admin endpoint serves.
type TranscriptPage struct {
	Messages []model.Message   `json:"messages"`
	Events   []TranscriptEvent `json:"events"`
	Ticks    int64             `json:"ticks"`
	Stats    Stats             `json:"stats"`
}

type TranscriptEvent struct {
	Tick uint64 `json:"tick"`
	model.WorldEvent
}

// Transcript flushes pending writes and returns the newest limit messages and
// events, oldest first.
func (s *SQLiteIndex) Transcript(ctx context.Context, limit int) (TranscriptPage, error) {
	if limit <= 0 {
		limit = defaultTranscriptLimit
	}
	if err := s.Flush(ctx); err != nil {
		return TranscriptPage{}, err
	}
	page := TranscriptPage{Messages: []model.Message{}, Events: []TranscriptEvent{}, Stats: s.Stats()}

	rows, err := s.db.QueryContext(ctx, `SELECT id,sender,content,message_type,ts,metadata_json FROM (
		SELECT seq,id,sender,content,message_type,ts,metadata_json FROM messages ORDER BY seq DESC LIMIT ?
	) ORDER BY seq ASC`, limit)
	if err != nil {
		return TranscriptPage{}, err
	}
	for rows.Next() {
		var (
			m            model.Message
			sender, typ  string
			ts, metaJSON string
		)
		if err := rows.Scan(&m.ID, &sender, &m.Content, &typ, &ts, &metaJSON); err != nil {
			_ = rows.Close()
			return TranscriptPage{}, err
		}
		m.Sender = model.Sender(sender)
		m.MessageType = model.MessageType(typ)
		m.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		if err := json.Unmarshal([]byte(metaJSON), &m.Metadata); err != nil {
			m.Metadata = model.Properties{}
		}
		page.Messages = append(page.Messages, m)
	}
	if err := rows.Close(); err != nil {
		return TranscriptPage{}, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT tick,id,type,description,clock,impact FROM (
		SELECT rowid,tick,id,type,description,clock,impact FROM events ORDER BY tick DESC, rowid DESC LIMIT ?
	) ORDER BY tick ASC, rowid ASC`, limit)
	if err != nil {
		return TranscriptPage{}, err
	}
	for rows.Next() {
		var ev TranscriptEvent
		var tick int64
		if err := rows.Scan(&tick, &ev.ID, &ev.Type, &ev.Description, &ev.Timestamp, &ev.Impact); err != nil {
			_ = rows.Close()
			return TranscriptPage{}, err
		}
		ev.Tick = uint64(tick)
		page.Events = append(page.Events, ev)
	}
	if err := rows.Close(); err != nil {
		return TranscriptPage{}, err
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ticks`).Scan(&page.Ticks); err != nil {
		return TranscriptPage{}, err
	}
	return page, nil
}
