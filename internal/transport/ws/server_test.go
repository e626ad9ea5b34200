package ws

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"htrae.ai/internal/protocol"
	"htrae.ai/internal/sim/decision"
	"htrae.ai/internal/sim/respond"
	"htrae.ai/internal/sim/seed"
	"htrae.ai/internal/sim/store"
	"htrae.ai/internal/sim/tick"
	"htrae.ai/internal/sim/tuning"
	"htrae.ai/internal/sim/world"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := store.New()
	if _, err := seed.Load(st, ""); err != nil {
		t.Fatalf("seed: %v", err)
	}
	cfg := world.ConfigFromTuning(tuning.Defaults())
	cfg.AutoStart = false
	w := world.New(cfg, st,
		decision.New(rand.New(rand.NewPCG(1, 1)), decision.Options{}),
		tick.New(rand.New(rand.NewPCG(2, 2)), tuning.Defaults().World, nil),
		nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = w.Run(ctx) }()

	srv := httptest.NewServer(NewServer(w, nil, Options{SessionQueue: 16}).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var f frame
	if err := json.Unmarshal(b, &f); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	return f
}

func write(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestSessionJoinAndChat(t *testing.T) {
	srv := startServer(t)
	conn := dial(t, srv)

	if f := read(t, conn); f.Type != protocol.TypeWorldUpdate {
		t.Fatalf("first frame=%s", f.Type)
	}

	write(t, conn, `{"type":"player_join","data":{"name":"Ada"}}`)
	if f := read(t, conn); f.Type != protocol.TypeMessagesUpdate {
		t.Fatalf("join frame=%s", f.Type)
	}
	if f := read(t, conn); f.Type != protocol.TypeWorldUpdate {
		t.Fatalf("join snapshot=%s", f.Type)
	}

	write(t, conn, `{"type":"chat_message","data":{"content":"How are you feeling?"}}`)
	f := read(t, conn)
	if f.Type != protocol.TypeMessagesUpdate {
		t.Fatalf("chat frame=%s", f.Type)
	}
	var mu protocol.MessagesUpdate
	if err := json.Unmarshal(f.Data, &mu); err != nil {
		t.Fatalf("decode: %v", err)
	}
	last := mu.Messages[len(mu.Messages)-1]
	if !strings.HasPrefix(last.Content, "I'm feeling ") {
		t.Fatalf("reply=%q", last.Content)
	}
}

func TestBadFramesGetErrorReplies(t *testing.T) {
	srv := startServer(t)
	a := dial(t, srv)
	b := dial(t, srv)
	read(t, a)
	read(t, b)

	cases := map[string]string{
		`{oops`:                      protocol.ErrProtoBadRequest,
		`{"type":"dance","data":{}}`: protocol.ErrUnknownType,
		`{"type":"chat_message","data":{"content":"hi"}}`: protocol.ErrNotJoined,
	}
	for raw, code := range cases {
		write(t, a, raw)
		f := read(t, a)
		if f.Type != protocol.TypeError {
			t.Fatalf("%s: type=%s", raw, f.Type)
		}
		var ed protocol.ErrorData
		_ = json.Unmarshal(f.Data, &ed)
		if ed.Code != code {
			t.Fatalf("%s: code=%s want %s", raw, ed.Code, code)
		}
	}

	// b saw none of it; its next frame is the reply to its own request.
	write(t, b, `{"type":"request_world_update","data":{}}`)
	if f := read(t, b); f.Type != protocol.TypeWorldUpdate {
		t.Fatalf("b frame=%s", f.Type)
	}
}

func TestGreetingOverSocket(t *testing.T) {
	srv := startServer(t)
	conn := dial(t, srv)
	read(t, conn)
	write(t, conn, `{"type":"player_join","data":{}}`)
	read(t, conn)
	read(t, conn)
	write(t, conn, `{"type":"chat_message","data":{"content":"hello"}}`)
	var mu protocol.MessagesUpdate
	_ = json.Unmarshal(read(t, conn).Data, &mu)
	if got := mu.Messages[len(mu.Messages)-1].Content; got != respond.Greeting {
		t.Fatalf("reply=%q", got)
	}
}
