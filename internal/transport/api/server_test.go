package api

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"htrae.ai/internal/persistence/indexdb"
	"htrae.ai/internal/persistence/snapshot"
	"htrae.ai/internal/sim/decision"
	"htrae.ai/internal/sim/model"
	"htrae.ai/internal/sim/respond"
	"htrae.ai/internal/sim/seed"
	"htrae.ai/internal/sim/store"
	"htrae.ai/internal/sim/tick"
	"htrae.ai/internal/sim/tuning"
	"htrae.ai/internal/sim/world"
)

type fakeIndex struct{ page indexdb.TranscriptPage }

func (f fakeIndex) Transcript(ctx context.Context, limit int) (indexdb.TranscriptPage, error) {
	return f.page, nil
}

func (f fakeIndex) Stats() indexdb.Stats { return indexdb.Stats{QueueCapacity: 8, DropMessageTotal: 2} }

func newTestMux(t *testing.T, seeded bool, index TranscriptSource) *http.ServeMux {
	t.Helper()
	return newTestMuxOpts(t, seeded, index, Options{EnableAdmin: true})
}

func newTestMuxOpts(t *testing.T, seeded bool, index TranscriptSource, opts Options) *http.ServeMux {
	t.Helper()
	st := store.New()
	if seeded {
		if _, err := seed.Load(st, ""); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	cfg := world.ConfigFromTuning(tuning.Defaults())
	cfg.AutoStart = false
	w := world.New(cfg, st,
		decision.New(rand.New(rand.NewPCG(5, 6)), decision.Options{}),
		tick.New(rand.New(rand.NewPCG(7, 8)), tuning.Defaults().World, nil),
		nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = w.Run(ctx) }()
	t.Cleanup(cancel)

	mux := http.NewServeMux()
	NewServer(w, index, nil, opts).Register(mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestGetSpectra(t *testing.T) {
	mux := newTestMux(t, true, nil)
	rec := do(mux, http.MethodGet, "/api/spectra", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	var sp model.Spectra
	if err := json.Unmarshal(rec.Body.Bytes(), &sp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sp.Name != "Spectra" || sp.Mood.Curiosity != 80 {
		t.Fatalf("spectra=%+v", sp)
	}

	empty := newTestMux(t, false, nil)
	if rec := do(empty, http.MethodGet, "/api/spectra", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("empty store status=%d", rec.Code)
	}
}

func TestGetWorldShape(t *testing.T) {
	mux := newTestMux(t, true, nil)
	rec := do(mux, http.MethodGet, "/api/world", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, k := range []string{"worldState", "locations", "npcs"} {
		if _, ok := body[k]; !ok {
			t.Fatalf("missing %q in %s", k, rec.Body)
		}
	}
}

func TestChatEndpoint(t *testing.T) {
	mux := newTestMux(t, true, nil)

	rec := do(mux, http.MethodPost, "/api/chat", `{"content":"hello there","playerName":"Ada"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	var res world.ChatResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Reply != respond.Greeting || len(res.Messages) != 3 {
		t.Fatalf("res=%+v", res)
	}

	if rec := do(mux, http.MethodPost, "/api/chat", `{"content":"  "}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty content status=%d", rec.Code)
	}
	if rec := do(mux, http.MethodPost, "/api/chat", `nope`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json status=%d", rec.Code)
	}
	if rec := do(mux, http.MethodGet, "/api/chat", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status=%d", rec.Code)
	}

	rec = do(mux, http.MethodGet, "/api/messages?limit=2", "")
	var msgs []model.Message
	_ = json.Unmarshal(rec.Body.Bytes(), &msgs)
	if len(msgs) != 2 || msgs[1].Sender != model.SenderSpectra {
		t.Fatalf("messages=%+v", msgs)
	}
	if rec := do(mux, http.MethodGet, "/api/messages?limit=abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status=%d", rec.Code)
	}
}

func TestStartStop(t *testing.T) {
	mux := newTestMux(t, true, nil)
	for path, want := range map[string]string{
		"/api/simulation/stop":  "Simulation stopped",
		"/api/simulation/start": "Simulation started",
	} {
		rec := do(mux, http.MethodPost, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rec.Code)
		}
		var body struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		if !body.Success || body.Message != want {
			t.Fatalf("%s body=%+v", path, body)
		}
	}
}

func TestMemoriesEndpoint(t *testing.T) {
	mux := newTestMux(t, true, nil)
	rec := do(mux, http.MethodGet, "/api/memories?q=awakening", "")
	var body struct {
		Memories []struct {
			Content string `json:"content"`
			Type    string `json:"type"`
		} `json:"memories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Memories) != 1 || body.Memories[0].Type != "long-term" {
		t.Fatalf("memories=%+v", body.Memories)
	}
}

func TestMetricsExposition(t *testing.T) {
	mux := newTestMux(t, true, fakeIndex{})
	rec := do(mux, http.MethodGet, "/metrics", "")
	body := rec.Body.String()
	for _, want := range []string{
		`htrae_world_tick{world="htrae"} 0`,
		`htrae_spectra_mood{world="htrae",dimension="curiosity"} 80`,
		`htrae_index_dropped_total{world="htrae",kind="message"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestAdminTranscriptLoopbackOnly(t *testing.T) {
	idx := fakeIndex{page: indexdb.TranscriptPage{Messages: []model.Message{{ID: "m1", Content: "hi"}}}}
	mux := newTestMux(t, true, idx)

	rec := do(mux, http.MethodGet, "/admin/v1/transcript", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("remote status=%d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/v1/transcript?limit=10", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"m1"`) {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}

	noIndex := newTestMux(t, true, nil)
	rec = httptest.NewRecorder()
	noIndex.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("no index status=%d", rec.Code)
	}
}

func TestAdminSnapshotExport(t *testing.T) {
	dir := t.TempDir()
	mux := newTestMuxOpts(t, true, nil, Options{EnableAdmin: true, SnapshotDir: dir})

	req := httptest.NewRequest(http.MethodPost, "/admin/v1/snapshot", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	var body struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Path != snapshot.Path(dir, 0) {
		t.Fatalf("path=%q", body.Path)
	}
	snap, err := snapshot.ReadSnapshot(body.Path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if snap.Spectra == nil || snap.Spectra.Name != "Spectra" || len(snap.Locations) != 3 || len(snap.Memories) == 0 {
		t.Fatalf("snapshot=%+v", snap.Header)
	}

	disabled := newTestMux(t, true, nil)
	rec = httptest.NewRecorder()
	disabled.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("disabled status=%d", rec.Code)
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	for addr, want := range map[string]bool{
		"127.0.0.1:80": true,
		"[::1]:9000":   true,
		"10.0.0.2:80":  false,
		"garbage":      false,
	} {
		if got := isLoopbackRemote(addr); got != want {
			t.Fatalf("%s: got %v", addr, got)
		}
	}
}
