// Package api serves the JSON HTTP surface next to the websocket: world
// reads, simulation control, a chat endpoint, health, metrics and local-only
// admin views.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"htrae.ai/internal/persistence/indexdb"
	"htrae.ai/internal/persistence/snapshot"
	"htrae.ai/internal/sim/world"
)

// TranscriptSource is the read side of the transcript index.
type TranscriptSource interface {
	Transcript(ctx context.Context, limit int) (indexdb.TranscriptPage, error)
}

type Options struct {
	// WorldID labels metrics.
	WorldID string
	// EnableAdmin mounts /admin/v1/* (loopback callers only).
	EnableAdmin bool
	// Timeout bounds each call into the world actor.
	Timeout time.Duration
	// SnapshotDir receives exports from POST /admin/v1/snapshot. Empty
	// disables exports.
	SnapshotDir string
}

type Server struct {
	world *world.World
	index TranscriptSource
	log   *log.Logger
	opts  Options
}

// NewServer wires the handlers. index may be nil when indexing is disabled.
func NewServer(w *world.World, index TranscriptSource, logger *log.Logger, opts Options) *Server {
	if opts.WorldID == "" {
		opts.WorldID = "htrae"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &Server{world: w, index: index, log: logger, opts: opts}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", s.handleMetrics)

	mux.HandleFunc("/api/spectra", s.handleSpectra)
	mux.HandleFunc("/api/world", s.handleWorld)
	mux.HandleFunc("/api/messages", s.handleMessages)
	mux.HandleFunc("/api/memories", s.handleMemories)
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/simulation/start", s.handleStart)
	mux.HandleFunc("/api/simulation/stop", s.handleStop)

	if s.opts.EnableAdmin {
		mux.HandleFunc("/admin/v1/state", s.handleAdminState)
		mux.HandleFunc("/admin/v1/transcript", s.handleAdminTranscript)
		mux.HandleFunc("/admin/v1/snapshot", s.handleAdminSnapshot)
	} else if s.log != nil {
		s.log.Printf("admin endpoints disabled")
	}
}

func (s *Server) callCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.opts.Timeout)
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, msg string) {
	writeJSON(rw, status, map[string]string{"error": msg})
}

// writeCallError maps a failed actor call to a status code.
func (s *Server) writeCallError(rw http.ResponseWriter, what string, err error) {
	if s.log != nil {
		s.log.Printf("%s: %v", what, err)
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, world.ErrStopped):
		writeError(rw, http.StatusServiceUnavailable, "Failed to "+what)
	default:
		writeError(rw, http.StatusInternalServerError, "Failed to "+what)
	}
}

func allow(rw http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	rw.Header().Set("Allow", method)
	writeError(rw, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func (s *Server) handleSpectra(rw http.ResponseWriter, r *http.Request) {
	if !allow(rw, r, http.MethodGet) {
		return
	}
	ctx, cancel := s.callCtx(r)
	defer cancel()
	sp, ok, err := s.world.Spectra(ctx)
	if err != nil {
		s.writeCallError(rw, "fetch Spectra data", err)
		return
	}
	if !ok {
		writeError(rw, http.StatusNotFound, "Spectra not found")
		return
	}
	writeJSON(rw, http.StatusOK, sp)
}

func (s *Server) handleWorld(rw http.ResponseWriter, r *http.Request) {
	if !allow(rw, r, http.MethodGet) {
		return
	}
	ctx, cancel := s.callCtx(r)
	defer cancel()
	st, err := s.world.Status(ctx)
	if err != nil {
		s.writeCallError(rw, "fetch world data", err)
		return
	}
	writeJSON(rw, http.StatusOK, st)
}

func parseLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return n, nil
}

func (s *Server) handleMessages(rw http.ResponseWriter, r *http.Request) {
	if !allow(rw, r, http.MethodGet) {
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		writeError(rw, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := s.callCtx(r)
	defer cancel()
	msgs, err := s.world.Messages(ctx, limit)
	if err != nil {
		s.writeCallError(rw, "fetch messages", err)
		return
	}
	writeJSON(rw, http.StatusOK, msgs)
}

func (s *Server) handleMemories(rw http.ResponseWriter, r *http.Request) {
	if !allow(rw, r, http.MethodGet) {
		return
	}
	ctx, cancel := s.callCtx(r)
	defer cancel()
	mems, err := s.world.Memories(ctx, r.URL.Query().Get("q"))
	if err != nil {
		s.writeCallError(rw, "recall memories", err)
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"memories": mems})
}

type chatRequest struct {
	Content    string `json:"content"`
	PlayerName string `json:"playerName"`
}

func (s *Server) handleChat(rw http.ResponseWriter, r *http.Request) {
	if !allow(rw, r, http.MethodPost) {
		return
	}
	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64*1024)).Decode(&req); err != nil {
		writeError(rw, http.StatusBadRequest, "invalid JSON body")
		return
	}
	ctx, cancel := s.callCtx(r)
	defer cancel()
	res, err := s.world.Chat(ctx, req.PlayerName, req.Content)
	if errors.Is(err, world.ErrEmptyChat) {
		writeError(rw, http.StatusBadRequest, "content is required")
		return
	}
	if err != nil {
		s.writeCallError(rw, "send message", err)
		return
	}
	writeJSON(rw, http.StatusOK, res)
}

func (s *Server) handleStart(rw http.ResponseWriter, r *http.Request) {
	if !allow(rw, r, http.MethodPost) {
		return
	}
	ctx, cancel := s.callCtx(r)
	defer cancel()
	if err := s.world.StartSimulation(ctx); err != nil {
		s.writeCallError(rw, "start simulation", err)
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"success": true, "message": "Simulation started"})
}

func (s *Server) handleStop(rw http.ResponseWriter, r *http.Request) {
	if !allow(rw, r, http.MethodPost) {
		return
	}
	ctx, cancel := s.callCtx(r)
	defer cancel()
	if err := s.world.StopSimulation(ctx); err != nil {
		s.writeCallError(rw, "stop simulation", err)
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"success": true, "message": "Simulation stopped"})
}

func (s *Server) handleAdminState(rw http.ResponseWriter, r *http.Request) {
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}
	resp := struct {
		WorldID string             `json:"world_id"`
		Tick    uint64             `json:"tick"`
		Metrics world.WorldMetrics `json:"metrics"`
	}{
		WorldID: s.opts.WorldID,
		Tick:    s.world.CurrentTick(),
		Metrics: s.world.Metrics(),
	}
	writeJSON(rw, http.StatusOK, resp)
}

func (s *Server) handleAdminTranscript(rw http.ResponseWriter, r *http.Request) {
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}
	if s.index == nil {
		writeError(rw, http.StatusServiceUnavailable, "transcript index disabled")
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		writeError(rw, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := s.callCtx(r)
	defer cancel()
	page, err := s.index.Transcript(ctx, limit)
	if err != nil {
		s.writeCallError(rw, "read transcript", err)
		return
	}
	writeJSON(rw, http.StatusOK, page)
}

func (s *Server) handleAdminSnapshot(rw http.ResponseWriter, r *http.Request) {
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}
	if !allow(rw, r, http.MethodPost) {
		return
	}
	if s.opts.SnapshotDir == "" {
		writeError(rw, http.StatusServiceUnavailable, "snapshot exports disabled")
		return
	}
	ctx, cancel := s.callCtx(r)
	defer cancel()
	snap, err := s.world.Export(ctx, s.opts.WorldID)
	if err != nil {
		s.writeCallError(rw, "export snapshot", err)
		return
	}
	path := snapshot.Path(s.opts.SnapshotDir, snap.Header.Tick)
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		s.writeCallError(rw, "write snapshot", err)
		return
	}
	if s.log != nil {
		s.log.Printf("snapshot exported tick=%d path=%s", snap.Header.Tick, path)
	}
	writeJSON(rw, http.StatusOK, map[string]any{"tick": snap.Header.Tick, "path": path, "digest": snap.Header.Digest})
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
