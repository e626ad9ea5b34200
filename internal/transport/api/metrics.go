package api

import (
	"fmt"
	"net/http"

	"htrae.ai/internal/persistence/indexdb"
)

// IndexStatser is implemented by the transcript index.
type IndexStatser interface {
	Stats() indexdb.Stats
}

func (s *Server) handleMetrics(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

	m := s.world.Metrics()
	tick := s.world.CurrentTick()
	if m.Tick != 0 {
		tick = m.Tick
	}
	id := s.opts.WorldID

	// Minimal Prometheus exposition format.
	fmt.Fprintf(rw, "# HELP htrae_world_tick Current simulation tick.\n")
	fmt.Fprintf(rw, "# TYPE htrae_world_tick gauge\n")
	fmt.Fprintf(rw, "htrae_world_tick{world=%q} %d\n", id, tick)

	running := 0
	if m.Running {
		running = 1
	}
	fmt.Fprintf(rw, "# HELP htrae_world_running Whether the tick scheduler is armed.\n")
	fmt.Fprintf(rw, "# TYPE htrae_world_running gauge\n")
	fmt.Fprintf(rw, "htrae_world_running{world=%q} %d\n", id, running)

	fmt.Fprintf(rw, "# HELP htrae_world_sessions Connected websocket sessions.\n")
	fmt.Fprintf(rw, "# TYPE htrae_world_sessions gauge\n")
	fmt.Fprintf(rw, "htrae_world_sessions{world=%q} %d\n", id, m.Sessions)

	fmt.Fprintf(rw, "# HELP htrae_world_players Sessions bound to a player.\n")
	fmt.Fprintf(rw, "# TYPE htrae_world_players gauge\n")
	fmt.Fprintf(rw, "htrae_world_players{world=%q} %d\n", id, m.Joined)

	fmt.Fprintf(rw, "# HELP htrae_world_messages Stored chat messages.\n")
	fmt.Fprintf(rw, "# TYPE htrae_world_messages gauge\n")
	fmt.Fprintf(rw, "htrae_world_messages{world=%q} %d\n", id, m.Messages)

	fmt.Fprintf(rw, "# HELP htrae_world_memories Entries in Spectra's memory store.\n")
	fmt.Fprintf(rw, "# TYPE htrae_world_memories gauge\n")
	fmt.Fprintf(rw, "htrae_world_memories{world=%q} %d\n", id, m.Memories)

	fmt.Fprintf(rw, "# HELP htrae_world_dropped_frames_total Outbound frames dropped on full session queues.\n")
	fmt.Fprintf(rw, "# TYPE htrae_world_dropped_frames_total counter\n")
	fmt.Fprintf(rw, "htrae_world_dropped_frames_total{world=%q} %d\n", id, m.DroppedFrames)

	fmt.Fprintf(rw, "# HELP htrae_world_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(rw, "# TYPE htrae_world_queue_depth gauge\n")
	fmt.Fprintf(rw, "htrae_world_queue_depth{world=%q,queue=%q} %d\n", id, "inbox", m.QueueDepths.Inbox)
	fmt.Fprintf(rw, "htrae_world_queue_depth{world=%q,queue=%q} %d\n", id, "attach", m.QueueDepths.Attach)
	fmt.Fprintf(rw, "htrae_world_queue_depth{world=%q,queue=%q} %d\n", id, "leave", m.QueueDepths.Leave)
	fmt.Fprintf(rw, "htrae_world_queue_depth{world=%q,queue=%q} %d\n", id, "calls", m.QueueDepths.Calls)

	fmt.Fprintf(rw, "# HELP htrae_world_step_ms Last tick step duration in milliseconds.\n")
	fmt.Fprintf(rw, "# TYPE htrae_world_step_ms gauge\n")
	fmt.Fprintf(rw, "htrae_world_step_ms{world=%q} %.3f\n", id, m.StepMS)

	fmt.Fprintf(rw, "# HELP htrae_world_day Simulated day.\n")
	fmt.Fprintf(rw, "# TYPE htrae_world_day gauge\n")
	fmt.Fprintf(rw, "htrae_world_day{world=%q} %d\n", id, m.Day)

	fmt.Fprintf(rw, "# HELP htrae_spectra_mood Spectra mood dimensions (0..100).\n")
	fmt.Fprintf(rw, "# TYPE htrae_spectra_mood gauge\n")
	fmt.Fprintf(rw, "htrae_spectra_mood{world=%q,dimension=%q} %d\n", id, "curiosity", m.MoodCuriosity)
	fmt.Fprintf(rw, "htrae_spectra_mood{world=%q,dimension=%q} %d\n", id, "social", m.MoodSocial)
	fmt.Fprintf(rw, "htrae_spectra_mood{world=%q,dimension=%q} %d\n", id, "energy", m.MoodEnergy)

	fmt.Fprintf(rw, "# HELP htrae_world_metric World-level metrics (0..100).\n")
	fmt.Fprintf(rw, "# TYPE htrae_world_metric gauge\n")
	fmt.Fprintf(rw, "htrae_world_metric{world=%q,metric=%q} %.3f\n", id, "political_tension", m.PoliticalTension)
	fmt.Fprintf(rw, "htrae_world_metric{world=%q,metric=%q} %.3f\n", id, "magic_tech_balance", m.MagicTechBalance)
	fmt.Fprintf(rw, "htrae_world_metric{world=%q,metric=%q} %.3f\n", id, "economic_stability", m.Stability)

	if st, ok := s.index.(IndexStatser); ok {
		writeIndexMetrics(rw, id, st.Stats())
	}
}

func writeIndexMetrics(rw http.ResponseWriter, id string, st indexdb.Stats) {
	fmt.Fprintf(rw, "# HELP htrae_index_queue_depth Transcript index queue depth.\n")
	fmt.Fprintf(rw, "# TYPE htrae_index_queue_depth gauge\n")
	fmt.Fprintf(rw, "htrae_index_queue_depth{world=%q} %d\n", id, st.QueueDepth)

	fmt.Fprintf(rw, "# HELP htrae_index_dropped_total Index writes dropped under backpressure.\n")
	fmt.Fprintf(rw, "# TYPE htrae_index_dropped_total counter\n")
	fmt.Fprintf(rw, "htrae_index_dropped_total{world=%q,kind=%q} %d\n", id, "tick", st.DropTickTotal)
	fmt.Fprintf(rw, "htrae_index_dropped_total{world=%q,kind=%q} %d\n", id, "audit", st.DropAuditTotal)
	fmt.Fprintf(rw, "htrae_index_dropped_total{world=%q,kind=%q} %d\n", id, "message", st.DropMessageTotal)
	fmt.Fprintf(rw, "htrae_index_dropped_total{world=%q,kind=%q} %d\n", id, "event", st.DropEventTotal)
}
