package world

type WorldMetrics struct {
	Tick uint64 `json:"tick"`

	Running  bool `json:"running"`
	Sessions int  `json:"sessions"`
	Joined   int  `json:"joined"`

	Messages int `json:"messages"`
	Memories int `json:"memories"`

	DroppedFrames uint64 `json:"dropped_frames"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`

	Day  int    `json:"day"`
	Time string `json:"time"`

	MoodEnergy    int `json:"mood_energy"`
	MoodSocial    int `json:"mood_social"`
	MoodCuriosity int `json:"mood_curiosity"`

	PoliticalTension float64 `json:"political_tension"`
	MagicTechBalance float64 `json:"magic_tech_balance"`
	Stability        float64 `json:"stability"`
}

type QueueDepths struct {
	Inbox  int `json:"inbox"`
	Attach int `json:"attach"`
	Leave  int `json:"leave"`
	Calls  int `json:"calls"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}

// publishMetrics refreshes the snapshot read by Metrics. stepMS <= 0 keeps
// the previous step duration.
func (w *World) publishMetrics(stepMS float64) {
	prev := w.Metrics()
	if stepMS <= 0 {
		stepMS = prev.StepMS
	}
	joined := 0
	for _, s := range w.sessions {
		if s.playerID != "" {
			joined++
		}
	}
	m := WorldMetrics{
		Tick:          w.tick.Load(),
		Running:       w.running,
		Sessions:      len(w.sessions),
		Joined:        joined,
		Messages:      w.store.MessageCount(),
		Memories:      w.mem.Len(),
		DroppedFrames: w.droppedFrames.Load(),
		QueueDepths: QueueDepths{
			Inbox:  len(w.inbox),
			Attach: len(w.attach),
			Leave:  len(w.leave),
			Calls:  len(w.calls),
		},
		StepMS: stepMS,
	}
	if sp, ok := w.store.Spectra(); ok {
		m.MoodEnergy = sp.Mood.Energy
		m.MoodSocial = sp.Mood.Social
		m.MoodCuriosity = sp.Mood.Curiosity
	}
	if ws, ok := w.store.WorldState(); ok {
		m.Day = ws.CurrentDay
		m.Time = ws.CurrentTime
		m.PoliticalTension = ws.PoliticalTension
		m.MagicTechBalance = ws.MagicTechBalance
		m.Stability = ws.EconomicState.Stability
	}
	w.metrics.Store(m)
}
