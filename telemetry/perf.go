package telemetry

import (
	"log/slog"
	"time"
)

// Step phases, in execution order.
const (
	PhaseFields    = "fields"
	PhaseMycel     = "mycel"
	PhaseAgents    = "agents"
	PhaseEvolution = "evolution"
	PhaseStress    = "stress"
)

// Phases lists every step phase in execution order.
var Phases = []string{PhaseFields, PhaseMycel, PhaseAgents, PhaseEvolution, PhaseStress}

const numPhases = 5

func phaseIndex(name string) int {
	for i, p := range Phases {
		if p == name {
			return i
		}
	}
	return -1
}

// stepTiming is one recorded step. ran marks the phases that were entered.
type stepTiming struct {
	total time.Duration
	phase [numPhases]time.Duration
	ran   [numPhases]bool
}

// PerfCollector keeps the last n step timings in a ring.
// Not safe for concurrent use; the owning simulation drives it.
type PerfCollector struct {
	ring []stepTiming
	next int
	full bool

	cur        stepTiming
	stepStart  time.Time
	phaseStart time.Time
	active     int // index into Phases, -1 between phases
}

// NewPerfCollector averages over the last n steps (60 if n < 1).
func NewPerfCollector(n int) *PerfCollector {
	if n < 1 {
		n = 60
	}
	return &PerfCollector{ring: make([]stepTiming, n), active: -1}
}

func (p *PerfCollector) StartStep() {
	p.cur = stepTiming{}
	p.active = -1
	p.stepStart = time.Now()
}

// StartPhase closes the running phase and opens phase. Names outside Phases
// only close the running one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.closePhase(now)
	p.active = phaseIndex(phase)
	if p.active >= 0 {
		p.cur.ran[p.active] = true
	}
	p.phaseStart = now
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.active >= 0 {
		p.cur.phase[p.active] += now.Sub(p.phaseStart)
	}
	p.active = -1
}

func (p *PerfCollector) EndStep() {
	now := time.Now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.stepStart)
	p.ring[p.next] = p.cur
	p.next++
	if p.next == len(p.ring) {
		p.next, p.full = 0, true
	}
}

// Reset drops every recorded step.
func (p *PerfCollector) Reset() {
	clear(p.ring)
	p.next, p.full, p.active = 0, false, -1
}

func (p *PerfCollector) recorded() []stepTiming {
	if p.full {
		return p.ring
	}
	return p.ring[:p.next]
}

// PerfStats summarises the collector window. PhasePct is each phase's share
// of the average step, in percent.
type PerfStats struct {
	AvgStepDuration time.Duration
	MinStepDuration time.Duration
	MaxStepDuration time.Duration
	StepsPerSecond  float64

	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64
}

// Stats aggregates the window. Phases that never ran are absent from the maps.
func (p *PerfCollector) Stats() PerfStats {
	out := PerfStats{
		PhaseAvg: make(map[string]time.Duration, numPhases),
		PhasePct: make(map[string]float64, numPhases),
	}
	steps := p.recorded()
	if len(steps) == 0 {
		return out
	}

	var sum stepTiming
	out.MinStepDuration = steps[0].total
	for _, st := range steps {
		sum.total += st.total
		out.MinStepDuration = min(out.MinStepDuration, st.total)
		out.MaxStepDuration = max(out.MaxStepDuration, st.total)
		for i := range numPhases {
			sum.phase[i] += st.phase[i]
			sum.ran[i] = sum.ran[i] || st.ran[i]
		}
	}

	n := time.Duration(len(steps))
	out.AvgStepDuration = sum.total / n
	if out.AvgStepDuration > 0 {
		out.StepsPerSecond = float64(time.Second) / float64(out.AvgStepDuration)
	}
	for i, name := range Phases {
		if !sum.ran[i] {
			continue
		}
		avg := sum.phase[i] / n
		out.PhaseAvg[name] = avg
		if out.AvgStepDuration > 0 {
			out.PhasePct[name] = 100 * float64(avg) / float64(out.AvgStepDuration)
		}
	}
	return out
}

// LogStats emits one "perf" record; phases under 0.1% are left out.
func (s PerfStats) LogStats(logger *slog.Logger) {
	attrs := []any{
		"avg_step_us", s.AvgStepDuration.Microseconds(),
		"min_step_us", s.MinStepDuration.Microseconds(),
		"max_step_us", s.MaxStepDuration.Microseconds(),
		"steps_per_sec", int(s.StepsPerSecond),
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10)
		}
	}
	logger.Info("perf", attrs...)
}

// LogValue lets a PerfStats be passed directly as a slog attribute.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_step_us", s.AvgStepDuration.Microseconds()),
		slog.Int64("min_step_us", s.MinStepDuration.Microseconds()),
		slog.Int64("max_step_us", s.MaxStepDuration.Microseconds()),
		slog.Float64("steps_per_sec", s.StepsPerSecond),
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd    int     `csv:"window_end"`
	AvgStepUS    int64   `csv:"avg_step_us"`
	MinStepUS    int64   `csv:"min_step_us"`
	MaxStepUS    int64   `csv:"max_step_us"`
	StepsPerSec  float64 `csv:"steps_per_sec"`
	FieldsPct    float64 `csv:"fields_pct"`
	MycelPct     float64 `csv:"mycel_pct"`
	AgentsPct    float64 `csv:"agents_pct"`
	EvolutionPct float64 `csv:"evolution_pct"`
	StressPct    float64 `csv:"stress_pct"`
}

// ToCSV flattens s for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgStepUS:    s.AvgStepDuration.Microseconds(),
		MinStepUS:    s.MinStepDuration.Microseconds(),
		MaxStepUS:    s.MaxStepDuration.Microseconds(),
		StepsPerSec:  s.StepsPerSecond,
		FieldsPct:    s.PhasePct[PhaseFields],
		MycelPct:     s.PhasePct[PhaseMycel],
		AgentsPct:    s.PhasePct[PhaseAgents],
		EvolutionPct: s.PhasePct[PhaseEvolution],
		StressPct:    s.PhasePct[PhaseStress],
	}
}
