package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartStep()
		pc.StartPhase(PhaseFields)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseAgents)
		time.Sleep(200 * time.Microsecond)
		pc.EndStep()
	}

	stats := pc.Stats()
	if stats.AvgStepDuration <= 0 {
		t.Error("expected positive average step duration")
	}
	if _, ok := stats.PhaseAvg[PhaseFields]; !ok {
		t.Error("expected fields phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[PhaseAgents]; !ok {
		t.Error("expected agents phase to be tracked")
	}
	if stats.PhasePct[PhaseAgents] <= stats.PhasePct[PhaseFields] {
		t.Errorf("expected agents (%v%%) > fields (%v%%)", stats.PhasePct[PhaseAgents], stats.PhasePct[PhaseFields])
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)
	for i := 0; i < 10; i++ {
		pc.StartStep()
		pc.StartPhase(PhaseMycel)
		time.Sleep(10 * time.Microsecond)
		pc.EndStep()
	}

	stats := pc.Stats()
	if stats.AvgStepDuration <= 0 {
		t.Error("expected positive average step duration after window filled")
	}
	if stats.StepsPerSecond <= 0 {
		t.Error("expected positive steps per second")
	}
}

func TestPerfCollector_EmptyAndReset(t *testing.T) {
	pc := NewPerfCollector(10)
	stats := pc.Stats()
	if stats.AvgStepDuration != 0 || stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("empty collector should return zero stats with non-nil maps")
	}

	pc.StartStep()
	pc.StartPhase(PhaseEvolution)
	pc.EndStep()
	pc.Reset()
	if got := pc.Stats(); got.AvgStepDuration != 0 || len(got.PhaseAvg) != 0 {
		t.Error("reset should drop all samples")
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	s := PerfStats{
		AvgStepDuration: 2 * time.Millisecond,
		PhasePct:        map[string]float64{PhaseAgents: 60, PhaseFields: 30},
	}
	row := s.ToCSV(500)
	if row.WindowEnd != 500 || row.AvgStepUS != 2000 || row.AgentsPct != 60 || row.FieldsPct != 30 {
		t.Errorf("unexpected csv row %+v", row)
	}
}

func TestPerfCollector_OnlyEnteredPhasesReported(t *testing.T) {
	pc := NewPerfCollector(4)
	pc.StartStep()
	pc.StartPhase(PhaseFields)
	pc.StartPhase("unknown")
	pc.EndStep()

	stats := pc.Stats()
	if _, ok := stats.PhaseAvg[PhaseFields]; !ok {
		t.Error("fields phase missing")
	}
	if _, ok := stats.PhaseAvg[PhaseStress]; ok {
		t.Error("stress phase reported without running")
	}
	if len(stats.PhaseAvg) != 1 {
		t.Errorf("PhaseAvg = %v, want only fields", stats.PhaseAvg)
	}
	if stats.MinStepDuration > stats.MaxStepDuration {
		t.Errorf("min %v > max %v", stats.MinStepDuration, stats.MaxStepDuration)
	}
}
