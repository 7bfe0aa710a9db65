package telemetry

import "github.com/pthm-cable/microswarm/systems"

// Collector accumulates step events within fixed windows and produces WindowStats.
type Collector struct {
	windowSteps int
	windowStart int

	// Event counters for current window
	deaths     int
	replaced   int
	bounces    int
	stored     int
	selections int
	harvested  float64
}

// NewCollector creates a collector flushing every windowSteps steps.
func NewCollector(windowSteps int) *Collector {
	if windowSteps < 1 {
		windowSteps = 1
	}
	return &Collector{windowSteps: windowSteps}
}

// Record adds one batch of step counters to the current window.
func (c *Collector) Record(s systems.StepStats) {
	c.deaths += s.Deaths
	c.replaced += s.Replaced
	c.bounces += s.Bounces
	c.stored += s.Stored
	c.selections += s.Selected
	c.harvested += s.Harvested
}

// ShouldFlush reports whether the current window is complete at step.
func (c *Collector) ShouldFlush(step int) bool {
	return step-c.windowStart >= c.windowSteps
}

// WindowSample holds the end-of-window state sampled by the caller.
type WindowSample struct {
	Agents         int
	Alive          int
	Energies       []float64
	DNAPersonal    int
	DNAGlobal      int
	DNABest        float64
	MaxGeneration  int
	TotalResources float64
	MycelMean      float64
}

// Flush produces a WindowStats ending at step and resets the counters.
func (c *Collector) Flush(step int, sample WindowSample) WindowStats {
	mean, p10, p50, p90 := ComputeEnergyStats(sample.Energies)

	stats := WindowStats{
		WindowStart: c.windowStart,
		WindowEnd:   step,

		Agents: sample.Agents,
		Alive:  sample.Alive,

		Deaths:     c.deaths,
		Replaced:   c.replaced,
		Bounces:    c.bounces,
		Stored:     c.stored,
		Selections: c.selections,
		Harvested:  c.harvested,

		EnergyMean: mean,
		EnergyP10:  p10,
		EnergyP50:  p50,
		EnergyP90:  p90,

		DNAPersonal:   sample.DNAPersonal,
		DNAGlobal:     sample.DNAGlobal,
		DNABest:       sample.DNABest,
		MaxGeneration: sample.MaxGeneration,

		TotalResources: sample.TotalResources,
		MycelMean:      sample.MycelMean,
	}

	c.windowStart = step
	c.deaths, c.replaced, c.bounces, c.stored, c.selections = 0, 0, 0, 0, 0
	c.harvested = 0

	return stats
}

// WindowSteps returns the number of steps per window.
func (c *Collector) WindowSteps() int {
	return c.windowSteps
}
