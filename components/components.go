// Package components defines ECS components for swarm agents.
package components

// Position is an agent's integer cell within the grid.
type Position struct {
	X, Y int
}

// Heading is the agent's direction of travel in radians.
type Heading struct {
	Angle float32
}

// Energy holds an agent's energy budget.
type Energy struct {
	Value   float32
	Dead    bool // set when Value reaches zero; the agent is inert until replaced
	Bounced bool // took the danger branch during the last step
}

// Fitness is a bounded ring of recent energy samples and its decayed average.
type Fitness struct {
	Samples []float32
	Head    int // next write index
	Count   int
	Value   float32
}

// Push records one energy sample, overwriting the oldest once full.
func (f *Fitness) Push(v float32) {
	if len(f.Samples) == 0 {
		return
	}
	f.Samples[f.Head] = v
	f.Head = (f.Head + 1) % len(f.Samples)
	if f.Count < len(f.Samples) {
		f.Count++
	}
}

// Reset clears all samples.
func (f *Fitness) Reset() {
	for i := range f.Samples {
		f.Samples[i] = 0
	}
	f.Head, f.Count, f.Value = 0, 0, 0
}

// Full reports whether the ring holds a full window of samples.
func (f *Fitness) Full() bool {
	return len(f.Samples) > 0 && f.Count == len(f.Samples)
}

// DecayedMean returns the average of the samples with the newest weighted 1
// and each older sample weighted by a further factor of decay.
func (f *Fitness) DecayedMean(decay float32) float32 {
	if f.Count == 0 {
		return 0
	}
	n := len(f.Samples)
	var sum, wsum float64
	w := 1.0
	for k := 0; k < f.Count; k++ {
		idx := (f.Head - 1 - k + n) % n
		sum += w * float64(f.Samples[idx])
		wsum += w
		w *= float64(decay)
	}
	if wsum == 0 {
		return 0
	}
	return float32(sum / wsum)
}

// Lineage holds identity and bookkeeping for an agent.
type Lineage struct {
	Slot       int   // stable index within the population
	Species    uint8 // index into the species profiles
	Age        int   // steps since spawn
	BornStep   int
	Generation int
}
