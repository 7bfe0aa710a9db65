package sim

import (
	"github.com/pthm-cable/microswarm/systems"
	"github.com/pthm-cable/microswarm/telemetry"
)

// Metrics is a point-in-time summary of the population and archives.
type Metrics struct {
	Step               int
	Agents             int
	Alive              int
	DNAGlobal          int
	DNABySpecies       []int // personal entries per donor species
	AvgEnergy          float32
	AvgEnergyBySpecies []float32
}

// Metrics summarises the current state.
func (s *Simulation) Metrics() Metrics {
	bySpecies, global := s.DNASizes()
	avg, _, _ := s.EnergyStats()
	return Metrics{
		Step:               s.step,
		Agents:             s.pop.Len(),
		Alive:              s.pop.AliveCount(),
		DNAGlobal:          global,
		DNABySpecies:       bySpecies,
		AvgEnergy:          avg,
		AvgEnergyBySpecies: s.EnergyBySpecies(),
	}
}

// EnergyStats returns the mean, minimum and maximum energy over all agents.
func (s *Simulation) EnergyStats() (avg, lo, hi float32) {
	n := s.pop.Len()
	if n == 0 {
		return 0, 0, 0
	}
	var sum float64
	for slot := 0; slot < n; slot++ {
		_, _, energy, _, _, _ := s.pop.Get(slot)
		v := energy.Value
		if slot == 0 || v < lo {
			lo = v
		}
		if slot == 0 || v > hi {
			hi = v
		}
		sum += float64(v)
	}
	return float32(sum / float64(n)), lo, hi
}

// EnergyBySpecies returns the mean energy of each species; species without
// agents report 0.
func (s *Simulation) EnergyBySpecies() []float32 {
	k := len(s.cfg.Species.Profiles)
	sums := make([]float64, k)
	counts := make([]int, k)
	for slot := 0; slot < s.pop.Len(); slot++ {
		_, _, energy, _, _, lin := s.pop.Get(slot)
		if int(lin.Species) < k {
			sums[lin.Species] += float64(energy.Value)
			counts[lin.Species]++
		}
	}
	out := make([]float32, k)
	for i := range out {
		if counts[i] > 0 {
			out[i] = float32(sums[i] / float64(counts[i]))
		}
	}
	return out
}

// Entropy returns histogram statistics for every field, in kind order.
func (s *Simulation) Entropy() []telemetry.FieldStats {
	out := make([]telemetry.FieldStats, 0, systems.NumKinds)
	for _, k := range systems.Kinds() {
		fs := telemetry.ComputeFieldStats(s.fields.Field(k).Data, s.cfg.Telemetry.EntropyBins)
		fs.Step = s.step
		fs.Field = k.String()
		out = append(out, fs)
	}
	return out
}

// MycelStats returns the minimum, maximum and mean mycel density.
func (s *Simulation) MycelStats() (lo, hi, mean float32) {
	data := s.fields.Field(systems.Mycel).Data
	if len(data) == 0 {
		return 0, 0, 0
	}
	lo, hi = data[0], data[0]
	var sum float64
	for _, v := range data {
		lo = min(lo, v)
		hi = max(hi, v)
		sum += float64(v)
	}
	return lo, hi, float32(sum / float64(len(data)))
}

// PhaseTimings returns step timing over the recent perf window.
func (s *Simulation) PhaseTimings() telemetry.PerfStats {
	return s.perf.Stats()
}

// WindowSample samples the end-of-window state for a telemetry collector.
func (s *Simulation) WindowSample() telemetry.WindowSample {
	sample := telemetry.WindowSample{
		Agents:      s.pop.Len(),
		Energies:    make([]float64, 0, s.pop.Len()),
		DNAPersonal: s.evo.PersonalSize(),
		DNAGlobal:   s.evo.Global.Len(),
	}
	for slot := 0; slot < s.pop.Len(); slot++ {
		_, _, energy, _, _, lin := s.pop.Get(slot)
		if energy.Dead {
			continue
		}
		sample.Alive++
		sample.Energies = append(sample.Energies, float64(energy.Value))
		sample.MaxGeneration = max(sample.MaxGeneration, lin.Generation)
	}
	if best, ok := s.evo.Global.Best(); ok {
		sample.DNABest = float64(best.Fitness)
	}
	for _, a := range s.evo.Personal {
		if best, ok := a.Best(); ok {
			sample.DNABest = max(sample.DNABest, float64(best.Fitness))
		}
	}
	for _, v := range s.fields.Field(systems.Resources).Data {
		sample.TotalResources += float64(v)
	}
	_, _, mean := s.MycelStats()
	sample.MycelMean = float64(mean)
	return sample
}
