package systems

import (
	"math/rand/v2"
	"sort"

	"github.com/pthm-cable/microswarm/components"
	"github.com/pthm-cable/microswarm/config"
)

// Evolution tracks fitness, archives successful genomes and replaces dead
// and culled agents. When disabled it does nothing at all.
type Evolution struct {
	cfg          config.EvolutionConfig
	survivalBias float32
	retain       float32
	profiles     []config.SpeciesProfile

	Global   *Archive
	Personal []*Archive // one per population slot

	ranked  []int  // scratch: live slots by fitness, descending
	replace []bool // scratch: slots to replace this step
}

// NewEvolution creates the engine with archives sized for agents slots.
func NewEvolution(cfg *config.Config, agents int) *Evolution {
	e := &Evolution{Global: NewArchive(cfg.DNA.GlobalCapacity)}
	e.Configure(cfg)
	e.Resize(agents, cfg.DNA.Capacity)
	return e
}

// Configure reloads evolution parameters. Archive contents are kept.
func (e *Evolution) Configure(cfg *config.Config) {
	e.cfg = cfg.Evolution
	e.survivalBias = cfg.DNA.SurvivalBias
	e.retain = cfg.DNA.StoreEnergyRetain
	e.profiles = append(e.profiles[:0], cfg.Species.Profiles...)
}

// Enabled reports whether evolution runs.
func (e *Evolution) Enabled() bool { return e.cfg.Enable }

// Resize sets the number of personal archives, creating empty ones as needed.
func (e *Evolution) Resize(agents, capacity int) {
	for len(e.Personal) < agents {
		e.Personal = append(e.Personal, NewArchive(capacity))
	}
	e.Personal = e.Personal[:agents]
}

// SetCapacity changes both archive bounds, trimming the lowest entries.
func (e *Evolution) SetCapacity(personal, global int) {
	for _, a := range e.Personal {
		a.SetCapacity(personal)
	}
	e.Global.SetCapacity(global)
}

// Clear empties every archive.
func (e *Evolution) Clear() {
	for _, a := range e.Personal {
		a.Clear()
	}
	e.Global.Clear()
}

// PersonalSize returns the total number of entries across personal archives.
func (e *Evolution) PersonalSize() int {
	n := 0
	for _, a := range e.Personal {
		n += a.Len()
	}
	return n
}

// Step runs one sampling point: fitness update, archiving, periodic
// selection, and replacement of every dead or culled agent.
func (e *Evolution) Step(step int, pop *Population, fs *FieldStore, spawn *Spawner, rng *rand.Rand, stats *StepStats) {
	if !e.cfg.Enable {
		return
	}

	e.Global.Decay(e.cfg.AgeDecay)
	for _, a := range e.Personal {
		a.Decay(e.cfg.AgeDecay)
	}

	// Sampling
	for slot := 0; slot < pop.Len(); slot++ {
		_, _, energy, genome, fit, lin := pop.Get(slot)
		if energy.Dead {
			continue
		}
		fit.Push(energy.Value)
		fit.Value = fit.DecayedMean(e.cfg.AgeDecay)

		if energy.Value >= e.cfg.MinEnergyToStore {
			e.Personal[slot].Insert(ArchiveEntry{
				Genome:  *genome,
				Fitness: fit.Value,
				Energy:  energy.Value,
				Step:    step,
				Slot:    slot,
				Species: lin.Species,
			})
			energy.Value *= e.retain
			stats.Stored++
		}
	}

	e.replace = resizeBools(e.replace, pop.Len())
	pending := 0
	for slot := 0; slot < pop.Len(); slot++ {
		_, _, energy, _, _, _ := pop.Get(slot)
		if energy.Dead {
			e.replace[slot] = true
			pending++
		}
	}

	interval := e.cfg.EffectiveSelectionInterval()
	selecting := interval > 0 && (step+1)%interval == 0
	if !selecting && pending == 0 {
		return
	}

	e.rank(pop)
	nElite := int(e.cfg.EliteFrac * float32(len(e.ranked)))

	if selecting {
		stats.Selected++
		e.archiveElites(nElite, rng)

		nCull := int(e.cfg.EffectiveCullFrac() * float32(len(e.ranked)))
		if nCull > len(e.ranked)-nElite {
			nCull = len(e.ranked) - nElite
		}
		for _, slot := range e.ranked[len(e.ranked)-nCull:] {
			if !e.replace[slot] {
				e.replace[slot] = true
				pending++
			}
		}
	}

	elites := e.ranked[:nElite]
	for slot := 0; slot < pop.Len(); slot++ {
		if !e.replace[slot] {
			continue
		}
		species := spawn.DrawSpecies(rng)
		genome, gen := e.offspring(pop, elites, species, rng)
		a := spawn.New(rng, fs, genome, species, step)
		a.Generation = gen
		pop.Replace(slot, a)
		e.Personal[slot].Clear()
		stats.Replaced++
	}
}

// rank orders live slots by fitness, descending; ties keep slot order.
func (e *Evolution) rank(pop *Population) {
	e.ranked = e.ranked[:0]
	fitness := make([]float32, pop.Len())
	for slot := 0; slot < pop.Len(); slot++ {
		_, _, energy, _, fit, _ := pop.Get(slot)
		if energy.Dead || e.replace[slot] {
			continue
		}
		fitness[slot] = fit.Value
		e.ranked = append(e.ranked, slot)
	}
	sort.SliceStable(e.ranked, func(i, j int) bool {
		return fitness[e.ranked[i]] > fitness[e.ranked[j]]
	})
}

// archiveElites offers each elite's best personal entry to the global
// archive with probability falling linearly with rank.
func (e *Evolution) archiveElites(nElite int, rng *rand.Rand) {
	for r := 0; r < nElite; r++ {
		slot := e.ranked[r]
		p := float64(nElite-r) / float64(nElite)
		if rng.Float64() >= p {
			continue
		}
		best, ok := e.Personal[slot].Best()
		if !ok || e.Global.Contains(best.Slot, best.Step) {
			continue
		}
		e.Global.Insert(best)
	}
}

// offspring draws a replacement genome: from the global archive with
// probability global_spawn_frac, otherwise a mutated elite, otherwise random.
func (e *Evolution) offspring(pop *Population, elites []int, species uint8, rng *rand.Rand) (components.Genome, int) {
	if e.Global.Len() > 0 && rng.Float64() < float64(e.cfg.GlobalSpawnFrac) {
		entry, _ := e.Global.Sample(rng, e.survivalBias)
		return entry.Genome, 0
	}
	if len(elites) == 0 {
		return RandomGenome(rng), 0
	}

	slot := elites[rng.IntN(len(elites))]
	_, _, _, genome, _, lin := pop.Get(slot)
	parent := *genome
	if entry, ok := e.Personal[slot].Sample(rng, e.survivalBias); ok {
		parent = entry.Genome
	}

	sigma, delta := e.cfg.MutationSigma, e.cfg.ExplorationDelta
	if int(species) < len(e.profiles) {
		sigma *= e.profiles[species].MutationSigmaMul
		delta *= e.profiles[species].ExplorationDeltaMul
	}
	return Mutate(parent, rng, sigma, delta), lin.Generation + 1
}

// Clone returns a deep copy of the archives and parameters.
func (e *Evolution) Clone() *Evolution {
	out := &Evolution{
		cfg:          e.cfg,
		survivalBias: e.survivalBias,
		retain:       e.retain,
		profiles:     append([]config.SpeciesProfile(nil), e.profiles...),
		Global:       e.Global.Clone(),
		Personal:     make([]*Archive, len(e.Personal)),
	}
	for i, a := range e.Personal {
		out.Personal[i] = a.Clone()
	}
	return out
}

func resizeBools(b []bool, n int) []bool {
	if cap(b) < n {
		b = make([]bool, n)
	}
	b = b[:n]
	for i := range b {
		b[i] = false
	}
	return b
}
