package systems

import (
	"math"
	"math/rand/v2"

	"github.com/pthm-cable/microswarm/components"
	"github.com/pthm-cable/microswarm/config"
)

// resourceProbes is the number of cells sampled by resource-biased placement.
const resourceProbes = 4

// Spawner creates fresh agents: placement, species draw and starting energy.
type Spawner struct {
	energyMin, energyMax float32
	fracs                []float32
	resourceBiased       bool
}

// NewSpawner creates a spawner from configuration.
func NewSpawner(cfg *config.Config) *Spawner {
	s := &Spawner{}
	s.Configure(cfg)
	return s
}

// Configure reloads spawn parameters.
func (s *Spawner) Configure(cfg *config.Config) {
	s.energyMin = cfg.Agent.StartEnergyMin
	s.energyMax = cfg.Agent.StartEnergyMax
	s.fracs = append(s.fracs[:0], cfg.Species.Fracs...)
	s.resourceBiased = cfg.Evolution.SpawnMode == "resource"
}

// DrawSpecies picks a species index with probability proportional to its fraction.
func (s *Spawner) DrawSpecies(rng *rand.Rand) uint8 {
	var total float32
	for _, f := range s.fracs {
		total += f
	}
	r := float32(rng.Float64()) * total
	for i, f := range s.fracs {
		r -= f
		if r < 0 {
			return uint8(i)
		}
	}
	return uint8(len(s.fracs) - 1)
}

// Place picks a spawn cell: uniform, or the richest of a few random probes.
func (s *Spawner) Place(rng *rand.Rand, fs *FieldStore) (int, int) {
	x, y := rng.IntN(fs.W), rng.IntN(fs.H)
	if !s.resourceBiased {
		return x, y
	}
	res := fs.fields[Resources]
	best := res.At(x, y)
	for i := 1; i < resourceProbes; i++ {
		cx, cy := rng.IntN(fs.W), rng.IntN(fs.H)
		if v := res.At(cx, cy); v > best {
			x, y, best = cx, cy, v
		}
	}
	return x, y
}

// New builds a fresh agent carrying genome at a spawn cell.
func (s *Spawner) New(rng *rand.Rand, fs *FieldStore, genome components.Genome, species uint8, step int) Agent {
	x, y := s.Place(rng, fs)
	return Agent{
		X:        x,
		Y:        y,
		Heading:  uniform(rng.Float64(), 0, 2*math.Pi),
		Energy:   uniform(rng.Float64(), s.energyMin, s.energyMax),
		Genome:   genome,
		Species:  species,
		BornStep: step,
	}
}

// Random builds an agent with a random genome and species.
func (s *Spawner) Random(rng *rand.Rand, fs *FieldStore, step int) Agent {
	species := s.DrawSpecies(rng)
	return s.New(rng, fs, RandomGenome(rng), species, step)
}

// RespawnDead replaces every dead agent with a random one, keeping the
// population size constant. Used when evolution is disabled.
func (s *Spawner) RespawnDead(pop *Population, fs *FieldStore, rng *rand.Rand, step int, stats *StepStats) {
	for slot := 0; slot < pop.Len(); slot++ {
		_, _, energy, _, _, _ := pop.Get(slot)
		if !energy.Dead {
			continue
		}
		pop.Replace(slot, s.Random(rng, fs, step))
		stats.Replaced++
	}
}
