package systems

import (
	"math/rand/v2"
	"testing"

	"github.com/pthm-cable/microswarm/components"
	"github.com/pthm-cable/microswarm/config"
)

func evolutionFixture(t *testing.T, n int) (*Evolution, *Population, *FieldStore, *Spawner) {
	t.Helper()
	cfg := agentConfig(16, 16)
	cfg.Evolution.Enable = true
	cfg.Evolution.FitnessWindow = 1
	cfg.Evolution.EliteFrac = 0.2
	cfg.Evolution.CullFrac = 0.2
	cfg.Evolution.GlobalSpawnFrac = 0
	cfg.Evolution.MinEnergyToStore = 1.6

	fs := NewFieldStore(cfg, nil)
	pop := NewPopulation(cfg.Evolution.FitnessWindow)
	for i := 0; i < n; i++ {
		pop.Add(Agent{X: i % 16, Y: i / 16, Energy: 0.1 * float32(i+1), Genome: unitGenome()})
	}
	return NewEvolution(cfg, n), pop, fs, NewSpawner(cfg)
}

func TestEvolutionDisabledIsInert(t *testing.T) {
	evo, pop, fs, spawn := evolutionFixture(t, 10)
	evo.cfg.Enable = false
	_, _, energy, _, _, _ := pop.Get(9)
	energy.Value = 5
	_, _, dead, _, _, _ := pop.Get(0)
	dead.Dead = true

	var stats StepStats
	evo.Step(0, pop, fs, spawn, rand.New(rand.NewPCG(1, 1)), &stats)

	if evo.PersonalSize() != 0 || evo.Global.Len() != 0 {
		t.Error("disabled evolution must not archive")
	}
	if stats != (StepStats{}) {
		t.Errorf("disabled evolution must not act, stats %+v", stats)
	}
	if !pop.Snapshot(0).Dead {
		t.Error("disabled evolution must not replace agents")
	}
}

func TestEvolutionStoresAndRetainsEnergy(t *testing.T) {
	evo, pop, fs, spawn := evolutionFixture(t, 10)
	evo.cfg.SelectionInterval = 1000
	_, _, energy, _, _, _ := pop.Get(3)
	energy.Value = 2

	var stats StepStats
	evo.Step(0, pop, fs, spawn, rand.New(rand.NewPCG(1, 1)), &stats)

	if evo.Personal[3].Len() != 1 || stats.Stored != 1 {
		t.Fatalf("expected one stored entry, got %d (stats %+v)", evo.Personal[3].Len(), stats)
	}
	e, _ := evo.Personal[3].Best()
	if e.Energy != 2 || e.Slot != 3 || e.Step != 0 {
		t.Errorf("unexpected entry %+v", e)
	}
	if got := pop.Snapshot(3).Energy; !near(got, 2*evo.retain) {
		t.Errorf("stored agent should retain %f energy, got %f", 2*evo.retain, got)
	}
}

func TestEvolutionReplacesDead(t *testing.T) {
	evo, pop, fs, spawn := evolutionFixture(t, 10)
	evo.cfg.SelectionInterval = 1000
	_, _, energy, _, _, _ := pop.Get(4)
	energy.Value, energy.Dead = 0, true

	var stats StepStats
	evo.Step(7, pop, fs, spawn, rand.New(rand.NewPCG(1, 1)), &stats)

	a := pop.Snapshot(4)
	if a.Dead || stats.Replaced != 1 {
		t.Fatalf("dead agent should be replaced, got %+v (stats %+v)", a, stats)
	}
	if a.Age != 0 || a.BornStep != 7 || a.Generation != 1 {
		t.Errorf("replacement bookkeeping wrong: %+v", a)
	}
	if a.Energy < spawn.energyMin || a.Energy > spawn.energyMax {
		t.Errorf("replacement energy %f outside start range", a.Energy)
	}
	if pop.Len() != 10 {
		t.Errorf("population size changed to %d", pop.Len())
	}
}

func TestEvolutionSelectionCullsLowest(t *testing.T) {
	evo, pop, fs, spawn := evolutionFixture(t, 10)

	var stats StepStats
	evo.Step(0, pop, fs, spawn, rand.New(rand.NewPCG(3, 3)), &stats)

	if stats.Selected != 1 || stats.Replaced != 2 {
		t.Fatalf("expected one selection replacing 2 agents, got %+v", stats)
	}
	for slot := 0; slot < 10; slot++ {
		gen := pop.Snapshot(slot).Generation
		culled := slot < 2
		if culled && gen != 1 {
			t.Errorf("slot %d should be a mutated offspring, generation %d", slot, gen)
		}
		if !culled && gen != 0 {
			t.Errorf("slot %d should survive selection, generation %d", slot, gen)
		}
	}
}

func TestEvolutionTopEliteReachesGlobalArchive(t *testing.T) {
	evo, pop, fs, spawn := evolutionFixture(t, 10)
	_, _, energy, _, _, _ := pop.Get(9)
	energy.Value = 5

	var stats StepStats
	evo.Step(0, pop, fs, spawn, rand.New(rand.NewPCG(1, 1)), &stats)

	if evo.Global.Len() != 1 {
		t.Fatalf("top elite should be archived globally, global size %d", evo.Global.Len())
	}
	if e, _ := evo.Global.Best(); e.Slot != 9 {
		t.Errorf("global entry from slot %d, want 9", e.Slot)
	}
}

func TestEvolutionAllDeadFallsBackToRandom(t *testing.T) {
	evo, pop, fs, spawn := evolutionFixture(t, 5)
	for slot := 0; slot < pop.Len(); slot++ {
		_, _, energy, _, _, _ := pop.Get(slot)
		energy.Value, energy.Dead = 0, true
	}

	var stats StepStats
	evo.Step(0, pop, fs, spawn, rand.New(rand.NewPCG(1, 1)), &stats)

	if stats.Replaced != 5 || pop.AliveCount() != 5 {
		t.Fatalf("every agent should be replaced, stats %+v alive %d", stats, pop.AliveCount())
	}
	for slot := 0; slot < pop.Len(); slot++ {
		if pop.Snapshot(slot).Generation != 0 {
			t.Error("with no elites, replacements must be fresh random genomes")
		}
	}
}

func TestMutateStaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 5))
	g := unitGenome()
	for i := 0; i < 500; i++ {
		g = Mutate(g, rng, 0.5, 0.5)
		for j, d := range components.GeneDescriptors() {
			if g.Genes[j] < d.Min || g.Genes[j] > d.Max {
				t.Fatalf("gene %s = %f outside [%f,%f]", d.ID, g.Genes[j], d.Min, d.Max)
			}
		}
	}
}

func TestSpawnerResourceBiasedPlacement(t *testing.T) {
	cfg := agentConfig(8, 8)
	cfg.Evolution.SpawnMode = "resource"
	fs := NewFieldStore(cfg, nil)
	fs.Fill(Resources, 0.5)
	s := NewSpawner(cfg)
	rng := rand.New(rand.NewPCG(2, 2))
	for i := 0; i < 50; i++ {
		x, y := s.Place(rng, fs)
		if !fs.Field(Resources).InBounds(x, y) {
			t.Fatalf("placement (%d,%d) out of bounds", x, y)
		}
	}
}

func TestSpawnerDrawSpecies(t *testing.T) {
	cfg := agentConfig(4, 4)
	cfg.Species.Profiles = []config.SpeciesProfile{flatProfile, flatProfile}
	cfg.Species.Fracs = []float32{0, 1}
	s := NewSpawner(cfg)
	rng := rand.New(rand.NewPCG(1, 9))
	for i := 0; i < 100; i++ {
		if sp := s.DrawSpecies(rng); sp != 1 {
			t.Fatalf("zero-fraction species drawn: %d", sp)
		}
	}
}
