package systems

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/pthm-cable/microswarm/components"
	"github.com/pthm-cable/microswarm/config"
)

// flatProfile has every multiplier at 1 and no counter-deposit.
var flatProfile = config.SpeciesProfile{
	Name:                "flat",
	ExplorationMul:      1,
	FoodAttractionMul:   1,
	DangerAversionMul:   1,
	DepositFoodMul:      1,
	DepositDangerMul:    1,
	ResourceWeightMul:   1,
	MoleculeWeightMul:   1,
	MycelAttractionMul:  1,
	MutationSigmaMul:    1,
	ExplorationDeltaMul: 1,
}

func agentConfig(w, h int) *config.Config {
	cfg := testConfig(w, h)
	cfg.Species.Profiles = []config.SpeciesProfile{flatProfile}
	cfg.Species.Fracs = []float32{1}
	cfg.Agent.RandomTurn = 0
	cfg.Danger.DangerDepositScale = 0
	return cfg
}

func unitGenome() components.Genome {
	var g components.Genome
	for i := range g.Genes {
		g.Genes[i] = 1
	}
	return g
}

func TestSenseGradient(t *testing.T) {
	fs := NewFieldStore(testConfig(9, 9), nil)
	f := fs.Field(Resources)
	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			f.Data[y*9+x] = 0.1 * float32(x)
		}
	}

	g := Sense(fs, 4, 4, 1.5)
	// 8 neighbours within r=1.5; six of them have |dx| = 1
	if !near(g[Resources].X, 0.6/8) {
		t.Errorf("gradient x: got %f, want %f", g[Resources].X, 0.6/8)
	}
	if !near(g[Resources].Y, 0) {
		t.Errorf("gradient y: got %f, want 0", g[Resources].Y)
	}
	if g[PheromoneFood] != (Vec2{}) {
		t.Errorf("flat field should have zero gradient, got %+v", g[PheromoneFood])
	}

	// Radius below one sees no neighbours
	if g := Sense(fs, 4, 4, 0.5); g[Resources] != (Vec2{}) {
		t.Errorf("radius 0.5 should sense nothing, got %+v", g[Resources])
	}
	// Corners clip to the grid
	if g := Sense(fs, 0, 0, 2); g[Resources].X <= 0 {
		t.Errorf("corner gradient should still point +x, got %+v", g[Resources])
	}
}

func TestAgentBouncesOffDanger(t *testing.T) {
	cfg := agentConfig(9, 9)
	cfg.Danger.DeltaThreshold = 0
	fs := NewFieldStore(cfg, nil)
	danger := fs.Field(PheromoneDanger)
	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			danger.Data[y*9+x] = 0.1 * float32(x)
		}
	}
	before := danger.At(4, 4)

	pop := NewPopulation(4)
	pop.Add(Agent{X: 4, Y: 4, Heading: 0, Energy: 1, Genome: unitGenome()})

	sys := NewAgentSystem(cfg)
	var stats StepStats
	sys.Step(pop, fs, rand.New(rand.NewPCG(1, 1)), &stats)

	a := pop.Snapshot(0)
	if !a.Bounced || stats.Bounces != 1 {
		t.Fatalf("agent should bounce, bounced=%v stats=%+v", a.Bounced, stats)
	}
	if a.X != 3 || a.Y != 4 {
		t.Errorf("agent should move away from danger to (3,4), got (%d,%d)", a.X, a.Y)
	}
	if got := danger.At(4, 4); !near(got, before+cfg.Danger.BounceDeposit) {
		t.Errorf("bounce deposit: got %f, want %f", got, before+cfg.Danger.BounceDeposit)
	}
}

func TestAgentBelowThresholdDoesNotBounce(t *testing.T) {
	cfg := agentConfig(9, 9)
	cfg.Danger.DeltaThreshold = 10
	fs := NewFieldStore(cfg, nil)
	fs.Fill(PheromoneDanger, 0)
	fs.Field(PheromoneDanger).Data[4*9+5] = 0.5

	pop := NewPopulation(4)
	pop.Add(Agent{X: 4, Y: 4, Energy: 1, Genome: unitGenome()})
	var stats StepStats
	NewAgentSystem(cfg).Step(pop, fs, rand.New(rand.NewPCG(1, 1)), &stats)

	if stats.Bounces != 0 || pop.Snapshot(0).Bounced {
		t.Error("gradient below threshold must not bounce")
	}
}

func TestAgentReflectsAtEdge(t *testing.T) {
	cfg := agentConfig(9, 9)
	fs := NewFieldStore(cfg, nil)
	pop := NewPopulation(4)
	pop.Add(Agent{X: 8, Y: 4, Heading: 0, Energy: 1, Genome: unitGenome()})

	var stats StepStats
	NewAgentSystem(cfg).Step(pop, fs, rand.New(rand.NewPCG(1, 1)), &stats)

	a := pop.Snapshot(0)
	if a.X != 8 || a.Y != 4 {
		t.Errorf("agent should stay clamped at (8,4), got (%d,%d)", a.X, a.Y)
	}
	if math.Abs(math.Abs(float64(a.Heading))-math.Pi) > 1e-5 {
		t.Errorf("heading should reflect to pi, got %f", a.Heading)
	}
}

func TestAgentHarvestAndDeposit(t *testing.T) {
	cfg := agentConfig(9, 9)
	fs := NewFieldStore(cfg, nil)
	fs.Field(Resources).Data[4*9+5] = 0.5

	pop := NewPopulation(4)
	pop.Add(Agent{X: 4, Y: 4, Heading: 0, Energy: 1, Genome: unitGenome()})

	var stats StepStats
	NewAgentSystem(cfg).Step(pop, fs, rand.New(rand.NewPCG(1, 1)), &stats)

	a := pop.Snapshot(0)
	if a.X != 5 || a.Y != 4 {
		t.Fatalf("agent should move to (5,4), got (%d,%d)", a.X, a.Y)
	}
	take := cfg.Agent.Harvest
	if !near(a.Energy, 1-cfg.Agent.MoveCost+take) {
		t.Errorf("energy: got %f, want %f", a.Energy, 1-cfg.Agent.MoveCost+take)
	}
	if got := fs.Field(Resources).At(5, 4); !near(got, 0.5-take) {
		t.Errorf("resource left: got %f, want %f", got, 0.5-take)
	}
	wantFood := take * cfg.Agent.DepositScale * cfg.Danger.FoodDepositScale
	if got := fs.Field(PheromoneFood).At(5, 4); !near(got, wantFood) {
		t.Errorf("food deposit: got %f, want %f", got, wantFood)
	}
	if got := fs.Field(Molecules).At(5, 4); !near(got, take*cfg.Molecule.DepositScale) {
		t.Errorf("molecule deposit: got %f", got)
	}
	if a.Age != 1 {
		t.Errorf("age should advance to 1, got %d", a.Age)
	}
}

func TestAgentDiesAtZeroEnergy(t *testing.T) {
	cfg := agentConfig(5, 5)
	fs := NewFieldStore(cfg, nil)
	pop := NewPopulation(4)
	pop.Add(Agent{X: 2, Y: 2, Energy: cfg.Agent.MoveCost / 2, Genome: unitGenome()})

	sys := NewAgentSystem(cfg)
	rng := rand.New(rand.NewPCG(1, 1))
	var stats StepStats
	sys.Step(pop, fs, rng, &stats)

	a := pop.Snapshot(0)
	if !a.Dead || a.Energy != 0 || stats.Deaths != 1 {
		t.Fatalf("agent should be dead with zero energy: %+v, %+v", a, stats)
	}

	sys.Step(pop, fs, rng, &stats)
	b := pop.Snapshot(0)
	if b.X != a.X || b.Y != a.Y || stats.Deaths != 1 {
		t.Error("dead agent must stay inert")
	}
}

func TestRegulatorCounterDeposit(t *testing.T) {
	cfg := agentConfig(5, 5)
	prof := flatProfile
	prof.OverDensityThreshold = 0.6
	prof.CounterDepositMul = 0.5
	cfg.Species.Profiles = []config.SpeciesProfile{prof}
	fs := NewFieldStore(cfg, nil)
	fs.Fill(PheromoneFood, 1)

	pop := NewPopulation(4)
	pop.Add(Agent{X: 2, Y: 2, Energy: 1, Genome: unitGenome()})
	var stats StepStats
	NewAgentSystem(cfg).Step(pop, fs, rand.New(rand.NewPCG(1, 1)), &stats)

	a := pop.Snapshot(0)
	if got := fs.Field(PheromoneFood).At(a.X, a.Y); !near(got, 0.8) {
		t.Errorf("counter-deposit should remove half the excess, got %f", got)
	}
}
