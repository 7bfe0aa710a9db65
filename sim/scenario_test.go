package sim

import (
	"errors"
	"math"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/microswarm/components"
	"github.com/pthm-cable/microswarm/config"
	"github.com/pthm-cable/microswarm/systems"
	"github.com/pthm-cable/microswarm/telemetry"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

// stillConfig has no field dynamics and no initial resources.
func stillConfig(w, h, agents int) *config.Config {
	cfg := testConfig(w, h, agents)
	cfg.Pheromone.Evaporation, cfg.Pheromone.Diffusion = 0, 0
	cfg.Molecule.Evaporation, cfg.Molecule.Diffusion = 0, 0
	cfg.Resource.Regen, cfg.Resource.Diffusion = 0, 0
	cfg.Resource.Seeding.Mode = "none"
	return cfg
}

func midGenome() components.Genome {
	var g components.Genome
	for i, d := range components.GeneDescriptors() {
		g.Genes[i] = (d.InitMin + d.InitMax) / 2
	}
	return g
}

// An agent on an empty world never harvests and loses exactly the move
// cost every step until it is replaced.
func TestScenarioStarvation(t *testing.T) {
	cfg := stillConfig(8, 8, 1)
	cfg.Agent.StartEnergyMin, cfg.Agent.StartEnergyMax = 0.3, 0.3
	cfg.Agent.MoveCost = 0.02
	s := newSim(t, cfg)

	agents, _ := s.Agents()
	prev := agents[0].Energy
	replacements := 0
	for step := 0; step < 60; step++ {
		mustStep(t, s, 1)
		stats := s.LastStats()
		if stats.Harvested != 0 {
			t.Fatalf("step %d: harvested %g on an empty world", step, stats.Harvested)
		}
		agents, _ := s.Agents()
		a := agents[0]
		if stats.Replaced > 0 {
			replacements++
			if a.Age != 0 || a.BornStep != step || !near(a.Energy, 0.3) {
				t.Fatalf("step %d: replacement has age %d born %d energy %g", step, a.Age, a.BornStep, a.Energy)
			}
		} else if !near(a.Energy, prev-cfg.Agent.MoveCost) {
			t.Fatalf("step %d: energy %g, want %g", step, a.Energy, prev-cfg.Agent.MoveCost)
		}
		prev = a.Energy
	}
	// 0.3 / 0.02 = 15 steps per life
	if replacements < 3 {
		t.Errorf("expected at least 3 replacements in 60 steps, got %d", replacements)
	}
	for _, k := range systems.Kinds() {
		for i, v := range fieldOut(t, s, k) {
			if v != 0 {
				t.Fatalf("%s[%d] = %g, want an untouched field", k, i, v)
			}
		}
	}
}

func TestScenarioEvolutionDisabled(t *testing.T) {
	cfg := testConfig(16, 16, 16)
	cfg.Evolution.Enable = false
	cfg.Evolution.MinEnergyToStore = 0
	cfg.Agent.MoveCost = 0.03
	s := newSim(t, cfg)

	for batch := 0; batch < 10; batch++ {
		mustStep(t, s, 100)
		if s.AgentCount() != 16 {
			t.Fatalf("step %d: population %d", s.StepIndex(), s.AgentCount())
		}
		sizes, global := s.DNASizes()
		if sum(sizes) != 0 || global != 0 {
			t.Fatalf("step %d: archive entries written: %v %d", s.StepIndex(), sizes, global)
		}
	}
	if s.TotalStats().Stored != 0 || s.TotalStats().Selected != 0 {
		t.Errorf("evolution ran while disabled: %+v", s.TotalStats())
	}
}

func TestScenarioDangerBounce(t *testing.T) {
	const w, h = 32, 32
	cfg := stillConfig(w, h, 4)
	cfg.Evolution.Enable = false
	cfg.Danger.DeltaThreshold = 0
	cfg.Danger.DangerDepositScale = 0
	cfg.Danger.BounceDeposit = 0.02
	s := newSim(t, cfg)

	ramp := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			ramp[y*w+x] = 0.01 * float32(x)
		}
	}
	if _, err := s.CopyFieldIn(systems.PheromoneDanger, ramp); err != nil {
		t.Fatal(err)
	}

	// far enough apart that no agent senses another's deposit
	cells := [][2]int{{4, 4}, {20, 4}, {4, 20}, {20, 20}}
	placed := make([]systems.Agent, len(cells))
	for i, c := range cells {
		placed[i] = systems.Agent{X: c[0], Y: c[1], Energy: 0.5, Genome: midGenome(), Species: uint8(i % 4)}
	}
	if err := s.SetAgents(placed); err != nil {
		t.Fatal(err)
	}

	mustStep(t, s, 1)
	if got := s.LastStats().Bounces; got != len(cells) {
		t.Errorf("bounces = %d, want %d", got, len(cells))
	}

	danger := fieldOut(t, s, systems.PheromoneDanger)
	agents, _ := s.Agents()
	for i, c := range cells {
		idx := c[1]*w + c[0]
		if want := ramp[idx] + 0.02; !near(danger[idx], want) {
			t.Errorf("agent %d: danger at start cell %g, want %g", i, danger[idx], want)
		}
		if !agents[i].Bounced {
			t.Errorf("agent %d: not flagged as bounced", i)
		}
		if agents[i].X != c[0]-1 || agents[i].Y != c[1] {
			t.Errorf("agent %d moved to (%d,%d), want away from the ramp to (%d,%d)",
				i, agents[i].X, agents[i].Y, c[0]-1, c[1])
		}
	}
}

func TestCopyFieldRoundTrip(t *testing.T) {
	cfg := testConfig(20, 15, 8)
	s := newSim(t, cfg)
	mustStep(t, s, 5)
	rng := rand.New(rand.NewPCG(1, 2))

	for _, k := range systems.Kinds() {
		t.Run(k.String(), func(t *testing.T) {
			top := float32(5)
			switch k {
			case systems.Resources:
				top = cfg.Resource.Max
			case systems.Mycel:
				top = 1
			}
			src := make([]float32, 20*15)
			for i := range src {
				src[i] = float32(rng.Float64()) * top
			}
			n, err := s.CopyFieldIn(k, src)
			if err != nil || n != len(src) {
				t.Fatalf("CopyFieldIn = %d, %v", n, err)
			}
			got := fieldOut(t, s, k)
			for i := range src {
				if math.Float32bits(got[i]) != math.Float32bits(src[i]) {
					t.Fatalf("[%d] = %g, want %g", i, got[i], src[i])
				}
			}
		})
	}
}

func TestFieldExchangeErrors(t *testing.T) {
	s := newSim(t, testConfig(10, 10, 4))
	mustStep(t, s, 3)
	before := fieldOut(t, s, systems.Mycel)

	tests := []struct {
		name string
		kind systems.Kind
		src  []float32
		want error
	}{
		{"short", systems.Mycel, make([]float32, 99), ErrBufferSize},
		{"long", systems.Mycel, make([]float32, 101), ErrBufferSize},
		{"negative", systems.Mycel, filled(100, -0.1), ErrOutOfRange},
		{"above one", systems.Mycel, filled(100, 1.5), ErrOutOfRange},
		{"nan", systems.Mycel, filled(100, float32(math.NaN())), ErrOutOfRange},
		{"unknown kind", systems.Kind(9), make([]float32, 100), ErrUnknownField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := s.CopyFieldIn(tt.kind, tt.src)
			if n != 0 || !errors.Is(err, tt.want) {
				t.Errorf("CopyFieldIn = %d, %v; want 0, %v", n, err, tt.want)
			}
		})
	}
	after := fieldOut(t, s, systems.Mycel)
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("failed writes mutated mycel[%d]", i)
		}
	}

	if _, err := s.CopyFieldOut(systems.Resources, make([]float32, 99)); !errors.Is(err, ErrBufferSize) {
		t.Errorf("short CopyFieldOut: %v", err)
	}
	if n, err := s.CopyFieldOut(systems.Resources, make([]float32, 150)); n != 100 || err != nil {
		t.Errorf("large CopyFieldOut = %d, %v", n, err)
	}
	if _, _, err := s.FieldInfo(systems.NumKinds); !errors.Is(err, ErrUnknownField) {
		t.Errorf("FieldInfo(NumKinds): %v", err)
	}
}

func filled(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestPaintDisc(t *testing.T) {
	s := newSim(t, stillConfig(16, 16, 2))
	n, err := s.PaintDisc(systems.PheromoneFood, 8, 8, 2, 0.7)
	if err != nil || n != 13 {
		t.Fatalf("PaintDisc = %d, %v; want 13 cells", n, err)
	}
	painted := 0
	for _, v := range fieldOut(t, s, systems.PheromoneFood) {
		if v == 0.7 {
			painted++
		}
	}
	if painted != 13 {
		t.Errorf("%d cells hold the brush value, want 13", painted)
	}

	if n, err := s.PaintDisc(systems.Mycel, 0, 0, 3, 2); n != 0 || !errors.Is(err, ErrOutOfRange) {
		t.Errorf("mycel above 1: %d, %v", n, err)
	}
	if n, err := s.PaintDisc(systems.Mycel, 40, 40, 3, 0.5); n != 0 || err != nil {
		t.Errorf("outside the grid: %d, %v", n, err)
	}
}

func TestAgentManagement(t *testing.T) {
	cfg := testConfig(16, 16, 6)
	cfg.Evolution.Enable = false
	s := newSim(t, cfg)

	if err := s.KillAgent(6); !errors.Is(err, ErrNoAgent) {
		t.Errorf("KillAgent(6): %v", err)
	}
	if err := s.KillAgent(2); err != nil {
		t.Fatal(err)
	}
	agents, _ := s.Agents()
	if !agents[2].Dead || agents[2].Energy != 0 {
		t.Fatalf("killed agent: %+v", agents[2])
	}
	mustStep(t, s, 1)
	if s.LastStats().Replaced < 1 {
		t.Error("killed agent was not replaced")
	}

	bad := systems.Agent{X: 16, Y: 0, Energy: 1, Genome: midGenome()}
	if _, err := s.SpawnAgent(bad); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("out-of-bounds spawn: %v", err)
	}
	bad = systems.Agent{X: 1, Y: 1, Energy: -1, Genome: midGenome()}
	if _, err := s.SpawnAgent(bad); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("negative-energy spawn: %v", err)
	}

	g := midGenome()
	g.Genes[components.GeneExploration] = 9
	slot, err := s.SpawnAgent(systems.Agent{X: 3, Y: 4, Energy: 0.5, Genome: g})
	if err != nil || slot != 6 {
		t.Fatalf("SpawnAgent = %d, %v", slot, err)
	}
	if s.AgentCount() != 7 || s.Config().World.AgentCount != 7 {
		t.Errorf("population %d, configured %d", s.AgentCount(), s.Config().World.AgentCount)
	}
	agents, _ = s.Agents()
	if top := components.GeneDescriptors()[components.GeneExploration].Max; agents[6].Genome.Genes[components.GeneExploration] != top {
		t.Errorf("genome not clamped: %v", agents[6].Genome)
	}
	mustStep(t, s, 2)

	if err := s.SetAgents(nil); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("empty SetAgents: %v", err)
	}
	if err := s.SetAgents(agents[:3]); err != nil {
		t.Fatal(err)
	}
	if s.AgentCount() != 3 || len(s.evo.Personal) != 3 {
		t.Errorf("population %d with %d archives", s.AgentCount(), len(s.evo.Personal))
	}
}

func TestArchiveBound(t *testing.T) {
	cfg := testConfig(24, 24, 48)
	cfg.DNA.Capacity = 2
	cfg.DNA.GlobalCapacity = 3
	cfg.DNA.StoreEnergyRetain = 1
	cfg.Evolution.MinEnergyToStore = 0.05
	s := newSim(t, cfg)

	for batch := 0; batch < 10; batch++ {
		mustStep(t, s, 20)
		for slot, a := range s.evo.Personal {
			if a.Len() > 2 {
				t.Fatalf("personal archive %d holds %d entries", slot, a.Len())
			}
		}
		if s.evo.Global.Len() > 3 {
			t.Fatalf("global archive holds %d entries", s.evo.Global.Len())
		}
	}
	if s.TotalStats().Stored == 0 {
		t.Fatal("expected genomes to be stored")
	}

	if err := s.SetDNACapacity(1, 1); err != nil {
		t.Fatal(err)
	}
	sizes, global := s.DNASizes()
	if sum(sizes) > s.AgentCount() || global > 1 {
		t.Errorf("after trim: %v %d", sizes, global)
	}
	if p, g := s.DNACapacity(); p != 1 || g != 1 {
		t.Errorf("DNACapacity = %d, %d", p, g)
	}
	if err := s.SetDNACapacity(-1, 1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("negative capacity: %v", err)
	}

	if err := s.ClearDNA(); err != nil {
		t.Fatal(err)
	}
	if len(s.Archives()) != 0 {
		t.Error("ClearDNA left entries behind")
	}
}

func TestDNAExportImport(t *testing.T) {
	cfg := testConfig(24, 24, 32)
	cfg.Evolution.MinEnergyToStore = 0.1
	s := newSim(t, cfg)
	mustStep(t, s, 120)
	records := s.Archives()
	if len(records) == 0 {
		t.Fatal("expected archived genomes")
	}

	path := filepath.Join(t.TempDir(), "dna.csv")
	if err := s.ExportDNA(path); err != nil {
		t.Fatal(err)
	}
	other := newSim(t, cfg)
	n, err := other.ImportDNA(path)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(records) {
		t.Errorf("imported %d of %d records", n, len(records))
	}
	_, wantGlobal := s.DNASizes()
	if _, global := other.DNASizes(); global != wantGlobal {
		t.Errorf("global archive %d, want %d", global, wantGlobal)
	}

	bad := []telemetry.DNARecord{{Pool: telemetry.PoolPersonal, Slot: 99}}
	if _, err := other.ImportArchive(bad); !errors.Is(err, ErrNoAgent) {
		t.Errorf("unknown slot: %v", err)
	}
	bad = []telemetry.DNARecord{{Pool: "elsewhere"}}
	if _, err := other.ImportArchive(bad); !errors.Is(err, telemetry.ErrDNARecord) {
		t.Errorf("unknown pool: %v", err)
	}
}

func TestSpeciesSettings(t *testing.T) {
	s := newSim(t, testConfig(16, 16, 8))
	if err := s.SetSpeciesFracs([]float32{1, 0}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("short fracs: %v", err)
	}
	if err := s.SetSpeciesFracs([]float32{1, -1, 0, 0}); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("negative frac: %v", err)
	}
	if err := s.SetSpeciesFracs([]float32{0, 0, 1, 0}); err != nil {
		t.Fatal(err)
	}
	if got := s.SpeciesFracs(); got[2] != 1 || got[0] != 0 {
		t.Errorf("SpeciesFracs = %v", got)
	}

	for slot := 0; slot < s.AgentCount(); slot++ {
		if err := s.KillAgent(slot); err != nil {
			t.Fatal(err)
		}
	}
	mustStep(t, s, 1)
	agents, _ := s.Agents()
	for i, a := range agents {
		if a.Species != 2 {
			t.Errorf("agent %d respawned as species %d", i, a.Species)
		}
	}

	profiles := s.SpeciesProfiles()
	profiles[1].NoveltyWeight = 0.3
	if err := s.SetSpeciesProfiles(profiles); err != nil {
		t.Fatal(err)
	}
	if s.SpeciesProfiles()[1].NoveltyWeight != 0.3 {
		t.Error("profile update lost")
	}
	profiles[0].ExplorationMul = -1
	if err := s.SetSpeciesProfiles(profiles); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("negative multiplier: %v", err)
	}
}

func TestMetrics(t *testing.T) {
	cfg := testConfig(16, 16, 12)
	s := newSim(t, cfg)
	mustStep(t, s, 30)

	m := s.Metrics()
	if m.Step != 30 || m.Agents != 12 || len(m.AvgEnergyBySpecies) != 4 || len(m.DNABySpecies) != 4 {
		t.Errorf("unexpected metrics: %+v", m)
	}
	avg, lo, hi := s.EnergyStats()
	if lo > avg || avg > hi || lo < 0 {
		t.Errorf("energy stats out of order: %g %g %g", avg, lo, hi)
	}

	stats := s.Entropy()
	if len(stats) != int(systems.NumKinds) {
		t.Fatalf("%d field stats", len(stats))
	}
	for i, fs := range stats {
		if fs.Field != systems.Kind(i).String() || fs.Step != 30 {
			t.Errorf("stats %d: %+v", i, fs)
		}
		if fs.NormEntropy < 0 || fs.NormEntropy > 1+1e-9 {
			t.Errorf("%s: normalised entropy %g", fs.Field, fs.NormEntropy)
		}
	}

	lo, hi, mean := s.MycelStats()
	if lo < 0 || hi > 1 || mean < lo || mean > hi {
		t.Errorf("mycel stats: %g %g %g", lo, hi, mean)
	}

	sample := s.WindowSample()
	if sample.Agents != 12 || sample.Alive != len(sample.Energies) {
		t.Errorf("window sample: %+v", sample)
	}
	if perf := s.PhaseTimings(); perf.AvgStepDuration <= 0 {
		t.Errorf("no step timing recorded: %+v", perf)
	}
}
