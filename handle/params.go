package handle

import (
	"math"

	"github.com/pthm-cable/microswarm/components"
	"github.com/pthm-cable/microswarm/config"
	"github.com/pthm-cable/microswarm/systems"
)

// Params is the flat host parameter block. Every field maps onto one key of
// the nested configuration; see FromParams.
type Params struct {
	Width      int32
	Height     int32
	AgentCount int32
	Steps      int32 // run length hint for hosts; ignored by the engine

	PheromoneEvaporation float32
	PheromoneDiffusion   float32
	MoleculeEvaporation  float32
	MoleculeDiffusion    float32

	ResourceRegen float32
	ResourceMax   float32

	MycelDecay          float32
	MycelGrowth         float32
	MycelTransport      float32
	MycelDriveThreshold float32
	MycelDriveP         float32
	MycelDriveR         float32

	AgentMoveCost     float32
	AgentHarvest      float32
	AgentDepositScale float32
	AgentSenseRadius  float32
	AgentRandomTurn   float32

	DNACapacity       int32
	DNAGlobalCapacity int32
	DNASurvivalBias   float32

	PheroFoodDepositScale   float32
	PheroDangerDepositScale float32
	DangerDeltaThreshold    float32
	DangerBounceDeposit     float32

	EvoEnable           int32
	EvoEliteFrac        float32
	EvoMinEnergyToStore float32
	EvoMutationSigma    float32
	EvoExplorationDelta float32
	EvoFitnessWindow    int32
	EvoAgeDecay         float32

	GlobalSpawnFrac float32
}

// FromParams overlays p and seed onto base, which is left unchanged.
// A nil base starts from the embedded defaults.
func FromParams(base *config.Config, p Params, seed uint32) *config.Config {
	var cfg *config.Config
	if base == nil {
		cfg = config.Default()
	} else {
		cfg = base.Clone()
	}

	cfg.World.Width = int(p.Width)
	cfg.World.Height = int(p.Height)
	cfg.World.AgentCount = int(p.AgentCount)
	cfg.World.Seed = seed

	cfg.Pheromone.Evaporation = p.PheromoneEvaporation
	cfg.Pheromone.Diffusion = p.PheromoneDiffusion
	cfg.Molecule.Evaporation = p.MoleculeEvaporation
	cfg.Molecule.Diffusion = p.MoleculeDiffusion

	cfg.Resource.Regen = p.ResourceRegen
	cfg.Resource.Max = p.ResourceMax

	cfg.Mycel.Decay = p.MycelDecay
	cfg.Mycel.Growth = p.MycelGrowth
	cfg.Mycel.Transport = p.MycelTransport
	cfg.Mycel.DriveThreshold = p.MycelDriveThreshold
	cfg.Mycel.DriveP = p.MycelDriveP
	cfg.Mycel.DriveR = p.MycelDriveR

	cfg.Agent.MoveCost = p.AgentMoveCost
	cfg.Agent.Harvest = p.AgentHarvest
	cfg.Agent.DepositScale = p.AgentDepositScale
	cfg.Agent.SenseRadius = p.AgentSenseRadius
	cfg.Agent.RandomTurn = p.AgentRandomTurn

	cfg.DNA.Capacity = int(p.DNACapacity)
	cfg.DNA.GlobalCapacity = int(p.DNAGlobalCapacity)
	cfg.DNA.SurvivalBias = p.DNASurvivalBias

	cfg.Danger.FoodDepositScale = p.PheroFoodDepositScale
	cfg.Danger.DangerDepositScale = p.PheroDangerDepositScale
	cfg.Danger.DeltaThreshold = p.DangerDeltaThreshold
	cfg.Danger.BounceDeposit = p.DangerBounceDeposit

	cfg.Evolution.Enable = p.EvoEnable != 0
	cfg.Evolution.EliteFrac = p.EvoEliteFrac
	cfg.Evolution.MinEnergyToStore = p.EvoMinEnergyToStore
	cfg.Evolution.MutationSigma = p.EvoMutationSigma
	cfg.Evolution.ExplorationDelta = p.EvoExplorationDelta
	cfg.Evolution.FitnessWindow = int(p.EvoFitnessWindow)
	cfg.Evolution.AgeDecay = p.EvoAgeDecay
	cfg.Evolution.GlobalSpawnFrac = p.GlobalSpawnFrac
	return cfg
}

// ToParams flattens the keys of cfg that Params carries.
func ToParams(cfg *config.Config) Params {
	enable := int32(0)
	if cfg.Evolution.Enable {
		enable = 1
	}
	return Params{
		Width:      int32(cfg.World.Width),
		Height:     int32(cfg.World.Height),
		AgentCount: int32(cfg.World.AgentCount),

		PheromoneEvaporation: cfg.Pheromone.Evaporation,
		PheromoneDiffusion:   cfg.Pheromone.Diffusion,
		MoleculeEvaporation:  cfg.Molecule.Evaporation,
		MoleculeDiffusion:    cfg.Molecule.Diffusion,

		ResourceRegen: cfg.Resource.Regen,
		ResourceMax:   cfg.Resource.Max,

		MycelDecay:          cfg.Mycel.Decay,
		MycelGrowth:         cfg.Mycel.Growth,
		MycelTransport:      cfg.Mycel.Transport,
		MycelDriveThreshold: cfg.Mycel.DriveThreshold,
		MycelDriveP:         cfg.Mycel.DriveP,
		MycelDriveR:         cfg.Mycel.DriveR,

		AgentMoveCost:     cfg.Agent.MoveCost,
		AgentHarvest:      cfg.Agent.Harvest,
		AgentDepositScale: cfg.Agent.DepositScale,
		AgentSenseRadius:  cfg.Agent.SenseRadius,
		AgentRandomTurn:   cfg.Agent.RandomTurn,

		DNACapacity:       int32(cfg.DNA.Capacity),
		DNAGlobalCapacity: int32(cfg.DNA.GlobalCapacity),
		DNASurvivalBias:   cfg.DNA.SurvivalBias,

		PheroFoodDepositScale:   cfg.Danger.FoodDepositScale,
		PheroDangerDepositScale: cfg.Danger.DangerDepositScale,
		DangerDeltaThreshold:    cfg.Danger.DeltaThreshold,
		DangerBounceDeposit:     cfg.Danger.BounceDeposit,

		EvoEnable:           enable,
		EvoEliteFrac:        cfg.Evolution.EliteFrac,
		EvoMinEnergyToStore: cfg.Evolution.MinEnergyToStore,
		EvoMutationSigma:    cfg.Evolution.MutationSigma,
		EvoExplorationDelta: cfg.Evolution.ExplorationDelta,
		EvoFitnessWindow:    int32(cfg.Evolution.FitnessWindow),
		EvoAgeDecay:         cfg.Evolution.AgeDecay,

		GlobalSpawnFrac: cfg.Evolution.GlobalSpawnFrac,
	}
}

// AgentRecord is the flat host view of one agent.
type AgentRecord struct {
	X, Y            float32
	Heading         float32
	Energy          float32
	Species         int32
	SenseGain       float32
	PheromoneGain   float32
	ExplorationBias float32
}

func agentRecord(a systems.Agent) AgentRecord {
	return AgentRecord{
		X:               float32(a.X),
		Y:               float32(a.Y),
		Heading:         a.Heading,
		Energy:          a.Energy,
		Species:         int32(a.Species),
		SenseGain:       a.Genome.Genes[components.GeneSenseGain],
		PheromoneGain:   a.Genome.Genes[components.GenePheromoneGain],
		ExplorationBias: a.Genome.Genes[components.GeneExploration],
	}
}

// agentFromRecord builds an agent from a host record. Genes the record does
// not carry start at the middle of their init range.
func agentFromRecord(r AgentRecord) systems.Agent {
	var g components.Genome
	for i, d := range components.GeneDescriptors() {
		g.Genes[i] = (d.InitMin + d.InitMax) / 2
	}
	g.Genes[components.GeneSenseGain] = r.SenseGain
	g.Genes[components.GenePheromoneGain] = r.PheromoneGain
	g.Genes[components.GeneExploration] = r.ExplorationBias
	species := r.Species
	if species < 0 || species > math.MaxUint8 {
		species = math.MaxUint8
	}
	return systems.Agent{
		X:       int(math.Floor(float64(r.X))),
		Y:       int(math.Floor(float64(r.Y))),
		Heading: r.Heading,
		Energy:  r.Energy,
		Genome:  g,
		Species: uint8(species),
	}
}
