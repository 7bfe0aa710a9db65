// Package config provides configuration loading and access for the swarm engine.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all simulation configuration parameters.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Pheromone FieldConfig     `yaml:"pheromone"`
	Molecule  MoleculeConfig  `yaml:"molecule"`
	Resource  ResourceConfig  `yaml:"resource"`
	Mycel     MycelConfig     `yaml:"mycel"`
	Agent     AgentConfig     `yaml:"agent"`
	DNA       DNAConfig       `yaml:"dna"`
	Danger    DangerConfig    `yaml:"danger"`
	Evolution EvolutionConfig `yaml:"evolution"`
	Species   SpeciesConfig   `yaml:"species"`
	Stress    StressConfig    `yaml:"stress"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Viewer    ViewerConfig    `yaml:"viewer"`
}

// WorldConfig holds grid dimensions, population size and the RNG seed.
type WorldConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	AgentCount int    `yaml:"agent_count"`
	Seed       uint32 `yaml:"seed"`
	Kernel     int    `yaml:"kernel"`  // diffusion neighbourhood: 4 or 8
	Workers    int    `yaml:"workers"` // diffusion worker goroutines (0 = GOMAXPROCS, 1 = serial)
}

// FieldConfig holds per-step dynamics of a diffusing, evaporating field.
type FieldConfig struct {
	Evaporation float32 `yaml:"evaporation"`
	Diffusion   float32 `yaml:"diffusion"`
}

// MoleculeConfig holds molecule field dynamics and the harvest emission rate.
type MoleculeConfig struct {
	FieldConfig  `yaml:",inline"`
	DepositScale float32 `yaml:"deposit_scale"` // molecules emitted per unit harvested
}

// ResourceConfig holds resource regeneration and initial seeding.
type ResourceConfig struct {
	Regen     float32       `yaml:"regen"`
	Max       float32       `yaml:"max"`
	Diffusion float32       `yaml:"diffusion"` // 0 disables resource diffusion
	Seeding   SeedingConfig `yaml:"seeding"`
}

// SeedingConfig controls how the resource field is filled at creation.
type SeedingConfig struct {
	Mode        string  `yaml:"mode"`    // "sparse", "noise" or "none"
	Density     float32 `yaml:"density"` // sparse: fraction of cells seeded
	Min         float32 `yaml:"min"`     // seeded value range, as a fraction of resource.max
	Max         float32 `yaml:"max"`
	NoiseScale  float64 `yaml:"noise_scale"` // noise: base frequency in cells^-1
	Octaves     int     `yaml:"octaves"`
	Persistence float64 `yaml:"persistence"`
	Threshold   float32 `yaml:"threshold"` // noise values below this become 0
}

// MycelConfig holds mycelium network growth and transport parameters.
type MycelConfig struct {
	Decay          float32 `yaml:"decay"`
	Growth         float32 `yaml:"growth"`
	Transport      float32 `yaml:"transport"`
	DriveThreshold float32 `yaml:"drive_threshold"`
	DriveP         float32 `yaml:"drive_p"` // pheromone weight in the drive term
	DriveR         float32 `yaml:"drive_r"` // resource weight in the drive term
}

// AgentConfig holds base agent behaviour shared by all species.
type AgentConfig struct {
	MoveCost       float32 `yaml:"move_cost"`
	Harvest        float32 `yaml:"harvest"`
	DepositScale   float32 `yaml:"deposit_scale"`
	SenseRadius    float32 `yaml:"sense_radius"`
	RandomTurn     float32 `yaml:"random_turn"` // radians of heading noise at full exploration
	StartEnergyMin float32 `yaml:"start_energy_min"`
	StartEnergyMax float32 `yaml:"start_energy_max"`
}

// DNAConfig holds archive capacities and sampling bias.
type DNAConfig struct {
	Capacity          int     `yaml:"capacity"`        // per-agent archive
	GlobalCapacity    int     `yaml:"global_capacity"` // shared archive
	SurvivalBias      float32 `yaml:"survival_bias"`   // fitness weight when sampling an archive
	StoreEnergyRetain float32 `yaml:"store_energy_retain"`
}

// DangerConfig holds pheromone deposit scaling and the bounce policy.
type DangerConfig struct {
	FoodDepositScale   float32 `yaml:"food_deposit_scale"`
	DangerDepositScale float32 `yaml:"danger_deposit_scale"`
	DeltaThreshold     float32 `yaml:"delta_threshold"` // danger gradient magnitude that triggers a bounce
	BounceDeposit      float32 `yaml:"bounce_deposit"`
}

// EvolutionConfig holds fitness tracking, selection and replacement parameters.
type EvolutionConfig struct {
	Enable            bool    `yaml:"enable"`
	EliteFrac         float32 `yaml:"elite_frac"`
	CullFrac          float32 `yaml:"cull_frac"` // lowest-fitness fraction replaced at selection (0 = elite_frac)
	MinEnergyToStore  float32 `yaml:"min_energy_to_store"`
	MutationSigma     float32 `yaml:"mutation_sigma"`
	ExplorationDelta  float32 `yaml:"exploration_delta"`
	FitnessWindow     int     `yaml:"fitness_window"`
	SelectionInterval int     `yaml:"selection_interval"` // steps between selections (0 = fitness_window)
	AgeDecay          float32 `yaml:"age_decay"`
	GlobalSpawnFrac   float32 `yaml:"global_spawn_frac"`
	SpawnMode         string  `yaml:"spawn_mode"` // "random" or "resource"
}

// SpeciesConfig holds role profiles and the fraction of spawns drawn from each.
type SpeciesConfig struct {
	Fracs    []float32        `yaml:"fracs"`
	Profiles []SpeciesProfile `yaml:"profiles"`
}

// SpeciesProfile scales agent behaviour for one role.
type SpeciesProfile struct {
	Name                 string  `yaml:"name"`
	ExplorationMul       float32 `yaml:"exploration_mul"`
	FoodAttractionMul    float32 `yaml:"food_attraction_mul"`
	DangerAversionMul    float32 `yaml:"danger_aversion_mul"`
	DepositFoodMul       float32 `yaml:"deposit_food_mul"`
	DepositDangerMul     float32 `yaml:"deposit_danger_mul"`
	ResourceWeightMul    float32 `yaml:"resource_weight_mul"`
	MoleculeWeightMul    float32 `yaml:"molecule_weight_mul"`
	MycelAttractionMul   float32 `yaml:"mycel_attraction_mul"`
	NoveltyWeight        float32 `yaml:"novelty_weight"`
	MutationSigmaMul     float32 `yaml:"mutation_sigma_mul"`
	ExplorationDeltaMul  float32 `yaml:"exploration_delta_mul"`
	OverDensityThreshold float32 `yaml:"over_density_threshold"`
	CounterDepositMul    float32 `yaml:"counter_deposit_mul"`
}

// StressConfig schedules a one-shot perturbation of the world.
type StressConfig struct {
	Enable         bool       `yaml:"enable"`
	AtStep         int        `yaml:"at_step"`
	BlockRect      RectConfig `yaml:"block_rect"`
	ShiftDX        int        `yaml:"shift_dx"`
	ShiftDY        int        `yaml:"shift_dy"`
	PheromoneNoise float32    `yaml:"pheromone_noise"`
	Seed           uint32     `yaml:"seed"` // 0 = derive from world seed
}

// RectConfig is a cell rectangle; zero width or height means none.
type RectConfig struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// TelemetryConfig holds stats and output parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // steps per telemetry window
	PerfWindow  int `yaml:"perf_window"`
	DumpEvery   int `yaml:"dump_every"` // field CSV dump interval (0 = off)
	EntropyBins int `yaml:"entropy_bins"`
}

// ViewerConfig holds graphical host settings.
type ViewerConfig struct {
	ScreenWidth   int     `yaml:"screen_width"`
	ScreenHeight  int     `yaml:"screen_height"`
	TargetFPS     int     `yaml:"target_fps"`
	StepsPerFrame int     `yaml:"steps_per_frame"`
	Field         string  `yaml:"field"`
	BrushField    string  `yaml:"brush_field"`
	BrushValue    float32 `yaml:"brush_value"`
	BrushRadius   int     `yaml:"brush_radius"`
}

// global holds the loaded configuration for command-line hosts.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
// The engine itself never calls Cfg; each simulation owns its own copy.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are broken: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return cfg, nil
}

// Clone returns a deep copy, so a simulation can own its parameters.
func (c *Config) Clone() *Config {
	out := *c
	out.Species.Fracs = append([]float32(nil), c.Species.Fracs...)
	out.Species.Profiles = append([]SpeciesProfile(nil), c.Species.Profiles...)
	return &out
}

// EffectiveSelectionInterval returns the number of steps between selections.
func (e EvolutionConfig) EffectiveSelectionInterval() int {
	if e.SelectionInterval > 0 {
		return e.SelectionInterval
	}
	return e.FitnessWindow
}

// EffectiveCullFrac returns the fraction of the population culled at selection.
func (e EvolutionConfig) EffectiveCullFrac() float32 {
	if e.CullFrac > 0 {
		return e.CullFrac
	}
	return e.EliteFrac
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
