package config

import (
	"fmt"
	"math"
)

// Validate checks the configuration once, before a simulation is built from it.
// The returned error wraps ErrInvalid and names the first offending key.
func (c *Config) Validate() error {
	if c.World.Width <= 0 {
		return invalid("world.width", "must be positive, got %d", c.World.Width)
	}
	if c.World.Height <= 0 {
		return invalid("world.height", "must be positive, got %d", c.World.Height)
	}
	if c.World.AgentCount <= 0 {
		return invalid("world.agent_count", "must be positive, got %d", c.World.AgentCount)
	}
	if c.World.Kernel != 4 && c.World.Kernel != 8 {
		return invalid("world.kernel", "must be 4 or 8, got %d", c.World.Kernel)
	}
	if c.World.Workers < 0 {
		return invalid("world.workers", "must be >= 0, got %d", c.World.Workers)
	}

	fracs := []struct {
		key string
		v   float32
	}{
		{"pheromone.evaporation", c.Pheromone.Evaporation},
		{"pheromone.diffusion", c.Pheromone.Diffusion},
		{"molecule.evaporation", c.Molecule.Evaporation},
		{"molecule.diffusion", c.Molecule.Diffusion},
		{"resource.diffusion", c.Resource.Diffusion},
		{"resource.seeding.density", c.Resource.Seeding.Density},
		{"resource.seeding.min", c.Resource.Seeding.Min},
		{"resource.seeding.max", c.Resource.Seeding.Max},
		{"resource.seeding.threshold", c.Resource.Seeding.Threshold},
		{"mycel.decay", c.Mycel.Decay},
		{"mycel.growth", c.Mycel.Growth},
		{"mycel.transport", c.Mycel.Transport},
		{"mycel.drive_threshold", c.Mycel.DriveThreshold},
		{"dna.store_energy_retain", c.DNA.StoreEnergyRetain},
		{"evolution.elite_frac", c.Evolution.EliteFrac},
		{"evolution.cull_frac", c.Evolution.CullFrac},
		{"evolution.age_decay", c.Evolution.AgeDecay},
		{"evolution.global_spawn_frac", c.Evolution.GlobalSpawnFrac},
	}
	for _, f := range fracs {
		if err := checkUnit(f.key, f.v); err != nil {
			return err
		}
	}
	if c.Mycel.DriveThreshold >= 1 {
		return invalid("mycel.drive_threshold", "must be < 1, got %g", c.Mycel.DriveThreshold)
	}

	nonNeg := []struct {
		key string
		v   float32
	}{
		{"molecule.deposit_scale", c.Molecule.DepositScale},
		{"resource.regen", c.Resource.Regen},
		{"mycel.drive_p", c.Mycel.DriveP},
		{"mycel.drive_r", c.Mycel.DriveR},
		{"agent.move_cost", c.Agent.MoveCost},
		{"agent.harvest", c.Agent.Harvest},
		{"agent.deposit_scale", c.Agent.DepositScale},
		{"agent.sense_radius", c.Agent.SenseRadius},
		{"agent.random_turn", c.Agent.RandomTurn},
		{"agent.start_energy_min", c.Agent.StartEnergyMin},
		{"dna.survival_bias", c.DNA.SurvivalBias},
		{"danger.food_deposit_scale", c.Danger.FoodDepositScale},
		{"danger.danger_deposit_scale", c.Danger.DangerDepositScale},
		{"danger.delta_threshold", c.Danger.DeltaThreshold},
		{"danger.bounce_deposit", c.Danger.BounceDeposit},
		{"evolution.min_energy_to_store", c.Evolution.MinEnergyToStore},
		{"evolution.mutation_sigma", c.Evolution.MutationSigma},
		{"evolution.exploration_delta", c.Evolution.ExplorationDelta},
		{"stress.pheromone_noise", c.Stress.PheromoneNoise},
	}
	for _, f := range nonNeg {
		if err := checkNonNeg(f.key, f.v); err != nil {
			return err
		}
	}

	if !(c.Resource.Max > 0) || isBad(c.Resource.Max) {
		return invalid("resource.max", "must be positive, got %g", c.Resource.Max)
	}
	if c.Agent.StartEnergyMax < c.Agent.StartEnergyMin {
		return invalid("agent.start_energy_max", "must be >= start_energy_min (%g), got %g",
			c.Agent.StartEnergyMin, c.Agent.StartEnergyMax)
	}
	if c.Resource.Seeding.Max < c.Resource.Seeding.Min {
		return invalid("resource.seeding.max", "must be >= seeding.min (%g), got %g",
			c.Resource.Seeding.Min, c.Resource.Seeding.Max)
	}
	switch c.Resource.Seeding.Mode {
	case "sparse", "noise", "none":
	default:
		return invalid("resource.seeding.mode", "unknown mode %q", c.Resource.Seeding.Mode)
	}
	if c.Resource.Seeding.Mode == "noise" {
		if c.Resource.Seeding.Octaves < 1 {
			return invalid("resource.seeding.octaves", "must be >= 1, got %d", c.Resource.Seeding.Octaves)
		}
		if !(c.Resource.Seeding.NoiseScale > 0) {
			return invalid("resource.seeding.noise_scale", "must be positive, got %g", c.Resource.Seeding.NoiseScale)
		}
	}

	if c.DNA.Capacity < 0 {
		return invalid("dna.capacity", "must be >= 0, got %d", c.DNA.Capacity)
	}
	if c.DNA.GlobalCapacity < 0 {
		return invalid("dna.global_capacity", "must be >= 0, got %d", c.DNA.GlobalCapacity)
	}

	if c.Evolution.FitnessWindow < 1 {
		return invalid("evolution.fitness_window", "must be >= 1, got %d", c.Evolution.FitnessWindow)
	}
	if c.Evolution.SelectionInterval < 0 {
		return invalid("evolution.selection_interval", "must be >= 0, got %d", c.Evolution.SelectionInterval)
	}
	switch c.Evolution.SpawnMode {
	case "random", "resource":
	default:
		return invalid("evolution.spawn_mode", "unknown mode %q", c.Evolution.SpawnMode)
	}

	if len(c.Species.Profiles) == 0 {
		return invalid("species.profiles", "at least one profile is required")
	}
	if len(c.Species.Fracs) != len(c.Species.Profiles) {
		return invalid("species.fracs", "has %d entries for %d profiles",
			len(c.Species.Fracs), len(c.Species.Profiles))
	}
	var fracSum float32
	for i, f := range c.Species.Fracs {
		if err := checkNonNeg(fmt.Sprintf("species.fracs[%d]", i), f); err != nil {
			return err
		}
		fracSum += f
	}
	if !(fracSum > 0) {
		return invalid("species.fracs", "must not all be zero")
	}
	for i, p := range c.Species.Profiles {
		if err := p.validate(i); err != nil {
			return err
		}
	}

	if c.Telemetry.EntropyBins < 2 {
		return invalid("telemetry.entropy_bins", "must be >= 2, got %d", c.Telemetry.EntropyBins)
	}
	if c.Telemetry.StatsWindow < 0 || c.Telemetry.DumpEvery < 0 {
		return invalid("telemetry", "windows must be >= 0")
	}

	return nil
}

func (p SpeciesProfile) validate(i int) error {
	muls := []struct {
		key string
		v   float32
	}{
		{"exploration_mul", p.ExplorationMul},
		{"food_attraction_mul", p.FoodAttractionMul},
		{"danger_aversion_mul", p.DangerAversionMul},
		{"deposit_food_mul", p.DepositFoodMul},
		{"deposit_danger_mul", p.DepositDangerMul},
		{"resource_weight_mul", p.ResourceWeightMul},
		{"molecule_weight_mul", p.MoleculeWeightMul},
		{"mycel_attraction_mul", p.MycelAttractionMul},
		{"novelty_weight", p.NoveltyWeight},
		{"mutation_sigma_mul", p.MutationSigmaMul},
		{"exploration_delta_mul", p.ExplorationDeltaMul},
		{"over_density_threshold", p.OverDensityThreshold},
		{"counter_deposit_mul", p.CounterDepositMul},
	}
	for _, m := range muls {
		if err := checkNonNeg(fmt.Sprintf("species.profiles[%d].%s", i, m.key), m.v); err != nil {
			return err
		}
	}
	return nil
}

func invalid(key, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalid, key, fmt.Sprintf(format, args...))
}

func isBad(v float32) bool {
	f := float64(v)
	return math.IsNaN(f) || math.IsInf(f, 0)
}

func checkNonNeg(key string, v float32) error {
	if isBad(v) || v < 0 {
		return invalid(key, "must be a finite value >= 0, got %g", v)
	}
	return nil
}

func checkUnit(key string, v float32) error {
	if isBad(v) || v < 0 || v > 1 {
		return invalid(key, "must be in [0,1], got %g", v)
	}
	return nil
}
