package main

import (
	"github.com/pthm-cable/microswarm/config"
)

// ParamSpec is one tunable config value and its search bounds.
type ParamSpec struct {
	Name    string  // CSV column
	Path    string  // config key
	Min     float64
	Max     float64
	Default float64
	Set     func(cfg *config.Config, v float64)
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters. Defaults
// are read from base so a tuned config can be refined further.
func NewParamVector(base *config.Config) *ParamVector {
	specs := []ParamSpec{
		{Name: "pheromone_evaporation", Path: "pheromone.evaporation", Min: 0.002, Max: 0.2,
			Set: func(c *config.Config, v float64) { c.Pheromone.Evaporation = float32(v) }},
		{Name: "pheromone_diffusion", Path: "pheromone.diffusion", Min: 0, Max: 0.5,
			Set: func(c *config.Config, v float64) { c.Pheromone.Diffusion = float32(v) }},
		{Name: "molecule_evaporation", Path: "molecule.evaporation", Min: 0.05, Max: 0.8,
			Set: func(c *config.Config, v float64) { c.Molecule.Evaporation = float32(v) }},
		{Name: "resource_regen", Path: "resource.regen", Min: 0.0002, Max: 0.01,
			Set: func(c *config.Config, v float64) { c.Resource.Regen = float32(v) }},
		{Name: "mycel_growth", Path: "mycel.growth", Min: 0.002, Max: 0.1,
			Set: func(c *config.Config, v float64) { c.Mycel.Growth = float32(v) }},
		{Name: "mycel_transport", Path: "mycel.transport", Min: 0, Max: 0.4,
			Set: func(c *config.Config, v float64) { c.Mycel.Transport = float32(v) }},
		{Name: "agent_move_cost", Path: "agent.move_cost", Min: 0.0005, Max: 0.02,
			Set: func(c *config.Config, v float64) { c.Agent.MoveCost = float32(v) }},
		{Name: "agent_harvest", Path: "agent.harvest", Min: 0.01, Max: 0.3,
			Set: func(c *config.Config, v float64) { c.Agent.Harvest = float32(v) }},
		{Name: "danger_delta_threshold", Path: "danger.delta_threshold", Min: 0.01, Max: 1,
			Set: func(c *config.Config, v float64) { c.Danger.DeltaThreshold = float32(v) }},
		{Name: "mutation_sigma", Path: "evolution.mutation_sigma", Min: 0.005, Max: 0.3,
			Set: func(c *config.Config, v float64) { c.Evolution.MutationSigma = float32(v) }},
		{Name: "elite_frac", Path: "evolution.elite_frac", Min: 0.02, Max: 0.5,
			Set: func(c *config.Config, v float64) { c.Evolution.EliteFrac = float32(v) }},
		{Name: "global_spawn_frac", Path: "evolution.global_spawn_frac", Min: 0, Max: 1,
			Set: func(c *config.Config, v float64) { c.Evolution.GlobalSpawnFrac = float32(v) }},
	}
	defaults := []float32{
		base.Pheromone.Evaporation, base.Pheromone.Diffusion, base.Molecule.Evaporation,
		base.Resource.Regen, base.Mycel.Growth, base.Mycel.Transport,
		base.Agent.MoveCost, base.Agent.Harvest, base.Danger.DeltaThreshold,
		base.Evolution.MutationSigma, base.Evolution.EliteFrac, base.Evolution.GlobalSpawnFrac,
	}
	for i := range specs {
		specs[i].Default = min(max(float64(defaults[i]), specs[i].Min), specs[i].Max)
	}
	return &ParamVector{Specs: specs}
}

func (pv *ParamVector) Dim() int { return len(pv.Specs) }

// DefaultVector returns every parameter's default, in order.
func (pv *ParamVector) DefaultVector() []float64 {
	return pv.each(nil, func(s ParamSpec, _ float64) float64 { return s.Default })
}

// Normalize maps raw values onto the unit cube CMA-ES searches.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	return pv.each(raw, func(s ParamSpec, v float64) float64 { return (v - s.Min) / (s.Max - s.Min) })
}

// Denormalize is the inverse of Normalize. The result may lie out of bounds.
func (pv *ParamVector) Denormalize(unit []float64) []float64 {
	return pv.each(unit, func(s ParamSpec, v float64) float64 { return s.Min + v*(s.Max-s.Min) })
}

// Clamp bounds each value to its parameter's [Min, Max].
func (pv *ParamVector) Clamp(v []float64) []float64 {
	return pv.each(v, func(s ParamSpec, x float64) float64 { return min(max(x, s.Min), s.Max) })
}

// ApplyToConfig writes clamped parameter values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].Set(cfg, v)
	}
}

// each builds a vector by applying f to every parameter and its value in in.
// A nil in yields zero inputs.
func (pv *ParamVector) each(in []float64, f func(ParamSpec, float64) float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		var x float64
		if in != nil {
			x = in[i]
		}
		out[i] = f(s, x)
	}
	return out
}
