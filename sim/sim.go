// Package sim owns a complete swarm world and exposes the host contract:
// create, step, read a field, write a field, plus lifecycle, agent, DNA and
// metrics operations.
//
// A Simulation is not safe for concurrent use; callers serialize calls on one
// context. Distinct contexts share nothing and may run in parallel.
package sim

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/pthm-cable/microswarm/config"
	"github.com/pthm-cable/microswarm/systems"
	"github.com/pthm-cable/microswarm/telemetry"
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("simulation closed")
	// ErrUnusable is returned once a step has left non-finite state behind.
	ErrUnusable = errors.New("simulation unusable")
	// ErrUnknownField is returned for a field kind outside the closed set.
	ErrUnknownField = errors.New("unknown field")
	// ErrBufferSize is returned when a buffer does not match the field size.
	ErrBufferSize = errors.New("buffer size mismatch")
	// ErrOutOfRange is returned for values outside their valid range.
	ErrOutOfRange = errors.New("value out of range")
	// ErrNoAgent is returned for an agent slot that does not exist.
	ErrNoAgent = errors.New("no such agent")
)

// streamSalt selects the PCG stream from the seed.
const streamSalt = 0x9e3779b97f4a7c15

// Option configures a Simulation at construction.
type Option func(*Simulation)

// WithLogger routes lifecycle events to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulation) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Simulation is one independent world: fields, agents, archives, RNG stream
// and step counter, all owned exclusively.
type Simulation struct {
	cfg    *config.Config
	logger *slog.Logger

	pcg  *rand.PCG
	rng  *rand.Rand
	pool *systems.Pool

	fields *systems.FieldStore
	mycel  *systems.MycelSystem
	agents *systems.AgentSystem
	pop    *systems.Population
	evo    *systems.Evolution
	spawn  *systems.Spawner
	stress systems.StressEvent

	perf *telemetry.PerfCollector

	step     int
	paused   bool
	closed   bool
	unusable bool

	last  systems.StepStats // counters of the last Step call
	total systems.StepStats // counters since creation or reset
}

// New validates cfg and builds a simulation from a private copy of it.
func New(cfg *config.Config, opts ...Option) (*Simulation, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalid)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulation{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.build(cfg.Clone())
	s.logger.Debug("simulation created",
		"width", s.cfg.World.Width,
		"height", s.cfg.World.Height,
		"agents", s.cfg.World.AgentCount,
		"seed", s.cfg.World.Seed,
		"workers", s.pool.Workers(),
	)
	return s, nil
}

// build (re)initialises every subsystem from cfg, which the simulation owns.
func (s *Simulation) build(cfg *config.Config) {
	s.cfg = cfg
	seed := cfg.World.Seed
	s.pcg = rand.NewPCG(uint64(seed), uint64(seed)^streamSalt)
	s.rng = rand.New(s.pcg)
	if s.pool == nil {
		s.pool = systems.NewPool(cfg.World.Workers)
	}

	s.fields = systems.NewFieldStore(cfg, s.pool)
	systems.SeedResources(s.fields, cfg, s.rng)
	s.mycel = systems.NewMycelSystem(cfg)
	s.agents = systems.NewAgentSystem(cfg)
	s.spawn = systems.NewSpawner(cfg)

	s.pop = systems.NewPopulation(cfg.Evolution.FitnessWindow)
	for i := 0; i < cfg.World.AgentCount; i++ {
		s.pop.Add(s.spawn.Random(s.rng, s.fields, 0))
	}
	s.evo = systems.NewEvolution(cfg, cfg.World.AgentCount)
	s.stress = systems.StressFromConfig(cfg.Stress, seed)

	if s.perf == nil {
		s.perf = telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	} else {
		s.perf.Reset()
	}

	s.step = 0
	s.unusable = false
	s.last, s.total = systems.StepStats{}, systems.StepStats{}
}

// Close releases the worker pool. Every later call returns ErrClosed.
func (s *Simulation) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.pool.Close()
	s.closed = true
	s.logger.Debug("simulation closed", "step", s.step)
	return nil
}

func (s *Simulation) usable() error {
	if s.closed {
		return ErrClosed
	}
	if s.unusable {
		return ErrUnusable
	}
	return nil
}

// Step advances the simulation by n steps and returns the number executed.
// n <= 0 and a paused simulation are no-op successes. A step that leaves a
// non-finite field or agent value poisons the context: Step returns
// ErrUnusable and so does every later call.
func (s *Simulation) Step(n int) (int, error) {
	if err := s.usable(); err != nil {
		return 0, err
	}
	if n <= 0 || s.paused {
		return 0, nil
	}

	var stats systems.StepStats
	for i := 0; i < n; i++ {
		s.stepOnce(&stats)
		if !s.fields.Finite() || !s.pop.Finite() {
			s.unusable = true
			s.total.Add(stats)
			s.logger.Warn("non-finite state, simulation unusable", "step", s.step)
			return 0, ErrUnusable
		}
	}
	s.last = stats
	s.total.Add(stats)
	return n, nil
}

// stepOnce runs one step: fields, mycel, agents in slot order, then
// evolution (or plain respawn when disabled) and any scheduled stress event.
func (s *Simulation) stepOnce(stats *systems.StepStats) {
	s.perf.StartStep()

	s.perf.StartPhase(telemetry.PhaseFields)
	s.fields.Update()

	s.perf.StartPhase(telemetry.PhaseMycel)
	s.mycel.Update(s.fields)

	s.perf.StartPhase(telemetry.PhaseAgents)
	s.agents.Step(s.pop, s.fields, s.rng, stats)

	s.perf.StartPhase(telemetry.PhaseEvolution)
	if s.evo.Enabled() {
		s.evo.Step(s.step, s.pop, s.fields, s.spawn, s.rng, stats)
	} else {
		s.spawn.RespawnDead(s.pop, s.fields, s.rng, s.step, stats)
	}

	if s.cfg.Stress.Enable && s.step == s.cfg.Stress.AtStep {
		s.perf.StartPhase(telemetry.PhaseStress)
		systems.ApplyStress(s.fields, s.stress)
		s.logger.Info("stress event applied", "step", s.step)
	}

	s.step++
	s.perf.EndStep()
}

// Reset rebuilds the world from the current configuration with a new seed.
// Archives are emptied and the step counter returns to zero. The paused flag
// is kept.
func (s *Simulation) Reset(seed uint32) error {
	if s.closed {
		return ErrClosed
	}
	cfg := s.cfg.Clone()
	cfg.World.Seed = seed
	s.build(cfg)
	s.logger.Debug("simulation reset", "seed", seed)
	return nil
}

// SetConfig validates cfg and rebuilds the world from a copy of it.
func (s *Simulation) SetConfig(cfg *config.Config) error {
	if s.closed {
		return ErrClosed
	}
	if cfg == nil {
		return fmt.Errorf("%w: nil config", config.ErrInvalid)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.World.Workers != s.cfg.World.Workers {
		s.pool.Close()
		s.pool = nil
	}
	s.build(cfg.Clone())
	s.logger.Debug("simulation reconfigured", "seed", s.cfg.World.Seed)
	return nil
}

// Clone returns an independent deep copy, continuing the same RNG stream.
// The clone has its own worker pool and logger.
func (s *Simulation) Clone() (*Simulation, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	state, err := s.pcg.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("saving rng state: %w", err)
	}
	pcg := new(rand.PCG)
	if err := pcg.UnmarshalBinary(state); err != nil {
		return nil, fmt.Errorf("restoring rng state: %w", err)
	}

	pool := systems.NewPool(s.cfg.World.Workers)
	out := &Simulation{
		cfg:    s.cfg.Clone(),
		logger: s.logger,
		pcg:    pcg,
		rng:    rand.New(pcg),
		pool:   pool,
		fields: s.fields.Clone(pool),
		pop:    s.pop.Clone(),
		evo:    s.evo.Clone(),
		stress: s.stress,
		perf:   telemetry.NewPerfCollector(s.cfg.Telemetry.PerfWindow),
		step:   s.step,
		paused: s.paused,
		last:   s.last,
		total:  s.total,
	}
	out.configure()
	return out, nil
}

// configure rebuilds the stateless systems from the current config.
func (s *Simulation) configure() {
	s.mycel = systems.NewMycelSystem(s.cfg)
	s.agents = systems.NewAgentSystem(s.cfg)
	s.spawn = systems.NewSpawner(s.cfg)
	s.evo.Configure(s.cfg)
}

// Pause makes Step a no-op until Resume.
func (s *Simulation) Pause() { s.paused = true }

// Resume re-enables stepping.
func (s *Simulation) Resume() { s.paused = false }

// Paused reports whether stepping is suspended.
func (s *Simulation) Paused() bool { return s.paused }

// StepIndex returns the number of steps executed since creation or reset.
func (s *Simulation) StepIndex() int { return s.step }

// Seed returns the seed the world was built from.
func (s *Simulation) Seed() uint32 { return s.cfg.World.Seed }

// Config returns a copy of the active configuration.
func (s *Simulation) Config() *config.Config { return s.cfg.Clone() }

// LastStats returns the event counters of the last successful Step call.
func (s *Simulation) LastStats() systems.StepStats { return s.last }

// TotalStats returns the event counters since creation or reset.
func (s *Simulation) TotalStats() systems.StepStats { return s.total }

// ApplyStress perturbs the world immediately with ev.
func (s *Simulation) ApplyStress(ev systems.StressEvent) error {
	if err := s.usable(); err != nil {
		return err
	}
	systems.ApplyStress(s.fields, ev)
	s.logger.Info("stress event applied", "step", s.step)
	return nil
}
