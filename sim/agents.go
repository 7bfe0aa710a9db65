package sim

import (
	"fmt"
	"math"

	"github.com/pthm-cable/microswarm/systems"
)

// Agents returns a snapshot of every agent, in slot order.
func (s *Simulation) Agents() ([]systems.Agent, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	return s.pop.Snapshots(), nil
}

// AgentCount returns the population size, dead agents included.
func (s *Simulation) AgentCount() int {
	if s.closed {
		return 0
	}
	return s.pop.Len()
}

// checkAgent validates a host-supplied agent and clamps its genome.
func (s *Simulation) checkAgent(a *systems.Agent) error {
	if a.X < 0 || a.Y < 0 || a.X >= s.fields.W || a.Y >= s.fields.H {
		return fmt.Errorf("%w: position (%d, %d) outside %dx%d", ErrOutOfRange, a.X, a.Y, s.fields.W, s.fields.H)
	}
	e := float64(a.Energy)
	if math.IsNaN(e) || math.IsInf(e, 0) || e < 0 {
		return fmt.Errorf("%w: energy %g", ErrOutOfRange, a.Energy)
	}
	h := float64(a.Heading)
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return fmt.Errorf("%w: heading %g", ErrOutOfRange, a.Heading)
	}
	if int(a.Species) >= len(s.cfg.Species.Profiles) {
		return fmt.Errorf("%w: species %d", ErrOutOfRange, a.Species)
	}
	a.Genome.Clamp()
	a.Dead = a.Energy == 0
	return nil
}

// SetAgents replaces the whole population. Personal archives start empty
// and the configured agent count follows the new size.
func (s *Simulation) SetAgents(agents []systems.Agent) error {
	if err := s.usable(); err != nil {
		return err
	}
	if len(agents) == 0 {
		return fmt.Errorf("%w: population must not be empty", ErrOutOfRange)
	}
	checked := make([]systems.Agent, len(agents))
	for i := range agents {
		checked[i] = agents[i]
		if err := s.checkAgent(&checked[i]); err != nil {
			return fmt.Errorf("agent %d: %w", i, err)
		}
	}

	s.pop.Truncate(0)
	for _, a := range checked {
		s.pop.Add(a)
	}
	s.evo.Resize(0, s.cfg.DNA.Capacity)
	s.evo.Resize(len(checked), s.cfg.DNA.Capacity)
	s.cfg.World.AgentCount = len(checked)
	return nil
}

// KillAgent zeroes an agent's energy. It is replaced at the next step.
func (s *Simulation) KillAgent(slot int) error {
	if err := s.usable(); err != nil {
		return err
	}
	if slot < 0 || slot >= s.pop.Len() {
		return fmt.Errorf("%w: slot %d", ErrNoAgent, slot)
	}
	_, _, energy, _, _, _ := s.pop.Get(slot)
	energy.Value = 0
	energy.Dead = true
	return nil
}

// SpawnAgent appends an agent to the population and returns its slot.
func (s *Simulation) SpawnAgent(a systems.Agent) (int, error) {
	if err := s.usable(); err != nil {
		return 0, err
	}
	if err := s.checkAgent(&a); err != nil {
		return 0, err
	}
	a.BornStep = s.step
	slot := s.pop.Add(a)
	s.evo.Resize(s.pop.Len(), s.cfg.DNA.Capacity)
	s.cfg.World.AgentCount = s.pop.Len()
	return slot, nil
}

// SpawnRandom appends an agent with a random genome at a spawn cell.
func (s *Simulation) SpawnRandom() (int, error) {
	if err := s.usable(); err != nil {
		return 0, err
	}
	slot := s.pop.Add(s.spawn.Random(s.rng, s.fields, s.step))
	s.evo.Resize(s.pop.Len(), s.cfg.DNA.Capacity)
	s.cfg.World.AgentCount = s.pop.Len()
	return slot, nil
}
