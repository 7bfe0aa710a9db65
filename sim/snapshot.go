package sim

import (
	"fmt"
	"math/rand/v2"

	"github.com/pthm-cable/microswarm/systems"
	"github.com/pthm-cable/microswarm/telemetry"
)

// Snapshot captures the complete state needed to resume the run.
func (s *Simulation) Snapshot() (*telemetry.Snapshot, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	state, err := s.pcg.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("saving rng state: %w", err)
	}

	snap := &telemetry.Snapshot{
		Version:  telemetry.SnapshotVersion,
		Seed:     s.cfg.World.Seed,
		Step:     s.step,
		Paused:   s.paused,
		RNG:      state,
		Config:   s.cfg.Clone(),
		Fields:   make(map[string][]float32, systems.NumKinds),
		Blocked:  s.fields.BlockedCells(),
		Agents:   s.pop.Snapshots(),
		Personal: make([][]systems.ArchiveEntry, len(s.evo.Personal)),
		Global:   s.evo.Global.Entries(),
	}
	for _, k := range systems.Kinds() {
		snap.Fields[k.String()] = append([]float32(nil), s.fields.Field(k).Data...)
	}
	for i, a := range s.evo.Personal {
		snap.Personal[i] = a.Entries()
	}
	return snap, nil
}

// Restore builds a simulation from a snapshot. Stepping the result produces
// the same states as stepping the simulation the snapshot was taken from.
func Restore(snap *telemetry.Snapshot, opts ...Option) (*Simulation, error) {
	if snap == nil || snap.Config == nil {
		return nil, fmt.Errorf("%w: empty snapshot", ErrOutOfRange)
	}
	cfg := snap.Config.Clone()
	cfg.World.AgentCount = len(snap.Agents)
	s, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.restore(snap); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Simulation) restore(snap *telemetry.Snapshot) error {
	pcg := new(rand.PCG)
	if err := pcg.UnmarshalBinary(snap.RNG); err != nil {
		return fmt.Errorf("restoring rng state: %w", err)
	}

	s.fields.ClearBlocks()
	cells := s.fields.W * s.fields.H
	for _, i := range snap.Blocked {
		if i < 0 || i >= cells {
			return fmt.Errorf("%w: blocked cell %d", ErrOutOfRange, i)
		}
		s.fields.Block(i%s.fields.W, i/s.fields.W, 1, 1)
	}
	for _, k := range systems.Kinds() {
		data, ok := snap.Fields[k.String()]
		if !ok {
			return fmt.Errorf("%w: snapshot lacks field %s", ErrUnknownField, k)
		}
		if _, err := s.CopyFieldIn(k, data); err != nil {
			return err
		}
	}

	if err := s.SetAgents(snap.Agents); err != nil {
		return err
	}
	if len(snap.Personal) > len(s.evo.Personal) {
		return fmt.Errorf("%w: %d personal archives for %d agents", ErrNoAgent, len(snap.Personal), len(s.evo.Personal))
	}
	for i, entries := range snap.Personal {
		for _, e := range entries {
			s.evo.Personal[i].Insert(e)
		}
	}
	s.evo.Global.Clear()
	for _, e := range snap.Global {
		s.evo.Global.Insert(e)
	}

	s.pcg = pcg
	s.rng = rand.New(pcg)
	s.step = snap.Step
	s.paused = snap.Paused
	return nil
}
