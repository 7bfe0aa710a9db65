package sim

import (
	"fmt"

	"github.com/pthm-cable/microswarm/config"
)

// SpeciesProfiles returns a copy of the role profiles.
func (s *Simulation) SpeciesProfiles() []config.SpeciesProfile {
	return append([]config.SpeciesProfile(nil), s.cfg.Species.Profiles...)
}

// SetSpeciesProfiles replaces the role profiles. Existing agents keep their
// species index, so the profile count must not change.
func (s *Simulation) SetSpeciesProfiles(profiles []config.SpeciesProfile) error {
	return s.updateSpecies(func(c *config.SpeciesConfig) {
		c.Profiles = append([]config.SpeciesProfile(nil), profiles...)
	}, len(profiles))
}

// SpeciesFracs returns the spawn fraction of each species.
func (s *Simulation) SpeciesFracs() []float32 {
	return append([]float32(nil), s.cfg.Species.Fracs...)
}

// SetSpeciesFracs replaces the spawn fractions used for new agents.
func (s *Simulation) SetSpeciesFracs(fracs []float32) error {
	return s.updateSpecies(func(c *config.SpeciesConfig) {
		c.Fracs = append([]float32(nil), fracs...)
	}, len(fracs))
}

// updateSpecies applies edit to a copy of the config, validates it and
// reconfigures the running systems without rebuilding the world.
func (s *Simulation) updateSpecies(edit func(*config.SpeciesConfig), n int) error {
	if err := s.usable(); err != nil {
		return err
	}
	if n != len(s.cfg.Species.Profiles) {
		return fmt.Errorf("%w: %d species given, world has %d", ErrOutOfRange, n, len(s.cfg.Species.Profiles))
	}
	cfg := s.cfg.Clone()
	edit(&cfg.Species)
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg = cfg
	s.configure()
	return nil
}
