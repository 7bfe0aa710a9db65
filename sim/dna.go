package sim

import (
	"fmt"

	"github.com/pthm-cable/microswarm/systems"
	"github.com/pthm-cable/microswarm/telemetry"
)

// DNASizes returns the number of personal entries per donor species and the
// global archive size.
func (s *Simulation) DNASizes() (bySpecies []int, global int) {
	bySpecies = make([]int, len(s.cfg.Species.Profiles))
	for _, a := range s.evo.Personal {
		for _, e := range a.Entries() {
			if int(e.Species) < len(bySpecies) {
				bySpecies[e.Species]++
			}
		}
	}
	return bySpecies, s.evo.Global.Len()
}

// DNACapacity returns the personal and global archive bounds.
func (s *Simulation) DNACapacity() (personal, global int) {
	return s.cfg.DNA.Capacity, s.cfg.DNA.GlobalCapacity
}

// SetDNACapacity changes both archive bounds, evicting the lowest entries.
func (s *Simulation) SetDNACapacity(personal, global int) error {
	if err := s.usable(); err != nil {
		return err
	}
	if personal < 0 || global < 0 {
		return fmt.Errorf("%w: capacity %d/%d", ErrOutOfRange, personal, global)
	}
	s.cfg.DNA.Capacity = personal
	s.cfg.DNA.GlobalCapacity = global
	s.evo.SetCapacity(personal, global)
	return nil
}

// ClearDNA empties every archive.
func (s *Simulation) ClearDNA() error {
	if err := s.usable(); err != nil {
		return err
	}
	s.evo.Clear()
	return nil
}

// Archives flattens the archives into records, global first, then personal
// archives in slot order, each best first.
func (s *Simulation) Archives() []telemetry.DNARecord {
	var out []telemetry.DNARecord
	for _, e := range s.evo.Global.Entries() {
		out = append(out, telemetry.NewDNARecord(telemetry.PoolGlobal, e))
	}
	for _, a := range s.evo.Personal {
		for _, e := range a.Entries() {
			out = append(out, telemetry.NewDNARecord(telemetry.PoolPersonal, e))
		}
	}
	return out
}

// ImportArchive inserts records into their archives and returns how many
// were stored. Personal records go to the archive of their slot. Invalid
// records abort the import before anything is stored.
func (s *Simulation) ImportArchive(records []telemetry.DNARecord) (int, error) {
	if err := s.usable(); err != nil {
		return 0, err
	}
	entries := make([]systems.ArchiveEntry, len(records))
	for i, r := range records {
		e, err := r.Entry()
		if err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
		if r.Pool == telemetry.PoolPersonal && (r.Slot < 0 || r.Slot >= len(s.evo.Personal)) {
			return 0, fmt.Errorf("record %d: %w: slot %d", i, ErrNoAgent, r.Slot)
		}
		entries[i] = e
	}

	stored := 0
	for i, r := range records {
		archive := s.evo.Global
		if r.Pool == telemetry.PoolPersonal {
			archive = s.evo.Personal[r.Slot]
		}
		if archive.Insert(entries[i]) {
			stored++
		}
	}
	return stored, nil
}

// ExportDNA writes every archive to a CSV file.
func (s *Simulation) ExportDNA(path string) error {
	if err := s.usable(); err != nil {
		return err
	}
	return telemetry.SaveDNA(path, s.Archives())
}

// ImportDNA reads a CSV file written by ExportDNA into the archives.
func (s *Simulation) ImportDNA(path string) (int, error) {
	if err := s.usable(); err != nil {
		return 0, err
	}
	records, err := telemetry.LoadDNA(path)
	if err != nil {
		return 0, err
	}
	return s.ImportArchive(records)
}
