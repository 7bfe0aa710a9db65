// Package handle maps simulations to small integer handles with C-style
// return codes, for hosts that cannot hold Go pointers.
//
// Counting calls return the count on success, 0 for a no-op and a negative
// Code on failure; the failure message is kept for LastError. A Registry is
// safe for concurrent use, but calls on one handle must still be serialized
// by the host.
package handle

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pthm-cable/microswarm/config"
	"github.com/pthm-cable/microswarm/sim"
	"github.com/pthm-cable/microswarm/systems"
	"github.com/pthm-cable/microswarm/telemetry"
)

// API version reported to hosts.
const (
	VersionMajor = 1
	VersionMinor = 0
	VersionPatch = 0
)

// Handle identifies one simulation. 0 is never a valid handle.
type Handle int32

// Code is a negative failure result.
type Code int32

const (
	CodeInvalidHandle Code = -1
	CodeInvalidConfig Code = -2
	CodeBufferSize    Code = -3
	CodeUnknownField  Code = -4
	CodeOutOfRange    Code = -5
	CodeNoAgent       Code = -6
	CodeUnusable      Code = -7
	CodeIO            Code = -8
)

// ErrInvalidHandle is recorded for calls on unknown or destroyed handles.
var ErrInvalidHandle = errors.New("invalid handle")

// CodeOf maps an error to its return code.
func CodeOf(err error) Code {
	switch {
	case errors.Is(err, ErrInvalidHandle), errors.Is(err, sim.ErrClosed):
		return CodeInvalidHandle
	case errors.Is(err, config.ErrInvalid):
		return CodeInvalidConfig
	case errors.Is(err, sim.ErrBufferSize):
		return CodeBufferSize
	case errors.Is(err, sim.ErrUnknownField):
		return CodeUnknownField
	case errors.Is(err, sim.ErrOutOfRange), errors.Is(err, telemetry.ErrDNARecord):
		return CodeOutOfRange
	case errors.Is(err, sim.ErrNoAgent):
		return CodeNoAgent
	case errors.Is(err, sim.ErrUnusable):
		return CodeUnusable
	}
	return CodeIO
}

// entry serializes calls on one simulation. mu guards sim and lastErr.
type entry struct {
	mu      sync.Mutex
	sim     *sim.Simulation
	lastErr error
}

// Registry owns every simulation created through it. mu guards the handle
// table only; calls on distinct handles never wait for each other.
type Registry struct {
	mu      sync.Mutex
	next    Handle
	entries map[Handle]*entry
	logger  *slog.Logger

	createErr error // last failed Create, which has no handle to hang it on
}

// NewRegistry creates an empty registry. logger may be nil.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		next:    1,
		entries: make(map[Handle]*entry),
		logger:  logger,
	}
}

func (r *Registry) opts() []sim.Option {
	if r.logger == nil {
		return nil
	}
	return []sim.Option{sim.WithLogger(r.logger)}
}

func (r *Registry) add(s *sim.Simulation) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.next
	r.next++
	r.entries[h] = &entry{sim: s}
	return h
}

// Create builds a simulation from a flat parameter block over the embedded
// defaults. Returns 0 if the parameters are invalid.
func (r *Registry) Create(p Params, seed uint32) Handle {
	return r.CreateConfig(FromParams(nil, p, seed))
}

// CreateConfig builds a simulation from a full configuration. Returns 0 on failure.
func (r *Registry) CreateConfig(cfg *config.Config) Handle {
	s, err := sim.New(cfg, r.opts()...)
	if err != nil {
		r.mu.Lock()
		r.createErr = err
		r.mu.Unlock()
		return 0
	}
	return r.add(s)
}

// Destroy closes the simulation and releases the handle.
func (r *Registry) Destroy(h Handle) int32 {
	r.mu.Lock()
	e, ok := r.entries[h]
	delete(r.entries, h)
	r.mu.Unlock()
	if !ok {
		return int32(CodeInvalidHandle)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sim.Close()
	return 0
}

// Clone copies a simulation under a new handle. Returns 0 on failure.
func (r *Registry) Clone(h Handle) Handle {
	var out Handle
	r.with(h, func(s *sim.Simulation) error {
		c, err := s.Clone()
		if err != nil {
			return err
		}
		out = r.add(c)
		return nil
	})
	return out
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// LastError returns the message of the last failed call on h, or of the last
// failed Create when h is 0.
func (r *Registry) LastError(h Handle) string {
	var err error
	if h == 0 {
		r.mu.Lock()
		err = r.createErr
		r.mu.Unlock()
	} else if e, ok := r.lookup(h); ok {
		e.mu.Lock()
		err = e.lastErr
		e.mu.Unlock()
	} else {
		err = fmt.Errorf("%w: %d", ErrInvalidHandle, h)
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func (r *Registry) lookup(h Handle) (*entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[h]
	return e, ok
}

// with runs fn on the simulation behind h under that handle's lock, recording
// any error. A handle destroyed meanwhile reports sim.ErrClosed.
func (r *Registry) with(h Handle, fn func(*sim.Simulation) error) Code {
	e, ok := r.lookup(h)
	if !ok {
		return CodeInvalidHandle
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	err := fn(e.sim)
	e.lastErr = err
	if err != nil {
		if r.logger != nil {
			r.logger.Debug("handle call failed", "handle", int32(h), "error", err)
		}
		return CodeOf(err)
	}
	return 0
}

// count runs fn and returns its count, or the failure code.
func (r *Registry) count(h Handle, fn func(*sim.Simulation) (int, error)) int32 {
	var n int
	if code := r.with(h, func(s *sim.Simulation) error {
		var err error
		n, err = fn(s)
		return err
	}); code != 0 {
		return int32(code)
	}
	return int32(n)
}

// Reset rebuilds the world with a new seed.
func (r *Registry) Reset(h Handle, seed uint32) int32 {
	return int32(r.with(h, func(s *sim.Simulation) error { return s.Reset(seed) }))
}

// Step advances n steps and returns the number executed. A paused
// simulation reports n without advancing, so the non-positive range stays
// reserved for n <= 0 and failures; StepIndex shows whether time moved.
func (r *Registry) Step(h Handle, n int32) int32 {
	return r.count(h, func(s *sim.Simulation) (int, error) {
		done, err := s.Step(int(n))
		if err == nil && n > 0 && s.Paused() {
			return int(n), nil
		}
		return done, err
	})
}

// Pause suspends stepping.
func (r *Registry) Pause(h Handle) int32 {
	return int32(r.with(h, func(s *sim.Simulation) error { s.Pause(); return nil }))
}

// Resume re-enables stepping.
func (r *Registry) Resume(h Handle) int32 {
	return int32(r.with(h, func(s *sim.Simulation) error { s.Resume(); return nil }))
}

// StepIndex returns the step counter.
func (r *Registry) StepIndex(h Handle) int32 {
	return r.count(h, func(s *sim.Simulation) (int, error) { return s.StepIndex(), nil })
}

// SetParams overlays p onto the active configuration and rebuilds the world.
func (r *Registry) SetParams(h Handle, p Params) int32 {
	return int32(r.with(h, func(s *sim.Simulation) error {
		cfg := s.Config()
		return s.SetConfig(FromParams(cfg, p, cfg.World.Seed))
	}))
}

// GetParams returns the active parameters.
func (r *Registry) GetParams(h Handle) (Params, int32) {
	var p Params
	code := r.with(h, func(s *sim.Simulation) error {
		p = ToParams(s.Config())
		return nil
	})
	return p, int32(code)
}

// SpeciesProfiles returns the role profiles.
func (r *Registry) SpeciesProfiles(h Handle) ([]config.SpeciesProfile, int32) {
	var out []config.SpeciesProfile
	code := r.with(h, func(s *sim.Simulation) error {
		out = s.SpeciesProfiles()
		return nil
	})
	return out, int32(code)
}

// SetSpeciesProfiles replaces the role profiles.
func (r *Registry) SetSpeciesProfiles(h Handle, profiles []config.SpeciesProfile) int32 {
	return int32(r.with(h, func(s *sim.Simulation) error { return s.SetSpeciesProfiles(profiles) }))
}

// SpeciesFracs returns the spawn fractions.
func (r *Registry) SpeciesFracs(h Handle) ([]float32, int32) {
	var out []float32
	code := r.with(h, func(s *sim.Simulation) error {
		out = s.SpeciesFracs()
		return nil
	})
	return out, int32(code)
}

// SetSpeciesFracs replaces the spawn fractions.
func (r *Registry) SetSpeciesFracs(h Handle, fracs []float32) int32 {
	return int32(r.with(h, func(s *sim.Simulation) error { return s.SetSpeciesFracs(fracs) }))
}

// FieldInfo returns a field's dimensions, or 0, 0 on failure.
func (r *Registry) FieldInfo(h Handle, kind int32) (w, hgt int32) {
	r.with(h, func(s *sim.Simulation) error {
		fw, fh, err := s.FieldInfo(systems.Kind(clampKind(kind)))
		w, hgt = int32(fw), int32(fh)
		return err
	})
	return w, hgt
}

// CopyFieldOut writes a field into dst and returns the number of values.
func (r *Registry) CopyFieldOut(h Handle, kind int32, dst []float32) int32 {
	return r.count(h, func(s *sim.Simulation) (int, error) {
		return s.CopyFieldOut(systems.Kind(clampKind(kind)), dst)
	})
}

// CopyFieldIn replaces a field from src and returns the number of values.
func (r *Registry) CopyFieldIn(h Handle, kind int32, src []float32) int32 {
	return r.count(h, func(s *sim.Simulation) (int, error) {
		return s.CopyFieldIn(systems.Kind(clampKind(kind)), src)
	})
}

// ClearField fills a field with v.
func (r *Registry) ClearField(h Handle, kind int32, v float32) int32 {
	return int32(r.with(h, func(s *sim.Simulation) error {
		return s.ClearField(systems.Kind(clampKind(kind)), v)
	}))
}

// PaintDisc paints a disc into a field and returns the number of cells.
func (r *Registry) PaintDisc(h Handle, kind, cx, cy, radius int32, value float32) int32 {
	return r.count(h, func(s *sim.Simulation) (int, error) {
		return s.PaintDisc(systems.Kind(clampKind(kind)), int(cx), int(cy), int(radius), value)
	})
}

// LoadFieldCSV replaces a field from a CSV file. Returns 1 on success.
func (r *Registry) LoadFieldCSV(h Handle, kind int32, path string) int32 {
	return r.count(h, func(s *sim.Simulation) (int, error) {
		return 1, s.LoadFieldCSV(systems.Kind(clampKind(kind)), path)
	})
}

// SaveFieldCSV writes a field to a CSV file. Returns 1 on success.
func (r *Registry) SaveFieldCSV(h Handle, kind int32, path string) int32 {
	return r.count(h, func(s *sim.Simulation) (int, error) {
		return 1, s.SaveFieldCSV(systems.Kind(clampKind(kind)), path)
	})
}

// clampKind maps negative host values onto an invalid kind.
func clampKind(kind int32) uint8 {
	if kind < 0 || kind > int32(systems.NumKinds) {
		return uint8(systems.NumKinds)
	}
	return uint8(kind)
}

// AgentCount returns the population size.
func (r *Registry) AgentCount(h Handle) int32 {
	return r.count(h, func(s *sim.Simulation) (int, error) { return s.AgentCount(), nil })
}

// Agents copies up to len(out) agents and returns the number copied.
func (r *Registry) Agents(h Handle, out []AgentRecord) int32 {
	return r.count(h, func(s *sim.Simulation) (int, error) {
		agents, err := s.Agents()
		if err != nil {
			return 0, err
		}
		n := min(len(out), len(agents))
		for i := 0; i < n; i++ {
			out[i] = agentRecord(agents[i])
		}
		return n, nil
	})
}

// SetAgents replaces the population and returns its new size.
func (r *Registry) SetAgents(h Handle, records []AgentRecord) int32 {
	return r.count(h, func(s *sim.Simulation) (int, error) {
		agents := make([]systems.Agent, len(records))
		for i, rec := range records {
			agents[i] = agentFromRecord(rec)
		}
		if err := s.SetAgents(agents); err != nil {
			return 0, err
		}
		return len(agents), nil
	})
}

// KillAgent zeroes one agent's energy.
func (r *Registry) KillAgent(h Handle, slot int32) int32 {
	return int32(r.with(h, func(s *sim.Simulation) error { return s.KillAgent(int(slot)) }))
}

// SpawnAgent appends an agent and returns the new population size.
func (r *Registry) SpawnAgent(h Handle, rec AgentRecord) int32 {
	return r.count(h, func(s *sim.Simulation) (int, error) {
		if _, err := s.SpawnAgent(agentFromRecord(rec)); err != nil {
			return 0, err
		}
		return s.AgentCount(), nil
	})
}

// DNASizes returns personal entries per species and the global archive size.
func (r *Registry) DNASizes(h Handle) (bySpecies []int32, global int32) {
	r.with(h, func(s *sim.Simulation) error {
		sizes, g := s.DNASizes()
		bySpecies = make([]int32, len(sizes))
		for i, n := range sizes {
			bySpecies[i] = int32(n)
		}
		global = int32(g)
		return nil
	})
	return bySpecies, global
}

// DNACapacity returns the archive bounds.
func (r *Registry) DNACapacity(h Handle) (personal, global int32) {
	r.with(h, func(s *sim.Simulation) error {
		p, g := s.DNACapacity()
		personal, global = int32(p), int32(g)
		return nil
	})
	return personal, global
}

// SetDNACapacity changes the archive bounds.
func (r *Registry) SetDNACapacity(h Handle, personal, global int32) int32 {
	return int32(r.with(h, func(s *sim.Simulation) error {
		return s.SetDNACapacity(int(personal), int(global))
	}))
}

// ClearDNA empties every archive.
func (r *Registry) ClearDNA(h Handle) int32 {
	return int32(r.with(h, func(s *sim.Simulation) error { return s.ClearDNA() }))
}

// ExportDNA writes the archives to a CSV file and returns the record count.
func (r *Registry) ExportDNA(h Handle, path string) int32 {
	return r.count(h, func(s *sim.Simulation) (int, error) {
		if err := s.ExportDNA(path); err != nil {
			return 0, err
		}
		return len(s.Archives()), nil
	})
}

// ImportDNA reads archives from a CSV file and returns the number stored.
func (r *Registry) ImportDNA(h Handle, path string) int32 {
	return r.count(h, func(s *sim.Simulation) (int, error) { return s.ImportDNA(path) })
}

// Metrics returns the system summary.
func (r *Registry) Metrics(h Handle) (sim.Metrics, int32) {
	var m sim.Metrics
	code := r.with(h, func(s *sim.Simulation) error {
		m = s.Metrics()
		return nil
	})
	return m, int32(code)
}

// EnergyStats returns mean, minimum and maximum agent energy.
func (r *Registry) EnergyStats(h Handle) (avg, lo, hi float32) {
	r.with(h, func(s *sim.Simulation) error {
		avg, lo, hi = s.EnergyStats()
		return nil
	})
	return avg, lo, hi
}

// EnergyBySpecies returns the mean energy per species.
func (r *Registry) EnergyBySpecies(h Handle) []float32 {
	var out []float32
	r.with(h, func(s *sim.Simulation) error {
		out = s.EnergyBySpecies()
		return nil
	})
	return out
}

// Entropy returns histogram statistics for every field.
func (r *Registry) Entropy(h Handle) []telemetry.FieldStats {
	var out []telemetry.FieldStats
	r.with(h, func(s *sim.Simulation) error {
		out = s.Entropy()
		return nil
	})
	return out
}

// MycelStats returns the mycel minimum, maximum and mean.
func (r *Registry) MycelStats(h Handle) (lo, hi, mean float32) {
	r.with(h, func(s *sim.Simulation) error {
		lo, hi, mean = s.MycelStats()
		return nil
	})
	return lo, hi, mean
}

// GPUActive always reports false; there is no accelerator backend.
func (r *Registry) GPUActive(h Handle) bool { return false }
