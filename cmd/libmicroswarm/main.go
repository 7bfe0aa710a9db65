// Command libmicroswarm builds the engine as a C shared library:
//
//	go build -buildmode=c-shared -o libmicroswarm.so ./cmd/libmicroswarm
//
// Every export takes an integer handle. Counting calls return the count,
// 0 for a no-op and a negative code on failure; ms_last_error explains it.
// ms_step on a paused handle returns n without advancing the step index.
// Calls on distinct handles may run concurrently from different threads.
package main

/*
#include <stdint.h>

typedef struct {
	int32_t width;
	int32_t height;
	int32_t agent_count;
	int32_t steps;

	float pheromone_evaporation;
	float pheromone_diffusion;
	float molecule_evaporation;
	float molecule_diffusion;

	float resource_regen;
	float resource_max;

	float mycel_decay;
	float mycel_growth;
	float mycel_transport;
	float mycel_drive_threshold;
	float mycel_drive_p;
	float mycel_drive_r;

	float agent_move_cost;
	float agent_harvest;
	float agent_deposit_scale;
	float agent_sense_radius;
	float agent_random_turn;

	int32_t dna_capacity;
	int32_t dna_global_capacity;
	float dna_survival_bias;

	float phero_food_deposit_scale;
	float phero_danger_deposit_scale;
	float danger_delta_threshold;
	float danger_bounce_deposit;

	int32_t evo_enable;
	float evo_elite_frac;
	float evo_min_energy_to_store;
	float evo_mutation_sigma;
	float evo_exploration_delta;
	int32_t evo_fitness_window;
	float evo_age_decay;

	float global_spawn_frac;
} ms_params_t;

typedef struct {
	float x;
	float y;
	float heading;
	float energy;
	int32_t species;
	float sense_gain;
	float pheromone_gain;
	float exploration_bias;
} ms_agent_t;

typedef struct {
	float exploration_mul;
	float food_attraction_mul;
	float danger_aversion_mul;
	float deposit_food_mul;
	float deposit_danger_mul;
	float resource_weight_mul;
	float molecule_weight_mul;
	float mycel_attraction_mul;
	float novelty_weight;
	float mutation_sigma_mul;
	float exploration_delta_mul;
	float over_density_threshold;
	float counter_deposit_mul;
} ms_species_profile_t;

typedef struct {
	int32_t step;
	int32_t agents;
	int32_t alive;
	int32_t dna_global;
	float avg_energy;
	float min_energy;
	float max_energy;
} ms_metrics_t;
*/
import "C"

import (
	"unsafe"

	"github.com/pthm-cable/microswarm/config"
	"github.com/pthm-cable/microswarm/handle"
	"github.com/pthm-cable/microswarm/systems"
)

// The C structs are read and written as their Go mirrors.
var (
	_ [unsafe.Sizeof(C.ms_params_t{}) - unsafe.Sizeof(handle.Params{})]byte
	_ [unsafe.Sizeof(handle.Params{}) - unsafe.Sizeof(C.ms_params_t{})]byte
	_ [unsafe.Sizeof(C.ms_agent_t{}) - unsafe.Sizeof(handle.AgentRecord{})]byte
	_ [unsafe.Sizeof(handle.AgentRecord{}) - unsafe.Sizeof(C.ms_agent_t{})]byte
)

var reg = handle.NewRegistry(nil)

func main() {}

func floats(p *C.float, n C.int) []float32 {
	if p == nil || n <= 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(p)), int(n))
}

func records(p *C.ms_agent_t, n C.int) []handle.AgentRecord {
	if p == nil || n <= 0 {
		return nil
	}
	return unsafe.Slice((*handle.AgentRecord)(unsafe.Pointer(p)), int(n))
}

//export ms_api_version
func ms_api_version(major, minor, patch *C.int32_t) {
	if major != nil {
		*major = handle.VersionMajor
	}
	if minor != nil {
		*minor = handle.VersionMinor
	}
	if patch != nil {
		*patch = handle.VersionPatch
	}
}

//export ms_gpu_active
func ms_gpu_active(h C.int32_t) C.int32_t {
	if reg.GPUActive(handle.Handle(h)) {
		return 1
	}
	return 0
}

//export ms_create
func ms_create(p *C.ms_params_t, seed C.uint32_t) C.int32_t {
	if p == nil {
		return 0
	}
	return C.int32_t(reg.Create(*(*handle.Params)(unsafe.Pointer(p)), uint32(seed)))
}

// ms_create_from_yaml builds a simulation from a YAML file layered over the
// defaults. Returns 0 on failure.
//
//export ms_create_from_yaml
func ms_create_from_yaml(path *C.char) C.int32_t {
	if path == nil {
		return 0
	}
	cfg, err := config.Load(C.GoString(path))
	if err != nil {
		return 0
	}
	return C.int32_t(reg.CreateConfig(cfg))
}

//export ms_destroy
func ms_destroy(h C.int32_t) C.int32_t {
	return C.int32_t(reg.Destroy(handle.Handle(h)))
}

//export ms_clone
func ms_clone(h C.int32_t) C.int32_t {
	return C.int32_t(reg.Clone(handle.Handle(h)))
}

//export ms_reset
func ms_reset(h C.int32_t, seed C.uint32_t) C.int32_t {
	return C.int32_t(reg.Reset(handle.Handle(h), uint32(seed)))
}

//export ms_step
func ms_step(h C.int32_t, n C.int32_t) C.int32_t {
	return C.int32_t(reg.Step(handle.Handle(h), int32(n)))
}

//export ms_pause
func ms_pause(h C.int32_t) C.int32_t {
	return C.int32_t(reg.Pause(handle.Handle(h)))
}

//export ms_resume
func ms_resume(h C.int32_t) C.int32_t {
	return C.int32_t(reg.Resume(handle.Handle(h)))
}

//export ms_step_index
func ms_step_index(h C.int32_t) C.int32_t {
	return C.int32_t(reg.StepIndex(handle.Handle(h)))
}

//export ms_set_params
func ms_set_params(h C.int32_t, p *C.ms_params_t) C.int32_t {
	if p == nil {
		return C.int32_t(handle.CodeInvalidConfig)
	}
	return C.int32_t(reg.SetParams(handle.Handle(h), *(*handle.Params)(unsafe.Pointer(p))))
}

//export ms_get_params
func ms_get_params(h C.int32_t, out *C.ms_params_t) C.int32_t {
	p, code := reg.GetParams(handle.Handle(h))
	if code == 0 && out != nil {
		*(*handle.Params)(unsafe.Pointer(out)) = p
	}
	return C.int32_t(code)
}

//export ms_get_field_info
func ms_get_field_info(h C.int32_t, kind C.int32_t, w, hgt *C.int32_t) C.int32_t {
	fw, fh := reg.FieldInfo(handle.Handle(h), int32(kind))
	if w != nil {
		*w = C.int32_t(fw)
	}
	if hgt != nil {
		*hgt = C.int32_t(fh)
	}
	if fw == 0 {
		return C.int32_t(handle.CodeUnknownField)
	}
	return 0
}

//export ms_copy_field_out
func ms_copy_field_out(h C.int32_t, kind C.int32_t, dst *C.float, capacity C.int) C.int32_t {
	return C.int32_t(reg.CopyFieldOut(handle.Handle(h), int32(kind), floats(dst, capacity)))
}

//export ms_copy_field_in
func ms_copy_field_in(h C.int32_t, kind C.int32_t, src *C.float, count C.int) C.int32_t {
	return C.int32_t(reg.CopyFieldIn(handle.Handle(h), int32(kind), floats(src, count)))
}

//export ms_clear_field
func ms_clear_field(h C.int32_t, kind C.int32_t, value C.float) C.int32_t {
	return C.int32_t(reg.ClearField(handle.Handle(h), int32(kind), float32(value)))
}

//export ms_paint_disc
func ms_paint_disc(h C.int32_t, kind, cx, cy, radius C.int32_t, value C.float) C.int32_t {
	return C.int32_t(reg.PaintDisc(handle.Handle(h), int32(kind), int32(cx), int32(cy), int32(radius), float32(value)))
}

//export ms_load_field_csv
func ms_load_field_csv(h C.int32_t, kind C.int32_t, path *C.char) C.int32_t {
	if path == nil {
		return C.int32_t(handle.CodeIO)
	}
	return C.int32_t(reg.LoadFieldCSV(handle.Handle(h), int32(kind), C.GoString(path)))
}

//export ms_save_field_csv
func ms_save_field_csv(h C.int32_t, kind C.int32_t, path *C.char) C.int32_t {
	if path == nil {
		return C.int32_t(handle.CodeIO)
	}
	return C.int32_t(reg.SaveFieldCSV(handle.Handle(h), int32(kind), C.GoString(path)))
}

//export ms_agent_count
func ms_agent_count(h C.int32_t) C.int32_t {
	return C.int32_t(reg.AgentCount(handle.Handle(h)))
}

//export ms_get_agents
func ms_get_agents(h C.int32_t, out *C.ms_agent_t, capacity C.int) C.int32_t {
	return C.int32_t(reg.Agents(handle.Handle(h), records(out, capacity)))
}

//export ms_set_agents
func ms_set_agents(h C.int32_t, src *C.ms_agent_t, count C.int) C.int32_t {
	return C.int32_t(reg.SetAgents(handle.Handle(h), records(src, count)))
}

//export ms_kill_agent
func ms_kill_agent(h C.int32_t, slot C.int32_t) C.int32_t {
	return C.int32_t(reg.KillAgent(handle.Handle(h), int32(slot)))
}

//export ms_spawn_agent
func ms_spawn_agent(h C.int32_t, a *C.ms_agent_t) C.int32_t {
	if a == nil {
		return C.int32_t(handle.CodeOutOfRange)
	}
	return C.int32_t(reg.SpawnAgent(handle.Handle(h), *(*handle.AgentRecord)(unsafe.Pointer(a))))
}

// ms_dna_sizes writes up to capacity per-species personal archive sizes and
// the global size. Returns the number of species.
//
//export ms_dna_sizes
func ms_dna_sizes(h C.int32_t, bySpecies *C.int32_t, capacity C.int, global *C.int32_t) C.int32_t {
	sizes, g := reg.DNASizes(handle.Handle(h))
	if sizes == nil {
		return C.int32_t(handle.CodeInvalidHandle)
	}
	if bySpecies != nil && capacity > 0 {
		out := unsafe.Slice((*int32)(unsafe.Pointer(bySpecies)), int(capacity))
		copy(out, sizes)
	}
	if global != nil {
		*global = C.int32_t(g)
	}
	return C.int32_t(len(sizes))
}

//export ms_get_dna_capacity
func ms_get_dna_capacity(h C.int32_t, personal, global *C.int32_t) {
	p, g := reg.DNACapacity(handle.Handle(h))
	if personal != nil {
		*personal = C.int32_t(p)
	}
	if global != nil {
		*global = C.int32_t(g)
	}
}

//export ms_set_dna_capacity
func ms_set_dna_capacity(h C.int32_t, personal, global C.int32_t) C.int32_t {
	return C.int32_t(reg.SetDNACapacity(handle.Handle(h), int32(personal), int32(global)))
}

//export ms_clear_dna
func ms_clear_dna(h C.int32_t) C.int32_t {
	return C.int32_t(reg.ClearDNA(handle.Handle(h)))
}

//export ms_export_dna
func ms_export_dna(h C.int32_t, path *C.char) C.int32_t {
	if path == nil {
		return C.int32_t(handle.CodeIO)
	}
	return C.int32_t(reg.ExportDNA(handle.Handle(h), C.GoString(path)))
}

//export ms_import_dna
func ms_import_dna(h C.int32_t, path *C.char) C.int32_t {
	if path == nil {
		return C.int32_t(handle.CodeIO)
	}
	return C.int32_t(reg.ImportDNA(handle.Handle(h), C.GoString(path)))
}

//export ms_get_metrics
func ms_get_metrics(h C.int32_t, out *C.ms_metrics_t) C.int32_t {
	m, code := reg.Metrics(handle.Handle(h))
	if code != 0 || out == nil {
		return C.int32_t(code)
	}
	avg, lo, hi := reg.EnergyStats(handle.Handle(h))
	*out = C.ms_metrics_t{
		step:       C.int32_t(m.Step),
		agents:     C.int32_t(m.Agents),
		alive:      C.int32_t(m.Alive),
		dna_global: C.int32_t(m.DNAGlobal),
		avg_energy: C.float(avg),
		min_energy: C.float(lo),
		max_energy: C.float(hi),
	}
	return 0
}

// ms_energy_by_species writes mean energy per species and returns the
// species count.
//
//export ms_energy_by_species
func ms_energy_by_species(h C.int32_t, out *C.float, capacity C.int) C.int32_t {
	e := reg.EnergyBySpecies(handle.Handle(h))
	if e == nil {
		return C.int32_t(handle.CodeInvalidHandle)
	}
	copy(floats(out, capacity), e)
	return C.int32_t(len(e))
}

//export ms_field_entropy
func ms_field_entropy(h C.int32_t, kind C.int32_t, entropy, norm, p95 *C.float) C.int32_t {
	for _, fs := range reg.Entropy(handle.Handle(h)) {
		if fs.Field != systems.Kind(kind).String() || kind < 0 {
			continue
		}
		if entropy != nil {
			*entropy = C.float(fs.Entropy)
		}
		if norm != nil {
			*norm = C.float(fs.NormEntropy)
		}
		if p95 != nil {
			*p95 = C.float(fs.P95)
		}
		return 0
	}
	return C.int32_t(handle.CodeUnknownField)
}

//export ms_mycel_stats
func ms_mycel_stats(h C.int32_t, lo, hi, mean *C.float) {
	l, u, m := reg.MycelStats(handle.Handle(h))
	if lo != nil {
		*lo = C.float(l)
	}
	if hi != nil {
		*hi = C.float(u)
	}
	if mean != nil {
		*mean = C.float(m)
	}
}

//export ms_get_species_fracs
func ms_get_species_fracs(h C.int32_t, out *C.float, capacity C.int) C.int32_t {
	fracs, code := reg.SpeciesFracs(handle.Handle(h))
	if code != 0 {
		return C.int32_t(code)
	}
	copy(floats(out, capacity), fracs)
	return C.int32_t(len(fracs))
}

//export ms_set_species_fracs
func ms_set_species_fracs(h C.int32_t, src *C.float, count C.int) C.int32_t {
	return C.int32_t(reg.SetSpeciesFracs(handle.Handle(h), append([]float32(nil), floats(src, count)...)))
}

//export ms_get_species_profile
func ms_get_species_profile(h C.int32_t, index C.int32_t, out *C.ms_species_profile_t) C.int32_t {
	profiles, code := reg.SpeciesProfiles(handle.Handle(h))
	if code != 0 {
		return C.int32_t(code)
	}
	if index < 0 || int(index) >= len(profiles) || out == nil {
		return C.int32_t(handle.CodeOutOfRange)
	}
	p := profiles[index]
	*out = C.ms_species_profile_t{
		exploration_mul:        C.float(p.ExplorationMul),
		food_attraction_mul:    C.float(p.FoodAttractionMul),
		danger_aversion_mul:    C.float(p.DangerAversionMul),
		deposit_food_mul:       C.float(p.DepositFoodMul),
		deposit_danger_mul:     C.float(p.DepositDangerMul),
		resource_weight_mul:    C.float(p.ResourceWeightMul),
		molecule_weight_mul:    C.float(p.MoleculeWeightMul),
		mycel_attraction_mul:   C.float(p.MycelAttractionMul),
		novelty_weight:         C.float(p.NoveltyWeight),
		mutation_sigma_mul:     C.float(p.MutationSigmaMul),
		exploration_delta_mul:  C.float(p.ExplorationDeltaMul),
		over_density_threshold: C.float(p.OverDensityThreshold),
		counter_deposit_mul:    C.float(p.CounterDepositMul),
	}
	return 0
}

//export ms_set_species_profile
func ms_set_species_profile(h C.int32_t, index C.int32_t, in *C.ms_species_profile_t) C.int32_t {
	profiles, code := reg.SpeciesProfiles(handle.Handle(h))
	if code != 0 {
		return C.int32_t(code)
	}
	if index < 0 || int(index) >= len(profiles) || in == nil {
		return C.int32_t(handle.CodeOutOfRange)
	}
	p := &profiles[index]
	p.ExplorationMul = float32(in.exploration_mul)
	p.FoodAttractionMul = float32(in.food_attraction_mul)
	p.DangerAversionMul = float32(in.danger_aversion_mul)
	p.DepositFoodMul = float32(in.deposit_food_mul)
	p.DepositDangerMul = float32(in.deposit_danger_mul)
	p.ResourceWeightMul = float32(in.resource_weight_mul)
	p.MoleculeWeightMul = float32(in.molecule_weight_mul)
	p.MycelAttractionMul = float32(in.mycel_attraction_mul)
	p.NoveltyWeight = float32(in.novelty_weight)
	p.MutationSigmaMul = float32(in.mutation_sigma_mul)
	p.ExplorationDeltaMul = float32(in.exploration_delta_mul)
	p.OverDensityThreshold = float32(in.over_density_threshold)
	p.CounterDepositMul = float32(in.counter_deposit_mul)
	return C.int32_t(reg.SetSpeciesProfiles(handle.Handle(h), profiles))
}

// ms_last_error copies the last failure message for h into buf, NUL
// terminated and truncated to capacity. Returns the full message length.
//
//export ms_last_error
func ms_last_error(h C.int32_t, buf *C.char, capacity C.int) C.int32_t {
	msg := reg.LastError(handle.Handle(h))
	if buf != nil && capacity > 0 {
		out := unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(capacity))
		n := copy(out[:len(out)-1], msg)
		out[n] = 0
	}
	return C.int32_t(len(msg))
}
