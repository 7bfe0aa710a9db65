package systems

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/microswarm/config"
)

// Kind identifies one of the simulation's scalar fields.
type Kind uint8

const (
	Resources Kind = iota
	PheromoneFood
	PheromoneDanger
	Molecules
	Mycel
	NumKinds
)

// ErrUnknownKind is returned when a field kind is out of range or unnamed.
var ErrUnknownKind = errors.New("unknown field kind")

// ErrFieldValue is returned when loaded data violates a field's value range.
var ErrFieldValue = errors.New("field value out of range")

var kindNames = [NumKinds]string{"resources", "pheromone_food", "pheromone_danger", "molecules", "mycel"}

// String returns the config/CSV name of the kind.
func (k Kind) String() string {
	if k < NumKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k names an existing field.
func (k Kind) Valid() bool { return k < NumKinds }

// ParseKind maps a name like "pheromone_food" to its Kind.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Kinds returns every field kind in index order.
func Kinds() []Kind {
	ks := make([]Kind, NumKinds)
	for i := range ks {
		ks[i] = Kind(i)
	}
	return ks
}

// updateMode selects how the store advances a field each step.
type updateMode uint8

const (
	updateDiffuse updateMode = iota // diffusion then evaporation
	updateRegen                     // optional diffusion then additive regeneration
	updateNetwork                   // advanced by MycelSystem
)

// fieldPolicy is the per-kind update and clamp rule.
type fieldPolicy struct {
	mode        updateMode
	diffusion   float32
	evaporation float32
	regen       float32
	max         float32 // upper clamp; +Inf when unbounded
}

// Field is a dense row-major grid of one quantity.
type Field struct {
	Kind Kind
	W, H int
	Data []float32

	back []float32 // double buffer for grid passes
}

func newField(k Kind, w, h int) *Field {
	return &Field{
		Kind: k,
		W:    w,
		H:    h,
		Data: make([]float32, w*h),
		back: make([]float32, w*h),
	}
}

// InBounds reports whether (x, y) is a grid cell.
func (f *Field) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.W && y < f.H
}

// At returns the value at (x, y); out-of-bounds reads return 0.
func (f *Field) At(x, y int) float32 {
	if !f.InBounds(x, y) {
		return 0
	}
	return f.Data[y*f.W+x]
}

// swap exchanges the front and back buffers after a grid pass.
func (f *Field) swap() {
	f.Data, f.back = f.back, f.Data
}

// FieldStore owns the five grids and applies their per-step dynamics.
type FieldStore struct {
	W, H int

	fields   [NumKinds]*Field
	policies [NumKinds]fieldPolicy
	kernel   int
	blocked  []bool // resource cells frozen at zero by a stress event
	pool     *Pool
}

// NewFieldStore allocates every field at the configured grid size.
// pool may be nil for serial updates.
func NewFieldStore(cfg *config.Config, pool *Pool) *FieldStore {
	w, h := cfg.World.Width, cfg.World.Height
	s := &FieldStore{
		W:       w,
		H:       h,
		blocked: make([]bool, w*h),
		pool:    pool,
	}
	for k := range s.fields {
		s.fields[k] = newField(Kind(k), w, h)
	}
	s.Configure(cfg)
	return s
}

// Configure rebuilds the policy table from cfg. Grid size is unchanged.
func (s *FieldStore) Configure(cfg *config.Config) {
	inf := float32(math.Inf(1))
	s.kernel = cfg.World.Kernel
	s.policies = [NumKinds]fieldPolicy{
		Resources: {
			mode:      updateRegen,
			diffusion: cfg.Resource.Diffusion,
			regen:     cfg.Resource.Regen,
			max:       cfg.Resource.Max,
		},
		PheromoneFood: {
			mode:        updateDiffuse,
			diffusion:   cfg.Pheromone.Diffusion,
			evaporation: cfg.Pheromone.Evaporation,
			max:         inf,
		},
		PheromoneDanger: {
			mode:        updateDiffuse,
			diffusion:   cfg.Pheromone.Diffusion,
			evaporation: cfg.Pheromone.Evaporation,
			max:         inf,
		},
		Molecules: {
			mode:        updateDiffuse,
			diffusion:   cfg.Molecule.Diffusion,
			evaporation: cfg.Molecule.Evaporation,
			max:         inf,
		},
		Mycel: {
			mode: updateNetwork,
			max:  1,
		},
	}
}

// Field returns the grid for k, or nil for an invalid kind.
func (s *FieldStore) Field(k Kind) *Field {
	if !k.Valid() {
		return nil
	}
	return s.fields[k]
}

// Max returns the upper clamp for k.
func (s *FieldStore) Max(k Kind) float32 {
	return s.policies[k].max
}

// Deposit adds amount (which may be negative) to one cell, clamped to the
// field's valid range. Out-of-bounds deposits are ignored.
func (s *FieldStore) Deposit(k Kind, x, y int, amount float32) {
	f := s.fields[k]
	if !f.InBounds(x, y) || amount == 0 {
		return
	}
	i := y*f.W + x
	f.Data[i] = clampFloat(f.Data[i]+amount, 0, s.policies[k].max)
}

// Update advances every non-network field by one step.
func (s *FieldStore) Update() {
	for k := range s.fields {
		p := &s.policies[k]
		switch p.mode {
		case updateDiffuse:
			s.diffuse(s.fields[k], p.diffusion, 1-p.evaporation, p.max)
		case updateRegen:
			if p.diffusion > 0 {
				s.diffuse(s.fields[k], p.diffusion, 1, p.max)
			}
			s.regenerate(s.fields[k], p.regen, p.max)
			s.zeroBlocked(s.fields[k])
		}
	}
}

// diffuse blends each cell with the mean of its in-bounds neighbours, then
// scales by keep. Out-of-bounds neighbours are excluded from the mean.
func (s *FieldStore) diffuse(f *Field, d, keep, maxV float32) {
	if d == 0 && keep == 1 {
		return
	}
	src, dst := f.Data, f.back
	w, h, kernel := f.W, f.H, s.kernel

	s.pool.Run(h, w, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				c := src[i]

				var sum float32
				n := 0
				if x > 0 {
					sum += src[i-1]
					n++
				}
				if x < w-1 {
					sum += src[i+1]
					n++
				}
				if y > 0 {
					sum += src[i-w]
					n++
				}
				if y < h-1 {
					sum += src[i+w]
					n++
				}
				if kernel == 8 {
					if x > 0 && y > 0 {
						sum += src[i-w-1]
						n++
					}
					if x < w-1 && y > 0 {
						sum += src[i-w+1]
						n++
					}
					if x > 0 && y < h-1 {
						sum += src[i+w-1]
						n++
					}
					if x < w-1 && y < h-1 {
						sum += src[i+w+1]
						n++
					}
				}

				v := c
				if n > 0 {
					v = c*(1-d) + d*(sum/float32(n))
				}
				dst[i] = clampFloat(v*keep, 0, maxV)
			}
		}
	})
	f.swap()
}

// regenerate adds regen to every cell, capped at maxV.
func (s *FieldStore) regenerate(f *Field, regen, maxV float32) {
	if regen == 0 {
		return
	}
	for i, v := range f.Data {
		f.Data[i] = min(v+regen, maxV)
	}
}

// zeroBlocked holds every blocked cell at zero after diffusion and regen.
func (s *FieldStore) zeroBlocked(f *Field) {
	for i, b := range s.blocked {
		if b {
			f.Data[i] = 0
		}
	}
}

// Fill sets every cell of k to v, clamped to the field's range.
func (s *FieldStore) Fill(k Kind, v float32) {
	v = clampFloat(v, 0, s.policies[k].max)
	data := s.fields[k].Data
	for i := range data {
		data[i] = v
	}
}

// CheckValues validates src against k's value range without mutating anything.
func (s *FieldStore) CheckValues(k Kind, src []float32) error {
	maxV := s.policies[k].max
	for i, v := range src {
		if !isFinite(v) || v < 0 || v > maxV {
			return fmt.Errorf("%w: %s[%d] = %g", ErrFieldValue, k, i, v)
		}
	}
	return nil
}

// Load replaces the contents of k with src after validating it.
// src must hold exactly W*H values.
func (s *FieldStore) Load(k Kind, src []float32) error {
	if len(src) != s.W*s.H {
		return fmt.Errorf("%w: %s needs %d values, got %d", ErrFieldValue, k, s.W*s.H, len(src))
	}
	if err := s.CheckValues(k, src); err != nil {
		return err
	}
	copy(s.fields[k].Data, src)
	return nil
}

// Block freezes the resources of every cell in the rectangle at zero.
// The rectangle is clipped to the grid. Returns the number of cells blocked.
func (s *FieldStore) Block(x, y, w, h int) int {
	n := 0
	res := s.fields[Resources].Data
	for yy := max(y, 0); yy < min(y+h, s.H); yy++ {
		for xx := max(x, 0); xx < min(x+w, s.W); xx++ {
			i := yy*s.W + xx
			s.blocked[i] = true
			res[i] = 0
			n++
		}
	}
	return n
}

// Blocked reports whether the resource cell at (x, y) is frozen.
func (s *FieldStore) Blocked(x, y int) bool {
	return x >= 0 && y >= 0 && x < s.W && y < s.H && s.blocked[y*s.W+x]
}

// BlockedCells returns the row-major indices of every frozen resource cell.
func (s *FieldStore) BlockedCells() []int {
	var out []int
	for i, b := range s.blocked {
		if b {
			out = append(out, i)
		}
	}
	return out
}

// ClearBlocks lifts every resource block.
func (s *FieldStore) ClearBlocks() {
	for i := range s.blocked {
		s.blocked[i] = false
	}
}

// Finite reports whether every field holds only finite values.
func (s *FieldStore) Finite() bool {
	for _, f := range s.fields {
		for _, v := range f.Data {
			if !isFinite(v) {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy that updates on the given pool.
func (s *FieldStore) Clone(pool *Pool) *FieldStore {
	out := &FieldStore{
		W:        s.W,
		H:        s.H,
		policies: s.policies,
		kernel:   s.kernel,
		blocked:  append([]bool(nil), s.blocked...),
		pool:     pool,
	}
	for k, f := range s.fields {
		nf := newField(Kind(k), f.W, f.H)
		copy(nf.Data, f.Data)
		out.fields[k] = nf
	}
	return out
}
