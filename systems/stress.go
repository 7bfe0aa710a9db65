package systems

import (
	"math/rand/v2"

	"github.com/pthm-cable/microswarm/config"
)

// StressEvent is a one-shot perturbation of the world.
type StressEvent struct {
	Block          config.RectConfig // resource cells frozen at zero
	ShiftDX        int               // toroidal shift of the resource layout
	ShiftDY        int
	PheromoneNoise float32 // max uniform noise added to both pheromone fields
	Seed           uint32  // noise seed
}

// StressFromConfig builds the scheduled event. A zero seed is derived from worldSeed.
func StressFromConfig(cfg config.StressConfig, worldSeed uint32) StressEvent {
	seed := cfg.Seed
	if seed == 0 {
		seed = worldSeed ^ 0x5bd1e995
	}
	return StressEvent{
		Block:          cfg.BlockRect,
		ShiftDX:        cfg.ShiftDX,
		ShiftDY:        cfg.ShiftDY,
		PheromoneNoise: cfg.PheromoneNoise,
		Seed:           seed,
	}
}

// ApplyStress perturbs the fields. Noise uses its own stream so the
// simulation's main stream is unaffected.
func ApplyStress(fs *FieldStore, ev StressEvent) {
	if ev.Block.W > 0 && ev.Block.H > 0 {
		fs.Block(ev.Block.X, ev.Block.Y, ev.Block.W, ev.Block.H)
	}

	if ev.ShiftDX != 0 || ev.ShiftDY != 0 {
		f := fs.fields[Resources]
		for y := 0; y < f.H; y++ {
			ty := modInt(y+ev.ShiftDY, f.H)
			for x := 0; x < f.W; x++ {
				tx := modInt(x+ev.ShiftDX, f.W)
				f.back[ty*f.W+tx] = f.Data[y*f.W+x]
			}
		}
		f.swap()
		for i, b := range fs.blocked {
			if b {
				f.Data[i] = 0
			}
		}
	}

	if ev.PheromoneNoise > 0 {
		rng := rand.New(rand.NewPCG(uint64(ev.Seed), uint64(ev.Seed)<<1|1))
		for _, k := range []Kind{PheromoneFood, PheromoneDanger} {
			data := fs.fields[k].Data
			for i := range data {
				data[i] += uniform(rng.Float64(), 0, ev.PheromoneNoise)
			}
		}
	}
}
