package systems

import (
	"math/rand/v2"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/microswarm/config"
)

// SeedResources fills the resource field at creation.
//
//	sparse: each cell is seeded with probability density
//	noise:  octave simplex noise, thresholded into patches
//	none:   left empty
//
// Seeded values lie in [min, max] * resource.max.
func SeedResources(fs *FieldStore, cfg *config.Config, rng *rand.Rand) {
	sc := cfg.Resource.Seeding
	res := fs.fields[Resources].Data
	for i := range res {
		res[i] = 0
	}
	scale := cfg.Resource.Max
	lo, hi := sc.Min*scale, sc.Max*scale

	switch sc.Mode {
	case "sparse":
		for i := range res {
			if rng.Float64() < float64(sc.Density) {
				res[i] = uniform(rng.Float64(), lo, hi)
			}
		}
	case "noise":
		noise := opensimplex.NewNormalized(int64(cfg.World.Seed))
		th := sc.Threshold
		for y := 0; y < fs.H; y++ {
			for x := 0; x < fs.W; x++ {
				v := float32(octaveNoise(noise, float64(x), float64(y), sc.Octaves, sc.NoiseScale, sc.Persistence))
				if v < th || th >= 1 {
					continue
				}
				t := (v - th) / (1 - th)
				res[y*fs.W+x] = clampFloat(lo+t*(hi-lo), 0, scale)
			}
		}
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
