package systems

import (
	"math/rand/v2"
	"testing"

	"github.com/pthm-cable/microswarm/config"
)

func TestSeedResources(t *testing.T) {
	tests := []struct {
		name string
		mode string
	}{
		{"sparse", "sparse"},
		{"noise", "noise"},
		{"none", "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(32, 24)
			cfg.Resource.Seeding.Mode = tt.mode
			cfg.Resource.Seeding.Density = 0.5
			cfg.Resource.Seeding.Threshold = 0.4

			a := NewFieldStore(cfg, nil)
			b := NewFieldStore(cfg, nil)
			SeedResources(a, cfg, rand.New(rand.NewPCG(4, 4)))
			SeedResources(b, cfg, rand.New(rand.NewPCG(4, 4)))

			hi := cfg.Resource.Seeding.Max * cfg.Resource.Max
			nonZero := 0
			for i, v := range a.Field(Resources).Data {
				if v != b.Field(Resources).Data[i] {
					t.Fatal("seeding is not deterministic")
				}
				if v < 0 || v > hi {
					t.Fatalf("cell %d = %f outside [0,%f]", i, v, hi)
				}
				if v > 0 {
					nonZero++
				}
			}
			if tt.mode == "none" && nonZero != 0 {
				t.Errorf("mode none seeded %d cells", nonZero)
			}
			if tt.mode == "sparse" && nonZero == 0 {
				t.Error("sparse mode seeded nothing")
			}
		})
	}
}

func TestStressFromConfigDerivesSeed(t *testing.T) {
	ev := StressFromConfig(config.StressConfig{}, 7)
	if ev.Seed == 0 || ev.Seed != 7^0x5bd1e995 {
		t.Errorf("derived seed %d", ev.Seed)
	}
	if ev := StressFromConfig(config.StressConfig{Seed: 3}, 7); ev.Seed != 3 {
		t.Errorf("explicit seed overridden: %d", ev.Seed)
	}
}

func TestApplyStressShiftAndBlock(t *testing.T) {
	cfg := testConfig(5, 4)
	fs := NewFieldStore(cfg, nil)
	fs.Field(Resources).Data[0] = 0.7 // (0,0)
	fs.Field(Resources).Data[4] = 0.3 // (4,0)

	ApplyStress(fs, StressEvent{
		Block:   config.RectConfig{X: 0, Y: 0, W: 1, H: 1},
		ShiftDX: 1,
		ShiftDY: 2,
	})

	res := fs.Field(Resources)
	// (0,0) is zeroed by the block before the shift
	if got := res.At(1, 2); got != 0 {
		t.Errorf("blocked cell value should not survive the shift, got %f", got)
	}
	if got := res.At(0, 2); got != 0.3 {
		t.Errorf("shift should wrap (4,0) to (0,2), got %f", got)
	}
	if got := res.At(0, 0); got != 0 || !fs.Blocked(0, 0) {
		t.Errorf("blocked cell should stay zero, got %f", got)
	}
}

func TestApplyStressPheromoneNoise(t *testing.T) {
	cfg := testConfig(8, 8)
	a := NewFieldStore(cfg, nil)
	b := NewFieldStore(cfg, nil)
	ev := StressEvent{PheromoneNoise: 0.2, Seed: 11}
	ApplyStress(a, ev)
	ApplyStress(b, ev)

	for _, k := range []Kind{PheromoneFood, PheromoneDanger} {
		for i, v := range a.Field(k).Data {
			if v < 0 || v > 0.2 {
				t.Fatalf("%s[%d] = %f outside noise range", k, i, v)
			}
			if v != b.Field(k).Data[i] {
				t.Fatalf("noise with the same seed differs at %s[%d]", k, i)
			}
		}
	}
	for _, v := range a.Field(Resources).Data {
		if v != 0 {
			t.Fatal("pheromone noise touched resources")
		}
	}
}
