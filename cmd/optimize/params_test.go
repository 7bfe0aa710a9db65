package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/microswarm/config"
	"github.com/pthm-cable/microswarm/telemetry"
)

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector(config.Default())
	def := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(def))
	for i := range def {
		if math.Abs(back[i]-def[i]) > 1e-9 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, def[i], back[i])
		}
	}
}

func TestApplyToConfigClamps(t *testing.T) {
	pv := NewParamVector(config.Default())
	values := make([]float64, pv.Dim())
	for i, spec := range pv.Specs {
		values[i] = spec.Max * 10
	}
	cfg := config.Default()
	pv.ApplyToConfig(cfg, values)

	if got, want := cfg.Pheromone.Evaporation, float32(pv.Specs[0].Max); got != want {
		t.Errorf("pheromone.evaporation = %v, want %v", got, want)
	}
	if got := cfg.Evolution.GlobalSpawnFrac; got != 1 {
		t.Errorf("evolution.global_spawn_frac = %v, want 1", got)
	}
}

func TestComputeQuality(t *testing.T) {
	if q := computeQuality(nil); q != 0 {
		t.Errorf("empty quality = %v", q)
	}

	steady := make([]telemetry.WindowStats, 6)
	for i := range steady {
		steady[i] = telemetry.WindowStats{
			WindowStart: i * 100, WindowEnd: (i + 1) * 100,
			Agents: 100, Alive: 100, EnergyP50: 0.5, Harvested: 500,
		}
	}
	q := computeQuality(steady)
	if q < 0.9 || q > 1 {
		t.Errorf("steady quality = %v, want in [0.9, 1]", q)
	}

	dying := append([]telemetry.WindowStats(nil), steady...)
	for i := range dying {
		dying[i].Alive = 100 - i*18
	}
	if d := computeQuality(dying); d >= q {
		t.Errorf("dying quality %v not below steady %v", d, q)
	}
}
