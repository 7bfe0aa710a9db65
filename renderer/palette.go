// Package renderer draws the field grid and agents with raylib.
package renderer

import (
	"image/color"

	"github.com/pthm-cable/microswarm/systems"
)

// stop is one colour of a linear gradient.
type stop struct {
	at      float32
	r, g, b uint8
}

var gradients = [systems.NumKinds][]stop{
	systems.Resources: {
		{0, 8, 12, 10}, {0.4, 30, 90, 40}, {0.8, 110, 190, 70}, {1, 220, 250, 150},
	},
	systems.PheromoneFood: {
		{0, 8, 10, 20}, {0.3, 20, 60, 140}, {0.7, 60, 180, 220}, {1, 220, 250, 255},
	},
	systems.PheromoneDanger: {
		{0, 10, 6, 6}, {0.4, 120, 20, 20}, {0.8, 230, 90, 30}, {1, 255, 230, 150},
	},
	systems.Molecules: {
		{0, 10, 8, 16}, {0.4, 70, 30, 120}, {0.8, 180, 90, 200}, {1, 250, 210, 250},
	},
	systems.Mycel: {
		{0, 10, 20, 60}, {0.25, 40, 80, 160}, {0.5, 60, 200, 200}, {0.75, 200, 160, 50}, {1, 255, 255, 255},
	},
}

// Color maps a normalized value in [0, 1] to the gradient of kind.
func Color(kind systems.Kind, t float32) color.RGBA {
	g := gradients[kind%systems.NumKinds]
	if t <= g[0].at {
		return color.RGBA{R: g[0].r, G: g[0].g, B: g[0].b, A: 255}
	}
	for i := 1; i < len(g); i++ {
		if t > g[i].at {
			continue
		}
		a, b := g[i-1], g[i]
		f := (t - a.at) / (b.at - a.at)
		return color.RGBA{
			R: lerp8(a.r, b.r, f),
			G: lerp8(a.g, b.g, f),
			B: lerp8(a.b, b.b, f),
			A: 255,
		}
	}
	last := g[len(g)-1]
	return color.RGBA{R: last.r, G: last.g, B: last.b, A: 255}
}

func lerp8(a, b uint8, f float32) uint8 {
	return uint8(float32(a) + (float32(b)-float32(a))*f + 0.5)
}

// Colorize converts field values into pixels, dividing by scale first.
// A scale of 0 or less normalizes by the largest value present.
func Colorize(kind systems.Kind, values []float32, scale float32, dst []color.RGBA) {
	if scale <= 0 {
		for _, v := range values {
			scale = max(scale, v)
		}
		if scale <= 0 {
			scale = 1
		}
	}
	inv := 1 / scale
	for i, v := range values[:min(len(values), len(dst))] {
		dst[i] = Color(kind, min(max(v*inv, 0), 1))
	}
}

// species colours, indexed by species.
var speciesColors = []color.RGBA{
	{R: 250, G: 220, B: 80, A: 255},
	{R: 90, G: 220, B: 250, A: 255},
	{R: 240, G: 120, B: 200, A: 255},
	{R: 140, G: 250, B: 120, A: 255},
}

// SpeciesColor returns the marker colour of a species.
func SpeciesColor(species uint8) color.RGBA {
	return speciesColors[int(species)%len(speciesColors)]
}
