// Resource seeding preview tool - interactive visualization with sliders.
//
// Usage: go run ./cmd/seedpreview [-config config.yaml]
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"math/rand/v2"
	"os"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/microswarm/config"
	"github.com/pthm-cable/microswarm/renderer"
	"github.com/pthm-cable/microswarm/systems"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
)

var modes = []string{"sparse", "noise", "none"}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	flag.Parse()

	base, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := base.Clone()

	rl.InitWindow(windowWidth, windowHeight, "Resource Seeding Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	w, h := cfg.World.Width, cfg.World.Height
	pool := systems.NewPool(1)
	defer pool.Close()

	img := rl.GenImageColor(w, h, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.SetTextureFilter(texture, rl.FilterPoint)
	defer rl.UnloadTexture(texture)

	pixels := make([]color.RGBA, w*h)
	var values []float32
	regen := func() {
		fs := systems.NewFieldStore(cfg, pool)
		seed := uint64(cfg.World.Seed)
		systems.SeedResources(fs, cfg, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
		values = fs.Field(systems.Resources).Data
		renderer.Colorize(systems.Resources, values, cfg.Resource.Max, pixels)
		rl.UpdateTexture(texture, pixels)
	}
	regen()

	for !rl.WindowShouldClose() {
		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: float32(w), Height: float32(h)},
			rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize},
			rl.Vector2{},
			0,
			rl.White,
		)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		var total float32
		seeded := 0
		for _, v := range values {
			total += v
			if v > 0 {
				seeded++
			}
		}
		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("Total: %.1f  Seeded cells: %d / %d (%.1f%%)",
			total, seeded, len(values), 100*float32(seeded)/float32(max(len(values), 1))), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Grid: %dx%d  Seed: %d", w, h, cfg.World.Seed), 15, statsY+20, 16, rl.DarkGray)

		p := panel{x: float32(previewSize + 20), y: 10}
		rl.DrawText("Resource Seeding", int32(p.x), int32(p.y), 20, rl.DarkGray)
		p.y += 35

		sc := &cfg.Resource.Seeding
		changed := false
		if gui.Button(rl.Rectangle{X: p.x, Y: p.y, Width: 200, Height: 26}, "Mode: "+sc.Mode) {
			sc.Mode = nextMode(sc.Mode)
			changed = true
		}
		p.y += 40

		changed = p.slider("Min (fraction of resource max)", &sc.Min, 0, 1, "%.2f") || changed
		changed = p.slider("Max (fraction of resource max)", &sc.Max, 0, 1, "%.2f") || changed
		if sc.Min > sc.Max {
			sc.Min = sc.Max
		}
		switch sc.Mode {
		case "sparse":
			changed = p.slider("Density (fraction of cells)", &sc.Density, 0, 0.2, "%.3f") || changed
		case "noise":
			scale := float32(sc.NoiseScale)
			if p.slider("Noise scale (cells^-1)", &scale, 0.005, 0.2, "%.3f") {
				sc.NoiseScale = float64(scale)
				changed = true
			}
			octaves := float32(sc.Octaves)
			if p.slider("Octaves", &octaves, 1, 8, "%.0f") && int(octaves) != sc.Octaves {
				sc.Octaves = int(octaves)
				changed = true
			}
			persistence := float32(sc.Persistence)
			if p.slider("Persistence", &persistence, 0.1, 0.9, "%.2f") {
				sc.Persistence = float64(persistence)
				changed = true
			}
			changed = p.slider("Threshold", &sc.Threshold, 0, 1, "%.2f") || changed
		}

		p.y += 10
		if gui.Button(rl.Rectangle{X: p.x, Y: p.y, Width: 120, Height: 30}, "Random Seed") {
			cfg.World.Seed = uint32(rl.GetRandomValue(0, 99999))
			changed = true
		}
		if gui.Button(rl.Rectangle{X: p.x + 130, Y: p.y, Width: 120, Height: 30}, "Reset All") {
			cfg = base.Clone()
			changed = true
		}
		p.y += 50

		if changed {
			regen()
		}

		out := seedingYAML(cfg.Resource.Seeding)
		rl.DrawText("YAML Config:", int32(p.x), int32(p.y), 16, rl.DarkGray)
		p.y += 25
		rl.DrawText(out, int32(p.x), int32(p.y), 14, rl.Gray)

		rl.DrawText("Press C to copy YAML to clipboard", int32(p.x), windowHeight-30, 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(out)
		}

		rl.EndDrawing()
	}
}

// panel lays out labelled sliders top to bottom.
type panel struct {
	x, y float32
}

// slider draws a labelled slider for v and reports whether it moved.
func (p *panel) slider(label string, v *float32, lo, hi float32, format string) bool {
	rl.DrawText(label, int32(p.x), int32(p.y), 14, rl.Gray)
	p.y += 18
	nv := gui.SliderBar(
		rl.Rectangle{X: p.x, Y: p.y, Width: float32(panelWidth - 80), Height: 20},
		fmt.Sprint(lo), fmt.Sprint(hi),
		*v, lo, hi,
	)
	rl.DrawText(fmt.Sprintf(format, *v), int32(p.x+float32(panelWidth-70)), int32(p.y+2), 16, rl.DarkGray)
	p.y += 35
	if nv == *v {
		return false
	}
	*v = nv
	return true
}

func nextMode(mode string) string {
	for i, m := range modes {
		if m == mode {
			return modes[(i+1)%len(modes)]
		}
	}
	return modes[0]
}

// seedingYAML renders the seeding block as it appears in config.yaml.
func seedingYAML(sc config.SeedingConfig) string {
	doc := map[string]map[string]config.SeedingConfig{"resource": {"seeding": sc}}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return err.Error()
	}
	return string(out)
}
