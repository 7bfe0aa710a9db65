package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/microswarm/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title      string
	Step       int
	Agents     int
	Alive      int
	DNAGlobal  int
	AvgEnergy  float32
	Field      string
	FieldMax   float32
	Brush      string
	Speed      int
	FPS        int32
	Paused     bool
	Unusable   bool
	CursorCell string
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Agents: %d (%d alive) | Avg energy: %.3f | Global DNA: %d",
			data.Agents, data.Alive, data.AvgEnergy, data.DNAGlobal),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Step: %d | Speed: %dx | FPS: %d", data.Step, data.Speed, data.FPS),
		10, 55, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("View: %s (max %.3f) | Brush: %s %s", data.Field, data.FieldMax, data.Brush, data.CursorCell),
		10, 75, 16, rl.LightGray,
	)

	switch {
	case data.Unusable:
		rl.DrawText("STOPPED: non-finite state, press R to reset", 10, 95, 16, rl.Red)
	case data.Paused:
		rl.DrawText("PAUSED", 10, 95, 16, rl.Yellow)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the step phase timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x, y := p.x, p.y
	lines := int32(len(telemetry.Phases) + 2)
	p.renderer.DrawPanel(x-6, y-6, 250, lines*16+12)

	rl.DrawText("Step Phases", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Step: %s  (%.0f steps/s)",
		stats.AvgStepDuration.Round(time.Microsecond), stats.StepsPerSecond), x, y, 12, rl.Yellow)
	y += 16

	for _, name := range telemetry.Phases {
		pct := stats.PhasePct[name]
		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", name, stats.PhaseAvg[name].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
