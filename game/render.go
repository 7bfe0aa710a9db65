package game

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/microswarm/renderer"
	"github.com/pthm-cable/microswarm/ui"
)

var background = rl.Color{R: 12, G: 14, B: 20, A: 255}

// Draw renders the current frame.
func (g *Game) Draw() {
	v := g.view
	if v == nil {
		return
	}

	rl.BeginDrawing()
	rl.ClearBackground(background)

	v.field.Draw(v.cam)
	if v.overlays.IsEnabled(ui.OverlayBlocked) {
		renderer.DrawBlocked(g.sim.BlockedCells(), v.gridW, v.cam)
	}
	if v.overlays.IsEnabled(ui.OverlayAgents) {
		renderer.DrawAgents(v.agents, v.cam, v.overlays.IsEnabled(ui.OverlayHeadings))
	}
	g.drawSelection()
	if v.overlays.IsEnabled(ui.OverlayBrush) && v.cursorOK {
		renderer.DrawBrush(v.cursorX, v.cursorY, v.state.BrushRadius, v.cam)
	}

	g.drawUI()

	rl.EndDrawing()
}

// drawSelection rings the selected agent.
func (g *Game) drawSelection() {
	v := g.view
	if v.selected < 0 || v.selected >= len(v.agents) {
		return
	}
	a := v.agents[v.selected]
	sx, sy := v.cam.WorldToScreen(float32(a.X)+0.5, float32(a.Y)+0.5)
	rl.DrawCircleLines(int32(sx), int32(sy), max(v.cam.Zoom, 6), rl.Yellow)
}

// drawUI renders the HUD and panels, then applies panel button presses.
func (g *Game) drawUI() {
	v := g.view
	m := g.sim.Metrics()

	cursor := ""
	if v.cursorOK {
		cursor = fmt.Sprintf("@ %d,%d = %.3f", v.cursorX, v.cursorY, v.fieldBuf[v.cursorY*v.gridW+v.cursorX])
	}
	v.hud.Draw(ui.HUDData{
		Title:      "Micro Swarm",
		Step:       m.Step,
		Agents:     m.Agents,
		Alive:      m.Alive,
		DNAGlobal:  m.DNAGlobal,
		AvgEnergy:  m.AvgEnergy,
		Field:      v.viewKind().String(),
		FieldMax:   g.fieldMax(),
		Brush:      fmt.Sprintf("%s %.2f r%d", v.brushKind(), v.state.BrushValue, v.state.BrushRadius),
		Speed:      v.state.StepsPerFrame,
		FPS:        rl.GetFPS(),
		Paused:     g.sim.Paused(),
		Unusable:   g.loggedUnusable,
		CursorCell: cursor,
	})
	v.hud.DrawControls(int32(v.screenH), controlsLegend)
	v.controls.Draw(v.overlays)

	if v.overlays.IsEnabled(ui.OverlayPerf) {
		v.perf.Draw(g.sim.PhaseTimings())
	}

	if v.selected >= 0 && v.selected < len(v.agents) {
		g.drawInspector()
	}

	v.state.Paused = g.sim.Paused()
	g.applyActions(v.params.Draw(&v.state))
}

// drawInspector shows the selected agent.
func (g *Game) drawInspector() {
	v := g.view
	a := v.agents[v.selected]
	name := ""
	if profiles := g.sim.SpeciesProfiles(); int(a.Species) < len(profiles) {
		name = profiles[a.Species].Name
	}
	v.inspect.Draw(&ui.InspectorData{
		Slot:        v.selected,
		Agent:       a,
		SpeciesName: name,
		Color:       rl.Color(renderer.SpeciesColor(a.Species)),
		EnergyMax:   g.cfg.Agent.StartEnergyMax * 2,
	})
}

// fieldMax returns the largest value in the displayed field buffer.
func (g *Game) fieldMax() float32 {
	var hi float32
	for _, x := range g.view.fieldBuf {
		hi = max(hi, x)
	}
	return hi
}
