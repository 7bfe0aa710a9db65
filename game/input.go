package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/microswarm/telemetry"
	"github.com/pthm-cable/microswarm/ui"
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	v := g.view

	// Window resize propagation
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	v.overlays.HandleKeys()
	if rl.IsKeyPressed(rl.KeyTab) {
		v.controls.Toggle()
	}

	var act ui.ParamActions
	act.TogglePause = rl.IsKeyPressed(rl.KeySpace)
	act.StepOnce = rl.IsKeyPressed(rl.KeyN)
	act.Reset = rl.IsKeyPressed(rl.KeyR)
	act.Snapshot = rl.IsKeyPressed(rl.KeyS)
	act.ExportDNA = rl.IsKeyPressed(rl.KeyD)
	g.applyActions(act)

	if rl.IsKeyPressed(rl.KeyF) {
		v.state.Field = (v.state.Field + 1) % len(v.kinds)
	}

	// Steps-per-frame control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && v.state.StepsPerFrame > 1 {
		v.state.StepsPerFrame--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && v.state.StepsPerFrame < 50 {
		v.state.StepsPerFrame++
	}

	g.handleCameraInput()
	g.handleMouse()
}

// applyActions runs the commands requested by keys or panel buttons.
func (g *Game) applyActions(act ui.ParamActions) {
	v := g.view
	if act.TogglePause {
		if g.sim.Paused() {
			g.sim.Resume()
		} else {
			g.sim.Pause()
		}
	}
	if act.StepOnce {
		paused := g.sim.Paused()
		g.sim.Resume()
		if err := g.advance(1); err != nil {
			g.logger.Error("step failed", "error", err)
		}
		if paused {
			g.sim.Pause()
		}
	}
	if act.Reset {
		g.resetWorld(v.nextSeed)
		v.nextSeed++
	}
	if act.Snapshot {
		g.saveSnapshot(nil)
	}
	if act.ExportDNA {
		g.exportDNA()
	}
	if act.FracsChanged {
		if err := g.sim.SetSpeciesFracs(append([]float32(nil), v.state.SpeciesFracs...)); err != nil {
			g.logger.Warn("species fractions rejected", "error", err)
			v.state.SpeciesFracs = g.sim.SpeciesFracs()
		}
	}
	v.state.Paused = g.sim.Paused()
}

// resetWorld rebuilds the world with a new seed and restarts telemetry windows.
func (g *Game) resetWorld(seed uint32) {
	if err := g.sim.Reset(seed); err != nil {
		g.logger.Error("reset failed", "error", err)
		return
	}
	g.collector = telemetry.NewCollector(g.cfg.Telemetry.StatsWindow)
	g.bookmarks = telemetry.NewBookmarkDetector(10)
	g.loggedUnusable = false
	g.scheduleDump()
	if g.view != nil {
		g.view.selected = -1
	}
	g.logger.Info("world reset", "seed", seed)
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	v := g.view
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == v.screenW && h == v.screenH {
		return
	}
	v.screenW = w
	v.screenH = h

	v.cam.Resize(w, h)
	v.params.SetPosition(int32(w)-250, 10)
	v.inspect.SetPosition(int32(w)-250, 320)
	v.perf.SetPosition(16, int32(h)-170)
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	cam := g.view.cam

	// Pan speed scales inversely with zoom for natural feel
	panSpeed := float32(8.0) / cam.Zoom

	if rl.IsKeyDown(rl.KeyRight) {
		cam.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		cam.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		cam.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		cam.Pan(0, -panSpeed)
	}

	// Zoom toward the cursor
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		mouse := rl.GetMousePosition()
		cam.ZoomAt(mouse.X, mouse.Y, 1+wheel*0.1)
	}

	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		cam.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		cam.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		cam.Reset()
	}

	// Right drag pans
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		cam.Pan(-d.X/cam.Zoom, -d.Y/cam.Zoom)
	}
}

// handleMouse paints with the left button and selects agents with
// shift-click. Clicks on the parameter panel belong to raygui.
func (g *Game) handleMouse() {
	v := g.view
	mouse := rl.GetMousePosition()
	v.cursorX, v.cursorY, v.cursorOK = v.cam.CellAt(mouse.X, mouse.Y)
	if !v.cursorOK || v.params.Contains(mouse.X, mouse.Y, &v.state) {
		return
	}

	shift := rl.IsKeyDown(rl.KeyLeftShift) || rl.IsKeyDown(rl.KeyRightShift)
	if shift {
		if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
			v.selected = v.agentAt(v.cursorX, v.cursorY)
		}
		return
	}

	if rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		kind := v.brushKind()
		if _, err := g.sim.PaintDisc(kind, v.cursorX, v.cursorY, v.state.BrushRadius, v.state.BrushValue); err != nil {
			g.logger.Debug("paint rejected", "field", kind.String(), "error", err)
		}
	}
}

// agentAt returns the slot of the first live agent on cell (x, y), else
// the first dead one, else -1.
func (v *viewer) agentAt(x, y int) int {
	found := -1
	for i, a := range v.agents {
		if a.X != x || a.Y != y {
			continue
		}
		if !a.Dead {
			return i
		}
		if found < 0 {
			found = i
		}
	}
	return found
}
