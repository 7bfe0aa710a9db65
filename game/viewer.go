package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/microswarm/camera"
	"github.com/pthm-cable/microswarm/renderer"
	"github.com/pthm-cable/microswarm/systems"
	"github.com/pthm-cable/microswarm/ui"
)

const controlsLegend = "SPACE pause | N step | R reset | S snapshot | D export DNA | F cycle view | TAB overlays | LMB paint | RMB pan | wheel zoom"

// viewer is the graphical half of a Game. It reads the simulation through
// its public copy-out API.
type viewer struct {
	cam      *camera.Camera
	field    *renderer.FieldRenderer
	overlays *ui.OverlayRegistry
	hud      *ui.HUD
	controls *ui.ControlsPanel
	params   *ui.ParamPanel
	perf     *ui.PerfPanel
	inspect  *ui.Inspector

	state ui.ParamState
	kinds []systems.Kind

	gridW, gridH int
	fieldBuf     []float32
	agents       []systems.Agent
	selected     int // agent slot, -1 = none
	cursorX      int
	cursorY      int
	cursorOK     bool
	screenW      float32
	screenH      float32
	nextSeed     uint32
}

func newViewer(g *Game) *viewer {
	vc := g.cfg.Viewer
	w, h := g.cfg.World.Width, g.cfg.World.Height
	sw, sh := float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight())

	v := &viewer{
		cam:      camera.New(sw, sh, float32(w), float32(h)),
		field:    renderer.NewFieldRenderer(w, h),
		overlays: ui.NewOverlayRegistry(),
		hud:      ui.NewHUD(),
		controls: ui.NewControlsPanel(10, 130, 220),
		params:   ui.NewParamPanel(int32(sw)-250, 10, 240),
		perf:     ui.NewPerfPanel(16, int32(sh)-170),
		inspect:  ui.NewInspector(int32(sw)-250, 320, 240),
		kinds:    systems.Kinds(),
		gridW:    w,
		gridH:    h,
		fieldBuf: make([]float32, w*h),
		selected: -1,
		screenW:  sw,
		screenH:  sh,
		nextSeed: g.sim.Seed() + 1,
	}
	v.field.Init()

	for _, k := range v.kinds {
		v.state.Fields = append(v.state.Fields, k.String())
	}
	v.state.Field = v.kindIndex(vc.Field, systems.Resources)
	v.state.BrushField = v.kindIndex(vc.BrushField, systems.PheromoneFood)
	v.state.BrushValue = vc.BrushValue
	v.state.BrushMax = max(vc.BrushValue*4, 1)
	v.state.BrushRadius = vc.BrushRadius
	v.state.StepsPerFrame = max(vc.StepsPerFrame, g.stepsPerUpdate)
	for _, p := range g.sim.SpeciesProfiles() {
		v.state.SpeciesNames = append(v.state.SpeciesNames, p.Name)
	}
	v.state.SpeciesFracs = g.sim.SpeciesFracs()
	return v
}

// kindIndex maps a configured field name to its index in v.kinds.
func (v *viewer) kindIndex(name string, fallback systems.Kind) int {
	k, err := systems.ParseKind(name)
	if err != nil {
		k = fallback
	}
	for i, kk := range v.kinds {
		if kk == k {
			return i
		}
	}
	return 0
}

func (v *viewer) viewKind() systems.Kind  { return v.kinds[v.state.Field] }
func (v *viewer) brushKind() systems.Kind { return v.kinds[v.state.BrushField] }

func (v *viewer) unload() {
	v.field.Unload()
}

// Update handles input, then advances the simulation by the frame's step
// budget.
func (g *Game) Update() {
	if g.view == nil {
		return
	}
	g.handleInput()
	if err := g.advance(g.view.state.StepsPerFrame); err != nil && !g.loggedUnusable {
		g.logger.Error("simulation stopped", "step", g.sim.StepIndex(), "error", err)
		g.loggedUnusable = true
	}
	g.view.refresh(g)
}

// refresh copies the state the next Draw needs out of the simulation.
func (v *viewer) refresh(g *Game) {
	if _, err := g.sim.CopyFieldOut(v.viewKind(), v.fieldBuf); err == nil {
		v.field.Update(v.viewKind(), v.fieldBuf, 0)
	}
	if agents, err := g.sim.Agents(); err == nil {
		v.agents = agents
	}
	if v.selected >= len(v.agents) {
		v.selected = -1
	}
}
