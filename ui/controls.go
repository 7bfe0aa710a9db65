package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlsPanel lists the overlay toggles and their keys.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x, c.y = x, y
}

// Draw renders the panel and returns the Y below it.
func (c *ControlsPanel) Draw(overlays *OverlayRegistry) int32 {
	if !c.visible {
		return c.y
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	categories := overlays.Categories()
	panelHeight := int32(overlays.Len()+len(categories)+1)*lineHeight + padding*2 + int32(len(categories))*4
	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	y := c.y + padding
	rl.DrawText("Overlays", c.x+padding, y, 16, rl.White)
	y += lineHeight

	for _, category := range categories {
		y = r.DrawSectionHeader(c.x+padding, y, category)
		for _, desc := range overlays.ByCategory(category) {
			c.drawToggle(c.x+padding, y, desc, overlays.IsEnabled(desc.ID), c.width-padding*2)
			y += lineHeight
		}
		y += 4
	}
	return c.y + panelHeight
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	nameColor := r.Theme.Label
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
		nameColor = rl.White
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Gray)
	}
}

// ParamState is the viewer state edited by the parameter panel.
type ParamState struct {
	Fields        []string // selectable field names
	Field         int      // displayed field
	BrushField    int      // painted field
	BrushValue    float32
	BrushMax      float32 // slider upper bound for BrushValue
	BrushRadius   int
	StepsPerFrame int
	Paused        bool
	SpeciesNames  []string
	SpeciesFracs  []float32
}

// ParamActions reports what the user asked for this frame.
type ParamActions struct {
	TogglePause  bool
	StepOnce     bool
	Reset        bool
	Snapshot     bool
	ExportDNA    bool
	FracsChanged bool
}

// ParamPanel edits ParamState with raygui widgets.
type ParamPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewParamPanel creates a parameter panel.
func NewParamPanel(x, y, width int32) *ParamPanel {
	return &ParamPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (p *ParamPanel) SetPosition(x, y int32) {
	p.x, p.y = x, y
}

// Contains reports whether a screen point lies on the panel.
func (p *ParamPanel) Contains(sx, sy float32, s *ParamState) bool {
	return sx >= float32(p.x) && sx < float32(p.x+p.width) &&
		sy >= float32(p.y) && sy < float32(p.y+p.height(s))
}

func (p *ParamPanel) height(s *ParamState) int32 {
	return 284 + int32(len(s.SpeciesFracs))*24
}

// Draw renders the panel, applies slider edits to s and returns button presses.
func (p *ParamPanel) Draw(s *ParamState) ParamActions {
	var act ParamActions
	r := p.renderer
	pad := float32(r.Theme.Padding)
	x := float32(p.x) + pad
	w := float32(p.width) - 2*pad
	y := float32(p.y) + pad

	r.DrawPanel(p.x, p.y, p.width, p.height(s))

	label := func(text string) {
		rl.DrawText(text, int32(x), int32(y), r.Theme.FontSize, r.Theme.Label)
		y += 14
	}
	slider := func(v, lo, hi float32) float32 {
		out := gui.SliderBar(rl.Rectangle{X: x, Y: y, Width: w - 50, Height: 14}, "", "", v, lo, hi)
		y += 20
		return out
	}
	cycle := func(name string, idx int) int {
		if gui.Button(rl.Rectangle{X: x, Y: y, Width: w, Height: 20}, name+": "+s.Fields[idx]) {
			idx = (idx + 1) % len(s.Fields)
		}
		y += 26
		return idx
	}

	pauseText := "Pause"
	if s.Paused {
		pauseText = "Resume"
	}
	half := (w - 6) / 2
	act.TogglePause = gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 22}, pauseText)
	act.StepOnce = gui.Button(rl.Rectangle{X: x + half + 6, Y: y, Width: half, Height: 22}, "Step")
	y += 28
	act.Reset = gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 22}, "Reset")
	act.Snapshot = gui.Button(rl.Rectangle{X: x + half + 6, Y: y, Width: half, Height: 22}, "Snapshot")
	y += 28
	act.ExportDNA = gui.Button(rl.Rectangle{X: x, Y: y, Width: w, Height: 22}, "Export DNA")
	y += 30

	s.Field = cycle("View", s.Field)
	s.BrushField = cycle("Brush", s.BrushField)

	label(fmt.Sprintf("Brush value %.2f", s.BrushValue))
	s.BrushValue = slider(s.BrushValue, 0, s.BrushMax)
	label(fmt.Sprintf("Brush radius %d", s.BrushRadius))
	s.BrushRadius = int(slider(float32(s.BrushRadius), 0, 32) + 0.5)
	label(fmt.Sprintf("Steps/frame %d", s.StepsPerFrame))
	s.StepsPerFrame = max(int(slider(float32(s.StepsPerFrame), 1, 50)+0.5), 1)

	if len(s.SpeciesFracs) > 0 {
		y = float32(r.DrawSectionHeader(int32(x), int32(y), "Species spawn"))
		for i, f := range s.SpeciesFracs {
			name := fmt.Sprint(i)
			if i < len(s.SpeciesNames) {
				name = s.SpeciesNames[i]
			}
			bounds := rl.Rectangle{X: x + 80, Y: y, Width: w - 130, Height: 14}
			rl.DrawText(name, int32(x), int32(y), r.Theme.FontSize, r.Theme.Label)
			nf := gui.SliderBar(bounds, "", fmt.Sprintf("%.2f", f), f, 0, 1)
			if nf != f {
				s.SpeciesFracs[i] = nf
				act.FracsChanged = true
			}
			y += 24
		}
	}
	return act
}
