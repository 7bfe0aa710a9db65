package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/microswarm/components"
	"github.com/pthm-cable/microswarm/systems"
)

// InspectorData is the agent shown by the inspector.
type InspectorData struct {
	Slot        int
	Agent       systems.Agent
	SpeciesName string
	Color       rl.Color
	EnergyMax   float32
}

// Inspector renders the selected agent's state and genome.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
	sections []SectionDescriptor
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		sections: inspectorSections(),
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

func inspected(data any) *InspectorData { return data.(*InspectorData) }

func inspectorSections() []SectionDescriptor {
	state := SectionDescriptor{
		Title: "State",
		Fields: []FieldDescriptor{
			{Label: "Species", Widget: WidgetText, TextGetter: func(d any) string {
				a := inspected(d)
				return fmt.Sprintf("%d %s", a.Agent.Species, a.SpeciesName)
			}},
			{Label: "Colour", Widget: WidgetColorSwatch, ColorGetter: func(d any) rl.Color { return inspected(d).Color }},
			{Label: "Cell", Widget: WidgetText, TextGetter: func(d any) string {
				a := inspected(d)
				return fmt.Sprintf("%d, %d", a.Agent.X, a.Agent.Y)
			}},
			{Label: "Heading", Widget: WidgetText, Format: "%.2f rad", Getter: func(d any) float32 { return inspected(d).Agent.Heading }},
			{Label: "Energy", Widget: WidgetEnergyBar, Format: "%.3f", Getter: func(d any) float32 { return inspected(d).Agent.Energy }},
			{Label: "Fitness", Widget: WidgetText, Format: "%.3f", Getter: func(d any) float32 { return inspected(d).Agent.Fitness }},
			{Label: "Age", Widget: WidgetText, TextGetter: func(d any) string {
				a := inspected(d)
				return fmt.Sprintf("%d steps (gen %d)", a.Agent.Age, a.Agent.Generation)
			}},
			{Label: "Status", Widget: WidgetText, TextGetter: func(d any) string {
				a := inspected(d).Agent
				switch {
				case a.Dead:
					return "dead"
				case a.Bounced:
					return "bounced"
				}
				return "alive"
			}},
		},
	}

	genome := SectionDescriptor{Title: "Genome"}
	for i, gd := range components.GeneDescriptors() {
		genome.Fields = append(genome.Fields, FieldDescriptor{
			Label:  gd.Label,
			Widget: WidgetBar,
			Format: gd.Format,
			Range:  FieldRange{Min: gd.Min, Max: gd.Max},
			Getter: func(d any) float32 { return inspected(d).Agent.Genome.Genes[i] },
		})
	}
	return []SectionDescriptor{state, genome}
}

// Draw renders the inspector panel for the given data.
func (ins *Inspector) Draw(data *InspectorData) int32 {
	r := ins.renderer
	padding := r.Theme.Padding

	// The energy bar range follows the configured start energy.
	ins.sections[0].Fields[4].Range = FieldRange{Min: 0, Max: max(data.EnergyMax, 1e-6)}

	height := padding*2 + r.Theme.LineHeight
	for _, sd := range ins.sections {
		height += r.SectionHeight(sd, data)
	}
	r.DrawPanel(ins.x, ins.y, ins.width, height)

	y := ins.y + padding
	rl.DrawText(fmt.Sprintf("Agent #%d", data.Slot), ins.x+padding, y, 16, rl.White)
	y += r.Theme.LineHeight

	for _, sd := range ins.sections {
		y = r.DrawSection(ins.x+padding, y, sd, data, ins.width-padding*2)
	}
	return y
}
