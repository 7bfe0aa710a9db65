package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelFill)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelEdge)
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.Header)
	return y + r.Theme.LineHeight
}

// DrawLabelValue draws a label and value on the same line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.Label)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.Value)
	return y + r.Theme.LineHeight
}

// DrawBar draws value as a bar filling [lo, hi], with fill colour c.
func (r *Renderer) DrawBar(x, y int32, label, format string, value, lo, hi float32, c rl.Color, width int32) int32 {
	ratio := float32(0)
	if hi > lo {
		ratio = min(max((value-lo)/(hi-lo), 0), 1)
	}
	if format == "" {
		format = "%.2f"
	}

	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 50

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.Label)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.Bars.Track)
	rl.DrawRectangle(barX, y+2, int32(float32(barWidth)*ratio), r.Theme.BarHeight, c)
	rl.DrawText(fmt.Sprintf(format, value), barX+barWidth+5, y, r.Theme.FontSize, r.Theme.Value)

	return y + r.Theme.LineHeight + 2
}

// energyColor picks the bar colour for a fill ratio.
func (r *Renderer) energyColor(value, lo, hi float32) rl.Color {
	ratio := float32(1)
	if hi > lo {
		ratio = (value - lo) / (hi - lo)
	}
	switch {
	case ratio < 0.3:
		return r.Theme.Bars.Low
	case ratio < 0.6:
		return r.Theme.Bars.Mid
	}
	return r.Theme.Bars.High
}

// DrawColorSwatch draws a color swatch.
func (r *Renderer) DrawColorSwatch(x, y int32, label string, color rl.Color) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.Label)
	rl.DrawRectangle(x+r.Theme.LabelWidth, y+1, 12, 12, color)
	return y + r.Theme.LineHeight
}

// DrawField renders a field based on its descriptor.
func (r *Renderer) DrawField(x, y int32, fd FieldDescriptor, data any, width int32) int32 {
	value := float32(0)
	if fd.Getter != nil {
		value = fd.Getter(data)
	}

	switch fd.Widget {
	case WidgetText:
		var text string
		if fd.TextGetter != nil {
			text = fd.TextGetter(data)
		} else {
			text = fmt.Sprintf(fd.Format, value)
		}
		return r.DrawLabelValue(x, y, fd.Label, text)

	case WidgetBar:
		return r.DrawBar(x, y, fd.Label, fd.Format, value, fd.Range.Min, fd.Range.Max, r.Theme.Bars.Fill, width)

	case WidgetEnergyBar:
		c := r.energyColor(value, fd.Range.Min, fd.Range.Max)
		return r.DrawBar(x, y, fd.Label, fd.Format, value, fd.Range.Min, fd.Range.Max, c, width)

	case WidgetColorSwatch:
		var c rl.Color
		if fd.ColorGetter != nil {
			c = fd.ColorGetter(data)
		}
		return r.DrawColorSwatch(x, y, fd.Label, c)

	case WidgetSpacer:
		return y + 6
	}

	return y
}

// DrawSection renders a section with header and fields.
func (r *Renderer) DrawSection(x, y int32, sd SectionDescriptor, data any, width int32) int32 {
	if sd.Visible != nil && !sd.Visible(data) {
		return y
	}
	if sd.Title != "" {
		y = r.DrawSectionHeader(x, y, sd.Title)
	}
	for _, fd := range sd.Fields {
		y = r.DrawField(x, y, fd, data, width)
	}
	return y + 4
}

// SectionHeight returns the height DrawSection would use.
func (r *Renderer) SectionHeight(sd SectionDescriptor, data any) int32 {
	if sd.Visible != nil && !sd.Visible(data) {
		return 0
	}
	h := int32(4)
	if sd.Title != "" {
		h += r.Theme.LineHeight
	}
	for _, fd := range sd.Fields {
		switch fd.Widget {
		case WidgetBar, WidgetEnergyBar:
			h += r.Theme.LineHeight + 2
		case WidgetSpacer:
			h += 6
		default:
			h += r.Theme.LineHeight
		}
	}
	return h
}
