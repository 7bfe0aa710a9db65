// Package ui provides the viewer's panels. Inspector rows are defined
// through descriptors so new agent data needs no layout code.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// WidgetType specifies how a field should be rendered.
type WidgetType int

const (
	WidgetText        WidgetType = iota // Plain text with format string
	WidgetBar                           // Progress bar over Range
	WidgetColorSwatch                   // Color preview square
	WidgetEnergyBar                     // Bar with low/medium/high colours over Range
	WidgetSpacer                        // Vertical spacing
)

// FieldRange is the value span a bar widget maps onto its width.
type FieldRange struct {
	Min, Max float32
}

// FieldDescriptor defines how to display a single piece of data.
type FieldDescriptor struct {
	Label       string
	Widget      WidgetType
	Format      string     // Printf format for text and bar values
	Range       FieldRange // Value range for bars
	Getter      func(any) float32
	TextGetter  func(any) string
	ColorGetter func(any) rl.Color
}

// SectionDescriptor defines a group of fields with a header.
type SectionDescriptor struct {
	Title   string
	Fields  []FieldDescriptor
	Visible func(any) bool // nil = always visible
}

// BarPalette colours a bar widget. Energy bars step from Low to High.
type BarPalette struct {
	Track, Fill     rl.Color
	Low, Mid, High rl.Color
}

// Theme holds panel styling.
type Theme struct {
	PanelFill, PanelEdge rl.Color
	Header, Label, Value rl.Color
	Bars                 BarPalette

	Padding, LineHeight, LabelWidth, BarHeight int32
	FontSize, HeaderFontSize                   int32
}

// DefaultTheme is a dark translucent theme sized for small panels.
func DefaultTheme() Theme {
	return Theme{
		PanelFill: rl.Color{R: 14, G: 18, B: 24, A: 225},
		PanelEdge: rl.Color{R: 70, G: 80, B: 95, A: 255},
		Header:    rl.Gold,
		Label:     rl.LightGray,
		Value:     rl.RayWhite,
		Bars: BarPalette{
			Track: rl.Color{R: 36, G: 38, B: 44, A: 255},
			Fill:  rl.Color{R: 90, G: 160, B: 210, A: 255},
			Low:   rl.Color{R: 210, G: 90, B: 80, A: 255},
			Mid:   rl.Color{R: 215, G: 185, B: 90, A: 255},
			High:  rl.Color{R: 110, G: 205, B: 110, A: 255},
		},
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     80,
		BarHeight:      12,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}
