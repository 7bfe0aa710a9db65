package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayAgents   OverlayID = "agents"
	OverlayHeadings OverlayID = "headings"
	OverlayBlocked  OverlayID = "blocked"
	OverlayBrush    OverlayID = "brush"
	OverlayPerf     OverlayID = "perf"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID       OverlayID
	Name     string
	Key      int32  // Keyboard key to toggle (0 = no key)
	KeyLabel string // Key label for display (e.g., "A")
	Category string // Grouping (e.g., "world", "debug")
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with default overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{enabled: make(map[OverlayID]bool)}
	reg.Register(OverlayDescriptor{ID: OverlayAgents, Name: "Agents", Key: rl.KeyA, KeyLabel: "A", Category: "world"}, true)
	reg.Register(OverlayDescriptor{ID: OverlayHeadings, Name: "Headings", Key: rl.KeyH, KeyLabel: "H", Category: "world"}, false)
	reg.Register(OverlayDescriptor{ID: OverlayBlocked, Name: "Blocked Cells", Key: rl.KeyX, KeyLabel: "X", Category: "world"}, true)
	reg.Register(OverlayDescriptor{ID: OverlayBrush, Name: "Brush Outline", Key: rl.KeyO, KeyLabel: "O", Category: "tools"}, true)
	reg.Register(OverlayDescriptor{ID: OverlayPerf, Name: "Phase Timing", Key: rl.KeyT, KeyLabel: "T", Category: "debug"}, false)
	return reg
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor, enabled bool) {
	r.descriptors = append(r.descriptors, desc)
	r.enabled[desc.ID] = enabled
}

// Toggle switches an overlay on/off and returns its new state.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if _, ok := r.enabled[id]; !ok {
		return false
	}
	r.enabled[id] = !r.enabled[id]
	return r.enabled[id]
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// ByCategory returns overlays filtered by category.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories returns all unique categories in registration order.
func (r *OverlayRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, desc := range r.descriptors {
		if !seen[desc.Category] {
			seen[desc.Category] = true
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// Len returns the number of registered overlays.
func (r *OverlayRegistry) Len() int {
	return len(r.descriptors)
}

// HandleKeys toggles every overlay whose key was pressed this frame.
func (r *OverlayRegistry) HandleKeys() {
	for _, desc := range r.descriptors {
		if desc.Key != 0 && rl.IsKeyPressed(desc.Key) {
			r.Toggle(desc.ID)
		}
	}
}
