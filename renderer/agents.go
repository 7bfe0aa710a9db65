package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/microswarm/camera"
	"github.com/pthm-cable/microswarm/systems"
)

var (
	deadColor   = rl.Color{R: 90, G: 90, B: 90, A: 200}
	bounceColor = rl.Color{R: 255, G: 60, B: 40, A: 255}
)

// DrawAgents draws a marker per agent at its cell center, coloured by
// species. Agents that bounced this step get a red ring.
func DrawAgents(agents []systems.Agent, cam *camera.Camera, headings bool) {
	radius := max(cam.Zoom*0.4, 1.5)
	for _, a := range agents {
		wx, wy := float32(a.X)+0.5, float32(a.Y)+0.5
		if !cam.IsVisible(wx, wy, 1) {
			continue
		}
		sx, sy := cam.WorldToScreen(wx, wy)
		c := rl.Color(SpeciesColor(a.Species))
		if a.Dead {
			c = deadColor
		}
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, radius, c)
		if a.Bounced {
			rl.DrawCircleLines(int32(sx), int32(sy), radius+1.5, bounceColor)
		}
		if headings && !a.Dead {
			hx := sx + float32(math.Cos(float64(a.Heading)))*radius*2
			hy := sy + float32(math.Sin(float64(a.Heading)))*radius*2
			rl.DrawLineV(rl.Vector2{X: sx, Y: sy}, rl.Vector2{X: hx, Y: hy}, c)
		}
	}
}

// DrawBrush outlines the brush disc centered on a cell.
func DrawBrush(cx, cy, radius int, cam *camera.Camera) {
	sx, sy := cam.WorldToScreen(float32(cx)+0.5, float32(cy)+0.5)
	rl.DrawCircleLines(int32(sx), int32(sy), (float32(radius)+0.5)*cam.Zoom, rl.Color{R: 255, G: 255, B: 255, A: 160})
}
