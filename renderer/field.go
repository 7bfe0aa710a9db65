package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/microswarm/camera"
	"github.com/pthm-cable/microswarm/systems"
)

// FieldRenderer draws one field grid as a nearest-filtered texture.
type FieldRenderer struct {
	tex         rl.Texture2D
	texW, texH  int
	pixels      []color.RGBA
	initialized bool
}

// NewFieldRenderer creates a renderer for a w*h grid.
func NewFieldRenderer(w, h int) *FieldRenderer {
	return &FieldRenderer{texW: w, texH: h, pixels: make([]color.RGBA, w*h)}
}

// Init creates the texture (must be called after raylib window is created).
func (r *FieldRenderer) Init() {
	if r.initialized {
		return
	}
	img := rl.GenImageColor(r.texW, r.texH, rl.Black)
	r.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(r.tex, rl.FilterPoint)
	rl.UnloadImage(img)
	r.initialized = true
}

// Update uploads new field data. See Colorize for scale.
func (r *FieldRenderer) Update(kind systems.Kind, data []float32, scale float32) {
	if !r.initialized {
		r.Init()
	}
	if len(data) != r.texW*r.texH {
		return
	}
	Colorize(kind, data, scale, r.pixels)
	rl.UpdateTexture(r.tex, r.pixels)
}

// Draw renders the grid through the camera.
func (r *FieldRenderer) Draw(cam *camera.Camera) {
	if !r.initialized {
		return
	}
	x0, y0 := cam.WorldToScreen(0, 0)
	src := rl.Rectangle{X: 0, Y: 0, Width: float32(r.texW), Height: float32(r.texH)}
	dst := rl.Rectangle{X: x0, Y: y0, Width: float32(r.texW) * cam.Zoom, Height: float32(r.texH) * cam.Zoom}
	rl.DrawTexturePro(r.tex, src, dst, rl.Vector2{}, 0, rl.White)
	rl.DrawRectangleLinesEx(dst, 1, rl.Color{R: 60, G: 70, B: 80, A: 255})
}

// DrawBlocked outlines frozen resource cells.
func DrawBlocked(cells []int, w int, cam *camera.Camera) {
	c := rl.Color{R: 255, G: 255, B: 255, A: 70}
	for _, i := range cells {
		x, y := float32(i%w), float32(i/w)
		if !cam.IsVisible(x+0.5, y+0.5, 1) {
			continue
		}
		sx, sy := cam.WorldToScreen(x, y)
		rl.DrawRectangleV(rl.Vector2{X: sx, Y: sy}, rl.Vector2{X: cam.Zoom, Y: cam.Zoom}, c)
	}
}

// Unload frees GPU resources.
func (r *FieldRenderer) Unload() {
	if !r.initialized {
		return
	}
	rl.UnloadTexture(r.tex)
	r.initialized = false
}
