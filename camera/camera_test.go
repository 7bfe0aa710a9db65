package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestNewFitsGrid(t *testing.T) {
	cam := New(1024, 768, 256, 256)

	// Should be centered on the grid
	if cam.X != 128 || cam.Y != 128 {
		t.Errorf("expected camera at (128, 128), got (%f, %f)", cam.X, cam.Y)
	}
	// min(1024/256, 768/256) = 3
	if cam.Zoom != 3 {
		t.Errorf("expected zoom 3, got %f", cam.Zoom)
	}
	minX, minY, maxX, maxY := cam.VisibleWorldBounds()
	if minX != 0 || minY != 0 || maxX != 256 || maxY != 256 {
		t.Errorf("visible bounds (%f,%f)-(%f,%f), want whole grid", minX, minY, maxX, maxY)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1024, 768, 256, 256)

	sx, sy := cam.WorldToScreen(128, 128)
	if !near(sx, 512) || !near(sy, 384) {
		t.Errorf("expected screen center (512, 384), got (%f, %f)", sx, sy)
	}
	sx, sy = cam.WorldToScreen(0, 0)
	if !near(sx, 128) || !near(sy, 0) {
		t.Errorf("grid origin at (%f, %f), want (128, 0)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1024, 768, 256, 256)
	cam.SetZoom(5)
	cam.Pan(40, -25)

	testCases := []struct{ sx, sy float32 }{
		{512, 384},
		{0, 0},
		{1000, 700},
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestCellAt(t *testing.T) {
	cam := New(1024, 768, 256, 256)

	tests := []struct {
		name   string
		sx, sy float32
		x, y   int
		ok     bool
	}{
		{"center", 512, 384, 128, 128, true},
		{"origin", 128, 0, 0, 0, true},
		{"last cell", 895, 767, 255, 255, true},
		{"left margin", 100, 384, 0, 0, false},
		{"right margin", 900, 384, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, ok := cam.CellAt(tt.sx, tt.sy)
			if ok != tt.ok || (ok && (x != tt.x || y != tt.y)) {
				t.Errorf("CellAt(%v, %v) = %d, %d, %v; want %d, %d, %v",
					tt.sx, tt.sy, x, y, ok, tt.x, tt.y, tt.ok)
			}
		})
	}
}

func TestPanClamps(t *testing.T) {
	cam := New(1024, 768, 256, 256)

	cam.Pan(-10000, 0)
	if cam.X != 0 {
		t.Errorf("expected X clamped to 0, got %f", cam.X)
	}
	cam.Pan(0, 10000)
	if cam.Y != 256 {
		t.Errorf("expected Y clamped to 256, got %f", cam.Y)
	}

	cam.Reset()
	cam.Pan(30, 0) // 30 pixels at zoom 3 is 10 cells
	if !near(cam.X, 138) {
		t.Errorf("expected X 138, got %f", cam.X)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1024, 768, 256, 256)

	if cam.MinZoom != 1.5 {
		t.Errorf("expected MinZoom 1.5, got %f", cam.MinZoom)
	}

	cam.SetZoom(0.1)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MinZoom, cam.Zoom)
	}

	cam.SetZoom(1000)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MaxZoom, cam.Zoom)
	}
}

func TestZoomAtKeepsPointFixed(t *testing.T) {
	cam := New(1024, 768, 256, 256)
	sx, sy := float32(600), float32(300)
	wx, wy := cam.ScreenToWorld(sx, sy)

	cam.ZoomAt(sx, sy, 2)
	if cam.Zoom != 6 {
		t.Fatalf("expected zoom 6, got %f", cam.Zoom)
	}
	gx, gy := cam.ScreenToWorld(sx, sy)
	if !near(gx, wx) || !near(gy, wy) {
		t.Errorf("point under cursor moved from (%f,%f) to (%f,%f)", wx, wy, gx, gy)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1024, 768, 256, 256)
	cam.SetZoom(8) // visible half extents 64 x 48 cells

	if !cam.IsVisible(128, 128, 1) {
		t.Error("center should be visible")
	}
	if cam.IsVisible(250, 128, 1) {
		t.Error("far point should not be visible")
	}
	if !cam.IsVisible(195, 128, 5) {
		t.Error("edge point with radius should be visible")
	}
}

func TestResizeReclampsZoom(t *testing.T) {
	cam := New(1024, 768, 256, 256)
	cam.Resize(2048, 1536)
	if cam.MinZoom != 3 {
		t.Errorf("expected MinZoom 3 after resize, got %f", cam.MinZoom)
	}
	if cam.Zoom != 3 {
		t.Errorf("expected zoom raised to 3, got %f", cam.Zoom)
	}
}

func TestReset(t *testing.T) {
	cam := New(1024, 768, 256, 256)
	cam.Pan(100, 100)
	cam.SetZoom(10)

	cam.Reset()

	if cam.X != 128 || cam.Y != 128 {
		t.Errorf("expected position (128, 128), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 3 {
		t.Errorf("expected zoom 3, got %f", cam.Zoom)
	}
}
