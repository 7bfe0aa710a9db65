package systems

import "testing"

func TestPaintDisc(t *testing.T) {
	tests := []struct {
		name           string
		cx, cy, radius int
		want           int
	}{
		{"center radius 0", 4, 4, 0, 1},
		{"center radius 1", 4, 4, 1, 5},
		{"center radius 2", 4, 4, 2, 13},
		{"corner clipped", 0, 0, 1, 3},
		{"outside grid", -5, -5, 1, 0},
		{"negative radius", 4, 4, -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]float32, 9*9)
			n := PaintDisc(buf, 9, 9, tt.cx, tt.cy, tt.radius, 0.5)
			if n != tt.want {
				t.Errorf("painted %d cells, want %d", n, tt.want)
			}
			count := 0
			for _, v := range buf {
				if v == 0.5 {
					count++
				}
			}
			if count != n {
				t.Errorf("buffer has %d painted cells, reported %d", count, n)
			}
		})
	}
}

func TestPaintDiscShortBuffer(t *testing.T) {
	if n := PaintDisc(make([]float32, 3), 4, 4, 1, 1, 1, 1); n != 0 {
		t.Errorf("short buffer should be rejected, painted %d", n)
	}
}
