package systems

// PaintDisc sets every cell within radius of (cx, cy) to value in a
// row-major w*h buffer, clipped to the grid. Cells are tested by squared
// distance. Returns the number of cells painted.
func PaintDisc(buf []float32, w, h, cx, cy, radius int, value float32) int {
	if radius < 0 || len(buf) < w*h {
		return 0
	}
	r2 := radius * radius
	n := 0
	for y := max(cy-radius, 0); y <= min(cy+radius, h-1); y++ {
		dy := y - cy
		for x := max(cx-radius, 0); x <= min(cx+radius, w-1); x++ {
			dx := x - cx
			if dx*dx+dy*dy > r2 {
				continue
			}
			buf[y*w+x] = value
			n++
		}
	}
	return n
}
