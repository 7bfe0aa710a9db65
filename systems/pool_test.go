package systems

import (
	"sync/atomic"
	"testing"
)

func TestPoolCoversEveryRowOnce(t *testing.T) {
	tests := []struct {
		name         string
		workers      int
		rows, rowLen int
	}{
		{"inline small grid", 4, 10, 10},
		{"parallel", 4, 100, 100},
		{"more workers than rows", 16, 3, 4096},
		{"single worker", 1, 100, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPool(tt.workers)
			defer p.Close()
			hits := make([]int32, tt.rows)
			for pass := 0; pass < 3; pass++ {
				p.Run(tt.rows, tt.rowLen, func(lo, hi int) {
					for y := lo; y < hi; y++ {
						atomic.AddInt32(&hits[y], 1)
					}
				})
			}
			for y, h := range hits {
				if h != 3 {
					t.Fatalf("row %d visited %d times, want 3", y, h)
				}
			}
		})
	}
}

func TestPoolNilAndClose(t *testing.T) {
	var p *Pool
	ran := false
	p.Run(2, 2, func(lo, hi int) { ran = lo == 0 && hi == 2 })
	if !ran {
		t.Error("nil pool should run inline")
	}
	p.Close()

	q := NewPool(2)
	q.Run(64, 128, func(int, int) {})
	q.Close()
	q.Close()
	if q.Workers() != 2 {
		t.Errorf("workers = %d", q.Workers())
	}
}
