package systems

import "github.com/pthm-cable/microswarm/config"

// MycelSystem advances the mycelium network field.
// It runs after FieldStore.Update so the drive term sees this step's
// resources and food pheromone.
type MycelSystem struct {
	decay     float32
	growth    float32
	transport float32
	threshold float32
	driveP    float32
	driveR    float32
	resMax    float32
}

// NewMycelSystem creates the network updater from configuration.
func NewMycelSystem(cfg *config.Config) *MycelSystem {
	m := &MycelSystem{}
	m.Configure(cfg)
	return m
}

// Configure reloads the network parameters.
func (m *MycelSystem) Configure(cfg *config.Config) {
	m.decay = cfg.Mycel.Decay
	m.growth = cfg.Mycel.Growth
	m.transport = cfg.Mycel.Transport
	m.threshold = cfg.Mycel.DriveThreshold
	m.driveP = cfg.Mycel.DriveP
	m.driveR = cfg.Mycel.DriveR
	m.resMax = cfg.Resource.Max
}

// Drive returns the gated growth drive for the given local food pheromone
// and resource values: 0 at or below the threshold, rising to 1.
func (m *MycelSystem) Drive(phero, res float32) float32 {
	drive := clamp01(m.driveP*phero + m.driveR*res/m.resMax)
	if drive <= m.threshold {
		return 0
	}
	return (drive - m.threshold) / (1 - m.threshold)
}

// Update advances the mycel grid one step.
//
// Each cell moves toward the mean of its in-bounds 4-neighbours at the
// transport rate. Where the drive is above threshold the cell grows by
// growth * (1-cur) * (drive + inflow); elsewhere it decays.
func (m *MycelSystem) Update(s *FieldStore) {
	f := s.fields[Mycel]
	phero := s.fields[PheromoneFood].Data
	res := s.fields[Resources].Data
	src, dst := f.Data, f.back
	w, h := f.W, f.H

	s.pool.Run(h, w, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				cur := src[i]

				var sum float32
				n := 0
				if x > 0 {
					sum += src[i-1]
					n++
				}
				if x < w-1 {
					sum += src[i+1]
					n++
				}
				if y > 0 {
					sum += src[i-w]
					n++
				}
				if y < h-1 {
					sum += src[i+w]
					n++
				}

				var flow float32
				if n > 0 {
					flow = m.transport * (sum/float32(n) - cur)
				}

				next := cur + flow
				if gate := m.Drive(phero[i], res[i]); gate > 0 {
					next += m.growth * (1 - cur) * (gate + max(flow, 0))
				} else {
					next -= m.decay * cur
				}
				dst[i] = clamp01(next)
			}
		}
	})
	f.swap()
}
