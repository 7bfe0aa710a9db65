package systems

import (
	"math"
	"math/rand/v2"

	"github.com/pthm-cable/microswarm/components"
	"github.com/pthm-cable/microswarm/config"
)

// StepStats counts agent and evolution events during one or more steps.
type StepStats struct {
	Harvested float64
	Bounces   int
	Deaths    int
	Replaced  int
	Stored    int
	Selected  int // selection rounds
}

// Add accumulates o into s.
func (s *StepStats) Add(o StepStats) {
	s.Harvested += o.Harvested
	s.Bounces += o.Bounces
	s.Deaths += o.Deaths
	s.Replaced += o.Replaced
	s.Stored += o.Stored
	s.Selected += o.Selected
}

// Vec2 is a 2-D gradient or direction.
type Vec2 struct {
	X, Y float32
}

func (v Vec2) lenSq() float32 { return v.X*v.X + v.Y*v.Y }

// Gradients holds the sensed gradient of every field around an agent.
type Gradients [NumKinds]Vec2

// Sense estimates local gradients within a disc of the given radius.
// Each in-bounds cell contributes (v - v0) * offset; the sum is divided by
// the number of contributing cells. Cells are tested by squared distance.
func Sense(fs *FieldStore, x, y int, radius float32) Gradients {
	var g Gradients
	ri := int(radius)
	r2 := radius * radius
	w := fs.W

	var center [NumKinds]float32
	i0 := y*w + x
	for k, f := range fs.fields {
		center[k] = f.Data[i0]
	}

	n := 0
	for dy := -ri; dy <= ri; dy++ {
		ny := y + dy
		if ny < 0 || ny >= fs.H {
			continue
		}
		for dx := -ri; dx <= ri; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if float32(dx*dx+dy*dy) > r2 {
				continue
			}
			nx := x + dx
			if nx < 0 || nx >= w {
				continue
			}
			i := ny*w + nx
			for k, f := range fs.fields {
				d := f.Data[i] - center[k]
				g[k].X += d * float32(dx)
				g[k].Y += d * float32(dy)
			}
			n++
		}
	}
	if n > 0 {
		inv := 1 / float32(n)
		for k := range g {
			g[k].X *= inv
			g[k].Y *= inv
		}
	}
	return g
}

// AgentSystem runs the per-agent sense/move/harvest/deposit cycle.
type AgentSystem struct {
	agent      config.AgentConfig
	danger     config.DangerConfig
	molDeposit float32
	profiles   []config.SpeciesProfile
	dangerThSq float32
}

// NewAgentSystem creates the agent updater from configuration.
func NewAgentSystem(cfg *config.Config) *AgentSystem {
	a := &AgentSystem{}
	a.Configure(cfg)
	return a
}

// Configure reloads agent parameters and species profiles.
func (a *AgentSystem) Configure(cfg *config.Config) {
	a.agent = cfg.Agent
	a.danger = cfg.Danger
	a.molDeposit = cfg.Molecule.DepositScale
	a.profiles = append(a.profiles[:0], cfg.Species.Profiles...)
	a.dangerThSq = cfg.Danger.DeltaThreshold * cfg.Danger.DeltaThreshold
}

// Profile returns the species profile for index i, falling back to the first.
func (a *AgentSystem) Profile(i uint8) *config.SpeciesProfile {
	if int(i) < len(a.profiles) {
		return &a.profiles[i]
	}
	return &a.profiles[0]
}

// SenseRadius returns the effective sensing radius for a genome.
func (a *AgentSystem) SenseRadius(g *components.Genome) float32 {
	return a.agent.SenseRadius * g.Genes[components.GeneSenseGain]
}

// Step processes every live agent once, in slot order. Deposits are written
// straight into the fields, so later agents see earlier agents' output.
func (a *AgentSystem) Step(pop *Population, fs *FieldStore, rng *rand.Rand, stats *StepStats) {
	for slot := 0; slot < pop.Len(); slot++ {
		pos, head, energy, genome, _, lin := pop.Get(slot)
		energy.Bounced = false
		if energy.Dead {
			continue
		}
		a.update(pos, head, energy, genome, a.Profile(lin.Species), fs, rng, stats)
		lin.Age++
	}
}

func (a *AgentSystem) update(
	pos *components.Position,
	head *components.Heading,
	energy *components.Energy,
	genome *components.Genome,
	prof *config.SpeciesProfile,
	fs *FieldStore,
	rng *rand.Rand,
	stats *StepStats,
) {
	genes := &genome.Genes
	grad := Sense(fs, pos.X, pos.Y, a.SenseRadius(genome))
	angle := head.Angle

	// Danger check
	danger := grad[PheromoneDanger]
	bounced := danger.lenSq() > a.dangerThSq
	if bounced {
		angle = float32(math.Atan2(float64(-danger.Y), float64(-danger.X)))
		fs.Deposit(PheromoneDanger, pos.X, pos.Y, a.danger.BounceDeposit)
		stats.Bounces++
	} else {
		// Gradient following blended with the current heading
		res, food := grad[Resources], grad[PheromoneFood]
		mol, myc := grad[Molecules], grad[Mycel]
		wRes := genes[components.GeneResourceBias] * prof.ResourceWeightMul
		wFood := genes[components.GenePheromoneGain] * prof.FoodAttractionMul
		steerX := float32(math.Cos(float64(angle))) +
			wRes*res.X + wFood*food.X +
			prof.MoleculeWeightMul*mol.X + prof.MycelAttractionMul*myc.X -
			prof.DangerAversionMul*danger.X - prof.NoveltyWeight*(food.X+danger.X)
		steerY := float32(math.Sin(float64(angle))) +
			wRes*res.Y + wFood*food.Y +
			prof.MoleculeWeightMul*mol.Y + prof.MycelAttractionMul*myc.Y -
			prof.DangerAversionMul*danger.Y - prof.NoveltyWeight*(food.Y+danger.Y)
		if steerX != 0 || steerY != 0 {
			angle = float32(math.Atan2(float64(steerY), float64(steerX)))
		}

		turn := a.agent.RandomTurn * genes[components.GeneExploration] * prof.ExplorationMul
		angle += uniform(rng.Float64(), -turn, turn)
	}

	// Move one cell, reflecting off the edges
	dx := int(math.Round(math.Cos(float64(angle))))
	dy := int(math.Round(math.Sin(float64(angle))))
	nx, ny := pos.X+dx, pos.Y+dy
	if nx < 0 || nx >= fs.W {
		nx = min(max(nx, 0), fs.W-1)
		angle = math.Pi - angle
	}
	if ny < 0 || ny >= fs.H {
		ny = min(max(ny, 0), fs.H-1)
		angle = -angle
	}
	pos.X, pos.Y = nx, ny
	head.Angle = normalizeAngle(angle)

	// Cost
	energy.Value -= a.agent.MoveCost

	// Harvest
	var take float32
	if avail := fs.fields[Resources].Data[ny*fs.W+nx]; avail > 0 {
		take = min(avail, a.agent.Harvest*genes[components.GeneHarvestEfficiency])
		fs.Deposit(Resources, nx, ny, -take)
		energy.Value += take
		stats.Harvested += float64(take)
	}

	// Deposit
	if take > 0 {
		food := take * a.agent.DepositScale * a.danger.FoodDepositScale *
			genes[components.GeneDepositScale] * prof.DepositFoodMul
		fs.Deposit(PheromoneFood, nx, ny, food)
		fs.Deposit(Molecules, nx, ny, take*a.molDeposit)
	}
	if thr := prof.OverDensityThreshold; thr > 0 {
		if v := fs.fields[PheromoneFood].Data[ny*fs.W+nx]; v > thr {
			fs.Deposit(PheromoneFood, nx, ny, -(v-thr)*prof.CounterDepositMul)
		}
	}
	if bounced {
		if delta := take - a.agent.MoveCost; delta < 0 {
			fs.Deposit(PheromoneDanger, nx, ny, -delta*a.danger.DangerDepositScale*prof.DepositDangerMul)
		}
	}
	energy.Bounced = bounced

	// Death
	if energy.Value <= 0 {
		energy.Value = 0
		energy.Dead = true
		stats.Deaths++
	}
}
