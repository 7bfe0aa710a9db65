package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/microswarm/components"
)

// Agent is a value snapshot of one agent's components.
type Agent struct {
	X, Y       int
	Heading    float32
	Energy     float32
	Dead       bool
	Bounced    bool
	Genome     components.Genome
	Fitness    float32
	Samples    []float32 // fitness ring, oldest first
	Species    uint8
	Age        int
	BornStep   int
	Generation int
}

// Population stores agents as ECS entities behind a stable slot index.
// Slot order is the processing order, so iteration is reproducible.
type Population struct {
	world  *ecs.World
	mapper *ecs.Map6[
		components.Position,
		components.Heading,
		components.Energy,
		components.Genome,
		components.Fitness,
		components.Lineage,
	]
	filter *ecs.Filter6[
		components.Position,
		components.Heading,
		components.Energy,
		components.Genome,
		components.Fitness,
		components.Lineage,
	]
	slots  []ecs.Entity
	window int
}

// NewPopulation creates an empty population whose fitness rings hold window samples.
func NewPopulation(window int) *Population {
	world := ecs.NewWorld()
	return &Population{
		world: world,
		mapper: ecs.NewMap6[
			components.Position,
			components.Heading,
			components.Energy,
			components.Genome,
			components.Fitness,
			components.Lineage,
		](world),
		filter: ecs.NewFilter6[
			components.Position,
			components.Heading,
			components.Energy,
			components.Genome,
			components.Fitness,
			components.Lineage,
		](world),
		window: window,
	}
}

// Len returns the number of slots.
func (p *Population) Len() int { return len(p.slots) }

// Window returns the fitness ring length.
func (p *Population) Window() int { return p.window }

// Get returns component pointers for a slot. The pointers are valid until
// the next Add, Replace or Truncate.
func (p *Population) Get(slot int) (
	*components.Position,
	*components.Heading,
	*components.Energy,
	*components.Genome,
	*components.Fitness,
	*components.Lineage,
) {
	return p.mapper.Get(p.slots[slot])
}

// Add appends a new agent and returns its slot.
func (p *Population) Add(a Agent) int {
	slot := len(p.slots)
	p.slots = append(p.slots, p.create(slot, a))
	return slot
}

// Replace removes the agent in slot and creates a fresh entity there.
func (p *Population) Replace(slot int, a Agent) {
	p.world.RemoveEntity(p.slots[slot])
	p.slots[slot] = p.create(slot, a)
}

// Truncate drops every slot at index n and above.
func (p *Population) Truncate(n int) {
	for i := n; i < len(p.slots); i++ {
		p.world.RemoveEntity(p.slots[i])
	}
	if n < len(p.slots) {
		p.slots = p.slots[:n]
	}
}

func (p *Population) create(slot int, a Agent) ecs.Entity {
	pos := components.Position{X: a.X, Y: a.Y}
	head := components.Heading{Angle: a.Heading}
	energy := components.Energy{Value: a.Energy, Dead: a.Dead, Bounced: a.Bounced}
	genome := a.Genome
	fit := components.Fitness{Samples: make([]float32, p.window), Value: a.Fitness}
	for _, s := range a.Samples {
		fit.Push(s)
	}
	lin := components.Lineage{
		Slot:       slot,
		Species:    a.Species,
		Age:        a.Age,
		BornStep:   a.BornStep,
		Generation: a.Generation,
	}
	return p.mapper.NewEntity(&pos, &head, &energy, &genome, &fit, &lin)
}

// Snapshot copies the agent in slot out of the ECS.
func (p *Population) Snapshot(slot int) Agent {
	pos, head, energy, genome, fit, lin := p.Get(slot)
	return Agent{
		X:          pos.X,
		Y:          pos.Y,
		Heading:    head.Angle,
		Energy:     energy.Value,
		Dead:       energy.Dead,
		Bounced:    energy.Bounced,
		Genome:     *genome,
		Fitness:    fit.Value,
		Samples:    orderedSamples(fit),
		Species:    lin.Species,
		Age:        lin.Age,
		BornStep:   lin.BornStep,
		Generation: lin.Generation,
	}
}

// Snapshots copies every agent, in slot order.
func (p *Population) Snapshots() []Agent {
	out := make([]Agent, len(p.slots))
	for i := range p.slots {
		out[i] = p.Snapshot(i)
	}
	return out
}

func orderedSamples(f *components.Fitness) []float32 {
	n := len(f.Samples)
	out := make([]float32, 0, f.Count)
	for k := f.Count - 1; k >= 0; k-- {
		out = append(out, f.Samples[(f.Head-1-k+n)%n])
	}
	return out
}

// AliveCount returns the number of agents not marked dead.
func (p *Population) AliveCount() int {
	n := 0
	query := p.filter.Query()
	for query.Next() {
		_, _, energy, _, _, _ := query.Get()
		if !energy.Dead {
			n++
		}
	}
	return n
}

// Finite reports whether every agent's energy and heading are finite.
func (p *Population) Finite() bool {
	ok := true
	query := p.filter.Query()
	for query.Next() {
		_, head, energy, _, _, _ := query.Get()
		if !isFinite(energy.Value) || !isFinite(head.Angle) {
			ok = false
		}
	}
	return ok
}

// Clone returns a deep copy in a fresh ECS world.
func (p *Population) Clone() *Population {
	out := NewPopulation(p.window)
	for i := range p.slots {
		out.Add(p.Snapshot(i))
	}
	return out
}
