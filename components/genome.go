package components

// Gene indices into Genome.Genes.
const (
	GeneSenseGain         = iota // scales the sensing radius
	GeneResourceBias             // pull toward the resource gradient
	GenePheromoneGain            // pull toward the food-pheromone gradient
	GeneExploration              // random-turn propensity
	GeneDepositScale             // pheromone output per unit harvested
	GeneHarvestEfficiency        // fraction of the harvest rate achieved
	GenomeLen
)

// Genome is the heritable behaviour vector of an agent.
type Genome struct {
	Genes [GenomeLen]float32
}

// Get returns gene i.
func (g Genome) Get(i int) float32 { return g.Genes[i] }

// GeneDescriptor describes a gene for clamping, random init and display.
type GeneDescriptor struct {
	ID      string  // CSV column / config key
	Label   string  // display name
	Format  string  // printf format
	Min     float32 // hard clamp
	Max     float32
	InitMin float32 // range for fresh random genomes
	InitMax float32
}

// GeneDescriptors returns metadata for every gene, in index order.
func GeneDescriptors() []GeneDescriptor {
	return geneDescriptors[:]
}

var geneDescriptors = [GenomeLen]GeneDescriptor{
	{ID: "sense_gain", Label: "Sense", Format: "%.2f", Min: 0.2, Max: 3, InitMin: 0.6, InitMax: 1.4},
	{ID: "resource_bias", Label: "Resource", Format: "%.2f", Min: 0, Max: 3, InitMin: 0.6, InitMax: 1.4},
	{ID: "pheromone_gain", Label: "Pheromone", Format: "%.2f", Min: 0.2, Max: 3, InitMin: 0.6, InitMax: 1.4},
	{ID: "exploration_bias", Label: "Explore", Format: "%.2f", Min: 0, Max: 1, InitMin: 0.2, InitMax: 0.8},
	{ID: "deposit_scale", Label: "Deposit", Format: "%.2f", Min: 0, Max: 3, InitMin: 0.6, InitMax: 1.4},
	{ID: "harvest_efficiency", Label: "Harvest", Format: "%.2f", Min: 0.1, Max: 1.5, InitMin: 0.7, InitMax: 1.1},
}

// Clamp limits every gene to its descriptor range.
func (g *Genome) Clamp() {
	for i := range g.Genes {
		d := &geneDescriptors[i]
		if g.Genes[i] < d.Min {
			g.Genes[i] = d.Min
		} else if g.Genes[i] > d.Max {
			g.Genes[i] = d.Max
		}
	}
}
