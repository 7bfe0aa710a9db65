package systems

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/microswarm/components"
)

// RandomGenome draws every gene uniformly from its init range.
func RandomGenome(rng *rand.Rand) components.Genome {
	var g components.Genome
	for i, d := range components.GeneDescriptors() {
		g.Genes[i] = uniform(rng.Float64(), d.InitMin, d.InitMax)
	}
	return g
}

// Mutate returns a child of parent. Every gene gets a Gaussian step with a
// standard deviation of sigma times the gene's range; the exploration gene
// additionally gets an independent uniform offset in [-delta, delta].
// The child is clamped to the gene bounds.
func Mutate(parent components.Genome, rng *rand.Rand, sigma, delta float32) components.Genome {
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	child := parent
	for i, d := range components.GeneDescriptors() {
		child.Genes[i] += float32(normal.Rand()) * sigma * (d.Max - d.Min)
	}
	child.Genes[components.GeneExploration] += uniform(rng.Float64(), -delta, delta)
	child.Clamp()
	return child
}
