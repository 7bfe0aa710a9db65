package main

import (
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/microswarm/config"
	"github.com/pthm-cable/microswarm/sim"
	"github.com/pthm-cable/microswarm/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxSteps   int
	seeds      []uint32
	baseConfig *config.Config
	logger     *slog.Logger

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	bestDNA     []telemetry.DNARecord
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxSteps int, seeds []uint32, baseCfg *config.Config, logger *slog.Logger) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxSteps:    maxSteps,
		seeds:       seeds,
		baseConfig:  baseCfg,
		logger:      logger,
		bestFitness: math.Inf(1),
	}
}

// BestDNA returns the archive of the best evaluation's best seed.
func (fe *FitnessEvaluator) BestDNA() []telemetry.DNARecord {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestDNA
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the results from a single simulation run.
type runResult struct {
	steps       int                     // steps completed before the run failed (or maxSteps)
	windowStats []telemetry.WindowStats // one per telemetry window
	dna         []telemetry.DNARecord
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	quality float64
	dna     []telemetry.DNARecord
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s uint32) {
			defer wg.Done()
			result := fe.runSimulation(x, s)
			quality := computeQuality(result.windowStats)
			results[idx] = seedResult{
				fitness: fe.computeFitness(result, quality),
				quality: quality,
				dna:     result.dna,
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	bestSeedFitness := math.Inf(1)
	var bestSeedDNA []telemetry.DNARecord
	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		if r.fitness < bestSeedFitness {
			bestSeedFitness = r.fitness
			bestSeedDNA = r.dna
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestDNA = bestSeedDNA
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless run of maxSteps steps, stopping
// early if the state turns non-finite.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed uint32) *runResult {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	cfg.World.Seed = seed
	cfg.World.Workers = 1 // seeds already run in parallel

	result := &runResult{}
	s, err := sim.New(cfg)
	if err != nil {
		fe.logger.Debug("rejected parameters", "error", err)
		return result
	}
	defer s.Close()

	collector := telemetry.NewCollector(cfg.Telemetry.StatsWindow)
	for s.StepIndex() < fe.maxSteps {
		if _, err := s.Step(1); err != nil {
			fe.logger.Debug("run stopped", "seed", seed, "step", s.StepIndex(), "error", err)
			result.steps = s.StepIndex()
			return result
		}
		collector.Record(s.LastStats())
		if collector.ShouldFlush(s.StepIndex()) {
			result.windowStats = append(result.windowStats, collector.Flush(s.StepIndex(), s.WindowSample()))
		}
	}
	result.steps = fe.maxSteps
	result.dna = s.Archives()
	return result
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(completion × (1 + quality)). A run that fails early scores
// by the fraction of steps it completed.
func (fe *FitnessEvaluator) computeFitness(r *runResult, quality float64) float64 {
	completion := float64(r.steps) / float64(max(fe.maxSteps, 1))
	return -(completion * (1.0 + quality))
}

// Quality component weights.
const (
	qualityWeightAlive     = 0.35
	qualityWeightStability = 0.20
	qualityWeightEnergy    = 0.25
	qualityWeightHarvest   = 0.20

	qualityWarmupWindows = 2 // skip first N windows (warmup)
)

// computeQuality computes swarm quality in [0, 1] from window stats.
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	alive := make([]float64, 0, len(valid))
	var aliveSum, energySum, harvestSum float64
	for _, w := range valid {
		if w.Agents == 0 {
			continue
		}
		frac := float64(w.Alive) / float64(w.Agents)
		alive = append(alive, float64(w.Alive))
		aliveSum += frac

		// Energy health: median near the middle of the usual range
		energySum += math.Exp(-math.Pow((w.EnergyP50-0.5)/0.3, 2))

		// Harvest per agent per step, saturating
		steps := float64(max(w.WindowEnd-w.WindowStart, 1))
		harvestSum += 1 - math.Exp(-w.Harvested/(float64(w.Agents)*steps)/0.01)
	}
	if len(alive) == 0 {
		return 0
	}
	n := float64(len(alive))

	stabilityScore := 0.0
	if len(alive) >= 2 {
		mean, std := stat.MeanStdDev(alive, nil)
		if mean > 0 {
			cv := std / mean
			stabilityScore = math.Exp(-cv * cv)
		}
	}

	quality := qualityWeightAlive*aliveSum/n +
		qualityWeightStability*stabilityScore +
		qualityWeightEnergy*energySum/n +
		qualityWeightHarvest*harvestSum/n

	return min(max(quality, 0), 1)
}
