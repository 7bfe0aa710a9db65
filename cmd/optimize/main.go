// Command optimize tunes swarm parameters with CMA-ES so that a population
// stays alive, fed and stable across several seeds.
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/microswarm/config"
	"github.com/pthm-cable/microswarm/telemetry"
)

type options struct {
	configPath string
	maxSteps   int
	seeds      int
	maxEvals   int
	population int
	outputDir  string
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.IntVar(&o.maxSteps, "max-steps", 5000, "Simulation steps per run")
	flag.IntVar(&o.seeds, "seeds", 3, "Number of seeds per evaluation")
	flag.IntVar(&o.maxEvals, "max-evals", 200, "Maximum number of evaluations")
	flag.IntVar(&o.population, "population", 0, "CMA-ES population size (0 = 4 + 3n/2)")
	flag.StringVar(&o.outputDir, "output", "", "Output directory for results")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if o.outputDir == "" {
		logger.Error("--output is required")
		os.Exit(2)
	}
	if err := run(o, logger); err != nil {
		logger.Error("optimize failed", "error", err)
		os.Exit(1)
	}
}

func run(o options, logger *slog.Logger) error {
	if err := os.MkdirAll(o.outputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	base, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if err := base.Validate(); err != nil {
		return fmt.Errorf("base config: %w", err)
	}

	params := NewParamVector(base)
	seeds := make([]uint32, o.seeds)
	for i := range seeds {
		seeds[i] = uint32(42 + 1000*i)
	}
	evaluator := NewFitnessEvaluator(params, o.maxSteps, seeds, base, logger)

	log, err := newEvalLog(filepath.Join(o.outputDir, "optimize_log.csv"), params)
	if err != nil {
		return err
	}
	defer log.Close()

	popSize := o.population
	if popSize <= 0 {
		popSize = 4 + 3*params.Dim()/2
	}
	logger.Info("starting CMA-ES",
		"params", params.Dim(),
		"population", popSize,
		"max_evals", o.maxEvals,
		"seeds", o.seeds,
		"steps", o.maxSteps,
	)

	var (
		evals   int
		best    = candidate{fitness: 1e9}
		started = time.Now()
	)
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Denormalize(x)
			fitness := evaluator.Evaluate(raw)
			evals++

			// The clamped vector is what the simulation actually ran with.
			used := params.Clamp(raw)
			if fitness < best.fitness {
				best.fitness, best.x = fitness, used
			}
			log.Row(evals, fitness, evaluator.LastQuality(), used)

			elapsed := time.Since(started)
			eta := time.Duration(o.maxEvals-evals) * (elapsed / time.Duration(evals))
			logger.Info("evaluation",
				"eval", evals,
				"fitness", fitness,
				"quality", evaluator.LastQuality(),
				"best", best.fitness,
				"elapsed", formatDuration(elapsed),
				"eta", formatDuration(eta),
			)
			return fitness
		},
	}

	result, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()),
		&optimize.Settings{FuncEvaluations: o.maxEvals},
		&optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize},
	)
	if err != nil {
		logger.Warn("optimization ended", "error", err)
	}
	if best.x == nil && result != nil {
		best.x = params.Clamp(params.Denormalize(result.X))
	}
	if best.x == nil {
		return errors.New("no evaluation completed")
	}

	logger.Info("optimization complete", "evals", evals, "elapsed", formatDuration(time.Since(started)), "best", best.fitness)
	for i, s := range params.Specs {
		logger.Info("best parameter", "key", s.Path, "value", best.x[i])
	}
	return writeResults(o.outputDir, base, params, best.x, evaluator.BestDNA(), logger)
}

// candidate is the best clamped parameter vector seen so far.
type candidate struct {
	fitness float64
	x       []float64
}

func writeResults(dir string, base *config.Config, params *ParamVector, x []float64, dna []telemetry.DNARecord, logger *slog.Logger) error {
	cfg := base.Clone()
	params.ApplyToConfig(cfg, x)
	cfgPath := filepath.Join(dir, "best_config.yaml")
	if err := cfg.WriteYAML(cfgPath); err != nil {
		return fmt.Errorf("write best config: %w", err)
	}
	logger.Info("saved best config", "path", cfgPath)

	if len(dna) == 0 {
		return nil
	}
	dnaPath := filepath.Join(dir, "best_dna.csv")
	if err := telemetry.SaveDNA(dnaPath, dna); err != nil {
		return fmt.Errorf("write best DNA: %w", err)
	}
	logger.Info("saved DNA archive", "path", dnaPath, "records", len(dna))
	return nil
}

// evalLog writes one CSV row per evaluation. Columns follow the parameter
// list, so they are only known at runtime.
type evalLog struct {
	f *os.File
	w *csv.Writer
}

func newEvalLog(path string, params *ParamVector) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create eval log: %w", err)
	}
	l := &evalLog{f: f, w: csv.NewWriter(f)}
	header := []string{"eval", "fitness", "quality"}
	for _, s := range params.Specs {
		header = append(header, s.Name)
	}
	l.w.Write(header)
	return l, nil
}

func (l *evalLog) Row(eval int, fitness, quality float64, x []float64) {
	row := make([]string, 0, 3+len(x))
	row = append(row,
		strconv.Itoa(eval),
		strconv.FormatFloat(fitness, 'f', 6, 64),
		strconv.FormatFloat(quality, 'f', 4, 64),
	)
	for _, v := range x {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	l.w.Write(row)
	l.w.Flush()
}

func (l *evalLog) Close() error {
	l.w.Flush()
	return errors.Join(l.w.Error(), l.f.Close())
}

// formatDuration renders d as 1h02m03s or 2m03s.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h, m, s := int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
