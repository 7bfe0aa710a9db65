package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for one telemetry window.
type WindowStats struct {
	WindowStart int `csv:"-"`
	WindowEnd   int `csv:"window_end"`

	// Population at window end
	Agents int `csv:"agents"`
	Alive  int `csv:"alive"`

	// Events during window
	Deaths     int     `csv:"deaths"`
	Replaced   int     `csv:"replaced"`
	Bounces    int     `csv:"bounces"`
	Stored     int     `csv:"stored"`
	Selections int     `csv:"selections"`
	Harvested  float64 `csv:"harvested"`

	// Energy distribution at window end
	EnergyMean float64 `csv:"energy_mean"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	// DNA archives
	DNAPersonal   int     `csv:"dna_personal"`
	DNAGlobal     int     `csv:"dna_global"`
	DNABest       float64 `csv:"dna_best"`
	MaxGeneration int     `csv:"max_generation"`

	// Field totals
	TotalResources float64 `csv:"total_resources"`
	MycelMean      float64 `csv:"mycel_mean"`
}

// FieldStats summarises one field grid.
type FieldStats struct {
	Step         int     `csv:"step"`
	Field        string  `csv:"field"`
	Min          float64 `csv:"min"`
	Max          float64 `csv:"max"`
	Mean         float64 `csv:"mean"`
	StdDev       float64 `csv:"stddev"`
	NonzeroRatio float64 `csv:"nonzero_ratio"`
	P95          float64 `csv:"p95"`
	Entropy      float64 `csv:"entropy"`
	NormEntropy  float64 `csv:"norm_entropy"`
}

// nonzeroEpsilon is the smallest value counted as occupied.
const nonzeroEpsilon = 1e-6

// ComputeFieldStats summarises values. Entropy is the Shannon entropy (nats)
// of a histogram with bins equal-width bins over [min, max]; flat fields have
// zero entropy.
func ComputeFieldStats(values []float32, bins int) FieldStats {
	var s FieldStats
	if len(values) == 0 {
		return s
	}

	x := make([]float64, len(values))
	nonzero := 0
	for i, v := range values {
		x[i] = float64(v)
		if v > nonzeroEpsilon {
			nonzero++
		}
	}
	s.Min = floats.Min(x)
	s.Max = floats.Max(x)
	s.Mean, s.StdDev = stat.PopMeanStdDev(x, nil)
	s.NonzeroRatio = float64(nonzero) / float64(len(x))

	sort.Float64s(x)
	s.P95 = stat.Quantile(0.95, stat.Empirical, x, nil)

	if bins < 2 || s.Max <= s.Min {
		return s
	}
	hist := make([]float64, bins)
	span := s.Max - s.Min
	for _, v := range x {
		b := int(math.Floor((v - s.Min) / span * float64(bins)))
		b = min(max(b, 0), bins-1)
		hist[b]++
	}
	floats.Scale(1/float64(len(x)), hist)
	s.Entropy = stat.Entropy(hist)
	s.NormEntropy = s.Entropy / math.Log(float64(bins))
	return s
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeEnergyStats calculates mean and percentiles from energy values.
func ComputeEnergyStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	mean = stat.Mean(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return mean, Percentile(sorted, 0.10), Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStart),
		slog.Int("window_end", s.WindowEnd),
		slog.Int("agents", s.Agents),
		slog.Int("alive", s.Alive),
		slog.Int("deaths", s.Deaths),
		slog.Int("replaced", s.Replaced),
		slog.Int("bounces", s.Bounces),
		slog.Int("stored", s.Stored),
		slog.Int("selections", s.Selections),
		slog.Float64("harvested", s.Harvested),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("energy_p90", s.EnergyP90),
		slog.Int("dna_personal", s.DNAPersonal),
		slog.Int("dna_global", s.DNAGlobal),
		slog.Float64("dna_best", s.DNABest),
		slog.Int("max_generation", s.MaxGeneration),
		slog.Float64("total_resources", s.TotalResources),
		slog.Float64("mycel_mean", s.MycelMean),
	)
}

// LogStats logs the window stats.
func (s WindowStats) LogStats(logger *slog.Logger) {
	logger.Info("stats", "window", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s FieldStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("field", s.Field),
		slog.Float64("mean", s.Mean),
		slog.Float64("p95", s.P95),
		slog.Float64("nonzero_ratio", s.NonzeroRatio),
		slog.Float64("norm_entropy", s.NormEntropy),
	)
}
