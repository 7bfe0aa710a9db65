package telemetry

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/microswarm/components"
	"github.com/pthm-cable/microswarm/systems"
)

// Archive pool names used in DNA exports.
const (
	PoolPersonal = "personal"
	PoolGlobal   = "global"
)

// ErrDNARecord is returned for DNA rows that cannot be imported.
var ErrDNARecord = errors.New("invalid dna record")

// DNARecord is one archived genome as a CSV row.
type DNARecord struct {
	Pool              string  `csv:"pool"`
	Slot              int     `csv:"slot"`
	Species           uint8   `csv:"species"`
	Fitness           float32 `csv:"fitness"`
	Energy            float32 `csv:"energy"`
	Step              int     `csv:"step"`
	SenseGain         float32 `csv:"sense_gain"`
	ResourceBias      float32 `csv:"resource_bias"`
	PheromoneGain     float32 `csv:"pheromone_gain"`
	ExplorationBias   float32 `csv:"exploration_bias"`
	DepositScale      float32 `csv:"deposit_scale"`
	HarvestEfficiency float32 `csv:"harvest_efficiency"`
}

// NewDNARecord flattens an archive entry.
func NewDNARecord(pool string, e systems.ArchiveEntry) DNARecord {
	g := e.Genome.Genes
	return DNARecord{
		Pool:              pool,
		Slot:              e.Slot,
		Species:           e.Species,
		Fitness:           e.Fitness,
		Energy:            e.Energy,
		Step:              e.Step,
		SenseGain:         g[components.GeneSenseGain],
		ResourceBias:      g[components.GeneResourceBias],
		PheromoneGain:     g[components.GenePheromoneGain],
		ExplorationBias:   g[components.GeneExploration],
		DepositScale:      g[components.GeneDepositScale],
		HarvestEfficiency: g[components.GeneHarvestEfficiency],
	}
}

// Entry converts the record back into an archive entry with a clamped genome.
func (r DNARecord) Entry() (systems.ArchiveEntry, error) {
	if r.Pool != PoolPersonal && r.Pool != PoolGlobal {
		return systems.ArchiveEntry{}, fmt.Errorf("%w: pool %q", ErrDNARecord, r.Pool)
	}
	var g components.Genome
	g.Genes[components.GeneSenseGain] = r.SenseGain
	g.Genes[components.GeneResourceBias] = r.ResourceBias
	g.Genes[components.GenePheromoneGain] = r.PheromoneGain
	g.Genes[components.GeneExploration] = r.ExplorationBias
	g.Genes[components.GeneDepositScale] = r.DepositScale
	g.Genes[components.GeneHarvestEfficiency] = r.HarvestEfficiency
	g.Clamp()
	return systems.ArchiveEntry{
		Genome:  g,
		Fitness: r.Fitness,
		Energy:  r.Energy,
		Step:    r.Step,
		Slot:    r.Slot,
		Species: r.Species,
	}, nil
}

// WriteDNA writes records as CSV with a header line.
func WriteDNA(w io.Writer, records []DNARecord) error {
	if err := gocsv.Marshal(records, w); err != nil {
		return fmt.Errorf("writing dna: %w", err)
	}
	return nil
}

// ReadDNA parses records written by WriteDNA.
func ReadDNA(r io.Reader) ([]DNARecord, error) {
	var records []DNARecord
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("reading dna: %w", err)
	}
	return records, nil
}

// SaveDNA writes records to path.
func SaveDNA(path string, records []DNARecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dna: %w", err)
	}
	if err := WriteDNA(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadDNA reads records from path.
func LoadDNA(path string) ([]DNARecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dna: %w", err)
	}
	defer f.Close()
	return ReadDNA(f)
}
