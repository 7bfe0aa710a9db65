// Package store persists runs, window metrics, bookmarks and DNA archives
// in SQLite.
package store

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/microswarm/config"
	"github.com/pthm-cable/microswarm/telemetry"
)

// DB wraps a SQLite connection.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		agents INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		config_yaml TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS windows (
		run_id INTEGER NOT NULL REFERENCES runs(id),
		window_start INTEGER NOT NULL,
		window_end INTEGER NOT NULL,
		agents INTEGER NOT NULL,
		alive INTEGER NOT NULL,
		deaths INTEGER NOT NULL,
		replaced INTEGER NOT NULL,
		bounces INTEGER NOT NULL,
		stored INTEGER NOT NULL,
		selections INTEGER NOT NULL,
		harvested REAL NOT NULL,
		energy_mean REAL NOT NULL,
		energy_p10 REAL NOT NULL,
		energy_p50 REAL NOT NULL,
		energy_p90 REAL NOT NULL,
		dna_personal INTEGER NOT NULL,
		dna_global INTEGER NOT NULL,
		dna_best REAL NOT NULL,
		max_generation INTEGER NOT NULL,
		total_resources REAL NOT NULL,
		mycel_mean REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bookmarks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		step INTEGER NOT NULL,
		type TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS dna (
		run_id INTEGER NOT NULL REFERENCES runs(id),
		saved_step INTEGER NOT NULL,
		pool TEXT NOT NULL,
		slot INTEGER NOT NULL,
		species INTEGER NOT NULL,
		fitness REAL NOT NULL,
		energy REAL NOT NULL,
		step INTEGER NOT NULL,
		sense_gain REAL NOT NULL,
		resource_bias REAL NOT NULL,
		pheromone_gain REAL NOT NULL,
		exploration_bias REAL NOT NULL,
		deposit_scale REAL NOT NULL,
		harvest_efficiency REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_windows_run ON windows(run_id, window_end);
	CREATE INDEX IF NOT EXISTS idx_bookmarks_run ON bookmarks(run_id, step);
	CREATE INDEX IF NOT EXISTS idx_dna_run ON dna(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run describes one recorded simulation run.
type Run struct {
	ID        int64  `db:"id"`
	Seed      uint32 `db:"seed"`
	Width     int    `db:"width"`
	Height    int    `db:"height"`
	Agents    int    `db:"agents"`
	StartedAt string `db:"started_at"`
	Config    string `db:"config_yaml"`
}

// BeginRun records a new run and returns its id.
func (db *DB) BeginRun(cfg *config.Config, started time.Time) (int64, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return 0, fmt.Errorf("marshal config: %w", err)
	}
	res, err := db.conn.Exec(`INSERT INTO runs
		(seed, width, height, agents, started_at, config_yaml)
		VALUES (?, ?, ?, ?, ?, ?)`,
		cfg.World.Seed, cfg.World.Width, cfg.World.Height, cfg.World.AgentCount,
		started.UTC().Format(time.RFC3339), string(data),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	slog.Debug("run recorded", "run", id, "seed", cfg.World.Seed)
	return id, nil
}

// Run loads a run by id.
func (db *DB) Run(id int64) (Run, error) {
	var r Run
	err := db.conn.Get(&r, "SELECT * FROM runs WHERE id = ?", id)
	return r, err
}

// Runs returns every run, oldest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, "SELECT * FROM runs ORDER BY id")
	return runs, err
}

// RunConfig decodes the configuration a run was started with.
func (db *DB) RunConfig(id int64) (*config.Config, error) {
	r, err := db.Run(id)
	if err != nil {
		return nil, err
	}
	cfg := config.Default()
	if err := yaml.Unmarshal([]byte(r.Config), cfg); err != nil {
		return nil, fmt.Errorf("decode run %d config: %w", id, err)
	}
	return cfg, nil
}

type windowRow struct {
	RunID          int64   `db:"run_id"`
	WindowStart    int     `db:"window_start"`
	WindowEnd      int     `db:"window_end"`
	Agents         int     `db:"agents"`
	Alive          int     `db:"alive"`
	Deaths         int     `db:"deaths"`
	Replaced       int     `db:"replaced"`
	Bounces        int     `db:"bounces"`
	Stored         int     `db:"stored"`
	Selections     int     `db:"selections"`
	Harvested      float64 `db:"harvested"`
	EnergyMean     float64 `db:"energy_mean"`
	EnergyP10      float64 `db:"energy_p10"`
	EnergyP50      float64 `db:"energy_p50"`
	EnergyP90      float64 `db:"energy_p90"`
	DNAPersonal    int     `db:"dna_personal"`
	DNAGlobal      int     `db:"dna_global"`
	DNABest        float64 `db:"dna_best"`
	MaxGeneration  int     `db:"max_generation"`
	TotalResources float64 `db:"total_resources"`
	MycelMean      float64 `db:"mycel_mean"`
}

// SaveWindow appends one window of metrics.
func (db *DB) SaveWindow(runID int64, s telemetry.WindowStats) error {
	row := windowRow{
		RunID: runID, WindowStart: s.WindowStart, WindowEnd: s.WindowEnd,
		Agents: s.Agents, Alive: s.Alive,
		Deaths: s.Deaths, Replaced: s.Replaced, Bounces: s.Bounces,
		Stored: s.Stored, Selections: s.Selections, Harvested: s.Harvested,
		EnergyMean: s.EnergyMean, EnergyP10: s.EnergyP10, EnergyP50: s.EnergyP50, EnergyP90: s.EnergyP90,
		DNAPersonal: s.DNAPersonal, DNAGlobal: s.DNAGlobal, DNABest: s.DNABest,
		MaxGeneration: s.MaxGeneration, TotalResources: s.TotalResources, MycelMean: s.MycelMean,
	}
	_, err := db.conn.NamedExec(`INSERT INTO windows
		(run_id, window_start, window_end, agents, alive, deaths, replaced, bounces,
		 stored, selections, harvested, energy_mean, energy_p10, energy_p50, energy_p90,
		 dna_personal, dna_global, dna_best, max_generation, total_resources, mycel_mean)
		VALUES (:run_id, :window_start, :window_end, :agents, :alive, :deaths, :replaced, :bounces,
		 :stored, :selections, :harvested, :energy_mean, :energy_p10, :energy_p50, :energy_p90,
		 :dna_personal, :dna_global, :dna_best, :max_generation, :total_resources, :mycel_mean)`, row)
	if err != nil {
		return fmt.Errorf("insert window %d: %w", s.WindowEnd, err)
	}
	return nil
}

// Windows returns a run's metrics in step order.
func (db *DB) Windows(runID int64) ([]telemetry.WindowStats, error) {
	var rows []windowRow
	if err := db.conn.Select(&rows,
		"SELECT * FROM windows WHERE run_id = ? ORDER BY window_end", runID); err != nil {
		return nil, err
	}
	out := make([]telemetry.WindowStats, len(rows))
	for i, r := range rows {
		out[i] = telemetry.WindowStats{
			WindowStart: r.WindowStart, WindowEnd: r.WindowEnd,
			Agents: r.Agents, Alive: r.Alive,
			Deaths: r.Deaths, Replaced: r.Replaced, Bounces: r.Bounces,
			Stored: r.Stored, Selections: r.Selections, Harvested: r.Harvested,
			EnergyMean: r.EnergyMean, EnergyP10: r.EnergyP10, EnergyP50: r.EnergyP50, EnergyP90: r.EnergyP90,
			DNAPersonal: r.DNAPersonal, DNAGlobal: r.DNAGlobal, DNABest: r.DNABest,
			MaxGeneration: r.MaxGeneration, TotalResources: r.TotalResources, MycelMean: r.MycelMean,
		}
	}
	return out, nil
}

// SaveBookmark appends a bookmark.
func (db *DB) SaveBookmark(runID int64, b telemetry.Bookmark) error {
	_, err := db.conn.Exec(
		"INSERT INTO bookmarks (run_id, step, type, description) VALUES (?, ?, ?, ?)",
		runID, b.Step, string(b.Type), b.Description,
	)
	return err
}

// Bookmarks returns a run's bookmarks in step order.
func (db *DB) Bookmarks(runID int64) ([]telemetry.Bookmark, error) {
	var out []telemetry.Bookmark
	err := db.conn.Select(&out,
		"SELECT type, step, description FROM bookmarks WHERE run_id = ? ORDER BY step, id", runID)
	return out, err
}

type dnaRow struct {
	RunID             int64   `db:"run_id"`
	SavedStep         int     `db:"saved_step"`
	Pool              string  `db:"pool"`
	Slot              int     `db:"slot"`
	Species           uint8   `db:"species"`
	Fitness           float32 `db:"fitness"`
	Energy            float32 `db:"energy"`
	Step              int     `db:"step"`
	SenseGain         float32 `db:"sense_gain"`
	ResourceBias      float32 `db:"resource_bias"`
	PheromoneGain     float32 `db:"pheromone_gain"`
	ExplorationBias   float32 `db:"exploration_bias"`
	DepositScale      float32 `db:"deposit_scale"`
	HarvestEfficiency float32 `db:"harvest_efficiency"`
}

// SaveArchive replaces the stored archives of a run with records taken at step.
func (db *DB) SaveArchive(runID int64, step int, records []telemetry.DNARecord) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM dna WHERE run_id = ?", runID); err != nil {
		return err
	}

	stmt, err := tx.PrepareNamed(`INSERT INTO dna
		(run_id, saved_step, pool, slot, species, fitness, energy, step,
		 sense_gain, resource_bias, pheromone_gain, exploration_bias, deposit_scale, harvest_efficiency)
		VALUES (:run_id, :saved_step, :pool, :slot, :species, :fitness, :energy, :step,
		 :sense_gain, :resource_bias, :pheromone_gain, :exploration_bias, :deposit_scale, :harvest_efficiency)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range records {
		row := dnaRow{
			RunID: runID, SavedStep: step,
			Pool: r.Pool, Slot: r.Slot, Species: r.Species,
			Fitness: r.Fitness, Energy: r.Energy, Step: r.Step,
			SenseGain: r.SenseGain, ResourceBias: r.ResourceBias, PheromoneGain: r.PheromoneGain,
			ExplorationBias: r.ExplorationBias, DepositScale: r.DepositScale, HarvestEfficiency: r.HarvestEfficiency,
		}
		if _, err := stmt.Exec(row); err != nil {
			return fmt.Errorf("insert dna record %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// LoadArchive returns the stored archives of a run and the step they were
// saved at. Global records come first, as in the export order.
func (db *DB) LoadArchive(runID int64) ([]telemetry.DNARecord, int, error) {
	var rows []dnaRow
	if err := db.conn.Select(&rows,
		"SELECT * FROM dna WHERE run_id = ? ORDER BY pool = 'personal', rowid", runID); err != nil {
		return nil, 0, err
	}
	out := make([]telemetry.DNARecord, len(rows))
	step := 0
	for i, r := range rows {
		step = r.SavedStep
		out[i] = telemetry.DNARecord{
			Pool: r.Pool, Slot: r.Slot, Species: r.Species,
			Fitness: r.Fitness, Energy: r.Energy, Step: r.Step,
			SenseGain: r.SenseGain, ResourceBias: r.ResourceBias, PheromoneGain: r.PheromoneGain,
			ExplorationBias: r.ExplorationBias, DepositScale: r.DepositScale, HarvestEfficiency: r.HarvestEfficiency,
		}
	}
	return out, step, nil
}
