// Package game hosts a simulation for the command line: a headless loop
// that writes telemetry, or a raylib viewer with painting and inspection.
package game

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pthm-cable/microswarm/config"
	"github.com/pthm-cable/microswarm/sim"
	"github.com/pthm-cable/microswarm/store"
	"github.com/pthm-cable/microswarm/telemetry"
)

// Options configures a Game.
type Options struct {
	Config         *config.Config
	Logger         *slog.Logger
	Restore        *telemetry.Snapshot // resume from this snapshot instead of a fresh world
	Headless       bool
	LogStats       bool   // log every telemetry window
	OutputDir      string // CSV telemetry directory (empty = off)
	SnapshotDir    string // bookmark snapshots (empty = off)
	DBPath         string // SQLite run database (empty = off)
	StepsPerUpdate int
}

// Game couples one simulation with its telemetry sinks and, when not
// headless, the viewer.
type Game struct {
	sim    *sim.Simulation
	cfg    *config.Config
	logger *slog.Logger

	stepsPerUpdate int
	logStats       bool

	collector     *telemetry.Collector
	bookmarks     *telemetry.BookmarkDetector
	outputManager *telemetry.OutputManager
	snapshotDir   string
	db            *store.DB
	runID         int64
	nextDump      int

	loggedUnusable bool
	view           *viewer // nil when headless
}

// New builds the simulation and opens every configured sink.
func New(opts Options) (*Game, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var (
		s   *sim.Simulation
		err error
	)
	if opts.Restore != nil {
		s, err = sim.Restore(opts.Restore, sim.WithLogger(logger))
	} else {
		cfg := opts.Config
		if cfg == nil {
			cfg = config.Default()
		}
		s, err = sim.New(cfg, sim.WithLogger(logger))
	}
	if err != nil {
		return nil, fmt.Errorf("creating simulation: %w", err)
	}
	cfg := s.Config()

	g := &Game{
		sim:            s,
		cfg:            cfg,
		logger:         logger,
		stepsPerUpdate: max(opts.StepsPerUpdate, 1),
		logStats:       opts.LogStats,
		collector:      telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		bookmarks:      telemetry.NewBookmarkDetector(10),
		snapshotDir:    opts.SnapshotDir,
	}
	g.scheduleDump()

	if opts.OutputDir != "" {
		g.outputManager, err = telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			g.Close()
			return nil, err
		}
		if err := g.outputManager.WriteConfig(cfg); err != nil {
			g.Close()
			return nil, err
		}
	}

	if opts.DBPath != "" {
		g.db, err = store.Open(opts.DBPath)
		if err != nil {
			g.Close()
			return nil, err
		}
		g.runID, err = g.db.BeginRun(cfg, time.Now())
		if err != nil {
			g.Close()
			return nil, err
		}
		logger.Info("run recorded", "db", opts.DBPath, "run", g.runID)
	}

	if !opts.Headless {
		g.view = newViewer(g)
	}
	return g, nil
}

// Sim returns the hosted simulation.
func (g *Game) Sim() *sim.Simulation { return g.sim }

// Step returns the current step index.
func (g *Game) Step() int { return g.sim.StepIndex() }

// RunID returns the database run id, or 0 without a database.
func (g *Game) RunID() int64 { return g.runID }

// UpdateHeadless advances stepsPerUpdate steps and services telemetry.
func (g *Game) UpdateHeadless() error {
	return g.advance(g.stepsPerUpdate)
}

// advance runs n steps one at a time so telemetry windows and field dumps
// land on their exact step.
func (g *Game) advance(n int) error {
	for i := 0; i < n; i++ {
		done, err := g.sim.Step(1)
		if err != nil {
			return err
		}
		if done == 0 {
			return nil // paused
		}
		g.collector.Record(g.sim.LastStats())
		g.flushTelemetry()
		g.dumpFields()
	}
	return nil
}

// Close flushes the DNA archive and releases every resource.
func (g *Game) Close() error {
	if g.view != nil {
		g.view.unload()
	}
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if g.db != nil {
		keep(g.db.SaveArchive(g.runID, g.sim.StepIndex(), g.sim.Archives()))
		keep(g.db.Close())
	}
	if g.outputManager != nil {
		keep(g.outputManager.WriteDNA(g.sim.StepIndex(), g.sim.Archives()))
		keep(g.outputManager.Close())
	}
	keep(g.sim.Close())
	return firstErr
}
