package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/microswarm/config"
	"github.com/pthm-cable/microswarm/game"
	"github.com/pthm-cable/microswarm/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in steps (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	dbPath := flag.String("db", "", "SQLite database recording runs, windows and DNA (empty = off)")
	restore := flag.String("restore", "", "Resume from a snapshot file")
	seed := flag.Int64("seed", -1, "World seed (-1 = use config, 0 = time-based)")
	maxSteps := flag.Int("max-steps", 0, "Stop after N steps (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation steps per update call (higher = faster headless runs)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	// JSON to stdout for structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg().Clone()

	switch {
	case *seed == 0:
		cfg.World.Seed = uint32(time.Now().UnixNano())
	case *seed > 0:
		cfg.World.Seed = uint32(*seed)
	}
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}

	opts := game.Options{
		Config:         cfg,
		Logger:         logger,
		Headless:       *headless,
		LogStats:       *logStats,
		OutputDir:      *outputDir,
		SnapshotDir:    *snapshotDir,
		DBPath:         *dbPath,
		StepsPerUpdate: *stepsPerUpdate,
	}
	if *restore != "" {
		snap, err := telemetry.LoadSnapshot(*restore)
		if err != nil {
			slog.Error("failed to load snapshot", "path", *restore, "error", err)
			os.Exit(1)
		}
		opts.Restore = snap
	}

	if *headless {
		os.Exit(runHeadless(opts, *maxSteps))
	}
	os.Exit(runViewer(opts, cfg, *maxSteps))
}

func runHeadless(opts game.Options, maxSteps int) int {
	g, err := game.New(opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		return 1
	}
	defer func() {
		if err := g.Close(); err != nil {
			slog.Error("failed to close", "error", err)
		}
	}()

	// A restored snapshot may have been paused in the viewer.
	g.Sim().Resume()

	slog.Info("starting headless simulation",
		"seed", g.Sim().Seed(),
		"step", g.Step(),
		"max_steps", maxSteps,
		"steps_per_update", opts.StepsPerUpdate,
	)

	start := time.Now()
	for maxSteps <= 0 || g.Step() < maxSteps {
		if err := g.UpdateHeadless(); err != nil {
			slog.Error("simulation stopped", "step", g.Step(), "error", err)
			return 1
		}
	}
	slog.Info("max steps reached", "step", g.Step(), "elapsed", time.Since(start).Round(time.Millisecond))
	return 0
}

func runViewer(opts game.Options, cfg *config.Config, maxSteps int) int {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Viewer.ScreenWidth), int32(cfg.Viewer.ScreenHeight), "Micro Swarm")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Viewer.TargetFPS))

	g, err := game.New(opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		return 1
	}
	defer g.Close()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		if maxSteps > 0 && g.Step() >= maxSteps {
			break
		}
	}
	return 0
}
