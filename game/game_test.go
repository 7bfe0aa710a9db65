package game

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/microswarm/config"
	"github.com/pthm-cable/microswarm/store"
	"github.com/pthm-cable/microswarm/telemetry"
)

func headlessConfig() *config.Config {
	cfg := config.Default()
	cfg.World.Width = 24
	cfg.World.Height = 24
	cfg.World.AgentCount = 16
	cfg.World.Workers = 1
	cfg.Evolution.FitnessWindow = 10
	cfg.Telemetry.StatsWindow = 10
	cfg.Telemetry.DumpEvery = 20
	return cfg
}

func TestHeadlessRunWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	dbPath := filepath.Join(dir, "runs.db")

	g, err := New(Options{
		Config:         headlessConfig(),
		Headless:       true,
		OutputDir:      out,
		DBPath:         dbPath,
		StepsPerUpdate: 5,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for g.Step() < 40 {
		if err := g.UpdateHeadless(); err != nil {
			t.Fatalf("UpdateHeadless at %d: %v", g.Step(), err)
		}
	}
	if g.Step() != 40 {
		t.Fatalf("step = %d, want 40", g.Step())
	}
	runID := g.RunID()
	if err := g.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	for _, name := range []string{
		"config.yaml",
		"telemetry.csv",
		"perf.csv",
		"fields.csv",
		"dump_step000020_resources.csv",
		"dump_step000040_mycel.csv",
	} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "dump_step000030_resources.csv")); err == nil {
		t.Error("dump written off schedule at step 30")
	}

	grid, err := telemetry.LoadGridCSV(filepath.Join(out, "dump_step000020_resources.csv"))
	if err != nil {
		t.Fatalf("LoadGridCSV: %v", err)
	}
	if grid.Width != 24 || grid.Height != 24 {
		t.Errorf("dump grid = %dx%d, want 24x24", grid.Width, grid.Height)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer db.Close()

	windows, err := db.Windows(runID)
	if err != nil {
		t.Fatalf("Windows: %v", err)
	}
	if len(windows) != 4 {
		t.Fatalf("stored %d windows, want 4", len(windows))
	}
	for i, w := range windows {
		if w.WindowEnd != (i+1)*10 || w.WindowStart != i*10 {
			t.Errorf("window %d = [%d, %d], want [%d, %d]", i, w.WindowStart, w.WindowEnd, i*10, (i+1)*10)
		}
	}
	run, err := db.Run(runID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Width != 24 || run.Agents != 16 {
		t.Errorf("run = %+v", run)
	}
}

func TestPausedGameDoesNotAdvance(t *testing.T) {
	g, err := New(Options{Config: headlessConfig(), Headless: true, StepsPerUpdate: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer g.Close()

	g.Sim().Pause()
	if err := g.UpdateHeadless(); err != nil {
		t.Fatalf("UpdateHeadless: %v", err)
	}
	if g.Step() != 0 {
		t.Errorf("paused step = %d, want 0", g.Step())
	}
	g.Sim().Resume()
	if err := g.UpdateHeadless(); err != nil {
		t.Fatalf("UpdateHeadless: %v", err)
	}
	if g.Step() != 3 {
		t.Errorf("step = %d, want 3", g.Step())
	}
}

func TestResetRestartsWindows(t *testing.T) {
	g, err := New(Options{Config: headlessConfig(), Headless: true, StepsPerUpdate: 7})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer g.Close()

	if err := g.UpdateHeadless(); err != nil {
		t.Fatalf("UpdateHeadless: %v", err)
	}
	g.resetWorld(99)
	if g.Step() != 0 || g.Sim().Seed() != 99 {
		t.Fatalf("after reset step=%d seed=%d", g.Step(), g.Sim().Seed())
	}
	if g.collector.ShouldFlush(9) {
		t.Error("collector window not restarted")
	}
	if g.nextDump != 20 {
		t.Errorf("nextDump = %d, want 20", g.nextDump)
	}
}

func TestRestoreFromSnapshot(t *testing.T) {
	dir := t.TempDir()
	g, err := New(Options{Config: headlessConfig(), Headless: true, StepsPerUpdate: 12, SnapshotDir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := g.UpdateHeadless(); err != nil {
		t.Fatalf("UpdateHeadless: %v", err)
	}
	g.saveSnapshot(nil)
	g.Close()

	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("snapshots = %v (%v)", matches, err)
	}
	snap, err := telemetry.LoadSnapshot(matches[0])
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	restored, err := New(Options{Restore: snap, Headless: true})
	if err != nil {
		t.Fatalf("New from snapshot: %v", err)
	}
	defer restored.Close()
	if restored.Step() != 12 {
		t.Errorf("restored step = %d, want 12", restored.Step())
	}
	// The dump schedule follows the restored step.
	if restored.nextDump != 20 {
		t.Errorf("nextDump = %d, want 20", restored.nextDump)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := headlessConfig()
	cfg.World.Width = 0
	_, err := New(Options{Config: cfg, Headless: true})
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}
