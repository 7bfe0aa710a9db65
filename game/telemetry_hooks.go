package game

import (
	"github.com/pthm-cable/microswarm/systems"
	"github.com/pthm-cable/microswarm/telemetry"
)

// flushTelemetry closes the stats window when it is complete and routes the
// result and any bookmarks to every sink.
func (g *Game) flushTelemetry() {
	step := g.sim.StepIndex()
	if !g.collector.ShouldFlush(step) {
		return
	}

	stats := g.collector.Flush(step, g.sim.WindowSample())
	perfStats := g.sim.PhaseTimings()

	if g.logStats {
		stats.LogStats(g.logger)
		perfStats.LogStats(g.logger)
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		g.logger.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEnd); err != nil {
		g.logger.Error("failed to write perf", "error", err)
	}
	if err := g.outputManager.WriteFieldStats(g.sim.Entropy()); err != nil {
		g.logger.Error("failed to write field stats", "error", err)
	}
	if g.db != nil {
		if err := g.db.SaveWindow(g.runID, stats); err != nil {
			g.logger.Error("failed to store window", "error", err)
		}
	}

	for _, bm := range g.bookmarks.Check(stats) {
		if g.logStats {
			bm.LogBookmark(g.logger)
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			g.logger.Error("failed to write bookmark", "error", err)
		}
		if g.db != nil {
			if err := g.db.SaveBookmark(g.runID, bm); err != nil {
				g.logger.Error("failed to store bookmark", "error", err)
			}
		}
		if g.snapshotDir != "" {
			g.saveSnapshot(&bm)
		}
	}
}

// scheduleDump sets the next field dump step after the current one.
func (g *Game) scheduleDump() {
	every := g.cfg.Telemetry.DumpEvery
	if every <= 0 {
		g.nextDump = -1
		return
	}
	g.nextDump = (g.sim.StepIndex()/every + 1) * every
}

// dumpFields writes every field grid when the dump step is reached.
func (g *Game) dumpFields() {
	if g.outputManager == nil || g.nextDump < 0 || g.sim.StepIndex() < g.nextDump {
		return
	}
	step := g.sim.StepIndex()
	for _, kind := range systems.Kinds() {
		w, h, err := g.sim.FieldInfo(kind)
		if err != nil {
			continue
		}
		buf := make([]float32, w*h)
		if _, err := g.sim.CopyFieldOut(kind, buf); err != nil {
			g.logger.Error("failed to copy field", "field", kind.String(), "error", err)
			continue
		}
		if err := g.outputManager.WriteFieldDump(step, kind.String(), w, h, buf); err != nil {
			g.logger.Error("failed to dump field", "field", kind.String(), "error", err)
		}
	}
	g.scheduleDump()
}

// saveSnapshot writes the current state to the snapshot directory.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	if g.snapshotDir == "" {
		g.logger.Warn("no snapshot directory configured")
		return
	}
	snapshot, err := g.sim.Snapshot()
	if err != nil {
		g.logger.Error("failed to create snapshot", "error", err)
		return
	}
	snapshot.Bookmark = bookmark

	path, err := telemetry.SaveSnapshot(snapshot, g.snapshotDir)
	if err != nil {
		g.logger.Error("failed to save snapshot", "error", err)
		return
	}
	g.logger.Info("snapshot saved", "path", path, "step", snapshot.Step)
}

// exportDNA writes the current archives to the output directory.
func (g *Game) exportDNA() {
	if g.outputManager == nil {
		g.logger.Warn("no output directory configured")
		return
	}
	step := g.sim.StepIndex()
	records := g.sim.Archives()
	if err := g.outputManager.WriteDNA(step, records); err != nil {
		g.logger.Error("failed to export DNA", "error", err)
		return
	}
	g.logger.Info("DNA exported", "records", len(records), "step", step)
}
