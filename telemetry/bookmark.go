package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkDNABreakthrough BookmarkType = "dna_breakthrough"
	BookmarkBounceStorm     BookmarkType = "bounce_storm"
	BookmarkPopulationCrash BookmarkType = "population_crash"
	BookmarkStableSwarm     BookmarkType = "stable_swarm"
)

// Bookmark marks an interesting moment in a run.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Step        int          `csv:"step"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark.
func (b Bookmark) LogBookmark(logger *slog.Logger) {
	logger.Info("bookmark",
		"type", string(b.Type),
		"step", b.Step,
		"description", b.Description,
	)
}

// BookmarkDetector watches window stats for notable changes.
type BookmarkDetector struct {
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	recentAlivePeak    int
	stableWindowsCount int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable swarm detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		checks := []func(WindowStats) *Bookmark{
			bd.checkDNABreakthrough,
			bd.checkBounceStorm,
			bd.checkPopulationCrash,
			bd.checkStableSwarm,
		}
		for _, check := range checks {
			if b := check(stats); b != nil {
				bookmarks = append(bookmarks, *b)
			}
		}
	}

	bd.addToHistory(stats)
	if stats.Alive > bd.recentAlivePeak {
		bd.recentAlivePeak = stats.Alive
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// getHistory returns recorded windows, oldest first.
func (bd *BookmarkDetector) getHistory() []WindowStats {
	if !bd.historyFull {
		return bd.history[:bd.historyIdx]
	}
	out := make([]WindowStats, 0, bd.historySize)
	out = append(out, bd.history[bd.historyIdx:]...)
	return append(out, bd.history[:bd.historyIdx]...)
}

// checkDNABreakthrough fires when the best archived fitness doubles its rolling average.
func (bd *BookmarkDetector) checkDNABreakthrough(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.DNABest
	}
	avg := total / float64(len(history))
	if avg <= 0 {
		return nil
	}

	if stats.DNABest > avg*2 {
		return &Bookmark{
			Type:        BookmarkDNABreakthrough,
			Step:        stats.WindowEnd,
			Description: fmt.Sprintf("Best DNA fitness %.3f is %.1fx average (%.3f)", stats.DNABest, stats.DNABest/avg, avg),
		}
	}
	return nil
}

// checkBounceStorm fires when danger bounces triple their rolling average.
func (bd *BookmarkDetector) checkBounceStorm(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	total := 0
	for _, h := range history {
		total += h.Bounces
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	if float64(stats.Bounces) > avg*3 && stats.Bounces >= 10 {
		return &Bookmark{
			Type:        BookmarkBounceStorm,
			Step:        stats.WindowEnd,
			Description: fmt.Sprintf("%d bounces is %.1fx average (%.1f)", stats.Bounces, float64(stats.Bounces)/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkPopulationCrash(stats WindowStats) *Bookmark {
	if bd.recentAlivePeak == 0 {
		return nil
	}

	drop := 1 - float64(stats.Alive)/float64(bd.recentAlivePeak)
	if drop > 0.30 && stats.Alive < bd.recentAlivePeak-10 {
		oldPeak := bd.recentAlivePeak
		bd.recentAlivePeak = stats.Alive

		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			Step:        stats.WindowEnd,
			Description: fmt.Sprintf("Live agents crashed %.0f%% from peak %d to %d", drop*100, oldPeak, stats.Alive),
		}
	}
	return nil
}

// checkStableSwarm fires once mean energy has stayed within a 20% coefficient
// of variation for five consecutive windows.
func (bd *BookmarkDetector) checkStableSwarm(stats WindowStats) *Bookmark {
	if stats.Alive == 0 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := history[len(history)-4:]
	var sum float64
	for _, h := range recent {
		sum += h.EnergyMean
	}
	mean := sum / 4

	var variance float64
	for _, h := range recent {
		d := h.EnergyMean - mean
		variance += d * d
	}
	variance /= 4

	if mean > 0 && variance/(mean*mean) < 0.04 { // CV^2 < 0.04 means CV < 0.2
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 {
		return &Bookmark{
			Type:        BookmarkStableSwarm,
			Step:        stats.WindowEnd,
			Description: fmt.Sprintf("Mean energy stable near %.3f over 5+ windows with %d live agents", mean, stats.Alive),
		}
	}
	return nil
}
