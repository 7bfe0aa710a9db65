package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_DNABreakthrough(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEnd: i * 500, Alive: 100, DNABest: 0.5})
	}

	bookmarks := bd.Check(WindowStats{WindowEnd: 2500, Alive: 100, DNABest: 1.5})
	if !hasBookmark(bookmarks, BookmarkDNABreakthrough) {
		t.Error("expected dna_breakthrough bookmark")
	}
}

func TestBookmarkDetector_BounceStorm(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEnd: i * 500, Alive: 100, Bounces: 5})
	}

	if b := bd.Check(WindowStats{WindowEnd: 2500, Alive: 100, Bounces: 8}); hasBookmark(b, BookmarkBounceStorm) {
		t.Error("small rise should not trigger a bounce storm")
	}
	if b := bd.Check(WindowStats{WindowEnd: 3000, Alive: 100, Bounces: 40}); !hasBookmark(b, BookmarkBounceStorm) {
		t.Error("expected bounce_storm bookmark")
	}
}

func TestBookmarkDetector_PopulationCrash(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEnd: i * 500, Alive: 100})
	}

	bookmarks := bd.Check(WindowStats{WindowEnd: 2500, Alive: 50})
	if !hasBookmark(bookmarks, BookmarkPopulationCrash) {
		t.Error("expected population_crash bookmark")
	}
	// The peak resets after a crash
	if b := bd.Check(WindowStats{WindowEnd: 3000, Alive: 50}); hasBookmark(b, BookmarkPopulationCrash) {
		t.Error("crash should not re-trigger at the same level")
	}
}

func TestBookmarkDetector_StableSwarmOnce(t *testing.T) {
	bd := NewBookmarkDetector(10)
	count := 0
	for i := 0; i < 20; i++ {
		b := bd.Check(WindowStats{WindowEnd: i * 500, Alive: 100, EnergyMean: 0.5})
		if hasBookmark(b, BookmarkStableSwarm) {
			count++
		}
	}
	if count != 1 {
		t.Errorf("stable_swarm should fire exactly once, fired %d times", count)
	}
}

func TestBookmarkDetector_HistoryIsChronological(t *testing.T) {
	bd := NewBookmarkDetector(5)
	for i := 0; i < 7; i++ {
		bd.Check(WindowStats{WindowEnd: i})
	}
	h := bd.getHistory()
	for i := 1; i < len(h); i++ {
		if h[i].WindowEnd <= h[i-1].WindowEnd {
			t.Fatalf("history out of order: %v", h)
		}
	}
}
