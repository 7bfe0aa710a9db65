package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/microswarm/config"
	"github.com/pthm-cable/microswarm/systems"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version: SnapshotVersion,
		Seed:    42,
		Step:    1000,
		RNG:     []byte{1, 2, 3, 4},
		Config:  config.Default(),
		Fields: map[string][]float32{
			"resources": {0.1, 0.2, 0.3, 0.4},
		},
		Blocked: []int{2},
		Agents: []systems.Agent{
			{X: 3, Y: 4, Heading: 1.2, Energy: 0.75, Species: 2, Age: 30, Samples: []float32{0.5, 0.7}},
		},
		Personal: [][]systems.ArchiveEntry{{{Fitness: 0.9, Step: 800, Slot: 0}}},
		Global:   []systems.ArchiveEntry{{Fitness: 1.1, Step: 900, Slot: 0}},
		Bookmark: &Bookmark{Type: BookmarkStableSwarm, Step: 1000, Description: "test"},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if want := "snapshot_001000_stable_swarm.json"; filepath.Base(path) != want {
		t.Errorf("snapshot name %q, want %q", filepath.Base(path), want)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded.Seed != 42 || loaded.Step != 1000 || string(loaded.RNG) != string([]byte{1, 2, 3, 4}) {
		t.Errorf("header mismatch: %+v", loaded)
	}
	if loaded.Config.World.Width != snapshot.Config.World.Width {
		t.Error("config not restored")
	}
	if got := loaded.Fields["resources"]; len(got) != 4 || got[3] != 0.4 {
		t.Errorf("fields mismatch: %v", got)
	}
	a := loaded.Agents[0]
	if a.X != 3 || a.Energy != 0.75 || a.Species != 2 || len(a.Samples) != 2 {
		t.Errorf("agent mismatch: %+v", a)
	}
	if loaded.Personal[0][0].Fitness != 0.9 || loaded.Global[0].Step != 900 {
		t.Error("archives not restored")
	}
}

func TestLoadSnapshotErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadSnapshot(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(bad); err == nil {
		t.Error("expected error for invalid JSON")
	}

	old := filepath.Join(dir, "old.json")
	if err := os.WriteFile(old, []byte(`{"version": 99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(old); err == nil || !strings.Contains(err.Error(), "version") {
		t.Errorf("expected version error, got %v", err)
	}
}
