package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/microswarm/config"
	"github.com/pthm-cable/microswarm/systems"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete simulation state needed to resume a run.
type Snapshot struct {
	Version int    `json:"version"`
	Seed    uint32 `json:"seed"`
	Step    int    `json:"step"`
	Paused  bool   `json:"paused"`
	RNG     []byte `json:"rng"` // marshaled PCG state

	Config *config.Config `json:"config"`

	Fields  map[string][]float32 `json:"fields"`
	Blocked []int                `json:"blocked,omitempty"` // blocked resource cell indices

	Agents   []systems.Agent          `json:"agents"`
	Personal [][]systems.ArchiveEntry `json:"personal"`
	Global   []systems.ArchiveEntry   `json:"global"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// SaveSnapshot writes a snapshot to dir and returns the file path.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%06d", snapshot.Step)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%06d_%s", snapshot.Step, sanitized)
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}
	if snapshot.Config == nil {
		return nil, fmt.Errorf("snapshot has no config")
	}
	return &snapshot, nil
}
