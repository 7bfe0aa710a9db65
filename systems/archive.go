package systems

import (
	"math/rand/v2"
	"sort"

	"github.com/pthm-cable/microswarm/components"
)

// ArchiveEntry is a stored genome with the fitness and energy it achieved.
type ArchiveEntry struct {
	Genome  components.Genome
	Fitness float32
	Energy  float32
	Step    int   // step at which it was stored
	Slot    int   // population slot of the donor
	Species uint8 // species of the donor
}

// Archive is a bounded store of genomes kept sorted by fitness, descending.
// When full, inserting evicts the lowest-fitness entry.
type Archive struct {
	entries  []ArchiveEntry
	capacity int
}

// NewArchive creates an empty archive. capacity 0 stores nothing.
func NewArchive(capacity int) *Archive {
	if capacity < 0 {
		capacity = 0
	}
	return &Archive{capacity: capacity}
}

// Insert adds an entry, maintaining sorted order by fitness.
// If the archive is full and the entry would be last, it is rejected.
// Returns true if the entry was stored.
func (a *Archive) Insert(e ArchiveEntry) bool {
	// Find insertion point (sorted descending by fitness)
	idx := sort.Search(len(a.entries), func(i int) bool {
		return a.entries[i].Fitness < e.Fitness
	})

	if len(a.entries) >= a.capacity && idx >= a.capacity {
		return false
	}

	a.entries = append(a.entries, ArchiveEntry{})
	copy(a.entries[idx+1:], a.entries[idx:])
	a.entries[idx] = e

	// Trim the lowest if over capacity
	if len(a.entries) > a.capacity {
		a.entries = a.entries[:a.capacity]
	}
	return true
}

// Contains reports whether an entry stored from slot at step is present.
func (a *Archive) Contains(slot, step int) bool {
	for i := range a.entries {
		if a.entries[i].Slot == slot && a.entries[i].Step == step {
			return true
		}
	}
	return false
}

// Len returns the number of stored entries.
func (a *Archive) Len() int { return len(a.entries) }

// Capacity returns the maximum number of entries.
func (a *Archive) Capacity() int { return a.capacity }

// SetCapacity changes the bound, dropping the lowest entries if needed.
func (a *Archive) SetCapacity(n int) {
	if n < 0 {
		n = 0
	}
	a.capacity = n
	if len(a.entries) > n {
		a.entries = a.entries[:n]
	}
}

// Clear removes every entry.
func (a *Archive) Clear() {
	a.entries = a.entries[:0]
}

// Entries returns a copy of the entries, best first.
func (a *Archive) Entries() []ArchiveEntry {
	return append([]ArchiveEntry(nil), a.entries...)
}

// Best returns the highest-fitness entry.
func (a *Archive) Best() (ArchiveEntry, bool) {
	if len(a.entries) == 0 {
		return ArchiveEntry{}, false
	}
	return a.entries[0], true
}

// Lowest returns the entry that would be evicted next.
func (a *Archive) Lowest() (ArchiveEntry, bool) {
	if len(a.entries) == 0 {
		return ArchiveEntry{}, false
	}
	return a.entries[len(a.entries)-1], true
}

// Decay scales every stored fitness by factor, ageing old entries out.
// Order is preserved because the factor is shared.
func (a *Archive) Decay(factor float32) {
	for i := range a.entries {
		a.entries[i].Fitness *= factor
	}
}

// Sample picks an entry with probability proportional to
// max(fitness, 0) * bias + 0.01. Returns false if the archive is empty.
func (a *Archive) Sample(rng *rand.Rand, bias float32) (ArchiveEntry, bool) {
	if len(a.entries) == 0 {
		return ArchiveEntry{}, false
	}
	var total float64
	for i := range a.entries {
		total += sampleWeight(a.entries[i].Fitness, bias)
	}
	r := rng.Float64() * total
	for i := range a.entries {
		r -= sampleWeight(a.entries[i].Fitness, bias)
		if r < 0 {
			return a.entries[i], true
		}
	}
	return a.entries[len(a.entries)-1], true
}

func sampleWeight(fitness, bias float32) float64 {
	return float64(max(fitness, 0)*bias) + 0.01
}

// Clone returns a deep copy.
func (a *Archive) Clone() *Archive {
	return &Archive{
		entries:  append([]ArchiveEntry(nil), a.entries...),
		capacity: a.capacity,
	}
}
