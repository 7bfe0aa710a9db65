package systems

import (
	"math/rand/v2"
	"testing"
)

func TestArchiveSortedAndBounded(t *testing.T) {
	a := NewArchive(3)
	for i, f := range []float32{0.5, 0.9, 0.1, 0.7, 0.3} {
		a.Insert(ArchiveEntry{Fitness: f, Step: i})
		if a.Len() > a.Capacity() {
			t.Fatalf("archive grew to %d, capacity %d", a.Len(), a.Capacity())
		}
	}

	got := a.Entries()
	want := []float32{0.9, 0.7, 0.5}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Fitness != want[i] {
			t.Errorf("entry %d: fitness %f, want %f", i, got[i].Fitness, want[i])
		}
	}
}

func TestArchiveEvictsLowest(t *testing.T) {
	a := NewArchive(2)
	a.Insert(ArchiveEntry{Fitness: 0.4, Step: 1})
	a.Insert(ArchiveEntry{Fitness: 0.6, Step: 2})

	lowest, _ := a.Lowest()
	if !a.Insert(ArchiveEntry{Fitness: 0.5, Step: 3}) {
		t.Fatal("entry better than the lowest should be stored")
	}
	if a.Contains(0, lowest.Step) {
		t.Errorf("lowest entry (step %d) should have been evicted", lowest.Step)
	}

	if a.Insert(ArchiveEntry{Fitness: 0.1, Step: 4}) {
		t.Error("entry worse than every stored entry should be rejected when full")
	}
	if a.Insert(ArchiveEntry{Fitness: 0.5, Step: 5}) {
		t.Error("tie with the lowest should be rejected when full")
	}
}

func TestArchiveZeroCapacity(t *testing.T) {
	a := NewArchive(0)
	if a.Insert(ArchiveEntry{Fitness: 10}) {
		t.Error("zero-capacity archive must store nothing")
	}
	if _, ok := a.Sample(rand.New(rand.NewPCG(1, 1)), 1); ok {
		t.Error("sampling an empty archive should fail")
	}
}

func TestArchiveSetCapacityTrims(t *testing.T) {
	a := NewArchive(5)
	for i := 0; i < 5; i++ {
		a.Insert(ArchiveEntry{Fitness: float32(i)})
	}
	a.SetCapacity(2)
	if a.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", a.Len())
	}
	best, _ := a.Best()
	lowest, _ := a.Lowest()
	if best.Fitness != 4 || lowest.Fitness != 3 {
		t.Errorf("trim should keep the best entries, got %f and %f", best.Fitness, lowest.Fitness)
	}
}

func TestArchiveDecay(t *testing.T) {
	a := NewArchive(4)
	a.Insert(ArchiveEntry{Fitness: 2})
	a.Insert(ArchiveEntry{Fitness: 1})
	a.Decay(0.5)
	e := a.Entries()
	if e[0].Fitness != 1 || e[1].Fitness != 0.5 {
		t.Errorf("decay: got %f, %f", e[0].Fitness, e[1].Fitness)
	}
}

func TestArchiveSampleFavoursFitness(t *testing.T) {
	a := NewArchive(2)
	a.Insert(ArchiveEntry{Fitness: 10, Step: 1})
	a.Insert(ArchiveEntry{Fitness: 0, Step: 2})

	rng := rand.New(rand.NewPCG(7, 7))
	hits := 0
	for i := 0; i < 1000; i++ {
		e, _ := a.Sample(rng, 1)
		if e.Step == 1 {
			hits++
		}
	}
	// weights 10.01 vs 0.01
	if hits < 980 {
		t.Errorf("fit entry sampled %d/1000 times, expected nearly always", hits)
	}
}

func TestArchiveClone(t *testing.T) {
	a := NewArchive(3)
	a.Insert(ArchiveEntry{Fitness: 1})
	c := a.Clone()
	c.Insert(ArchiveEntry{Fitness: 2})
	if a.Len() != 1 || c.Len() != 2 {
		t.Errorf("clone not independent: %d, %d", a.Len(), c.Len())
	}
}
