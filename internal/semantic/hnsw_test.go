package semantic

import (
	"math"
	"math/rand"
	"sort"
	"testing"
)

func TestGraphRoundTrip(t *testing.T) {
	g := NewGraph(3, 10, DefaultParams)

	vectors := map[int64][]float32{
		1: {1, 0, 0},
		2: {0, 1, 0},
		3: {0, 0, 1},
	}
	for id, v := range vectors {
		if err := g.Add(id, v); err != nil {
			t.Fatalf("Add(%d) failed: %v", id, err)
		}
	}

	// Querying with an exact stored vector and k=1 returns that id at
	// distance ~0.
	for id, v := range vectors {
		matches, err := g.Search(v, 1)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(matches) != 1 {
			t.Fatalf("got %d matches, want 1", len(matches))
		}
		if matches[0].ID != id {
			t.Errorf("query for %d returned %d", id, matches[0].ID)
		}
		if matches[0].Distance > 1e-5 {
			t.Errorf("distance = %f, want ~0", matches[0].Distance)
		}
	}
}

func TestGraphNearOrthogonalScenario(t *testing.T) {
	g := NewGraph(3, 3, DefaultParams)

	// Three roughly orthonormal unit vectors; id 3 leans slightly
	// toward id 2.
	g.Add(1, []float32{1, 0, 0})
	g.Add(2, []float32{0, 1, 0})
	g.Add(3, embeddingNormalized(0.1, 0.2, 1))

	matches, err := g.Search([]float32{0, 1, 0}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].ID != 2 {
		t.Errorf("first match = %d, want 2", matches[0].ID)
	}
	// Of {1, 3}, id 3 has the smaller cosine distance to id 2's vector.
	if matches[1].ID != 3 {
		t.Errorf("second match = %d, want 3", matches[1].ID)
	}
}

func TestGraphDistancesNonDecreasing(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g := NewGraph(8, 50, DefaultParams)

	for id := int64(1); id <= 50; id++ {
		if err := g.Add(id, randomUnitVector(rng, 8)); err != nil {
			t.Fatalf("Add(%d) failed: %v", id, err)
		}
	}

	q := randomUnitVector(rng, 8)
	matches, err := g.Search(q, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 10 {
		t.Fatalf("got %d matches, want 10", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Distance < matches[i-1].Distance {
			t.Errorf("distances out of order at %d: %f < %f",
				i, matches[i].Distance, matches[i-1].Distance)
		}
	}
}

// With the element count at or below the search beam width the beam
// search is exhaustive, so results must agree with brute force exactly.
func TestGraphMatchesBruteForceWithinBeam(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	const n = 50 // DefaultParams.Ef = 50

	g := NewGraph(8, n, DefaultParams)
	vectors := make(map[int64][]float32, n)
	for id := int64(1); id <= n; id++ {
		v := randomUnitVector(rng, 8)
		vectors[id] = v
		if err := g.Add(id, v); err != nil {
			t.Fatalf("Add(%d) failed: %v", id, err)
		}
	}

	for trial := 0; trial < 5; trial++ {
		q := randomUnitVector(rng, 8)

		want := bruteForce(vectors, q, 5)
		got, err := g.Search(q, 5)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("got %d matches, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i].ID != want[i].ID {
				t.Errorf("trial %d rank %d: id = %d, want %d", trial, i, got[i].ID, want[i].ID)
			}
		}
	}
}

func TestGraphCapacity(t *testing.T) {
	g := NewGraph(2, 2, DefaultParams)

	if err := g.Add(1, []float32{1, 0}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := g.Add(2, []float32{0, 1}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	err := g.Add(3, []float32{1, 1})
	if err == nil {
		t.Fatal("expected error past capacity")
	}
}

func TestGraphAddErrors(t *testing.T) {
	g := NewGraph(3, 10, DefaultParams)

	if err := g.Add(1, []float32{1, 0}); err == nil {
		t.Error("expected dimension mismatch error")
	}

	g.Add(1, []float32{1, 0, 0})
	if err := g.Add(1, []float32{0, 1, 0}); err == nil {
		t.Error("expected duplicate id error")
	}
}

func TestGraphSearchEmpty(t *testing.T) {
	g := NewGraph(3, 10, DefaultParams)
	matches, err := g.Search([]float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("got %d matches from empty graph", len(matches))
	}
}

func embeddingNormalized(xs ...float32) []float32 {
	var sum float64
	for _, x := range xs {
		sum += float64(x) * float64(x)
	}
	inv := float32(1 / math.Sqrt(sum))
	out := make([]float32, len(xs))
	for i, x := range xs {
		out[i] = x * inv
	}
	return out
}

func randomUnitVector(rng *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(rng.NormFloat64())
	}
	return embeddingNormalized(v...)
}

func bruteForce(vectors map[int64][]float32, q []float32, k int) []Match {
	out := make([]Match, 0, len(vectors))
	for id, v := range vectors {
		out = append(out, Match{ID: id, Distance: cosineDistance(q, v)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].ID < out[j].ID
	})
	if k < len(out) {
		out = out[:k]
	}
	return out
}
