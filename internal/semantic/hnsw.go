// Package semantic provides the approximate nearest-neighbor index over
// paper abstract embeddings.
package semantic

import (
	"container/heap"
	"fmt"
	"math"
	"math/rand"
)

// Params are the accuracy/speed trade-off knobs of the graph. They are
// fixed configuration constants tuned empirically, not derived from the
// data size.
type Params struct {
	// M is the graph connectivity: outgoing links per node per layer
	// (doubled on the ground layer).
	M int

	// EfConstruction is the candidate list breadth during insertion.
	EfConstruction int

	// Ef is the default candidate list breadth during search. It must
	// exceed k; Search widens it to k when a larger k is requested.
	Ef int
}

// DefaultParams matches the values the index has been tuned with.
var DefaultParams = Params{M: 16, EfConstruction: 200, Ef: 50}

// Match is one nearest-neighbor result: a paper id and its cosine
// distance from the query (smaller is closer).
type Match struct {
	ID       int64
	Distance float32
}

// node is one element of the graph. Neighbors holds adjacency lists per
// layer, as indices into Graph.nodes.
type node struct {
	id        int64
	vector    []float32
	neighbors [][]int32
}

// Graph is a hierarchical navigable small world graph over cosine
// distance. Capacity is declared upfront; the graph never grows past it.
// It is not safe for concurrent mutation, but once construction is done
// any number of readers may search it concurrently.
type Graph struct {
	dim      int
	capacity int
	params   Params

	nodes    []node
	byID     map[int64]int32
	entry    int32
	maxLevel int

	levelMul float64
	rng      *rand.Rand
}

// NewGraph creates an empty graph with a fixed capacity and dimensionality.
func NewGraph(dim, capacity int, params Params) *Graph {
	if params.M <= 0 {
		params = DefaultParams
	}
	return &Graph{
		dim:      dim,
		capacity: capacity,
		params:   params,
		nodes:    make([]node, 0, capacity),
		byID:     make(map[int64]int32, capacity),
		entry:    -1,
		maxLevel: -1,
		levelMul: 1 / math.Log(float64(params.M)),
		rng:      rand.New(rand.NewSource(42)),
	}
}

// Len returns the number of stored elements.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Dimensions returns the vector dimensionality.
func (g *Graph) Dimensions() int {
	return g.dim
}

// Capacity returns the declared maximum element count.
func (g *Graph) Capacity() int {
	return g.capacity
}

// Vector returns the stored vector for id.
func (g *Graph) Vector(id int64) ([]float32, bool) {
	idx, ok := g.byID[id]
	if !ok {
		return nil, false
	}
	return g.nodes[idx].vector, true
}

// cosineDistance is 1 minus the cosine similarity of a and b.
func cosineDistance(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 1
	}
	return float32(1 - dot/denom)
}

// randomLevel draws a layer for a new element from the standard
// exponentially decaying distribution.
func (g *Graph) randomLevel() int {
	return int(-math.Log(g.rng.Float64()) * g.levelMul)
}

// maxNeighbors is the link cap per node at a layer; the ground layer
// holds twice as many.
func (g *Graph) maxNeighbors(level int) int {
	if level == 0 {
		return 2 * g.params.M
	}
	return g.params.M
}

// Add inserts an element. It returns an error when the graph is at
// capacity, the vector has the wrong dimensionality, or the id is
// already present.
func (g *Graph) Add(id int64, vector []float32) error {
	if len(g.nodes) >= g.capacity {
		return fmt.Errorf("%w: capacity %d", ErrIndexFull, g.capacity)
	}
	if len(vector) != g.dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), g.dim)
	}
	if _, exists := g.byID[id]; exists {
		return fmt.Errorf("id %d already in index", id)
	}

	level := g.randomLevel()
	idx := int32(len(g.nodes))
	g.nodes = append(g.nodes, node{
		id:        id,
		vector:    vector,
		neighbors: make([][]int32, level+1),
	})
	g.byID[id] = idx

	if g.entry < 0 {
		g.entry = idx
		g.maxLevel = level
		return nil
	}

	cur := g.entry
	curDist := cosineDistance(vector, g.nodes[cur].vector)

	// Greedy descent through layers above the new element's level.
	for l := g.maxLevel; l > level; l-- {
		cur, curDist = g.greedyStep(vector, cur, curDist, l)
	}

	// Link into every layer the element participates in.
	top := level
	if top > g.maxLevel {
		top = g.maxLevel
	}
	for l := top; l >= 0; l-- {
		found := g.searchLayer(vector, cur, g.params.EfConstruction, l)

		m := g.params.M
		if m > len(found) {
			m = len(found)
		}
		for _, c := range found[:m] {
			g.link(idx, c.idx, l)
			g.link(c.idx, idx, l)
		}

		cur = found[0].idx
	}

	if level > g.maxLevel {
		g.maxLevel = level
		g.entry = idx
	}

	return nil
}

// greedyStep moves to the closest neighbor at the given layer until no
// neighbor improves on the current distance.
func (g *Graph) greedyStep(q []float32, cur int32, curDist float32, level int) (int32, float32) {
	for {
		improved := false
		for _, n := range g.neighborsAt(cur, level) {
			d := cosineDistance(q, g.nodes[n].vector)
			if d < curDist {
				cur, curDist = n, d
				improved = true
			}
		}
		if !improved {
			return cur, curDist
		}
	}
}

// neighborsAt returns the adjacency list of idx at level, or nil when
// the node does not reach that layer.
func (g *Graph) neighborsAt(idx int32, level int) []int32 {
	nb := g.nodes[idx].neighbors
	if level >= len(nb) {
		return nil
	}
	return nb[level]
}

// link adds dst to src's adjacency at level, pruning to the layer's
// link cap by distance when the list overflows.
func (g *Graph) link(src, dst int32, level int) {
	if src == dst {
		return
	}
	nb := g.nodes[src].neighbors[level]
	for _, n := range nb {
		if n == dst {
			return
		}
	}
	nb = append(nb, dst)

	if max := g.maxNeighbors(level); len(nb) > max {
		// Keep the closest links.
		from := g.nodes[src].vector
		best, bestDist := 0, float32(0)
		for i, n := range nb {
			d := cosineDistance(from, g.nodes[n].vector)
			if i == 0 || d > bestDist {
				best, bestDist = i, d
			}
		}
		nb[best] = nb[len(nb)-1]
		nb = nb[:len(nb)-1]
	}

	g.nodes[src].neighbors[level] = nb
}

// candidate pairs an internal node index with its distance to the query.
type candidate struct {
	idx  int32
	dist float32
}

// minHeap pops the closest candidate first.
type minHeap []candidate

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return h[i].dist < h[j].dist }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(candidate)) }

func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// maxHeap pops the farthest candidate first.
type maxHeap []candidate

func (h maxHeap) Len() int           { return len(h) }
func (h maxHeap) Less(i, j int) bool { return h[i].dist > h[j].dist }
func (h maxHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x any)        { *h = append(*h, x.(candidate)) }

func (h *maxHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// searchLayer runs the beam search at one layer, returning up to ef
// candidates sorted by ascending distance.
func (g *Graph) searchLayer(q []float32, entry int32, ef, level int) []candidate {
	visited := map[int32]bool{entry: true}

	start := candidate{entry, cosineDistance(q, g.nodes[entry].vector)}
	cands := minHeap{start}
	results := maxHeap{start}

	for cands.Len() > 0 {
		c := heap.Pop(&cands).(candidate)
		if c.dist > results[0].dist && results.Len() >= ef {
			break
		}

		for _, n := range g.neighborsAt(c.idx, level) {
			if visited[n] {
				continue
			}
			visited[n] = true

			d := cosineDistance(q, g.nodes[n].vector)
			if results.Len() < ef || d < results[0].dist {
				heap.Push(&cands, candidate{n, d})
				heap.Push(&results, candidate{n, d})
				if results.Len() > ef {
					heap.Pop(&results)
				}
			}
		}
	}

	// Drain the max-heap into ascending order.
	out := make([]candidate, results.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&results).(candidate)
	}
	return out
}

// Search returns the k elements nearest to q by cosine distance,
// ascending. The beam width is max(Ef, k).
func (g *Graph) Search(q []float32, k int) ([]Match, error) {
	if len(q) != g.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(q), g.dim)
	}
	if g.entry < 0 || k <= 0 {
		return nil, nil
	}

	cur := g.entry
	curDist := cosineDistance(q, g.nodes[cur].vector)
	for l := g.maxLevel; l > 0; l-- {
		cur, curDist = g.greedyStep(q, cur, curDist, l)
	}

	ef := g.params.Ef
	if ef < k {
		ef = k
	}
	found := g.searchLayer(q, cur, ef, 0)

	if k > len(found) {
		k = len(found)
	}
	matches := make([]Match, k)
	for i := 0; i < k; i++ {
		matches[i] = Match{ID: g.nodes[found[i].idx].id, Distance: found[i].dist}
	}
	return matches, nil
}
