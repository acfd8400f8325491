package semantic

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Errors returned by semantic index operations.
var (
	ErrIndexNotFound      = errors.New("semantic index not found")
	ErrPaperNotIndexed    = errors.New("paper not in semantic index")
	ErrUnsupportedVersion = errors.New("unsupported index version")
	ErrIndexFull          = errors.New("semantic index at capacity")
	ErrDimensionMismatch  = errors.New("vector dimension mismatch")
)

const (
	// IndexFileName is the name of the persisted index blob.
	IndexFileName = "index.gob"

	// CurrentIndexVersion is the format version for compatibility checking.
	// Increment this when making breaking changes to the index format.
	CurrentIndexVersion = 1
)

// Index is the similarity index: an HNSW graph over paper embeddings
// plus build metadata. It is built once in bulk, persisted as a single
// blob, and loaded read-only by serving processes.
type Index struct {
	Version         int
	ModelName       string
	Dimensions      int
	CreatedAt       time.Time
	PaperCount      int
	SkippedCount    int
	BuildDurationMs int64

	graph *Graph
}

// NewIndex creates an empty index with a declared capacity.
func NewIndex(modelName string, dimensions, capacity int, params Params) *Index {
	return &Index{
		Version:    CurrentIndexVersion,
		ModelName:  modelName,
		Dimensions: dimensions,
		CreatedAt:  time.Now(),
		graph:      NewGraph(dimensions, capacity, params),
	}
}

// Add inserts a paper embedding.
func (idx *Index) Add(paperID int64, vector []float32) error {
	if err := idx.graph.Add(paperID, vector); err != nil {
		return err
	}
	idx.PaperCount = idx.graph.Len()
	return nil
}

// HasPaper checks if a paper is in the index.
func (idx *Index) HasPaper(paperID int64) bool {
	_, ok := idx.graph.Vector(paperID)
	return ok
}

// SearchVector returns the k papers nearest to the query vector, by
// ascending cosine distance.
func (idx *Index) SearchVector(query []float32, k int) ([]Match, error) {
	return idx.graph.Search(query, k)
}

// SearchByID returns the k papers nearest to an already-indexed paper,
// excluding the paper itself. The stored vector is looked up by id, not
// recomputed; an absent id is an error, never a silent empty result.
func (idx *Index) SearchByID(paperID int64, k int) ([]Match, error) {
	vector, ok := idx.graph.Vector(paperID)
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrPaperNotIndexed, paperID)
	}

	matches, err := idx.graph.Search(vector, k+1)
	if err != nil {
		return nil, err
	}

	out := make([]Match, 0, k)
	for _, m := range matches {
		if m.ID == paperID {
			continue
		}
		out = append(out, m)
		if len(out) == k {
			break
		}
	}
	return out, nil
}

// indexFile is the on-disk shape of a persisted index.
type indexFile struct {
	Version         int
	ModelName       string
	Dimensions      int
	CreatedAt       time.Time
	PaperCount      int
	SkippedCount    int
	BuildDurationMs int64

	Capacity int
	Params   Params
	Entry    int32
	MaxLevel int
	Nodes    []nodeFile
}

type nodeFile struct {
	ID        int64
	Vector    []float32
	Neighbors [][]int32
}

// IndexPath returns the path of the index blob under dataDir.
func IndexPath(dataDir string) string {
	return filepath.Join(dataDir, IndexFileName)
}

// Save persists the index to a single file under dataDir, writing to a
// temp file first and renaming for atomicity.
func (idx *Index) Save(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	indexPath := IndexPath(dataDir)
	tempPath := indexPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	file := indexFile{
		Version:         idx.Version,
		ModelName:       idx.ModelName,
		Dimensions:      idx.Dimensions,
		CreatedAt:       idx.CreatedAt,
		PaperCount:      idx.PaperCount,
		SkippedCount:    idx.SkippedCount,
		BuildDurationMs: idx.BuildDurationMs,
		Capacity:        idx.graph.capacity,
		Params:          idx.graph.params,
		Entry:           idx.graph.entry,
		MaxLevel:        idx.graph.maxLevel,
		Nodes:           make([]nodeFile, len(idx.graph.nodes)),
	}
	for i, n := range idx.graph.nodes {
		file.Nodes[i] = nodeFile{ID: n.id, Vector: n.vector, Neighbors: n.neighbors}
	}

	enc := gob.NewEncoder(f)
	if err := enc.Encode(file); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("encoding index: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing file: %w", err)
	}

	if err := os.Rename(tempPath, indexPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// Load reads a persisted index from dataDir.
// Returns ErrUnsupportedVersion for an incompatible format.
func Load(dataDir string) (*Index, error) {
	f, err := os.Open(IndexPath(dataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrIndexNotFound
		}
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()

	var file indexFile
	dec := gob.NewDecoder(f)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decoding index: %w", err)
	}

	if file.Version != CurrentIndexVersion {
		return nil, fmt.Errorf("%w: got %d, want %d (rebuild with 'paperdock index build')",
			ErrUnsupportedVersion, file.Version, CurrentIndexVersion)
	}

	g := NewGraph(file.Dimensions, file.Capacity, file.Params)
	g.entry = file.Entry
	g.maxLevel = file.MaxLevel
	g.nodes = make([]node, len(file.Nodes))
	for i, n := range file.Nodes {
		g.nodes[i] = node{id: n.ID, vector: n.Vector, neighbors: n.Neighbors}
		g.byID[n.ID] = int32(i)
	}

	return &Index{
		Version:         file.Version,
		ModelName:       file.ModelName,
		Dimensions:      file.Dimensions,
		CreatedAt:       file.CreatedAt,
		PaperCount:      file.PaperCount,
		SkippedCount:    file.SkippedCount,
		BuildDurationMs: file.BuildDurationMs,
		graph:           g,
	}, nil
}

// IndexSize returns the size of the index file in bytes.
func IndexSize(dataDir string) (int64, error) {
	info, err := os.Stat(IndexPath(dataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrIndexNotFound
		}
		return 0, err
	}
	return info.Size(), nil
}

// Exists checks if an index file is present under dataDir.
func Exists(dataDir string) bool {
	_, err := os.Stat(IndexPath(dataDir))
	return err == nil
}
