// Package vectorindex provides a brute-force flat vector index with
// file persistence, used for the article and transcript corpora.
package vectorindex

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
	"github.com/custodia-labs/overlap-core/internal/core/ports/driven"
)

// Ensure FlatIndex implements VectorIndex
var _ driven.VectorIndex = (*FlatIndex)(nil)

// searchExpansion widens the raw candidate set when a predicate
// filters hits after scoring.
const searchExpansion = 3

// FlatIndex scores a query against every stored vector. Vectors are
// L2-normalized on insert so the inner product equals cosine
// similarity. Removal is logical: the metadata entry is deleted and
// the vector is skipped at query time, IDs are never reused.
type FlatIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
	ids       []int64
	metadata  map[int64]domain.VectorRecord
	nextID    int64

	vectorPath   string
	metadataPath string
	logger       *slog.Logger
}

// NewFlatIndex creates an index persisted under dir as <name>.vec and
// <name>.meta.json.
func NewFlatIndex(dir, name string, dimension int, logger *slog.Logger) *FlatIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &FlatIndex{
		dimension:    dimension,
		metadata:     make(map[int64]domain.VectorRecord),
		vectorPath:   filepath.Join(dir, name+".vec"),
		metadataPath: filepath.Join(dir, name+".meta.json"),
		logger:       logger.With("component", "vector_index", "index", name),
	}
}

// Add appends vectors with their metadata and returns assigned IDs
func (f *FlatIndex) Add(vectors [][]float32, records []domain.VectorRecord) ([]int64, error) {
	if len(vectors) != len(records) {
		return nil, fmt.Errorf("%w: %d vectors, %d records", domain.ErrInvalidInput, len(vectors), len(records))
	}
	for _, v := range vectors {
		if len(v) != f.dimension {
			return nil, fmt.Errorf("%w: got %d, index expects %d", domain.ErrDimensionMismatch, len(v), f.dimension)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	assigned := make([]int64, len(vectors))
	for i, v := range vectors {
		normalized := make([]float32, len(v))
		copy(normalized, v)
		domain.NormalizeL2(normalized)

		id := f.nextID
		f.nextID++
		f.vectors = append(f.vectors, normalized)
		f.ids = append(f.ids, id)
		f.metadata[id] = records[i]
		assigned[i] = id
	}
	return assigned, nil
}

// Search returns up to k hits ordered by descending score
func (f *FlatIndex) Search(query []float32, k int, predicate func(domain.VectorRecord) bool) ([]driven.SearchHit, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(query) != f.dimension {
		return nil, fmt.Errorf("%w: got %d, index expects %d", domain.ErrDimensionMismatch, len(query), f.dimension)
	}

	q := make([]float32, len(query))
	copy(q, query)
	domain.NormalizeL2(q)

	f.mu.RLock()
	defer f.mu.RUnlock()

	raw := k
	if predicate != nil {
		raw = k * searchExpansion
	}

	type scored struct {
		id    int64
		score float64
	}
	candidates := make([]scored, 0, len(f.vectors))
	for i, v := range f.vectors {
		id := f.ids[i]
		if _, ok := f.metadata[id]; !ok {
			continue
		}
		var dot float64
		for j := range v {
			dot += float64(v[j]) * float64(q[j])
		}
		score := (dot + 1) / 2
		if score < 0 {
			score = 0
		} else if score > 1 {
			score = 1
		}
		candidates = append(candidates, scored{id: id, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > raw {
		candidates = candidates[:raw]
	}

	hits := make([]driven.SearchHit, 0, k)
	for _, c := range candidates {
		record := f.metadata[c.id]
		if predicate != nil && !predicate(record) {
			continue
		}
		hits = append(hits, driven.SearchHit{VectorID: c.id, Score: c.score, Record: record})
		if len(hits) == k {
			break
		}
	}
	return hits, nil
}

// RemoveBySource logically deletes all vectors of a source
func (f *FlatIndex) RemoveBySource(sourceID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	removed := 0
	for id, record := range f.metadata {
		if record.SourceID == sourceID {
			delete(f.metadata, id)
			removed++
		}
	}
	return removed
}

// Size returns the number of live vectors
func (f *FlatIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.metadata)
}

type persistedVectors struct {
	Dimension int
	Vectors   [][]float32
	IDs       []int64
}

type persistedMetadata struct {
	NextID   int64                         `json:"next_id"`
	Metadata map[int64]domain.VectorRecord `json:"metadata"`
}

// Save writes the vectors and the metadata sidecar to disk
func (f *FlatIndex) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(f.vectorPath), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	vf, err := os.Create(f.vectorPath)
	if err != nil {
		return fmt.Errorf("writing vector file: %w", err)
	}
	defer vf.Close()
	if err := gob.NewEncoder(vf).Encode(persistedVectors{
		Dimension: f.dimension,
		Vectors:   f.vectors,
		IDs:       f.ids,
	}); err != nil {
		return fmt.Errorf("encoding vectors: %w", err)
	}

	meta, err := json.Marshal(persistedMetadata{NextID: f.nextID, Metadata: f.metadata})
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	if err := os.WriteFile(f.metadataPath, meta, 0o644); err != nil {
		return fmt.Errorf("writing metadata file: %w", err)
	}

	f.logger.Info("index saved", "vectors", len(f.vectors), "live", len(f.metadata))
	return nil
}

// Load restores the index from disk. Missing files leave the index
// empty without error.
func (f *FlatIndex) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	vf, err := os.Open(f.vectorPath)
	if os.IsNotExist(err) {
		f.logger.Info("no persisted index, starting empty")
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening vector file: %w", err)
	}
	defer vf.Close()

	var pv persistedVectors
	if err := gob.NewDecoder(vf).Decode(&pv); err != nil {
		return fmt.Errorf("decoding vectors: %w", err)
	}
	if pv.Dimension != f.dimension {
		return fmt.Errorf("%w: persisted %d, configured %d", domain.ErrDimensionMismatch, pv.Dimension, f.dimension)
	}

	meta, err := os.ReadFile(f.metadataPath)
	if os.IsNotExist(err) {
		f.logger.Warn("vector file present but metadata sidecar missing, starting empty")
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading metadata file: %w", err)
	}
	var pm persistedMetadata
	if err := json.Unmarshal(meta, &pm); err != nil {
		return fmt.Errorf("decoding metadata: %w", err)
	}

	f.vectors = pv.Vectors
	f.ids = pv.IDs
	f.nextID = pm.NextID
	f.metadata = pm.Metadata
	if f.metadata == nil {
		f.metadata = make(map[int64]domain.VectorRecord)
	}

	f.logger.Info("index loaded", "vectors", len(f.vectors), "live", len(f.metadata))
	return nil
}
