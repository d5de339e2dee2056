package driven

import (
	"github.com/custodia-labs/overlap-core/internal/core/domain"
)

// SearchHit is one ranked result from a vector index query
type SearchHit struct {
	VectorID int64
	Score    float64
	Record   domain.VectorRecord
}

// VectorIndex stores embedding vectors with per-vector metadata and
// answers nearest-neighbour queries over them. Implementations must be
// safe for concurrent readers with serialized writers.
type VectorIndex interface {
	// Add appends vectors with their metadata records and returns the
	// assigned vector IDs. IDs are monotonically increasing and never
	// reused, even after removals.
	Add(vectors [][]float32, records []domain.VectorRecord) ([]int64, error)

	// Search returns up to k hits ordered by descending score. When a
	// predicate is given, candidates failing it are filtered out after
	// scoring; implementations widen the raw candidate set to
	// compensate. Hits without live metadata are excluded.
	Search(query []float32, k int, predicate func(domain.VectorRecord) bool) ([]SearchHit, error)

	// RemoveBySource logically deletes all vectors belonging to the
	// source and returns how many were removed.
	RemoveBySource(sourceID string) int

	// Size returns the number of live (not removed) vectors
	Size() int

	// Save persists the index to its configured location
	Save() error

	// Load restores the index from its configured location. A missing
	// persisted state is not an error; the index starts empty.
	Load() error
}
