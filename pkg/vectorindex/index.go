// Package vectorindex keeps one embedding per product in memory and answers
// top-k cosine similarity queries.
//
// Similarity is plain cosine similarity clamped to [0,1]: negative cosine is
// reported as 0 and zero-norm vectors never match. This is the same scale as
// pgvector's `1 - (a <=> b)`, which is what the context (0.5) and suggestion
// (0.7) thresholds are calibrated against.
package vectorindex

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"swift-ai-market/pkg/apperr"

	"github.com/viterin/vek/vek32"
)

// Result is a single ranked hit. It is never persisted.
type Result struct {
	ProductId  int64   `json:"product_id"`
	Similarity float64 `json:"similarity"`
}

type entry struct {
	vector []float32
	norm   float64
}

// Index is safe for concurrent use. Upsert replaces a product's entry in one
// step, so readers observe either the old or the new vector, never a mix.
type Index struct {
	mu      sync.RWMutex
	dim     int
	entries map[int64]entry
}

func New() *Index {
	return &Index{entries: make(map[int64]entry)}
}

// NewWithDimension pre-fixes D instead of taking it from the first upsert.
func NewWithDimension(dim int) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", apperr.ErrDimensionMismatch, dim)
	}
	idx := New()
	idx.dim = dim
	return idx, nil
}

// Dimension returns D, or 0 while the index has never accepted a vector.
func (x *Index) Dimension() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dim
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Upsert stores a private copy of vector for productId. The first successful
// upsert fixes D for the lifetime of the index.
func (x *Index) Upsert(productId int64, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector for product %d", apperr.ErrDimensionMismatch, productId)
	}
	if !finite(vector) {
		return fmt.Errorf("%w: non-finite component in vector for product %d", apperr.ErrInvalidInput, productId)
	}

	cp := make([]float32, len(vector))
	copy(cp, vector)
	e := entry{vector: cp, norm: norm(cp)}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.dim == 0 {
		x.dim = len(cp)
	} else if len(cp) != x.dim {
		return fmt.Errorf("%w: got %d, index dimension is %d", apperr.ErrDimensionMismatch, len(cp), x.dim)
	}
	x.entries[productId] = e
	return nil
}

// Remove drops productId from the index. Unknown ids are ignored.
func (x *Index) Remove(productId int64) {
	x.mu.Lock()
	delete(x.entries, productId)
	x.mu.Unlock()
}

// Search returns up to k results with similarity >= minSimilarity, ordered by
// similarity descending and then product id ascending.
func (x *Index) Search(query []float32, k int, minSimilarity float64) ([]Result, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.entries) == 0 {
		return []Result{}, nil
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has %d, index dimension is %d", apperr.ErrDimensionMismatch, len(query), x.dim)
	}
	if !finite(query) {
		return nil, fmt.Errorf("%w: non-finite component in query vector", apperr.ErrInvalidInput)
	}
	if k <= 0 {
		return []Result{}, nil
	}

	qNorm := norm(query)
	results := make([]Result, 0, min(k, len(x.entries)))
	for id, e := range x.entries {
		sim := cosine(query, qNorm, e)
		if sim < minSimilarity {
			continue
		}
		results = append(results, Result{ProductId: id, Similarity: sim})
	}

	SortResults(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// SortResults applies the index ordering in place: similarity descending,
// product id ascending on ties.
func SortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ProductId < results[j].ProductId
	})
}

func cosine(query []float32, qNorm float64, e entry) float64 {
	if qNorm == 0 || e.norm == 0 {
		return 0
	}
	sim := float64(vek32.Dot(query, e.vector)) / (qNorm * e.norm)
	switch {
	case math.IsNaN(sim), sim < 0:
		return 0
	case sim > 1:
		return 1
	}
	return sim
}

func finite(v []float32) bool {
	for _, c := range v {
		if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
			return false
		}
	}
	return true
}

func norm(v []float32) float64 {
	return math.Sqrt(float64(vek32.Dot(v, v)))
}
