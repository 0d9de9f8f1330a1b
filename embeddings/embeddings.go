// Package embeddings provides the vector value types used by the search DSL
// and the embedding-function contracts for pluggable providers.
package embeddings

import (
	"context"
	"math"

	"github.com/pkg/errors"
)

// Embedding is a dense query vector.
type Embedding []float32

// NewEmbedding validates and copies a dense vector.
// All components must be finite; the input slice is never aliased.
func NewEmbedding(values []float32) (Embedding, error) {
	if len(values) == 0 {
		return nil, errors.New("embedding requires at least one component")
	}
	out := make(Embedding, len(values))
	for i, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errors.Errorf("embedding component %d is not finite", i)
		}
		out[i] = v
	}
	return out, nil
}

// Clone returns an independent copy of the embedding.
func (e Embedding) Clone() Embedding {
	if e == nil {
		return nil
	}
	out := make(Embedding, len(e))
	copy(out, e)
	return out
}

// SparseVector is a sparse query vector as paired index/value lists.
type SparseVector struct {
	indices []int
	values  []float32
}

// NewSparseVector validates and creates a sparse vector.
// Indices must be non-negative and strictly increasing; values must be finite
// and match the indices in length. Both slices are copied.
func NewSparseVector(indices []int, values []float32) (*SparseVector, error) {
	if len(indices) == 0 {
		return nil, errors.New("sparse vector requires at least one entry")
	}
	if len(indices) != len(values) {
		return nil, errors.Errorf(
			"sparse vector indices/values length mismatch: %d vs %d",
			len(indices), len(values),
		)
	}
	for i, idx := range indices {
		if idx < 0 {
			return nil, errors.Errorf("sparse vector index %d is negative", i)
		}
		if i > 0 && idx <= indices[i-1] {
			return nil, errors.Errorf("sparse vector indices must be strictly increasing at position %d", i)
		}
	}
	for i, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errors.Errorf("sparse vector value %d is not finite", i)
		}
	}
	sv := &SparseVector{
		indices: make([]int, len(indices)),
		values:  make([]float32, len(values)),
	}
	copy(sv.indices, indices)
	copy(sv.values, values)
	return sv, nil
}

// Indices returns a copy of the index list.
func (s *SparseVector) Indices() []int {
	out := make([]int, len(s.indices))
	copy(out, s.indices)
	return out
}

// Values returns a copy of the value list.
func (s *SparseVector) Values() []float32 {
	out := make([]float32, len(s.values))
	copy(out, s.values)
	return out
}

// Len returns the number of non-zero entries.
func (s *SparseVector) Len() int { return len(s.indices) }

// Payload returns the wire representation {"indices": [...], "values": [...]}.
func (s *SparseVector) Payload() map[string]any {
	return map[string]any{
		"indices": s.Indices(),
		"values":  s.Values(),
	}
}

// EmbeddingFunction converts text into dense vectors.
// Implementations live in provider subpackages (e.g. embeddings/openai).
type EmbeddingFunction interface {
	// Name identifies the provider for schema round-trips.
	Name() string
	Embed(ctx context.Context, text string) (Embedding, error)
	EmbedBatch(ctx context.Context, texts []string) ([]Embedding, error)
}

// SparseEmbeddingFunction converts text into sparse vectors.
type SparseEmbeddingFunction interface {
	Name() string
	EmbedSparse(ctx context.Context, text string) (*SparseVector, error)
}
