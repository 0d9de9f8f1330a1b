package chromasearch

import (
	"github.com/pkg/errors"

	"github.com/kailas-cloud/chromasearch/embeddings"
)

// MetadataCodec converts metadata values between their typed form and their
// wire encoding. Responses pass every metadata value through Decode, so a
// custom codec can reconstruct application types without SearchResult
// knowing about their format.
type MetadataCodec interface {
	// Encode converts a typed metadata value to its JSON-compatible form.
	Encode(value any) (any, error)
	// Decode reconstructs a typed value from its wire form.
	Decode(value any) (any, error)
}

// DefaultMetadataCodec handles sparse-vector-valued metadata fields, which
// arrive as {"indices": [...], "values": [...]} objects, and passes every
// other value through unchanged.
func DefaultMetadataCodec() MetadataCodec { return sparseVectorCodec{} }

type sparseVectorCodec struct{}

func (sparseVectorCodec) Encode(value any) (any, error) {
	if sv, ok := value.(*embeddings.SparseVector); ok {
		if sv == nil {
			return nil, errors.Wrap(ErrInvalidArgument, "nil sparse vector in metadata")
		}
		return sv.Payload(), nil
	}
	return value, nil
}

func (sparseVectorCodec) Decode(value any) (any, error) {
	m, ok := value.(map[string]any)
	if !ok {
		return value, nil
	}
	rawIndices, hasIndices := m["indices"]
	rawValues, hasValues := m["values"]
	if !hasIndices || !hasValues || len(m) != 2 {
		return value, nil
	}
	indices, ok := intSlice(rawIndices)
	if !ok {
		return value, nil
	}
	values, ok := floatSlice(rawValues)
	if !ok {
		return value, nil
	}
	sv, err := embeddings.NewSparseVector(indices, values)
	if err != nil {
		return nil, errors.WithMessage(err, "decode sparse vector metadata")
	}
	return sv, nil
}

func intSlice(value any) ([]int, bool) {
	items, ok := value.([]any)
	if !ok {
		return nil, false
	}
	out := make([]int, len(items))
	for i, item := range items {
		n, err := intField(item)
		if err != nil {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}

func floatSlice(value any) ([]float32, bool) {
	items, ok := value.([]any)
	if !ok {
		return nil, false
	}
	out := make([]float32, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case float64:
			out[i] = float32(v)
		case int:
			out[i] = float32(v)
		default:
			return nil, false
		}
	}
	return out, true
}
