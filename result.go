package chromasearch

import (
	"github.com/pkg/errors"

	"github.com/kailas-cloud/chromasearch/embeddings"
)

// SearchResponse is the columnar wire response. All arrays are indexed
// [query][row]. A nil top-level array means the field was not selected for
// any query; a nil per-query entry means it was not selected for that query;
// a nil per-row value means the field is absent for that row. Inner arrays
// may be shorter than the id list for the same query.
type SearchResponse struct {
	IDs        [][]string                 `json:"ids"`
	Documents  [][]*string                `json:"documents,omitempty"`
	Embeddings [][]embeddings.Embedding   `json:"embeddings,omitempty"`
	Metadatas  [][]map[string]any         `json:"metadatas,omitempty"`
	Scores     [][]*float64               `json:"scores,omitempty"`
	Select     []string                   `json:"select,omitempty"`
}

// Row is one search hit in row-major form. Optional fields are nil when the
// server did not return them for this row; callers branch on presence.
type Row struct {
	ID        string               `json:"id"`
	Document  *string              `json:"document,omitempty"`
	Embedding embeddings.Embedding `json:"embedding,omitempty"`
	Metadata  map[string]any       `json:"metadata,omitempty"`
	Score     *float64             `json:"score,omitempty"`
}

// SearchResult wraps a SearchResponse for row-major iteration. Metadata
// values are decoded once at construction through the configured codec.
type SearchResult struct {
	resp SearchResponse
}

// ResultOption configures result construction.
type ResultOption func(*resultConfig)

type resultConfig struct {
	codec MetadataCodec
}

// WithMetadataCodec overrides the codec used to decode metadata values.
func WithMetadataCodec(codec MetadataCodec) ResultOption {
	return func(c *resultConfig) { c.codec = codec }
}

// NewSearchResult builds a result from a wire response, decoding metadata
// values through the codec.
func NewSearchResult(resp SearchResponse, opts ...ResultOption) (*SearchResult, error) {
	cfg := resultConfig{codec: DefaultMetadataCodec()}
	for _, opt := range opts {
		opt(&cfg)
	}
	decoded, err := decodeMetadatas(resp.Metadatas, cfg.codec)
	if err != nil {
		return nil, err
	}
	resp.Metadatas = decoded
	return &SearchResult{resp: resp}, nil
}

func decodeMetadatas(metadatas [][]map[string]any, codec MetadataCodec) ([][]map[string]any, error) {
	if metadatas == nil || codec == nil {
		return metadatas, nil
	}
	out := make([][]map[string]any, len(metadatas))
	for qi, rows := range metadatas {
		if rows == nil {
			continue
		}
		out[qi] = make([]map[string]any, len(rows))
		for ri, md := range rows {
			if md == nil {
				continue
			}
			decoded := make(map[string]any, len(md))
			for field, value := range md {
				v, err := codec.Decode(value)
				if err != nil {
					return nil, errors.WithMessagef(err, "metadata field %q (query %d, row %d)", field, qi, ri)
				}
				decoded[field] = v
			}
			out[qi][ri] = decoded
		}
	}
	return out, nil
}

// Response returns the decoded columnar response.
func (r *SearchResult) Response() SearchResponse { return r.resp }

// Len returns the number of queries in the result.
func (r *SearchResult) Len() int { return len(r.resp.IDs) }

// Rows materializes one row slice per query. Every id yields a row; inner
// arrays shorter than the id list pad the remaining rows with absent fields
// instead of failing.
func (r *SearchResult) Rows() [][]Row {
	out := make([][]Row, len(r.resp.IDs))
	for qi, ids := range r.resp.IDs {
		rows := make([]Row, len(ids))
		for ri, id := range ids {
			row := Row{ID: id}
			if doc, ok := at(r.resp.Documents, qi, ri); ok {
				row.Document = doc
			}
			if emb, ok := at(r.resp.Embeddings, qi, ri); ok {
				row.Embedding = emb
			}
			if md, ok := at(r.resp.Metadatas, qi, ri); ok {
				row.Metadata = md
			}
			if score, ok := at(r.resp.Scores, qi, ri); ok {
				row.Score = score
			}
			rows[ri] = row
		}
		out[qi] = rows
	}
	return out
}

// at reads column[qi][ri], treating missing queries, missing rows, and nil
// values uniformly as absent.
func at[T any](column [][]T, qi, ri int) (T, bool) {
	var zero T
	if qi >= len(column) || column[qi] == nil || ri >= len(column[qi]) {
		return zero, false
	}
	v := column[qi][ri]
	if isNilValue(v) {
		return zero, false
	}
	return v, true
}

func isNilValue(v any) bool {
	switch x := v.(type) {
	case *string:
		return x == nil
	case *float64:
		return x == nil
	case embeddings.Embedding:
		return x == nil
	case map[string]any:
		return x == nil
	default:
		return v == nil
	}
}
