package chromasearch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func jsonString(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

func TestSearchEmptyPayload(t *testing.T) {
	s, err := NewSearch()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	require.JSONEq(t,
		`{"limit":{"offset":0},"select":{"keys":[]}}`,
		jsonString(t, s),
	)

	payload := s.Payload()
	for _, field := range []string{"filter", "rank", "group_by"} {
		if _, present := payload[field]; present {
			t.Errorf("%s must be omitted when absent, not null", field)
		}
	}
}

func TestSearchFullPayload(t *testing.T) {
	filter := mustWhere(t)(K("type").Eq("doc"))
	knn := mustRank(t)(Knn(
		KnnQueryVector([]float32{0.1, 0.2}),
		WithKnnLimit(5),
	))
	limit, err := NewLimit(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s, err := NewSearch()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s = s.Where(filter).Rank(knn).Limit(limit).SelectAll()

	require.JSONEq(t, `{
		"limit": {"offset": 0, "limit": 5},
		"select": {"keys": ["#document","#embedding","#metadata","#score"]},
		"filter": {"type": {"$eq": "doc"}},
		"rank": {"$knn": {"query": [0.1,0.2], "key": "#embedding", "limit": 5}}
	}`, jsonString(t, s))
}

func TestSearchWithGroupBy(t *testing.T) {
	agg, _ := MinK(2, KScore)
	grouping, err := NewGroupBy(agg, K("category"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s, _ := NewSearch()
	s = s.GroupBy(grouping).Select(KDocument)

	require.JSONEq(t, `{
		"limit": {"offset": 0},
		"select": {"keys": ["#document"]},
		"group_by": {
			"keys": ["category"],
			"aggregate": {"$min_k": {"keys": ["#score"], "k": 2}}
		}
	}`, jsonString(t, s))
}

func TestSearchBuildersAreCopyOnWrite(t *testing.T) {
	base, _ := NewSearch()
	baseJSON := jsonString(t, base)

	derivedA := base.Where(mustWhere(t)(K("a").Eq(1))).Select(KDocument)
	derivedB := base.Where(mustWhere(t)(K("b").Eq(2)))

	if got := jsonString(t, base); got != baseJSON {
		t.Errorf("base mutated: %s", got)
	}
	require.JSONEq(t, `{
		"limit": {"offset": 0},
		"select": {"keys": ["#document"]},
		"filter": {"a": {"$eq": 1}}
	}`, jsonString(t, derivedA))
	require.JSONEq(t, `{
		"limit": {"offset": 0},
		"select": {"keys": []},
		"filter": {"b": {"$eq": 2}}
	}`, jsonString(t, derivedB))
}

func TestSearchSelectFrom(t *testing.T) {
	sel, err := ParseSelect([]string{"#score", "tag"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, _ := NewSearch()
	s = s.SelectFrom(sel)
	require.JSONEq(t,
		`{"limit":{"offset":0},"select":{"keys":["#score","tag"]}}`,
		jsonString(t, s),
	)
}

func TestNewSearchOptions(t *testing.T) {
	knn := mustRank(t)(Knn(KnnQueryText("hello"), WithKnnLimit(3)))
	s, err := NewSearch(
		WithWhere(map[string]any{"type": "doc"}),
		WithRank(knn),
		WithLimit(10),
		WithSelect([]Key{KDocument, KScore}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	require.JSONEq(t, `{
		"limit": {"offset": 0, "limit": 10},
		"select": {"keys": ["#document","#score"]},
		"filter": {"type": {"$eq": "doc"}},
		"rank": {"$knn": {"query": "hello", "key": "#embedding", "limit": 3}}
	}`, jsonString(t, s))
}

func TestNewSearchOptionErrors(t *testing.T) {
	tests := []struct {
		name string
		opt  SearchOption
	}{
		{"bad where", WithWhere(42)},
		{"bad limit", WithLimit(0)},
		{"bad select", WithSelect(42)},
		{"bad group by", WithGroupBy(map[string]any{"keys": []any{"a"}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSearch(tt.opt); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
