package chromasearch

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMinKMaxK(t *testing.T) {
	minK, err := MinK(3, KScore)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	require.JSONEq(t,
		`{"$min_k":{"keys":["#score"],"k":3}}`,
		jsonString(t, minK.Payload()),
	)

	maxK, err := MaxK(2, K("price"), K("rating"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	require.JSONEq(t,
		`{"$max_k":{"keys":["price","rating"],"k":2}}`,
		jsonString(t, maxK.Payload()),
	)
}

func TestAggregateValidation(t *testing.T) {
	if _, err := MinK(0, KScore); err == nil {
		t.Fatal("expected error for k = 0")
	}
	if _, err := MaxK(-1, KScore); err == nil {
		t.Fatal("expected error for negative k")
	}
	_, err := MinK(3)
	if err == nil {
		t.Fatal("expected error for no keys")
	}
	if !strings.Contains(err.Error(), "at least one key") {
		t.Errorf("error = %q", err)
	}
}

func TestNewGroupBy(t *testing.T) {
	agg, _ := MinK(1, KScore)
	g, err := NewGroupBy(agg, K("category"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.IsEmpty() {
		t.Error("IsEmpty() = true for populated group by")
	}
	require.JSONEq(t,
		`{"keys":["category"],"aggregate":{"$min_k":{"keys":["#score"],"k":1}}}`,
		jsonString(t, g.Payload()),
	)
}

func TestNewGroupByRequiresBothParts(t *testing.T) {
	agg, _ := MinK(1, KScore)

	_, err := NewGroupBy(Aggregate{}, K("category"))
	if err == nil {
		t.Fatal("expected error for missing aggregate")
	}
	if !strings.Contains(err.Error(), "requires an aggregate") {
		t.Errorf("error = %q", err)
	}

	_, err = NewGroupBy(agg)
	if err == nil {
		t.Fatal("expected error for missing keys")
	}
}

func TestGroupByZeroValue(t *testing.T) {
	var g GroupBy
	if !g.IsEmpty() {
		t.Error("zero value should be empty")
	}
}

func TestParseGroupBy(t *testing.T) {
	g, err := ParseGroupBy(map[string]any{
		"keys": []any{"category"},
		"aggregate": map[string]any{
			"$max_k": map[string]any{"keys": []any{"#score"}, "k": float64(2)},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	require.JSONEq(t,
		`{"keys":["category"],"aggregate":{"$max_k":{"keys":["#score"],"k":2}}}`,
		jsonString(t, g.Payload()),
	)
}

func TestParseGroupByNil(t *testing.T) {
	g, err := ParseGroupBy(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.IsEmpty() {
		t.Error("nil input should parse to the empty sentinel")
	}
}

func TestParseGroupByErrors(t *testing.T) {
	agg := map[string]any{"$min_k": map[string]any{"keys": []any{"a"}, "k": float64(1)}}
	tests := []struct {
		name     string
		input    any
		sentinel error
	}{
		{"not a map", 42, ErrInvalidType},
		{"keys only", map[string]any{"keys": []any{"a"}}, ErrMalformedExpression},
		{"aggregate only", map[string]any{"aggregate": agg}, ErrMalformedExpression},
		{"extra field", map[string]any{"keys": []any{"a"}, "aggregate": agg, "x": 1}, ErrMalformedExpression},
		{
			"unknown aggregate operator",
			map[string]any{"keys": []any{"a"}, "aggregate": map[string]any{"$avg": map[string]any{}}},
			ErrMalformedExpression,
		},
		{
			"two aggregate operators",
			map[string]any{"keys": []any{"a"}, "aggregate": map[string]any{
				"$min_k": map[string]any{"keys": []any{"a"}, "k": float64(1)},
				"$max_k": map[string]any{"keys": []any{"a"}, "k": float64(1)},
			}},
			ErrMalformedExpression,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGroupBy(tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("error = %v, want sentinel %v", err, tt.sentinel)
			}
		})
	}
}
