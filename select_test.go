package chromasearch

import (
	"errors"
	"reflect"
	"testing"
)

func selectNames(s Select) []string {
	return s.Payload()["keys"].([]string)
}

func TestNewSelectDeduplicates(t *testing.T) {
	s := NewSelect(KDocument, K("tag"), KDocument, K("tag"), KScore)
	want := []string{"#document", "tag", "#score"}
	if got := selectNames(s); !reflect.DeepEqual(got, want) {
		t.Errorf("keys = %v, want %v (first-seen order)", got, want)
	}
}

func TestSelectAll(t *testing.T) {
	want := []string{"#document", "#embedding", "#metadata", "#score"}
	if got := selectNames(SelectAll()); !reflect.DeepEqual(got, want) {
		t.Errorf("keys = %v, want %v", got, want)
	}
}

func TestSelectZeroValue(t *testing.T) {
	var s Select
	if len(s.Keys()) != 0 {
		t.Errorf("Keys() = %v", s.Keys())
	}
	if got := selectNames(s); len(got) != 0 {
		t.Errorf("payload keys = %v", got)
	}
}

func TestSelectKeysAreCopied(t *testing.T) {
	s := NewSelect(KDocument, KScore)
	keys := s.Keys()
	keys[0] = K("mutated")
	if got := selectNames(s); got[0] != "#document" {
		t.Errorf("selection aliased returned slice: %v", got)
	}
}

func TestParseSelect(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  []string
	}{
		{"nil", nil, []string{}},
		{"key slice", []Key{KDocument, KScore}, []string{"#document", "#score"}},
		{"string slice", []string{"#document", "tag"}, []string{"#document", "tag"}},
		{"any slice mixed", []any{KDocument, "tag"}, []string{"#document", "tag"}},
		{"keys object", map[string]any{"keys": []any{"#score", "#score"}}, []string{"#score"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSelect(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := selectNames(s); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("keys = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseSelectErrors(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"number", 42},
		{"non-string element", []any{1}},
		{"object without keys", map[string]any{"fields": []any{"a"}}},
		{"object with extra field", map[string]any{"keys": []any{"a"}, "x": 1}},
		{"keys not array", map[string]any{"keys": "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSelect(tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalidType) && !errors.Is(err, ErrMalformedExpression) {
				t.Errorf("error = %v, want a typed sentinel", err)
			}
		})
	}
}
