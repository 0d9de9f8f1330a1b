package chromasearch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c == nil {
		t.Fatal("nil client")
	}
}

func TestNewClientInvalidConfig(t *testing.T) {
	if _, err := NewClient(WithBaseURL("not a url")); err == nil {
		t.Fatal("expected error for invalid base url")
	}
	if _, err := NewClient(WithTenant("")); err == nil {
		t.Fatal("expected error for empty tenant")
	}
}

func TestNewClientRegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewClient(WithMetrics(reg)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A second client sharing the registry reuses the collectors.
	if _, err := NewClient(WithMetrics(reg)); err != nil {
		t.Fatalf("unexpected error on reuse: %v", err)
	}
}

func TestCollectionSearchRoundTrip(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{
			"ids": [["a", "b"]],
			"documents": [["x"]],
			"select": ["#document"]
		}`))
	}))
	defer srv.Close()

	client, err := NewClient(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	search, _ := NewSearch(WithWhere(map[string]any{"type": "doc"}), WithLimit(5))
	result, err := client.Collection("articles").Search(context.Background(), search)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	searches, ok := gotBody["searches"].([]any)
	if !ok || len(searches) != 1 {
		t.Fatalf("request body = %v", gotBody)
	}
	payload := searches[0].(map[string]any)
	if _, present := payload["filter"]; !present {
		t.Errorf("payload = %v", payload)
	}

	rows := result.Rows()
	if len(rows) != 1 || len(rows[0]) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][0].Document == nil || *rows[0][0].Document != "x" {
		t.Errorf("first row = %+v", rows[0][0])
	}
	if rows[0][1].Document != nil {
		t.Error("ragged document column must pad, not fail")
	}
}

func TestCollectionSearchRequiresQuery(t *testing.T) {
	client, err := NewClient()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = client.Collection("articles").Search(context.Background())
	if err == nil {
		t.Fatal("expected error for no searches")
	}
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestCollectionSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := NewClient(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	search, _ := NewSearch()
	if _, err := client.Collection("articles").Search(context.Background(), search); err == nil {
		t.Fatal("expected error")
	}
}
