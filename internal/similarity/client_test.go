package similarity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ZackHiRo/revops-lead-router/internal/domain"
)

func TestQueryTopKRanking(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["top_k"] != float64(3) {
			t.Errorf("top_k = %v, want 3", body["top_k"])
		}
		// Two matches tie on similarity; the later outcome must rank first.
		w.Write([]byte(`{"matches":[
			{"score":0.8,"metadata":{"company_name":"OldTie","outcome":"closed_lost","reason":"budget","closed_at":"2023-01-01T00:00:00Z"}},
			{"score":0.8,"metadata":{"company_name":"NewTie","outcome":"closed_won","reason":"fit","closed_at":"2025-06-01T00:00:00Z"}},
			{"score":0.9,"metadata":{"company_name":"Best","outcome":"closed_won","reason":"strong fit","closed_at":"2024-01-01T00:00:00Z"}},
			{"score":0.5,"metadata":{"company_name":"Fourth","outcome":"open","reason":"early","closed_at":"2024-01-01T00:00:00Z"}}
		]}`))
	}))
	defer srv.Close()

	client := NewClient("key", "accounts", WithBaseURL(srv.URL))
	lead := domain.NewLeadRecord(map[string]any{})
	lead.Normalized = map[string]any{"company": "Acme"}

	got, err := client.QueryTopK(context.Background(), lead, 3)
	if err != nil {
		t.Fatalf("QueryTopK() error = %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("QueryTopK() returned %d accounts, want 3", len(got))
	}
	wantOrder := []string{"Best", "NewTie", "OldTie"}
	for i, want := range wantOrder {
		if got[i].Account != want {
			t.Errorf("rank %d = %q, want %q", i, got[i].Account, want)
		}
	}
}

func TestQueryTopKError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient("key", "accounts", WithBaseURL(srv.URL))
	lead := domain.NewLeadRecord(map[string]any{})

	if _, err := client.QueryTopK(context.Background(), lead, 3); err == nil {
		t.Fatal("QueryTopK() succeeded, want error")
	}
}
