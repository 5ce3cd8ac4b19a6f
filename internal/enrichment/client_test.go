package enrichment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ZackHiRo/revops-lead-router/internal/ports"
)

func TestLookupSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("domain"); got != "acme.com" {
			t.Errorf("domain param = %q, want acme.com", got)
		}
		if got := r.URL.Query().Get("email"); got != "jane@acme.com" {
			t.Errorf("email param = %q, want jane@acme.com", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"company":{"employees":150,"industry":"SaaS","tech":["AWS"]},"person":{"seniority":"vp"}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	got, err := client.Lookup(context.Background(), "acme.com", "jane@acme.com")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	company, ok := got["company"].(map[string]any)
	if !ok {
		t.Fatalf("Lookup() missing company: %v", got)
	}
	if company["industry"] != "SaaS" {
		t.Errorf("industry = %v, want SaaS", company["industry"])
	}
}

func TestLookupNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))

	_, err := client.Lookup(context.Background(), "unknown.io", "")
	if !errors.Is(err, ports.ErrEnrichmentNotFound) {
		t.Fatalf("Lookup() error = %v, want ErrEnrichmentNotFound", err)
	}
}

func TestLookupProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))

	_, err := client.Lookup(context.Background(), "acme.com", "")
	if !errors.Is(err, ports.ErrEnrichmentProvider) {
		t.Fatalf("Lookup() error = %v, want ErrEnrichmentProvider", err)
	}
}

func TestLookupTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL), WithTimeout(20*time.Millisecond))

	_, err := client.Lookup(context.Background(), "acme.com", "")
	if !errors.Is(err, ports.ErrEnrichmentTimeout) {
		t.Fatalf("Lookup() error = %v, want ErrEnrichmentTimeout", err)
	}
}

func TestLookupMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))

	_, err := client.Lookup(context.Background(), "acme.com", "")
	if !errors.Is(err, ports.ErrEnrichmentProvider) {
		t.Fatalf("Lookup() error = %v, want ErrEnrichmentProvider", err)
	}
}
