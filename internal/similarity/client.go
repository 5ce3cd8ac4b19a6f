// Package similarity queries the vector store for past accounts that look
// like the current lead.
package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/ZackHiRo/revops-lead-router/internal/domain"
	"github.com/ZackHiRo/revops-lead-router/internal/ports"
)

const (
	defaultBaseURL = "https://vectors.internal/v1"
	defaultTimeout = 10 * time.Second
)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds each query call.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// Client queries a vector index of historical account outcomes.
type Client struct {
	apiKey     string
	baseURL    string
	index      string
	timeout    time.Duration
	httpClient *http.Client
}

var _ ports.SimilarityStore = (*Client)(nil)

// NewClient creates a similarity client against the named index.
func NewClient(apiKey, index string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		index:      index,
		timeout:    defaultTimeout,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type match struct {
	Score    float64 `json:"score"`
	Metadata struct {
		CompanyName string    `json:"company_name"`
		Outcome     string    `json:"outcome"`
		Reason      string    `json:"reason"`
		ClosedAt    time.Time `json:"closed_at"`
	} `json:"metadata"`
}

type queryResponse struct {
	Matches []match `json:"matches"`
}

// QueryTopK returns up to k matches ranked by similarity; equal-similarity
// matches are ordered most-recent outcome first.
func (c *Client) QueryTopK(ctx context.Context, lead *domain.LeadRecord, k int) ([]domain.SimilarAccount, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload := map[string]any{
		"index": c.index,
		"top_k": k,
		"features": map[string]any{
			"company":  lead.NormalizedString("company"),
			"domain":   lead.NormalizedString("domain"),
			"industry": enrichedIndustry(lead),
			"title":    lead.NormalizedString("title"),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("similarity: marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("similarity: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("similarity: query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("similarity: query: status %d", resp.StatusCode)
	}

	var parsed queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("similarity: decode response: %w", err)
	}

	matches := parsed.Matches
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Metadata.ClosedAt.After(matches[j].Metadata.ClosedAt)
	})
	if len(matches) > k {
		matches = matches[:k]
	}

	accounts := make([]domain.SimilarAccount, 0, len(matches))
	for _, m := range matches {
		accounts = append(accounts, domain.SimilarAccount{
			Account: m.Metadata.CompanyName,
			Outcome: m.Metadata.Outcome,
			Reason:  m.Metadata.Reason,
		})
	}
	return accounts, nil
}

func enrichedIndustry(lead *domain.LeadRecord) any {
	if company, ok := lead.Enrichment["company"].(map[string]any); ok {
		return company["industry"]
	}
	return nil
}
