// Package enrichment implements the firmographic/person lookup collaborator
// against a Clearbit-style combined enrichment API.
package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ZackHiRo/revops-lead-router/internal/ports"
)

const (
	defaultBaseURL = "https://enrich.internal/v2"
	defaultTimeout = 20 * time.Second
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

// WithTimeout bounds each lookup call.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRateLimit caps outbound requests per second to stay inside the
// provider's quota.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// Client queries the enrichment provider's combined company+person
// endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ ports.EnrichmentProvider = (*Client)(nil)

// NewClient creates an enrichment client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		timeout:    defaultTimeout,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type lookupResponse struct {
	Company map[string]any `json:"company"`
	Person  map[string]any `json:"person"`
}

// Lookup fetches company data by domain and person data by email. Partial
// data is valid: the provider may know the company but not the person.
func (c *Client) Lookup(ctx context.Context, domainName, email string) (map[string]any, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ports.ErrEnrichmentTimeout, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := url.Values{}
	if domainName != "" {
		query.Set("domain", domainName)
	}
	if email != "" {
		query.Set("email", email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/combined/find?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrEnrichmentProvider, err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ports.ErrEnrichmentTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ports.ErrEnrichmentProvider, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ports.ErrEnrichmentNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ports.ErrEnrichmentProvider, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ports.ErrEnrichmentProvider, err)
	}

	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ports.ErrEnrichmentProvider, err)
	}

	enrichment := map[string]any{}
	if parsed.Company != nil {
		enrichment["company"] = parsed.Company
	}
	if parsed.Person != nil {
		enrichment["person"] = parsed.Person
	}
	return enrichment, nil
}
