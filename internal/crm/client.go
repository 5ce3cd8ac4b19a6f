// Package crm implements the CRM collaborator: contact upsert for routed
// leads and follow-up task creation for nurtured ones.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ZackHiRo/revops-lead-router/internal/domain"
	"github.com/ZackHiRo/revops-lead-router/internal/ports"
)

const (
	defaultBaseURL = "https://crm.internal/v3"
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

// WithTimeout bounds each CRM call.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// Client talks to the CRM's contacts and tasks APIs.
type Client struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

var _ ports.CRMClient = (*Client)(nil)

// NewClient creates a CRM client.
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

type contactRecord struct {
	ID string `json:"id"`
}

type searchResponse struct {
	Results []contactRecord `json:"results"`
}

// UpsertContact creates the lead's contact record, or updates it when a
// contact with the same email already exists. Returns the CRM record id.
func (c *Client) UpsertContact(ctx context.Context, lead *domain.LeadRecord) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	properties := contactProperties(lead)

	existing, err := c.findByEmail(ctx, lead.NormalizedString("email"))
	if err != nil {
		return "", err
	}

	if existing != "" {
		if err := c.do(ctx, http.MethodPatch, "/contacts/"+existing,
			map[string]any{"properties": properties}, nil); err != nil {
			return "", err
		}
		return existing, nil
	}

	var created contactRecord
	if err := c.do(ctx, http.MethodPost, "/contacts",
		map[string]any{"properties": properties}, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("crm: create contact returned no id")
	}
	return created.ID, nil
}

// CreateTask schedules a follow-up task against the lead.
func (c *Client) CreateTask(ctx context.Context, lead *domain.LeadRecord, description string, due time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var created contactRecord
	err := c.do(ctx, http.MethodPost, "/tasks", map[string]any{
		"type":        "nurture_followup",
		"lead_id":     lead.LeadID,
		"email":       lead.NormalizedString("email"),
		"description": description,
		"due_at":      time.Now().UTC().Add(due).Format(time.RFC3339),
	}, &created)
	if err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("crm: create task returned no id")
	}
	return created.ID, nil
}

func (c *Client) findByEmail(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", nil
	}

	var found searchResponse
	err := c.do(ctx, http.MethodPost, "/contacts/search", map[string]any{
		"filters": []map[string]string{
			{"property": "email", "operator": "EQ", "value": email},
		},
	}, &found)
	if err != nil {
		return "", err
	}
	if len(found.Results) == 0 {
		return "", nil
	}
	return found.Results[0].ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("crm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("crm: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("crm: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("crm: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("crm: %s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("crm: decode response: %w", err)
		}
	}
	return nil
}

func contactProperties(lead *domain.LeadRecord) map[string]any {
	fullName := lead.NormalizedString("full_name")
	first, last := splitName(fullName)

	properties := map[string]any{
		"email":       lead.NormalizedString("email"),
		"firstname":   first,
		"lastname":    last,
		"company":     lead.NormalizedString("company"),
		"jobtitle":    lead.NormalizedString("title"),
		"country":     lead.NormalizedString("country"),
		"lead_score":  lead.Score,
		"lead_source": lead.NormalizedString("source"),
		"lead_owner":  lead.Owner,
	}

	if company, ok := lead.Enrichment["company"].(map[string]any); ok {
		properties["company_size"] = company["employees"]
		properties["industry"] = company["industry"]
	}

	return properties
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
