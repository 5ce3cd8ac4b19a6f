// Package notify delivers chat notifications about processed leads.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ZackHiRo/revops-lead-router/internal/domain"
	"github.com/ZackHiRo/revops-lead-router/internal/ports"
)

const defaultTimeout = 10 * time.Second

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds each post.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithAlertsURL directs high-priority alerts to a separate webhook. When
// unset, alerts go to the standard webhook.
func WithAlertsURL(url string) ClientOption {
	return func(c *Client) {
		c.alertsURL = url
	}
}

// Client posts lead notifications to Slack-compatible webhooks and returns
// the message timestamp as the notification id.
type Client struct {
	webhookURL string
	alertsURL  string
	channel    string
	timeout    time.Duration
	httpClient *http.Client
}

var _ ports.Notifier = (*Client)(nil)

// NewClient creates a notifier posting to webhookURL.
func NewClient(webhookURL, channel string, opts ...ClientOption) *Client {
	c := &Client{
		webhookURL: webhookURL,
		channel:    channel,
		timeout:    defaultTimeout,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type postResponse struct {
	OK bool   `json:"ok"`
	TS string `json:"ts"`
}

// NotifyLead posts the standard new-lead message.
func (c *Client) NotifyLead(ctx context.Context, lead *domain.LeadRecord) (string, error) {
	return c.post(ctx, c.webhookURL, leadMessage(lead, false))
}

// NotifyHighPriority posts the hot-lead alert.
func (c *Client) NotifyHighPriority(ctx context.Context, lead *domain.LeadRecord) (string, error) {
	url := c.alertsURL
	if url == "" {
		url = c.webhookURL
	}
	return c.post(ctx, url, leadMessage(lead, true))
}

func (c *Client) post(ctx context.Context, url string, message map[string]any) (string, error) {
	if url == "" {
		return "", fmt.Errorf("notify: no webhook url configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.channel != "" {
		message["channel"] = c.channel
	}

	body, err := json.Marshal(message)
	if err != nil {
		return "", fmt.Errorf("notify: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("notify: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("notify: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("notify: post: status %d", resp.StatusCode)
	}

	var parsed postResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("notify: decode response: %w", err)
	}
	if !parsed.OK || parsed.TS == "" {
		return "", fmt.Errorf("notify: post rejected")
	}
	return parsed.TS, nil
}

func leadMessage(lead *domain.LeadRecord, highPriority bool) map[string]any {
	header := "New lead processed"
	if highPriority {
		header = "High-priority lead"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s* — %s (%s)\n", header, lead.NormalizedString("full_name"), lead.NormalizedString("company"))
	fmt.Fprintf(&b, "Score: %.2f | Path: %s", lead.Score, lead.DecidedPath)
	if lead.Owner != "" {
		fmt.Fprintf(&b, " | Owner: %s", lead.Owner)
	}
	if lead.Summary != "" {
		fmt.Fprintf(&b, "\n%s", lead.Summary)
	}

	return map[string]any{
		"text":    b.String(),
		"lead_id": lead.LeadID,
	}
}
