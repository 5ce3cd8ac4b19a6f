// Package llm implements the model-scorer and narrative-generator
// collaborators on the Gemini API with structured JSON output.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/ZackHiRo/revops-lead-router/internal/domain"
	"github.com/ZackHiRo/revops-lead-router/internal/ports"
)

const defaultTimeout = 30 * time.Second

// Config configures the Gemini client.
type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the Gemini API base URL. Useful for proxies and
	// tests.
	BaseURL string
	Timeout time.Duration
}

// Client scores leads and writes account-executive briefings.
type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

var (
	_ ports.ModelScorer        = (*Client)(nil)
	_ ports.NarrativeGenerator = (*Client)(nil)
)

// New creates a Gemini-backed client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("gemini model is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		client:  client,
		model:   strings.TrimSpace(cfg.Model),
		timeout: timeout,
	}, nil
}

type scoreResponse struct {
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

var scoreSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"score":   {Type: genai.TypeNumber},
		"reasons": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"score", "reasons"},
}

const scoringRubric = `You are a senior RevOps analyst scoring B2B leads.

SCORING CRITERIA:
- Score range: 0.0 to 1.0
- ICP industries: SaaS, FinTech, Ecommerce, HealthTech, EdTech
- Minimum headcount: 20+ employees
- Preferred titles: Director+, VP, C-level, Head of, Lead
- Geographic focus: US, CA, UK, DE, FR, MA
- Penalty for free email domains (gmail, yahoo, etc.)

Score the lead and give short, specific reasons.`

// ScoreLead asks the model for a score and reasons, passing the rule score
// as a hint. The raw output is returned as-is; the score step owns
// clamping and validation because model output is untrusted.
func (c *Client) ScoreLead(ctx context.Context, lead *domain.LeadRecord, ruleHint float64) (ports.ModelScore, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(scoringRubric+"\n\n"+scoringPrompt(lead, ruleHint)),
		&genai.GenerateContentConfig{
			CandidateCount:   1,
			ResponseMIMEType: "application/json",
			ResponseSchema:   scoreSchema,
		},
	)
	if err != nil {
		return ports.ModelScore{}, fmt.Errorf("%w: %v", ports.ErrModelUnavailable, err)
	}

	var parsed scoreResponse
	if err := json.Unmarshal([]byte(resp.Text()), &parsed); err != nil {
		return ports.ModelScore{}, fmt.Errorf("%w: %v", ports.ErrModelInvalidResponse, err)
	}

	return ports.ModelScore{Score: parsed.Score, Reasons: parsed.Reasons}, nil
}

const summaryRubric = `You are a sales operations specialist writing lead briefings for
account executives. Write a concise briefing with 6-8 bullet points
covering: who they are, why now, similar-account social proof, and the
next best action. Keep it data-driven and sales-ready.`

// Summarize produces the AE briefing referencing the score, reasons and
// similar accounts.
func (c *Client) Summarize(ctx context.Context, lead *domain.LeadRecord, similar []domain.SimilarAccount) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(summaryRubric+"\n\n"+summaryPrompt(lead, similar)),
		&genai.GenerateContentConfig{CandidateCount: 1},
	)
	if err != nil {
		return "", fmt.Errorf("narrative generation: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("narrative generation: empty response")
	}
	return text, nil
}

func scoringPrompt(lead *domain.LeadRecord, ruleHint float64) string {
	var b strings.Builder
	b.WriteString("LEAD DATA:\n")
	fmt.Fprintf(&b, "- Email: %s\n", lead.NormalizedString("email"))
	fmt.Fprintf(&b, "- Company: %s\n", lead.NormalizedString("company"))
	fmt.Fprintf(&b, "- Title: %s\n", lead.NormalizedString("title"))
	fmt.Fprintf(&b, "- Country: %s\n", lead.NormalizedString("country"))
	fmt.Fprintf(&b, "- Source: %s\n", lead.NormalizedString("source"))

	b.WriteString("\nENRICHMENT:\n")
	if company, ok := lead.Enrichment["company"].(map[string]any); ok {
		fmt.Fprintf(&b, "- Industry: %v\n", company["industry"])
		fmt.Fprintf(&b, "- Headcount: %v\n", company["employees"])
		fmt.Fprintf(&b, "- Tech stack: %v\n", company["tech"])
	} else {
		b.WriteString("- (no enrichment data)\n")
	}
	if person, ok := lead.Enrichment["person"].(map[string]any); ok {
		fmt.Fprintf(&b, "- Seniority: %v\n", person["seniority"])
	}

	fmt.Fprintf(&b, "\nRule-based score hint: %.3f\n", ruleHint)
	return b.String()
}

func summaryPrompt(lead *domain.LeadRecord, similar []domain.SimilarAccount) string {
	var b strings.Builder
	fmt.Fprintf(&b, "LEAD: %s from %s\n", lead.NormalizedString("full_name"), lead.NormalizedString("company"))
	fmt.Fprintf(&b, "ROLE: %s\n", lead.NormalizedString("title"))
	fmt.Fprintf(&b, "SCORE: %.2f/1.0\n", lead.Score)
	if len(lead.ScoreReasons) > 0 {
		fmt.Fprintf(&b, "SCORE REASONS: %s\n", strings.Join(lead.ScoreReasons, "; "))
	}
	if company, ok := lead.Enrichment["company"].(map[string]any); ok {
		fmt.Fprintf(&b, "INDUSTRY: %v\nSIZE: %v employees\n", company["industry"], company["employees"])
	}

	b.WriteString("\nSIMILAR ACCOUNTS:\n")
	if len(similar) == 0 {
		b.WriteString("(none found)\n")
	}
	for i, acc := range similar {
		fmt.Fprintf(&b, "%d. %s - %s: %s\n", i+1, acc.Account, acc.Outcome, acc.Reason)
	}
	return b.String()
}
