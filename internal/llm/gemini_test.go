package llm

import (
	"strings"
	"testing"

	"github.com/ZackHiRo/revops-lead-router/internal/domain"
)

func testLead() *domain.LeadRecord {
	lead := domain.NewLeadRecord(map[string]any{"email": "jane@acme.com"})
	lead.Normalized = map[string]any{
		"email":     "jane@acme.com",
		"company":   "Acme",
		"full_name": "Jane Roe",
		"title":     "VP Sales",
		"country":   "US",
		"source":    "website",
	}
	lead.Enrichment = map[string]any{
		"company": map[string]any{"industry": "SaaS", "employees": 150, "tech": []any{"AWS"}},
		"person":  map[string]any{"seniority": "vp"},
	}
	lead.Score = 0.82
	lead.ScoreReasons = []string{"ICP match: SaaS", "Senior decision maker"}
	return lead
}

func TestScoringPrompt(t *testing.T) {
	got := scoringPrompt(testLead(), 0.8)

	for _, want := range []string{
		"jane@acme.com",
		"Acme",
		"VP Sales",
		"Industry: SaaS",
		"Headcount: 150",
		"Rule-based score hint: 0.800",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("scoringPrompt() missing %q:\n%s", want, got)
		}
	}
}

func TestScoringPromptNoEnrichment(t *testing.T) {
	lead := testLead()
	lead.Enrichment = map[string]any{}

	got := scoringPrompt(lead, 0.2)
	if !strings.Contains(got, "(no enrichment data)") {
		t.Errorf("scoringPrompt() should flag missing enrichment:\n%s", got)
	}
}

func TestSummaryPrompt(t *testing.T) {
	similar := []domain.SimilarAccount{
		{Account: "TechCorp", Outcome: "closed_won", Reason: "similar size and industry"},
		{Account: "DataFlow", Outcome: "closed_lost", Reason: "budget"},
	}

	got := summaryPrompt(testLead(), similar)

	for _, want := range []string{
		"Jane Roe",
		"SCORE: 0.82/1.0",
		"1. TechCorp - closed_won",
		"2. DataFlow - closed_lost",
		"ICP match: SaaS",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summaryPrompt() missing %q:\n%s", want, got)
		}
	}
}

func TestSummaryPromptNoSimilarAccounts(t *testing.T) {
	got := summaryPrompt(testLead(), nil)
	if !strings.Contains(got, "(none found)") {
		t.Errorf("summaryPrompt() should note empty similar accounts:\n%s", got)
	}
}
