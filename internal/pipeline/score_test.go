package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/ZackHiRo/revops-lead-router/internal/domain"
	"github.com/ZackHiRo/revops-lead-router/internal/ports"
)

type stubScorer struct {
	score   float64
	reasons []string
	err     error
}

func (s *stubScorer) ScoreLead(ctx context.Context, lead *domain.LeadRecord, hint float64) (ports.ModelScore, error) {
	if s.err != nil {
		return ports.ModelScore{}, s.err
	}
	return ports.ModelScore{Score: s.score, Reasons: s.reasons}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strongLead() *domain.LeadRecord {
	lead := domain.NewLeadRecord(map[string]any{})
	lead.Normalized = map[string]any{
		"email":   "jane@acme.com",
		"company": "Acme",
		"title":   "VP Sales",
		"country": "US",
	}
	lead.Enrichment = map[string]any{
		"company": map[string]any{
			"employees": float64(150),
			"industry":  "SaaS",
			"tech":      []any{"AWS"},
		},
	}
	return lead
}

func weakLead() *domain.LeadRecord {
	lead := domain.NewLeadRecord(map[string]any{})
	lead.Normalized = map[string]any{"email": "joe@gmail.com"}
	lead.Enrichment = map[string]any{}
	return lead
}

func TestRuleScoreStrongLead(t *testing.T) {
	score, reasons := RuleScore(strongLead())

	// 0.3 headcount + 0.1 enterprise bonus + 0.2 ICP + 0.2 title +
	// 0.1 tech + 0.1 country, clamped to 1.0.
	if score != 1.0 {
		t.Errorf("RuleScore() = %v, want 1.0", score)
	}
	if len(reasons) == 0 {
		t.Error("RuleScore() returned no reasons")
	}
}

func TestRuleScoreWeakLeadFloorsAtZero(t *testing.T) {
	score, _ := RuleScore(weakLead())

	// −0.4 free mail −0.2 empty company, clamped to 0.
	if score != 0 {
		t.Errorf("RuleScore() = %v, want 0", score)
	}
}

func TestRuleScoreSmallHeadcountPenalty(t *testing.T) {
	lead := strongLead()
	lead.Enrichment["company"].(map[string]any)["employees"] = float64(5)

	score, _ := RuleScore(lead)

	// −0.3 small headcount + 0.2 ICP + 0.2 title + 0.1 tech + 0.1 country.
	if math.Abs(score-0.3) > 1e-9 {
		t.Errorf("RuleScore() = %v, want 0.3", score)
	}
}

func TestRuleScoreAlwaysInRange(t *testing.T) {
	leads := []*domain.LeadRecord{strongLead(), weakLead(), domain.NewLeadRecord(map[string]any{})}
	for _, lead := range leads {
		if lead.Normalized == nil {
			lead.Normalized = map[string]any{}
		}
		score, _ := RuleScore(lead)
		if score < 0 || score > 1 {
			t.Errorf("RuleScore() = %v out of [0,1]", score)
		}
	}
}

func TestScoreBlendsRuleAndModel(t *testing.T) {
	lead := strongLead()
	scorer := &stubScorer{score: 0.6, reasons: []string{"solid ICP fit"}}

	Score(context.Background(), scorer, lead, discardLogger())

	// rule 1.0, model 0.6 → 0.8.
	if math.Abs(lead.Score-0.8) > 1e-9 {
		t.Errorf("Score = %v, want 0.8", lead.Score)
	}
	if len(lead.ScoreReasons) != 1 || lead.ScoreReasons[0] != "solid ICP fit" {
		t.Errorf("ScoreReasons = %v, want model reasons", lead.ScoreReasons)
	}
	if len(lead.Errors) != 0 {
		t.Errorf("Errors = %v, want none", lead.Errors)
	}
}

func TestScoreModelFailureFallsBackToRules(t *testing.T) {
	lead := strongLead()
	scorer := &stubScorer{err: errors.New("model down")}

	Score(context.Background(), scorer, lead, discardLogger())

	if lead.Score != 1.0 {
		t.Errorf("Score = %v, want rule score 1.0", lead.Score)
	}
	if len(lead.ScoreReasons) == 0 || lead.ScoreReasons[0] != "model_unavailable" {
		t.Errorf("ScoreReasons = %v, want model_unavailable first", lead.ScoreReasons)
	}
	if len(lead.Errors) != 1 {
		t.Errorf("Errors = %v, want one model_score_failed entry", lead.Errors)
	}
}

func TestScoreRejectsInvalidModelOutput(t *testing.T) {
	tests := []struct {
		name   string
		scorer *stubScorer
	}{
		{"out of range", &stubScorer{score: 1.7, reasons: []string{"x"}}},
		{"negative", &stubScorer{score: -0.2, reasons: []string{"x"}}},
		{"nan", &stubScorer{score: math.NaN(), reasons: []string{"x"}}},
		{"no reasons", &stubScorer{score: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := strongLead()
			Score(context.Background(), tt.scorer, lead, discardLogger())

			if lead.Score != 1.0 {
				t.Errorf("Score = %v, want rule fallback 1.0", lead.Score)
			}
			if lead.Score < 0 || lead.Score > 1 {
				t.Errorf("Score = %v out of [0,1]", lead.Score)
			}
		})
	}
}

func TestScoreWorksWithEmptyEnrichment(t *testing.T) {
	lead := weakLead()
	scorer := &stubScorer{score: 0.3, reasons: []string{"thin signal"}}

	Score(context.Background(), scorer, lead, discardLogger())

	if math.Abs(lead.Score-0.15) > 1e-9 {
		t.Errorf("Score = %v, want 0.15", lead.Score)
	}
}
