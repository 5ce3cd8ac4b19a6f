package pipeline

import (
	"testing"

	"github.com/ZackHiRo/revops-lead-router/internal/domain"
)

type stubTerritories struct {
	owner string
}

func (s *stubTerritories) Resolve(country string) (string, bool) {
	return s.owner, s.owner != "" && country != ""
}

func TestDecideBoundaries(t *testing.T) {
	territories := &stubTerritories{owner: "us-team@company.com"}

	tests := []struct {
		score float64
		want  domain.Path
	}{
		{0.70, domain.PathQualify},
		{0.6999, domain.PathManualReview},
		{0.95, domain.PathQualify},
		{0.40, domain.PathManualReview},
		{0.3999, domain.PathNurture},
		{0.0, domain.PathNurture},
	}

	for _, tt := range tests {
		lead := domain.NewLeadRecord(map[string]any{})
		lead.Normalized = map[string]any{"country": "US"}
		lead.Score = tt.score

		if got := Decide(lead, territories); got != tt.want {
			t.Errorf("Decide(score=%v) = %q, want %q", tt.score, got, tt.want)
		}
		if lead.DecidedPath != tt.want {
			t.Errorf("decided_path not written for score %v", tt.score)
		}
	}
}

func TestDecideHighScoreWithoutResolvableOwner(t *testing.T) {
	lead := domain.NewLeadRecord(map[string]any{})
	lead.Normalized = map[string]any{"country": "US"}
	lead.Score = 0.9

	if got := Decide(lead, &stubTerritories{}); got != domain.PathManualReview {
		t.Errorf("Decide() without owner = %q, want manual_review", got)
	}
}
