package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/ZackHiRo/revops-lead-router/internal/domain"
	"github.com/ZackHiRo/revops-lead-router/internal/ports"
)

// Scoring weights. The rule score is a deliberate floor/ceiling sanity
// check on the model: neither signal can qualify or disqualify a lead on
// its own because the blend is fixed at 50/50.
const (
	weightHeadcount        = 0.3
	weightHeadcountBonus   = 0.1
	weightICPIndustry      = 0.2
	weightBuyingAuthority  = 0.2
	weightTechStack        = 0.1
	weightAllowedCountry   = 0.1
	penaltyFreeMail        = 0.4
	penaltyEmptyCompany    = 0.2
	penaltySmallHeadcount  = 0.3
	minHeadcount           = 20
	largeHeadcount         = 100
	modelBlendWeight       = 0.5
	reasonModelUnavailable = "model_unavailable"
)

var icpIndustries = map[string]bool{
	"saas":       true,
	"fintech":    true,
	"ecommerce":  true,
	"healthtech": true,
	"edtech":     true,
}

var buyingAuthorityTokens = []string{"head", "lead", "director", "vp", "cxo", "chief", "c-level", "ceo", "cto", "cfo", "coo"}

var freeMailDomains = map[string]bool{
	"gmail.com":   true,
	"yahoo.com":   true,
	"outlook.com": true,
	"hotmail.com": true,
}

var allowedCountries = map[string]bool{
	"US": true, "CA": true, "UK": true, "DE": true, "FR": true, "MA": true,
}

var recognizedTech = map[string]bool{
	"aws": true, "gcp": true, "azure": true, "snowflake": true,
	"salesforce": true, "hubspot": true, "segment": true, "kubernetes": true,
	"python": true, "go": true, "react": true,
}

// RuleScore computes the deterministic half of the hybrid score from
// fixed additive weights, clamped to [0, 1]. It also returns the
// contributing reasons in contribution order for the model-failure
// fallback.
func RuleScore(lead *domain.LeadRecord) (float64, []string) {
	var score float64
	var reasons []string

	company := companyEnrichment(lead)

	if employees, ok := headcount(company); ok {
		if employees >= minHeadcount {
			score += weightHeadcount
			reasons = append(reasons, fmt.Sprintf("headcount %d meets minimum", employees))
			if employees >= largeHeadcount {
				score += weightHeadcountBonus
				reasons = append(reasons, "enterprise-size company")
			}
		} else {
			score -= penaltySmallHeadcount
			reasons = append(reasons, fmt.Sprintf("headcount %d below minimum", employees))
		}
	}

	industry := strings.ToLower(stringOf(company["industry"]))
	if icpIndustries[industry] {
		score += weightICPIndustry
		reasons = append(reasons, "ICP industry: "+industry)
	}

	title := strings.ToLower(lead.NormalizedString("title"))
	for _, token := range buyingAuthorityTokens {
		if strings.Contains(title, token) {
			score += weightBuyingAuthority
			reasons = append(reasons, "buying authority title: "+token)
			break
		}
	}

	email := lead.NormalizedString("email")
	if at := strings.LastIndex(email, "@"); at >= 0 && freeMailDomains[email[at+1:]] {
		score -= penaltyFreeMail
		reasons = append(reasons, "free-mail domain penalty")
	}

	if lead.NormalizedString("company") == "" {
		score -= penaltyEmptyCompany
		reasons = append(reasons, "missing company penalty")
	}

	if techIntersects(company["tech"]) {
		score += weightTechStack
		reasons = append(reasons, "recognized tech stack")
	}

	country := strings.ToUpper(lead.NormalizedString("country"))
	if allowedCountries[country] {
		score += weightAllowedCountry
		reasons = append(reasons, "target geography: "+country)
	}

	return domain.Clamp01(score), reasons
}

// Score runs the hybrid scoring step: rule score blended 50/50 with the
// model score. Model output is untrusted; anything invalid (error, empty
// reasons, non-finite or out-of-range score) falls back to the rule score
// with the rule-derived reasons.
func Score(ctx context.Context, scorer ports.ModelScorer, lead *domain.LeadRecord, logger *slog.Logger) {
	ruleScore, ruleReasons := RuleScore(lead)

	modelScore, err := scorer.ScoreLead(ctx, lead, ruleScore)
	if err != nil || !validModelScore(modelScore) {
		if err != nil {
			lead.AppendError(fmt.Sprintf("model_score_failed: %v", err))
		} else {
			lead.AppendError("model_score_failed: invalid model output")
		}
		lead.Score = ruleScore
		lead.ScoreReasons = append([]string{reasonModelUnavailable}, ruleReasons...)
		logger.Warn("model scoring failed, using rule score only",
			slog.String("lead_id", lead.LeadID),
			slog.Float64("rule_score", ruleScore),
		)
		return
	}

	lead.Score = domain.Clamp01(modelBlendWeight*ruleScore + modelBlendWeight*modelScore.Score)
	lead.ScoreReasons = modelScore.Reasons

	logger.Info("lead scored",
		slog.String("lead_id", lead.LeadID),
		slog.Float64("rule_score", ruleScore),
		slog.Float64("model_score", modelScore.Score),
		slog.Float64("score", lead.Score),
	)
}

func validModelScore(m ports.ModelScore) bool {
	if len(m.Reasons) == 0 {
		return false
	}
	if math.IsNaN(m.Score) || math.IsInf(m.Score, 0) {
		return false
	}
	return m.Score >= 0 && m.Score <= 1
}

func companyEnrichment(lead *domain.LeadRecord) map[string]any {
	if company, ok := lead.Enrichment["company"].(map[string]any); ok {
		return company
	}
	return map[string]any{}
}

// headcount tolerates the numeric types JSON decoding and tests produce.
func headcount(company map[string]any) (int, bool) {
	switch v := company["employees"].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}

func techIntersects(tech any) bool {
	items, ok := tech.([]any)
	if !ok {
		if strs, ok := tech.([]string); ok {
			for _, s := range strs {
				if recognizedTech[strings.ToLower(s)] {
					return true
				}
			}
		}
		return false
	}
	for _, item := range items {
		if recognizedTech[strings.ToLower(stringOf(item))] {
			return true
		}
	}
	return false
}
