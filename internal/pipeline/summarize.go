package pipeline

import (
	"context"
	"fmt"

	"github.com/ZackHiRo/revops-lead-router/internal/domain"
	"github.com/ZackHiRo/revops-lead-router/internal/ports"
)

// topKSimilarAccounts bounds the social-proof list in every briefing.
const topKSimilarAccounts = 3

// Summarize gathers similar past accounts and writes the account-executive
// briefing. It runs on the qualify and manual-review paths. Either
// collaborator failing degrades: an empty similar-accounts list, or a
// one-line fallback summary.
func Summarize(ctx context.Context, store ports.SimilarityStore, generator ports.NarrativeGenerator, lead *domain.LeadRecord) {
	similar, err := store.QueryTopK(ctx, lead, topKSimilarAccounts)
	if err != nil {
		lead.AppendError(fmt.Sprintf("similarity_failed: %v", err))
		similar = nil
	}
	if len(similar) > topKSimilarAccounts {
		similar = similar[:topKSimilarAccounts]
	}
	if similar == nil {
		similar = []domain.SimilarAccount{}
	}
	lead.SimilarAccounts = similar

	summary, err := generator.Summarize(ctx, lead, similar)
	if err != nil {
		lead.AppendError(fmt.Sprintf("summary_failed: %v", err))
		lead.Summary = fmt.Sprintf("Lead: %s from %s (score %.2f)",
			lead.NormalizedString("full_name"), lead.NormalizedString("company"), lead.Score)
		return
	}
	lead.Summary = summary
}
