package pipeline

import (
	"context"
	"fmt"

	"github.com/ZackHiRo/revops-lead-router/internal/domain"
	"github.com/ZackHiRo/revops-lead-router/internal/ports"
)

// Enrich calls the enrichment provider and attaches firmographic/person
// data to the lead. Provider failure of any kind degrades to an empty
// enrichment mapping; scoring is written to work without it.
func Enrich(ctx context.Context, provider ports.EnrichmentProvider, lead *domain.LeadRecord) {
	domainName := lead.NormalizedString("domain")
	email := lead.NormalizedString("email")

	if domainName == "" && email == "" {
		lead.Enrichment = map[string]any{}
		lead.AppendError("enrich_failed: no domain or email to look up")
		return
	}

	data, err := provider.Lookup(ctx, domainName, email)
	if err != nil {
		lead.Enrichment = map[string]any{}
		lead.AppendError(fmt.Sprintf("enrich_failed: %v", err))
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	lead.Enrichment = data
}
