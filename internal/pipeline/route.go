package pipeline

import (
	"context"
	"fmt"

	"github.com/ZackHiRo/revops-lead-router/internal/domain"
	"github.com/ZackHiRo/revops-lead-router/internal/ports"
)

// Route assigns the CRM owner from the territory table and upserts the
// contact. Only the qualify path reaches this step. A CRM write failure is
// recoverable out of band, so it degrades: the owner assignment stands,
// crm_record_id stays empty and summarize still runs.
func Route(ctx context.Context, territories ports.TerritoryResolver, crm ports.CRMClient, lead *domain.LeadRecord) {
	country := lead.NormalizedString("country")
	owner, matched := territories.Resolve(country)
	lead.Owner = owner
	if matched {
		lead.RouteReason = fmt.Sprintf("matched territory %s → %s", country, owner)
	} else {
		lead.RouteReason = fmt.Sprintf("no territory for %q, default owner %s", country, owner)
	}

	recordID, err := crm.UpsertContact(ctx, lead)
	if err != nil {
		lead.AppendError(fmt.Sprintf("crm_upsert_failed: %v", err))
		return
	}
	lead.CRMRecordID = recordID
}
