package pipeline

import (
	"github.com/ZackHiRo/revops-lead-router/internal/domain"
	"github.com/ZackHiRo/revops-lead-router/internal/ports"
)

// Branch thresholds. Boundary values are part of the contract: a score of
// exactly 0.70 qualifies, a score of exactly 0.40 goes to manual review.
const (
	qualifyThreshold = 0.70
	nurtureThreshold = 0.40
)

// Decide is the single fork of the state machine, evaluated once right
// after scoring. It writes decided_path (the only writer) and returns it.
// Qualification requires both the score and a resolvable owner; when the
// territory table cannot produce any owner the lead falls back to manual
// review rather than routing nowhere.
func Decide(lead *domain.LeadRecord, territories ports.TerritoryResolver) domain.Path {
	switch {
	case lead.Score >= qualifyThreshold && ownerResolvable(lead, territories):
		lead.DecidedPath = domain.PathQualify
	case lead.Score < nurtureThreshold:
		lead.DecidedPath = domain.PathNurture
	default:
		lead.DecidedPath = domain.PathManualReview
	}
	return lead.DecidedPath
}

func ownerResolvable(lead *domain.LeadRecord, territories ports.TerritoryResolver) bool {
	if territories == nil {
		return false
	}
	owner, _ := territories.Resolve(lead.NormalizedString("country"))
	return owner != ""
}
