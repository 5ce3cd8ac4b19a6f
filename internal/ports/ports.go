// Package ports declares the collaborator interfaces the pipeline core
// depends on. Implementations live in their own packages; tests substitute
// fakes.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/ZackHiRo/revops-lead-router/internal/domain"
)

// IdempotencyStore deduplicates lead submissions. Acquire atomically
// claims key for ttl and reports whether the claim was won. A non-nil
// error means the store itself was unreachable, not that the key was
// taken.
type IdempotencyStore interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release drops a claim. Used by operator tooling and tests.
	Release(ctx context.Context, key string) error
}

// Enrichment failure classes. The enrich step treats them all the same
// way (degrade and continue); they exist so logs and errors entries can
// say what actually happened.
var (
	ErrEnrichmentTimeout  = errors.New("enrichment provider timeout")
	ErrEnrichmentNotFound = errors.New("no enrichment data for lead")
	ErrEnrichmentProvider = errors.New("enrichment provider error")
)

// EnrichmentProvider looks up firmographic and person data for a lead.
type EnrichmentProvider interface {
	Lookup(ctx context.Context, domainName, email string) (map[string]any, error)
}

// ModelScore is the untrusted output of the model scorer; the score step
// clamps and validates it before use.
type ModelScore struct {
	Score   float64
	Reasons []string
}

var (
	ErrModelUnavailable     = errors.New("model scorer unavailable")
	ErrModelInvalidResponse = errors.New("model scorer returned invalid response")
)

// ModelScorer scores a lead snapshot, given the rule score as a hint.
type ModelScorer interface {
	ScoreLead(ctx context.Context, lead *domain.LeadRecord, ruleHint float64) (ModelScore, error)
}

// CRMClient upserts the lead into the CRM and creates follow-up tasks.
type CRMClient interface {
	UpsertContact(ctx context.Context, lead *domain.LeadRecord) (string, error)
	CreateTask(ctx context.Context, lead *domain.LeadRecord, description string, due time.Duration) (string, error)
}

// SimilarityStore returns the top-k most similar past accounts, ranked by
// similarity with ties broken by most recent outcome first.
type SimilarityStore interface {
	QueryTopK(ctx context.Context, lead *domain.LeadRecord, k int) ([]domain.SimilarAccount, error)
}

// NarrativeGenerator produces the account-executive briefing.
type NarrativeGenerator interface {
	Summarize(ctx context.Context, lead *domain.LeadRecord, similar []domain.SimilarAccount) (string, error)
}

// Notifier delivers chat notifications and returns a message id for
// traceability.
type Notifier interface {
	NotifyLead(ctx context.Context, lead *domain.LeadRecord) (string, error)
	NotifyHighPriority(ctx context.Context, lead *domain.LeadRecord) (string, error)
}

// TerritoryResolver maps an upper-cased country code to a CRM owner id,
// falling back to the table's DEFAULT entry.
type TerritoryResolver interface {
	Resolve(country string) (owner string, matched bool)
}

// LeadStore persists raw payloads and terminal records. It backs the
// retry and getState operations.
type LeadStore interface {
	SaveLead(ctx context.Context, lead *domain.LeadRecord) error
	GetLead(ctx context.Context, leadID string) (*domain.LeadRecord, error)
}
