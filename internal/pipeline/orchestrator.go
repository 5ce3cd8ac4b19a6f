// Package pipeline contains the lead-processing core: the step executors,
// the branch policy and the orchestrator that sequences them.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ZackHiRo/revops-lead-router/internal/domain"
	"github.com/ZackHiRo/revops-lead-router/internal/ports"
)

// state names the nodes of the lead state machine. The only fork sits at
// stateScore; everything else is a straight line to stateDone.
type state string

const (
	stateCapture   state = "capture"
	stateEnrich    state = "enrich"
	stateScore     state = "score"
	stateRoute     state = "route"
	stateSummarize state = "summarize"
	stateNurture   state = "nurture"
	stateDone      state = "done"
)

// highPriorityThreshold triggers the alert notification instead of the
// standard one.
const highPriorityThreshold = 0.80

// Config wires the orchestrator's collaborators. All fields except Logger
// are required.
type Config struct {
	Guard       ports.IdempotencyStore
	GuardTTL    time.Duration
	FailOpen    bool
	Enricher    ports.EnrichmentProvider
	Scorer      ports.ModelScorer
	CRM         ports.CRMClient
	Similarity  ports.SimilarityStore
	Narrator    ports.NarrativeGenerator
	Notifier    ports.Notifier
	Territories ports.TerritoryResolver
	Leads       ports.LeadStore
	Logger      *slog.Logger
}

// Orchestrator owns per-lead execution: the idempotency gate, the step
// sequence with its one conditional fork, terminal persistence and the
// invoke/retry/getState operations.
type Orchestrator struct {
	cfg    Config
	logger *slog.Logger
}

// New validates the wiring and builds an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	switch {
	case cfg.Guard == nil:
		return nil, fmt.Errorf("orchestrator: idempotency guard is required")
	case cfg.Enricher == nil:
		return nil, fmt.Errorf("orchestrator: enrichment provider is required")
	case cfg.Scorer == nil:
		return nil, fmt.Errorf("orchestrator: model scorer is required")
	case cfg.CRM == nil:
		return nil, fmt.Errorf("orchestrator: crm client is required")
	case cfg.Similarity == nil:
		return nil, fmt.Errorf("orchestrator: similarity store is required")
	case cfg.Narrator == nil:
		return nil, fmt.Errorf("orchestrator: narrative generator is required")
	case cfg.Notifier == nil:
		return nil, fmt.Errorf("orchestrator: notifier is required")
	case cfg.Territories == nil:
		return nil, fmt.Errorf("orchestrator: territory table is required")
	case cfg.Leads == nil:
		return nil, fmt.Errorf("orchestrator: lead store is required")
	}

	if cfg.GuardTTL <= 0 {
		cfg.GuardTTL = time.Hour
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{cfg: cfg, logger: logger}, nil
}

// Invoke processes one inbound payload through the full pipeline. It
// returns the terminal lead record, or a RejectionError for duplicates,
// guard-store outages (fail-closed) and unparseable payloads. Once the
// guard is passed, the run goes to completion; collaborator failures
// degrade into the record's errors list instead of aborting.
func (o *Orchestrator) Invoke(ctx context.Context, raw map[string]any) (*domain.LeadRecord, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput("payload is not a mapping")
	}

	var generatedID string
	key := guardKey(raw)
	if key == "" {
		// Nothing to deduplicate on. Process under a generated identity
		// rather than dropping the lead.
		key = uuid.New().String()
		generatedID = key
		o.logger.Warn("payload has no event id or email, generated identity", slog.String("key", key))
	} else {
		acquired, err := o.cfg.Guard.Acquire(ctx, key, o.cfg.GuardTTL)
		if err != nil {
			if !o.cfg.FailOpen {
				return nil, domain.ErrInfrastructure(err)
			}
			o.logger.Error("idempotency store unavailable, processing without dedup guarantee",
				slog.String("key", key), slog.String("error", err.Error()))
		} else if !acquired {
			o.logger.Info("duplicate lead ignored", slog.String("key", key))
			return nil, domain.ErrDuplicate(key)
		}
	}

	lead := domain.NewLeadRecord(raw)
	lead.LeadID = generatedID
	return o.run(ctx, lead)
}

// Retry re-runs the whole pipeline from Capture on a previously captured
// payload, bypassing the idempotency gate. It is an explicit operator
// action: steps are idempotent to recompute, and the lead keeps its
// identity so no duplicate is created.
func (o *Orchestrator) Retry(ctx context.Context, leadID string) (*domain.LeadRecord, error) {
	stored, err := o.cfg.Leads.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}

	lead := domain.NewLeadRecord(stored.Raw)
	lead.LeadID = stored.LeadID
	lead.CreatedAt = stored.CreatedAt

	o.logger.Info("retrying lead", slog.String("lead_id", leadID))
	return o.run(ctx, lead)
}

// GetState returns the stored terminal record for a lead.
func (o *Orchestrator) GetState(ctx context.Context, leadID string) (*domain.LeadRecord, error) {
	return o.cfg.Leads.GetLead(ctx, leadID)
}

// run drives the state machine to stateDone and persists the terminal
// record. Each step's duration is logged.
func (o *Orchestrator) run(ctx context.Context, lead *domain.LeadRecord) (*domain.LeadRecord, error) {
	current := stateCapture

	for current != stateDone {
		next := current
		started := time.Now()

		switch current {
		case stateCapture:
			Capture(lead)
			next = stateEnrich

		case stateEnrich:
			Enrich(ctx, o.cfg.Enricher, lead)
			next = stateScore

		case stateScore:
			Score(ctx, o.cfg.Scorer, lead, o.logger)
			switch Decide(lead, o.cfg.Territories) {
			case domain.PathQualify:
				next = stateRoute
			case domain.PathNurture:
				next = stateNurture
			default:
				next = stateSummarize
			}

		case stateRoute:
			Route(ctx, o.cfg.Territories, o.cfg.CRM, lead)
			next = stateSummarize

		case stateSummarize:
			Summarize(ctx, o.cfg.Similarity, o.cfg.Narrator, lead)
			o.notify(ctx, lead)
			next = stateDone

		case stateNurture:
			Nurture(ctx, o.cfg.CRM, lead)
			next = stateDone
		}

		o.logger.Info("step completed",
			slog.String("lead_id", lead.LeadID),
			slog.String("step", string(current)),
			slog.Duration("duration", time.Since(started)),
		)
		current = next
	}

	lead.UpdatedAt = time.Now().UTC()
	if err := o.cfg.Leads.SaveLead(ctx, lead); err != nil {
		// The record is still returned; persistence failure only costs
		// getState/retry for this lead.
		lead.AppendError(fmt.Sprintf("persist_failed: %v", err))
		o.logger.Error("failed to persist terminal lead record",
			slog.String("lead_id", lead.LeadID), slog.String("error", err.Error()))
	}

	o.logger.Info("pipeline completed",
		slog.String("lead_id", lead.LeadID),
		slog.String("path", string(lead.DecidedPath)),
		slog.Float64("score", lead.Score),
		slog.Int("errors", len(lead.Errors)),
	)
	return lead, nil
}

// notify sends the post-summarize chat notification: an alert for hot
// leads, the standard message otherwise. Only the qualify and
// manual-review paths reach here.
func (o *Orchestrator) notify(ctx context.Context, lead *domain.LeadRecord) {
	var (
		id     string
		err    error
		prefix string
	)
	if lead.Score >= highPriorityThreshold {
		id, err = o.cfg.Notifier.NotifyHighPriority(ctx, lead)
		prefix = "slack_alert:"
	} else {
		id, err = o.cfg.Notifier.NotifyLead(ctx, lead)
		prefix = "slack:"
	}
	if err != nil {
		lead.AppendError(fmt.Sprintf("notify_failed: %v", err))
		return
	}
	lead.Notifications = append(lead.Notifications, prefix+id)
}

// guardKey is the idempotency key: the external event id when present,
// otherwise the normalized email.
func guardKey(raw map[string]any) string {
	if id := rawString(raw, "event_id"); id != "" {
		return id
	}
	return strings.ToLower(strings.TrimSpace(rawString(raw, "email")))
}
