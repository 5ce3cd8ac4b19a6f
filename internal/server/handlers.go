package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ZackHiRo/revops-lead-router/internal/domain"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// LeadProcessor is the orchestrator boundary the handlers call into.
type LeadProcessor interface {
	Invoke(ctx context.Context, raw map[string]any) (*domain.LeadRecord, error)
	Retry(ctx context.Context, leadID string) (*domain.LeadRecord, error)
	GetState(ctx context.Context, leadID string) (*domain.LeadRecord, error)
}

// Handler exposes the lead router over HTTP.
type Handler struct {
	processor LeadProcessor
	logger    *slog.Logger
}

// NewHandler creates the handler set.
func NewHandler(processor LeadProcessor, logger *slog.Logger) *Handler {
	return &Handler{processor: processor, logger: logger}
}

// Register mounts the routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/webhooks/lead", h.IngestLead)
	r.Get("/healthz", h.Health)
	r.Get("/admin/leads/{leadID}", h.GetLead)
	r.Post("/admin/retry/{leadID}", h.RetryLead)
}

type invokeResponse struct {
	Status         string   `json:"status"`
	LeadID         string   `json:"lead_id,omitempty"`
	Score          float64  `json:"score,omitempty"`
	Owner          string   `json:"owner,omitempty"`
	Path           string   `json:"path,omitempty"`
	CRMID          string   `json:"crm_id,omitempty"`
	Errors         []string `json:"errors,omitempty"`
	ProcessingTime float64  `json:"processing_time,omitempty"`
	Message        string   `json:"message,omitempty"`
}

// IngestLead is the inbound webhook. Once the idempotency gate is passed
// the run goes to completion even if the caller goes away, so the pipeline
// gets a context detached from the request's cancellation.
func (h *Handler) IngestLead(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, invokeResponse{
			Status:  "error",
			Message: "payload is not a JSON object",
		})
		return
	}

	lead, err := h.processor.Invoke(context.WithoutCancel(r.Context()), payload)
	if err != nil {
		h.writeRejection(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, invokeResponse{
		Status:         "success",
		LeadID:         lead.LeadID,
		Score:          lead.Score,
		Owner:          lead.Owner,
		Path:           string(lead.DecidedPath),
		CRMID:          lead.CRMRecordID,
		Errors:         lead.Errors,
		ProcessingTime: time.Since(start).Seconds(),
	})
}

// GetLead returns the stored terminal record for a lead.
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadID")

	lead, err := h.processor.GetState(r.Context(), leadID)
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, invokeResponse{Status: "not_found", LeadID: leadID})
		return
	}
	if err != nil {
		h.logger.Error("get lead failed", slog.String("lead_id", leadID), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, invokeResponse{Status: "error"})
		return
	}

	writeJSON(w, http.StatusOK, lead)
}

// RetryLead re-runs the pipeline for a stored lead, bypassing the
// idempotency gate. Operator action.
func (h *Handler) RetryLead(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadID")

	lead, err := h.processor.Retry(context.WithoutCancel(r.Context()), leadID)
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, invokeResponse{Status: "not_found", LeadID: leadID})
		return
	}
	if err != nil {
		h.writeRejection(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, invokeResponse{
		Status: "retried",
		LeadID: lead.LeadID,
		Score:  lead.Score,
		Owner:  lead.Owner,
		Path:   string(lead.DecidedPath),
		CRMID:  lead.CRMRecordID,
		Errors: lead.Errors,
	})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"version":   Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// writeRejection maps the rejection taxonomy onto status codes. Duplicates
// are an acknowledged outcome, not a client error.
func (h *Handler) writeRejection(w http.ResponseWriter, r *http.Request, err error) {
	rej := domain.RejectionOf(err)
	if rej == nil {
		h.logger.Error("lead processing failed",
			slog.String("request_id", GetRequestID(r.Context())),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, invokeResponse{Status: "error", Message: "internal server error"})
		return
	}

	switch rej.Kind {
	case domain.RejectionDuplicate:
		writeJSON(w, http.StatusOK, invokeResponse{
			Status:  "duplicate_ignored",
			Message: "lead already processed",
		})
	case domain.RejectionInvalidInput:
		writeJSON(w, http.StatusBadRequest, invokeResponse{
			Status:  "error",
			Message: rej.Reason,
		})
	case domain.RejectionInfrastructure:
		writeJSON(w, http.StatusServiceUnavailable, invokeResponse{
			Status:  "unavailable",
			Message: "idempotency store unavailable",
		})
	default:
		writeJSON(w, http.StatusInternalServerError, invokeResponse{Status: "error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
