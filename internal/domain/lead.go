// Package domain holds the lead record and the error taxonomy shared by
// every pipeline step and collaborator.
package domain

import "time"

// Path is the branch the pipeline decided for a lead.
type Path string

const (
	PathUnset        Path = ""
	PathQualify      Path = "qualify"
	PathManualReview Path = "manual_review"
	PathNurture      Path = "nurture"
)

// SimilarAccount is one ranked similarity match from the vector store.
type SimilarAccount struct {
	Account string `json:"account"`
	Outcome string `json:"outcome"`
	Reason  string `json:"reason"`
}

// LeadRecord is the single mutable entity threaded through the pipeline.
// Raw and LeadID are write-once; every other field is owned by exactly one
// step and must not be touched downstream of it.
type LeadRecord struct {
	LeadID          string           `json:"lead_id"`
	Raw             map[string]any   `json:"raw"`
	Normalized      map[string]any   `json:"normalized"`
	Enrichment      map[string]any   `json:"enrichment"`
	Score           float64          `json:"score"`
	ScoreReasons    []string         `json:"score_reasons"`
	Owner           string           `json:"owner,omitempty"`
	RouteReason     string           `json:"route_reason,omitempty"`
	SimilarAccounts []SimilarAccount `json:"similar_accounts"`
	Summary         string           `json:"summary,omitempty"`
	CRMRecordID     string           `json:"crm_record_id,omitempty"`
	Notifications   []string         `json:"notifications"`
	Errors          []string         `json:"errors"`
	DecidedPath     Path             `json:"decided_path"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// NewLeadRecord starts a record from the inbound payload. The lead id is
// assigned later by the capture step once the email has been normalized.
func NewLeadRecord(raw map[string]any) *LeadRecord {
	now := time.Now().UTC()
	return &LeadRecord{
		Raw:             raw,
		Normalized:      map[string]any{},
		Enrichment:      map[string]any{},
		ScoreReasons:    []string{},
		SimilarAccounts: []SimilarAccount{},
		Notifications:   []string{},
		Errors:          []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// AppendError records a non-fatal step failure. Errors are observational
// only; they never stop the pipeline.
func (l *LeadRecord) AppendError(msg string) {
	l.Errors = append(l.Errors, msg)
}

// NormalizedString returns a normalized field as a string, empty when the
// field is missing or not a string.
func (l *LeadRecord) NormalizedString(key string) string {
	if l.Normalized == nil {
		return ""
	}
	s, _ := l.Normalized[key].(string)
	return s
}

// Clamp01 bounds v to the [0, 1] score range.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
