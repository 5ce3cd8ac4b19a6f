// Package memory is an in-memory LeadStore for tests and single-process
// deployments without durability requirements.
package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ZackHiRo/revops-lead-router/internal/domain"
	"github.com/ZackHiRo/revops-lead-router/internal/ports"
)

// Store keeps terminal lead records keyed by lead id.
type Store struct {
	mu    sync.RWMutex
	leads map[string][]byte
}

var _ ports.LeadStore = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{leads: make(map[string][]byte)}
}

// SaveLead stores a deep copy of the record so later pipeline runs cannot
// alias stored state.
func (s *Store) SaveLead(ctx context.Context, lead *domain.LeadRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lead.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(lead)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[lead.LeadID] = data
	return nil
}

func (s *Store) GetLead(ctx context.Context, leadID string) (*domain.LeadRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, ok := s.leads[leadID]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrNotFound
	}

	var lead domain.LeadRecord
	if err := json.Unmarshal(data, &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}
