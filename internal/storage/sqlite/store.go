// Package sqlite is the durable LeadStore. Each lead is stored as one row
// with the structured fields that back queries in columns and the full
// record as JSON.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ZackHiRo/revops-lead-router/internal/domain"
	"github.com/ZackHiRo/revops-lead-router/internal/ports"
)

type Store struct {
	db *sql.DB
}

var _ ports.LeadStore = (*Store)(nil)

// New opens (creating if needed) the database at dbPath.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS leads (
		lead_id TEXT PRIMARY KEY,
		email TEXT,
		score REAL NOT NULL DEFAULT 0,
		decided_path TEXT,
		owner TEXT,
		crm_record_id TEXT,
		record TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	return err
}

// SaveLead upserts the terminal record for a lead. Retried runs overwrite
// the previous terminal state under the same lead id.
func (s *Store) SaveLead(ctx context.Context, lead *domain.LeadRecord) error {
	lead.UpdatedAt = time.Now().UTC()

	record, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("marshal lead record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO leads
		(lead_id, email, score, decided_path, owner, crm_record_id, record, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(lead_id) DO UPDATE SET
			email = excluded.email,
			score = excluded.score,
			decided_path = excluded.decided_path,
			owner = excluded.owner,
			crm_record_id = excluded.crm_record_id,
			record = excluded.record,
			updated_at = excluded.updated_at`,
		lead.LeadID,
		lead.NormalizedString("email"),
		lead.Score,
		string(lead.DecidedPath),
		lead.Owner,
		lead.CRMRecordID,
		string(record),
		lead.CreatedAt,
		lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save lead %s: %w", lead.LeadID, err)
	}
	return nil
}

func (s *Store) GetLead(ctx context.Context, leadID string) (*domain.LeadRecord, error) {
	var record string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM leads WHERE lead_id = ?`, leadID).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get lead %s: %w", leadID, err)
	}

	var lead domain.LeadRecord
	if err := json.Unmarshal([]byte(record), &lead); err != nil {
		return nil, fmt.Errorf("unmarshal lead %s: %w", leadID, err)
	}
	return &lead, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
