package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/soinechankit/Soinech-CRM/internal/models"
)

type LeadNoteRepository interface {
	Create(ctx context.Context, note *models.LeadNote) error
	ListByLead(ctx context.Context, leadID string) ([]*models.LeadNote, error)
}

type leadNoteRepository struct {
	db *sql.DB
}

func NewLeadNoteRepository(db *sql.DB) LeadNoteRepository {
	return &leadNoteRepository{db: db}
}

func (r *leadNoteRepository) Create(ctx context.Context, note *models.LeadNote) error {
	if note.ID == "" {
		note.ID = newID()
	}
	note.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO lead_notes (id, lead_id, content, note_type, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		note.ID, note.LeadID, note.Content, note.NoteType, note.CreatedBy, note.CreatedAt)
	if err != nil {
		return fmt.Errorf("create lead note: %w", err)
	}
	return nil
}

// ListByLead returns notes newest first.
func (r *leadNoteRepository) ListByLead(ctx context.Context, leadID string) ([]*models.LeadNote, error) {
	if !validID(leadID) {
		return []*models.LeadNote{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lead_id, content, note_type, created_by, created_at
		FROM lead_notes WHERE lead_id = $1 ORDER BY created_at DESC`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list lead notes: %w", err)
	}
	defer rows.Close()

	out := []*models.LeadNote{}
	for rows.Next() {
		n := &models.LeadNote{}
		if err := rows.Scan(&n.ID, &n.LeadID, &n.Content, &n.NoteType, &n.CreatedBy, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
