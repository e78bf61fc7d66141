package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/soinechankit/Soinech-CRM/internal/models"
)

type FollowUpRepository interface {
	Create(ctx context.Context, f *models.FollowUp) error
	GetByID(ctx context.Context, id string) (*models.FollowUp, error)
	Update(ctx context.Context, f *models.FollowUp) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.FollowUpFilter) ([]*models.FollowUp, error)

	// reminders
	ListDueForReminder(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*models.FollowUp, error)
	SetReminded(ctx context.Context, id string, at time.Time) error
	RecordReminderFailure(ctx context.Context, id string) (int, error)
	SetReminderAttempts(ctx context.Context, id string, attempts int) error
}

type followUpRepository struct {
	db *sql.DB
}

func NewFollowUpRepository(db *sql.DB) FollowUpRepository {
	return &followUpRepository{db: db}
}

const followUpColumns = `id, lead_id, deal_id, title, description, due_date, reminder_date,
	follow_up_type, status, priority, assigned_to, created_by, completed_at, reminded_at,
	reminder_attempts, created_at, updated_at`

func scanFollowUp(s scanner) (*models.FollowUp, error) {
	f := &models.FollowUp{}
	err := s.Scan(
		&f.ID, &f.LeadID, &f.DealID, &f.Title, &f.Description, &f.DueDate, &f.ReminderDate,
		&f.Type, &f.Status, &f.Priority, &f.AssignedTo, &f.CreatedBy, &f.CompletedAt, &f.RemindedAt,
		&f.ReminderAttempts, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *followUpRepository) Create(ctx context.Context, f *models.FollowUp) error {
	if f.ID == "" {
		f.ID = newID()
	}
	now := time.Now().UTC()
	f.CreatedAt, f.UpdatedAt = now, now

	const query = `
		INSERT INTO follow_ups (id, lead_id, deal_id, title, description, due_date, reminder_date,
			follow_up_type, status, priority, assigned_to, created_by, completed_at, reminded_at,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.LeadID, f.DealID, f.Title, f.Description, f.DueDate, f.ReminderDate,
		f.Type, f.Status, f.Priority, f.AssignedTo, f.CreatedBy, f.CompletedAt, f.RemindedAt,
		f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create follow-up: %w", err)
	}
	return nil
}

func (r *followUpRepository) GetByID(ctx context.Context, id string) (*models.FollowUp, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	f, err := scanFollowUp(r.db.QueryRowContext(ctx, `SELECT `+followUpColumns+` FROM follow_ups WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return f, nil
}

func (r *followUpRepository) Update(ctx context.Context, f *models.FollowUp) error {
	f.UpdatedAt = time.Now().UTC()
	const query = `
		UPDATE follow_ups SET
			lead_id=$1, deal_id=$2, title=$3, description=$4, due_date=$5, reminder_date=$6,
			follow_up_type=$7, status=$8, priority=$9, assigned_to=$10, completed_at=$11,
			reminded_at=$12, reminder_attempts=$13, updated_at=$14
		WHERE id=$15`
	res, err := r.db.ExecContext(ctx, query,
		f.LeadID, f.DealID, f.Title, f.Description, f.DueDate, f.ReminderDate,
		f.Type, f.Status, f.Priority, f.AssignedTo, f.CompletedAt,
		f.RemindedAt, f.ReminderAttempts, f.UpdatedAt, f.ID,
	)
	if err != nil {
		return fmt.Errorf("update follow-up: %w", err)
	}
	return expectOne(res)
}

func (r *followUpRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM follow_ups WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete follow-up: %w", err)
	}
	return expectOne(res)
}

// List orders by due date, soonest first.
func (r *followUpRepository) List(ctx context.Context, f models.FollowUpFilter) ([]*models.FollowUp, error) {
	c := &conditions{}
	if f.Status != nil {
		c.add("status = $%d", *f.Status)
	}
	if f.AssignedTo != nil {
		c.add("assigned_to = $%d", *f.AssignedTo)
	}
	if f.LeadID != nil {
		c.add("lead_id = $%d", *f.LeadID)
	}
	if f.DealID != nil {
		c.add("deal_id = $%d", *f.DealID)
	}
	if f.DueFrom != nil {
		c.add("due_date >= $%d", *f.DueFrom)
	}
	if f.DueTo != nil {
		c.add("due_date <= $%d", *f.DueTo)
	}
	query := `SELECT ` + followUpColumns + ` FROM follow_ups` + c.where() +
		` ORDER BY due_date ASC` + c.page(f.Limit, f.Offset)
	return r.query(ctx, query, c.args...)
}

// ListDueForReminder returns unsent reminders that are due and still under
// maxAttempts failures. Rows that never failed come first.
func (r *followUpRepository) ListDueForReminder(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*models.FollowUp, error) {
	query := `SELECT ` + followUpColumns + ` FROM follow_ups
		WHERE status = 'pending'
		  AND reminder_date IS NOT NULL
		  AND reminder_date <= $1
		  AND reminded_at IS NULL
		  AND reminder_attempts < $2
		ORDER BY reminder_attempts ASC, reminder_date ASC
		LIMIT $3`
	return r.query(ctx, query, now, maxAttempts, limit)
}

func (r *followUpRepository) SetReminded(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE follow_ups SET reminded_at=$1, updated_at=NOW() WHERE id=$2`, at, id)
	if err != nil {
		return fmt.Errorf("mark follow-up reminded: %w", err)
	}
	return expectOne(res)
}

// RecordReminderFailure bumps the failure count and returns the new value.
func (r *followUpRepository) RecordReminderFailure(ctx context.Context, id string) (int, error) {
	var attempts int
	err := r.db.QueryRowContext(ctx,
		`UPDATE follow_ups SET reminder_attempts = reminder_attempts + 1, updated_at=NOW()
		 WHERE id=$1 RETURNING reminder_attempts`, id).Scan(&attempts)
	if err != nil {
		return 0, notFound(err)
	}
	return attempts, nil
}

func (r *followUpRepository) SetReminderAttempts(ctx context.Context, id string, attempts int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE follow_ups SET reminder_attempts=$1, updated_at=NOW() WHERE id=$2`, attempts, id)
	if err != nil {
		return fmt.Errorf("set follow-up reminder attempts: %w", err)
	}
	return expectOne(res)
}

func (r *followUpRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.FollowUp, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list follow-ups: %w", err)
	}
	defer rows.Close()

	out := []*models.FollowUp{}
	for rows.Next() {
		f, err := scanFollowUp(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
