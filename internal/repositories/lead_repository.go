package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/soinechankit/Soinech-CRM/internal/models"
)

type LeadRepository interface {
	Create(ctx context.Context, lead *models.Lead) error
	GetByID(ctx context.Context, id string) (*models.Lead, error)
	Update(ctx context.Context, lead *models.Lead) error
	UpdateStatus(ctx context.Context, id string, status models.LeadStatus) error
	UpdateAssignee(ctx context.Context, id string, assignee *string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.LeadFilter) ([]*models.Lead, error)
	Count(ctx context.Context, filter models.LeadFilter) (int, error)
}

type leadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) LeadRepository {
	return &leadRepository{db: db}
}

const leadColumns = `id, company_name, contact_name, email, phone, source, status, priority,
	estimated_value, industry, company_size, website, address, city, country, notes,
	assigned_to, created_by, created_at, updated_at`

func scanLead(s scanner) (*models.Lead, error) {
	l := &models.Lead{}
	err := s.Scan(
		&l.ID, &l.CompanyName, &l.ContactName, &l.Email, &l.Phone, &l.Source, &l.Status, &l.Priority,
		&l.EstimatedValue, &l.Industry, &l.CompanySize, &l.Website, &l.Address, &l.City, &l.Country, &l.Notes,
		&l.AssignedTo, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *leadRepository) Create(ctx context.Context, lead *models.Lead) error {
	if lead.ID == "" {
		lead.ID = newID()
	}
	now := time.Now().UTC()
	lead.CreatedAt, lead.UpdatedAt = now, now

	const query = `
		INSERT INTO leads (id, company_name, contact_name, email, phone, source, status, priority,
			estimated_value, industry, company_size, website, address, city, country, notes,
			assigned_to, created_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`
	_, err := r.db.ExecContext(ctx, query,
		lead.ID, lead.CompanyName, lead.ContactName, lead.Email, lead.Phone, lead.Source, lead.Status, lead.Priority,
		lead.EstimatedValue, lead.Industry, lead.CompanySize, lead.Website, lead.Address, lead.City, lead.Country, lead.Notes,
		lead.AssignedTo, lead.CreatedBy, lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

func (r *leadRepository) GetByID(ctx context.Context, id string) (*models.Lead, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	l, err := scanLead(r.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return l, nil
}

func (r *leadRepository) Update(ctx context.Context, lead *models.Lead) error {
	lead.UpdatedAt = time.Now().UTC()
	const query = `
		UPDATE leads SET
			company_name=$1, contact_name=$2, email=$3, phone=$4, source=$5, status=$6, priority=$7,
			estimated_value=$8, industry=$9, company_size=$10, website=$11, address=$12, city=$13,
			country=$14, notes=$15, assigned_to=$16, updated_at=$17
		WHERE id=$18`
	res, err := r.db.ExecContext(ctx, query,
		lead.CompanyName, lead.ContactName, lead.Email, lead.Phone, lead.Source, lead.Status, lead.Priority,
		lead.EstimatedValue, lead.Industry, lead.CompanySize, lead.Website, lead.Address, lead.City,
		lead.Country, lead.Notes, lead.AssignedTo, lead.UpdatedAt, lead.ID,
	)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	return expectOne(res)
}

func (r *leadRepository) UpdateStatus(ctx context.Context, id string, status models.LeadStatus) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE leads SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	if err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}
	return expectOne(res)
}

func (r *leadRepository) UpdateAssignee(ctx context.Context, id string, assignee *string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE leads SET assigned_to=$1, updated_at=NOW() WHERE id=$2`, assignee, id)
	if err != nil {
		return fmt.Errorf("assign lead: %w", err)
	}
	return expectOne(res)
}

func (r *leadRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM leads WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	return expectOne(res)
}

func leadConditions(f models.LeadFilter) *conditions {
	c := &conditions{}
	if f.Status != nil {
		c.add("status = $%d", *f.Status)
	}
	if f.Source != nil {
		c.add("source = $%d", *f.Source)
	}
	if f.Priority != nil {
		c.add("priority = $%d", *f.Priority)
	}
	if f.AssignedTo != nil {
		c.add("assigned_to = $%d", *f.AssignedTo)
	}
	if f.Search != "" {
		c.add("(company_name ILIKE $%[1]d OR contact_name ILIKE $%[1]d OR email ILIKE $%[1]d)", "%"+f.Search+"%")
	}
	return c
}

var leadSortFields = map[string]bool{
	"created_at":      true,
	"updated_at":      true,
	"company_name":    true,
	"estimated_value": true,
	"status":          true,
	"priority":        true,
}

func (r *leadRepository) List(ctx context.Context, f models.LeadFilter) ([]*models.Lead, error) {
	sortBy := f.SortBy
	if !leadSortFields[sortBy] {
		sortBy = "created_at"
	}
	c := leadConditions(f)
	query := `SELECT ` + leadColumns + ` FROM leads` + c.where() +
		fmt.Sprintf(" ORDER BY %s %s", sortBy, normalizeOrder(f.Order)) + c.page(f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	out := []*models.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *leadRepository) Count(ctx context.Context, f models.LeadFilter) (int, error) {
	c := leadConditions(f)
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`+c.where(), c.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return n, nil
}
