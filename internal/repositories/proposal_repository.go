package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/soinechankit/Soinech-CRM/internal/models"
)

type ProposalRepository interface {
	Create(ctx context.Context, p *models.Proposal) error
	GetByID(ctx context.Context, id string) (*models.Proposal, error)
	Update(ctx context.Context, p *models.Proposal) error
	UpdateStatus(ctx context.Context, id string, status models.ProposalStatus) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.ProposalFilter) ([]*models.Proposal, error)
}

type proposalRepository struct {
	db *sql.DB
}

func NewProposalRepository(db *sql.DB) ProposalRepository {
	return &proposalRepository{db: db}
}

const proposalColumns = `id, title, description, lead_id, deal_id, status, total_value, valid_until,
	items, created_by, created_at, updated_at`

func scanProposal(s scanner) (*models.Proposal, error) {
	p := &models.Proposal{}
	var items []byte
	err := s.Scan(
		&p.ID, &p.Title, &p.Description, &p.LeadID, &p.DealID, &p.Status, &p.TotalValue, &p.ValidUntil,
		&items, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Items = []models.ProposalItem{}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &p.Items); err != nil {
			return nil, fmt.Errorf("decode proposal items: %w", err)
		}
	}
	return p, nil
}

func encodeItems(items []models.ProposalItem) ([]byte, error) {
	if items == nil {
		items = []models.ProposalItem{}
	}
	return json.Marshal(items)
}

func (r *proposalRepository) Create(ctx context.Context, p *models.Proposal) error {
	if p.ID == "" {
		p.ID = newID()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	items, err := encodeItems(p.Items)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO proposals (id, title, description, lead_id, deal_id, status, total_value, valid_until,
			items, created_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.Title, p.Description, p.LeadID, p.DealID, p.Status, p.TotalValue, p.ValidUntil,
		items, p.CreatedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create proposal: %w", err)
	}
	return nil
}

func (r *proposalRepository) GetByID(ctx context.Context, id string) (*models.Proposal, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	p, err := scanProposal(r.db.QueryRowContext(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *proposalRepository) Update(ctx context.Context, p *models.Proposal) error {
	p.UpdatedAt = time.Now().UTC()
	items, err := encodeItems(p.Items)
	if err != nil {
		return err
	}
	const query = `
		UPDATE proposals SET
			title=$1, description=$2, lead_id=$3, deal_id=$4, status=$5, total_value=$6,
			valid_until=$7, items=$8, updated_at=$9
		WHERE id=$10`
	res, err := r.db.ExecContext(ctx, query,
		p.Title, p.Description, p.LeadID, p.DealID, p.Status, p.TotalValue,
		p.ValidUntil, items, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update proposal: %w", err)
	}
	return expectOne(res)
}

func (r *proposalRepository) UpdateStatus(ctx context.Context, id string, status models.ProposalStatus) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE proposals SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	if err != nil {
		return fmt.Errorf("update proposal status: %w", err)
	}
	return expectOne(res)
}

func (r *proposalRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM proposals WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete proposal: %w", err)
	}
	return expectOne(res)
}

func (r *proposalRepository) List(ctx context.Context, f models.ProposalFilter) ([]*models.Proposal, error) {
	c := &conditions{}
	if f.Status != nil {
		c.add("status = $%d", *f.Status)
	}
	if f.LeadID != nil {
		c.add("lead_id = $%d", *f.LeadID)
	}
	if f.DealID != nil {
		c.add("deal_id = $%d", *f.DealID)
	}
	if f.CreatedBy != nil {
		c.add("created_by = $%d", *f.CreatedBy)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+proposalColumns+` FROM proposals`+c.where()+` ORDER BY created_at DESC`, c.args...)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	out := []*models.Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
