package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/soinechankit/Soinech-CRM/internal/models"
)

type DealRepository interface {
	Create(ctx context.Context, deal *models.Deal) error
	GetByID(ctx context.Context, id string) (*models.Deal, error)
	GetByLeadID(ctx context.Context, leadID string) (*models.Deal, error)
	Update(ctx context.Context, deal *models.Deal) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.DealFilter) ([]*models.Deal, error)
}

type dealRepository struct {
	db *sql.DB
}

func NewDealRepository(db *sql.DB) DealRepository {
	return &dealRepository{db: db}
}

const dealSelect = `
	SELECT d.id, d.lead_id, d.title, d.value, d.stage, d.probability, d.expected_close_date,
	       d.actual_close_date, d.loss_reason, d.assigned_to, d.created_by, d.created_at, d.updated_at,
	       l.company_name
	FROM deals d
	LEFT JOIN leads l ON l.id = d.lead_id`

func scanDeal(s scanner) (*models.Deal, error) {
	d := &models.Deal{}
	err := s.Scan(
		&d.ID, &d.LeadID, &d.Title, &d.Value, &d.Stage, &d.Probability, &d.ExpectedCloseDate,
		&d.ActualCloseDate, &d.LossReason, &d.AssignedTo, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
		&d.LeadCompany,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Create inserts the deal. A second deal for the same lead fails with
// ErrDuplicate.
func (r *dealRepository) Create(ctx context.Context, deal *models.Deal) error {
	if deal.ID == "" {
		deal.ID = newID()
	}
	now := time.Now().UTC()
	deal.CreatedAt, deal.UpdatedAt = now, now

	const query = `
		INSERT INTO deals (id, lead_id, title, value, stage, probability, expected_close_date,
			actual_close_date, loss_reason, assigned_to, created_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	_, err := r.db.ExecContext(ctx, query,
		deal.ID, deal.LeadID, deal.Title, deal.Value, deal.Stage, deal.Probability, deal.ExpectedCloseDate,
		deal.ActualCloseDate, deal.LossReason, deal.AssignedTo, deal.CreatedBy, deal.CreatedAt, deal.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create deal: %w", err)
	}
	return nil
}

func (r *dealRepository) GetByID(ctx context.Context, id string) (*models.Deal, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	d, err := scanDeal(r.db.QueryRowContext(ctx, dealSelect+` WHERE d.id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

func (r *dealRepository) GetByLeadID(ctx context.Context, leadID string) (*models.Deal, error) {
	if !validID(leadID) {
		return nil, ErrNotFound
	}
	d, err := scanDeal(r.db.QueryRowContext(ctx,
		dealSelect+` WHERE d.lead_id = $1 ORDER BY d.created_at DESC LIMIT 1`, leadID))
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

// Update writes every mutable column, stage side effects included.
func (r *dealRepository) Update(ctx context.Context, deal *models.Deal) error {
	deal.UpdatedAt = time.Now().UTC()
	const query = `
		UPDATE deals SET
			lead_id=$1, title=$2, value=$3, stage=$4, probability=$5, expected_close_date=$6,
			actual_close_date=$7, loss_reason=$8, assigned_to=$9, updated_at=$10
		WHERE id=$11`
	res, err := r.db.ExecContext(ctx, query,
		deal.LeadID, deal.Title, deal.Value, deal.Stage, deal.Probability, deal.ExpectedCloseDate,
		deal.ActualCloseDate, deal.LossReason, deal.AssignedTo, deal.UpdatedAt, deal.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update deal: %w", err)
	}
	return expectOne(res)
}

func (r *dealRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}
	return expectOne(res)
}

var dealSortFields = map[string]string{
	"created_at":          "d.created_at",
	"updated_at":          "d.updated_at",
	"value":               "d.value",
	"stage":               "d.stage",
	"expected_close_date": "d.expected_close_date",
	"title":               "d.title",
}

func (r *dealRepository) List(ctx context.Context, f models.DealFilter) ([]*models.Deal, error) {
	c := &conditions{}
	if len(f.Stages) > 0 {
		stages := make([]string, len(f.Stages))
		for i, s := range f.Stages {
			stages[i] = string(s)
		}
		c.add("d.stage = ANY($%d)", pq.Array(stages))
	}
	if f.AssignedTo != nil {
		c.add("d.assigned_to = $%d", *f.AssignedTo)
	}
	if f.LeadID != nil {
		c.add("d.lead_id = $%d", *f.LeadID)
	}
	if f.From != nil {
		c.add("d.created_at >= $%d", *f.From)
	}
	if f.To != nil {
		c.add("d.created_at <= $%d", *f.To)
	}

	sortBy, ok := dealSortFields[f.SortBy]
	if !ok {
		sortBy = "d.created_at"
	}
	query := dealSelect + c.where() +
		fmt.Sprintf(" ORDER BY %s %s", sortBy, normalizeOrder(f.Order)) + c.page(f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	defer rows.Close()

	out := []*models.Deal{}
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
