package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/soinechankit/Soinech-CRM/internal/models"
)

// ServiceRepository stores the catalog of offerings.
type ServiceRepository interface {
	Create(ctx context.Context, s *models.Service) error
	GetByID(ctx context.Context, id string) (*models.Service, error)
	Update(ctx context.Context, s *models.Service) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, activeOnly bool) ([]*models.Service, error)
}

type serviceRepository struct {
	db *sql.DB
}

func NewServiceRepository(db *sql.DB) ServiceRepository {
	return &serviceRepository{db: db}
}

const serviceColumns = `id, name, category, description, base_price, price_type, is_active, created_at, updated_at`

func scanService(s scanner) (*models.Service, error) {
	v := &models.Service{}
	if err := s.Scan(&v.ID, &v.Name, &v.Category, &v.Description, &v.BasePrice, &v.PriceType,
		&v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *serviceRepository) Create(ctx context.Context, s *models.Service) error {
	if s.ID == "" {
		s.ID = newID()
	}
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO services (`+serviceColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		s.ID, s.Name, s.Category, s.Description, s.BasePrice, s.PriceType, s.IsActive, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}

func (r *serviceRepository) GetByID(ctx context.Context, id string) (*models.Service, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	s, err := scanService(r.db.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r *serviceRepository) Update(ctx context.Context, s *models.Service) error {
	s.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE services SET name=$1, category=$2, description=$3, base_price=$4, price_type=$5,
			is_active=$6, updated_at=$7
		WHERE id=$8`,
		s.Name, s.Category, s.Description, s.BasePrice, s.PriceType, s.IsActive, s.UpdatedAt, s.ID)
	if err != nil {
		return fmt.Errorf("update service: %w", err)
	}
	return expectOne(res)
}

func (r *serviceRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM services WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	return expectOne(res)
}

func (r *serviceRepository) List(ctx context.Context, activeOnly bool) ([]*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY category, name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	out := []*models.Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
