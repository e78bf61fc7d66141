package services

import (
	"context"
	"strings"

	"github.com/soinechankit/Soinech-CRM/internal/models"
	"github.com/soinechankit/Soinech-CRM/internal/repositories"
)

// CatalogService manages the offerings proposals are priced from.
type CatalogService struct {
	Repo repositories.ServiceRepository
}

func NewCatalogService(repo repositories.ServiceRepository) *CatalogService {
	return &CatalogService{Repo: repo}
}

func validateService(s *models.Service) error {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if s.BasePrice.IsNegative() {
		return &ValidationError{Field: "base_price", Message: "must not be negative"}
	}
	if s.PriceType == "" {
		s.PriceType = models.PriceFixed
	}
	return nil
}

func (c *CatalogService) Create(ctx context.Context, s *models.Service) error {
	if err := validateService(s); err != nil {
		return err
	}
	return storeErr("create service", c.Repo.Create(ctx, s))
}

func (c *CatalogService) GetByID(ctx context.Context, id string) (*models.Service, error) {
	s, err := c.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get service", err)
	}
	return s, nil
}

func (c *CatalogService) Update(ctx context.Context, s *models.Service) error {
	if err := validateService(s); err != nil {
		return err
	}
	return storeErr("update service", c.Repo.Update(ctx, s))
}

func (c *CatalogService) Delete(ctx context.Context, id string) error {
	return storeErr("delete service", c.Repo.Delete(ctx, id))
}

func (c *CatalogService) List(ctx context.Context, activeOnly bool) ([]*models.Service, error) {
	out, err := c.Repo.List(ctx, activeOnly)
	if err != nil {
		return nil, storeErr("list services", err)
	}
	return out, nil
}
