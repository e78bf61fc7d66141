package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/soinechankit/Soinech-CRM/internal/logger"
	"github.com/soinechankit/Soinech-CRM/internal/models"
	"github.com/soinechankit/Soinech-CRM/internal/pdf"
	"github.com/soinechankit/Soinech-CRM/internal/repositories"
)

type ProposalService struct {
	Repo    repositories.ProposalRepository
	Catalog repositories.ServiceRepository
	Leads   repositories.LeadRepository
	Deals   repositories.DealRepository
	PDF     pdf.Generator
	Log     *logger.Logger
	now     func() time.Time
}

func NewProposalService(
	repo repositories.ProposalRepository,
	catalog repositories.ServiceRepository,
	leads repositories.LeadRepository,
	deals repositories.DealRepository,
	gen pdf.Generator,
	log *logger.Logger,
) *ProposalService {
	if log == nil {
		log = logger.Nop()
	}
	return &ProposalService{
		Repo: repo, Catalog: catalog, Leads: leads, Deals: deals,
		PDF: gen, Log: log, now: time.Now,
	}
}

// prepare validates p and prices its items. Items pointing at a catalog
// service inherit its name and base price when they do not carry their own.
func (s *ProposalService) prepare(ctx context.Context, p *models.Proposal) error {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	for i := range p.Items {
		it := &p.Items[i]
		if it.Quantity < 1 {
			return &ValidationError{Field: "items", Message: "quantity must be at least 1"}
		}
		if it.UnitPrice.IsNegative() {
			return &ValidationError{Field: "items", Message: "unit price must not be negative"}
		}
		if it.ServiceID == nil || s.Catalog == nil {
			continue
		}
		svc, err := s.Catalog.GetByID(ctx, *it.ServiceID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return &ValidationError{Field: "items", Message: "unknown service " + *it.ServiceID}
			}
			return storeErr("get service", err)
		}
		if strings.TrimSpace(it.Name) == "" {
			it.Name = svc.Name
		}
		if it.UnitPrice.IsZero() {
			it.UnitPrice = svc.BasePrice
		}
	}
	p.RecalculateTotal()
	if p.TotalValue.IsNegative() {
		return &ValidationError{Field: "total_value", Message: "must not be negative"}
	}
	return nil
}

func (s *ProposalService) Create(ctx context.Context, p *models.Proposal) error {
	p.Status = models.ProposalDraft
	if err := s.prepare(ctx, p); err != nil {
		return err
	}
	return storeErr("create proposal", s.Repo.Create(ctx, p))
}

func (s *ProposalService) GetByID(ctx context.Context, id string) (*models.Proposal, error) {
	p, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get proposal", err)
	}
	return p, nil
}

func (s *ProposalService) List(ctx context.Context, f models.ProposalFilter) ([]*models.Proposal, error) {
	out, err := s.Repo.List(ctx, f)
	if err != nil {
		return nil, storeErr("list proposals", err)
	}
	return out, nil
}

// Update replaces the editable fields. Status only moves through UpdateStatus.
func (s *ProposalService) Update(ctx context.Context, id string, in *models.Proposal) (*models.Proposal, error) {
	existing, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get proposal", err)
	}
	existing.Title = in.Title
	existing.Description = in.Description
	existing.LeadID = in.LeadID
	existing.DealID = in.DealID
	existing.ValidUntil = in.ValidUntil
	existing.Items = in.Items
	if len(in.Items) == 0 {
		existing.TotalValue = in.TotalValue
	}
	if err := s.prepare(ctx, existing); err != nil {
		return nil, err
	}
	if err := s.Repo.Update(ctx, existing); err != nil {
		return nil, storeErr("update proposal", err)
	}
	return existing, nil
}

func (s *ProposalService) UpdateStatus(ctx context.Context, id string, to models.ProposalStatus) (*models.Proposal, error) {
	p, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get proposal", err)
	}
	if !canTransition(string(p.Status), string(to), ProposalTransitions) {
		return nil, ErrInvalidTransition
	}
	if err := s.Repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, storeErr("update proposal status", err)
	}
	s.Log.Infof("[proposal][status] %s: %s -> %s", id, p.Status, to)
	p.Status = to
	return p, nil
}

func (s *ProposalService) Delete(ctx context.Context, id string) error {
	return storeErr("delete proposal", s.Repo.Delete(ctx, id))
}

// RenderPDF writes the proposal document to w. The client name comes from the
// linked lead, or from the linked deal when there is no lead.
func (s *ProposalService) RenderPDF(ctx context.Context, p *models.Proposal, w io.Writer) error {
	return s.PDF.RenderProposal(w, pdf.ProposalData{
		Proposal:   p,
		ClientName: s.clientName(ctx, p),
		IssuedAt:   s.now(),
	})
}

func (s *ProposalService) clientName(ctx context.Context, p *models.Proposal) string {
	if p.LeadID != nil && s.Leads != nil {
		if l, err := s.Leads.GetByID(ctx, *p.LeadID); err == nil {
			return l.CompanyName
		}
	}
	if p.DealID != nil && s.Deals != nil {
		if d, err := s.Deals.GetByID(ctx, *p.DealID); err == nil {
			if d.LeadCompany != nil {
				return *d.LeadCompany
			}
			return d.Title
		}
	}
	return ""
}
