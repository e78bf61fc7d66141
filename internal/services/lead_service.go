package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/soinechankit/Soinech-CRM/internal/logger"
	"github.com/soinechankit/Soinech-CRM/internal/models"
	"github.com/soinechankit/Soinech-CRM/internal/pipeline"
	"github.com/soinechankit/Soinech-CRM/internal/repositories"
	"github.com/soinechankit/Soinech-CRM/internal/utils"
)

// Notifier delivers an in-app notification to one user.
type Notifier interface {
	Notify(ctx context.Context, userID, title, body string) error
}

type LeadService struct {
	Repo     repositories.LeadRepository
	DealRepo repositories.DealRepository
	Notes    repositories.LeadNoteRepository
	Notifier Notifier
	Log      *logger.Logger
	Region   string
}

func NewLeadService(
	leadRepo repositories.LeadRepository,
	dealRepo repositories.DealRepository,
	notes repositories.LeadNoteRepository,
	notifier Notifier,
	log *logger.Logger,
) *LeadService {
	if log == nil {
		log = logger.Nop()
	}
	return &LeadService{
		Repo:     leadRepo,
		DealRepo: dealRepo,
		Notes:    notes,
		Notifier: notifier,
		Log:      log,
		Region:   utils.DefaultRegion,
	}
}

func (s *LeadService) prepare(lead *models.Lead) error {
	lead.CompanyName = strings.TrimSpace(lead.CompanyName)
	lead.ContactName = strings.TrimSpace(lead.ContactName)
	lead.Email = strings.TrimSpace(lead.Email)
	if lead.Source == "" {
		lead.Source = models.SourceOther
	}
	if lead.Status == "" {
		lead.Status = models.LeadNew
	}
	if lead.Priority == "" {
		lead.Priority = models.PriorityMedium
	}
	if lead.EstimatedValue.Valid && lead.EstimatedValue.Decimal.IsNegative() {
		return &ValidationError{Field: "estimated_value", Message: "must not be negative"}
	}
	if lead.Phone != nil {
		raw := strings.TrimSpace(*lead.Phone)
		if raw == "" {
			lead.Phone = nil
			return nil
		}
		e164, err := utils.NormalizePhone(raw, s.Region)
		if err != nil {
			return &ValidationError{Field: "phone", Message: "is not a valid phone number"}
		}
		lead.Phone = &e164
	}
	return nil
}

func (s *LeadService) Create(ctx context.Context, lead *models.Lead) error {
	if err := s.prepare(lead); err != nil {
		return err
	}
	if err := s.Repo.Create(ctx, lead); err != nil {
		return storeErr("create lead", err)
	}
	return nil
}

// Update writes the edited fields and status together. A status change must
// be allowed from the stored status; otherwise nothing is written.
func (s *LeadService) Update(ctx context.Context, lead *models.Lead) error {
	if err := s.prepare(lead); err != nil {
		return err
	}
	stored, err := s.Repo.GetByID(ctx, lead.ID)
	if err != nil {
		return storeErr("get lead", err)
	}
	if !canTransition(string(stored.Status), string(lead.Status), LeadTransitions) {
		return ErrInvalidTransition
	}
	return storeErr("update lead", s.Repo.Update(ctx, lead))
}

func (s *LeadService) GetByID(ctx context.Context, id string) (*models.Lead, error) {
	lead, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get lead", err)
	}
	return lead, nil
}

// List returns one page plus the total matching the filter.
func (s *LeadService) List(ctx context.Context, filter models.LeadFilter) ([]*models.Lead, int, error) {
	leads, err := s.Repo.List(ctx, filter)
	if err != nil {
		return nil, 0, storeErr("list leads", err)
	}
	total, err := s.Repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, storeErr("count leads", err)
	}
	return leads, total, nil
}

func (s *LeadService) Delete(ctx context.Context, id string) error {
	return storeErr("delete lead", s.Repo.Delete(ctx, id))
}

func (s *LeadService) UpdateStatus(ctx context.Context, id string, to models.LeadStatus) (*models.Lead, error) {
	lead, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get lead", err)
	}
	if !canTransition(string(lead.Status), string(to), LeadTransitions) {
		return nil, ErrInvalidTransition
	}
	if err := s.Repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, storeErr("update lead status", err)
	}
	lead.Status = to
	return lead, nil
}

// Assign sets or clears the lead owner and tells the new owner.
func (s *LeadService) Assign(ctx context.Context, id string, assignee *string, actorID string) (*models.Lead, error) {
	lead, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get lead", err)
	}
	if err := s.Repo.UpdateAssignee(ctx, id, assignee); err != nil {
		return nil, storeErr("assign lead", err)
	}
	lead.AssignedTo = assignee

	if assignee != nil && *assignee != actorID && s.Notifier != nil {
		if err := s.Notifier.Notify(ctx, *assignee, "New lead assigned", lead.CompanyName+" ("+lead.ContactName+") was assigned to you"); err != nil {
			s.Log.WithError(err).Warnf("[lead][assign] notify %s failed", *assignee)
		}
	}
	return lead, nil
}

func (s *LeadService) AddNote(ctx context.Context, note *models.LeadNote) error {
	if strings.TrimSpace(note.Content) == "" {
		return &ValidationError{Field: "content", Message: "is required"}
	}
	if note.NoteType == "" {
		note.NoteType = models.NoteGeneral
	}
	if _, err := s.Repo.GetByID(ctx, note.LeadID); err != nil {
		return storeErr("get lead", err)
	}
	return storeErr("create lead note", s.Notes.Create(ctx, note))
}

func (s *LeadService) ListNotes(ctx context.Context, leadID string) ([]*models.LeadNote, error) {
	notes, err := s.Notes.ListByLead(ctx, leadID)
	if err != nil {
		return nil, storeErr("list lead notes", err)
	}
	return notes, nil
}

// ConvertLeadToDeal opens a qualification-stage deal for the lead and then
// marks the lead qualified. The deal is written first; if the lead update
// fails the deal is deleted again on a best-effort basis.
func (s *LeadService) ConvertLeadToDeal(ctx context.Context, leadID, actorID string) (*models.Deal, error) {
	lead, err := s.Repo.GetByID(ctx, leadID)
	if err != nil {
		return nil, storeErr("get lead", err)
	}
	if lead.Status.IsClosed() {
		return nil, &IneligibleLeadError{LeadID: lead.ID, Reason: "lead is already " + string(lead.Status)}
	}

	// one deal per lead
	if _, err := s.DealRepo.GetByLeadID(ctx, lead.ID); err == nil {
		return nil, &IneligibleLeadError{LeadID: lead.ID, Reason: "a deal already exists for this lead"}
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, storeErr("find deal by lead", err)
	}

	value := decimal.Zero
	if lead.EstimatedValue.Valid {
		value = lead.EstimatedValue.Decimal
	}
	deal := &models.Deal{
		LeadID:      &lead.ID,
		Title:       lead.CompanyName + " - Deal",
		Value:       value,
		Stage:       models.StageQualification,
		Probability: pipeline.DefaultProbabilityOf(models.StageQualification),
		AssignedTo:  lead.AssignedTo,
	}
	if actorID != "" {
		deal.CreatedBy = &actorID
	}

	if err := s.DealRepo.Create(ctx, deal); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, &IneligibleLeadError{LeadID: lead.ID, Reason: "a deal already exists for this lead"}
		}
		return nil, &StoreError{Op: "create deal", Err: err}
	}

	if err := s.Repo.UpdateStatus(ctx, lead.ID, models.LeadQualified); err != nil {
		if delErr := s.DealRepo.Delete(ctx, deal.ID); delErr != nil {
			s.Log.WithError(delErr).Errorf("[lead][convert] rollback of deal %s failed", deal.ID)
		}
		return nil, &StoreError{Op: "update lead status", Err: err}
	}

	deal.LeadCompany = &lead.CompanyName
	s.Log.WithFields(map[string]interface{}{"lead_id": lead.ID, "deal_id": deal.ID}).
		Infof("[lead][convert] lead converted")
	return deal, nil
}
