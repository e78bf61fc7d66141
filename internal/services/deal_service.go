package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/soinechankit/Soinech-CRM/internal/logger"
	"github.com/soinechankit/Soinech-CRM/internal/models"
	"github.com/soinechankit/Soinech-CRM/internal/pipeline"
	"github.com/soinechankit/Soinech-CRM/internal/repositories"
)

type DealService struct {
	Repo repositories.DealRepository
	Log  *logger.Logger

	now func() time.Time
}

func NewDealService(repo repositories.DealRepository, log *logger.Logger) *DealService {
	if log == nil {
		log = logger.Nop()
	}
	return &DealService{Repo: repo, Log: log, now: time.Now}
}

// DealUpdate is a partial update; nil fields are left alone. A stage change
// goes through the transition rules first, so an explicit Probability in the
// same update overrides the stage default.
type DealUpdate struct {
	Title             *string
	Value             *decimal.Decimal
	Stage             *models.DealStage
	Probability       *int
	ExpectedCloseDate *time.Time
	LossReason        *string
	AssignedTo        *string
	LeadID            *string
}

func validateDeal(d *models.Deal) error {
	if d.Title == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	if d.Value.IsNegative() {
		return &ValidationError{Field: "value", Message: "must not be negative"}
	}
	if d.Probability < 0 || d.Probability > 100 {
		return &ValidationError{Field: "probability", Message: "must be between 0 and 100"}
	}
	return nil
}

// Create stores a new deal. Probability defaults to the stage default when
// nil, and a deal created already closed gets today's close date.
func (s *DealService) Create(ctx context.Context, deal *models.Deal, probability *int) error {
	if deal.Stage == "" {
		deal.Stage = models.StageQualification
	}
	info, ok := pipeline.Lookup(deal.Stage)
	if !ok {
		return &pipeline.InvalidStageError{Stage: string(deal.Stage)}
	}
	deal.Probability = info.Probability
	if probability != nil {
		deal.Probability = *probability
	}
	if info.Terminal && deal.ActualCloseDate == nil {
		d := today(s.now())
		deal.ActualCloseDate = &d
	}
	if !info.Terminal {
		deal.ActualCloseDate = nil
	}
	if deal.Stage != models.StageClosedLost {
		deal.LossReason = nil
	}
	if err := validateDeal(deal); err != nil {
		return err
	}
	if err := s.Repo.Create(ctx, deal); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return &ValidationError{Field: "lead_id", Message: "lead already has a deal"}
		}
		return storeErr("create deal", err)
	}
	return nil
}

func (s *DealService) GetByID(ctx context.Context, id string) (*models.Deal, error) {
	d, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get deal", err)
	}
	return d, nil
}

func (s *DealService) List(ctx context.Context, filter models.DealFilter) ([]*models.Deal, error) {
	deals, err := s.Repo.List(ctx, filter)
	if err != nil {
		return nil, storeErr("list deals", err)
	}
	return deals, nil
}

func (s *DealService) Delete(ctx context.Context, id string) error {
	return storeErr("delete deal", s.Repo.Delete(ctx, id))
}

func (s *DealService) Update(ctx context.Context, id string, u DealUpdate) (*models.Deal, error) {
	current, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get deal", err)
	}
	next := current.Clone()

	if u.Stage != nil && *u.Stage != current.Stage {
		if _, err := pipeline.Transition(next, *u.Stage, s.now()); err != nil {
			return nil, err
		}
	}
	if u.Title != nil {
		next.Title = *u.Title
	}
	if u.Value != nil {
		next.Value = *u.Value
	}
	if u.Probability != nil {
		next.Probability = *u.Probability
	}
	if u.ExpectedCloseDate != nil {
		next.ExpectedCloseDate = u.ExpectedCloseDate
	}
	if u.AssignedTo != nil {
		next.AssignedTo = u.AssignedTo
	}
	if u.LeadID != nil {
		next.LeadID = u.LeadID
	}
	if u.LossReason != nil && next.Stage == models.StageClosedLost {
		next.LossReason = u.LossReason
	}
	if err := validateDeal(next); err != nil {
		return nil, err
	}
	if err := s.Repo.Update(ctx, next); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, &ValidationError{Field: "lead_id", Message: "lead already has a deal"}
		}
		return nil, storeErr("update deal", err)
	}
	return next, nil
}

// TransitionStage moves a deal to stage and persists it. The transition is
// applied to a copy, so a failed write leaves the caller's view unchanged.
// lossReason is kept only when stage is closed_lost.
func (s *DealService) TransitionStage(ctx context.Context, id string, stage models.DealStage, lossReason *string) (*models.Deal, error) {
	current, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get deal", err)
	}
	return s.transition(ctx, current, stage, lossReason)
}

func (s *DealService) transition(ctx context.Context, current *models.Deal, stage models.DealStage, lossReason *string) (*models.Deal, error) {
	next := current.Clone()
	if _, err := pipeline.Transition(next, stage, s.now()); err != nil {
		return nil, err
	}
	if stage == models.StageClosedLost && lossReason != nil {
		next.LossReason = lossReason
	}

	if err := s.Repo.Update(ctx, next); err != nil {
		s.Log.WithError(err).WithField("deal_id", current.ID).Errorf("[deal][stage] %s -> %s not saved", current.Stage, stage)
		return nil, &StoreError{Op: "update deal stage", Err: err}
	}
	s.Log.WithField("deal_id", next.ID).Infof("[deal][stage] %s -> %s", current.Stage, next.Stage)
	return next, nil
}

// Advance moves the deal one column to the right on the board.
func (s *DealService) Advance(ctx context.Context, id string) (*models.Deal, error) {
	current, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get deal", err)
	}
	next, ok := pipeline.Next(current.Stage)
	if !ok {
		return nil, ErrInvalidTransition
	}
	return s.transition(ctx, current, next, nil)
}

// Retreat moves the deal one column to the left; closed deals reopen in
// negotiation.
func (s *DealService) Retreat(ctx context.Context, id string) (*models.Deal, error) {
	current, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get deal", err)
	}
	prev, ok := pipeline.Previous(current.Stage)
	if !ok {
		return nil, ErrInvalidTransition
	}
	return s.transition(ctx, current, prev, nil)
}

// PipelineView is the board: the aggregate plus the deals per column.
type PipelineView struct {
	pipeline.Aggregate
	Columns []pipeline.Column `json:"columns"`
}

func (s *DealService) Pipeline(ctx context.Context, filter models.DealFilter) (*PipelineView, error) {
	deals, err := s.Repo.List(ctx, filter)
	if err != nil {
		return nil, storeErr("list deals", err)
	}
	return &PipelineView{
		Aggregate: pipeline.AggregateByStage(deals),
		Columns:   pipeline.Board(deals),
	}, nil
}

func today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
