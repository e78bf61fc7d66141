package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/soinechankit/Soinech-CRM/internal/logger"
	"github.com/soinechankit/Soinech-CRM/internal/models"
	"github.com/soinechankit/Soinech-CRM/internal/repositories"
)

const (
	// reminderBatch caps how many reminders one sweep sends.
	reminderBatch = 100
	// maxReminderAttempts is how many failed deliveries a reminder gets
	// before the sweep stops picking it up.
	maxReminderAttempts = 3
)

type FollowUpService struct {
	Repo     repositories.FollowUpRepository
	Notifier Notifier
	Log      *logger.Logger

	now func() time.Time
}

func NewFollowUpService(repo repositories.FollowUpRepository, notifier Notifier, log *logger.Logger) *FollowUpService {
	if log == nil {
		log = logger.Nop()
	}
	return &FollowUpService{Repo: repo, Notifier: notifier, Log: log, now: time.Now}
}

func (s *FollowUpService) Create(ctx context.Context, f *models.FollowUp) error {
	f.Title = strings.TrimSpace(f.Title)
	if f.Title == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	if f.DueDate.IsZero() {
		return &ValidationError{Field: "due_date", Message: "is required"}
	}
	if f.Type == "" {
		f.Type = models.FollowUpCall
	}
	if f.Priority == "" {
		f.Priority = models.PriorityMedium
	}
	f.Status = models.FollowUpPending
	f.CompletedAt, f.RemindedAt = nil, nil
	return storeErr("create follow-up", s.Repo.Create(ctx, f))
}

func (s *FollowUpService) GetByID(ctx context.Context, id string) (*models.FollowUp, error) {
	f, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get follow-up", err)
	}
	return f, nil
}

func (s *FollowUpService) List(ctx context.Context, filter models.FollowUpFilter) ([]*models.FollowUp, error) {
	out, err := s.Repo.List(ctx, filter)
	if err != nil {
		return nil, storeErr("list follow-ups", err)
	}
	return out, nil
}

// Update replaces the editable fields. A changed reminder date re-arms the
// reminder.
func (s *FollowUpService) Update(ctx context.Context, id string, in *models.FollowUp) (*models.FollowUp, error) {
	f, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get follow-up", err)
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, &ValidationError{Field: "title", Message: "is required"}
	}
	if !sameTime(f.ReminderDate, in.ReminderDate) {
		f.RemindedAt = nil
		f.ReminderAttempts = 0
	}
	f.LeadID = in.LeadID
	f.DealID = in.DealID
	f.Title = strings.TrimSpace(in.Title)
	f.Description = in.Description
	if !in.DueDate.IsZero() {
		f.DueDate = in.DueDate
	}
	f.ReminderDate = in.ReminderDate
	if in.Type != "" {
		f.Type = in.Type
	}
	if in.Priority != "" {
		f.Priority = in.Priority
	}
	f.AssignedTo = in.AssignedTo

	if err := s.Repo.Update(ctx, f); err != nil {
		return nil, storeErr("update follow-up", err)
	}
	return f, nil
}

func (s *FollowUpService) Delete(ctx context.Context, id string) error {
	return storeErr("delete follow-up", s.Repo.Delete(ctx, id))
}

// Complete marks a pending follow-up done. Completing twice is a no-op.
func (s *FollowUpService) Complete(ctx context.Context, id string) (*models.FollowUp, error) {
	return s.setStatus(ctx, id, models.FollowUpCompleted)
}

func (s *FollowUpService) Cancel(ctx context.Context, id string) (*models.FollowUp, error) {
	return s.setStatus(ctx, id, models.FollowUpCancelled)
}

func (s *FollowUpService) setStatus(ctx context.Context, id string, to models.FollowUpStatus) (*models.FollowUp, error) {
	f, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get follow-up", err)
	}
	if f.Status == to {
		return f, nil
	}
	if f.Status != models.FollowUpPending {
		return nil, ErrInvalidTransition
	}
	f.Status = to
	if to == models.FollowUpCompleted {
		now := s.now().UTC()
		f.CompletedAt = &now
	}
	if err := s.Repo.Update(ctx, f); err != nil {
		return nil, storeErr("update follow-up", err)
	}
	return f, nil
}

// Upcoming lists pending follow-ups due from now on, soonest first.
func (s *FollowUpService) Upcoming(ctx context.Context, assignee *string, limit int) ([]*models.FollowUp, error) {
	if limit <= 0 {
		limit = 5
	}
	now := s.now()
	pending := models.FollowUpPending
	return s.List(ctx, models.FollowUpFilter{
		Status:     &pending,
		AssignedTo: assignee,
		DueFrom:    &now,
		Limit:      limit,
	})
}

// SendReminders notifies the owner of every follow-up whose reminder date has
// passed and stamps it so it is sent once. A failed notification counts as an
// attempt and is retried on later sweeps until maxReminderAttempts; a
// follow-up with no owner is retired straight away.
func (s *FollowUpService) SendReminders(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.Repo.ListDueForReminder(ctx, now, maxReminderAttempts, reminderBatch)
	if err != nil {
		return 0, storeErr("list due reminders", err)
	}

	sent := 0
	for _, f := range due {
		recipient := f.AssignedTo
		if recipient == nil {
			recipient = f.CreatedBy
		}
		if recipient == nil {
			s.Log.Warnf("[follow-up][remind] %s has no owner, retiring reminder", f.ID)
			if err := s.Repo.SetReminderAttempts(ctx, f.ID, maxReminderAttempts); err != nil {
				s.Log.WithError(err).Errorf("[follow-up][remind] retire %s failed", f.ID)
			}
			continue
		}
		body := fmt.Sprintf("%s is due %s", f.Title, f.DueDate.Format("2006-01-02 15:04"))
		if f.IsOverdue(now) {
			body = fmt.Sprintf("%s is overdue (was due %s)", f.Title, f.DueDate.Format("2006-01-02 15:04"))
		}
		if s.Notifier != nil {
			if err := s.Notifier.Notify(ctx, *recipient, "Follow-up reminder", body); err != nil {
				s.recordFailure(ctx, f.ID, *recipient, err)
				continue
			}
		}
		if err := s.Repo.SetReminded(ctx, f.ID, now.UTC()); err != nil {
			s.Log.WithError(err).Errorf("[follow-up][remind] stamp %s failed", f.ID)
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *FollowUpService) recordFailure(ctx context.Context, id, recipient string, cause error) {
	attempts, err := s.Repo.RecordReminderFailure(ctx, id)
	if err != nil {
		s.Log.WithError(err).Errorf("[follow-up][remind] count failure for %s failed", id)
		return
	}
	log := s.Log.WithError(cause).WithField("attempts", attempts)
	if attempts >= maxReminderAttempts {
		log.Errorf("[follow-up][remind] giving up on %s for %s", id, recipient)
		return
	}
	log.Warnf("[follow-up][remind] notify %s failed", recipient)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
