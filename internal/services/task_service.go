// internal/services/task_service.go
package services

import (
	"context"
	"strings"

	"github.com/soinechankit/Soinech-CRM/internal/logger"
	"github.com/soinechankit/Soinech-CRM/internal/models"
	"github.com/soinechankit/Soinech-CRM/internal/repositories"
)

// TaskService defines the interface for task-related business logic.
type TaskService interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	GetAll(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error)
	Update(ctx context.Context, id string, updateData *models.Task) (*models.Task, error)
	Delete(ctx context.Context, id string) error

	UpdateStatus(ctx context.Context, id string, to models.TaskStatus) (*models.Task, error)
	UpdateAssignee(ctx context.Context, id string, assigneeID *string, actorID string) (*models.Task, error)
}

type taskService struct {
	repo     repositories.TaskRepository
	notifier Notifier
	log      *logger.Logger
}

// NewTaskService creates a new instance of TaskService. notifier may be nil.
func NewTaskService(repo repositories.TaskRepository, notifier Notifier, log *logger.Logger) TaskService {
	if log == nil {
		log = logger.Nop()
	}
	return &taskService{repo: repo, notifier: notifier, log: log}
}

func (s *taskService) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return nil, &ValidationError{Field: "title", Message: "is required"}
	}
	if task.Status == "" {
		task.Status = models.TaskPending
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}

	if err := s.repo.Store(ctx, task); err != nil {
		return nil, storeErr("create task", err)
	}
	if task.AssignedTo != nil && (task.CreatedBy == nil || *task.AssignedTo != *task.CreatedBy) {
		s.notifyAssignee(ctx, *task.AssignedTo, task)
	}
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, id string) (*models.Task, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("get task", err)
	}
	return t, nil
}

func (s *taskService) GetAll(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	out, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, storeErr("list tasks", err)
	}
	return out, nil
}

func (s *taskService) Update(ctx context.Context, id string, updateData *models.Task) (*models.Task, error) {
	existingTask, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("get task", err)
	}
	if updateData.Status != "" && !canTransition(string(existingTask.Status), string(updateData.Status), TaskTransitions) {
		return nil, ErrInvalidTransition
	}

	if t := strings.TrimSpace(updateData.Title); t != "" {
		existingTask.Title = t
	}
	existingTask.Description = updateData.Description
	existingTask.DueDate = updateData.DueDate
	if updateData.Priority != "" {
		existingTask.Priority = updateData.Priority
	}
	if updateData.Status != "" {
		existingTask.Status = updateData.Status
	}

	if err := s.repo.Update(ctx, existingTask); err != nil {
		return nil, storeErr("update task", err)
	}
	return existingTask, nil
}

func (s *taskService) Delete(ctx context.Context, id string) error {
	return storeErr("delete task", s.repo.Delete(ctx, id))
}

func (s *taskService) UpdateStatus(ctx context.Context, id string, to models.TaskStatus) (*models.Task, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("get task", err)
	}
	if !canTransition(string(t.Status), string(to), TaskTransitions) {
		return nil, ErrInvalidTransition
	}
	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, storeErr("update task status", err)
	}
	t.Status = to
	return t, nil
}

func (s *taskService) UpdateAssignee(ctx context.Context, id string, assigneeID *string, actorID string) (*models.Task, error) {
	if err := s.repo.UpdateAssignee(ctx, id, assigneeID); err != nil {
		return nil, storeErr("assign task", err)
	}
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("get task", err)
	}
	if assigneeID != nil && *assigneeID != actorID {
		s.notifyAssignee(ctx, *assigneeID, t)
	}
	return t, nil
}

func (s *taskService) notifyAssignee(ctx context.Context, userID string, t *models.Task) {
	if s.notifier == nil {
		return
	}
	body := t.Title
	if t.DueDate != nil {
		body += " (due " + t.DueDate.Format("2006-01-02") + ")"
	}
	if err := s.notifier.Notify(ctx, userID, "New task assigned", body); err != nil {
		s.log.WithError(err).Warnf("[task][notify] assignee %s", userID)
	}
}
