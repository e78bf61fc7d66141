package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/soinechankit/Soinech-CRM/internal/models"
)

type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id string) (*models.Task, error)
	FindAll(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error

	UpdateStatus(ctx context.Context, id string, to models.TaskStatus) error
	UpdateAssignee(ctx context.Context, id string, assigneeID *string) error
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, title, description, assigned_to, due_date, priority, status, created_by, created_at, updated_at`

func scanTask(s scanner) (*models.Task, error) {
	t := &models.Task{}
	if err := s.Scan(
		&t.ID, &t.Title, &t.Description, &t.AssignedTo, &t.DueDate,
		&t.Priority, &t.Status, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = newID()
	}
	now := time.Now().UTC()
	task.CreatedAt, task.UpdatedAt = now, now

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Description, task.AssignedTo, task.DueDate,
		task.Priority, task.Status, task.CreatedBy, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	t, err := scanTask(r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

func (r *taskRepository) FindAll(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	c := &conditions{}
	if filter.AssignedTo != nil {
		c.add("assigned_to = $%d", *filter.AssignedTo)
	}
	if filter.CreatedBy != nil {
		c.add("created_by = $%d", *filter.CreatedBy)
	}
	if filter.Status != nil {
		c.add("status = $%d", *filter.Status)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks`+c.where()+` ORDER BY created_at DESC`, c.args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE tasks SET
			title=$1, description=$2, assigned_to=$3, due_date=$4,
			priority=$5, status=$6, updated_at=$7
		WHERE id=$8`
	res, err := r.db.ExecContext(ctx, query,
		task.Title, task.Description, task.AssignedTo, task.DueDate,
		task.Priority, task.Status, task.UpdatedAt, task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectOne(res)
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectOne(res)
}

func (r *taskRepository) UpdateStatus(ctx context.Context, id string, to models.TaskStatus) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status=$1, updated_at=NOW() WHERE id=$2`, to, id)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return expectOne(res)
}

func (r *taskRepository) UpdateAssignee(ctx context.Context, id string, assigneeID *string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET assigned_to=$1, updated_at=NOW() WHERE id=$2`, assigneeID, id)
	if err != nil {
		return fmt.Errorf("assign task: %w", err)
	}
	return expectOne(res)
}
