package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soinechankit/Soinech-CRM/internal/authz"
	"github.com/soinechankit/Soinech-CRM/internal/logger"
	"github.com/soinechankit/Soinech-CRM/internal/models"
	"github.com/soinechankit/Soinech-CRM/internal/services"
)

type TaskHandler struct {
	service services.TaskService
	log     *logger.Logger
}

func NewTaskHandler(service services.TaskService, log *logger.Logger) *TaskHandler {
	return &TaskHandler{service: service, log: log}
}

type taskRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description *string         `json:"description"`
	AssignedTo  *string         `json:"assigned_to"`
	DueDate     *time.Time      `json:"due_date"`
	Priority    models.Priority `json:"priority" binding:"omitempty,priority"`
}

// POST /tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	userID, role := getUserAndRole(c)

	assignee := req.AssignedTo
	if assignee == nil {
		assignee = &userID
	}
	if role == models.RoleSalesExecutive && *assignee != userID {
		h.log.Warnf("[task][create][deny] %s tried to assign to %s", userID, *assignee)
		c.JSON(http.StatusForbidden, gin.H{"error": "sales executives can assign only to themselves"})
		return
	}

	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  assignee,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		CreatedBy:   &userID,
	}
	created, err := h.service.Create(c.Request.Context(), task)
	if err != nil {
		writeError(c, h.log, "[task][create]", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// tasks are visible to their assignee and their creator
func (h *TaskHandler) load(c *gin.Context) (*models.Task, bool) {
	task, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, "[task][get]", err)
		return nil, false
	}
	userID, role := getUserAndRole(c)
	if !authz.CanAccess(userID, role, task.AssignedTo) && !authz.CanAccess(userID, role, task.CreatedBy) {
		forbidden(c)
		return nil, false
	}
	return task, true
}

// GET /tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	if task, ok := h.load(c); ok {
		c.JSON(http.StatusOK, task)
	}
}

// GET /tasks
func (h *TaskHandler) GetAll(c *gin.Context) {
	var filter models.TaskFilter
	if v := c.Query("status"); v != "" {
		st := models.TaskStatus(v)
		filter.Status = &st
	}
	var err error
	if filter.CreatedBy, err = queryID(c, "created_by"); err != nil {
		badRequest(c, err)
		return
	}

	userID, role := getUserAndRole(c)
	filter.AssignedTo = authz.ScopeFor(userID, role)
	if filter.AssignedTo == nil {
		if filter.AssignedTo, err = queryID(c, "assigned_to"); err != nil {
			badRequest(c, err)
			return
		}
	}

	tasks, err := h.service.GetAll(c.Request.Context(), filter)
	if err != nil {
		writeError(c, h.log, "[task][list]", err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

type taskUpdateRequest struct {
	Title       string            `json:"title"`
	Description *string           `json:"description"`
	DueDate     *time.Time        `json:"due_date"`
	Priority    models.Priority   `json:"priority" binding:"omitempty,priority"`
	Status      models.TaskStatus `json:"status" binding:"omitempty,task_status"`
}

// PUT /tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	current, ok := h.load(c)
	if !ok {
		return
	}
	var req taskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	updated, err := h.service.Update(c.Request.Context(), current.ID, &models.Task{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		Status:      req.Status,
	})
	if err != nil {
		writeError(c, h.log, "[task][update]", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	task, ok := h.load(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), task.ID); err != nil {
		writeError(c, h.log, "[task][delete]", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /tasks/:id/status
func (h *TaskHandler) ChangeStatus(c *gin.Context) {
	task, ok := h.load(c)
	if !ok {
		return
	}
	var req struct {
		Status models.TaskStatus `json:"status" binding:"required,task_status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	updated, err := h.service.UpdateStatus(c.Request.Context(), task.ID, req.Status)
	if err != nil {
		writeError(c, h.log, "[task][status]", err)
		return
	}
	h.log.Infof("[task][status] %s: %s -> %s", task.ID, task.Status, updated.Status)
	c.JSON(http.StatusOK, updated)
}

// POST /tasks/:id/assign
func (h *TaskHandler) Assign(c *gin.Context) {
	task, ok := h.load(c)
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	userID, role := getUserAndRole(c)
	if role == models.RoleSalesExecutive && (req.AssignedTo == nil || *req.AssignedTo != userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "sales executives can assign only to themselves"})
		return
	}
	updated, err := h.service.UpdateAssignee(c.Request.Context(), task.ID, req.AssignedTo, userID)
	if err != nil {
		writeError(c, h.log, "[task][assign]", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
