package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soinechankit/Soinech-CRM/internal/authz"
	"github.com/soinechankit/Soinech-CRM/internal/logger"
	"github.com/soinechankit/Soinech-CRM/internal/models"
	"github.com/soinechankit/Soinech-CRM/internal/services"
)

type FollowUpHandler struct {
	Service *services.FollowUpService
	Log     *logger.Logger
}

func NewFollowUpHandler(service *services.FollowUpService, log *logger.Logger) *FollowUpHandler {
	return &FollowUpHandler{Service: service, Log: log}
}

type followUpRequest struct {
	LeadID       *string             `json:"lead_id"`
	DealID       *string             `json:"deal_id"`
	Title        string              `json:"title" binding:"required"`
	Description  *string             `json:"description"`
	DueDate      time.Time           `json:"due_date" binding:"required"`
	ReminderDate *time.Time          `json:"reminder_date"`
	Type         models.FollowUpType `json:"follow_up_type" binding:"omitempty,follow_up_type"`
	Priority     models.Priority     `json:"priority" binding:"omitempty,priority"`
	AssignedTo   *string             `json:"assigned_to"`
}

func (r *followUpRequest) model() *models.FollowUp {
	return &models.FollowUp{
		LeadID:       r.LeadID,
		DealID:       r.DealID,
		Title:        r.Title,
		Description:  r.Description,
		DueDate:      r.DueDate,
		ReminderDate: r.ReminderDate,
		Type:         r.Type,
		Priority:     r.Priority,
	}
}

func (h *FollowUpHandler) Create(c *gin.Context) {
	var req followUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	userID, role := getUserAndRole(c)
	f := req.model()
	f.CreatedBy, f.AssignedTo = &userID, &userID
	if authz.IsElevated(role) && req.AssignedTo != nil {
		f.AssignedTo = req.AssignedTo
	}
	if err := h.Service.Create(c.Request.Context(), f); err != nil {
		writeError(c, h.Log, "[follow-up][create]", err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (h *FollowUpHandler) load(c *gin.Context) (*models.FollowUp, bool) {
	f, err := h.Service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.Log, "[follow-up][get]", err)
		return nil, false
	}
	if !canTouch(c, f.AssignedTo) {
		return nil, false
	}
	return f, true
}

func (h *FollowUpHandler) GetByID(c *gin.Context) {
	if f, ok := h.load(c); ok {
		c.JSON(http.StatusOK, f)
	}
}

func (h *FollowUpHandler) List(c *gin.Context) {
	var f models.FollowUpFilter
	if v := c.Query("status"); v != "" {
		st := models.FollowUpStatus(v)
		f.Status = &st
	}
	var err error
	if f.LeadID, err = queryID(c, "lead_id"); err != nil {
		badRequest(c, err)
		return
	}
	if f.DealID, err = queryID(c, "deal_id"); err != nil {
		badRequest(c, err)
		return
	}
	if f.DueFrom, err = queryTime(c, "from"); err != nil {
		badRequest(c, err)
		return
	}
	if f.DueTo, err = queryTime(c, "to"); err != nil {
		badRequest(c, err)
		return
	}
	userID, role := getUserAndRole(c)
	f.AssignedTo = authz.ScopeFor(userID, role)
	if f.AssignedTo == nil {
		if f.AssignedTo, err = queryID(c, "assigned_to"); err != nil {
			badRequest(c, err)
			return
		}
	}
	f.Limit, f.Offset = page(c)

	out, err := h.Service.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.Log, "[follow-up][list]", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Upcoming lists the caller's next pending follow-ups.
func (h *FollowUpHandler) Upcoming(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	out, err := h.Service.Upcoming(c.Request.Context(), &userID, limit)
	if err != nil {
		writeError(c, h.Log, "[follow-up][upcoming]", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *FollowUpHandler) Update(c *gin.Context) {
	current, ok := h.load(c)
	if !ok {
		return
	}
	var req followUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	_, role := getUserAndRole(c)
	in := req.model()
	in.AssignedTo = current.AssignedTo
	if authz.IsElevated(role) && req.AssignedTo != nil {
		in.AssignedTo = req.AssignedTo
	}
	updated, err := h.Service.Update(c.Request.Context(), current.ID, in)
	if err != nil {
		writeError(c, h.Log, "[follow-up][update]", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *FollowUpHandler) Delete(c *gin.Context) {
	f, ok := h.load(c)
	if !ok {
		return
	}
	if err := h.Service.Delete(c.Request.Context(), f.ID); err != nil {
		writeError(c, h.Log, "[follow-up][delete]", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FollowUpHandler) Complete(c *gin.Context) {
	f, ok := h.load(c)
	if !ok {
		return
	}
	updated, err := h.Service.Complete(c.Request.Context(), f.ID)
	if err != nil {
		writeError(c, h.Log, "[follow-up][complete]", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *FollowUpHandler) Cancel(c *gin.Context) {
	f, ok := h.load(c)
	if !ok {
		return
	}
	updated, err := h.Service.Cancel(c.Request.Context(), f.ID)
	if err != nil {
		writeError(c, h.Log, "[follow-up][cancel]", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
