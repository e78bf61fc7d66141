package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/soinechankit/Soinech-CRM/internal/authz"
	"github.com/soinechankit/Soinech-CRM/internal/logger"
	"github.com/soinechankit/Soinech-CRM/internal/models"
	"github.com/soinechankit/Soinech-CRM/internal/services"
)

type ProposalHandler struct {
	Service *services.ProposalService
	Log     *logger.Logger
}

func NewProposalHandler(service *services.ProposalService, log *logger.Logger) *ProposalHandler {
	return &ProposalHandler{Service: service, Log: log}
}

type proposalRequest struct {
	Title       string                `json:"title" binding:"required"`
	Description *string               `json:"description"`
	LeadID      *string               `json:"lead_id"`
	DealID      *string               `json:"deal_id"`
	TotalValue  decimal.Decimal       `json:"total_value" swaggertype:"number"`
	ValidUntil  *time.Time            `json:"valid_until"`
	Items       []models.ProposalItem `json:"items" binding:"dive"`
}

func (r *proposalRequest) model() *models.Proposal {
	return &models.Proposal{
		Title:       r.Title,
		Description: r.Description,
		LeadID:      r.LeadID,
		DealID:      r.DealID,
		TotalValue:  r.TotalValue,
		ValidUntil:  r.ValidUntil,
		Items:       r.Items,
	}
}

func (h *ProposalHandler) Create(c *gin.Context) {
	var req proposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	userID, _ := getUserAndRole(c)
	p := req.model()
	p.CreatedBy = &userID
	if err := h.Service.Create(c.Request.Context(), p); err != nil {
		writeError(c, h.Log, "[proposal][create]", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// proposals belong to their author
func (h *ProposalHandler) load(c *gin.Context) (*models.Proposal, bool) {
	p, err := h.Service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.Log, "[proposal][get]", err)
		return nil, false
	}
	if !canTouch(c, p.CreatedBy) {
		return nil, false
	}
	return p, true
}

func (h *ProposalHandler) GetByID(c *gin.Context) {
	if p, ok := h.load(c); ok {
		c.JSON(http.StatusOK, p)
	}
}

func (h *ProposalHandler) List(c *gin.Context) {
	var f models.ProposalFilter
	if v := c.Query("status"); v != "" {
		st := models.ProposalStatus(v)
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
	userID, role := getUserAndRole(c)
	f.CreatedBy = authz.ScopeFor(userID, role)

	out, err := h.Service.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.Log, "[proposal][list]", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ProposalHandler) Update(c *gin.Context) {
	current, ok := h.load(c)
	if !ok {
		return
	}
	var req proposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	updated, err := h.Service.Update(c.Request.Context(), current.ID, req.model())
	if err != nil {
		writeError(c, h.Log, "[proposal][update]", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *ProposalHandler) Delete(c *gin.Context) {
	p, ok := h.load(c)
	if !ok {
		return
	}
	if err := h.Service.Delete(c.Request.Context(), p.ID); err != nil {
		writeError(c, h.Log, "[proposal][delete]", err)
		return
	}
	c.Status(http.StatusNoContent)
}

type proposalStatusRequest struct {
	Status models.ProposalStatus `json:"status" binding:"required,proposal_status"`
}

func (h *ProposalHandler) UpdateStatus(c *gin.Context) {
	p, ok := h.load(c)
	if !ok {
		return
	}
	var req proposalStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	updated, err := h.Service.UpdateStatus(c.Request.Context(), p.ID, req.Status)
	if err != nil {
		writeError(c, h.Log, "[proposal][status]", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// PDF
// @Summary  Download the proposal as PDF
// @Tags     proposals
// @Produce  application/pdf
// @Param    id   path  string  true  "Proposal ID"
// @Success  200  {file}  binary
// @Security BearerAuth
// @Router   /proposals/{id}/pdf [get]
func (h *ProposalHandler) PDF(c *gin.Context) {
	p, ok := h.load(c)
	if !ok {
		return
	}
	// rendered to memory first so a failure can still become a JSON error
	var buf bytes.Buffer
	if err := h.Service.RenderPDF(c.Request.Context(), p, &buf); err != nil {
		writeError(c, h.Log, "[proposal][pdf]", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="proposal_`+p.ID+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
