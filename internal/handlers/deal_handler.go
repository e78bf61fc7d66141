package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/soinechankit/Soinech-CRM/internal/authz"
	"github.com/soinechankit/Soinech-CRM/internal/logger"
	"github.com/soinechankit/Soinech-CRM/internal/models"
	"github.com/soinechankit/Soinech-CRM/internal/pipeline"
	"github.com/soinechankit/Soinech-CRM/internal/services"
)

type DealHandler struct {
	Service *services.DealService
	Log     *logger.Logger
}

func NewDealHandler(service *services.DealService, log *logger.Logger) *DealHandler {
	return &DealHandler{Service: service, Log: log}
}

type dealRequest struct {
	Title             string           `json:"title" binding:"required"`
	Value             decimal.Decimal  `json:"value" swaggertype:"number"`
	Stage             models.DealStage `json:"stage" binding:"omitempty,deal_stage"`
	Probability       *int             `json:"probability" binding:"omitempty,min=0,max=100"`
	ExpectedCloseDate *time.Time       `json:"expected_close_date"`
	LossReason        *string          `json:"loss_reason"`
	LeadID            *string          `json:"lead_id"`
	AssignedTo        *string          `json:"assigned_to"`
}

func (h *DealHandler) Create(c *gin.Context) {
	var req dealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	userID, role := getUserAndRole(c)
	deal := &models.Deal{
		Title:             req.Title,
		Value:             req.Value,
		Stage:             req.Stage,
		ExpectedCloseDate: req.ExpectedCloseDate,
		LossReason:        req.LossReason,
		LeadID:            req.LeadID,
		AssignedTo:        &userID,
		CreatedBy:         &userID,
	}
	if authz.IsElevated(role) && req.AssignedTo != nil {
		deal.AssignedTo = req.AssignedTo
	}
	if err := h.Service.Create(c.Request.Context(), deal, req.Probability); err != nil {
		writeError(c, h.Log, "[deal][create]", err)
		return
	}
	c.JSON(http.StatusCreated, deal)
}

func (h *DealHandler) load(c *gin.Context) (*models.Deal, bool) {
	deal, err := h.Service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.Log, "[deal][get]", err)
		return nil, false
	}
	if !canTouch(c, deal.AssignedTo) {
		return nil, false
	}
	return deal, true
}

func (h *DealHandler) GetByID(c *gin.Context) {
	deal, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, deal)
}

func (h *DealHandler) List(c *gin.Context) {
	filter, ok := dealFilter(c)
	if !ok {
		return
	}
	filter.Limit, filter.Offset = page(c)
	filter.SortBy = c.DefaultQuery("sort_by", "created_at")
	filter.Order = c.DefaultQuery("order", "desc")

	deals, err := h.Service.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, h.Log, "[deal][list]", err)
		return
	}
	c.JSON(http.StatusOK, deals)
}

func dealFilter(c *gin.Context) (models.DealFilter, bool) {
	var f models.DealFilter
	for _, raw := range c.QueryArray("stage") {
		st, err := pipeline.ParseStage(raw)
		if err != nil {
			badRequest(c, err)
			return f, false
		}
		f.Stages = append(f.Stages, st)
	}
	var err error
	if f.From, err = queryTime(c, "from"); err != nil {
		badRequest(c, err)
		return f, false
	}
	if f.To, err = queryTime(c, "to"); err != nil {
		badRequest(c, err)
		return f, false
	}
	if f.LeadID, err = queryID(c, "lead_id"); err != nil {
		badRequest(c, err)
		return f, false
	}

	userID, role := getUserAndRole(c)
	f.AssignedTo = authz.ScopeFor(userID, role)
	if f.AssignedTo == nil {
		if f.AssignedTo, err = queryID(c, "assigned_to"); err != nil {
			badRequest(c, err)
			return f, false
		}
	}
	return f, true
}

type dealUpdateRequest struct {
	Title             *string           `json:"title"`
	Value             *decimal.Decimal  `json:"value" swaggertype:"number"`
	Stage             *models.DealStage `json:"stage" binding:"omitempty,deal_stage"`
	Probability       *int              `json:"probability" binding:"omitempty,min=0,max=100"`
	ExpectedCloseDate *time.Time        `json:"expected_close_date"`
	LossReason        *string           `json:"loss_reason"`
	AssignedTo        *string           `json:"assigned_to"`
	LeadID            *string           `json:"lead_id"`
}

func (h *DealHandler) Update(c *gin.Context) {
	deal, ok := h.load(c)
	if !ok {
		return
	}
	var req dealUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	_, role := getUserAndRole(c)
	u := services.DealUpdate{
		Title:             req.Title,
		Value:             req.Value,
		Stage:             req.Stage,
		Probability:       req.Probability,
		ExpectedCloseDate: req.ExpectedCloseDate,
		LossReason:        req.LossReason,
		LeadID:            req.LeadID,
	}
	if authz.IsElevated(role) {
		u.AssignedTo = req.AssignedTo
	}
	updated, err := h.Service.Update(c.Request.Context(), deal.ID, u)
	if err != nil {
		writeError(c, h.Log, "[deal][update]", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *DealHandler) Delete(c *gin.Context) {
	deal, ok := h.load(c)
	if !ok {
		return
	}
	if err := h.Service.Delete(c.Request.Context(), deal.ID); err != nil {
		writeError(c, h.Log, "[deal][delete]", err)
		return
	}
	c.Status(http.StatusNoContent)
}

type stageRequest struct {
	Stage      string  `json:"stage" binding:"required" example:"negotiation"`
	LossReason *string `json:"loss_reason"`
}

// Stage
// @Summary  Move a deal to another pipeline stage
// @Description Probability resets to the stage default; closing stamps the close date.
// @Tags     deals
// @Accept   json
// @Produce  json
// @Param    id    path      string        true  "Deal ID"
// @Param    body  body      stageRequest  true  "Target stage"
// @Success  200   {object}  models.Deal
// @Failure  400   {object}  map[string]string  "unknown stage"
// @Security BearerAuth
// @Router   /deals/{id}/stage [post]
func (h *DealHandler) Stage(c *gin.Context) {
	deal, ok := h.load(c)
	if !ok {
		return
	}
	var req stageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	stage, err := pipeline.ParseStage(req.Stage)
	if err != nil {
		writeError(c, h.Log, "[deal][stage]", err)
		return
	}
	updated, err := h.Service.TransitionStage(c.Request.Context(), deal.ID, stage, req.LossReason)
	if err != nil {
		writeError(c, h.Log, "[deal][stage]", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *DealHandler) Advance(c *gin.Context) {
	deal, ok := h.load(c)
	if !ok {
		return
	}
	updated, err := h.Service.Advance(c.Request.Context(), deal.ID)
	if err != nil {
		writeError(c, h.Log, "[deal][advance]", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *DealHandler) Retreat(c *gin.Context) {
	deal, ok := h.load(c)
	if !ok {
		return
	}
	updated, err := h.Service.Retreat(c.Request.Context(), deal.ID)
	if err != nil {
		writeError(c, h.Log, "[deal][retreat]", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Pipeline
// @Summary  Pipeline board with per-stage and weighted totals
// @Tags     pipeline
// @Produce  json
// @Param    assigned_to  query     string  false  "assignee (elevated roles only)"
// @Success  200          {object}  services.PipelineView
// @Security BearerAuth
// @Router   /pipeline [get]
func (h *DealHandler) Pipeline(c *gin.Context) {
	filter, ok := dealFilter(c)
	if !ok {
		return
	}
	view, err := h.Service.Pipeline(c.Request.Context(), filter)
	if err != nil {
		writeError(c, h.Log, "[pipeline]", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *DealHandler) Stages(c *gin.Context) {
	c.JSON(http.StatusOK, pipeline.Stages())
}
