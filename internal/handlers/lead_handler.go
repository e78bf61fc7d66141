package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/soinechankit/Soinech-CRM/internal/authz"
	"github.com/soinechankit/Soinech-CRM/internal/logger"
	"github.com/soinechankit/Soinech-CRM/internal/models"
	"github.com/soinechankit/Soinech-CRM/internal/services"
)

type LeadHandler struct {
	Service *services.LeadService
	Log     *logger.Logger
}

func NewLeadHandler(service *services.LeadService, log *logger.Logger) *LeadHandler {
	return &LeadHandler{Service: service, Log: log}
}

type leadRequest struct {
	CompanyName    string              `json:"company_name" binding:"required"`
	ContactName    string              `json:"contact_name" binding:"required"`
	Email          string              `json:"email" binding:"required,email"`
	Phone          *string             `json:"phone"`
	Source         models.LeadSource   `json:"source" binding:"omitempty,lead_source"`
	Status         models.LeadStatus   `json:"status" binding:"omitempty,lead_status"`
	Priority       models.Priority     `json:"priority" binding:"omitempty,priority"`
	EstimatedValue decimal.NullDecimal `json:"estimated_value" swaggertype:"number"`
	Industry       *string             `json:"industry"`
	CompanySize    *string             `json:"company_size"`
	Website        *string             `json:"website" binding:"omitempty,url"`
	Address        *string             `json:"address"`
	City           *string             `json:"city"`
	Country        *string             `json:"country"`
	Notes          *string             `json:"notes"`
	AssignedTo     *string             `json:"assigned_to"`
}

func (r *leadRequest) apply(l *models.Lead) {
	l.CompanyName = r.CompanyName
	l.ContactName = r.ContactName
	l.Email = r.Email
	l.Phone = r.Phone
	l.Source = r.Source
	l.Priority = r.Priority
	l.EstimatedValue = r.EstimatedValue
	l.Industry = r.Industry
	l.CompanySize = r.CompanySize
	l.Website = r.Website
	l.Address = r.Address
	l.City = r.City
	l.Country = r.Country
	l.Notes = r.Notes
}

// Create
// @Summary  Create a lead
// @Tags     leads
// @Accept   json
// @Produce  json
// @Param    lead  body      leadRequest  true  "Lead"
// @Success  201   {object}  models.Lead
// @Failure  400   {object}  map[string]string
// @Security BearerAuth
// @Router   /leads [post]
func (h *LeadHandler) Create(c *gin.Context) {
	var req leadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	userID, role := getUserAndRole(c)

	lead := &models.Lead{Status: req.Status, CreatedBy: &userID, AssignedTo: &userID}
	req.apply(lead)
	// only elevated roles hand leads to someone else
	if authz.IsElevated(role) && req.AssignedTo != nil {
		lead.AssignedTo = req.AssignedTo
	}

	if err := h.Service.Create(c.Request.Context(), lead); err != nil {
		writeError(c, h.Log, "[lead][create]", err)
		return
	}
	c.JSON(http.StatusCreated, lead)
}

func (h *LeadHandler) load(c *gin.Context) (*models.Lead, bool) {
	lead, err := h.Service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.Log, "[lead][get]", err)
		return nil, false
	}
	if !canTouch(c, lead.AssignedTo) {
		return nil, false
	}
	return lead, true
}

func (h *LeadHandler) GetByID(c *gin.Context) {
	lead, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, lead)
}

// Update replaces the editable fields. A status change goes through the
// transition rules.
func (h *LeadHandler) Update(c *gin.Context) {
	current, ok := h.load(c)
	if !ok {
		return
	}
	var req leadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	_, role := getUserAndRole(c)

	next := *current
	req.apply(&next)
	if authz.IsElevated(role) && req.AssignedTo != nil {
		next.AssignedTo = req.AssignedTo
	}
	if req.Status != "" {
		next.Status = req.Status
	}
	if err := h.Service.Update(c.Request.Context(), &next); err != nil {
		writeError(c, h.Log, "[lead][update]", err)
		return
	}
	c.JSON(http.StatusOK, next)
}

func (h *LeadHandler) Delete(c *gin.Context) {
	lead, ok := h.load(c)
	if !ok {
		return
	}
	if err := h.Service.Delete(c.Request.Context(), lead.ID); err != nil {
		writeError(c, h.Log, "[lead][delete]", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List
// @Summary  List leads
// @Tags     leads
// @Produce  json
// @Param    status       query  string  false  "status"
// @Param    source       query  string  false  "source"
// @Param    priority     query  string  false  "priority"
// @Param    assigned_to  query  string  false  "assignee (elevated roles only)"
// @Param    q            query  string  false  "search company, contact or email"
// @Param    page         query  int     false  "page"
// @Param    size         query  int     false  "page size"
// @Security BearerAuth
// @Router   /leads [get]
func (h *LeadHandler) List(c *gin.Context) {
	filter, ok := leadFilter(c)
	if !ok {
		return
	}
	filter.Limit, filter.Offset = page(c)
	filter.SortBy = c.DefaultQuery("sort_by", "created_at")
	filter.Order = c.DefaultQuery("order", "desc")

	leads, total, err := h.Service.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, h.Log, "[lead][list]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": leads, "total": total})
}

func leadFilter(c *gin.Context) (models.LeadFilter, bool) {
	var f models.LeadFilter
	if v := c.Query("status"); v != "" {
		st := models.LeadStatus(v)
		f.Status = &st
	}
	if v := c.Query("source"); v != "" {
		src := models.LeadSource(v)
		f.Source = &src
	}
	if v := c.Query("priority"); v != "" {
		p := models.Priority(v)
		f.Priority = &p
	}
	f.Search = strings.TrimSpace(c.Query("q"))

	userID, role := getUserAndRole(c)
	f.AssignedTo = authz.ScopeFor(userID, role)
	if f.AssignedTo == nil {
		var err error
		if f.AssignedTo, err = queryID(c, "assigned_to"); err != nil {
			badRequest(c, err)
			return f, false
		}
	}
	return f, true
}

type statusRequest struct {
	Status models.LeadStatus `json:"status" binding:"required,lead_status"`
}

func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	lead, ok := h.load(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	updated, err := h.Service.UpdateStatus(c.Request.Context(), lead.ID, req.Status)
	if err != nil {
		writeError(c, h.Log, "[lead][status]", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type assignRequest struct {
	AssignedTo *string `json:"assigned_to"`
}

// Assign hands the lead to another user; elevated roles only.
func (h *LeadHandler) Assign(c *gin.Context) {
	userID, role := getUserAndRole(c)
	if !authz.IsElevated(role) {
		forbidden(c)
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	lead, err := h.Service.Assign(c.Request.Context(), c.Param("id"), req.AssignedTo, userID)
	if err != nil {
		writeError(c, h.Log, "[lead][assign]", err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// ConvertToDeal
// @Summary  Convert a lead into a qualification-stage deal
// @Tags     leads
// @Produce  json
// @Param    id   path      string  true  "Lead ID"
// @Success  201  {object}  models.Deal
// @Failure  404  {object}  map[string]string
// @Failure  409  {object}  map[string]string  "lead closed or already converted"
// @Security BearerAuth
// @Router   /leads/{id}/convert [post]
func (h *LeadHandler) ConvertToDeal(c *gin.Context) {
	lead, ok := h.load(c)
	if !ok {
		return
	}
	userID, _ := getUserAndRole(c)
	deal, err := h.Service.ConvertLeadToDeal(c.Request.Context(), lead.ID, userID)
	if err != nil {
		writeError(c, h.Log, "[lead][convert]", err)
		return
	}
	c.JSON(http.StatusCreated, deal)
}

type noteRequest struct {
	Content  string          `json:"content" binding:"required"`
	NoteType models.NoteType `json:"note_type" binding:"omitempty,oneof=general call email meeting followup"`
}

func (h *LeadHandler) AddNote(c *gin.Context) {
	lead, ok := h.load(c)
	if !ok {
		return
	}
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	userID, _ := getUserAndRole(c)
	note := &models.LeadNote{LeadID: lead.ID, Content: req.Content, NoteType: req.NoteType, CreatedBy: &userID}
	if err := h.Service.AddNote(c.Request.Context(), note); err != nil {
		writeError(c, h.Log, "[lead][note]", err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

func (h *LeadHandler) ListNotes(c *gin.Context) {
	lead, ok := h.load(c)
	if !ok {
		return
	}
	notes, err := h.Service.ListNotes(c.Request.Context(), lead.ID)
	if err != nil {
		writeError(c, h.Log, "[lead][notes]", err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

const maxImportSize = 5 << 20

// Import takes a CSV either as multipart field "file" or as the raw body.
func (h *LeadHandler) Import(c *gin.Context) {
	var r io.Reader
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			badRequest(c, err)
			return
		}
		defer f.Close()
		r = f
	} else {
		r = c.Request.Body
	}
	userID, _ := getUserAndRole(c)

	res, err := h.Service.ImportCSV(c.Request.Context(), io.LimitReader(r, maxImportSize), userID)
	if err != nil {
		writeError(c, h.Log, "[lead][import]", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *LeadHandler) Export(c *gin.Context) {
	filter, ok := leadFilter(c)
	if !ok {
		return
	}
	name := "leads_" + time.Now().Format("2006-01-02") + ".csv"
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Status(http.StatusOK)
	if _, err := h.Service.ExportCSV(c.Request.Context(), c.Writer, filter); err != nil {
		h.Log.WithError(err).Errorf("[lead][export] failed mid-stream")
	}
}
