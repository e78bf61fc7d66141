package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/soinechankit/Soinech-CRM/internal/logger"
	"github.com/soinechankit/Soinech-CRM/internal/models"
	"github.com/soinechankit/Soinech-CRM/internal/services"
)

type CatalogHandler struct {
	Service *services.CatalogService
	Log     *logger.Logger
}

func NewCatalogHandler(service *services.CatalogService, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{Service: service, Log: log}
}

type serviceRequest struct {
	Name        string           `json:"name" binding:"required"`
	Category    string           `json:"category"`
	Description *string          `json:"description"`
	BasePrice   decimal.Decimal  `json:"base_price" swaggertype:"number"`
	PriceType   models.PriceType `json:"price_type" binding:"omitempty,oneof=fixed hourly monthly per_project"`
	IsActive    *bool            `json:"is_active"`
}

func (r *serviceRequest) apply(s *models.Service) {
	s.Name = r.Name
	s.Category = r.Category
	s.Description = r.Description
	s.BasePrice = r.BasePrice
	s.PriceType = r.PriceType
	if r.IsActive != nil {
		s.IsActive = *r.IsActive
	}
}

// List returns active services; ?all=true includes inactive ones.
func (h *CatalogHandler) List(c *gin.Context) {
	out, err := h.Service.List(c.Request.Context(), c.Query("all") != "true")
	if err != nil {
		writeError(c, h.Log, "[catalog][list]", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) GetByID(c *gin.Context) {
	s, err := h.Service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.Log, "[catalog][get]", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *CatalogHandler) Create(c *gin.Context) {
	var req serviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s := &models.Service{IsActive: true}
	req.apply(s)
	if err := h.Service.Create(c.Request.Context(), s); err != nil {
		writeError(c, h.Log, "[catalog][create]", err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *CatalogHandler) Update(c *gin.Context) {
	s, err := h.Service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.Log, "[catalog][get]", err)
		return
	}
	var req serviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.apply(s)
	if err := h.Service.Update(c.Request.Context(), s); err != nil {
		writeError(c, h.Log, "[catalog][update]", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *CatalogHandler) Delete(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.Log, "[catalog][delete]", err)
		return
	}
	c.Status(http.StatusNoContent)
}
