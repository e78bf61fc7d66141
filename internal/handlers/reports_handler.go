package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soinechankit/Soinech-CRM/internal/authz"
	"github.com/soinechankit/Soinech-CRM/internal/logger"
	"github.com/soinechankit/Soinech-CRM/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	Service *services.ReportService
	Log     *logger.Logger
}

func NewReportHandler(service *services.ReportService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{Service: service, Log: log}
}

// scope limits a sales executive's figures to their own records. Elevated
// roles may narrow to one user with ?assigned_to=. A malformed id answers 400
// and reports false.
func scope(c *gin.Context) (*string, bool) {
	userID, role := getUserAndRole(c)
	if s := authz.ScopeFor(userID, role); s != nil {
		return s, true
	}
	s, err := queryID(c, "assigned_to")
	if err != nil {
		badRequest(c, err)
		return nil, false
	}
	return s, true
}

// Dashboard
// @Summary  Dashboard figures
// @Tags     reports
// @Produce  json
// @Param    assigned_to  query     string  false  "Restrict to one user (managers and admins)"
// @Success  200          {object}  reports.DashboardStats
// @Security BearerAuth
// @Router   /reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	who, ok := scope(c)
	if !ok {
		return
	}
	stats, err := h.Service.Dashboard(c.Request.Context(), who)
	if err != nil {
		writeError(c, h.Log, "[report][dashboard]", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *ReportHandler) Summary(c *gin.Context) {
	who, ok := scope(c)
	if !ok {
		return
	}
	sum, err := h.Service.Summary(c.Request.Context(), who)
	if err != nil {
		writeError(c, h.Log, "[report][summary]", err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *ReportHandler) ExportXLSX(c *gin.Context) {
	who, ok := scope(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.Service.ExportXLSX(c.Request.Context(), &buf, who); err != nil {
		writeError(c, h.Log, "[report][xlsx]", err)
		return
	}
	name := fmt.Sprintf("crm-report-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
