package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/soinechankit/Soinech-CRM/internal/logger"
	"github.com/soinechankit/Soinech-CRM/internal/services"
)

type NotificationHandler struct {
	Service *services.NotificationService
	Log     *logger.Logger
}

func NewNotificationHandler(service *services.NotificationService, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{Service: service, Log: log}
}

func (h *NotificationHandler) ListMine(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	list, unread, err := h.Service.ListMine(c.Request.Context(), userID, c.Query("unread") == "true", limit)
	if err != nil {
		writeError(c, h.Log, "[notification][list]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list, "unread": unread})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	if err := h.Service.MarkRead(c.Request.Context(), c.Param("id"), userID); err != nil {
		writeError(c, h.Log, "[notification][read]", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	n, err := h.Service.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.Log, "[notification][read-all]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

type sendRequest struct {
	UserID *string `json:"user_id"`
	Title  string  `json:"title" binding:"required,max=200"`
	Body   string  `json:"body" binding:"max=2000"`
}

// Send notifies one user, or everyone when user_id is omitted. Admin only.
func (h *NotificationHandler) Send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	n, err := h.Service.Send(c.Request.Context(), services.SendInput{UserID: req.UserID, Title: req.Title, Body: req.Body})
	if err != nil {
		writeError(c, h.Log, "[notification][send]", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sent": n})
}
