package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/soinechankit/Soinech-CRM/internal/logger"
	"github.com/soinechankit/Soinech-CRM/internal/services"
)

type IntegrationsHandler struct {
	Links *services.TelegramLinkService
	Log   *logger.Logger
}

// NewIntegrationsHandler accepts a nil link service when Telegram is disabled.
func NewIntegrationsHandler(links *services.TelegramLinkService, log *logger.Logger) *IntegrationsHandler {
	return &IntegrationsHandler{Links: links, Log: log}
}

// Webhook always answers 200 so Telegram does not redeliver the update.
func (h *IntegrationsHandler) Webhook(c *gin.Context) {
	if h.Links == nil {
		c.Status(http.StatusOK)
		return
	}
	var up tgbotapi.Update
	if err := c.ShouldBindJSON(&up); err != nil {
		h.Log.Warnf("[tg][webhook] bad update: %v", err)
		c.Status(http.StatusOK)
		return
	}
	if err := h.Links.HandleUpdate(c.Request.Context(), up); err != nil {
		h.Log.WithError(err).Errorf("[tg][webhook] update %d", up.UpdateID)
	}
	c.Status(http.StatusOK)
}

func (h *IntegrationsHandler) RequestTelegramLink(c *gin.Context) {
	if h.Links == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "telegram is not configured"})
		return
	}
	userID, _ := getUserAndRole(c)
	link, err := h.Links.CreateCode(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.Log, "[tg][link]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":       link.Code,
		"expires_at": link.ExpiresAt,
		"hint":       "Open the bot and send: /link " + link.Code,
	})
}
