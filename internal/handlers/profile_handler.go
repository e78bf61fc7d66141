package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soinechankit/Soinech-CRM/internal/logger"
	"github.com/soinechankit/Soinech-CRM/internal/middleware"
	"github.com/soinechankit/Soinech-CRM/internal/services"
)

type ProfileHandler struct {
	Service *services.ProfileService
	Log     *logger.Logger
}

func NewProfileHandler(service *services.ProfileService, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{Service: service, Log: log}
}

// EnsureProfile runs after AuthMiddleware and creates the caller's profile on
// first sight. A subject that cannot be a profile id is rejected as an
// invalid token.
func (h *ProfileHandler) EnsureProfile(c *gin.Context) {
	userID, role := getUserAndRole(c)
	if userID == "" {
		c.Next()
		return
	}
	err := h.Service.Ensure(c.Request.Context(), userID, role, c.GetString(middleware.CtxEmail))
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	case err != nil:
		h.Log.WithError(err).WithField("user_id", userID).Errorf("[profile][ensure] failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Next()
}

// Me returns the caller's profile, creating it on first call.
func (h *ProfileHandler) Me(c *gin.Context) {
	userID, role := getUserAndRole(c)
	p, err := h.Service.Me(c.Request.Context(), userID, role, c.GetString(middleware.CtxEmail))
	if err != nil {
		writeError(c, h.Log, "[profile][me]", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) List(c *gin.Context) {
	list, err := h.Service.List(c.Request.Context())
	if err != nil {
		writeError(c, h.Log, "[profile][list]", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type preferencesRequest struct {
	FullName       *string `json:"full_name" binding:"omitempty,max=200"`
	AvatarURL      *string `json:"avatar_url" binding:"omitempty,url"`
	NotifyEmail    *bool   `json:"notify_email"`
	NotifyTelegram *bool   `json:"notify_telegram"`
}

func (h *ProfileHandler) UpdatePreferences(c *gin.Context) {
	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	userID, role := getUserAndRole(c)
	// make sure the row exists before patching it
	if _, err := h.Service.Me(c.Request.Context(), userID, role, c.GetString(middleware.CtxEmail)); err != nil {
		writeError(c, h.Log, "[profile][prefs]", err)
		return
	}
	p, err := h.Service.UpdatePreferences(c.Request.Context(), userID, services.Preferences{
		FullName:       req.FullName,
		AvatarURL:      req.AvatarURL,
		NotifyEmail:    req.NotifyEmail,
		NotifyTelegram: req.NotifyTelegram,
	})
	if err != nil {
		writeError(c, h.Log, "[profile][prefs]", err)
		return
	}
	c.JSON(http.StatusOK, p)
}
