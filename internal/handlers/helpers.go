package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/soinechankit/Soinech-CRM/internal/authz"
	"github.com/soinechankit/Soinech-CRM/internal/logger"
	"github.com/soinechankit/Soinech-CRM/internal/middleware"
	"github.com/soinechankit/Soinech-CRM/internal/models"
	"github.com/soinechankit/Soinech-CRM/internal/pipeline"
	"github.com/soinechankit/Soinech-CRM/internal/services"
)

func getUserAndRole(c *gin.Context) (userID string, role models.UserRole) {
	userID = c.GetString(middleware.CtxUserID)
	if v, ok := c.Get(middleware.CtxRole); ok {
		role, _ = v.(models.UserRole)
	}
	return
}

// page reads page/size query params; size is capped at 500.
func page(c *gin.Context) (limit, offset int) {
	p, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || p < 1 {
		p = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "100"))
	if err != nil || size < 1 {
		size = 100
	}
	if size > 500 {
		size = 500
	}
	return size, (p - 1) * size
}

func queryPtr(c *gin.Context, key string) *string {
	if v := strings.TrimSpace(c.Query(key)); v != "" {
		return &v
	}
	return nil
}

// queryID reads an optional id filter; anything but a UUID is rejected before
// it reaches the store.
func queryID(c *gin.Context, key string) (*string, error) {
	v := queryPtr(c, key)
	if v == nil {
		return nil, nil
	}
	if _, err := uuid.Parse(*v); err != nil {
		return nil, &services.ValidationError{Field: key, Message: "must be a UUID"}
	}
	return v, nil
}

// queryTime accepts RFC3339 or a plain date.
func queryTime(c *gin.Context, key string) (*time.Time, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("invalid " + key + " (RFC3339 or YYYY-MM-DD)")
}

func forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
}

// canTouch applies the ownership rule and writes 403 when it fails.
func canTouch(c *gin.Context, assignedTo *string) bool {
	userID, role := getUserAndRole(c)
	if !authz.CanAccess(userID, role, assignedTo) {
		forbidden(c)
		return false
	}
	return true
}

// writeError maps service errors to status codes. Storage failures are logged
// with their detail and answered with a generic message.
func writeError(c *gin.Context, log *logger.Logger, tag string, err error) {
	var (
		invalidStage *pipeline.InvalidStageError
		ineligible   *services.IneligibleLeadError
		validation   *services.ValidationError
		store        *services.StoreError
	)
	switch {
	case errors.As(err, &invalidStage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": validation.Field})
	case errors.As(err, &ineligible):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		forbidden(c)
	case errors.As(err, &store):
		log.WithError(err).Errorf("%s store failure", tag)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	default:
		log.WithError(err).Errorf("%s failed", tag)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
