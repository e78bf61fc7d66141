package app

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soinechankit/Soinech-CRM/internal/logger"
	"github.com/soinechankit/Soinech-CRM/internal/middleware"
)

// requestLogger replaces gin's text logger with one structured line per request.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		}
		if uid := c.GetString(middleware.CtxUserID); uid != "" {
			fields["user_id"] = uid
		}
		entry := log.WithFields(fields)
		switch {
		case c.Writer.Status() >= 500:
			entry.Errorf("request")
		case c.Writer.Status() >= 400:
			entry.Warnf("request")
		default:
			entry.Debugf("request")
		}
	}
}
