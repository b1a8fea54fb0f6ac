package server

import (
	"time"

	"github.com/binhbb2204/GameShelf/pkg/logger"
	"github.com/gin-gonic/gin"
)

// RequestLogger writes one line per request through the structured logger.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}
		if userID := c.GetString("user_id"); userID != "" {
			kv = append(kv, "user_id", userID)
		}

		switch {
		case status >= 500:
			log.Error("http_request", kv...)
		case status >= 400:
			log.Warn("http_request", kv...)
		default:
			log.Debug("http_request", kv...)
		}
	}
}
