package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// APIKeyMiddleware requires X-API-KEY to equal apiKey. An empty apiKey
// leaves the group open, which is how a local single-user install runs.
func APIKeyMiddleware(apiKey string, isAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Set("isAdmin", isAdmin)
			c.Next()
			return
		}

		providedKey := c.GetHeader("X-API-KEY")
		if providedKey == "" || providedKey != apiKey {
			log.Warn().Str("middleware", "APIKeyMiddleware").Msg("Invalid or missing API key")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing API key"})
			c.Abort()
			return
		}

		c.Set("isAdmin", isAdmin)
		log.Debug().Bool("isAdmin", isAdmin).Msg("API key validated, proceeding with request")
		c.Next()
	}
}

// RequestLogger logs one line per request through zerolog.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ev := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}
