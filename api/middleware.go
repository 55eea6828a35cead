package api

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) registerMiddleware() {
	if s == nil || s.router == nil {
		return
	}
	s.router.Use(requestLoggingMiddleware(s.log), recoveryMiddleware(), corsMiddleware())
}

// passthrough stands in for any middleware whose feature is disabled.
func passthrough(c *gin.Context) { c.Next() }

// corsPolicy is parsed once from GAIA_BENCH_CORS_ORIGINS, a comma-separated
// origin list where "*" allows every origin.
type corsPolicy struct {
	wildcard bool
	origins  map[string]bool
}

func parseCORSPolicy(raw string) corsPolicy {
	p := corsPolicy{origins: make(map[string]bool)}
	for _, part := range strings.Split(raw, ",") {
		origin := strings.TrimSpace(part)
		switch origin {
		case "":
		case "*":
			p.wildcard = true
		default:
			p.origins[origin] = true
		}
	}
	return p
}

func (p corsPolicy) empty() bool {
	return !p.wildcard && len(p.origins) == 0
}

// allowValue returns the Access-Control-Allow-Origin value for one request
// origin, or "" when the origin is not allowed.
func (p corsPolicy) allowValue(origin string) string {
	if p.wildcard {
		return "*"
	}
	if p.origins[origin] {
		return origin
	}
	return ""
}

func corsMiddleware() gin.HandlerFunc {
	policy := parseCORSPolicy(os.Getenv("GAIA_BENCH_CORS_ORIGINS"))
	if policy.empty() {
		return passthrough
	}

	return func(c *gin.Context) {
		origin := strings.TrimSpace(c.GetHeader("Origin"))
		if origin == "" {
			c.Next()
			return
		}

		if v := policy.allowValue(origin); v != "" {
			c.Header("Access-Control-Allow-Origin", v)
			if v != "*" {
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLoggingMiddleware(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		return passthrough
	}
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func recoveryMiddleware() gin.HandlerFunc {
	return gin.Recovery()
}

// apiKeyAuthMiddleware guards the API group. Preflight requests pass through
// so browsers can negotiate CORS before sending the key.
func apiKeyAuthMiddleware(expected string) gin.HandlerFunc {
	if expected = strings.TrimSpace(expected); expected == "" {
		return passthrough
	}

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		key := strings.TrimSpace(c.GetHeader("X-API-Key"))
		if key != expected {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
