package api

import (
	"errors"
	"os"
	"strings"
)

// registerRoutes mounts the JSON API under /api. A key is required
// unless GAIA_BENCH_DISABLE_AUTH=true opts out explicitly.
func (s *Server) registerRoutes() error {
	if s == nil || s.router == nil {
		return nil
	}

	api := s.router.Group("/api")
	switch key := strings.TrimSpace(os.Getenv("GAIA_BENCH_API_KEY")); {
	case key != "":
		api.Use(apiKeyAuthMiddleware(key))
	case strings.EqualFold(strings.TrimSpace(os.Getenv("GAIA_BENCH_DISABLE_AUTH")), "true"):
		// Open access was requested by name, not forgotten.
	default:
		return errors.New("api: missing auth configuration: set GAIA_BENCH_API_KEY or set GAIA_BENCH_DISABLE_AUTH=true")
	}

	api.GET("/health", s.handleHealth)

	api.GET("/questions", s.handleListQuestions)
	api.GET("/questions/:task_id", s.handleGetQuestion)
	api.GET("/questions/:task_id/file", s.handleQuestionFile)

	api.POST("/ask", s.handleAsk)
	api.POST("/ask/steps", s.handleAskWithSteps)

	api.GET("/outcomes", s.handleListOutcomes)

	api.GET("/dashboard/summary", s.handleDashboardSummary)
	api.GET("/dashboard/categories", s.handleCategoryCounts)

	api.GET("/models", s.handleListModels)

	return nil
}
