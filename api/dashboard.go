package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bdia-labs/gaia-bench/internal/scoring"
	"github.com/bdia-labs/gaia-bench/internal/store"
)

// scoreRows loads every recorded outcome in the shape the scoring package
// consumes.
func (s *Server) scoreRows(c *gin.Context) ([]scoring.Outcome, bool) {
	records, err := s.store.ListOutcomes(c.Request.Context(), store.OutcomeFilter{})
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return nil, false
	}
	rows := make([]scoring.Outcome, 0, len(records))
	for _, rec := range records {
		rows = append(rows, scoring.Outcome{
			TaskID:   rec.TaskID,
			Model:    rec.Model,
			Level:    rec.Level,
			Category: rec.Category,
		})
	}
	return rows, true
}

// handleDashboardSummary returns per-model scores broken down by difficulty
// level, models sorted by name.
func (s *Server) handleDashboardSummary(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	rows, ok := s.scoreRows(c)
	if !ok {
		return
	}
	report := scoring.Aggregate(rows)

	names := report.Models()
	models := make([]scoring.ModelScore, 0, len(names))
	for _, name := range names {
		if ms, ok := report.Model(name); ok {
			models = append(models, ms)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"models": models,
		"levels": report.Levels(),
	})
}

// handleCategoryCounts returns how many attempts landed in each category,
// optionally narrowed to one model and one level.
func (s *Server) handleCategoryCounts(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	model := strings.TrimSpace(c.Query("model"))
	level, err := parseLevelParam(c.Query("level"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	rows, ok := s.scoreRows(c)
	if !ok {
		return
	}
	counts := scoring.CategoryCounts(rows, model, level)
	c.JSON(http.StatusOK, gin.H{
		"model":  model,
		"level":  level,
		"counts": counts,
		"total":  counts.Total(),
	})
}

func (s *Server) handleListModels(c *gin.Context) {
	if s == nil || s.config == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"models":  append([]string(nil), s.config.LLM.Models...),
		"default": s.config.LLM.DefaultModel,
	})
}
