package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bdia-labs/gaia-bench/internal/bench"
	"github.com/bdia-labs/gaia-bench/internal/gaia"
	"github.com/bdia-labs/gaia-bench/internal/llm"
	"github.com/bdia-labs/gaia-bench/internal/store"
	"github.com/bdia-labs/gaia-bench/internal/validator"
)

const (
	defaultOutcomeLimit = 50
	downloadExpiry      = time.Hour
)

// questionSummary is the list view of a question. The reference answer and
// the annotator steps stay server-side so the dashboard cannot leak them
// before an attempt.
type questionSummary struct {
	TaskID        string `json:"task_id"`
	Question      string `json:"question"`
	Level         int    `json:"level"`
	FileName      string `json:"file_name,omitempty"`
	FileExtension string `json:"file_extension,omitempty"`
	HasFile       bool   `json:"has_file"`
	HasSteps      bool   `json:"has_steps"`
	Split         string `json:"split"`
}

// questionDetail is the full question record plus a signed download link for
// its attachment when one exists.
type questionDetail struct {
	*gaia.Question
	DownloadURL string `json:"download_url,omitempty"`
}

type outcomeView struct {
	ID        string        `json:"id"`
	TaskID    string        `json:"task_id"`
	Model     string        `json:"model"`
	Response  string        `json:"response"`
	Category  gaia.Category `json:"category"`
	WithSteps bool          `json:"with_steps"`
	Level     int           `json:"level"`
	CreatedAt string        `json:"created_at"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "gaia-bench",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListQuestions(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	level, err := parseLevelParam(c.Query("level"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	limit, err := parseLimitParam(c.Query("limit"), 0)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	filter := store.QuestionFilter{
		Level:     level,
		Extension: strings.TrimSpace(c.Query("extension")),
		Split:     strings.TrimSpace(c.Query("split")),
		Limit:     limit,
	}
	questions, err := s.store.ListQuestions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	summaries := make([]questionSummary, 0, len(questions))
	for _, q := range questions {
		summaries = append(summaries, questionSummary{
			TaskID:        q.TaskID,
			Question:      q.Question,
			Level:         q.Level,
			FileName:      q.FileName,
			FileExtension: q.FileExtension,
			HasFile:       q.HasFile(),
			HasSteps:      q.HasSteps(),
			Split:         q.Split,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"questions": summaries,
		"count":     len(summaries),
	})
}

func (s *Server) handleGetQuestion(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}
	taskID := strings.TrimSpace(c.Param("task_id"))
	if taskID == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing task id"))
		return
	}

	ctx := c.Request.Context()
	q, err := s.store.GetQuestion(ctx, taskID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(c, http.StatusNotFound, fmt.Errorf("question %q not found", taskID))
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	detail := questionDetail{Question: q}
	if q.HasFile() && s.files != nil {
		signed, err := s.files.PresignedGetURL(ctx, q.FileURL, downloadExpiry)
		if err != nil {
			s.log.Warn("presign download link",
				zap.String("task_id", q.TaskID),
				zap.Error(err))
		} else {
			detail.DownloadURL = signed
		}
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) handleQuestionFile(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}
	taskID := strings.TrimSpace(c.Param("task_id"))
	if taskID == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing task id"))
		return
	}

	ctx := c.Request.Context()
	q, err := s.store.GetQuestion(ctx, taskID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(c, http.StatusNotFound, fmt.Errorf("question %q not found", taskID))
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if !q.HasFile() {
		respondError(c, http.StatusNotFound, fmt.Errorf("question %q has no file", taskID))
		return
	}
	if s.files == nil {
		respondError(c, http.StatusServiceUnavailable, errors.New("file storage not configured"))
		return
	}

	signed, err := s.files.PresignedGetURL(ctx, q.FileURL, downloadExpiry)
	if err != nil {
		respondError(c, http.StatusBadGateway, err)
		return
	}
	c.Redirect(http.StatusFound, signed)
}

func (s *Server) handleAsk(c *gin.Context) {
	s.runAsk(c, false)
}

func (s *Server) handleAskWithSteps(c *gin.Context) {
	s.runAsk(c, true)
}

func (s *Server) runAsk(c *gin.Context, withSteps bool) {
	if s == nil || s.runner == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	var req bench.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if strings.TrimSpace(req.Model) == "" && s.config != nil {
		req.Model = s.config.LLM.DefaultModel
	}

	ctx := c.Request.Context()
	var (
		res *bench.AskResult
		err error
	)
	if withSteps {
		res, err = s.runner.AskWithSteps(ctx, &req)
	} else {
		res, err = s.runner.Ask(ctx, &req)
	}
	if err != nil {
		s.respondAskError(c, &req, res, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// respondAskError maps runner failures onto HTTP statuses: unknown question
// 404, steps retry not allowed 409, unscorable response 422, model or
// transport failure 502.
func (s *Server) respondAskError(c *gin.Context, req *bench.AskRequest, res *bench.AskResult, err error) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		respondError(c, http.StatusNotFound, fmt.Errorf("question %q not found", strings.TrimSpace(req.TaskID)))
	case errors.Is(err, bench.ErrStepsNotAllowed):
		respondError(c, http.StatusConflict, err)
	case errors.Is(err, validator.ErrNoReference), errors.Is(err, validator.ErrCannotValidate):
		respondError(c, http.StatusUnprocessableEntity, err)
	case res != nil && llm.IsSentinel(res.Response):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":    err.Error(),
			"response": res.Response,
		})
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleListOutcomes(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	limit, err := parseLimitParam(c.Query("limit"), defaultOutcomeLimit)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	filter := store.OutcomeFilter{
		TaskID: strings.TrimSpace(c.Query("task_id")),
		Model:  strings.TrimSpace(c.Query("model")),
		Limit:  limit,
	}
	records, err := s.store.ListOutcomes(c.Request.Context(), filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	views := make([]outcomeView, 0, len(records))
	for _, rec := range records {
		views = append(views, outcomeView{
			ID:        rec.ID,
			TaskID:    rec.TaskID,
			Model:     rec.Model,
			Response:  rec.Response,
			Category:  rec.Category,
			WithSteps: rec.WithSteps,
			Level:     rec.Level,
			CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"outcomes": views,
		"count":    len(views),
	})
}

func respondError(c *gin.Context, status int, err error) {
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.Status(status)
}

// parseLimitParam reads a positive integer query value, using fallback when
// the value is absent.
func parseLimitParam(raw string, fallback int) (int, error) {
	if raw = strings.TrimSpace(raw); raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return n, nil
}

func parseLevelParam(raw string) (int, error) {
	if raw = strings.TrimSpace(raw); raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid level %q", raw)
	}
	return n, nil
}
