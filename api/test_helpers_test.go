package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bdia-labs/gaia-bench/internal/bench"
	"github.com/bdia-labs/gaia-bench/internal/config"
	"github.com/bdia-labs/gaia-bench/internal/gaia"
	"github.com/bdia-labs/gaia-bench/internal/store"
)

type fakeStore struct {
	UpsertQuestionFunc func(ctx context.Context, q *gaia.Question) error
	GetQuestionFunc    func(ctx context.Context, taskID string) (*gaia.Question, error)
	ListQuestionsFunc  func(ctx context.Context, filter store.QuestionFilter) ([]*gaia.Question, error)
	RecordOutcomeFunc  func(ctx context.Context, rec *store.OutcomeRecord) error
	LatestOutcomeFunc  func(ctx context.Context, taskID, model string) (*store.OutcomeRecord, error)
	ListOutcomesFunc   func(ctx context.Context, filter store.OutcomeFilter) ([]*store.OutcomeRecord, error)
}

func (f *fakeStore) UpsertQuestion(ctx context.Context, q *gaia.Question) error {
	if f.UpsertQuestionFunc != nil {
		return f.UpsertQuestionFunc(ctx, q)
	}
	return nil
}

func (f *fakeStore) GetQuestion(ctx context.Context, taskID string) (*gaia.Question, error) {
	if f.GetQuestionFunc != nil {
		return f.GetQuestionFunc(ctx, taskID)
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStore) ListQuestions(ctx context.Context, filter store.QuestionFilter) ([]*gaia.Question, error) {
	if f.ListQuestionsFunc != nil {
		return f.ListQuestionsFunc(ctx, filter)
	}
	return nil, nil
}

func (f *fakeStore) RecordOutcome(ctx context.Context, rec *store.OutcomeRecord) error {
	if f.RecordOutcomeFunc != nil {
		return f.RecordOutcomeFunc(ctx, rec)
	}
	return nil
}

func (f *fakeStore) LatestOutcome(ctx context.Context, taskID, model string) (*store.OutcomeRecord, error) {
	if f.LatestOutcomeFunc != nil {
		return f.LatestOutcomeFunc(ctx, taskID, model)
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStore) ListOutcomes(ctx context.Context, filter store.OutcomeFilter) ([]*store.OutcomeRecord, error) {
	if f.ListOutcomesFunc != nil {
		return f.ListOutcomesFunc(ctx, filter)
	}
	return nil, nil
}

func (f *fakeStore) Close() error { return nil }

type fakeRunner struct {
	AskFunc          func(ctx context.Context, req *bench.AskRequest) (*bench.AskResult, error)
	AskWithStepsFunc func(ctx context.Context, req *bench.AskRequest) (*bench.AskResult, error)
}

func (f *fakeRunner) Ask(ctx context.Context, req *bench.AskRequest) (*bench.AskResult, error) {
	if f.AskFunc != nil {
		return f.AskFunc(ctx, req)
	}
	return nil, errors.New("unexpected Ask call")
}

func (f *fakeRunner) AskWithSteps(ctx context.Context, req *bench.AskRequest) (*bench.AskResult, error) {
	if f.AskWithStepsFunc != nil {
		return f.AskWithStepsFunc(ctx, req)
	}
	return nil, errors.New("unexpected AskWithSteps call")
}

type fakeSigner struct {
	PresignFunc func(ctx context.Context, objectURL string, expiry time.Duration) (string, error)
}

func (f *fakeSigner) PresignedGetURL(ctx context.Context, objectURL string, expiry time.Duration) (string, error) {
	if f.PresignFunc != nil {
		return f.PresignFunc(ctx, objectURL, expiry)
	}
	return "https://signed.example/file", nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LLM.DefaultModel = "gpt-4o"
	cfg.LLM.Models = []string{"gpt-4o", "claude-3-5-sonnet"}
	return cfg
}

// newTestServer builds a Server with auth disabled. Tests that exercise auth
// set the env themselves and call NewServer directly.
func newTestServer(t *testing.T, st store.Store, runner AskRunner, files FileURLSigner) *Server {
	t.Helper()
	t.Setenv("GAIA_BENCH_API_KEY", "")
	t.Setenv("GAIA_BENCH_DISABLE_AUTH", "true")

	gin.SetMode(gin.TestMode)
	s, err := NewServer(testConfig(), st, runner, files, zap.NewNop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func doRequest(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}
