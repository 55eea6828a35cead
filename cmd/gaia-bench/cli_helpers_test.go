package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bdia-labs/gaia-bench/internal/config"
	"github.com/bdia-labs/gaia-bench/internal/gaia"
	"github.com/bdia-labs/gaia-bench/internal/store"
)

// cliMu serializes tests that swap the constructor seams.
var cliMu sync.Mutex

// saveCLISeams locks out other seam-swapping tests and restores every seam
// on cleanup.
func saveCLISeams(t *testing.T) {
	t.Helper()
	cliMu.Lock()

	prevOpenStore := openStore
	prevNewObjstore := newObjstore
	prevNewRegistry := newRegistry
	prevNewHub := newHub
	prevReadLocalMetadata := readLocalMetadata
	prevNewRunner := newRunner

	t.Cleanup(func() {
		openStore = prevOpenStore
		newObjstore = prevNewObjstore
		newRegistry = prevNewRegistry
		newHub = prevNewHub
		readLocalMetadata = prevReadLocalMetadata
		newRunner = prevNewRunner
		cliMu.Unlock()
	})
}

// stubStore implements store.Store with overridable behavior per method.
type stubStore struct {
	upsertFunc        func(ctx context.Context, q *gaia.Question) error
	getFunc           func(ctx context.Context, taskID string) (*gaia.Question, error)
	listQuestionsFunc func(ctx context.Context, filter store.QuestionFilter) ([]*gaia.Question, error)
	recordFunc        func(ctx context.Context, rec *store.OutcomeRecord) error
	latestFunc        func(ctx context.Context, taskID, model string) (*store.OutcomeRecord, error)
	listOutcomesFunc  func(ctx context.Context, filter store.OutcomeFilter) ([]*store.OutcomeRecord, error)

	closed int
}

func (s *stubStore) UpsertQuestion(ctx context.Context, q *gaia.Question) error {
	if s.upsertFunc != nil {
		return s.upsertFunc(ctx, q)
	}
	return nil
}

func (s *stubStore) GetQuestion(ctx context.Context, taskID string) (*gaia.Question, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, taskID)
	}
	return nil, sql.ErrNoRows
}

func (s *stubStore) ListQuestions(ctx context.Context, filter store.QuestionFilter) ([]*gaia.Question, error) {
	if s.listQuestionsFunc != nil {
		return s.listQuestionsFunc(ctx, filter)
	}
	return nil, nil
}

func (s *stubStore) RecordOutcome(ctx context.Context, rec *store.OutcomeRecord) error {
	if s.recordFunc != nil {
		return s.recordFunc(ctx, rec)
	}
	return nil
}

func (s *stubStore) LatestOutcome(ctx context.Context, taskID, model string) (*store.OutcomeRecord, error) {
	if s.latestFunc != nil {
		return s.latestFunc(ctx, taskID, model)
	}
	return nil, sql.ErrNoRows
}

func (s *stubStore) ListOutcomes(ctx context.Context, filter store.OutcomeFilter) ([]*store.OutcomeRecord, error) {
	if s.listOutcomesFunc != nil {
		return s.listOutcomesFunc(ctx, filter)
	}
	return nil, nil
}

func (s *stubStore) Close() error {
	s.closed++
	return nil
}

// useStubStore points the openStore seam at st and returns it.
func useStubStore(t *testing.T, st *stubStore) *stubStore {
	t.Helper()
	openStore = func(cfg *config.Config) (store.Store, error) {
		return st, nil
	}
	return st
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%q): %v", path, err)
	}
}

// writeTestConfig writes a config file with quiet logging plus extra YAML
// sections and returns its path.
func writeTestConfig(t *testing.T, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "logging:\n  level: error\n"
	if strings.TrimSpace(extra) != "" {
		content += strings.TrimSpace(extra) + "\n"
	}
	writeFile(t, path, content)
	return path
}

// runCLI executes the root command with both output streams captured.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}
