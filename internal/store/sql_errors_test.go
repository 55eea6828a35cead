package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bdia-labs/gaia-bench/internal/gaia"
)

func TestNewSQLiteStore_OpenErrors(t *testing.T) {
	cases := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			// The parent "directory" is a regular file, so MkdirAll fails.
			name: "parent not a directory",
			path: func(t *testing.T) string {
				f := filepath.Join(t.TempDir(), "occupied")
				if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
					t.Fatalf("WriteFile: %v", err)
				}
				return filepath.Join(f, "bench.db")
			},
		},
		{
			// Opening a directory as a database fails the connection ping.
			name: "path is a directory",
			path: func(t *testing.T) string { return t.TempDir() },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewSQLiteStore(tc.path(t)); err == nil {
				t.Fatalf("NewSQLiteStore: expected error")
			}
		})
	}
}

func TestInitSchema_UnknownDialect(t *testing.T) {
	st := newTestStore(t)
	if err := initSchema(st.db, dialect(99)); err == nil || !strings.Contains(err.Error(), "unknown dialect") {
		t.Fatalf("initSchema(unknown): %v", err)
	}
}

func TestSQLStore_PrepareStatements_NilGuards(t *testing.T) {
	if err := (*SQLStore)(nil).prepareStatements(); err == nil {
		t.Fatalf("prepareStatements(nil): expected error")
	}
	if err := (&SQLStore{}).prepareStatements(); err == nil {
		t.Fatalf("prepareStatements(nil db): expected error")
	}
	if err := (&SQLStore{}).Close(); err != nil {
		t.Fatalf("Close(nil db): %v", err)
	}
}

func TestSQLStore_ClosedDBErrors(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.db.Close(); err != nil {
		t.Fatalf("Close db: %v", err)
	}

	if err := st.UpsertQuestion(ctx, testQuestion("t")); err == nil {
		t.Fatalf("UpsertQuestion(closed db): expected error")
	}
	if err := st.RecordOutcome(ctx, &OutcomeRecord{
		TaskID:   "t",
		Model:    "m",
		Category: gaia.CategoryWrongAnswer,
	}); err == nil {
		t.Fatalf("RecordOutcome(closed db): expected error")
	}
	if _, err := st.ListQuestions(ctx, QuestionFilter{}); err == nil {
		t.Fatalf("ListQuestions(closed db): expected error")
	}
	if _, err := st.ListOutcomes(ctx, OutcomeFilter{}); err == nil {
		t.Fatalf("ListOutcomes(closed db): expected error")
	}
}

func TestSQLStore_BadStoredCategory(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.UpsertQuestion(ctx, testQuestion("task_bad")); err != nil {
		t.Fatalf("UpsertQuestion: %v", err)
	}
	if _, err := st.db.ExecContext(ctx, `
		INSERT INTO model_responses (id, task_id, model_used, model_response, response_category, with_steps, created_at)
		VALUES ('bad1', 'task_bad', 'gpt-4o', 'x', 'nonsense', 0, 1)
	`); err != nil {
		t.Fatalf("INSERT bad category: %v", err)
	}

	if _, err := st.LatestOutcome(ctx, "task_bad", "gpt-4o"); err == nil || !strings.Contains(err.Error(), "unknown response category") {
		t.Fatalf("LatestOutcome(bad category): %v", err)
	}
	if _, err := st.ListOutcomes(ctx, OutcomeFilter{TaskID: "task_bad"}); err == nil || !strings.Contains(err.Error(), "unknown response category") {
		t.Fatalf("ListOutcomes(bad category): %v", err)
	}
}

func TestSQLStore_QueryValidationErrors(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if _, err := st.GetQuestion(nil, "x"); err == nil { //nolint:staticcheck
		t.Fatalf("GetQuestion(nil ctx): expected error")
	}
	if _, err := st.GetQuestion(ctx, "  "); err == nil {
		t.Fatalf("GetQuestion(empty id): expected error")
	}
	if _, err := st.LatestOutcome(ctx, " ", "m"); err == nil {
		t.Fatalf("LatestOutcome(empty task): expected error")
	}
	if _, err := st.LatestOutcome(ctx, "t", "  "); err == nil {
		t.Fatalf("LatestOutcome(empty model): expected error")
	}
	if _, err := st.ListQuestions(nil, QuestionFilter{}); err == nil { //nolint:staticcheck
		t.Fatalf("ListQuestions(nil ctx): expected error")
	}
	if _, err := st.ListOutcomes(nil, OutcomeFilter{}); err == nil { //nolint:staticcheck
		t.Fatalf("ListOutcomes(nil ctx): expected error")
	}
}

func TestScanRows_ColumnMismatch(t *testing.T) {
	st := newTestStore(t)

	scans := map[string]func(*sql.Rows) error{
		"questions": func(rows *sql.Rows) error { _, err := scanQuestionRows(rows); return err },
		"outcomes":  func(rows *sql.Rows) error { _, err := scanOutcomeRows(rows); return err },
	}
	for name, scan := range scans {
		t.Run(name, func(t *testing.T) {
			rows, err := st.db.QueryContext(context.Background(), `SELECT 1`)
			if err != nil {
				t.Fatalf("QueryContext: %v", err)
			}
			defer rows.Close()

			if err := scan(rows); err == nil {
				t.Fatalf("scan of a one-column row: expected error")
			}
		})
	}
}
