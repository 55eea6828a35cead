package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/bdia-labs/gaia-bench/internal/gaia"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectMySQL
)

// SQLStore implements Store over SQLite or MySQL. The two share one schema
// shape; only the upsert syntax and column types differ.
type SQLStore struct {
	db      *sql.DB
	dialect dialect

	upsertQuestionStmt *sql.Stmt
	getQuestionStmt    *sql.Stmt
	insertOutcomeStmt  *sql.Stmt
	latestOutcomeStmt  *sql.Stmt
}

var (
	sqlOpen              = sql.Open
	sqlPrepareStatements = (*SQLStore).prepareStatements
	newOutcomeID         = uuid.NewString
)

// NewSQLiteStore opens or creates a SQLite store at the given path.
func NewSQLiteStore(path string) (*SQLStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: empty sqlite path")
	}
	if dir := filepath.Dir(path); path != ":memory:" && dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create sqlite dir: %w", err)
		}
	}
	return newSQLStore("sqlite3", path, dialectSQLite)
}

// NewMySQLStore connects to a MySQL database via DSN.
func NewMySQLStore(dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("store: empty mysql dsn")
	}
	return newSQLStore("mysql", dsn, dialectMySQL)
}

func newSQLStore(driver, dsn string, d dialect) (*SQLStore, error) {
	db, err := sqlOpen(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driver, err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", driver, err)
	}

	if err := initSchema(db, d); err != nil {
		_ = db.Close()
		return nil, err
	}

	st := &SQLStore{db: db, dialect: d}
	if err := sqlPrepareStatements(st); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func initSchema(db *sql.DB, d dialect) error {
	var stmts []string
	switch d {
	case dialectSQLite:
		stmts = []string{
			`PRAGMA foreign_keys = ON`,
			`PRAGMA journal_mode = WAL`,
			`CREATE TABLE IF NOT EXISTS gaia_questions (
				task_id TEXT PRIMARY KEY,
				question TEXT NOT NULL,
				level INTEGER NOT NULL,
				final_answer TEXT NOT NULL,
				file_name TEXT NOT NULL DEFAULT '',
				file_extension TEXT NOT NULL DEFAULT '',
				s3_url TEXT NOT NULL DEFAULT '',
				annotator_steps TEXT NOT NULL DEFAULT '',
				split TEXT NOT NULL DEFAULT 'validation',
				created_at INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS model_responses (
				id TEXT PRIMARY KEY,
				task_id TEXT NOT NULL,
				model_used TEXT NOT NULL,
				model_response TEXT NOT NULL,
				response_category TEXT NOT NULL,
				with_steps INTEGER NOT NULL DEFAULT 0,
				created_at INTEGER NOT NULL,
				FOREIGN KEY(task_id) REFERENCES gaia_questions(task_id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_questions_level ON gaia_questions(level)`,
			`CREATE INDEX IF NOT EXISTS idx_questions_extension ON gaia_questions(file_extension)`,
			`CREATE INDEX IF NOT EXISTS idx_responses_task_model ON model_responses(task_id, model_used)`,
			`CREATE INDEX IF NOT EXISTS idx_responses_created_at ON model_responses(created_at)`,
		}
	case dialectMySQL:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS gaia_questions (
				task_id VARCHAR(64) PRIMARY KEY,
				question TEXT NOT NULL,
				level INT NOT NULL,
				final_answer TEXT NOT NULL,
				file_name VARCHAR(255) NOT NULL DEFAULT '',
				file_extension VARCHAR(16) NOT NULL DEFAULT '',
				s3_url VARCHAR(1024) NOT NULL DEFAULT '',
				annotator_steps TEXT NOT NULL,
				split VARCHAR(32) NOT NULL DEFAULT 'validation',
				created_at BIGINT NOT NULL,
				INDEX idx_questions_level (level),
				INDEX idx_questions_extension (file_extension)
			)`,
			`CREATE TABLE IF NOT EXISTS model_responses (
				id VARCHAR(64) PRIMARY KEY,
				task_id VARCHAR(64) NOT NULL,
				model_used VARCHAR(64) NOT NULL,
				model_response TEXT NOT NULL,
				response_category VARCHAR(32) NOT NULL,
				with_steps TINYINT(1) NOT NULL DEFAULT 0,
				created_at BIGINT NOT NULL,
				INDEX idx_responses_task_model (task_id, model_used),
				INDEX idx_responses_created_at (created_at)
			)`,
		}
	default:
		return fmt.Errorf("store: unknown dialect %d", d)
	}

	for i, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init schema statement %d: %w", i, err)
		}
	}
	return nil
}

func (s *SQLStore) prepareStatements() error {
	if s == nil || s.db == nil {
		return errors.New("store: nil sql store")
	}

	upsertQuestion := `
		INSERT INTO gaia_questions (
			task_id, question, level, final_answer, file_name, file_extension,
			s3_url, annotator_steps, split, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			question = excluded.question,
			level = excluded.level,
			final_answer = excluded.final_answer,
			file_name = excluded.file_name,
			file_extension = excluded.file_extension,
			s3_url = excluded.s3_url,
			annotator_steps = excluded.annotator_steps,
			split = excluded.split
	`
	if s.dialect == dialectMySQL {
		upsertQuestion = `
			INSERT INTO gaia_questions (
				task_id, question, level, final_answer, file_name, file_extension,
				s3_url, annotator_steps, split, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE
				question = VALUES(question),
				level = VALUES(level),
				final_answer = VALUES(final_answer),
				file_name = VALUES(file_name),
				file_extension = VALUES(file_extension),
				s3_url = VALUES(s3_url),
				annotator_steps = VALUES(annotator_steps),
				split = VALUES(split)
		`
	}

	ctx := context.Background()
	preps := []struct {
		into  **sql.Stmt
		name  string
		query string
	}{
		{&s.upsertQuestionStmt, "upsert question", upsertQuestion},
		{&s.getQuestionStmt, "get question", `
			SELECT task_id, question, level, final_answer, file_name, file_extension,
				s3_url, annotator_steps, split, created_at
			FROM gaia_questions WHERE task_id = ?
		`},
		{&s.insertOutcomeStmt, "insert outcome", `
			INSERT INTO model_responses (
				id, task_id, model_used, model_response, response_category, with_steps, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`},
		{&s.latestOutcomeStmt, "latest outcome", `
			SELECT r.id, r.task_id, r.model_used, r.model_response, r.response_category,
				r.with_steps, q.level, r.created_at
			FROM model_responses r
			LEFT JOIN gaia_questions q ON q.task_id = r.task_id
			WHERE r.task_id = ? AND r.model_used = ?
			ORDER BY r.created_at DESC, r.id DESC
			LIMIT 1
		`},
	}

	for _, p := range preps {
		stmt, err := s.db.PrepareContext(ctx, p.query)
		if err != nil {
			return fmt.Errorf("store: prepare %s: %w", p.name, err)
		}
		*p.into = stmt
	}
	return nil
}

// Close releases database resources.
func (s *SQLStore) Close() error {
	if s == nil {
		return nil
	}
	for _, stmt := range []*sql.Stmt{
		s.upsertQuestionStmt,
		s.getQuestionStmt,
		s.insertOutcomeStmt,
		s.latestOutcomeStmt,
	} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// UpsertQuestion inserts a question row or refreshes an existing one. The
// original created_at is kept on refresh.
func (s *SQLStore) UpsertQuestion(ctx context.Context, q *gaia.Question) error {
	if s == nil {
		return errors.New("store: nil sql store")
	}
	if ctx == nil {
		return errors.New("store: nil context")
	}
	if q == nil {
		return errors.New("store: nil question")
	}

	taskID := strings.TrimSpace(q.TaskID)
	if taskID == "" {
		return errors.New("store: empty task id")
	}
	if strings.TrimSpace(q.Question) == "" {
		return errors.New("store: empty question text")
	}

	split := strings.TrimSpace(q.Split)
	if split == "" {
		split = gaia.DefaultSplit
	}
	createdAt := q.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.upsertQuestionStmt.ExecContext(
		ctx,
		taskID,
		q.Question,
		q.Level,
		q.FinalAnswer,
		strings.TrimSpace(q.FileName),
		gaia.NormalizeExtension(q.FileExtension),
		strings.TrimSpace(q.FileURL),
		q.AnnotatorSteps,
		split,
		createdAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("store: upsert question: %w", err)
	}
	return nil
}

// GetQuestion loads a question by task id.
func (s *SQLStore) GetQuestion(ctx context.Context, taskID string) (*gaia.Question, error) {
	if s == nil {
		return nil, errors.New("store: nil sql store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, errors.New("store: empty task id")
	}

	row := s.getQuestionStmt.QueryRowContext(ctx, taskID)
	q, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: get question: %w", err)
	}
	return q, nil
}

// ListQuestions returns questions matching the filter, ordered by level then
// task id.
func (s *SQLStore) ListQuestions(ctx context.Context, filter QuestionFilter) ([]*gaia.Question, error) {
	if s == nil {
		return nil, errors.New("store: nil sql store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	var sb strings.Builder
	sb.WriteString(`SELECT task_id, question, level, final_answer, file_name, file_extension, s3_url, annotator_steps, split, created_at FROM gaia_questions WHERE 1=1`)

	var args []any
	if filter.Level != 0 {
		sb.WriteString(` AND level = ?`)
		args = append(args, filter.Level)
	}
	if ext := gaia.NormalizeExtension(filter.Extension); ext != "" {
		sb.WriteString(` AND file_extension = ?`)
		args = append(args, ext)
	}
	if split := strings.TrimSpace(filter.Split); split != "" {
		sb.WriteString(` AND split = ?`)
		args = append(args, split)
	}
	sb.WriteString(` ORDER BY level ASC, task_id ASC`)
	if filter.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("store: list questions: %w", err)
	}
	defer rows.Close()
	return scanQuestionRows(rows)
}

// RecordOutcome appends one immutable attempt outcome. An empty ID is filled
// in; rec is updated with the stored identity.
func (s *SQLStore) RecordOutcome(ctx context.Context, rec *OutcomeRecord) error {
	if s == nil {
		return errors.New("store: nil sql store")
	}
	if ctx == nil {
		return errors.New("store: nil context")
	}
	if rec == nil {
		return errors.New("store: nil outcome")
	}

	taskID := strings.TrimSpace(rec.TaskID)
	if taskID == "" {
		return errors.New("store: empty task id")
	}
	model := strings.TrimSpace(rec.Model)
	if model == "" {
		return errors.New("store: empty model")
	}
	if !rec.Category.Valid() {
		return fmt.Errorf("store: invalid response category %d", int(rec.Category))
	}

	id := strings.TrimSpace(rec.ID)
	if id == "" {
		id = newOutcomeID()
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin outcome tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt := tx.StmtContext(ctx, s.insertOutcomeStmt)
	defer stmt.Close()

	_, err = stmt.ExecContext(
		ctx,
		id,
		taskID,
		model,
		rec.Response,
		rec.Category.String(),
		rec.WithSteps,
		createdAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("store: insert outcome: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit outcome: %w", err)
	}

	rec.ID = id
	rec.TaskID = taskID
	rec.Model = model
	rec.CreatedAt = createdAt
	return nil
}

// LatestOutcome returns the most recent outcome for a (question, model)
// pair, or sql.ErrNoRows when the pair has no attempts.
func (s *SQLStore) LatestOutcome(ctx context.Context, taskID, model string) (*OutcomeRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sql store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, errors.New("store: empty task id")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("store: empty model")
	}

	row := s.latestOutcomeStmt.QueryRowContext(ctx, taskID, model)
	rec, err := scanOutcome(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: latest outcome: %w", err)
	}
	return rec, nil
}

// ListOutcomes returns outcomes matching the filter, newest first, each
// joined with its question's level.
func (s *SQLStore) ListOutcomes(ctx context.Context, filter OutcomeFilter) ([]*OutcomeRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sql store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	var sb strings.Builder
	sb.WriteString(`SELECT r.id, r.task_id, r.model_used, r.model_response, r.response_category, r.with_steps, q.level, r.created_at FROM model_responses r LEFT JOIN gaia_questions q ON q.task_id = r.task_id WHERE 1=1`)

	var args []any
	if taskID := strings.TrimSpace(filter.TaskID); taskID != "" {
		sb.WriteString(` AND r.task_id = ?`)
		args = append(args, taskID)
	}
	if model := strings.TrimSpace(filter.Model); model != "" {
		sb.WriteString(` AND r.model_used = ?`)
		args = append(args, model)
	}
	sb.WriteString(` ORDER BY r.created_at DESC, r.id DESC`)
	if filter.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("store: list outcomes: %w", err)
	}
	defer rows.Close()
	return scanOutcomeRows(rows)
}

type rowScanner interface {
	Scan(dst ...any) error
}

func scanQuestion(row rowScanner) (*gaia.Question, error) {
	var (
		taskID         string
		question       string
		level          int
		finalAnswer    string
		fileName       string
		fileExtension  string
		fileURL        string
		annotatorSteps string
		split          string
		createdAtMS    int64
	)
	if err := row.Scan(&taskID, &question, &level, &finalAnswer, &fileName, &fileExtension, &fileURL, &annotatorSteps, &split, &createdAtMS); err != nil {
		return nil, err
	}
	return &gaia.Question{
		TaskID:         taskID,
		Question:       question,
		Level:          level,
		FinalAnswer:    finalAnswer,
		FileName:       fileName,
		FileExtension:  fileExtension,
		FileURL:        fileURL,
		AnnotatorSteps: annotatorSteps,
		Split:          split,
		CreatedAt:      time.UnixMilli(createdAtMS).UTC(),
	}, nil
}

func scanQuestionRows(rows *sql.Rows) ([]*gaia.Question, error) {
	var out []*gaia.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan question: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list questions: %w", err)
	}
	return out, nil
}

func scanOutcome(row rowScanner) (*OutcomeRecord, error) {
	var (
		id           string
		taskID       string
		model        string
		response     string
		categoryText string
		withSteps    bool
		level        sql.NullInt64
		createdAtMS  int64
	)
	if err := row.Scan(&id, &taskID, &model, &response, &categoryText, &withSteps, &level, &createdAtMS); err != nil {
		return nil, err
	}
	category, err := gaia.ParseCategory(categoryText)
	if err != nil {
		return nil, err
	}
	return &OutcomeRecord{
		ID:        id,
		TaskID:    taskID,
		Model:     model,
		Response:  response,
		Category:  category,
		WithSteps: withSteps,
		Level:     int(level.Int64),
		CreatedAt: time.UnixMilli(createdAtMS).UTC(),
	}, nil
}

func scanOutcomeRows(rows *sql.Rows) ([]*OutcomeRecord, error) {
	var out []*OutcomeRecord
	for rows.Next() {
		rec, err := scanOutcome(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan outcome: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list outcomes: %w", err)
	}
	return out, nil
}
