package store

import (
	"context"
	"time"

	"github.com/bdia-labs/gaia-bench/internal/gaia"
)

// QuestionWriter persists question metadata.
type QuestionWriter interface {
	UpsertQuestion(ctx context.Context, q *gaia.Question) error
}

// QuestionReader reads question metadata.
type QuestionReader interface {
	GetQuestion(ctx context.Context, taskID string) (*gaia.Question, error)
	ListQuestions(ctx context.Context, filter QuestionFilter) ([]*gaia.Question, error)
}

// OutcomeWriter persists attempt outcomes. Outcomes are append-only: written
// once, never updated or deleted.
type OutcomeWriter interface {
	RecordOutcome(ctx context.Context, rec *OutcomeRecord) error
}

// OutcomeReader reads recorded outcomes.
type OutcomeReader interface {
	LatestOutcome(ctx context.Context, taskID, model string) (*OutcomeRecord, error)
	ListOutcomes(ctx context.Context, filter OutcomeFilter) ([]*OutcomeRecord, error)
}

// Store composes question and outcome persistence.
type Store interface {
	QuestionWriter
	QuestionReader
	OutcomeWriter
	OutcomeReader
	Close() error
}

// OutcomeRecord is one recorded attempt. Level is joined from the question
// row on reads and ignored on writes.
type OutcomeRecord struct {
	ID        string
	TaskID    string
	Model     string
	Response  string
	Category  gaia.Category
	WithSteps bool
	Level     int
	CreatedAt time.Time
}

// QuestionFilter narrows question listings. Zero values match everything; a
// Limit <= 0 means no limit.
type QuestionFilter struct {
	Level     int
	Extension string
	Split     string
	Limit     int
}

// OutcomeFilter narrows outcome listings. Zero values match everything; a
// Limit <= 0 means no limit.
type OutcomeFilter struct {
	TaskID string
	Model  string
	Limit  int
}
