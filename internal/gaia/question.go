// Package gaia defines the core types of the GAIA benchmark: questions,
// attempt categories, and attachment classification.
package gaia

import (
	"strings"
	"time"
)

// DefaultSplit is the dataset split evaluated by default.
const DefaultSplit = "validation"

// Question is one GAIA benchmark question with its reference answer and
// optional attachment metadata.
type Question struct {
	TaskID         string    `json:"task_id"`
	Question       string    `json:"question"`
	Level          int       `json:"level"`
	FinalAnswer    string    `json:"final_answer"`
	FileName       string    `json:"file_name,omitempty"`
	FileExtension  string    `json:"file_extension,omitempty"`
	FileURL        string    `json:"file_url,omitempty"`
	AnnotatorSteps string    `json:"annotator_steps,omitempty"`
	Split          string    `json:"split"`
	CreatedAt      time.Time `json:"created_at"`
}

// HasFile reports whether the question carries a stored attachment.
func (q *Question) HasFile() bool {
	return q != nil && strings.TrimSpace(q.FileURL) != ""
}

// HasSteps reports whether the question carries annotator steps.
func (q *Question) HasSteps() bool {
	return q != nil && strings.TrimSpace(q.AnnotatorSteps) != ""
}
