package gaia

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category classifies one recorded attempt outcome.
type Category int

const (
	// CategoryCorrectAsIs marks a first attempt whose answer matched the
	// reference.
	CategoryCorrectAsIs Category = iota + 1
	// CategoryCorrectAfterSteps marks a steps-assisted retry whose answer
	// matched the reference.
	CategoryCorrectAfterSteps
	// CategoryWrongAnswer marks an attempt whose answer did not match.
	CategoryWrongAnswer
)

const (
	categoryCorrectAsIsText       = "correct as-is"
	categoryCorrectAfterStepsText = "correct after steps"
	categoryWrongAnswerText       = "wrong answer"
)

// Categories lists every valid category.
func Categories() []Category {
	return []Category{CategoryCorrectAsIs, CategoryCorrectAfterSteps, CategoryWrongAnswer}
}

// Valid reports whether c is one of the defined categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryCorrectAsIs, CategoryCorrectAfterSteps, CategoryWrongAnswer:
		return true
	default:
		return false
	}
}

// Correct reports whether c counts toward a model's score.
func (c Category) Correct() bool {
	return c == CategoryCorrectAsIs || c == CategoryCorrectAfterSteps
}

// String returns the storage form of the category.
func (c Category) String() string {
	switch c {
	case CategoryCorrectAsIs:
		return categoryCorrectAsIsText
	case CategoryCorrectAfterSteps:
		return categoryCorrectAfterStepsText
	case CategoryWrongAnswer:
		return categoryWrongAnswerText
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// ParseCategory maps a storage string back to its Category.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case categoryCorrectAsIsText:
		return CategoryCorrectAsIs, nil
	case categoryCorrectAfterStepsText:
		return CategoryCorrectAfterSteps, nil
	case categoryWrongAnswerText:
		return CategoryWrongAnswer, nil
	default:
		return 0, fmt.Errorf("gaia: unknown response category %q", s)
	}
}

// MarshalJSON encodes the category as its storage string.
func (c Category) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("gaia: cannot marshal invalid category %d", int(c))
	}
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a storage string into the category.
func (c *Category) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("gaia: decode category: %w", err)
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
