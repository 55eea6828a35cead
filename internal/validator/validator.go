// Package validator decides whether a model response matches a question's
// reference answer.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bdia-labs/gaia-bench/internal/llm"
)

var (
	// ErrNoReference means the question carries no usable reference answer,
	// so no verdict can be produced.
	ErrNoReference = errors.New("validator: no reference answer")

	// ErrCannotValidate means the candidate is not a comparable answer, for
	// example a failure sentinel or an empty string.
	ErrCannotValidate = errors.New("validator: cannot validate response")
)

// Normalize lowercases s and collapses every whitespace run to a single
// space. Two answers compare equal exactly when their normalized forms are
// identical.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Mismatch compares a candidate model response against the reference answer.
// It returns true when the candidate is judged wrong and false when it is
// judged correct. A sentinel or empty candidate yields ErrCannotValidate; a
// missing reference yields ErrNoReference. The verdict value is meaningless
// whenever an error is returned.
func Mismatch(reference, candidate string) (bool, error) {
	ref := Normalize(reference)
	if ref == "" {
		return false, ErrNoReference
	}
	if llm.IsSentinel(candidate) {
		return false, fmt.Errorf("%w: model failure sentinel", ErrCannotValidate)
	}
	cand := Normalize(candidate)
	if cand == "" {
		return false, fmt.Errorf("%w: empty response", ErrCannotValidate)
	}
	return ref != cand, nil
}
