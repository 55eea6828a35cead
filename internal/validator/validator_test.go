package validator

import (
	"errors"
	"testing"

	"github.com/bdia-labs/gaia-bench/internal/llm"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "whitespace only", in: " \t\n ", want: ""},
		{name: "lowercases", in: "Paris", want: "paris"},
		{name: "collapses runs", in: "  17\t thousand\n islands ", want: "17 thousand islands"},
		{name: "already normal", in: "right", want: "right"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q): got %q want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestMismatch(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		reference string
		candidate string
		want      bool
	}{
		{name: "exact match", reference: "Paris", candidate: "Paris", want: false},
		{name: "case insensitive", reference: "Paris", candidate: "paris", want: false},
		{name: "whitespace insensitive", reference: "17 thousand islands", candidate: " 17\tthousand\nislands ", want: false},
		{name: "different answer", reference: "Paris", candidate: "Lyon", want: true},
		{name: "substring is not a match", reference: "Paris", candidate: "Paris, France", want: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Mismatch(tc.reference, tc.candidate)
			if err != nil {
				t.Fatalf("Mismatch: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Mismatch(%q, %q): got %v want %v", tc.reference, tc.candidate, got, tc.want)
			}
		})
	}
}

func TestMismatchNoReference(t *testing.T) {
	t.Parallel()

	_, err := Mismatch("   ", "anything")
	if !errors.Is(err, ErrNoReference) {
		t.Fatalf("expected ErrNoReference, got %v", err)
	}
}

func TestMismatchRejectsSentinel(t *testing.T) {
	t.Parallel()

	_, err := Mismatch("Paris", llm.Sentinel("rate limited"))
	if !errors.Is(err, ErrCannotValidate) {
		t.Fatalf("expected ErrCannotValidate, got %v", err)
	}
}

func TestMismatchRejectsEmptyCandidate(t *testing.T) {
	t.Parallel()

	_, err := Mismatch("Paris", "  \n ")
	if !errors.Is(err, ErrCannotValidate) {
		t.Fatalf("expected ErrCannotValidate, got %v", err)
	}
}
