package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/bdia-labs/gaia-bench/internal/gaia"
	"github.com/bdia-labs/gaia-bench/internal/store"
)

func TestQuestions_Table(t *testing.T) {
	saveCLISeams(t)

	var gotFilter store.QuestionFilter
	useStubStore(t, &stubStore{
		listQuestionsFunc: func(_ context.Context, filter store.QuestionFilter) ([]*gaia.Question, error) {
			gotFilter = filter
			return []*gaia.Question{
				{TaskID: "t1", Level: 1, Question: "Short question?"},
				{TaskID: "t2", Level: 2, FileName: "data.pdf", Question: strings.Repeat("very long question ", 10)},
			}, nil
		},
	})

	out, err := runCLI(t, "questions",
		"--config", writeTestConfig(t, ""),
		"--level", "2", "--extension", "pdf", "--split", "validation", "--limit", "5")
	if err != nil {
		t.Fatalf("questions: %v", err)
	}

	want := store.QuestionFilter{Level: 2, Extension: "pdf", Split: "validation", Limit: 5}
	if gotFilter != want {
		t.Fatalf("filter = %+v, want %+v", gotFilter, want)
	}

	for _, s := range []string{"TASK", "LEVEL", "FILE", "QUESTION", "t1", "t2", "data.pdf", "2 questions"} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}
	if !strings.Contains(out, "…") {
		t.Errorf("long question not truncated:\n%s", out)
	}

	// The question without a file shows a dash placeholder.
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "t1") && !strings.Contains(line, "-") {
			t.Errorf("t1 row missing file placeholder: %q", line)
		}
	}
}

func TestQuestions_JSON(t *testing.T) {
	saveCLISeams(t)

	useStubStore(t, &stubStore{
		listQuestionsFunc: func(_ context.Context, filter store.QuestionFilter) ([]*gaia.Question, error) {
			return []*gaia.Question{{TaskID: "t1", Level: 3, FinalAnswer: "42"}}, nil
		},
	})

	out, err := runCLI(t, "questions", "--config", writeTestConfig(t, ""), "--format", "json")
	if err != nil {
		t.Fatalf("questions: %v", err)
	}

	var qs []*gaia.Question
	if err := json.Unmarshal([]byte(out), &qs); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(qs) != 1 || qs[0].TaskID != "t1" || qs[0].Level != 3 {
		t.Fatalf("qs = %+v", qs)
	}
}

func TestQuestions_StoreError(t *testing.T) {
	saveCLISeams(t)

	useStubStore(t, &stubStore{
		listQuestionsFunc: func(_ context.Context, filter store.QuestionFilter) ([]*gaia.Question, error) {
			return nil, errors.New("db gone")
		},
	})

	_, err := runCLI(t, "questions", "--config", writeTestConfig(t, ""))
	if err == nil || !strings.Contains(err.Error(), "db gone") {
		t.Fatalf("err = %v", err)
	}
}

func TestQuestions_InvalidFormat(t *testing.T) {
	saveCLISeams(t)
	useStubStore(t, &stubStore{})

	_, err := runCLI(t, "questions", "--config", writeTestConfig(t, ""), "--format", "csv")
	if err == nil || !strings.Contains(err.Error(), "invalid --format") {
		t.Fatalf("err = %v", err)
	}
}
