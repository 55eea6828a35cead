package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bdia-labs/gaia-bench/internal/claude"
)

func TestToClaudeRequest(t *testing.T) {
	t.Parallel()

	got, err := toClaudeRequest(&Request{
		Model:       " Claude-3-5-Haiku ",
		System:      "be brief",
		MaxTokens:   64,
		Temperature: 0.2,
		Messages: []Message{
			{Role: "", Content: "what year is it?"},
			{Role: " Assistant ", Content: "2026"},
			{Role: "user", Content: "sure?"},
		},
	})
	if err != nil {
		t.Fatalf("toClaudeRequest: %v", err)
	}
	if got.Model != "claude-3-5-haiku" {
		t.Errorf("Model: got %q", got.Model)
	}
	if got.System != "be brief" || got.MaxTokens != 64 || got.Temperature != 0.2 {
		t.Errorf("fields: %+v", got)
	}
	wantMsgs := []claude.Message{
		{Role: "user", Content: "what year is it?"},
		{Role: "Assistant", Content: "2026"},
		{Role: "user", Content: "sure?"},
	}
	if len(got.Messages) != len(wantMsgs) {
		t.Fatalf("Messages: %+v", got.Messages)
	}
	for i, want := range wantMsgs {
		if got.Messages[i] != want {
			t.Errorf("Messages[%d]: got %+v want %+v", i, got.Messages[i], want)
		}
	}

	if _, err := toClaudeRequest(nil); err == nil {
		t.Errorf("toClaudeRequest(nil): expected error")
	}
}

func TestToClaudeRequest_DefaultMaxTokens(t *testing.T) {
	t.Parallel()

	for _, maxTokens := range []int{0, -5} {
		got, err := toClaudeRequest(&Request{
			Messages:  []Message{{Role: "user", Content: "hi"}},
			MaxTokens: maxTokens,
		})
		if err != nil {
			t.Fatalf("toClaudeRequest(%d): %v", maxTokens, err)
		}
		if got.MaxTokens != claudeDefaultMaxTokens {
			t.Errorf("MaxTokens(%d): got %d want %d", maxTokens, got.MaxTokens, claudeDefaultMaxTokens)
		}
	}
}

func TestFromClaudeResponse(t *testing.T) {
	t.Parallel()

	out := fromClaudeResponse(&claude.Response{
		StopReason: "max_tokens",
		Usage:      claude.Usage{InputTokens: 11, OutputTokens: 42},
		Content: []claude.ContentBlock{
			{Type: "text", Text: "Par"},
			{Type: "text", Text: "is"},
		},
	})
	if out.Text != "Paris" {
		t.Errorf("Text: got %q", out.Text)
	}
	if out.StopReason != "max_tokens" {
		t.Errorf("StopReason: got %q", out.StopReason)
	}
	if out.Usage.InputTokens != 11 || out.Usage.OutputTokens != 42 {
		t.Errorf("Usage: %+v", out.Usage)
	}

	if got := fromClaudeResponse(nil); got != nil {
		t.Errorf("fromClaudeResponse(nil): got %#v", got)
	}
}

// claudeWire is the slice of the Anthropic request body these tests
// care about.
type claudeWire struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content []struct {
			Type   string `json:"type"`
			Text   string `json:"text"`
			Source struct {
				Type string `json:"type"`
				URL  string `json:"url"`
			} `json:"source"`
		} `json:"content"`
	} `json:"messages"`
}

func startClaudeStub(t *testing.T, replyText string) (*ClaudeProvider, <-chan claudeWire) {
	t.Helper()

	seen := make(chan claudeWire, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var wire claudeWire
		if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		seen <- wire

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": %q,
			"stop_reason": "end_turn",
			"content": [{"type": "text", "text": %q}],
			"usage": {"input_tokens": 3, "output_tokens": 5}
		}`, wire.Model, replyText)
	}))
	t.Cleanup(srv.Close)

	return NewClaudeProvider("k", srv.URL+"/v1"), seen
}

func TestClaudeProvider_Complete(t *testing.T) {
	t.Parallel()

	p, seen := startClaudeStub(t, "four")
	if p.Name() != "claude" {
		t.Fatalf("Name: got %q", p.Name())
	}

	resp, err := p.Complete(context.Background(), &Request{
		Model:    "Claude-Sonnet-4-5-20250929",
		System:   "answer briefly",
		Messages: []Message{{Role: "user", Content: "2+2?"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != "four" || resp.StopReason != "end_turn" {
		t.Fatalf("response: %+v", resp)
	}
	if resp.Usage.InputTokens != 3 || resp.Usage.OutputTokens != 5 {
		t.Fatalf("usage: %+v", resp.Usage)
	}

	wire := <-seen
	if wire.Model != "claude-sonnet-4-5-20250929" {
		t.Errorf("model: got %q", wire.Model)
	}
	if wire.MaxTokens != claudeDefaultMaxTokens {
		t.Errorf("max_tokens: got %d want %d", wire.MaxTokens, claudeDefaultMaxTokens)
	}
}

func TestClaudeProvider_CompleteWithImage(t *testing.T) {
	t.Parallel()

	p, seen := startClaudeStub(t, "a cat")
	resp, err := p.CompleteWithImage(context.Background(), &Request{
		Model:    "claude-sonnet-4-5-20250929",
		Messages: []Message{{Role: "user", Content: "what is in the picture?"}},
	}, "https://files.example/cat.png")
	if err != nil {
		t.Fatalf("CompleteWithImage: %v", err)
	}
	if resp.Text != "a cat" {
		t.Fatalf("Text: got %q", resp.Text)
	}

	wire := <-seen
	if len(wire.Messages) != 1 {
		t.Fatalf("messages: %+v", wire.Messages)
	}
	content := wire.Messages[0].Content
	if len(content) != 2 {
		t.Fatalf("content: %+v", content)
	}
	if content[0].Type != "text" || content[0].Text != "what is in the picture?" {
		t.Errorf("content[0]: %+v", content[0])
	}
	if content[1].Type != "image" || content[1].Source.Type != "url" || content[1].Source.URL != "https://files.example/cat.png" {
		t.Errorf("content[1]: %+v", content[1])
	}
}

func TestClaudeProvider_Guards(t *testing.T) {
	t.Parallel()

	for name, p := range map[string]*ClaudeProvider{"nil provider": nil, "no client": {}} {
		if _, err := p.Complete(context.Background(), &Request{}); err == nil || !strings.Contains(err.Error(), "nil client") {
			t.Errorf("Complete(%s): got %v", name, err)
		}
		if _, err := p.CompleteWithImage(context.Background(), &Request{}, "u"); err == nil || !strings.Contains(err.Error(), "nil client") {
			t.Errorf("CompleteWithImage(%s): got %v", name, err)
		}
	}

	p := NewClaudeProvider("k", "")
	if _, err := p.Complete(context.Background(), nil); err == nil || !strings.Contains(err.Error(), "nil request") {
		t.Errorf("Complete(nil request): got %v", err)
	}
	if _, err := p.CompleteWithImage(context.Background(), nil, "u"); err == nil || !strings.Contains(err.Error(), "nil request") {
		t.Errorf("CompleteWithImage(nil request): got %v", err)
	}
}
