package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/bdia-labs/gaia-bench/internal/claude"
)

// claudeDefaultMaxTokens bounds responses when the caller sets no
// budget. The messages API rejects requests without max_tokens.
const claudeDefaultMaxTokens = 1024

// ClaudeProvider adapts the Anthropic client to the Provider and
// VisionProvider interfaces.
type ClaudeProvider struct {
	client *claude.Client
}

func NewClaudeProvider(apiKey, baseURL string) *ClaudeProvider {
	var opts []claude.Option
	if v := strings.TrimSpace(baseURL); v != "" {
		opts = append(opts, claude.WithBaseURL(v))
	}
	return &ClaudeProvider{client: claude.NewClient(strings.TrimSpace(apiKey), opts...)}
}

func (p *ClaudeProvider) Name() string { return "claude" }

func (p *ClaudeProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	cr, err := p.prepare(req)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Complete(ctx, cr)
	return fromClaudeResponse(resp), err
}

// CompleteWithImage attaches the image by URL to the last user message.
func (p *ClaudeProvider) CompleteWithImage(ctx context.Context, req *Request, imageURL string) (*Response, error) {
	cr, err := p.prepare(req)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.CompleteWithImage(ctx, cr, imageURL)
	return fromClaudeResponse(resp), err
}

func (p *ClaudeProvider) prepare(req *Request) (*claude.Request, error) {
	if p == nil || p.client == nil {
		return nil, errors.New("llm: claude: nil client")
	}
	return toClaudeRequest(req)
}

func toClaudeRequest(req *Request) (*claude.Request, error) {
	if req == nil {
		return nil, errors.New("llm: claude: nil request")
	}

	out := &claude.Request{
		Model:       strings.ToLower(strings.TrimSpace(req.Model)),
		MaxTokens:   req.MaxTokens,
		System:      req.System,
		Temperature: req.Temperature,
		Messages:    make([]claude.Message, len(req.Messages)),
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = claudeDefaultMaxTokens
	}
	for i, m := range req.Messages {
		role := strings.TrimSpace(m.Role)
		if role == "" {
			role = "user"
		}
		out.Messages[i] = claude.Message{Role: role, Content: m.Content}
	}
	return out, nil
}

func fromClaudeResponse(resp *claude.Response) *Response {
	if resp == nil {
		return nil
	}
	out := &Response{Text: resp.Text(), StopReason: resp.StopReason}
	out.Usage.InputTokens = resp.Usage.InputTokens
	out.Usage.OutputTokens = resp.Usage.OutputTokens
	return out
}
