package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultOpenAIModel = "gpt-4o"
	whisperModel       = openai.Whisper1

	runPollInterval = 2 * time.Second
	cleanupTimeout  = 30 * time.Second
)

// OpenAIProvider serves chat, vision, transcription, and assistant
// file-analysis requests through the OpenAI API.
type OpenAIProvider struct {
	client *openai.Client

	pollInterval time.Duration
}

func NewOpenAIProvider(apiKey string, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if v := strings.TrimSpace(baseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	return &OpenAIProvider{
		client:       openai.NewClientWithConfig(cfg),
		pollInterval: runPollInterval,
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	if err := p.check(ctx, req); err != nil {
		return nil, err
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       normalizeModel(req.Model),
		Messages:    toOpenAIMessages(req),
		MaxTokens:   clampMaxTokens(req.MaxTokens),
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("llm: openai: chat completion: %w", err)
	}
	return openAIToResponse(&resp)
}

// CompleteWithImage rewrites the last user message as a multi-part turn
// with the image attached by URL at low detail.
func (p *OpenAIProvider) CompleteWithImage(ctx context.Context, req *Request, imageURL string) (*Response, error) {
	if err := p.check(ctx, req); err != nil {
		return nil, err
	}
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, errors.New("llm: openai: empty image url")
	}

	msgs := toOpenAIMessages(req)
	attached := false
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != openai.ChatMessageRoleUser {
			continue
		}
		msgs[i].MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: msgs[i].Content},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    imageURL,
					Detail: openai.ImageURLDetailLow,
				},
			},
		}
		msgs[i].Content = ""
		attached = true
		break
	}
	if !attached {
		return nil, errors.New("llm: openai: no user message to attach image to")
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       normalizeModel(req.Model),
		Messages:    msgs,
		MaxTokens:   clampMaxTokens(req.MaxTokens),
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("llm: openai: vision completion: %w", err)
	}
	return openAIToResponse(&resp)
}

// Transcribe runs Whisper over an audio file and returns the plain text
// transcript.
func (p *OpenAIProvider) Transcribe(ctx context.Context, filePath string) (string, error) {
	if p == nil || p.client == nil {
		return "", errors.New("llm: openai: nil client")
	}
	if ctx == nil {
		return "", errors.New("llm: openai: nil context")
	}
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		return "", errors.New("llm: openai: empty file path")
	}

	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    whisperModel,
		FilePath: filePath,
		Format:   openai.AudioResponseFormatText,
	})
	if err != nil {
		return "", fmt.Errorf("llm: openai: transcription: %w", err)
	}
	return resp.Text, nil
}

// AnalyzeFile uploads the file, runs a transient assistant with the
// given tool over it in a fresh thread, and returns the assistant's
// answer. The assistant, file, and thread are deleted afterwards
// regardless of the outcome.
func (p *OpenAIProvider) AnalyzeFile(ctx context.Context, req *Request, filePath string, tool FileTool) (*Response, error) {
	if err := p.check(ctx, req); err != nil {
		return nil, err
	}
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		return nil, errors.New("llm: openai: empty file path")
	}
	if tool != FileToolSearch && tool != FileToolCodeInterpreter {
		return nil, fmt.Errorf("llm: openai: unsupported file tool %q", tool)
	}
	content := firstUserContent(req)
	if content == "" {
		return nil, errors.New("llm: openai: no user message")
	}

	instructions := req.System
	assistant, err := p.client.CreateAssistant(ctx, openai.AssistantRequest{
		Model:        normalizeModel(req.Model),
		Instructions: &instructions,
		Tools:        []openai.AssistantTool{{Type: openai.AssistantToolType(tool)}},
	})
	if err != nil {
		return nil, fmt.Errorf("llm: openai: create assistant: %w", err)
	}
	defer p.deleteAssistant(assistant.ID)

	file, err := p.client.CreateFile(ctx, openai.FileRequest{
		FilePath: filePath,
		Purpose:  "assistants",
	})
	if err != nil {
		return nil, fmt.Errorf("llm: openai: upload file: %w", err)
	}
	defer p.deleteFile(file.ID)

	thread, err := p.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return nil, fmt.Errorf("llm: openai: create thread: %w", err)
	}
	defer p.deleteThread(thread.ID)

	if _, err := p.client.CreateMessage(ctx, thread.ID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: content,
		Attachments: []openai.ThreadAttachment{{
			FileID: file.ID,
			Tools:  []openai.ThreadAttachmentTool{{Type: string(tool)}},
		}},
	}); err != nil {
		return nil, fmt.Errorf("llm: openai: create message: %w", err)
	}

	run, err := p.client.CreateRun(ctx, thread.ID, openai.RunRequest{AssistantID: assistant.ID})
	if err != nil {
		return nil, fmt.Errorf("llm: openai: create run: %w", err)
	}

	run, err = p.waitForRun(ctx, thread.ID, run.ID)
	if err != nil {
		return nil, err
	}

	limit := 1
	order := "desc"
	msgs, err := p.client.ListMessage(ctx, thread.ID, &limit, &order, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("llm: openai: list messages: %w", err)
	}
	if len(msgs.Messages) == 0 {
		return nil, errors.New("llm: openai: empty thread")
	}

	var sb strings.Builder
	for _, part := range msgs.Messages[0].Content {
		if part.Text != nil {
			sb.WriteString(part.Text.Value)
		}
	}

	return &Response{
		Text:       sb.String(),
		StopReason: string(run.Status),
	}, nil
}

func (p *OpenAIProvider) waitForRun(ctx context.Context, threadID, runID string) (openai.Run, error) {
	interval := p.pollInterval
	if interval <= 0 {
		interval = runPollInterval
	}

	for {
		run, err := p.client.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			return run, fmt.Errorf("llm: openai: retrieve run: %w", err)
		}
		switch run.Status {
		case openai.RunStatusCompleted:
			return run, nil
		case openai.RunStatusQueued, openai.RunStatusInProgress:
		default:
			if run.LastError != nil {
				return run, fmt.Errorf("llm: openai: run %s: %s: %s", run.Status, run.LastError.Code, run.LastError.Message)
			}
			return run, fmt.Errorf("llm: openai: run %s", run.Status)
		}

		select {
		case <-ctx.Done():
			return run, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// Cleanup runs on a fresh context so a canceled request cannot leave
// billable resources behind.
func (p *OpenAIProvider) deleteAssistant(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	_, _ = p.client.DeleteAssistant(ctx, id)
}

func (p *OpenAIProvider) deleteFile(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	_ = p.client.DeleteFile(ctx, id)
}

func (p *OpenAIProvider) deleteThread(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	_, _ = p.client.DeleteThread(ctx, id)
}

func (p *OpenAIProvider) check(ctx context.Context, req *Request) error {
	if p == nil || p.client == nil {
		return errors.New("llm: openai: nil client")
	}
	if ctx == nil {
		return errors.New("llm: openai: nil context")
	}
	if req == nil {
		return errors.New("llm: openai: nil request")
	}
	return nil
}

func toOpenAIMessages(req *Request) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if system := strings.TrimSpace(req.System); system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: normalizeOpenAIRole(m.Role), Content: m.Content})
	}
	return msgs
}

// normalizeOpenAIRole maps anything outside the chat roles the API accepts
// to the user role.
func normalizeOpenAIRole(role string) string {
	switch role = strings.ToLower(strings.TrimSpace(role)); role {
	case openai.ChatMessageRoleSystem, openai.ChatMessageRoleUser, openai.ChatMessageRoleAssistant:
		return role
	}
	return openai.ChatMessageRoleUser
}

// normalizeModel lowercases model names the way the API expects.
func normalizeModel(model string) string {
	model = strings.ToLower(strings.TrimSpace(model))
	if model == "" {
		return defaultOpenAIModel
	}
	return model
}

func clampMaxTokens(n int) int {
	return max(n, 0)
}

func firstUserContent(req *Request) string {
	for _, m := range req.Messages {
		if normalizeOpenAIRole(m.Role) != openai.ChatMessageRoleUser {
			continue
		}
		if strings.TrimSpace(m.Content) != "" {
			return m.Content
		}
	}
	return ""
}

func openAIToResponse(resp *openai.ChatCompletionResponse) (*Response, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, errors.New("llm: openai: empty choices")
	}
	choice := resp.Choices[0]
	return &Response{
		Text:       choice.Message.Content,
		StopReason: string(choice.FinishReason),
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}
