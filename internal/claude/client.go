// Package claude is a thin client for the Anthropic messages API with
// bounded retries and image attachment support.
package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

const (
	defaultBaseURL = "https://api.anthropic.com/v1"
	defaultModel   = "claude-sonnet-4-5-20250929"
	apiVersion     = "2023-06-01"

	defaultRetries = 3
	retryCap       = 3
	baseRetryDelay = time.Second
)

// Client talks to the Anthropic messages API. The zero value is not
// usable; construct one with NewClient.
type Client struct {
	apiKey     string
	authToken  string
	baseURL    string
	httpClient *http.Client
	model      string
	maxRetries int
	retryDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Blank values are ignored.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if c == nil {
			return
		}
		if v := strings.TrimSpace(baseURL); v != "" {
			c.baseURL = strings.TrimRight(v, "/")
		}
	}
}

// WithModel overrides the default model. Blank values are ignored.
func WithModel(model string) Option {
	return func(c *Client) {
		if c == nil {
			return
		}
		if v := strings.TrimSpace(model); v != "" {
			c.model = v
		}
	}
}

// WithTimeout bounds each HTTP request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c == nil {
			return
		}
		if c.httpClient == nil {
			c.httpClient = &http.Client{Timeout: timeout}
			return
		}
		c.httpClient.Timeout = timeout
	}
}

// WithRetry sets how many times a retryable failure is reattempted.
func WithRetry(maxRetries int) Option {
	return func(c *Client) {
		if c == nil {
			return
		}
		c.maxRetries = clampRetries(maxRetries)
	}
}

// NewClient builds a Client. An empty apiKey falls back to
// ANTHROPIC_API_KEY and then ANTHROPIC_AUTH_TOKEN; ANTHROPIC_BASE_URL
// overrides the default endpoint. Options are applied last and win
// over the environment.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(defaultBaseURL, "/"),
		httpClient: &http.Client{},
		model:      defaultModel,
		maxRetries: defaultRetries,
		retryDelay: baseRetryDelay,
	}
	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_BASE_URL")); v != "" {
		c.baseURL = strings.TrimRight(v, "/")
	}
	if c.apiKey == "" {
		c.apiKey, c.authToken = credentialsFromEnv()
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

func credentialsFromEnv() (apiKey, authToken string) {
	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
		return v, ""
	}
	return "", strings.TrimSpace(os.Getenv("ANTHROPIC_AUTH_TOKEN"))
}

// Complete sends one messages API request.
func (c *Client) Complete(ctx context.Context, req *Request) (*Response, error) {
	if err := c.validate(ctx, req); err != nil {
		return nil, err
	}
	return c.send(ctx, req, sdkMessages(req.Messages))
}

// CompleteWithImage sends a messages API request whose last user
// message also carries an image fetched by URL. The API downloads the
// image itself, so the URL must be reachable from Anthropic's side
// for the lifetime of the request.
func (c *Client) CompleteWithImage(ctx context.Context, req *Request, imageURL string) (*Response, error) {
	if err := c.validate(ctx, req); err != nil {
		return nil, err
	}
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, errors.New("claude: empty image url")
	}

	msgs := sdkMessages(req.Messages)
	if err := attachImage(msgs, imageURL); err != nil {
		return nil, err
	}
	return c.send(ctx, req, msgs)
}

func (c *Client) validate(ctx context.Context, req *Request) error {
	if c == nil {
		return errors.New("claude: nil client")
	}
	if ctx == nil {
		return errors.New("claude: nil context")
	}
	if req == nil {
		return errors.New("claude: nil request")
	}
	if c.httpClient == nil {
		return errors.New("claude: nil http client")
	}
	return c.ensureAuth()
}

// ensureAuth re-checks the environment so a client built before the
// key was exported still works.
func (c *Client) ensureAuth() error {
	if strings.TrimSpace(c.apiKey) != "" || strings.TrimSpace(c.authToken) != "" {
		return nil
	}
	if key, token := credentialsFromEnv(); key != "" || token != "" {
		c.apiKey, c.authToken = key, token
		return nil
	}
	return errors.New("claude: missing api key")
}

func (c *Client) send(ctx context.Context, req *Request, msgs []anthropic.MessageParam) (*Response, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  msgs,
	}
	if system := strings.TrimSpace(req.System); system != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: system}}
	}
	if req.Temperature != 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}

	retries := clampRetries(c.maxRetries)
	delay := c.retryDelay
	if delay <= 0 {
		delay = baseRetryDelay
	}

	sdk := c.newSDKClient()
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			if err := waitRetry(ctx, delay<<(attempt-1)); err != nil {
				return nil, err
			}
		}

		msg, err := sdk.Messages.New(ctx, params)
		if err == nil {
			return decodeMessage(msg), nil
		}
		lastErr = asAPIError(err)
		if !retryable(lastErr) {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// newSDKClient configures the underlying SDK per request so option
// changes between calls take effect. SDK-side retries are disabled;
// retry policy lives in send.
func (c *Client) newSDKClient() *anthropic.Client {
	opts := make([]option.RequestOption, 0, 5)
	if base := strings.TrimSpace(c.baseURL); base != "" {
		// The SDK appends /v1 itself.
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(base, "/v1")))
	}
	if c.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(c.httpClient))
	}
	switch {
	case strings.TrimSpace(c.apiKey) != "":
		opts = append(opts, option.WithAPIKey(c.apiKey))
	case strings.TrimSpace(c.authToken) != "":
		opts = append(opts, option.WithAuthToken(c.authToken))
	}
	opts = append(opts,
		option.WithMaxRetries(0),
		option.WithHeader("anthropic-version", apiVersion),
	)

	sdk := anthropic.NewClient(opts...)
	return &sdk
}

func sdkMessages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		role := anthropic.MessageParamRoleUser
		if strings.EqualFold(strings.TrimSpace(m.Role), "assistant") {
			role = anthropic.MessageParamRoleAssistant
		}
		out = append(out, anthropic.MessageParam{
			Role:    role,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)},
		})
	}
	return out
}

// attachImage appends a URL image block to the most recent user
// message, matching how the web UI attaches files to the prompt that
// references them.
func attachImage(msgs []anthropic.MessageParam, imageURL string) error {
	block := anthropic.ContentBlockParamUnion{
		OfImage: &anthropic.ImageBlockParam{
			Source: anthropic.ImageBlockParamSourceUnion{
				OfURL: &anthropic.URLImageSourceParam{URL: imageURL},
			},
		},
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == anthropic.MessageParamRoleUser {
			msgs[i].Content = append(msgs[i].Content, block)
			return nil
		}
	}
	return errors.New("claude: no user message to attach image to")
}

func decodeMessage(msg *anthropic.Message) *Response {
	if msg == nil {
		return nil
	}
	resp := &Response{
		ID:         msg.ID,
		Model:      string(msg.Model),
		Type:       string(msg.Type),
		Role:       string(msg.Role),
		StopReason: string(msg.StopReason),
	}
	resp.Usage.InputTokens = int(msg.Usage.InputTokens)
	resp.Usage.OutputTokens = int(msg.Usage.OutputTokens)
	for _, block := range msg.Content {
		if block.Type != "text" {
			continue
		}
		resp.Content = append(resp.Content, ContentBlock{Type: "text", Text: block.AsText().Text})
	}
	return resp
}

// APIError is a non-2xx response from the messages API.
type APIError struct {
	StatusCode int
	Status     string
	Type       string
	Message    string
	RequestID  string
	Body       []byte // raw response payload, kept for callers that log it
}

func (e *APIError) Error() string {
	if e == nil {
		return "claude: api error <nil>"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = strings.TrimSpace(string(e.Body))
	}
	s := fmt.Sprintf("claude: api error (%s)", e.Status)
	if e.Type != "" && msg != "" {
		return s + ": " + e.Type + ": " + msg
	}
	if msg != "" {
		return s + ": " + msg
	}
	return s
}

// asAPIError converts SDK errors to *APIError and leaves everything
// else (context cancellation, transport failures) untouched.
func asAPIError(err error) error {
	var sdkErr *anthropic.Error
	if err == nil || !errors.As(err, &sdkErr) || sdkErr == nil {
		return err
	}

	out := &APIError{
		StatusCode: sdkErr.StatusCode,
		RequestID:  sdkErr.RequestID,
	}
	switch {
	case sdkErr.Response != nil:
		out.Status = sdkErr.Response.Status
	case sdkErr.StatusCode != 0:
		out.Status = fmt.Sprintf("%d %s", sdkErr.StatusCode, http.StatusText(sdkErr.StatusCode))
	}

	if raw := strings.TrimSpace(sdkErr.RawJSON()); raw != "" {
		out.Body = []byte(raw)
		var env struct {
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(out.Body, &env) == nil {
			out.Type = env.Error.Type
			out.Message = env.Error.Message
		}
	}
	return out
}

// retryable reports whether the failure is worth another attempt:
// server-side 5xx or a timed-out network call.
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 && apiErr.StatusCode <= 599
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func clampRetries(n int) int {
	if n < 0 {
		return 0
	}
	if n > retryCap {
		return retryCap
	}
	return n
}

func waitRetry(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
