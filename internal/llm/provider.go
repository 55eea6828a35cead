// Package llm routes benchmark prompts to model providers and
// normalizes their answers.
package llm

import "context"

// FileTool names an assistant tool used for file analysis.
type FileTool string

const (
	// FileToolSearch serves document formats the retrieval index accepts.
	FileToolSearch FileTool = "file_search"
	// FileToolCodeInterpreter serves tabular and code attachments.
	FileToolCodeInterpreter FileTool = "code_interpreter"
)

// Provider answers plain text prompts.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// VisionProvider answers prompts that attach an image by URL.
type VisionProvider interface {
	CompleteWithImage(ctx context.Context, req *Request, imageURL string) (*Response, error)
}

// Transcriber converts an audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, filePath string) (string, error)
}

// FileAnalysisProvider answers prompts about an uploaded file using the
// given tool.
type FileAnalysisProvider interface {
	AnalyzeFile(ctx context.Context, req *Request, filePath string, tool FileTool) (*Response, error)
}

// Message is a single role/content turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a provider-neutral completion request. Model selects the
// concrete model within the provider; empty picks the provider default.
type Request struct {
	Model       string
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Usage reports token counts for one completion.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is a provider-neutral completion response.
type Response struct {
	Text       string
	Usage      Usage
	StopReason string
}
