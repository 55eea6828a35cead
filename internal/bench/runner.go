// Package bench orchestrates single benchmark attempts: it builds the
// prompt for a question, carries any attachment to the model over the
// right transport, validates the answer, and records the outcome.
package bench

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bdia-labs/gaia-bench/internal/gaia"
	"github.com/bdia-labs/gaia-bench/internal/llm"
	"github.com/bdia-labs/gaia-bench/internal/prompt"
	"github.com/bdia-labs/gaia-bench/internal/store"
	"github.com/bdia-labs/gaia-bench/internal/validator"
)

// ErrStepsNotAllowed means a steps-assisted retry was requested in a state
// that does not permit one. A retry is legal only after a recorded wrong
// answer, and only once per (question, model).
var ErrStepsNotAllowed = errors.New("bench: steps retry not allowed")

// errNoTransport means no transport can carry the question's attachment to
// the chosen model. The attempt resolves to the fixed unsupported message
// and is not recorded.
var errNoTransport = errors.New("bench: no transport for attachment")

// presignExpiry bounds how long an attachment URL handed to a vision model
// stays valid.
const presignExpiry = time.Hour

// FileResolver resolves stored attachment URLs to something a model can
// consume: a presigned link or a local temp file.
type FileResolver interface {
	PresignedGetURL(ctx context.Context, objectURL string, expiry time.Duration) (string, error)
	DownloadToTemp(ctx context.Context, objectURL string) (string, error)
}

// ProviderResolver picks the provider that serves a model name.
type ProviderResolver interface {
	ForModel(model string) (llm.Provider, error)
}

// AskRequest names the question and model for one attempt. Steps optionally
// overrides the stored annotator steps on a retry.
type AskRequest struct {
	TaskID string `json:"task_id"`
	Model  string `json:"model"`
	Steps  string `json:"steps,omitempty"`
}

// AskResult reports one attempt. Category and Recorded are unset when the
// attempt produced no comparable answer. AnnotatorSteps is filled after a
// wrong first attempt so the caller can offer the steps retry.
type AskResult struct {
	TaskID         string        `json:"task_id"`
	Model          string        `json:"model"`
	Response       string        `json:"response"`
	Category       gaia.Category `json:"category,omitempty"`
	Recorded       bool          `json:"recorded"`
	Transcription  string        `json:"transcription,omitempty"`
	AnnotatorSteps string        `json:"annotator_steps,omitempty"`
}

// Runner runs benchmark attempts against stored questions.
type Runner struct {
	store  store.Store
	files  FileResolver
	models ProviderResolver
	log    *zap.Logger
}

// NewRunner creates a Runner. files may be nil when no object store is
// configured; attempts that need an attachment then fail with an error.
func NewRunner(st store.Store, files FileResolver, models ProviderResolver, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		store:  st,
		files:  files,
		models: models,
		log:    log,
	}
}

// Ask runs a first attempt for (task, model) and records the outcome as
// correct as-is or wrong answer. On a wrong answer the result carries the
// question's annotator steps for an optional retry. When the provider
// fails, the result carries a sentinel response, nothing is recorded, and
// the provider error is returned alongside the result.
func (r *Runner) Ask(ctx context.Context, req *AskRequest) (*AskResult, error) {
	return r.run(ctx, req, false)
}

// AskWithSteps runs the one steps-assisted retry and records the outcome as
// correct after steps or wrong answer. It returns ErrStepsNotAllowed unless
// the latest recorded outcome for (task, model) is a wrong first attempt.
func (r *Runner) AskWithSteps(ctx context.Context, req *AskRequest) (*AskResult, error) {
	return r.run(ctx, req, true)
}

func (r *Runner) run(ctx context.Context, req *AskRequest, withSteps bool) (*AskResult, error) {
	if r == nil || r.store == nil {
		return nil, errors.New("bench: nil runner")
	}
	if ctx == nil {
		return nil, errors.New("bench: nil context")
	}
	if r.models == nil {
		return nil, errors.New("bench: nil provider resolver")
	}
	if req == nil {
		return nil, errors.New("bench: nil request")
	}
	taskID := strings.TrimSpace(req.TaskID)
	if taskID == "" {
		return nil, errors.New("bench: empty task id")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return nil, errors.New("bench: empty model")
	}

	q, err := r.store.GetQuestion(ctx, taskID)
	if err != nil {
		return nil, err
	}

	steps := strings.TrimSpace(req.Steps)
	if withSteps {
		if err := r.checkStepsAllowed(ctx, taskID, model); err != nil {
			return nil, err
		}
		if steps == "" {
			steps = strings.TrimSpace(q.AnnotatorSteps)
		}
		if steps == "" {
			return nil, fmt.Errorf("%w: question has no annotator steps", ErrStepsNotAllowed)
		}
	}

	result := &AskResult{TaskID: q.TaskID, Model: model}

	response, transcript, err := r.invoke(ctx, q, model, steps, withSteps)
	result.Transcription = transcript
	switch {
	case errors.Is(err, errNoTransport):
		r.log.Info("attachment unsupported",
			zap.String("task_id", q.TaskID),
			zap.String("model", model),
			zap.String("file_name", q.FileName))
		result.Response = llm.UnsupportedFileMessage
		return result, nil
	case err != nil:
		r.log.Warn("model invocation failed",
			zap.String("task_id", q.TaskID),
			zap.String("model", model),
			zap.Error(err))
		result.Response = llm.Sentinel(err.Error())
		return result, err
	}
	result.Response = response

	wrong, err := validator.Mismatch(q.FinalAnswer, response)
	if err != nil {
		return result, err
	}

	category := gaia.CategoryCorrectAsIs
	switch {
	case wrong:
		category = gaia.CategoryWrongAnswer
	case withSteps:
		category = gaia.CategoryCorrectAfterSteps
	}

	if err := r.store.RecordOutcome(ctx, &store.OutcomeRecord{
		TaskID:    q.TaskID,
		Model:     model,
		Response:  response,
		Category:  category,
		WithSteps: withSteps,
	}); err != nil {
		return result, fmt.Errorf("bench: record outcome: %w", err)
	}
	result.Category = category
	result.Recorded = true

	if category == gaia.CategoryWrongAnswer && !withSteps {
		result.AnnotatorSteps = q.AnnotatorSteps
	}

	r.log.Info("attempt recorded",
		zap.String("task_id", q.TaskID),
		zap.String("model", model),
		zap.String("category", category.String()),
		zap.Bool("with_steps", withSteps))

	return result, nil
}

// checkStepsAllowed enforces the retry state machine: exactly one
// steps-assisted retry, and only after a wrong first attempt.
func (r *Runner) checkStepsAllowed(ctx context.Context, taskID, model string) error {
	latest, err := r.store.LatestOutcome(ctx, taskID, model)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: no prior attempt", ErrStepsNotAllowed)
		}
		return fmt.Errorf("bench: latest outcome: %w", err)
	}
	if latest.WithSteps {
		return fmt.Errorf("%w: steps retry already used", ErrStepsNotAllowed)
	}
	if latest.Category != gaia.CategoryWrongAnswer {
		return fmt.Errorf("%w: latest attempt is %q", ErrStepsNotAllowed, latest.Category)
	}
	return nil
}

// invoke carries the question to the model over the transport its
// attachment requires and returns the raw response text, plus the
// transcript for audio questions.
func (r *Runner) invoke(ctx context.Context, q *gaia.Question, model, steps string, withSteps bool) (string, string, error) {
	provider, err := r.models.ForModel(model)
	if err != nil {
		return "", "", err
	}

	kind := attachmentKind(q)
	form := prompt.FormFor(kind, withSteps)
	in := prompt.Input{Question: q.Question, Steps: steps}

	r.log.Debug("prompt built",
		zap.String("task_id", q.TaskID),
		zap.String("model", model),
		zap.Stringer("kind", kind),
		zap.Stringer("form", form))

	switch kind {
	case gaia.FileNone:
		return r.complete(ctx, provider, model, form, in)

	case gaia.FileImage:
		vp, ok := provider.(llm.VisionProvider)
		if !ok {
			return "", "", errNoTransport
		}
		imageURL, err := r.presign(ctx, q)
		if err != nil {
			return "", "", err
		}
		resp, err := vp.CompleteWithImage(ctx, completionRequest(model, form, in), imageURL)
		if err != nil {
			return "", "", err
		}
		return resp.Text, "", nil

	case gaia.FileAudio:
		tr, ok := provider.(llm.Transcriber)
		if !ok {
			return "", "", errNoTransport
		}
		path, cleanup, err := r.fetchAttachment(ctx, q)
		if err != nil {
			return "", "", err
		}
		defer cleanup()
		transcript, err := tr.Transcribe(ctx, path)
		if err != nil {
			return "", "", err
		}
		in.Transcription = transcript
		text, _, err := r.complete(ctx, provider, model, form, in)
		return text, transcript, err

	case gaia.FileRetrieval, gaia.FileCodeInterpreter:
		fa, ok := provider.(llm.FileAnalysisProvider)
		if !ok {
			return "", "", errNoTransport
		}
		path, cleanup, err := r.fetchAttachment(ctx, q)
		if err != nil {
			return "", "", err
		}
		defer cleanup()
		tool := llm.FileToolSearch
		if kind == gaia.FileCodeInterpreter {
			tool = llm.FileToolCodeInterpreter
		}
		req := completionRequest(model, form, in)
		req.System = form.AssistantInstructions()
		resp, err := fa.AnalyzeFile(ctx, req, path, tool)
		if err != nil {
			return "", "", err
		}
		return resp.Text, "", nil

	default:
		return "", "", errNoTransport
	}
}

func (r *Runner) complete(ctx context.Context, provider llm.Provider, model string, form prompt.Form, in prompt.Input) (string, string, error) {
	resp, err := provider.Complete(ctx, completionRequest(model, form, in))
	if err != nil {
		return "", "", err
	}
	return resp.Text, "", nil
}

func (r *Runner) presign(ctx context.Context, q *gaia.Question) (string, error) {
	if r.files == nil {
		return "", errors.New("bench: no file store configured")
	}
	u, err := r.files.PresignedGetURL(ctx, q.FileURL, presignExpiry)
	if err != nil {
		return "", fmt.Errorf("bench: presign attachment %s: %w", q.FileName, err)
	}
	return u, nil
}

// fetchAttachment downloads the question's attachment to a temp file. The
// returned cleanup removes it.
func (r *Runner) fetchAttachment(ctx context.Context, q *gaia.Question) (string, func(), error) {
	if r.files == nil {
		return "", nil, errors.New("bench: no file store configured")
	}
	path, err := r.files.DownloadToTemp(ctx, q.FileURL)
	if err != nil {
		return "", nil, fmt.Errorf("bench: fetch attachment %s: %w", q.FileName, err)
	}
	return path, func() { _ = os.Remove(path) }, nil
}

func completionRequest(model string, form prompt.Form, in prompt.Input) *llm.Request {
	return &llm.Request{
		Model:  model,
		System: form.System(),
		Messages: []llm.Message{
			{Role: "user", Content: form.Content(in)},
		},
	}
}

// attachmentKind classifies the question's attachment, falling back to the
// file name when no extension was stored.
func attachmentKind(q *gaia.Question) gaia.FileKind {
	if q == nil {
		return gaia.FileNone
	}
	ext := strings.TrimSpace(q.FileExtension)
	if ext == "" {
		ext = gaia.ExtensionOf(q.FileName)
	}
	return gaia.KindForExtension(ext)
}
