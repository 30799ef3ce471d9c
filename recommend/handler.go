// Package recommend turns a caller's prompt into a trimmed completion
// from the configured generation model.
package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	ai "github.com/ncecere/recommendation-fn"
	"github.com/ncecere/recommendation-fn/providerutil"
)

var (
	errNotObject     = errors.New("request data is not a JSON object")
	errMissingPrompt = errors.New("prompt is missing")
	errEmptyPrompt   = errors.New("prompt is empty")
)

// Reply is the success half of a Handle result.
type Reply struct {
	Reply string `json:"reply"`
}

// Config is captured by New and never changes afterwards.
type Config struct {
	// Model generates completions. Required.
	Model ai.CompletionModel
	// Settings are applied to every upstream call. Nil selects
	// ai.DefaultCallSettings.
	Settings *ai.CallSettings
	// Logger receives the handler's diagnostic records. Nil selects slog.Default.
	Logger *slog.Logger
}

// Handler answers recommendation requests. It holds no per-request
// state and is safe for concurrent use.
type Handler struct {
	model    ai.CompletionModel
	settings *ai.CallSettings
	log      *slog.Logger
}

// New validates cfg and returns a Handler.
func New(cfg Config) (*Handler, error) {
	if cfg.Model == nil {
		return nil, ai.ErrMissingModel
	}
	settings := cfg.Settings
	if settings == nil {
		settings = ai.DefaultCallSettings()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{model: cfg.Model, settings: settings, log: logger}, nil
}

// ParsePrompt extracts the prompt from callable request data. The data
// must be a JSON object whose "prompt" member is a non-empty string.
func ParsePrompt(data json.RawMessage) (string, error) {
	var fields map[string]json.RawMessage
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", errNotObject
	}
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return "", fmt.Errorf("decode request data: %w", err)
	}

	raw, ok := fields["prompt"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", errMissingPrompt
	}
	var prompt string
	if err := json.Unmarshal(raw, &prompt); err != nil {
		return "", fmt.Errorf("prompt is not a string: %w", err)
	}
	if prompt == "" {
		return "", errEmptyPrompt
	}
	return prompt, nil
}

// Handle validates data and, when it carries a usable prompt, asks the
// model for a completion. It returns either a Reply or an *Error whose
// Kind is KindInvalidArgument or KindInternal.
func (h *Handler) Handle(ctx context.Context, data json.RawMessage) (Reply, error) {
	prompt, err := ParsePrompt(data)
	if err != nil {
		h.log.ErrorContext(ctx, "invalid or missing prompt", slog.Any("error", err))
		return Reply{}, invalidArgument(err)
	}
	return h.Complete(ctx, prompt)
}

// Complete asks the model for a completion of an already validated prompt.
func (h *Handler) Complete(ctx context.Context, prompt string) (Reply, error) {
	res, err := ai.GenerateCompletion(ctx, ai.NewCompletionRequest(h.model, prompt, h.settings))
	if err != nil {
		h.log.ErrorContext(ctx, "generation API error", upstreamDetail(err))
		return Reply{}, internal(err)
	}

	h.log.InfoContext(ctx, "generation API response", slog.String("payload", string(res.Raw)))
	return Reply{Reply: strings.TrimSpace(res.Text)}, nil
}

// upstreamDetail prefers the provider's error body over the error text.
func upstreamDetail(err error) slog.Attr {
	var se *providerutil.StatusError
	if errors.As(err, &se) {
		return slog.Group("upstream",
			slog.Int("status", se.StatusCode),
			slog.String("body", se.Body),
		)
	}
	return slog.Any("error", err)
}
