package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/ncecere/recommendation-fn/provider"
)

// CompletionModelMiddleware wraps a provider.CompletionModel with
// additional behavior such as logging or telemetry.
type CompletionModelMiddleware func(provider.CompletionModel) provider.CompletionModel

// WrapCompletionModel applies the provided middlewares around the base
// completion model. Middlewares are applied in the order provided, so the
// first middleware becomes the outermost wrapper.
func WrapCompletionModel(base provider.CompletionModel, mws ...CompletionModelMiddleware) provider.CompletionModel {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

// LoggingOptions controls which aspects of a completion call are
// logged by the logging middleware.
type LoggingOptions struct {
	// Logger is the destination for log output. If nil, slog.Default() is used.
	Logger *slog.Logger
	// Level is the level used for call records. Errors are always logged
	// at slog.LevelError when LogErrors is set.
	Level slog.Level
	// Model is the model name attached to every record.
	Model string
	// LogRequest controls whether the call start is logged.
	LogRequest bool
	// LogResponse controls whether successful responses are logged.
	LogResponse bool
	// LogErrors controls whether errors are logged.
	LogErrors bool
}

func defaultLoggingOptions(opts LoggingOptions) LoggingOptions {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if !opts.LogRequest && !opts.LogResponse && !opts.LogErrors {
		opts.LogRequest = true
		opts.LogResponse = true
		opts.LogErrors = true
	}
	return opts
}

// LoggingCompletionModel returns a CompletionModelMiddleware that logs
// Generate calls. Records carry the model name, prompt length and
// duration; prompt and completion text are never logged.
func LoggingCompletionModel(opts LoggingOptions) CompletionModelMiddleware {
	opts = defaultLoggingOptions(opts)

	return func(next provider.CompletionModel) provider.CompletionModel {
		return &loggingCompletionModel{next: next, opts: opts}
	}
}

type loggingCompletionModel struct {
	next provider.CompletionModel
	opts LoggingOptions
}

func (l *loggingCompletionModel) Generate(ctx context.Context, req *provider.CompletionRequest) (*provider.CompletionResponse, error) {
	log := l.opts.Logger.With(
		slog.String("model", l.opts.Model),
		slog.Int("prompt_len", len(req.Prompt)),
	)

	start := time.Now()
	if l.opts.LogRequest {
		log.Log(ctx, l.opts.Level, "completion.generate start")
	}

	res, err := l.next.Generate(ctx, req)
	dur := time.Since(start)

	if err != nil {
		if l.opts.LogErrors {
			log.ErrorContext(ctx, "completion.generate error", slog.Duration("duration", dur), slog.Any("error", err))
		}
		return nil, err
	}

	if l.opts.LogResponse {
		attrs := []any{slog.Duration("duration", dur)}
		if res != nil {
			attrs = append(attrs, slog.String("stop_reason", res.StopReason))
		}
		log.Log(ctx, l.opts.Level, "completion.generate done", attrs...)
	}
	return res, nil
}

// CompletionCallInfo contains high-level metadata about a completion
// call that can be used for metrics or tracing.
type CompletionCallInfo struct {
	Model      string
	PromptLen  int
	StopReason string
	StartTime  time.Time
	EndTime    time.Time
	Err        error
}

// TelemetryHooks defines callbacks that are invoked around completion
// calls. The observability package provides an OpenTelemetry-backed set.
type TelemetryHooks struct {
	OnCompletionCall func(ctx context.Context, info CompletionCallInfo)
}

// TelemetryCompletionModel returns a CompletionModelMiddleware that
// invokes the provided telemetry hooks after every Generate call.
func TelemetryCompletionModel(model string, hooks TelemetryHooks) CompletionModelMiddleware {
	return func(next provider.CompletionModel) provider.CompletionModel {
		return &telemetryCompletionModel{next: next, model: model, hooks: hooks}
	}
}

type telemetryCompletionModel struct {
	next  provider.CompletionModel
	model string
	hooks TelemetryHooks
}

func (t *telemetryCompletionModel) Generate(ctx context.Context, req *provider.CompletionRequest) (*provider.CompletionResponse, error) {
	start := time.Now()
	res, err := t.next.Generate(ctx, req)
	if t.hooks.OnCompletionCall != nil {
		info := CompletionCallInfo{
			Model:     t.model,
			PromptLen: len(req.Prompt),
			StartTime: start,
			EndTime:   time.Now(),
			Err:       err,
		}
		if res != nil {
			info.StopReason = res.StopReason
		}
		t.hooks.OnCompletionCall(ctx, info)
	}
	return res, err
}
