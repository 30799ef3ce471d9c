package server

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/ncecere/recommendation-fn/cohere"
	"github.com/ncecere/recommendation-fn/config"
	"github.com/ncecere/recommendation-fn/middleware"
	"github.com/ncecere/recommendation-fn/observability"
	"github.com/ncecere/recommendation-fn/provider"
	"github.com/ncecere/recommendation-fn/recommend"
	"github.com/ncecere/recommendation-fn/registry"
)

// DefaultModelName is the registry key of the model behind the callable.
const DefaultModelName = "recommendation:default"

// Dependencies are optional collaborators for NewHandler.
type Dependencies struct {
	// HTTPClient overrides the upstream HTTP client.
	HTTPClient provider.HTTPClient
	// Tracer records upstream spans. Nil disables span recording.
	Tracer trace.Tracer
	Logger *slog.Logger
}

// NewRegistry builds the Cohere completion model described by cfg,
// wraps it with logging and telemetry, and registers it under
// DefaultModelName.
func NewRegistry(cfg *config.Config, deps Dependencies) (*registry.InMemoryRegistry, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client, err := cohere.NewClient(provider.ClientOptions{
		BaseURL:    cfg.Cohere.BaseURL,
		APIKey:     cfg.Cohere.APIKey,
		HTTPClient: deps.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create cohere client: %w", err)
	}

	mws := []middleware.CompletionModelMiddleware{
		middleware.LoggingCompletionModel(middleware.LoggingOptions{
			Logger: logger,
			Level:  slog.LevelDebug,
			Model:  cfg.Cohere.Model,
		}),
	}
	if deps.Tracer != nil {
		mws = append(mws, middleware.TelemetryCompletionModel(cfg.Cohere.Model,
			observability.CompletionHooks(deps.Tracer, "cohere")))
	}

	reg := registry.NewInMemoryRegistry()
	reg.RegisterCompletionModel(DefaultModelName,
		middleware.WrapCompletionModel(client.CompletionModel(cfg.Cohere.Model), mws...))
	return reg, nil
}

// NewHandler resolves the default model from a fresh registry and
// returns the recommendation handler configured by cfg.
func NewHandler(cfg *config.Config, deps Dependencies) (*recommend.Handler, error) {
	reg, err := NewRegistry(cfg, deps)
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("completion models registered",
		slog.Any("models", reg.Names()),
		slog.String("default", DefaultModelName),
		slog.String("cohere_model", cfg.Cohere.Model))
	model, err := reg.CompletionModel(DefaultModelName)
	if err != nil {
		return nil, err
	}
	return recommend.New(recommend.Config{
		Model:    model,
		Settings: cfg.Generation.CallSettings(),
		Logger:   logger,
	})
}
