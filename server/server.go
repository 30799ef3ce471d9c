// Package server exposes the recommendation handler as a callable
// function over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/ncecere/recommendation-fn/callable"
	"github.com/ncecere/recommendation-fn/recommend"
)

// Options configures New.
type Options struct {
	// FunctionName is the callable's route, served at "/<FunctionName>".
	FunctionName string
	// Handler answers invocations. Required.
	Handler *recommend.Handler
	// Logger receives server-level records. Nil selects slog.Default.
	Logger *slog.Logger
}

// New returns a fiber app serving the callable function and a health check.
func New(opts Options) (*fiber.App, error) {
	if opts.Handler == nil {
		return nil, errors.New("server: nil handler")
	}
	if opts.FunctionName == "" {
		return nil, errors.New("server: empty function name")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		AppName:               "recommendation-fn",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			logger.ErrorContext(c.UserContext(), "unhandled request error",
				slog.String("path", c.Path()), slog.Any("error", err))
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
			}
			return callable.WriteError(c, err)
		},
	})
	app.Use(recover.New())
	app.Use(requestid.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.All("/"+opts.FunctionName, callable.Handler(Callable(opts.Handler)))

	return app, nil
}

// Callable adapts h to the callable protocol, translating handler error
// kinds to callable error codes.
func Callable(h *recommend.Handler) callable.Func {
	return func(ctx context.Context, data json.RawMessage) (any, error) {
		reply, err := h.Handle(ctx, data)
		if err != nil {
			return nil, toCallableError(err)
		}
		return reply, nil
	}
}

func toCallableError(err error) *callable.Error {
	var re *recommend.Error
	if !errors.As(err, &re) {
		return callable.NewError(callable.Internal, recommend.MessageAICallFailed)
	}
	switch re.Kind {
	case recommend.KindInvalidArgument:
		return callable.NewError(callable.InvalidArgument, re.Message)
	default:
		return callable.NewError(callable.Internal, re.Message)
	}
}
