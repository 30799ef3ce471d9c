package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ncecere/recommendation-fn/config"
	"github.com/ncecere/recommendation-fn/observability"
	"github.com/ncecere/recommendation-fn/server"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "recommendd",
		Short:        "Callable function that answers prompts with a generated recommendation",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (optional; env RECOMMEND_* overrides)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the callable function over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, configPath, nil)
		},
	}

	var prompt string
	completeCmd := &cobra.Command{
		Use:   "complete",
		Short: "Run one invocation locally and print the callable result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return complete(cmd.Context(), cmd.OutOrStdout(), configPath, prompt)
		},
	}
	completeCmd.Flags().StringVar(&prompt, "prompt", "", "Prompt to send")
	_ = completeCmd.MarkFlagRequired("prompt")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	rootCmd.AddCommand(serveCmd, completeCmd, versionCmd)
	return rootCmd
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// serve runs the HTTP server until ctx is cancelled. ready, when set, is
// called with the bound address once the listener is open.
func serve(ctx context.Context, configPath string, ready func(net.Addr)) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		OTLPEndpoint:   cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	deps := server.Dependencies{Logger: logger}
	if cfg.Tracing.Endpoint != "" {
		deps.Tracer = tp.Tracer()
	}
	h, err := server.NewHandler(cfg, deps)
	if err != nil {
		return err
	}
	app, err := server.New(server.Options{FunctionName: cfg.Server.FunctionName, Handler: h, Logger: logger})
	if err != nil {
		return err
	}

	// Bound up front so shutdown can close it even if ctx is cancelled
	// before the server starts accepting.
	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return errors.Join(fmt.Errorf("listen: %w", err), tp.Shutdown(context.Background()))
	}
	logger.Info("listening", slog.String("addr", ln.Addr().String()), slog.String("function", cfg.Server.FunctionName))
	if ready != nil {
		ready(ln.Addr())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := app.Listener(ln); err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		shutdownErr := app.ShutdownWithContext(shutdownCtx)
		// The server only closes listeners it has started serving.
		closeErr := ln.Close()
		if errors.Is(closeErr, net.ErrClosed) {
			closeErr = nil
		}
		return errors.Join(shutdownErr, closeErr, tp.Shutdown(shutdownCtx))
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func complete(ctx context.Context, out io.Writer, configPath, prompt string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log, os.Stderr)

	h, err := server.NewHandler(cfg, server.Dependencies{Logger: logger})
	if err != nil {
		return err
	}
	data, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return err
	}

	result, callErr := server.Callable(h)(ctx, data)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if callErr != nil {
		if err := enc.Encode(map[string]any{"error": callErr}); err != nil {
			return err
		}
		return callErr
	}
	return enc.Encode(map[string]any{"result": result})
}
