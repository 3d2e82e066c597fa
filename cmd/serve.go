package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/leshchenko1979/telegram-mcp-go/internal/config"
	"github.com/leshchenko1979/telegram-mcp-go/internal/mcpserver"
	"github.com/leshchenko1979/telegram-mcp-go/internal/platform"
	"github.com/leshchenko1979/telegram-mcp-go/internal/rpcbridge"
	"github.com/leshchenko1979/telegram-mcp-go/internal/session"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP tool server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	setupLogging()

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return err
	}
	applyTestMode(cfg)

	shutdownTracing := setupTracing(ctx, cfg)
	defer shutdownTracing(context.Background())

	watcher, err := config.NewWatcher(resolveConfigPath(), cfg, func(reloaded *config.Config) {
		reloaded.ApplyEnvOverrides()
		reloaded.Platform = cfg.Platform
		applyTestMode(reloaded)
		cfg.Replace(reloaded)
	})
	if err != nil {
		slog.Warn("config.watch.unavailable", "error", err)
	} else {
		defer watcher.Stop()
	}

	sessions := session.New(platform.StubDialer{}, session.Config{
		IdleTTL:         cfg.Session.IdleTTL,
		CleanupInterval: cfg.Session.CleanupInterval,
		MaxSessions:     cfg.Session.MaxSessions,
		ConnectTimeout:  cfg.Session.ConnectTimeout,
	})
	defer sessions.Close()

	registry := rpcbridge.NewRegistry()
	srv := mcpserver.New(cfg, sessions, registry)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return srv.Run(ctx)
}

// applyTestMode forces network mode bound to localhost with auth disabled
// when --test-mode is set (spec.md §6), overriding whatever the config
// file or environment requested.
func applyTestMode(cfg *config.Config) {
	if !testMode {
		return
	}
	cfg.Transport.Mode = "http"
	cfg.Transport.Host = "127.0.0.1"
	cfg.Transport.AuthEnabled = false
	slog.Warn("test_mode.enabled", "host", cfg.Transport.Host, "port", cfg.Transport.Port)
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// setupTracing wires the OTLP HTTP exporter (SPEC_FULL.md §3.5). When
// telemetry is disabled it installs nothing, leaving otel's default global
// tracer provider (a no-op) in place, so session.tracer/search.tracer spans
// are cheap discards.
func setupTracing(ctx context.Context, cfg *config.Config) func(context.Context) error {
	if !cfg.Telemetry.Enabled {
		return func(context.Context) error { return nil }
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Telemetry.Endpoint)}
	if cfg.Telemetry.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		slog.Warn("tracing.setup.failed", "error", err)
		return func(context.Context) error { return nil }
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	slog.Info("tracing.enabled", "endpoint", cfg.Telemetry.Endpoint, "service", cfg.Telemetry.ServiceName)
	return tp.Shutdown
}
