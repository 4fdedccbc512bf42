package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyperengineering/waypoint/internal/api"
	"github.com/hyperengineering/waypoint/internal/config"
	"github.com/hyperengineering/waypoint/internal/roadmap"
	"github.com/hyperengineering/waypoint/internal/sqlrpc"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:          "waypoint",
	Short:        "Waypoint - Public Roadmap Service",
	SilenceUsage: true,
	RunE:         run,
}

func run(cmd *cobra.Command, args []string) error {
	// 1. Signal handling
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// 2. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// 3. Initialize logger
	logger, closeLog := newLogger(cfg.Log, os.Stdout)
	defer closeLog()
	slog.SetDefault(logger)
	slog.Info("logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	// 4. Initialize roadmap service
	svc := newService(cfg)
	slog.Info("roadmap service initialized",
		"remote", cfg.Remote.URL,
		"integration_id", cfg.Remote.IntegrationID,
		"list_cache_ttl", time.Duration(cfg.Roadmap.ListCacheTTL).String())

	// 5. Initialize HTTP router
	handler := api.NewHandler(svc, Version)
	router := api.NewRouter(handler)

	// 6. Configure HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	// 7. Start HTTP server in goroutine
	go func() {
		slog.Info("server starting", "address", addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	// 8. Block until signal received
	<-ctx.Done()
	slog.Info("shutdown initiated")

	// 9. Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// newService builds the roadmap service from configuration. The bearer token
// is read from cfg.Remote.TokenEnv on every call.
func newService(cfg *config.Config) *roadmap.Service {
	var clientOpts []sqlrpc.Option
	if cfg.Remote.Timeout > 0 {
		clientOpts = append(clientOpts, sqlrpc.WithTimeout(time.Duration(cfg.Remote.Timeout)))
	}
	client := sqlrpc.NewClient(cfg.Remote.URL, sqlrpc.EnvCredentials{Key: cfg.Remote.TokenEnv}, clientOpts...)

	return roadmap.NewService(client, cfg.Remote.IntegrationID,
		roadmap.WithListCache(time.Duration(cfg.Roadmap.ListCacheTTL)))
}

// newLogger builds the process logger. When cfg.File is set, records are
// also written to a rotated log file. The returned func closes that file.
func newLogger(cfg config.LogConfig, stdout io.Writer) (*slog.Logger, func() error) {
	out := stdout
	closeFn := func() error { return nil }

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		out = io.MultiWriter(stdout, rotator)
		closeFn = rotator.Close
	}

	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(out, opts)), closeFn
	}
	return slog.New(slog.NewJSONHandler(out, opts)), closeFn
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
