package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyperengineering/waypoint/internal/config"
	"github.com/hyperengineering/waypoint/internal/emulator"
	"github.com/spf13/cobra"
)

var (
	emulateDB     string
	emulatePort   int
	emulateStream bool
	emulateSeed   bool
)

var emulateCmd = &cobra.Command{
	Use:   "emulate",
	Short: "Run a local SQLite-backed stand-in for the remote data service",
	Args:  cobra.NoArgs,
	RunE:  runEmulate,
}

func init() {
	emulateCmd.Flags().StringVar(&emulateDB, "db", "", "SQLite database path (default from config)")
	emulateCmd.Flags().IntVar(&emulatePort, "port", 0, "Listen port (default from config)")
	emulateCmd.Flags().BoolVar(&emulateStream, "stream", false, "Answer with text/event-stream bodies")
	emulateCmd.Flags().BoolVar(&emulateSeed, "seed", true, "Seed sample features into an empty database")
	rootCmd.AddCommand(emulateCmd)
}

func runEmulate(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.LoadLocal()
	if err != nil {
		return err
	}
	applyEmulateFlags(cmd, &cfg.Emulator)

	logger, closeLog := newLogger(cfg.Log, os.Stdout)
	defer closeLog()
	slog.SetDefault(logger)

	token := os.Getenv(cfg.Remote.TokenEnv)
	store, handler, err := newEmulator(ctx, cfg.Emulator, token, emulateSeed)
	if err != nil {
		return err
	}
	defer store.Close()

	addr := fmt.Sprintf(":%d", cfg.Emulator.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	go func() {
		slog.Info("emulator starting", "address", addr, "db", cfg.Emulator.DatabasePath, "stream", cfg.Emulator.Stream)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("emulator error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("emulator shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// applyEmulateFlags lets explicitly set flags override configuration.
func applyEmulateFlags(cmd *cobra.Command, cfg *config.EmulatorConfig) {
	if cmd.Flags().Changed("db") {
		cfg.DatabasePath = emulateDB
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = emulatePort
	}
	if cmd.Flags().Changed("stream") {
		cfg.Stream = emulateStream
	}
}

// newEmulator opens the emulator store, optionally seeds it, and returns the
// handler that serves it. The caller closes the store.
func newEmulator(ctx context.Context, cfg config.EmulatorConfig, token string, seed bool) (*emulator.Store, http.Handler, error) {
	if token == "" {
		return nil, nil, fmt.Errorf("emulator requires a bearer token")
	}

	store, err := emulator.OpenStore(cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}

	if seed {
		n, err := store.SeedFeatures(ctx, emulator.DefaultFeatures)
		if err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("seed features: %w", err)
		}
		if n > 0 {
			slog.Info("emulator seeded", "features", n)
		}
	}

	srv := emulator.NewServer(store, token, emulator.WithStream(cfg.Stream))
	return store, srv.Handler(), nil
}
