package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-docbot"
	"github.com/goliatone/go-docbot/internal/di"
	"github.com/goliatone/go-docbot/internal/logging"
)

func serveCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := docbot.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if err := cfg.ValidateServe(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides server.addr")
	return cmd
}

func serve(ctx context.Context, cfg docbot.Config) error {
	var opts []di.Option
	if cfg.Pipeline.Retries > 0 {
		opts = append(opts, di.WithDispatcher())
	}
	module, err := docbot.New(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	logger := logging.ModuleLogger(module.Container().LoggerProvider(), "docbot.server")

	handler, err := module.Handler()
	if err != nil {
		_ = module.Close(context.Background())
		return err
	}
	module.Start(ctx)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server.listening", "addr", cfg.Server.Addr, "webhook_path", cfg.Server.WebhookPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	logger.Info("server.shutdown")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server.shutdown_failed", "error", err)
	}
	if err := module.Close(shutdownCtx); err != nil {
		logger.Warn("server.close_failed", "error", err)
	}
	return serveErr
}
