package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/grantscout/grantscout/internal/api"
	"github.com/grantscout/grantscout/internal/app"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serves the discovery pipeline over HTTP",
		Long: `Starts the HTTP API. POST /api/find-grants runs a discovery pass,
POST /api/apply-clarification folds an answer back into the criteria, and
/healthz and /metrics expose liveness and Prometheus metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, cfgFile)
			if err != nil {
				return err
			}
			defer application.Close()

			logger := application.Logger
			timeout := time.Duration(application.Cfg.Server.TimeoutSeconds) * time.Second
			server := &http.Server{
				Addr:              fmt.Sprintf(":%d", application.Cfg.Server.Port),
				Handler:           api.NewServer(application.Orchestrator, timeout, logger).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("http server listening", zap.String("addr", server.Addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("http server: %w", err)
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
}
