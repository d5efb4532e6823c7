package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vbonduro/dishcarbon/internal/db"
	"github.com/vbonduro/dishcarbon/internal/live"
	"github.com/vbonduro/dishcarbon/internal/photostore/local"
	"github.com/vbonduro/dishcarbon/internal/service"
	"github.com/vbonduro/dishcarbon/internal/session"
	"github.com/vbonduro/dishcarbon/internal/store"
	"github.com/vbonduro/dishcarbon/internal/web"
	"github.com/vbonduro/dishcarbon/internal/web/templates"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

func newServeCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen != "" {
				a.cfg.ListenAddr = listen
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides LISTEN_ADDR)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	logger := a.logger

	database, err := db.Open(a.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	photos, err := local.NewLocalPhotoStore(a.cfg.PhotoPath)
	if err != nil {
		return fmt.Errorf("failed to initialize photo store: %w", err)
	}

	svc := service.NewEstimationService(a.client(), store.NewEstimationStore(database), photos, logger)
	hub := live.NewHub(logger)
	sessions := session.NewManager(a.cfg.SessionTTL, hub, logger)
	go sessions.RunSweeper(ctx, sweepInterval)

	server := web.NewServer(svc, sessions, hub, templates.FS, logger)
	httpServer := server.NewHTTPServer(a.cfg.ListenAddr)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", a.cfg.ListenAddr, "api_url", a.cfg.APIBaseURL)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
