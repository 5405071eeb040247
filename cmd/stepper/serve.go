package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/stepper/internal/cli"
	"github.com/aretw0/stepper/internal/config"
	httpAdapter "github.com/aretw0/stepper/pkg/adapters/http"
	catalog "github.com/aretw0/stepper/pkg/adapters/loam"
	"github.com/aretw0/stepper/pkg/observability"
	"github.com/aretw0/stepper/pkg/session"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP playback server",
	Long: `Starts the session hub behind a JSON API with a live SSE event stream.
Sessions persist to the configured store; lessons are served from the lessons directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		debug, _ := cmd.Flags().GetBool("debug")
		logger := cli.NewLogger(cfg.Log, debug, false)

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		var metrics *observability.Metrics
		hubOpts := []session.HubOption{session.WithInterval(cfg.Playback.Interval)}
		if cfg.Server.Metrics {
			metrics = observability.NewMetrics()
			hubOpts = append(hubOpts, session.WithObserver(metrics))
		}

		hub, closeHub, err := openHub(sc, cfg, logger, hubOpts...)
		if err != nil {
			return err
		}
		defer closeHub()

		serverOpts := []httpAdapter.Option{httpAdapter.WithLogger(logger)}
		if metrics != nil {
			serverOpts = append(serverOpts, httpAdapter.WithMetrics(metrics.Handler()))
		}
		if lessons := openLessons(cfg, logger); lessons != nil {
			serverOpts = append(serverOpts, httpAdapter.WithLessons(lessons))
		}

		api := httpAdapter.NewServer(hub, serverOpts...)
		defer api.Close()
		handler, err := api.Handler()
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting Stepper Server", "address", srv.Addr, "store", cfg.Store.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-sc.Done():
			logger.Info("Start shutdown", "signal", sc.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("Stepper Server stopped gracefully")
			return nil
		}
	},
}

// openHub opens the configured store and a hub over it. The returned func closes both.
func openHub(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...session.HubOption) (*session.Hub, func(), error) {
	p, err := cli.OpenPersistence(ctx, cfg.Store, logger)
	if err != nil {
		return nil, nil, err
	}
	hub := session.NewHub(p.Manager(logger), opts...)
	return hub, func() {
		hub.Close()
		if err := p.Close(); err != nil {
			logger.Warn("failed to close store", "error", err)
		}
	}, nil
}

// openLessons returns nil when the lessons directory cannot be opened; the
// lesson routes then answer 404.
func openLessons(cfg *config.Config, logger *slog.Logger) *catalog.Catalog {
	if cfg.Server.LessonsDir == "" {
		return nil
	}
	cat, err := catalog.Open(cfg.Server.LessonsDir)
	if err != nil {
		logger.Warn("lessons disabled", "dir", cfg.Server.LessonsDir, "error", err)
		return nil
	}
	cat.Logger = logger
	return cat
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", config.DefaultPort, "Port to listen on")
}
