package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/modkit/config"
	"github.com/GoCodeAlone/modkit/health"
	"github.com/GoCodeAlone/modkit/internal/app"
	"github.com/GoCodeAlone/modkit/logging"
	"github.com/GoCodeAlone/modkit/modules/eventlogger"
	"github.com/GoCodeAlone/modkit/modules/httpserver"
)

// NewServeCommand starts the HTTP server and blocks until interrupted.
func NewServeCommand() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := configPaths(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, paths, watch)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload the log level when a config file changes")
	return cmd
}

func serve(ctx context.Context, paths []string, watch bool) error {
	cfg, err := config.Load(paths...)
	if err != nil {
		return err
	}
	logger, err := logging.NewZap(cfg.Log.Level, cfg.Production)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	events := eventlogger.New(logger)
	a, err := app.Build(ctx, cfg, logger, app.WithObservers(events))
	if err != nil {
		logger.Error("Failed to build application", "error", err)
		return err
	}
	defer func() { _ = a.Close() }()

	srv, err := httpserver.New(httpserver.ConfigFromApp(cfg), a.Handler(), logger, httpserver.WithObservers(events))
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}

	if cfg.Health.Schedule != "" {
		monitor := health.NewMonitor(a.Health, logger)
		if err := monitor.Start(cfg.Health.Schedule); err != nil {
			_ = srv.Stop(context.Background())
			return err
		}
		defer monitor.Stop()
	}

	if watch && len(paths) > 0 {
		go func() {
			err := config.Watch(ctx, func(next *config.AppConfig, err error) {
				if err != nil {
					logger.Warn("Config reload failed", "error", err)
					return
				}
				if err := logger.SetLevel(next.Log.Level); err != nil {
					logger.Warn("Invalid log level", "level", next.Log.Level, "error", err)
					return
				}
				logger.Info("Config reloaded", "logLevel", next.Log.Level)
			}, paths...)
			if err != nil {
				logger.Error("Config watcher stopped", "error", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-srv.Done():
		return err
	}
	return srv.Stop(context.Background())
}
