package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/tasktalk-api/internal/monitor"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP chat server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, l, err := initializeApp(nil)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := newApplication(ctx, cfg, l)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return app.serve(ctx)
		},
	}
}

// serve runs the HTTP server and the stats reporter until ctx is cancelled
// or either of them fails, then shuts both down within the configured budget.
func (app *application) serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var reporter *monitor.Reporter
	if schedule := app.config.Monitor.ReportSchedule; schedule != "" {
		var err error
		reporter, err = monitor.NewReporter(schedule, app.monitor, app.cache.Stats, app.logger)
		if err != nil {
			app.cleanup(context.Background())
			return err
		}
		reporter.Start()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.logger.Info("starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout())
		defer cancel()

		var errs []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown failed: %w", err))
		}
		if reporter != nil {
			if err := reporter.Stop(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("reporter shutdown failed: %w", err))
			}
		}
		app.cleanup(shutdownCtx)
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		app.logger.Error("server stopped with error", "error", err)
		return err
	}
	app.logger.Info("server shutdown completed")
	return nil
}
