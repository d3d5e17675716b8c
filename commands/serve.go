package commands

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"coffeescraper/config"
	"coffeescraper/handlers"

	"github.com/spf13/cobra"
)

var serveRunNow bool

func init() {
	serveCmd.Flags().BoolVar(&serveRunNow, "run-now", false, "Start a batch immediately instead of waiting for the schedule.")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [--run-now]",
	Short: "Runs the batch on a cron schedule and serves the reports over HTTP.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg := config.Load()
		checker, repo, closeDB, err := newPriceChecker(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeDB()

		if err := checker.Start(ctx); err != nil {
			return err
		}
		defer checker.Stop()

		if serveRunNow {
			if err := checker.StartRun(ctx); err != nil {
				slog.Warn("could not start initial run", "error", err)
			}
		}

		h := handlers.NewHandlers(ctx, repo, checker, handlers.Reports{
			SpreadsheetPath: cfg.SpreadsheetPath,
			HTMLPath:        cfg.HTMLPath,
		})
		srv := &http.Server{
			Addr: net.JoinHostPort(cfg.Host, cfg.Port),
			Handler: handlers.NewRouter(h, handlers.RouterOptions{
				AllowedOrigins: cfg.AllowedOrigins,
				RateLimit:      cfg.RateLimit,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errs := make(chan error, 1)
		go func() {
			slog.Info("server starting", "addr", srv.Addr)
			errs <- srv.ListenAndServe()
		}()

		select {
		case err := <-errs:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}
