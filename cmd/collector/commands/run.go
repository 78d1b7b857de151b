package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/active-strike/internal/version"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Authenticate if needed, then fetch and store active strikes on every interval.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger.Info("starting collector",
			"version", version.Version,
			"commit", version.Commit,
			"asset", cfg.Market.Asset,
			"interval", cfg.Poller.Interval,
		)

		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.close()

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			return a.poller.Run(gctx)
		})

		if cfg.Health.Port > 0 {
			var db Pinger
			if a.pool != nil {
				db = a.pool
			}
			healthServer := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.Health.Port),
				Handler:           createHealthHandler(a.poller, a.writer, db, logger),
				ReadHeaderTimeout: 5 * time.Second,
			}

			g.Go(func() error {
				logger.Info("starting health server", "port", cfg.Health.Port)
				if err := healthServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("health server: %w", err)
				}
				return nil
			})

			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return healthServer.Shutdown(shutdownCtx)
			})
		}

		err = g.Wait()
		logger.Info("collector stopped", "status", a.poller.Status().LastOutcome)
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
