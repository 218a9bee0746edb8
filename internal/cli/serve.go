package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"restoran-web/internal/server"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long:  "Migrates the database, ensures the default admin exists and serves HTTP until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			if err := migrateAndEnsureAdmin(cmd, e); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app := server.New(e.cfg, e.db, e.logger)
			addr := ":" + e.cfg.HTTPPort

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				e.out.Info("listening on %s", addr)
				if err := app.Listen(addr); err != nil {
					return fmt.Errorf("listen: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				e.logger.Info("shutting down")
				return app.ShutdownWithTimeout(shutdownTimeout)
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			e.out.Success("server stopped")
			return nil
		},
	}
}
