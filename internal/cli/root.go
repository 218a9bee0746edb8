// Package cli implements the restoran command: serve, migrate and seed.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"restoran-web/internal/config"
	"restoran-web/internal/database"
	"restoran-web/internal/logging"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// env is what every subcommand needs; it is built lazily so --help works
// without a database.
type env struct {
	cfg    *config.Config
	db     *gorm.DB
	logger *slog.Logger
	out    printer
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	cfg := config.Load()
	logger := logging.New("restoran", cfg.LogLevel, nil)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, db: db, logger: logger, out: printer{w: cmd.OutOrStdout()}}, nil
}

func (e *env) close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// NewRootCmd builds the command tree. Running it without a subcommand
// starts the server.
func NewRootCmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:           "restoran",
		Short:         "Restaurant management server",
		Long:          "Runs the restaurant web application and its maintenance tasks.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.AddCommand(serve, newMigrateCmd(), newSeedCmd())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		printer{w: os.Stderr}.Error("%v", err)
		os.Exit(1)
	}
}

func migrateAndEnsureAdmin(cmd *cobra.Command, e *env) error {
	if err := database.Migrate(e.db.WithContext(cmd.Context())); err != nil {
		return err
	}
	e.out.Success("database migrated")

	admin, err := ensureAdmin(cmd, e)
	if err != nil {
		return fmt.Errorf("default admin: %w", err)
	}
	e.out.Success("admin account %q ready", admin)
	return nil
}
