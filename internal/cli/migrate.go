package cli

import (
	"time"

	"restoran-web/internal/seed"

	"github.com/spf13/cobra"
)

func ensureAdmin(cmd *cobra.Command, e *env) (string, error) {
	u, err := seed.EnsureAdmin(cmd.Context(), e.db, e.cfg)
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and the default admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			e.out.Title("Migrating database")
			return migrateAndEnsureAdmin(cmd, e)
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo data into empty tables",
		Long:  "Loads demo users, menu, ingredients and a voucher. Tables that already hold data are left alone.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			e.out.Title("Seeding demo data")
			res, err := seed.Run(cmd.Context(), e.db, time.Now())
			if err != nil {
				return err
			}
			for _, msg := range res.Created {
				e.out.Success("created %s", msg)
			}
			for _, msg := range res.Skipped {
				e.out.Info("%s", msg)
			}
			if len(res.Created) == 0 {
				e.out.Warning("nothing to seed; data already present")
			} else {
				e.out.Success("seeding completed")
			}
			return nil
		},
	}
}
