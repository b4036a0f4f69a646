package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/frahmantamala/access-control/internal/auth"
	"github.com/frahmantamala/access-control/internal/seed"
	"github.com/frahmantamala/access-control/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	adminName     string
	adminEmail    string
	adminPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed roles, permissions and the initial administrator",
	Long: `Create the default roles and permissions, link them, and create the
administrator account unless a user with that email already exists.
The password may also be given through SEED_ADMIN_PASSWORD.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		sqlDB, err := initDB(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		gdb, err := initGorm(sqlDB.DB)
		if err != nil {
			return err
		}

		password := adminPassword
		if password == "" {
			password = os.Getenv("SEED_ADMIN_PASSWORD")
		}

		hasher := auth.NewPasswordHasher(cfg.Security.PasswordScheme, cfg.Security.BCryptCost)
		res, err := seed.NewSeeder(gdb, hasher, logger.L()).Run(ctx, seed.Admin{
			Name:     adminName,
			Email:    adminEmail,
			Password: password,
		})
		if err != nil {
			return err
		}

		if res.AdminCreated {
			fmt.Println("Seeded admin user:", adminEmail)
		} else {
			fmt.Println("admin user already exists:", adminEmail)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&adminName, "admin-name", "Administrador", "name of the initial administrator")
	seedCmd.Flags().StringVar(&adminEmail, "admin-email", "admin@control-acceso.local", "email of the initial administrator")
	seedCmd.Flags().StringVar(&adminPassword, "admin-password", "", "password of the initial administrator")
}
