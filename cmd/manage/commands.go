package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"taskapi/internal/auth"
	"taskapi/internal/config"
	"taskapi/internal/db"
	"taskapi/internal/logger"
	"taskapi/internal/repository"
	"taskapi/internal/service"
)

// connect loads configuration and opens a migrated database.
func connect() (*gorm.DB, *config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	log := logger.New(cfg.Env)

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN, log)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := db.Migrate(gormDB); err != nil {
		return nil, nil, nil, err
	}
	return gormDB, cfg, log, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the users, categories and tasks tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, log, err := connect()
			if err != nil {
				return err
			}
			log.WithField("driver", cfg.DBDriver).Info("migrations applied")
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return nil
		},
	}
}

func newCreateSuperuserCmd() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create a staff superuser that can use the admin endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gormDB, cfg, _, err := connect()
			if err != nil {
				return err
			}

			jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
			authService := service.NewAuthService(repository.NewUserRepository(gormDB), jwtService, auth.NewTokenStore(nil))

			user, err := authService.CreateSuperuser(cmd.Context(), username, email, password)
			if err != nil {
				return fmt.Errorf("create superuser: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Superuser %q created with id %d.\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "superuser username")
	cmd.Flags().StringVar(&email, "email", "", "superuser email")
	cmd.Flags().StringVar(&password, "password", "", "superuser password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
