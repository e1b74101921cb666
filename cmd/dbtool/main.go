package main

import (
	"context"
	"database/sql"
	"ev-route-service/internal/adapters/repositories"
	"ev-route-service/internal/app"
	"ev-route-service/internal/config"
	"ev-route-service/internal/platform/logging"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var cfg *config.Config

func main() {
	config.LoadDotEnv()
	cfg = config.Load()
	logger := logging.Setup(cfg.Env)
	ctx := logger.WithContext(context.Background())

	rootCmd := &cobra.Command{
		Use:   "dbtool",
		Short: "Manage the ev-route-service database",
		Long: `Creates the schema and loads vehicle profiles into the database used by
the server when CATALOG_SOURCE=database. Connection settings default to the
same environment variables the server reads.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.DBDriver, "driver", cfg.DBDriver, "Database driver (postgres or sqlite)")
	rootCmd.PersistentFlags().StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "Postgres connection URL")
	rootCmd.PersistentFlags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite database")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDB(ctx context.Context) (*sql.DB, error) {
	if cfg.DBDriver == "none" {
		return nil, fmt.Errorf("dbtool needs a database driver, got %q", cfg.DBDriver)
	}
	return app.OpenDatabase(ctx, cfg)
}

// initCmd creates the schema.
func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zerolog.Ctx(cmd.Context())
			logger.Info().Str("driver", cfg.DBDriver).Msg("Initializing database schema...")

			db, err := openDB(cmd.Context())
			if err != nil {
				return fmt.Errorf("schema initialization failed: %w", err)
			}
			defer db.Close()

			logger.Info().Msg("Schema ready.")
			return nil
		},
	}
}

// seedCmd loads vehicle profiles from a YAML or JSON file.
func seedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed vehicle profiles from a YAML or JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zerolog.Ctx(cmd.Context())

			db, err := openDB(cmd.Context())
			if err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			defer db.Close()

			dialect, err := repositories.ParseDialect(cfg.DBDriver)
			if err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}

			logger.Info().Str("file", file).Msg("Seeding database...")
			n, err := repositories.SeedVehicles(cmd.Context(), db, dialect, file)
			if err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			logger.Info().Int("vehicles", n).Msg("Seeding complete.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", cfg.SeedPath, "Seed file (.yaml, .yml or .json)")
	return cmd
}
