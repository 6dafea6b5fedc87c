package main

import (
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/smakiapp/smaki-server/internal/config"
	"github.com/smakiapp/smaki-server/internal/di"
	"github.com/smakiapp/smaki-server/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "smakictl",
	Short: "Smaki operator tools",
	Long: `smakictl manages a Smaki data directory without going through the HTTP API.

It reads the same .env file and environment variables as the server.
Stop the server first when using the badger backend; it holds an exclusive lock.

Examples:
  # Print an argon2id hash for STAFF_PASSWORD_HASH
  smakictl hash-password

  # Load flavors and selections from a YAML file
  smakictl seed flavors.yaml

  # Show what the public page would display
  smakictl today --date 2025-06-10`,
	SilenceUsage: true,
}

var (
	envFile  string
	dataPath string
	backend  string
	verbose  bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to .env file")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data-path", "", "Data directory (default: DATA_PATH)")
	rootCmd.PersistentFlags().StringVar(&backend, "store-backend", "", "Store backend (sqlite, badger)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(hashPasswordCmd, seedCmd, todayCmd)
}

// loadConfig maps the persistent flags onto the server's config loader.
func loadConfig() (*config.Config, error) {
	args := []string{"--env-file", envFile}
	if dataPath != "" {
		args = append(args, "--data-path", dataPath)
	}
	if backend != "" {
		args = append(args, "--store-backend", backend)
	}
	return config.Load(args)
}

// newContainer returns the server's container with the CLI's config and a
// quieter logger. Nothing starts listening unless the HTTP server is invoked.
func newContainer() (*do.RootScope, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	level := "warn"
	if verbose {
		level = "debug"
	}

	injector := di.NewContainer()
	do.OverrideValue(injector, cfg)
	do.OverrideValue(injector, logger.New(logger.Config{
		Level:       logger.ParseLevel(level),
		Environment: cfg.App.Environment,
	}))
	return injector, nil
}
