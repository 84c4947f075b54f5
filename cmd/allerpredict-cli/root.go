package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/allerpredict/allerpredict/internal/app"
	"github.com/allerpredict/allerpredict/internal/config"
	logpkg "github.com/allerpredict/allerpredict/internal/logger"
	"github.com/allerpredict/allerpredict/internal/version"
)

type globalFlags struct {
	configPath string
	env        string
	verbose    bool
	jsonOutput bool
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "allerpredict-cli",
		Short:         "Allergen and ethics analysis for catalog products",
		Long:          "Looks up a product in the catalog, retrieves related products and asks a local model for an allergen and ethics analysis.",
		Version:       fmt.Sprintf("%s (%s, %s)", version.Version, version.Commit, version.Date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// .env is optional; real environment variables win
			_ = godotenv.Load()
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to the config file (default: config/<env>.yaml)")
	root.PersistentFlags().StringVar(&flags.env, "env", "", "Config environment (default: $ENV or local)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&flags.jsonOutput, "json", false, "Print machine-readable JSON")

	root.AddCommand(
		analyzeCmd(flags),
		askCmd(flags),
		productsCmd(flags),
		healthCmd(flags),
	)
	return root
}

func (f *globalFlags) loadConfig() (config.Config, error) {
	if f.configPath != "" {
		return config.LoadFile(f.configPath)
	}
	env := f.env
	if env == "" {
		env = config.GetEnv()
	}
	return config.Load(env)
}

func (f *globalFlags) newLogger(cfg *config.Config) (*zap.Logger, error) {
	// CLI output goes to stdout; logs stay quiet on stderr unless asked for.
	level := "warn"
	switch {
	case f.verbose:
		level = "debug"
	case cfg.Logging.Level == "error":
		level = "error"
	}
	return logpkg.NewLogger("cli", level)
}

// bootstrap loads config, builds the pipeline and loads the catalog.
// The returned cleanup must be called when the command finishes.
func (f *globalFlags) bootstrap(ctx context.Context, requireCatalog bool) (*app.App, func(), error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := f.newLogger(&cfg)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(ctx, &cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("build pipeline: %w", err)
	}
	cleanup := func() {
		a.Close()
		_ = logger.Sync()
	}

	if _, err := a.LoadCatalog(ctx); err != nil {
		if requireCatalog || !errors.Is(err, app.ErrNoProducts) {
			cleanup()
			return nil, nil, err
		}
	}
	return a, cleanup, nil
}
