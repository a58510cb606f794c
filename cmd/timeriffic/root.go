package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/timeriffic/timeriffic/internal/config"
	"github.com/timeriffic/timeriffic/internal/logging"
	"github.com/timeriffic/timeriffic/internal/services"
)

type rootOptions struct {
	dbPath     string
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "timeriffic",
		Short:        "timeriffic - ordered profiles of timed actions",
		Long:         "timeriffic stores named profiles, each holding an ordered list of timed actions, in a local SQLite database.",
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Database file (default $XDG_DATA_HOME/timeriffic/profiles.db)")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/timeriffic/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	cmd.AddCommand(newListCmd(opts))
	cmd.AddCommand(newProfileCmd(opts))
	cmd.AddCommand(newActionCmd(opts))
	cmd.AddCommand(newResetCmd(opts))
	cmd.AddCommand(newMCPCmd(opts))

	return cmd
}

// load resolves the configuration file and applies flag overrides.
func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

// open loads the configuration and opens the profile store. The returned
// close function releases the store and flushes the logger.
func (o *rootOptions) open(ctx context.Context) (*services.Services, func(), error) {
	cfg, err := o.load()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	layout, err := cfg.Layout()
	if err != nil {
		return nil, nil, err
	}

	svc, err := services.Open(ctx, services.Options{
		Path:          cfg.ResolvedDBPath(),
		SchemaVersion: cfg.SchemaVersion,
		Layout:        layout,
		FailFast:      cfg.FailFast,
		Seed:          cfg.Seed,
	}, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}

	closeFn := func() {
		if err := svc.Close(); err != nil {
			logger.Error("failed to close profile store", zap.Error(err))
		}
		_ = logger.Sync()
	}
	return svc, closeFn, nil
}
