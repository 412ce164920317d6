// ABOUTME: Main entry point for the PiRSS server
// ABOUTME: Parses flags, loads configuration and runs the server until a signal arrives

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pirss-api/infrastructure/logger/structured"
	"pirss-api/pkg/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, port string

	cmd := &cobra.Command{
		Use:           "pirss",
		Short:         "Full-text RSS republishing service",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, port)
			if err != nil {
				return err
			}

			logger, err := structured.NewLogger(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			return app.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to a YAML configuration file")
	cmd.Flags().StringVar(&port, "port", "", "HTTP port (overrides PORT and the config file)")

	cmd.SetContext(context.Background())
	return cmd
}

// loadConfig reads the file and environment, applies flag overrides and validates
func loadConfig(path, port string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if port != "" {
		cfg.Server.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
