// Package cli wires configuration, storage and transports into the shop
// command.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dwikikusuma/shoping-live/pkg/config"
	"github.com/dwikikusuma/shoping-live/pkg/logger"
)

// RootOptions holds global flags and what PersistentPreRunE derives from them.
type RootOptions struct {
	ConfigPath string

	Config config.Config
	Log    *slog.Logger
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "shop",
		Short:         "Live shopping cart server",
		Long:          "Catalog, accounts and carts with stock reserved on add and pushed to every open tab.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadPath(opts.ConfigPath)
			if err != nil {
				return err
			}
			opts.Config = cfg
			opts.Log = logger.New(logger.Options{
				Service: "shop",
				Env:     cfg.AppEnv,
				Level:   cfg.LogLevel,
				Format:  cfg.LogFormat,
			})
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML config file (defaults to $CONFIG_FILE)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}
