package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dwikikusuma/shoping-live/pkg/database"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config
			if err := requireSQL(cfg); err != nil {
				return err
			}
			// openDB migrates on the way in.
			db, err := openDB(cfg, rootOpts.Log)
			if err != nil {
				return err
			}
			defer database.Close(db)

			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", cfg.DBDriver)
			return nil
		},
	}
}
