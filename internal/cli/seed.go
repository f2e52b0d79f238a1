package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo catalog",
		Long: `Insert the demo products. Running it twice inserts them twice.

Example:
  DB_DRIVER=sqlite SQLITE_PATH=./shop.db shop seed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config
			if err := requireSQL(cfg); err != nil {
				return err
			}
			app, err := NewApp(cfg, rootOpts.Log)
			if err != nil {
				return err
			}
			defer app.Close()

			products, err := app.Catalog.Seed(cmd.Context())
			if err != nil {
				return fmt.Errorf("seed catalog: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, p := range products {
				fmt.Fprintf(out, "%s\t%s\t%d %s\tstock %d\n", p.ID, p.Name, p.Price.Amount, p.Price.Currency, p.Quantity)
			}
			return nil
		},
	}
}
