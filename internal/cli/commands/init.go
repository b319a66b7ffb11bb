package commands

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cdfgraph/cdfgraph/backend"
	"github.com/cdfgraph/cdfgraph/internal/cli/config"
	"github.com/cdfgraph/cdfgraph/meta"
)

// NewInitCommand creates the init command
func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create an empty metadata store",
		Long: `Create the configured metadata store and save an empty container
into it: a root group with no dimensions, variables, types, or attributes.

Examples:
  cdfgraph init                    # Create the store from cdfgraph.yml
  CDFGRAPH_STORE_BACKEND=sqlite cdfgraph init`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer log.Sync()

			store, closeStore, err := openStore(cfg.Store, log)
			if err != nil {
				return err
			}
			defer closeStore()

			ctx := context.Background()
			if init, ok := store.(interface{ Init(context.Context) error }); ok {
				if err := init.Init(ctx); err != nil {
					return err
				}
			}

			f := meta.CreateFile(meta.WithLogger(log))
			if err := f.EndDefs(); err != nil {
				return err
			}
			f.MarkFlushed()
			if err := store.Save(ctx, backend.Describe(f)); err != nil {
				return err
			}

			color.New(color.FgGreen, color.Bold).Println("✓ Empty container saved")
			return nil
		},
	}
}
