package commands

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cdfgraph/cdfgraph/internal/cli/config"
)

// NewConvertCommand creates the convert command
func NewConvertCommand() *cobra.Command {
	var (
		toBackend string
		toPath    string
		toDSN     string
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Copy the metadata graph to another store",
		Long: `Load the metadata graph from the configured store and save it into a
second store, converting between the JSON and SQLite backends.

Examples:
  cdfgraph convert --to sqlite --dsn copy.db
  cdfgraph convert --to json --path copy.json`,
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

			src, closeSrc, err := openStore(cfg.Store, log)
			if err != nil {
				return err
			}
			defer closeSrc()

			dstCfg := config.StoreConfig{Backend: toBackend, Path: toPath, DSN: toDSN}
			dst, closeDst, err := openStore(dstCfg, log)
			if err != nil {
				return err
			}
			defer closeDst()

			ctx := context.Background()
			desc, err := src.Load(ctx)
			if err != nil {
				return err
			}
			if init, ok := dst.(interface{ Init(context.Context) error }); ok {
				if err := init.Init(ctx); err != nil {
					return err
				}
			}
			if err := dst.Save(ctx, desc); err != nil {
				return err
			}

			color.New(color.FgGreen, color.Bold).Fprintf(cmd.OutOrStdout(),
				"✓ Converted to %s store\n", toBackend)
			return nil
		},
	}

	cmd.Flags().StringVar(&toBackend, "to", "json", "Destination backend (json or sqlite)")
	cmd.Flags().StringVar(&toPath, "path", "metadata-copy.json", "Destination JSON document path")
	cmd.Flags().StringVar(&toDSN, "dsn", "metadata-copy.db", "Destination database source name")

	return cmd
}
