package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cdfgraph/cdfgraph/backend"
	"github.com/cdfgraph/cdfgraph/internal/cli/config"
)

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the stored metadata graph",
		Long: `Load the metadata graph from the configured store and validate it:
every referenced type and dimension must resolve, every referenced
user type must be fully defined, and no names may collide. Also
reports attributes still waiting to be flushed.`,
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

			desc, err := store.Load(context.Background())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, err = backend.Assemble(desc)
			if err != nil {
				color.New(color.FgRed, color.Bold).Fprintln(out, "✗ Metadata graph is invalid")
				fmt.Fprintf(out, "  %v\n", err)
				return err
			}

			stats := countObjects(desc)
			color.New(color.FgGreen, color.Bold).Fprintln(out, "✓ Metadata graph is valid")
			fmt.Fprintf(out, "  %d group(s), %d dimension(s), %d variable(s), %d user type(s)\n",
				stats.groups, stats.dims, stats.vars, stats.types)

			if dirty := pendingAttrs(desc); len(dirty) > 0 {
				color.New(color.FgYellow).Fprintf(out, "  %d attribute(s) pending flush:\n", len(dirty))
				for _, name := range dirty {
					fmt.Fprintf(out, "    %s\n", name)
				}
			}
			return nil
		},
	}
}

type objectCounts struct {
	groups, dims, vars, types int
}

func countObjects(desc *backend.Description) objectCounts {
	var stats objectCounts
	var walk func(gd *backend.GroupDesc)
	walk = func(gd *backend.GroupDesc) {
		stats.groups++
		stats.dims += len(gd.Dimensions)
		stats.vars += len(gd.Variables)
		stats.types += len(gd.Types)
		for i := range gd.Groups {
			walk(&gd.Groups[i])
		}
	}
	walk(&desc.Root)
	return stats
}

// pendingAttrs lists attributes the description still marks dirty, as
// owner-path/attribute pairs.
func pendingAttrs(desc *backend.Description) []string {
	var out []string
	var walk func(gd *backend.GroupDesc, path string)
	walk = func(gd *backend.GroupDesc, path string) {
		for _, ad := range gd.Attributes {
			if ad.Dirty {
				out = append(out, path+"/@"+ad.Name)
			}
		}
		for _, vd := range gd.Variables {
			for _, ad := range vd.Attributes {
				if ad.Dirty {
					out = append(out, path+"/"+vd.Name+"/@"+ad.Name)
				}
			}
		}
		for i := range gd.Groups {
			child := &gd.Groups[i]
			walk(child, path+"/"+child.Name)
		}
	}
	walk(&desc.Root, "")
	return out
}
