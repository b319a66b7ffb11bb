package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cdfgraph/cdfgraph/backend"
	"github.com/cdfgraph/cdfgraph/internal/cli/config"
	"github.com/cdfgraph/cdfgraph/internal/cli/ui"
	"github.com/cdfgraph/cdfgraph/meta"
)

// NewShowCommand creates the show command
func NewShowCommand() *cobra.Command {
	var (
		showHidden bool
		summary    bool
	)

	cmd := &cobra.Command{
		Use:   "show [group-path]",
		Short: "Print the stored metadata graph",
		Long: `Load the metadata graph from the configured store and print it as an
indented tree: groups, dimensions, user-defined types, variables, and
attributes, each in declaration order. With a group path argument only
that subtree is printed.

Examples:
  cdfgraph show
  cdfgraph show /model/surface     # One subtree
  cdfgraph show --summary          # Variable summary table
  cdfgraph show --hidden           # Include system attributes`,
		Args: cobra.MaximumNArgs(1),
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
			f, err := backend.Assemble(desc, meta.WithLogger(log))
			if err != nil {
				return err
			}
			f.LogMetadata()

			start := f.Root()
			if len(args) == 1 {
				start, err = f.GroupByPath(args[0])
				if err != nil {
					return suggestGroup(cmd.OutOrStdout(), f, args[0], err)
				}
			}

			if summary {
				printSummary(cmd.OutOrStdout(), f, start)
				return nil
			}
			printGroup(cmd.OutOrStdout(), f, start, 0, showHidden)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showHidden, "hidden", false, "Include hidden system attributes")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print a variable summary table instead of the tree")

	return cmd
}

// suggestGroup decorates a failed group lookup with close path names.
func suggestGroup(w io.Writer, f *meta.File, path string, err error) error {
	var paths []string
	var walk func(g *meta.Group)
	walk = func(g *meta.Group) {
		paths = append(paths, g.FullPath())
		for _, child := range g.Groups() {
			walk(child)
		}
	}
	walk(f.Root())

	if similar := ui.Suggest(path, paths); len(similar) > 0 {
		fmt.Fprintf(w, "group %q not found, did you mean %s?\n", path, strings.Join(similar, ", "))
	}
	return err
}

// printSummary renders one row per variable in the subtree rooted at g.
func printSummary(w io.Writer, f *meta.File, g *meta.Group) {
	table := ui.NewTable(w, "VARIABLE", "TYPE", "SHAPE", "ATTRS")
	var walk func(g *meta.Group)
	walk = func(g *meta.Group) {
		for _, v := range g.Variables() {
			name := v.Name
			if !g.IsRoot() {
				name = g.FullPath() + "/" + v.Name
			}
			table.AddRow(name, typeName(f, v.TypeID), dimNames(f, v.DimIDs),
				fmt.Sprintf("%d", v.Atts.Len()))
		}
		for _, child := range g.Groups() {
			walk(child)
		}
	}
	walk(g)
	table.Render()
}

var (
	groupColor = color.New(color.FgCyan, color.Bold)
	kindColor  = color.New(color.FgYellow)
	dimColor   = color.New(color.FgGreen)
)

func printGroup(w io.Writer, f *meta.File, g *meta.Group, depth int, hidden bool) {
	pad := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s\n", pad, groupColor.Sprint(g.FullPath()))

	for _, d := range g.Dimensions() {
		size := fmt.Sprintf("%d", d.Len)
		if d.Unlimited {
			size = fmt.Sprintf("unlimited (%d)", d.Len)
		}
		fmt.Fprintf(w, "%s  %s %s = %s\n", pad, kindColor.Sprint("dim"), d.Name, dimColor.Sprint(size))
	}
	for _, t := range g.UserTypes() {
		fmt.Fprintf(w, "%s  %s %s: %s, %d bytes\n", pad, kindColor.Sprint("type"), t.Name, t.Class, t.SizeBytes)
		for _, m := range t.Members() {
			fmt.Fprintf(w, "%s    %s = %d\n", pad, m.Name, m.Value)
		}
		for _, fld := range t.Fields() {
			fmt.Fprintf(w, "%s    %s %s @%d\n", pad, typeName(f, fld.TypeID), fld.Name, fld.Offset)
		}
	}
	for _, v := range g.Variables() {
		fmt.Fprintf(w, "%s  %s %s %s(%s)\n", pad, kindColor.Sprint("var"),
			typeName(f, v.TypeID), v.Name, dimNames(f, v.DimIDs))
		printAttrs(w, f, v.Atts, pad+"    ", hidden)
	}
	printAttrs(w, f, g.Atts, pad+"  ", hidden)

	for _, child := range g.Groups() {
		printGroup(w, f, child, depth+1, hidden)
	}
}

func printAttrs(w io.Writer, f *meta.File, atts *meta.Index, pad string, hidden bool) {
	for _, o := range atts.All() {
		a := o.(*meta.Attribute)
		if a.Hidden() && !hidden {
			continue
		}
		fmt.Fprintf(w, "%s:%s = %s\n", pad, a.Name, attrValue(a))
	}
}

func attrValue(a *meta.Attribute) string {
	if len(a.Strings) > 0 {
		quoted := make([]string, len(a.Strings))
		for i, s := range a.Strings {
			quoted[i] = fmt.Sprintf("%q", s)
		}
		return strings.Join(quoted, ", ")
	}
	return fmt.Sprintf("%d value(s), %d bytes", a.Count, len(a.Bytes))
}

func typeName(f *meta.File, id int) string {
	if t, ok := f.TypeByID(id); ok {
		return t.Name
	}
	return fmt.Sprintf("type#%d", id)
}

func dimNames(f *meta.File, ids []int) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		if d, ok := f.DimensionByID(id); ok {
			names[i] = d.Name
		} else {
			names[i] = fmt.Sprintf("dim#%d", id)
		}
	}
	return strings.Join(names, ", ")
}
