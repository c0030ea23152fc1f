package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dhamidi/plugref/graph"
	"github.com/dhamidi/plugref/reference"
)

func newResolveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve FILE LINE COL",
		Short: "Print the declarations the reference at a position resolves to",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, pos, err := parsePosition(args)
			if err != nil {
				return err
			}
			c, err := opts.openCodebase(cmd.Context())
			if err != nil {
				return err
			}
			site, err := reference.SiteAt(c, file, pos)
			if err != nil {
				return err
			}
			return printResolution(cmd.OutOrStdout(), reference.DefaultEngine(), c, site)
		},
	}
}

func printResolution(w io.Writer, engine *reference.Engine, c graph.Accessor, site *reference.Site) error {
	if site == nil {
		fmt.Fprintln(w, "no reference")
		return nil
	}
	category, targets := engine.Resolve(c, site)
	if category == "" {
		fmt.Fprintf(w, "%q is not a reference\n", site.Value)
		return nil
	}
	if len(targets) == 0 {
		fmt.Fprintf(w, "%s %q: unresolved\n", category, site.Value)
		return nil
	}
	for _, t := range targets {
		if t.Span.IsZero() {
			fmt.Fprintf(w, "%s %q -> %s %s (%s)\n", category, site.Value, t.Kind, t.Name, t.File)
			continue
		}
		fmt.Fprintf(w, "%s %q -> %s %s (%s:%s)\n", category, site.Value, t.Kind, t.Name, t.File, t.Span.Start)
	}
	return nil
}
