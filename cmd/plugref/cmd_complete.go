package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dhamidi/plugref/reference"
)

func newCompleteCmd(opts *globalOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "complete FILE LINE COL",
		Short: "List completion candidates for the reference at a position",
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
			if err != nil || site == nil {
				return err
			}

			engine := reference.DefaultEngine()
			prefix := site.Prefix
			if all {
				prefix = ""
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, v := range engine.CompleteAt(c, site, prefix) {
				fmt.Fprintf(w, "%s\t%s\t%s\n", v.Text, v.Presentable, v.TypeText)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "ignore the text typed before the position")

	return cmd
}
