package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dhamidi/plugref/graph"
	"github.com/dhamidi/plugref/inspect"
)

func newCheckCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check [FILE...]",
		Short: "Report unresolved references and plugin policy violations",
		Long: `Inspect the given files, or every Java file and plugin manifest of the
project when none are given. Exits with an error when a problem of error
severity is found.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.openCodebase(cmd.Context())
			if err != nil {
				return err
			}

			var files []string
			for _, arg := range args {
				abs, err := filepath.Abs(arg)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", arg, err)
				}
				files = append(files, abs)
			}
			if len(files) == 0 {
				files = append(c.JavaFiles(), c.ManifestFiles(graph.ProjectScope())...)
			}

			diags, err := inspect.New(c.Config()).Check(c, files)
			if err != nil {
				return err
			}

			errors := 0
			for _, d := range diags {
				fmt.Fprintln(cmd.OutOrStdout(), d)
				if d.Severity == inspect.SeverityError {
					errors++
				}
			}
			if errors > 0 {
				return fmt.Errorf("%d problems found", errors)
			}
			return nil
		},
	}
}
