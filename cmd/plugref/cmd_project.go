package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dhamidi/plugref/graph"
	"github.com/dhamidi/plugref/platform"
	"github.com/dhamidi/plugref/reference"
)

func newProjectCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "project",
		Short: "Show project structure",
		Long:  `Display the detected modules, their source roots, manifests and plugins.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.openCodebase(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			proj := c.Project()

			fmt.Fprintf(out, "Root:    %s\n", proj.RootDir)
			fmt.Fprintf(out, "Classes: %d\n", len(c.AllClasses()))
			fmt.Fprintf(out, "\nModules:\n")
			for _, mod := range proj.Modules {
				scope := graph.ModuleScope(mod.Dir)
				fmt.Fprintf(out, "  %s\n", mod.Name)
				for _, root := range mod.SourceRoots {
					fmt.Fprintf(out, "    root:     %s\n", rel(proj.RootDir, root))
				}
				for _, m := range c.ManifestFiles(scope) {
					fmt.Fprintf(out, "    manifest: %s\n", rel(proj.RootDir, m))
				}
				for _, cls := range c.FindSubtypes(platform.BukkitPlugin, scope) {
					if !cls.IsAbstract {
						fmt.Fprintf(out, "    bukkit:   %s\n", cls.Name)
					}
				}
			}

			decls := reference.PluginDeclarations(c)
			if len(decls) > 0 {
				fmt.Fprintf(out, "\nSponge plugins:\n")
				for _, d := range decls {
					fmt.Fprintf(out, "  %s\t%s\n", d.ID, d.Use.Class.Name)
				}
			}
			return nil
		},
	}
}

func rel(root, path string) string {
	if r, err := filepath.Rel(root, path); err == nil {
		return r
	}
	return path
}
