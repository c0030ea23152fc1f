package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/plugref/codebase"
)

func newLSPCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server on stdio",
		Long: `Start the language server. Without --config the configuration file of
the workspace opened by the client is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if opts.configFile == "" {
				cfg = nil
			}
			server := codebase.NewLSPServer(version, cfg)
			return server.RunStdio()
		},
	}
}
