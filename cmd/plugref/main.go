package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/plugref/codebase"
	"github.com/dhamidi/plugref/config"
	"github.com/dhamidi/plugref/span"
)

const version = "0.1.0"

type globalOptions struct {
	root       string
	configFile string
	verbose    int
	logFile    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "plugref",
		Short:         "Cross-references for Bukkit, Sponge and mixin plugin projects",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.root, "root", ".", "project root directory")
	flags.StringVar(&opts.configFile, "config", "", "configuration file (default <root>/"+config.DefaultConfigFile+")")
	flags.CountVarP(&opts.verbose, "verbose", "v", "increase log verbosity")
	flags.StringVar(&opts.logFile, "log-file", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(newLSPCmd(opts))
	rootCmd.AddCommand(newResolveCmd(opts))
	rootCmd.AddCommand(newCompleteCmd(opts))
	rootCmd.AddCommand(newCheckCmd(opts))
	rootCmd.AddCommand(newProjectCmd(opts))

	return rootCmd
}

// loadConfig reads the configuration file, applies the command line
// overrides and configures logging.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	path := o.configFile
	if path == "" {
		path = filepath.Join(o.root, config.DefaultConfigFile)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if o.verbose > 0 {
		cfg.Verbosity = o.verbose
	}
	if o.logFile != "" {
		cfg.LogFile = o.logFile
	}

	var logPath *string
	if cfg.LogFile != "" {
		logPath = &cfg.LogFile
	}
	commonlog.Configure(cfg.Verbosity, logPath)
	return cfg, nil
}

func (o *globalOptions) openCodebase(ctx context.Context) (*codebase.Codebase, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return codebase.Open(ctx, o.root, cfg)
}

// parsePosition parses the FILE LINE COL arguments shared by resolve and
// complete. The file is made absolute so that it matches the project's
// paths.
func parsePosition(args []string) (string, span.Position, error) {
	file, err := filepath.Abs(args[0])
	if err != nil {
		return "", span.Position{}, fmt.Errorf("resolve %s: %w", args[0], err)
	}
	line, err := strconv.Atoi(args[1])
	if err != nil || line < 1 {
		return "", span.Position{}, fmt.Errorf("invalid line %q", args[1])
	}
	col, err := strconv.Atoi(args[2])
	if err != nil || col < 1 {
		return "", span.Position{}, fmt.Errorf("invalid column %q", args[2])
	}
	return file, span.Position{Line: line, Column: col}, nil
}
