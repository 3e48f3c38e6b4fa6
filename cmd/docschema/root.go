package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/usestring/docschema/internal/config"
)

// globalFlags are shared by all subcommands.
type globalFlags struct {
	logLevel  string
	logFormat string
	logFile   string
}

func newRootCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:   "docschema",
		Short: "Infer probabilistic schemas from document collections",
		Long: `docschema reads documents (Extended JSON, plain JSON, YAML or BSON) and
infers their schema: every field path with how often it occurs, the BSON
types it holds with their frequencies, and a bounded set of sample values.

Settings are read from the environment (SAMPLE_SIZE, TRAVERSE_ARRAYS,
MAX_DEPTH, LOG_LEVEL, ...); flags override them.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)

	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Logging level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "Log format (text, json)")
	root.PersistentFlags().StringVar(&g.logFile, "log-file", "", "Log file path (default: stderr)")

	root.AddCommand(newInferCmd(&g), newServeCmd(&g))
	return root
}

// apply overrides the logging settings of cfg with the flags that were set.
func (g *globalFlags) apply(cfg *config.Config) {
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.logFormat != "" {
		cfg.LogFormat = g.logFormat
	}
	if g.logFile != "" {
		cfg.LogFile = g.logFile
	}
}
