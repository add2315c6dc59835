package terminal

import (
	"io"
	"os"

	"github.com/de-tools/approval-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/approval-atlas/pkg/runtime/terminal/export"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	runtime *commands.Runtime
	rootCmd *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Output io.Writer
	Logger *zerolog.Logger
	Args   []string
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	cli := &CLI{
		runtime: &commands.Runtime{
			Logger:   logger,
			Reporter: export.NewReporter(opts.Output),
		},
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	if opts.Args != nil {
		cli.rootCmd.SetArgs(opts.Args)
	}
	return cli
}

func (cli *CLI) Execute() error {
	defer func() {
		if err := cli.runtime.Close(); err != nil {
			cli.runtime.Logger.Warn().Err(err).Msg("failed to close database connection")
		}
	}()
	return cli.rootCmd.Execute()
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "atlas",
		Short:         "Payment approval rate anomaly analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&cli.runtime.ConfigPath, "config", "c", "", "Path to a YAML settings file")
	flags.StringVar(&cli.runtime.DBPath, "db", "", "Path to the local DuckDB store (overrides store.db_path)")
	flags.StringVar(&cli.runtime.SourcesPath, "sources", commands.DefaultSourcesPath(), "Path to the source profiles file")

	cmd.AddCommand(commands.NewAnalyzeCmd(cli.runtime))
	cmd.AddCommand(commands.NewSegmentsCmd(cli.runtime))
	cmd.AddCommand(commands.NewSourcesCmd(cli.runtime))

	return cmd
}
