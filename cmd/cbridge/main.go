package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"cbridge/internal/buildpipeline"
	"cbridge/internal/discover"
	"cbridge/internal/prof"
	"cbridge/internal/version"
)

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cbridge",
		Short: "C header generator for Go c-archive libraries",
		Long: `cbridge statically scans //export functions and //cbridge:layout structs
and writes a C99 header that C consumers include when linking the archive.`,
		Version:           version.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupOutput,
	}
	root.PersistentPostRunE = func(*cobra.Command, []string) error {
		return stopProfiling()
	}

	root.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	root.PersistentFlags().String("diagnostics-format", "pretty", "diagnostics output format (pretty|json)")
	root.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	root.PersistentFlags().Bool("timings", false, "show timing information")
	root.PersistentFlags().Bool("verbose", false, "log pipeline internals to stderr")
	root.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to collect")
	root.PersistentFlags().String("config", "", "path to cbridge.toml (default: search upward)")
	root.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	root.PersistentFlags().String("mem-profile", "", "write a heap profile to this file on exit")
	root.PersistentFlags().String("trace-out", "", "write a runtime trace to this file")
	root.PersistentFlags().String("out-dir", "", "output directory (overrides CBRIDGE_OUT_DIR and cbridge.toml)")

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newLayoutCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// main runs the root command and exits with status 1 on any failure.
func main() {
	root := newRootCmd()
	err := root.Execute()
	if stopErr := stopProfiling(); err == nil {
		err = stopErr
	}
	if err != nil {
		printError(root.ErrOrStderr(), err)
		os.Exit(1)
	}
}

func setupOutput(cmd *cobra.Command, _ []string) error {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return err
	}
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto", "":
		color.NoColor = !isTerminal(os.Stderr)
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}

	format, err := cmd.Flags().GetString("diagnostics-format")
	if err != nil {
		return err
	}
	switch format {
	case "pretty", "json":
		diagnosticsFormat = format
	default:
		return fmt.Errorf("invalid --diagnostics-format value %q (expected pretty|json)", format)
	}

	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}
	if err := startProfiling(cmd); err != nil {
		return err
	}
	if verbose {
		logger, logErr := zap.NewDevelopment()
		if logErr != nil {
			return fmt.Errorf("failed to create logger: %w", logErr)
		}
		discover.SetLogger(logger.Named("discover"))
		buildpipeline.SetLogger(logger.Named("pipeline"))
	}
	return nil
}

var profSession *prof.Session

func startProfiling(cmd *cobra.Command) error {
	var opts prof.Options
	var err error
	if opts.CPU, err = cmd.Flags().GetString("cpu-profile"); err != nil {
		return err
	}
	if opts.Mem, err = cmd.Flags().GetString("mem-profile"); err != nil {
		return err
	}
	if opts.Trace, err = cmd.Flags().GetString("trace-out"); err != nil {
		return err
	}
	if !opts.Enabled() {
		return nil
	}
	profSession, err = prof.Start(opts)
	return err
}

func stopProfiling() error {
	s := profSession
	profSession = nil
	return s.Stop()
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
