package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cbridge/internal/buildpipeline"
	"cbridge/internal/config"
	"cbridge/internal/diag"
	"cbridge/internal/diagfmt"
	"cbridge/internal/observ"
	"cbridge/internal/ui"
)

type runOptions struct {
	quiet   bool
	timings bool
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	manifest, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	outDir, err := cmd.Flags().GetString("out-dir")
	if err != nil {
		return nil, err
	}
	return config.Load(config.LoadOptions{
		ManifestPath: manifest,
		OutDirFlag:   outDir,
	})
}

func newRequest(cmd *cobra.Command, cfg *config.Config) (*buildpipeline.Request, runOptions, error) {
	var opts runOptions
	var err error
	if opts.quiet, err = cmd.Flags().GetBool("quiet"); err != nil {
		return nil, opts, err
	}
	if opts.timings, err = cmd.Flags().GetBool("timings"); err != nil {
		return nil, opts, err
	}
	maxDiag, err := cmd.Flags().GetInt("max-diagnostics")
	if err != nil {
		return nil, opts, err
	}
	req := &buildpipeline.Request{Config: cfg, MaxDiagnostics: maxDiag}
	if opts.timings {
		req.Timer = observ.NewTimer()
	}
	if !opts.quiet {
		req.Progress = &ui.StatusPrinter{W: cmd.ErrOrStderr(), Styled: !color.NoColor}
	}
	return req, opts, nil
}

type pipelineFunc func(context.Context, *buildpipeline.Request) (*buildpipeline.Result, error)

// runPipeline executes fn and prints warnings and timings whatever the
// outcome. The returned error has already been printed when it carries
// diagnostics.
func runPipeline(cmd *cobra.Command, fn pipelineFunc, mutate func(*buildpipeline.Request)) (*buildpipeline.Result, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	req, opts, err := newRequest(cmd, cfg)
	if err != nil {
		return nil, cfg, err
	}
	if mutate != nil {
		mutate(req)
	}
	res, err := fn(cmd.Context(), req)
	stderr := cmd.ErrOrStderr()
	if res != nil && res.Warnings != nil && !opts.quiet {
		if items := res.Warnings.Items(); len(items) > 0 {
			printDiagnostics(stderr, items)
		}
	}
	if req.Timer != nil {
		fmt.Fprint(stderr, req.Timer.Summary())
	}
	return res, cfg, err
}

// diagnosticsFormat is set from --diagnostics-format before any command runs.
var diagnosticsFormat = "pretty"

func printDiagnostics(w io.Writer, items []diag.Diagnostic) {
	wd, _ := os.Getwd()
	if diagnosticsFormat == "json" {
		_ = diagfmt.JSON(w, items, diagfmt.JSONOpts{PathMode: diagfmt.PathModeRelative, BaseDir: wd, IncludeNotes: true})
		return
	}
	diagfmt.Pretty(w, items, diagfmt.PrettyOpts{
		Color:     !color.NoColor,
		PathMode:  diagfmt.PathModeRelative,
		BaseDir:   wd,
		ShowNotes: true,
		Context:   true,
	})
}

// printError prints coded diagnostics through diagfmt, anything else as a
// single error line.
func printError(w io.Writer, err error) {
	var de *diag.Error
	if errors.As(err, &de) && len(de.Diagnostics()) > 0 {
		printDiagnostics(w, de.Diagnostics())
		if de.Cause != nil && diagnosticsFormat != "json" {
			fmt.Fprintf(w, "  cause: %v\n", de.Cause)
		}
		return
	}
	fmt.Fprintf(w, "%s: %v\n", color.New(color.FgRed, color.Bold).Sprint("error"), err)
}

func relPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
