package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cbridge/internal/buildpipeline"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the C header for the configured packages",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}
	cmd.Flags().Bool("mkdir", false, "create the output directory when it is missing")
	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	mkdir, err := cmd.Flags().GetBool("mkdir")
	if err != nil {
		return err
	}
	res, _, err := runPipeline(cmd, buildpipeline.Generate, func(req *buildpipeline.Request) {
		req.MakeOutDir = mkdir
	})
	if err != nil {
		return err
	}
	quiet, _ := cmd.Flags().GetBool("quiet")
	if quiet {
		return nil
	}
	state := "wrote"
	if res.Unchanged {
		state = "unchanged"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d layouts, %d functions)\n",
		state, relPath(res.Path), len(res.Surface.Structs), len(res.Surface.Functions))
	return nil
}
