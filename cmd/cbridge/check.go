package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cbridge/internal/buildpipeline"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Fail when the header on disk differs from a fresh render",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, _, err := runPipeline(cmd, buildpipeline.Check, nil)
			if err != nil {
				return err
			}
			if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is up to date\n", relPath(res.Path))
			}
			return nil
		},
	}
}
