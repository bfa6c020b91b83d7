package main

import (
	"fmt"
	"go/token"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cbridge/internal/buildpipeline"
	"cbridge/internal/diag"
	"cbridge/internal/layout"
	"cbridge/internal/ui"
)

func newLayoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the C layout of every exported struct",
		Args:  cobra.NoArgs,
		RunE:  runLayout,
	}
	cmd.Flags().String("target", "", fmt.Sprintf("target triple %v or \"host\" (default: from cbridge.toml)", layout.TargetNames()))
	return cmd
}

func runLayout(cmd *cobra.Command, _ []string) error {
	triple, err := cmd.Flags().GetString("target")
	if err != nil {
		return err
	}
	var target layout.Target
	switch triple {
	case "":
	case "host":
		var ok bool
		if target, ok = layout.HostTarget(); !ok {
			return diag.Errorf(diag.ConfigBadTarget, token.Position{}, "", fmt.Sprintf("no layout target for host architecture %s", runtime.GOARCH), nil)
		}
	default:
		if target, err = layout.ParseTarget(triple); err != nil {
			return diag.Errorf(diag.ConfigBadTarget, token.Position{}, "", err.Error(), nil)
		}
	}
	res, cfg, err := runPipeline(cmd, buildpipeline.Prepare, func(req *buildpipeline.Request) {
		if triple != "" {
			req.Config.Target = target
		}
	})
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), ui.LayoutTable(cfg.Target.Triple, res.Layouts, !color.NoColor))
	return nil
}
