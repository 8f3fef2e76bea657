package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"authmon/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that authmon can run with the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			out := cmd.OutOrStdout()
			colorize := isTerminal(out)

			configMsg := ctx.configPath
			if !ctx.configExists {
				configMsg += " (not found, defaults used)"
			}
			results := append(
				[]preflight.Result{{Name: "Config", Status: preflight.StatusInfo, Detail: configMsg}},
				preflight.RunAll(cmd.Context(), cfg)...,
			)

			printHeading(out, "authmon preflight", colorize)
			for _, r := range results {
				fmt.Fprintln(out, formatResult(r, colorize))
			}
			if failed := preflight.Failed(results); failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}
}
