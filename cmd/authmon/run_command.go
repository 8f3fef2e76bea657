package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"authmon/internal/config"
	"authmon/internal/daemonrun"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		maxFailures int
		window      time.Duration
		interval    time.Duration
		dryRun      bool
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:   "run [FILE]",
		Short: "Watch the auth log in the foreground",
		Long: "Watch the auth log in the foreground until interrupted.\n\n" +
			"FILE overrides monitor.file and AUTHMON_FILE. Lines already in the file at\n" +
			"start are skipped; rotation, truncation and recreation are followed.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			if len(args) == 1 {
				file, err := config.ExpandPath(args[0])
				if err != nil {
					return fmt.Errorf("resolve %s: %w", args[0], err)
				}
				cfg.Monitor.File = file
			}
			flags := cmd.Flags()
			if flags.Changed("max-failures") {
				cfg.Monitor.MaxFailures = maxFailures
			}
			if flags.Changed("window") {
				if window > 0 && window < time.Second {
					return fmt.Errorf("%w: --window must be 0 or at least 1s, got %s", config.ErrInvalid, window)
				}
				cfg.Monitor.WindowSeconds = int(window / time.Second)
			}
			if flags.Changed("interval") {
				if interval < time.Millisecond {
					return fmt.Errorf("%w: --interval must be at least 1ms, got %s", config.ErrInvalid, interval)
				}
				cfg.Monitor.PollIntervalMillis = int(interval / time.Millisecond)
			}
			if flags.Changed("dry-run") {
				cfg.Action.DryRun = dryRun
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{LogLevel: logLevel})
		},
	}

	cmd.Flags().IntVarP(&maxFailures, "max-failures", "n", 0, "Failures that trigger the action (overrides config)")
	cmd.Flags().DurationVar(&window, "window", 0, "Only count failures within this duration; 0 counts all")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Delay between polls of the watched file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log the trigger instead of running the action")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level for this run")
	return cmd
}
