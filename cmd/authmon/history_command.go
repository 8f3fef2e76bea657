package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"authmon/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded failures and triggers, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("history is disabled (set history.enabled = true)")
			}

			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			events, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "No events recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Time", "Kind", "Detail", "Run"},
				historyRows(events),
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				80,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of events to show (0 for all)")
	return cmd
}

func historyRows(events []history.Event) [][]string {
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		rows = append(rows, []string{
			strconv.FormatInt(ev.ID, 10),
			ev.At.Local().Format(time.DateTime),
			ev.Kind,
			eventDetail(ev),
			shortRunID(ev.RunID),
		})
	}
	return rows
}

func eventDetail(ev history.Event) string {
	if ev.Kind == history.KindTrigger {
		detail := fmt.Sprintf("%d failures -> %s", ev.Failures, ev.Action)
		if ev.Error != "" {
			detail += " (error: " + ev.Error + ")"
		}
		return detail
	}
	if ev.Rule != "" {
		return "[" + ev.Rule + "] " + strings.TrimSpace(ev.Line)
	}
	return strings.TrimSpace(ev.Line)
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
