package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/happylearn/buddy/internal/store"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect recorded upstream calls",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent upstream calls made by the proxy",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		failed, _ := cmd.Flags().GetBool("failed")
		since, _ := cmd.Flags().GetDuration("since")

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		opts := store.QueryOpts{Limit: limit, FailedOnly: failed}
		if since > 0 {
			opts.From = time.Now().Add(-since)
		}

		events, err := s.EventRepo().QueryUpstream(context.Background(), opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		if len(events) == 0 {
			fmt.Println("No upstream events found.")
			return nil
		}

		// Header.
		fmt.Printf("%-5s  %-19s  %-10s  %-22s  %-4s  %-6s  %-7s  %s\n",
			"ID", "Timestamp", "Grade", "Subject", "Msgs", "Status", "Ms", "OK")
		fmt.Println(strings.Repeat("\u2500", 100))

		for _, e := range events {
			ok := "✓"
			if !e.Success {
				ok = "✗ " + truncate(e.ErrorMessage, 40)
			}
			fmt.Printf("%-5d  %-19s  %-10s  %-22s  %-4d  %-6d  %-7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Grade,
				truncate(e.Subject, 22),
				e.MessageCount,
				e.Status,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

func init() {
	eventsListCmd.Flags().Int("limit", 50, "Maximum number of events")
	eventsListCmd.Flags().Bool("failed", false, "Only show failed calls")
	eventsListCmd.Flags().Duration("since", 0, "Only show calls newer than this, e.g. 24h")
	eventsCmd.AddCommand(eventsListCmd)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
