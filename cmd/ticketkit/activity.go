package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ticketkit/ticketkit/internal/export"
	"github.com/ticketkit/ticketkit/internal/types"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Inspect and export the audit trail",
}

var activityShowCmd = &cobra.Command{
	Use:   "show <ticket-id>",
	Short: "Show a ticket's audit trail, newest first",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")

		activities, err := eng.Activity(cmd.Context(), args[0], limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printActivities(activities)
	},
}

var activityBoardCmd = &cobra.Command{
	Use:   "board <board-id>",
	Short: "Query a board's audit trail",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		query, err := activityQueryFromFlags(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		activities, err := eng.QueryActivity(cmd.Context(), args[0], query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printActivities(activities)
	},
}

var activityExportCmd = &cobra.Command{
	Use:   "export <board-id>",
	Short: "Export a board's audit trail as JSON or CSV",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")
		timezone, _ := cmd.Flags().GetString("timezone")
		output, _ := cmd.Flags().GetString("output")

		query, err := activityQueryFromFlags(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		raw, err := eng.ExportActivityLog(cmd.Context(), args[0], query, export.Options{
			Format:   export.Format(format),
			Timezone: timezone,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if output == "" {
			fmt.Print(string(raw))
			return
		}
		if err := os.WriteFile(output, raw, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Exported activity log to %s\n", green("✓"), output)
	},
}

func activityQueryFromFlags(cmd *cobra.Command) (types.ActivityQuery, error) {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	actors, _ := cmd.Flags().GetStringSlice("by")
	actions, _ := cmd.Flags().GetStringSlice("action")
	limit, _ := cmd.Flags().GetInt("limit")

	query := types.ActivityQuery{Actors: actors, Limit: limit}
	for _, action := range actions {
		query.Actions = append(query.Actions, types.ActivityAction(action))
	}
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return query, fmt.Errorf("invalid from date %q (want YYYY-MM-DD)", from)
		}
		query.From = &t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return query, fmt.Errorf("invalid to date %q (want YYYY-MM-DD)", to)
		}
		// Inclusive end of day.
		end := t.Add(24*time.Hour - time.Nanosecond)
		query.To = &end
	}
	return query, nil
}

func printActivities(activities []*types.Activity) {
	if len(activities) == 0 {
		fmt.Println("No activity.")
		return
	}
	cyan := color.New(color.FgCyan).SprintFunc()
	for _, activity := range activities {
		fmt.Printf("%s %s %s %s\n", activity.CreatedAt.Format("2006-01-02 15:04:05"),
			cyan(activity.Action), activity.Actor, activity.TicketID)
		if len(activity.Changes) > 0 {
			raw, err := json.Marshal(activity.Changes)
			if err == nil {
				fmt.Printf("  %s\n", string(raw))
			}
		}
	}
}

func init() {
	activityShowCmd.Flags().IntP("limit", "n", 0, "Maximum entries to show (default 50)")
	for _, cmd := range []*cobra.Command{activityBoardCmd, activityExportCmd} {
		cmd.Flags().String("from", "", "Range start (YYYY-MM-DD)")
		cmd.Flags().String("to", "", "Range end (YYYY-MM-DD, inclusive)")
		cmd.Flags().StringSlice("by", nil, "Filter by actor (repeatable)")
		cmd.Flags().StringSlice("action", nil, "Filter by action (repeatable)")
		cmd.Flags().IntP("limit", "n", 0, "Maximum entries")
	}
	activityExportCmd.Flags().StringP("format", "f", "json", "Export format: json or csv")
	activityExportCmd.Flags().String("timezone", "", "IANA timezone for timestamps (default UTC)")
	activityExportCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")

	activityCmd.AddCommand(activityShowCmd, activityBoardCmd, activityExportCmd)
	rootCmd.AddCommand(activityCmd)
}
