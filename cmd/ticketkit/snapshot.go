package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ticketkit/ticketkit/internal/types"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Take and inspect cumulative flow diagram snapshots",
}

var snapshotTakeCmd = &cobra.Command{
	Use:   "take <board-id>",
	Short: "Record per-status ticket counts for a board",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		date, _ := cmd.Flags().GetString("date")

		snapshots, err := eng.TakeSnapshot(cmd.Context(), args[0], date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Snapshot taken (%s):\n", green("✓"), snapshots[0].SnapshotDate)
		for _, snap := range snapshots {
			fmt.Printf("  %s: %d\n", snap.Status, snap.Count)
		}
	},
}

var snapshotCFDCmd = &cobra.Command{
	Use:   "cfd <board-id>",
	Short: "Print cumulative flow diagram data as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")

		points, err := eng.CFDData(cmd.Context(), args[0], types.DateRange{From: from, To: to})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		raw, err := json.MarshalIndent(points, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(raw))
	},
}

var snapshotBackfillCmd = &cobra.Command{
	Use:   "backfill <board-id>",
	Short: "Take snapshots for past dates with status changes",
	Long: `Take a snapshot for every date in the range on which at least one
status change was recorded. Counts use tickets' current statuses, not
their statuses on the historical date, so backfilled days are an
approximation of the true flow.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")

		dates, err := eng.BackfillSnapshots(cmd.Context(), args[0], types.DateRange{From: from, To: to})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Backfilled %d dates\n", green("✓"), len(dates))
		for _, date := range dates {
			fmt.Printf("  %s\n", date)
		}
	},
}

func init() {
	snapshotTakeCmd.Flags().String("date", "", "Snapshot date (YYYY-MM-DD, default today UTC)")
	snapshotCFDCmd.Flags().String("from", "", "Range start (YYYY-MM-DD, inclusive)")
	snapshotCFDCmd.Flags().String("to", "", "Range end (YYYY-MM-DD, inclusive)")
	snapshotBackfillCmd.Flags().String("from", "", "Range start (YYYY-MM-DD, inclusive)")
	snapshotBackfillCmd.Flags().String("to", "", "Range end (YYYY-MM-DD, inclusive)")

	snapshotCmd.AddCommand(snapshotTakeCmd, snapshotCFDCmd, snapshotBackfillCmd)
	rootCmd.AddCommand(snapshotCmd)
}
