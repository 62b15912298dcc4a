package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <board-id> <query>...",
	Short: "Search a board's tickets",
	Long: `Search tickets with the compact query language: key:value tokens
(status, priority, assignee, label) filter fields, anything else
matches title and description as free text.

Examples:
  ticketkit search b1 status:in_progress bug
  ticketkit search b1 assignee:alice label:backend
  ticketkit search b1 login timeout`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		tickets, err := eng.Search(cmd.Context(), args[0], strings.Join(args[1:], " "))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printTickets(tickets)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
