package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ticketkit/ticketkit/internal/engine"
	"github.com/ticketkit/ticketkit/internal/types"
)

var ticketCmd = &cobra.Command{
	Use:   "ticket",
	Short: "Manage tickets",
}

var ticketCreateCmd = &cobra.Command{
	Use:   "create <board-id> <title>",
	Short: "Create a ticket",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		params, err := ticketParamsFromFlags(cmd, args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ticket, err := eng.CreateTicket(cmd.Context(), args[0], params, actor)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Ticket created: %s\n", green("✓"), ticket.Title)
		fmt.Printf("  ID: %s\n  Status: %s\n  Priority: %s\n", ticket.ID, ticket.Status, ticket.Priority)
	},
}

var ticketSubtaskCmd = &cobra.Command{
	Use:   "subtask <parent-ticket-id> <title>",
	Short: "Create a subtask under a ticket",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		params, err := ticketParamsFromFlags(cmd, args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ticket, err := eng.CreateSubtask(cmd.Context(), args[0], params, actor)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Subtask created: %s\n", green("✓"), ticket.Title)
		fmt.Printf("  ID: %s\n  Parent: %s\n", ticket.ID, ticket.ParentID)
	},
}

func ticketParamsFromFlags(cmd *cobra.Command, title string) (engine.TicketParams, error) {
	description, _ := cmd.Flags().GetString("description")
	status, _ := cmd.Flags().GetString("status")
	priority, _ := cmd.Flags().GetString("priority")
	labels, _ := cmd.Flags().GetStringSlice("label")
	assignees, _ := cmd.Flags().GetStringSlice("assignee")
	due, _ := cmd.Flags().GetString("due")

	params := engine.TicketParams{
		Title:       title,
		Description: description,
		Status:      status,
		Priority:    types.Priority(priority),
		Labels:      labels,
		Assignees:   assignees,
	}
	if due != "" {
		dueDate, err := time.Parse("2006-01-02", due)
		if err != nil {
			return params, fmt.Errorf("invalid due date %q (want YYYY-MM-DD)", due)
		}
		params.DueDate = &dueDate
	}
	return params, nil
}

var ticketShowCmd = &cobra.Command{
	Use:   "show <ticket-id>",
	Short: "Show a ticket",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ticket, err := eng.GetTicket(cmd.Context(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		bold := color.New(color.Bold).SprintFunc()
		fmt.Printf("%s [%s] %s\n", bold(ticket.Title), ticket.Status, ticket.Priority)
		fmt.Printf("  ID: %s\n  Board: %s\n", ticket.ID, ticket.BoardID)
		if ticket.Description != "" {
			fmt.Printf("  %s\n", ticket.Description)
		}
		if len(ticket.Labels) > 0 {
			fmt.Printf("  Labels: %v\n", ticket.Labels)
		}
		if len(ticket.Assignees) > 0 {
			fmt.Printf("  Assignees: %v\n", ticket.Assignees)
		}
		if ticket.ParentID != "" {
			fmt.Printf("  Parent: %s\n", ticket.ParentID)
		}
		if ticket.DueDate != nil {
			fmt.Printf("  Due: %s\n", ticket.DueDate.Format("2006-01-02"))
		}
	},
}

var ticketListCmd = &cobra.Command{
	Use:   "list <board-id>",
	Short: "List a board's tickets",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		status, _ := cmd.Flags().GetString("status")
		assignee, _ := cmd.Flags().GetString("assignee")
		label, _ := cmd.Flags().GetString("filter-label")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		tickets, err := eng.ListTickets(cmd.Context(), types.TicketQuery{
			BoardID:  args[0],
			Status:   status,
			Assignee: assignee,
			Label:    label,
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printTickets(tickets)
	},
}

var ticketMoveCmd = &cobra.Command{
	Use:   "move <ticket-id> <status>",
	Short: "Move a ticket to a new status",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ticket, err := eng.MoveTicket(cmd.Context(), args[0], args[1], actor)
		if err != nil {
			red := color.New(color.FgRed).SprintFunc()
			fmt.Fprintf(os.Stderr, "%s %v\n", red("✗"), err)
			os.Exit(1)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s %s → %s\n", green("✓"), ticket.Title, ticket.Status)
	},
}

var ticketAssignCmd = &cobra.Command{
	Use:   "assign <ticket-id> <assignee>...",
	Short: "Replace a ticket's assignees",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ticket, err := eng.AssignTicket(cmd.Context(), args[0], args[1:], actor)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Assigned %s to %v\n", green("✓"), ticket.Title, ticket.Assignees)
	},
}

var ticketDeleteCmd = &cobra.Command{
	Use:   "delete <ticket-id>",
	Short: "Delete a ticket",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := eng.DeleteTicket(cmd.Context(), args[0], actor); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Ticket deleted: %s\n", green("✓"), args[0])
	},
}

var ticketSubtasksCmd = &cobra.Command{
	Use:   "subtasks <ticket-id>",
	Short: "List a ticket's subtasks",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tickets, err := eng.Subtasks(cmd.Context(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printTickets(tickets)
	},
}

var ticketBacklogCmd = &cobra.Command{
	Use:   "backlog <board-id>",
	Short: "List tickets in the workflow's initial state",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tickets, err := eng.Backlog(cmd.Context(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printTickets(tickets)
	},
}

func printTickets(tickets []*types.Ticket) {
	if len(tickets) == 0 {
		fmt.Println("No tickets found.")
		return
	}
	cyan := color.New(color.FgCyan).SprintFunc()
	for _, ticket := range tickets {
		fmt.Printf("%s [%s/%s] %s\n", cyan(ticket.ID), ticket.Status, ticket.Priority, ticket.Title)
	}
}

func init() {
	for _, cmd := range []*cobra.Command{ticketCreateCmd, ticketSubtaskCmd} {
		cmd.Flags().StringP("description", "d", "", "Ticket description")
		cmd.Flags().StringP("status", "s", "", "Initial status (default: workflow's first state)")
		cmd.Flags().StringP("priority", "p", "", "Priority: low, medium, high, urgent")
		cmd.Flags().StringSlice("label", nil, "Label (repeatable)")
		cmd.Flags().StringSlice("assignee", nil, "Assignee (repeatable)")
		cmd.Flags().String("due", "", "Due date (YYYY-MM-DD)")
	}
	ticketListCmd.Flags().StringP("status", "s", "", "Filter by status")
	ticketListCmd.Flags().String("assignee", "", "Filter by assignee")
	ticketListCmd.Flags().String("filter-label", "", "Filter by label")
	ticketListCmd.Flags().IntP("limit", "n", 0, "Maximum tickets to return")
	ticketListCmd.Flags().Int("offset", 0, "Offset into the result set")

	ticketCmd.AddCommand(ticketCreateCmd, ticketSubtaskCmd, ticketShowCmd,
		ticketListCmd, ticketMoveCmd, ticketAssignCmd, ticketDeleteCmd,
		ticketSubtasksCmd, ticketBacklogCmd)
	rootCmd.AddCommand(ticketCmd)
}
