package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ticketkit/ticketkit/internal/engine"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Manage boards",
}

var boardCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a board",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		description, _ := cmd.Flags().GetString("description")
		workflowID, _ := cmd.Flags().GetString("workflow")

		board, err := eng.CreateBoard(cmd.Context(), engine.BoardParams{
			Name:        args[0],
			Description: description,
			WorkflowID:  workflowID,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Board created: %s\n", green("✓"), board.Name)
		fmt.Printf("  ID: %s\n  Workflow: %s\n", board.ID, board.WorkflowID)
	},
}

var boardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List boards, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		boards, err := eng.ListBoards(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(boards) == 0 {
			fmt.Println("No boards yet. Create one with 'ticketkit board create <name>'.")
			return
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		for _, board := range boards {
			fmt.Printf("%s %s (workflow: %s)\n", cyan(board.ID), board.Name, board.WorkflowID)
			if board.Description != "" {
				fmt.Printf("  %s\n", board.Description)
			}
		}
	},
}

var boardShowCmd = &cobra.Command{
	Use:   "show <board-id>",
	Short: "Show a board's kanban view",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		view, err := eng.KanbanView(cmd.Context(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		bold := color.New(color.Bold).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Printf("%s (workflow: %s)\n", bold(view.Board.Name), view.Workflow.Name)
		for _, state := range view.Workflow.States {
			tickets := view.Columns[state]
			fmt.Printf("\n%s (%d)\n", cyan(state), len(tickets))
			for _, ticket := range tickets {
				fmt.Printf("  %s [%s] %s\n", ticket.ID, ticket.Priority, ticket.Title)
			}
		}
	},
}

var boardUpdateCmd = &cobra.Command{
	Use:   "update <board-id>",
	Short: "Update a board's name, description, or workflow",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		updates := map[string]any{}
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			updates["name"] = name
		}
		if cmd.Flags().Changed("description") {
			description, _ := cmd.Flags().GetString("description")
			updates["description"] = description
		}
		if cmd.Flags().Changed("workflow") {
			workflowID, _ := cmd.Flags().GetString("workflow")
			updates["workflow_id"] = workflowID
		}

		board, err := eng.UpdateBoard(cmd.Context(), args[0], updates)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Board updated: %s\n", green("✓"), board.Name)
	},
}

var boardDeleteCmd = &cobra.Command{
	Use:   "delete <board-id>",
	Short: "Delete a board and all its tickets",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := eng.DeleteBoard(cmd.Context(), args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Board deleted: %s\n", green("✓"), args[0])
	},
}

var boardExportCmd = &cobra.Command{
	Use:   "export <board-id>",
	Short: "Export a board and its tickets as a JSON bundle",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		bundle, err := eng.ExportBoard(cmd.Context(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		raw, err := json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if output == "" {
			fmt.Println(string(raw))
			return
		}
		if err := os.WriteFile(output, raw, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Exported %d tickets to %s\n", green("✓"), len(bundle.Tickets), output)
	},
}

var boardImportCmd = &cobra.Command{
	Use:   "import <bundle.json>",
	Short: "Import a board bundle under fresh IDs",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		var bundle engine.Bundle
		if err := json.Unmarshal(raw, &bundle); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid bundle: %v\n", err)
			os.Exit(1)
		}

		board, err := eng.ImportBoard(cmd.Context(), &bundle, actor)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Imported board %s (%d tickets)\n", green("✓"), board.Name, len(bundle.Tickets))
		fmt.Printf("  New ID: %s\n", board.ID)
	},
}

func init() {
	boardCreateCmd.Flags().StringP("description", "d", "", "Board description")
	boardCreateCmd.Flags().StringP("workflow", "w", "", "Workflow ID (default kanban)")
	boardUpdateCmd.Flags().String("name", "", "New name")
	boardUpdateCmd.Flags().StringP("description", "d", "", "New description")
	boardUpdateCmd.Flags().StringP("workflow", "w", "", "New workflow ID")
	boardExportCmd.Flags().StringP("output", "o", "", "Write the bundle to a file instead of stdout")

	boardCmd.AddCommand(boardCreateCmd, boardListCmd, boardShowCmd,
		boardUpdateCmd, boardDeleteCmd, boardExportCmd, boardImportCmd)
	rootCmd.AddCommand(boardCmd)
}
