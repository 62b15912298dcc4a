package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ticketkit/ticketkit/internal/types"
	"github.com/ticketkit/ticketkit/internal/workflow"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Inspect and register workflows",
}

var workflowListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in workflows",
	Run: func(cmd *cobra.Command, args []string) {
		cyan := color.New(color.FgCyan).SprintFunc()
		for _, wf := range workflow.Builtins() {
			fmt.Printf("%s %s: %s\n", cyan(wf.ID), wf.Name, strings.Join(wf.States, " → "))
		}
	},
}

var workflowShowCmd = &cobra.Command{
	Use:   "show <workflow-id>",
	Short: "Show a workflow's states and transitions",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		wf, err := eng.Workflow(cmd.Context(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		bold := color.New(color.Bold).SprintFunc()
		fmt.Printf("%s (%s)\n", bold(wf.Name), wf.ID)
		for _, state := range wf.States {
			targets := wf.Transitions[state]
			if len(targets) == 0 {
				fmt.Printf("  %s (terminal)\n", state)
				continue
			}
			fmt.Printf("  %s → %s\n", state, strings.Join(targets, ", "))
		}
	},
}

var workflowRegisterCmd = &cobra.Command{
	Use:   "register <workflow.json>",
	Short: "Register a custom workflow from a JSON definition",
	Long: `Register a custom workflow. The file holds a JSON object with
id, name, states (ordered; the first is the initial state), and
transitions (state → allowed next states). Every transition source and
target must be a declared state.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		var wf types.Workflow
		if err := json.Unmarshal(raw, &wf); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid workflow definition: %v\n", err)
			os.Exit(1)
		}

		if err := eng.RegisterWorkflow(cmd.Context(), &wf); err != nil {
			red := color.New(color.FgRed).SprintFunc()
			fmt.Fprintf(os.Stderr, "%s %v\n", red("✗"), err)
			os.Exit(1)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Workflow registered: %s\n", green("✓"), wf.ID)
	},
}

func init() {
	workflowCmd.AddCommand(workflowListCmd, workflowShowCmd, workflowRegisterCmd)
	rootCmd.AddCommand(workflowCmd)
}
