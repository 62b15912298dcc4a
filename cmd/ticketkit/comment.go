package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Manage ticket comments",
}

var commentAddCmd = &cobra.Command{
	Use:   "add <ticket-id> <content>",
	Short: "Add a comment to a ticket",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		comment, err := eng.AddComment(cmd.Context(), args[0], actor, args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Comment added: %s\n", green("✓"), comment.ID)
	},
}

var commentReplyCmd = &cobra.Command{
	Use:   "reply <ticket-id> <parent-comment-id> <content>",
	Short: "Reply to a comment",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		comment, err := eng.ReplyToComment(cmd.Context(), args[0], args[1], actor, args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Reply added: %s\n", green("✓"), comment.ID)
	},
}

var commentListCmd = &cobra.Command{
	Use:   "list <ticket-id>",
	Short: "List a ticket's comments, oldest first",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		comments, err := eng.ListComments(cmd.Context(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(comments) == 0 {
			fmt.Println("No comments.")
			return
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		for _, comment := range comments {
			indent := ""
			if comment.ParentID != "" {
				indent = "  ↳ "
			}
			fmt.Printf("%s%s %s (%s)\n", indent, cyan(comment.Author),
				comment.Content, comment.CreatedAt.Format("2006-01-02 15:04"))
		}
	},
}

var commentDeleteCmd = &cobra.Command{
	Use:   "delete <comment-id>",
	Short: "Delete a comment",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := eng.DeleteComment(cmd.Context(), args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Comment deleted: %s\n", green("✓"), args[0])
	},
}

func init() {
	commentCmd.AddCommand(commentAddCmd, commentReplyCmd, commentListCmd, commentDeleteCmd)
	rootCmd.AddCommand(commentCmd)
}
