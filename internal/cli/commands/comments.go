package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkwell-dev/inkwell/internal/client"
)

// NewCommentsCmd creates the comments command group
func NewCommentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comments",
		Aliases: []string{"comment"},
		Short:   "Read and write comments on posts",
	}

	cmd.AddCommand(newCommentsListCmd())
	cmd.AddCommand(newCommentsAddCmd())
	cmd.AddCommand(newCommentsDeleteCmd())

	return cmd
}

func newCommentsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls <post-id>",
		Aliases: []string{"list"},
		Short:   "List the comments of a post",
		Args:    cobra.ExactArgs(1),
	}

	return guarded(cmd, "protected", func(ctx context.Context, app *App, args []string) error {
		comments, err := app.API.ListComments(ctx, args[0])
		if err != nil {
			return err
		}
		printComments(app.Out, comments)
		return nil
	})
}

func newCommentsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <post-id> <text>...",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(2),
	}

	return guarded(cmd, "protected", func(ctx context.Context, app *App, args []string) error {
		in := client.CommentInput{
			PostID:  args[0],
			Content: strings.Join(args[1:], " "),
		}
		if err := app.Validator.Struct(in); err != nil {
			return fmt.Errorf("invalid comment: %w", err)
		}

		comment, err := app.API.CreateComment(ctx, in)
		if err != nil {
			return fmt.Errorf("failed to add comment: %w", err)
		}

		fmt.Fprintf(app.Out, "✓ Comment added: %s\n", comment.ID)
		return nil
	})
}

func newCommentsDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <comment-id>",
		Aliases: []string{"delete"},
		Short:   "Delete one of your comments",
		Args:    cobra.ExactArgs(1),
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	return guarded(cmd, "protected", func(ctx context.Context, app *App, args []string) error {
		if !yes {
			if err := confirm(app, fmt.Sprintf("Delete comment %s", args[0])); err != nil {
				return err
			}
		}

		if err := app.API.DeleteComment(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to delete comment: %w", err)
		}

		fmt.Fprintf(app.Out, "✓ Comment %s deleted\n", args[0])
		return nil
	})
}

func printComments(out io.Writer, comments []client.Comment) {
	fmt.Fprintf(out, "Comments (%d)\n", len(comments))
	if len(comments) == 0 {
		fmt.Fprintln(out, "  No comments yet.")
		return
	}
	for _, comment := range comments {
		when := "-"
		if !comment.CreatedAt.IsZero() {
			when = comment.CreatedAt.Local().Format(dateFormat)
		}
		fmt.Fprintf(out, "  [%s] %s on %s\n", comment.ID, comment.Author, when)
		fmt.Fprintf(out, "    %s\n", comment.Content)
	}
}
