package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/inkwell-dev/inkwell/internal/client"
)

const dateFormat = "2006-01-02"

// NewDashboardCmd creates the dashboard command
func NewDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash"},
		Short:   "Show your account, your posts and recent posts",
		Args:    cobra.NoArgs,
	}

	return guarded(cmd, "protected", runDashboard)
}

func runDashboard(ctx context.Context, app *App, args []string) error {
	state := app.Session.State()
	if !state.IsAuthenticated {
		return client.ErrNotAuthenticated
	}
	user := state.User

	dash, err := app.API.LoadDashboard(ctx, user.UserID)
	if err != nil {
		return err
	}

	fmt.Fprintln(app.Out, "User Information")
	fmt.Fprintf(app.Out, "  Username: %s\n", user.Username)
	fmt.Fprintf(app.Out, "  User ID:  %s\n\n", user.UserID)

	fmt.Fprintln(app.Out, "Your Posts")
	printPostList(app.Out, dash.UserPosts)

	fmt.Fprintln(app.Out, "\nRecent Posts")
	printPostList(app.Out, dash.RecentPosts)

	fmt.Fprintln(app.Out, "\nCreate a post with: inkwell posts create --title <title>")
	return nil
}

func printPostList(out io.Writer, posts []client.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(out, "  No posts found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tTITLE\tAUTHOR\tPUBLISHED")
	fmt.Fprintln(w, "  ──\t─────\t──────\t─────────")
	for _, post := range posts {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
			post.ID,
			post.Title,
			post.AuthorUsername,
			formatDate(post),
		)
	}
	w.Flush()
}

func formatDate(post client.Post) string {
	if post.PublishedAt.IsZero() {
		return "-"
	}
	return post.PublishedAt.Local().Format(dateFormat)
}
