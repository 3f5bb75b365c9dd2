package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkwell-dev/inkwell/internal/client"
)

const excerptLength = 200

// NewPostsCmd creates the posts command group
func NewPostsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "posts",
		Aliases: []string{"post"},
		Short:   "Read and manage blog posts",
	}

	cmd.AddCommand(newPostsListCmd())
	cmd.AddCommand(newPostsShowCmd())
	cmd.AddCommand(newPostsBrowseCmd())
	cmd.AddCommand(newPostsCreateCmd())
	cmd.AddCommand(newPostsEditCmd())
	cmd.AddCommand(newPostsDeleteCmd())

	return cmd
}

func newPostsListCmd() *cobra.Command {
	var page client.Page

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List recent posts",
		Args:    cobra.NoArgs,
	}

	cmd.Flags().IntVar(&page.Limit, "limit", 0, "Maximum number of posts (API default if 0)")
	cmd.Flags().IntVar(&page.Skip, "skip", 0, "Number of posts to skip")

	return guarded(cmd, "protected", func(ctx context.Context, app *App, args []string) error {
		return runPostsList(ctx, app, page)
	})
}

func runPostsList(ctx context.Context, app *App, page client.Page) error {
	posts, err := app.API.ListPosts(ctx, page)
	if err != nil {
		return err
	}

	if len(posts) == 0 {
		fmt.Fprintln(app.Out, "No posts found.")
		fmt.Fprintln(app.Out, "\nCreate a post with: inkwell posts create --title <title>")
		return nil
	}

	for i, post := range posts {
		if i > 0 {
			fmt.Fprintln(app.Out)
		}
		fmt.Fprintf(app.Out, "%s  %s\n", post.ID, post.Title)
		fmt.Fprintf(app.Out, "  by %s on %s\n", post.AuthorUsername, formatDate(post))
		fmt.Fprintf(app.Out, "  %s\n", post.Excerpt(excerptLength))
	}
	return nil
}

func newPostsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <post-id>",
		Short: "Show a post and its comments",
		Args:  cobra.ExactArgs(1),
	}

	return guarded(cmd, "protected", func(ctx context.Context, app *App, args []string) error {
		return runPostsShow(ctx, app, args[0])
	})
}

func runPostsShow(ctx context.Context, app *App, id string) error {
	post, err := app.API.GetPost(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch post: %w", err)
	}

	comments, err := app.API.ListComments(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch comments: %w", err)
	}

	fmt.Fprintln(app.Out, post.Title)
	fmt.Fprintln(app.Out, strings.Repeat("─", len([]rune(post.Title))))
	fmt.Fprintf(app.Out, "by %s on %s\n\n", post.AuthorUsername, formatDate(*post))
	fmt.Fprintln(app.Out, post.Content)
	fmt.Fprintln(app.Out)

	printComments(app.Out, comments)
	return nil
}

func newPostsBrowseCmd() *cobra.Command {
	var page client.Page

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Pick a post interactively and read it",
		Args:  cobra.NoArgs,
	}

	cmd.Flags().IntVar(&page.Limit, "limit", 0, "Maximum number of posts (API default if 0)")

	return guarded(cmd, "protected", func(ctx context.Context, app *App, args []string) error {
		if !app.Interactive {
			return fmt.Errorf("browse needs an interactive terminal; use 'inkwell posts ls' instead")
		}

		posts, err := app.API.ListPosts(ctx, page)
		if err != nil {
			return err
		}

		post, err := promptPostSelection(posts)
		if err != nil {
			return err
		}
		return runPostsShow(ctx, app, post.ID)
	})
}

type postFlags struct {
	title   string
	content string
	file    string
}

func (f *postFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Post title")
	cmd.Flags().StringVar(&f.content, "content", "", "Post content")
	cmd.Flags().StringVar(&f.file, "file", "", "Read post content from a file ('-' for stdin)")
}

// apply overlays the flags that were set onto in
func (f *postFlags) apply(cmd *cobra.Command, in *client.PostInput) error {
	if cmd.Flags().Changed("title") {
		in.Title = f.title
	}
	if cmd.Flags().Changed("content") {
		in.Content = f.content
	}
	if f.file != "" {
		content, err := readContent(cmd.InOrStdin(), f.file)
		if err != nil {
			return err
		}
		in.Content = content
	}
	return nil
}

func readContent(stdin io.Reader, path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func newPostsCreateCmd() *cobra.Command {
	var flags postFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new post",
		Args:  cobra.NoArgs,
	}

	flags.register(cmd)

	return guarded(cmd, "protected", func(ctx context.Context, app *App, args []string) error {
		var in client.PostInput
		if err := flags.apply(cmd, &in); err != nil {
			return err
		}
		if err := app.Validator.Struct(in); err != nil {
			return fmt.Errorf("invalid post: %w", err)
		}

		post, err := app.API.CreatePost(ctx, in)
		if err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}

		fmt.Fprintf(app.Out, "✓ Post created: %s\n", post.ID)
		return runPostsList(ctx, app, client.Page{})
	})
}

func newPostsEditCmd() *cobra.Command {
	var flags postFlags

	cmd := &cobra.Command{
		Use:   "edit <post-id>",
		Short: "Change the title or content of a post",
		Args:  cobra.ExactArgs(1),
	}

	flags.register(cmd)

	return guarded(cmd, "protected", func(ctx context.Context, app *App, args []string) error {
		id := args[0]

		current, err := app.API.GetPost(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to fetch post: %w", err)
		}

		in := client.PostInput{Title: current.Title, Content: current.Content}
		if err := flags.apply(cmd, &in); err != nil {
			return err
		}
		if err := app.Validator.Struct(in); err != nil {
			return fmt.Errorf("invalid post: %w", err)
		}

		if _, err := app.API.UpdatePost(ctx, id, in); err != nil {
			return fmt.Errorf("failed to update post: %w", err)
		}

		fmt.Fprintln(app.Out, "✓ Post updated")
		fmt.Fprintln(app.Out)
		return runPostsShow(ctx, app, id)
	})
}

func newPostsDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <post-id>",
		Aliases: []string{"delete"},
		Short:   "Delete one of your posts",
		Args:    cobra.ExactArgs(1),
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	return guarded(cmd, "protected", func(ctx context.Context, app *App, args []string) error {
		id := args[0]

		if !yes {
			if err := confirm(app, fmt.Sprintf("Delete post %s", id)); err != nil {
				return err
			}
		}

		if err := app.API.DeletePost(ctx, id); err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}

		fmt.Fprintf(app.Out, "✓ Post %s deleted\n", id)
		return nil
	})
}
