package commands

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"

	"github.com/inkwell-dev/inkwell/internal/client"
)

var errAborted = errors.New("aborted")

type postOption struct {
	Label string
	Post  client.Post
}

func postOptions(posts []client.Post) []postOption {
	options := make([]postOption, len(posts))
	for i, post := range posts {
		options[i] = postOption{
			Label: fmt.Sprintf("%s (by %s, %s)", post.Title, post.AuthorUsername, formatDate(post)),
			Post:  post,
		}
	}
	return options
}

// promptPostSelection shows an interactive prompt for the user to select a post
func promptPostSelection(posts []client.Post) (*client.Post, error) {
	if len(posts) == 0 {
		return nil, fmt.Errorf("no posts found")
	}

	options := postOptions(posts)

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a post",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("post selection cancelled: %w", err)
	}

	return &options[index].Post, nil
}

// confirm asks a yes/no question. Non-interactive runs must pass --yes instead.
func confirm(app *App, label string) error {
	if !app.Interactive {
		return fmt.Errorf("confirmation required in non-interactive mode (use --yes)")
	}

	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		return errAborted
	}
	return nil
}
