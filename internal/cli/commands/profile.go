package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/inkwell-dev/inkwell/internal/client"
)

// NewProfileCmd creates the profile command
func NewProfileCmd() *cobra.Command {
	var bio, picture string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
		Args:  cobra.NoArgs,
	}

	cmd.Flags().StringVar(&bio, "bio", "", "New bio")
	cmd.Flags().StringVar(&picture, "picture", "", "New profile picture URL")

	return guarded(cmd, "protected", func(ctx context.Context, app *App, args []string) error {
		profile, err := app.API.GetProfile(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch profile: %w", err)
		}

		if cmd.Flags().Changed("bio") || cmd.Flags().Changed("picture") {
			in := *profile
			if cmd.Flags().Changed("bio") {
				in.Bio = bio
			}
			if cmd.Flags().Changed("picture") {
				in.ProfilePicURL = picture
			}
			if err := app.Validator.Struct(in); err != nil {
				return fmt.Errorf("invalid profile: %w", err)
			}

			profile, err = app.API.UpdateProfile(ctx, in)
			if err != nil {
				return fmt.Errorf("failed to update profile: %w", err)
			}
			fmt.Fprintln(app.Out, "✓ Profile updated")
		}

		printProfile(app, profile)
		return nil
	})
}

func printProfile(app *App, profile *client.Profile) {
	fmt.Fprintf(app.Out, "Username: %s\n", currentUsername(app))
	bio := profile.Bio
	if bio == "" {
		bio = "-"
	}
	picture := profile.ProfilePicURL
	if picture == "" {
		picture = "-"
	}
	fmt.Fprintf(app.Out, "Bio:      %s\n", bio)
	fmt.Fprintf(app.Out, "Picture:  %s\n", picture)
}

// NewUsersCmd creates the users command
func NewUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List registered users",
		Args:  cobra.NoArgs,
	}

	return guarded(cmd, "protected", func(ctx context.Context, app *App, args []string) error {
		users, err := app.API.ListUsers(ctx)
		if err != nil {
			return err
		}

		if len(users) == 0 {
			fmt.Fprintln(app.Out, "No users found.")
			return nil
		}

		w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "USERNAME\tEMAIL\tJOINED")
		fmt.Fprintln(w, "────────\t─────\t──────")
		for _, user := range users {
			joined := "-"
			if !user.CreatedAt.IsZero() {
				joined = user.CreatedAt.Local().Format(dateFormat)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", user.Username, user.Email, joined)
		}
		w.Flush()

		return nil
	})
}
