package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkwell-dev/inkwell/internal/cli/commands"
)

var version = "dev" // Will be set during build

// Opener builds the application a guarded command runs against
type Opener func() (*commands.App, error)

// NewRootCmd creates the root command. open is called once, before the first
// command that needs the session; its App is initialized and handed to the command.
func NewRootCmd(open Opener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "inkwell",
		Short: "Inkwell - read and write the blog from your terminal",
		Long: `Inkwell CLI - Log in to the blog API, read and write posts and comments,
and run the web UI locally. All commands share one stored session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !commands.NeedsSession(cmd) {
				return nil
			}

			app, err := open()
			if err != nil {
				return err
			}
			app.Session.Initialize(cmd.Context())

			cmd.SetContext(commands.WithApp(cmd.Context(), app))
			return nil
		},
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "inkwell version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewRegisterCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewDashboardCmd())
	rootCmd.AddCommand(commands.NewPostsCmd())
	rootCmd.AddCommand(commands.NewCommentsCmd())
	rootCmd.AddCommand(commands.NewProfileCmd())
	rootCmd.AddCommand(commands.NewUsersCmd())
	rootCmd.AddCommand(commands.NewServeCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	var app *commands.App
	rootCmd := NewRootCmd(func() (*commands.App, error) {
		var err error
		app, err = commands.Open()
		return app, err
	})

	err := rootCmd.Execute()
	if app != nil {
		if cerr := app.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", cerr)
		}
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
