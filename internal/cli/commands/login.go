package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type credentials struct {
	Username string `validate:"required,max=50"`
	Password string `validate:"required"`
	Email    string `validate:"omitempty,email"`
}

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var creds credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the blog API",
		Args:  cobra.NoArgs,
	}

	cmd.Flags().StringVar(&creds.Username, "username", "", "Username (or set INKWELL_USERNAME)")
	cmd.Flags().StringVar(&creds.Password, "password", "", "Password (or set INKWELL_PASSWORD, will prompt if not provided)")

	return guarded(cmd, "public-only", func(ctx context.Context, app *App, args []string) error {
		return runLogin(ctx, app, creds)
	})
}

func runLogin(ctx context.Context, app *App, creds credentials) error {
	if err := resolveCredentials(app, &creds, false); err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "Logging in to %s...\n", app.API.BaseURL())

	token, err := app.API.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	nav, err := app.Session.Login(token)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintln(app.Out, "✓ Login successful!")
	fmt.Fprintf(app.Out, "  User: %s\n", currentUsername(app))

	return navigate(ctx, app, nav)
}

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var creds credentials

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
	}

	cmd.Flags().StringVar(&creds.Username, "username", "", "Username (or set INKWELL_USERNAME)")
	cmd.Flags().StringVar(&creds.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&creds.Password, "password", "", "Password (or set INKWELL_PASSWORD, will prompt if not provided)")

	return guarded(cmd, "public-only", func(ctx context.Context, app *App, args []string) error {
		return runRegister(ctx, app, creds)
	})
}

func runRegister(ctx context.Context, app *App, creds credentials) error {
	if err := resolveCredentials(app, &creds, true); err != nil {
		return err
	}

	token, err := app.API.Register(ctx, creds.Username, creds.Password, creds.Email)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	nav, err := app.Session.Login(token)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Fprintf(app.Out, "✓ Account %s created\n", creds.Username)

	return navigate(ctx, app, nav)
}

// resolveCredentials fills missing values from the environment (useful for CI/CD),
// then from prompts when running in a terminal
func resolveCredentials(app *App, creds *credentials, withEmail bool) error {
	if creds.Username == "" {
		creds.Username = os.Getenv("INKWELL_USERNAME")
	}
	if creds.Password == "" {
		creds.Password = os.Getenv("INKWELL_PASSWORD")
	}

	if creds.Username == "" && app.Interactive {
		prompt := promptui.Prompt{Label: "Username"}
		username, err := prompt.Run()
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		creds.Username = username
	}
	if creds.Username == "" {
		return fmt.Errorf("username is required (use --username flag or INKWELL_USERNAME env var)")
	}

	if withEmail && creds.Email == "" && app.Interactive {
		prompt := promptui.Prompt{Label: "Email"}
		email, err := prompt.Run()
		if err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
		creds.Email = email
	}

	if creds.Password == "" {
		if !app.Interactive {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or INKWELL_PASSWORD env var)")
		}
		fmt.Fprint(app.Out, "Password: ")
		bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(app.Out)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		creds.Password = string(bytePassword)
	}

	if err := app.Validator.Struct(creds); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
	}

	return guarded(cmd, "open", func(ctx context.Context, app *App, args []string) error {
		nav := app.Session.Logout()
		fmt.Fprintln(app.Out, "✓ Logged out")
		return navigate(ctx, app, nav)
	})
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the session state as JSON")

	return guarded(cmd, "open", func(ctx context.Context, app *App, args []string) error {
		state := app.Session.State()

		if asJSON {
			enc := json.NewEncoder(app.Out)
			enc.SetIndent("", "  ")
			return enc.Encode(state)
		}

		if !state.IsAuthenticated {
			fmt.Fprintln(app.Out, "Not logged in.")
			return nil
		}

		fmt.Fprintf(app.Out, "Logged in as %s (id %s)\n", state.User.Username, state.User.UserID)
		if exp := state.User.ExpiresAtTime(); !exp.IsZero() {
			fmt.Fprintf(app.Out, "Session expires %s\n", exp.Local().Format("2006-01-02 15:04:05"))
		}
		return nil
	})
}
