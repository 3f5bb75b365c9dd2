package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/inkwell-dev/inkwell/internal/client"
	"github.com/inkwell-dev/inkwell/internal/config"
	"github.com/inkwell-dev/inkwell/internal/guard"
	"github.com/inkwell-dev/inkwell/internal/logger"
	"github.com/inkwell-dev/inkwell/internal/session"
)

// policyAnnotation marks commands that run behind the session guard
const policyAnnotation = "inkwell.policy"

var policyNames = map[string]guard.Policy{
	"protected":   guard.Protected,
	"public-only": guard.PublicOnly,
	"open":        guard.Open,
}

// App holds everything a command needs. One App is shared by all commands of a process.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Session   *session.Store
	Guard     *guard.Guard
	API       *client.Client
	Validator *validator.Validate
	Out       io.Writer
	Err       io.Writer
	// Interactive enables terminal prompts for missing input
	Interactive bool

	closers []io.Closer
}

// NewApp wires a session store, guard and API client around a token store
func NewApp(cfg *config.Config, tokens session.TokenStore, log zerolog.Logger) *App {
	store := session.New(tokens, session.WithLogger(log))
	app := &App{
		Config:    cfg,
		Logger:    log,
		Session:   store,
		Guard:     guard.New(store),
		API:       client.New(cfg.API.URL, store, cfg.API.Timeout),
		Validator: validator.New(),
		Out:       os.Stdout,
		Err:       os.Stderr,
	}
	if c, ok := tokens.(io.Closer); ok {
		app.closers = append(app.closers, c)
	}
	return app
}

// Open loads configuration from the environment and builds the production App
func Open() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	tokens, err := session.OpenTokenStore(cfg.Token)
	if err != nil {
		return nil, err
	}

	app := NewApp(cfg, tokens, log)
	app.Interactive = isTerminal(os.Stdin)
	return app, nil
}

// Close releases the token store
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

type appKey struct{}

// WithApp stores the App in a command context
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey{}, app)
}

// FromContext returns the App stored by WithApp
func FromContext(ctx context.Context) (*App, error) {
	app, ok := ctx.Value(appKey{}).(*App)
	if !ok || app == nil {
		return nil, errors.New("command was started without an application context")
	}
	return app, nil
}

// NeedsSession reports whether cmd runs behind the session guard
func NeedsSession(cmd *cobra.Command) bool {
	_, ok := cmd.Annotations[policyAnnotation]
	return ok
}

type runFunc func(ctx context.Context, app *App, args []string) error

// guarded attaches a policy to cmd and wraps run with the guard decision.
// Policy names: "protected", "public-only", "open".
func guarded(cmd *cobra.Command, policy string, run runFunc) *cobra.Command {
	p, ok := policyNames[policy]
	if !ok {
		panic(fmt.Sprintf("unknown policy %q", policy))
	}
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[policyAnnotation] = policy

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := FromContext(ctx)
		if err != nil {
			return err
		}

		d := app.Guard.Wait(ctx, p)
		switch d.Outcome {
		case guard.Defer:
			return fmt.Errorf("session is still loading: %w", context.Cause(ctx))
		case guard.Redirect:
			app.Logger.Debug().Str("command", cmd.Name()).Str("location", d.Location).Msg("Guard redirect")
			if d.Location == app.Session.Routes().Home {
				fmt.Fprintf(app.Out, "Already logged in as %s.\n\n", currentUsername(app))
				return runDashboard(ctx, app, nil)
			}
			return client.ErrNotAuthenticated
		}

		err = run(ctx, app, args)
		if !p.Public && errors.Is(err, client.ErrUnauthorized) {
			// The API no longer accepts our token
			app.Session.Logout()
			return fmt.Errorf("session rejected by the API: %w", client.ErrNotAuthenticated)
		}
		return err
	}
	return cmd
}

// navigate follows a session transition the way the web UI would
func navigate(ctx context.Context, app *App, nav session.Navigation) error {
	switch string(nav) {
	case app.Session.Routes().Home:
		fmt.Fprintln(app.Out)
		return runDashboard(ctx, app, nil)
	case app.Session.Routes().Entry:
		fmt.Fprintln(app.Out, "Run 'inkwell login' to sign in again.")
	}
	return nil
}

func currentUsername(app *App) string {
	if user := app.Session.State().User; user != nil {
		return user.Username
	}
	return ""
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
