package commands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inkwell-dev/inkwell/internal/web"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	var addr string
	var open bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI on a local address",
		Args:  cobra.NoArgs,
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from INKWELL_WEB_ADDR)")
	cmd.Flags().BoolVar(&open, "open", false, "Open the web UI in the default browser")

	return guarded(cmd, "open", func(ctx context.Context, app *App, args []string) error {
		if addr != "" {
			app.Config.Web.Addr = addr
		}

		ui, err := web.New(app.Config, app.Session, app.API, app.Logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(app.Out, "Serving web UI at %s (Ctrl+C to stop)\n", ui.URL())
		if open {
			if err := openBrowser(ui.URL()); err != nil {
				fmt.Fprintf(app.Err, "failed to open browser: %v\nPlease visit: %s\n", err, ui.URL())
			}
		}

		return ui.Start(ctx)
	})
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
