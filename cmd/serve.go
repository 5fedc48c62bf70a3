package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/ghostedit/internal/config"
	"github.com/fakeyudi/ghostedit/internal/logging"
	"github.com/fakeyudi/ghostedit/internal/server"
	"github.com/fakeyudi/ghostedit/internal/session"
	"github.com/fakeyudi/ghostedit/internal/tui"
)

var (
	serveHost            string
	servePort            uint16
	serveEditor          string
	serveMulti           bool
	serveInboundDebounce time.Duration
	serveIdleTimeout     time.Duration
	serveFromSystemd     bool
	serveTUI             bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the GhostText server",
	Long: `Run the GhostText server.

The browser extension connects on the configured port. Each edited text
field becomes a file in a temporary directory, your editor is launched
on it, and every save is pushed back to the browser. Closing the editor
ends the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides := &config.Config{}
		if cmd.Flags().Changed("host") {
			overrides.Host = serveHost
		}
		if cmd.Flags().Changed("port") {
			overrides.Port = servePort
		}
		if cmd.Flags().Changed("editor") {
			overrides.Editor = serveEditor
		}
		if cmd.Flags().Changed("multi") {
			overrides.Multi = serveMulti
		}
		if cmd.Flags().Changed("inbound-debounce") {
			overrides.InboundDebounce = serveInboundDebounce.String()
		}
		if cmd.Flags().Changed("idle-timeout") {
			overrides.IdleTimeout = serveIdleTimeout.String()
		}
		effective := config.Merge(&cfg, overrides)

		template, err := config.ResolveEditor(effective.Editor)
		if err != nil {
			return err
		}
		inbound, err := effective.InboundDebounceInterval()
		if err != nil {
			return fmt.Errorf("inbound-debounce: %w", err)
		}
		idleTimeout, err := effective.IdleTimeoutInterval()
		if err != nil {
			return fmt.Errorf("idle-timeout: %w", err)
		}

		var monitor *tui.Monitor
		var obs session.Observer
		if serveTUI {
			if !term.IsTerminal(os.Stdout.Fd()) {
				return fmt.Errorf("--tui requires an interactive terminal")
			}
			monitor = tui.NewMonitor()
			obs = monitor
		}

		logger := logging.WithComponent("server")
		srv := server.New(server.Config{
			Host:           effective.Host,
			Port:           effective.Port,
			FromSystemd:    serveFromSystemd,
			IdleTimeout:    idleTimeout,
			SingleInstance: !effective.Multi,
			Session: session.Config{
				EditorTemplate:  template,
				InboundDebounce: inbound,
			},
		}, obs, clockwork.NewRealClock(), logger)

		// Bind before anything else so a taken port fails fast, and so
		// port 0 resolves before the extension needs the redirect doc.
		if err := srv.Listen(); err != nil {
			return err
		}
		logger.Info("listening", "port", srv.Port())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if monitor == nil {
			return srv.Run(ctx)
		}

		serverErr := make(chan error, 1)
		go func() {
			serverErr <- srv.Run(ctx)
			monitor.Stop()
		}()
		if err := monitor.Run(); err != nil {
			return err
		}
		// The user quit the monitor; take the server down with it.
		stop()
		return <-serverErr
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "interface to bind")
	serveCmd.Flags().Uint16Var(&servePort, "port", 4001, "port to listen on (0 picks a free port)")
	serveCmd.Flags().StringVar(&serveEditor, "editor", "", "editor command template (%f file, %l line, %c column)")
	serveCmd.Flags().BoolVar(&serveMulti, "multi", false, "allow several editors at once")
	serveCmd.Flags().DurationVar(&serveInboundDebounce, "inbound-debounce", 0, "coalesce browser updates arriving within this window")
	serveCmd.Flags().DurationVar(&serveIdleTimeout, "idle-timeout", 0, "exit after this long with no sessions (0 disables)")
	serveCmd.Flags().BoolVar(&serveFromSystemd, "from-systemd", false, "use the listening socket passed by systemd")
	serveCmd.Flags().BoolVar(&serveTUI, "tui", false, "show a live session monitor; pair with a GUI editor")
	rootCmd.AddCommand(serveCmd)
}
