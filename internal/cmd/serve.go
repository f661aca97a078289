package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wagate/wagate/internal/config"
	"github.com/wagate/wagate/internal/control"
	"github.com/wagate/wagate/internal/driver"
	"github.com/wagate/wagate/internal/event"
	"github.com/wagate/wagate/internal/gateway"
	"github.com/wagate/wagate/internal/logging"
	"github.com/wagate/wagate/internal/registry"
	"github.com/wagate/wagate/internal/tui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway daemon",
	Long: `Start the gateway daemon: restore persisted sessions, watch the control
directory for commands, and (unless disabled) render the live dashboard.

Sessions run on the built-in transport simulator. Pairing challenges are
approved automatically after the --auto-pair delay; set it to 0 to leave
sessions waiting for an explicit scan.`,
	RunE: runServe,
}

var (
	noDashboard bool
	autoPair    time.Duration
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&noDashboard, "no-dashboard", false, "Run headless without the terminal dashboard")
	serveCmd.Flags().DurationVar(&autoPair, "auto-pair", 3*time.Second, "Delay before pairing challenges self-approve (0 disables)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	dataDir := cfg.Gateway.ResolveDataDir(cwd)

	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		logger, err = logging.NewLogger(dataDir, cfg.Logging.Level)
		if err != nil {
			return err
		}
	}
	defer logger.Close()

	reg, err := registry.New(cfg.Gateway.RegistryPath(cwd))
	if err != nil {
		return err
	}

	var mgr *gateway.Manager
	bc := event.NewBroadcaster(func() []event.SessionSummary {
		if mgr == nil {
			return nil
		}
		return mgr.Snapshot()
	})

	var simOpts []driver.SimulatorOption
	if autoPair > 0 {
		simOpts = append(simOpts, driver.WithAutoComplete(autoPair))
	}
	factory := driver.NewFactory(simOpts...)

	mgr = gateway.NewManager(cfg.Session, reg, bc, factory.Factory(), logger)
	defer mgr.Stop(context.Background())

	if err := mgr.Bootstrap(cmd.Context()); err != nil {
		return err
	}

	if cfg.Control.Enabled {
		watcher, err := control.NewWatcher(cfg.ControlPath(cwd), commandHandler(mgr, logger), logger)
		if err != nil {
			return err
		}
		defer watcher.Close()
		logger.Info("control channel ready", "dir", watcher.Dir())
	}

	if cfg.Dashboard.Enabled && !noDashboard {
		return tui.Run(bc, cfg.Dashboard.MaxEventLines)
	}

	fmt.Printf("wagate daemon running, data dir %s (ctrl-c to stop)\n", dataDir)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	return nil
}

// commandHandler dispatches control channel commands to the manager.
func commandHandler(mgr *gateway.Manager, logger *logging.Logger) control.Handler {
	log := logger.WithComponent("control")
	return func(cmd control.Command) {
		ctx := context.Background()

		var err error
		switch cmd.Type {
		case control.TypeCreateSession:
			err = mgr.CreateSession(ctx, cmd.SessionID, cmd.Description)
		case control.TypeShutdownSession:
			err = mgr.Shutdown(ctx, cmd.SessionID)
		case control.TypeSendMessage:
			_, err = mgr.SendMessage(ctx, cmd.SessionID, cmd.Number, cmd.Message)
		}

		if err != nil {
			log.Error("command failed",
				"command_id", cmd.ID, "type", cmd.Type, "session_id", cmd.SessionID, "error", err)
		}
	}
}
