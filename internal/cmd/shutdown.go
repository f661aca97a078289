package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wagate/wagate/internal/control"
)

var shutdownCmd = &cobra.Command{
	Use:   "shutdown <session-id>",
	Short: "Shut down a session on a running daemon",
	Long: `Submit a shutdown command to a running daemon. The daemon destroys the
session's transport and removes its registry record.`,
	Args: cobra.ExactArgs(1),
	RunE: runShutdown,
}

func init() {
	rootCmd.AddCommand(shutdownCmd)
}

func runShutdown(cmd *cobra.Command, args []string) error {
	dir, err := controlDir()
	if err != nil {
		return err
	}

	if err := control.Submit(dir, control.Command{
		Type:      control.TypeShutdownSession,
		SessionID: args[0],
	}); err != nil {
		return err
	}

	fmt.Printf("shutdown command submitted for session %s\n", args[0])
	return nil
}
