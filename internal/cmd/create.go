package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wagate/wagate/internal/config"
	"github.com/wagate/wagate/internal/control"
)

var createCmd = &cobra.Command{
	Use:   "create <session-id>",
	Short: "Create a session on a running daemon",
	Long: `Submit a create command to a running daemon through the control
directory. The daemon picks it up, starts the session lifecycle, and emits
a pairing challenge for the new session.`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

var createDescription string

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVarP(&createDescription, "description", "d", "", "Human-readable session label")
}

func runCreate(cmd *cobra.Command, args []string) error {
	dir, err := controlDir()
	if err != nil {
		return err
	}

	if err := control.Submit(dir, control.Command{
		Type:        control.TypeCreateSession,
		SessionID:   args[0],
		Description: createDescription,
	}); err != nil {
		return err
	}

	fmt.Printf("create command submitted for session %s\n", args[0])
	return nil
}

// controlDir resolves the running daemon's control directory from config.
func controlDir() (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return cfg.ControlPath(cwd), nil
}
