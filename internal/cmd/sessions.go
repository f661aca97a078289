package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wagate/wagate/internal/config"
	"github.com/wagate/wagate/internal/registry"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List persisted sessions",
	Long: `List every session in the registry file with its description and
readiness. Readiness reflects the last persisted state; a daemon restart
resets it until each session re-authenticates.`,
	RunE: runSessions,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	reg, err := registry.New(cfg.Gateway.RegistryPath(cwd))
	if err != nil {
		return err
	}
	records, err := reg.Load()
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	fmt.Println(strings.Repeat("─", 70))
	fmt.Println("Wagate Sessions")
	fmt.Println(strings.Repeat("─", 70))

	if len(records) == 0 {
		fmt.Println("\nNo sessions found.")
		fmt.Println("Run 'wagate create <session-id>' against a running daemon to add one.")
		return nil
	}

	fmt.Printf("\nFound %d session(s):\n\n", len(records))
	for _, rec := range records {
		desc := rec.Description
		if desc == "" {
			desc = "(no description)"
		}
		status := "pending"
		if rec.Ready {
			status = "ready"
		}
		fmt.Printf("  Session: %s\n", rec.ID)
		fmt.Printf("    Description: %s\n", desc)
		fmt.Printf("    Status:      %s\n", status)
		fmt.Println()
	}

	fmt.Println(strings.Repeat("─", 70))
	return nil
}
