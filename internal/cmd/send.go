package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wagate/wagate/internal/control"
)

var sendCmd = &cobra.Command{
	Use:   "send <session-id> <number> <message...>",
	Short: "Send a text message through a running daemon",
	Long: `Submit a send command to a running daemon. The daemon normalizes the
number, verifies the recipient is registered, and delivers the message
through the named session. Delivery failures are reported in the daemon log.`,
	Args: cobra.MinimumNArgs(3),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	dir, err := controlDir()
	if err != nil {
		return err
	}

	if err := control.Submit(dir, control.Command{
		Type:      control.TypeSendMessage,
		SessionID: args[0],
		Number:    args[1],
		Message:   strings.Join(args[2:], " "),
	}); err != nil {
		return err
	}

	fmt.Printf("send command submitted for session %s\n", args[0])
	return nil
}
