package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wagate/wagate/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "wagate",
	Short: "Multi-session messaging gateway daemon",
	Long: `Wagate runs multiple messaging sessions side by side, each with its own
authenticated transport, persists the session catalog across restarts, and
broadcasts lifecycle events to attached observers.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/wagate/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "data directory (default is ./.wagate)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("gateway.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/wagate")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("WAGATE")
	// Replace dots with underscores for nested keys in env vars
	// e.g., WAGATE_SESSION_EVENT_BUFFER_SIZE for session.event_buffer_size
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
