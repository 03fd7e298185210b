package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	appconfig "github.com/wolfman30/voice-intake/internal/config"
	"github.com/wolfman30/voice-intake/pkg/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:           "intake",
		Short:         "Voice appointment intake service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile == "" {
				return nil
			}
			if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before configuration (missing file is ignored)")
	root.PersistentFlags().Bool("json", false, "Output in JSON format")

	root.AddCommand(newServeCmd(), newSlotsCmd(), newResolveDayCmd())
	return root
}

func loadRuntime() (*appconfig.Config, *logging.Logger) {
	cfg := appconfig.Load()
	return cfg, logging.New(cfg.LogLevel)
}
