// Command helix generates multi-framework application projects by
// composing DNA modules.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/syssam/helix/internal/logger"
)

var (
	flagLogLevel  string
	flagLogFormat string
)

func main() {
	root := &cobra.Command{
		Use:           "helix",
		Short:         "Compose DNA modules into generated application projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			level, err := logger.ParseLevel(flagLogLevel)
			if err != nil {
				return err
			}
			cfg := logger.DefaultConfig()
			cfg.Level = level
			cfg.Format = flagLogFormat
			logger.Init(cfg)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(
		newGenerateCmd(),
		newModulesCmd(),
		newValidateCmd(),
		newWatchCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "helix:", err)
		os.Exit(1)
	}
}
