// Command dap-proxy is a small demonstration/integration CLI around the
// internal/driver package: load an adapter configuration, launch a session,
// and drive it from newline-delimited JSON commands on stdin.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	logger     = logrus.New()
)

func main() {
	root := &cobra.Command{
		Use:           "dap-proxy",
		Short:         "drive a DAP adapter from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
			}
			logger.SetLevel(level)
			logger.SetOutput(os.Stderr)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to an adapter config JSON file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	root.AddCommand(newLaunchCmd())
	root.AddCommand(newDriveCmd())
	root.AddCommand(newDoctorCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dap-proxy:", err)
		os.Exit(1)
	}
}

func requireConfig() error {
	if configPath == "" {
		return fmt.Errorf("--config is required")
	}
	return nil
}
