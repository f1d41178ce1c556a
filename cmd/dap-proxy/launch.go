package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dev-console/dap-proxy/internal/driver"
	"github.com/dev-console/dap-proxy/internal/lifecycle"
)

func newLaunchCmd() *cobra.Command {
	var program, cwd, argsCSV string
	var stopOnEntry bool

	cmd := &cobra.Command{
		Use:   "launch",
		Short: "launch an adapter and print its capabilities, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireConfig(); err != nil {
				return err
			}
			if program == "" {
				return fmt.Errorf("--program is required")
			}

			d, err := buildDriver()
			if err != nil {
				return err
			}

			var progArgs []string
			if argsCSV != "" {
				progArgs = strings.Split(argsCSV, ",")
			}
			fc, err := loadFileConfig(configPath)
			if err != nil {
				return err
			}
			params := lifecycle.LaunchParams{
				Program:     program,
				Cwd:         cwd,
				Args:        progArgs,
				StopOnEntry: stopOnEntry,
				Checks:      fc.dependencyChecks(),
			}
			if err := d.Launch(params); err != nil {
				return fmt.Errorf("launch: %w", err)
			}
			defer d.Deinit()

			caps, err := json.MarshalIndent(d.Capabilities(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Printf("launched, state=%s\n%s\n", d.State(), caps)
			return nil
		},
	}

	cmd.Flags().StringVar(&program, "program", "", "program/script to debug")
	cmd.Flags().StringVar(&cwd, "cwd", "", "working directory for the debuggee")
	cmd.Flags().StringVar(&argsCSV, "args", "", "comma-separated program arguments")
	cmd.Flags().BoolVar(&stopOnEntry, "stop-on-entry", false, "stop at the debuggee's entry point")
	return cmd
}

// buildDriver loads the adapter config named by --config and constructs a
// Driver. No Installer is wired: this CLI only drives already-installed
// adapters (spec.md §6 leaves adapter installation to the caller).
func buildDriver() (*driver.Driver, error) {
	fc, err := loadFileConfig(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := fc.toAdapterConfig()
	if err != nil {
		return nil, err
	}
	return driver.New(cfg, logger, nil), nil
}
