package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dev-console/dap-proxy/internal/adapter"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "run an adapter config's dependency checks without launching it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireConfig(); err != nil {
				return err
			}
			fc, err := loadFileConfig(configPath)
			if err != nil {
				return err
			}
			checks := fc.dependencyChecks()
			if len(checks) == 0 {
				fmt.Println("no dependency checks configured")
				return nil
			}
			if err := adapter.RunDependencyChecks(checks); err != nil {
				return fmt.Errorf("dependency check failed: %w", err)
			}
			fmt.Printf("all %d dependency checks passed\n", len(checks))
			return nil
		},
	}
}
