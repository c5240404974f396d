package config

import (
	"fmt"

	"github.com/devkit-go/devkit/pkg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the devkit configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  devkitd config validate

  # Validate specific config file
  devkitd config validate --config /etc/devkit/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Get config path from parent's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string

	if !cfg.ControlPlane.HasJWTSecret() {
		warnings = append(warnings, "JWT secret not configured - API authentication will fail")
	}
	if cfg.Admin.PasswordHash == "" {
		warnings = append(warnings, "Admin password hash not set - run 'devkitd init' to configure")
	}
	if len(cfg.Drivers) == 0 {
		warnings = append(warnings, "No drivers declared - the dispatcher will reject all opens")
	}

	fmt.Printf("Configuration file: %s\n", displayPath)
	fmt.Println("Validation: OK")

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nConfiguration summary:\n")
	fmt.Printf("  Store backend:   %s\n", cfg.Store.Backend)
	fmt.Printf("  API port:        %d\n", cfg.ControlPlane.Port)
	fmt.Printf("  Log level:       %s\n", cfg.Logging.Level)
	fmt.Printf("  Drivers:         %d\n", len(cfg.Drivers))

	return nil
}
