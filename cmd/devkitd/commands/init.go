package commands

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/devkit-go/devkit/internal/cli/prompt"
	"github.com/devkit-go/devkit/internal/controlplane/api"
	"github.com/devkit-go/devkit/internal/controlplane/api/auth"
	"github.com/devkit-go/devkit/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a configuration file",
	Long: `Initialize a devkit configuration file interactively.

Prompts for the admin credential, API port, and binding store backend,
then writes the configuration file. By default the file is created at
$XDG_CONFIG_HOME/devkit/config.yaml. Use --config to specify a custom path.

Examples:
  # Initialize with default location
  devkitd init

  # Initialize with custom path
  devkitd init --config /etc/devkit/config.yaml

  # Force overwrite existing config
  devkitd init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	if !initForce && config.DefaultConfigExists() && GetConfigFile() == "" {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}

	cfg := config.GetDefaultConfig()

	username, err := prompt.Input("Admin username", "admin")
	if err != nil {
		return err
	}
	cfg.Admin.Username = username

	password, err := prompt.NewPassword()
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	cfg.Admin.PasswordHash = hash

	port, err := prompt.InputPort("API port", cfg.ControlPlane.Port)
	if err != nil {
		return err
	}
	cfg.ControlPlane.Port = port

	backend, err := prompt.Select("Binding store backend", []prompt.SelectOption{
		{Label: "memory (bindings reset on restart)", Value: "memory"},
		{Label: "badger (bindings survive restarts)", Value: "badger"},
	})
	if err != nil {
		return err
	}
	cfg.Store.Backend = backend

	if backend == "badger" {
		path, err := prompt.Input("Badger database directory", config.GetConfigDir()+"/bindings")
		if err != nil {
			return err
		}
		cfg.Store.Path = path
	}

	// Random development secret so the daemon starts out of the box
	secret, err := generateSecret()
	if err != nil {
		return fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	cfg.ControlPlane.JWT.Secret = secret

	if err := config.SaveConfig(cfg, configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to declare your drivers and nodes")
	fmt.Println("  2. Start the daemon with: devkitd start")
	fmt.Printf("  3. Or specify custom config: devkitd start --config %s\n", configPath)
	fmt.Println("\nSecurity note:")
	fmt.Println("  A random JWT secret has been generated for development use.")
	fmt.Println("  For production, generate a secure secret and use an environment variable:")
	fmt.Println("    # Generates a 64-character hex string (32 bytes of entropy)")
	fmt.Printf("    export %s=$(openssl rand -hex 32)\n", api.EnvControlPlaneSecret)

	return nil
}

// generateSecret returns a 64-character hex string (32 bytes of entropy).
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
