package commands

import (
	"fmt"

	"github.com/devkit-go/devkit/internal/cli/prompt"
	"github.com/devkit-go/devkit/internal/cli/session"
	"github.com/devkit-go/devkit/pkg/apiclient"
	"github.com/spf13/cobra"
)

var (
	loginServer   string
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to a devkit daemon",
	Long: `Authenticate against a devkit daemon and store the session locally.

The session (server URL and tokens) is written to
$XDG_CONFIG_HOME/devkit/session.json and used by the status, drivers,
bindings, and handles commands.

Examples:
  # Log in to a local daemon
  devkitd login

  # Log in to a remote daemon
  devkitd login --server http://devkit.example.com:8080 --username admin`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginServer, "server", "http://localhost:8080", "Daemon base URL")
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username (prompted if not given)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted if not given)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	username := loginUsername
	if username == "" {
		var err error
		username, err = prompt.Input("Username", "admin")
		if err != nil {
			return err
		}
	}

	password := loginPassword
	if password == "" {
		var err error
		password, err = prompt.Password("Password")
		if err != nil {
			return err
		}
	}

	client := apiclient.New(loginServer)
	tokens, err := client.Login(username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	store, err := session.NewStore()
	if err != nil {
		return err
	}
	if err := store.Save(&session.Session{
		ServerURL:    loginServer,
		Username:     username,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
	}); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	fmt.Printf("Logged in to %s as %s\n", loginServer, username)
	return nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and discard the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.NewStore()
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	},
}
