package commands

import (
	"fmt"

	"github.com/devkit-go/devkit/internal/cli/output"
	"github.com/devkit-go/devkit/internal/cli/session"
	"github.com/devkit-go/devkit/internal/logger"
	"github.com/devkit-go/devkit/pkg/apiclient"
	"github.com/devkit-go/devkit/pkg/config"
)

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// getOutputFormat parses the global --output flag.
func getOutputFormat() (output.Format, error) {
	return output.ParseFormat(outputFormat)
}

// apiClientFromSession builds an authenticated API client from the stored
// login session, refreshing the access token if it has expired.
func apiClientFromSession() (*apiclient.Client, *session.Store, error) {
	store, err := session.NewStore()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session store: %w", err)
	}

	sess, err := store.Load()
	if err != nil {
		return nil, nil, err
	}

	client := apiclient.New(sess.ServerURL)

	if sess.IsExpired() && sess.HasRefreshToken() {
		tokens, err := client.Refresh(sess.RefreshToken)
		if err != nil {
			return nil, nil, fmt.Errorf("session expired and refresh failed: %w (run 'devkitd login')", err)
		}
		if err := store.UpdateTokens(tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresAt); err != nil {
			return nil, nil, err
		}
		sess.AccessToken = tokens.AccessToken
	}

	client.SetToken(sess.AccessToken)
	return client, store, nil
}
