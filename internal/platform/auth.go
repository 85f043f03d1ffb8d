package platform

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v73/github"
)

// NewInstallationClient authenticates as a GitHub App installation: it mints
// a short-lived installation token via ghinstallation's app transport, then
// wraps a token-scoped *github.Client with the retry-aware Client interface.
func NewInstallationClient(ctx context.Context, appID, installationID int64, privateKeyPath string, logger *slog.Logger) (Client, error) {
	privateKey, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read GitHub App private key from %s: %w", privateKeyPath, err)
	}

	itr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub App installation transport: %w", err)
	}

	gh := github.NewClient(&http.Client{Transport: itr})
	logger.Info("authenticated as GitHub App installation", "app_id", appID, "installation_id", installationID)
	return New(gh, logger), nil
}
