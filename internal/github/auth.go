package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"
)

// ClientCreator mints GitHub clients scoped to a specific App installation.
// The dispatcher and the poller both authenticate per job, because every
// job may originate from a different installation.
type ClientCreator interface {
	NewInstallationClient(ctx context.Context, installationID int64) (Client, error)
}

type appClientCreator struct {
	appID      int64
	privateKey []byte
	logger     *slog.Logger
}

// NewClientCreator loads the App's private key and returns a creator for
// installation-scoped clients. The key is read once at startup so a broken
// path fails fast rather than on the first webhook.
func NewClientCreator(appID int64, privateKeyPath string, logger *slog.Logger) (ClientCreator, error) {
	privateKey, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key from %s: %w", privateKeyPath, err)
	}
	return &appClientCreator{
		appID:      appID,
		privateKey: privateKey,
		logger:     logger,
	}, nil
}

// NewStaticClientCreator returns a creator that hands out the same client
// for every installation. Used with personal-access-token auth in local
// development, where there is no App installation to scope to.
func NewStaticClientCreator(client Client) ClientCreator {
	return staticClientCreator{client: client}
}

type staticClientCreator struct {
	client Client
}

func (c staticClientCreator) NewInstallationClient(context.Context, int64) (Client, error) {
	return c.client, nil
}

// NewInstallationClient authenticates as the App, exchanges the App JWT for
// an installation token and returns a client acting on behalf of that
// installation.
func (c *appClientCreator) NewInstallationClient(ctx context.Context, installationID int64) (Client, error) {
	appTransport, err := ghinstallation.NewAppsTransport(http.DefaultTransport, c.appID, c.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub App transport: %w", err)
	}
	appClient := github.NewClient(&http.Client{Transport: appTransport})

	token, _, err := appClient.Apps.CreateInstallationToken(ctx, installationID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create installation token for installation %d: %w", installationID, err)
	}
	if token.GetToken() == "" {
		return nil, fmt.Errorf("received an empty installation token")
	}
	c.logger.Debug("created installation token",
		"installation_id", installationID, "expires_at", token.GetExpiresAt())

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token.GetToken()})
	tc := oauth2.NewClient(ctx, ts)

	return NewClient(github.NewClient(tc), c.logger), nil
}
