package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"booktracker/internal/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// serviceAccountService builds a Drive client from the configured service
// account key file. Service accounts have no storage quota of their own
// in consumer Drive, so uploads through this client can hit a quota error
// that the user-credential client does not.
func serviceAccountService(ctx context.Context) (*drive.Service, error) {
	if config.DriveCredentialsFile == "" {
		return nil, fmt.Errorf("no service account credentials configured")
	}
	return drive.NewService(ctx,
		option.WithCredentialsFile(config.DriveCredentialsFile),
		option.WithScopes(drive.DriveFileScope))
}

// userService builds a Drive client from stored user OAuth credentials,
// refreshing and persisting the token when needed. When no stored token
// exists it runs the interactive console authorization flow.
func userService(ctx context.Context) (*drive.Service, error) {
	if config.DriveClientID == "" || config.DriveClientSecret == "" {
		return nil, fmt.Errorf("no OAuth client configured")
	}

	conf := &oauth2.Config{
		ClientID:     config.DriveClientID,
		ClientSecret: config.DriveClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
	}

	token, err := tokenFromFile(config.DriveTokenFile)
	if err != nil {
		token, err = tokenFromConsole(ctx, conf)
		if err != nil {
			return nil, err
		}
		saveToken(config.DriveTokenFile, token)
	}

	source := conf.TokenSource(ctx, token)
	fresh, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh OAuth token: %w", err)
	}
	if fresh.AccessToken != token.AccessToken {
		saveToken(config.DriveTokenFile, fresh)
	}

	return drive.NewService(ctx, option.WithTokenSource(source))
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", path, err)
	}
	return token, nil
}

// tokenFromConsole runs the out-of-band authorization flow: the user
// visits the printed URL and pastes the code back on stdin.
func tokenFromConsole(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	authURL := conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Open the following link in your browser and paste the authorization code:\n%s\n> ", authURL)

	var code string
	if _, err := fmt.Scan(&code); err != nil {
		return nil, fmt.Errorf("failed to read authorization code: %w", err)
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token, nil
}

func saveToken(path string, token *oauth2.Token) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		slog.Warn("Failed to persist OAuth token", "path", path, "error", err)
		return
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		slog.Warn("Failed to write OAuth token", "path", path, "error", err)
	}
}
