// Package calendar imports Outlook calendar events as shifts through
// Microsoft Graph.
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"

	"github.com/Tiliavir/nanny-time-tracker/internal/logger"
)

var requiredScopes = []string{
	"https://graph.microsoft.com/Calendars.Read",
	"offline_access",
}

func msEndpoint(tenantID, path string) string {
	return "https://login.microsoftonline.com/" + tenantID + "/oauth2/v2.0/" + path
}

// Auth signs in to Microsoft identity with the device code flow and keeps
// the token under <Dir>/auth.
type Auth struct {
	Dir      string
	TenantID string
	ClientID string
	// Prompt receives the sign-in instructions. Defaults to stdout.
	Prompt io.Writer
}

func (a *Auth) tokenPath() string {
	return filepath.Join(a.Dir, "auth", "msgraph_tokens.json")
}

func (a *Auth) config() *oauth2.Config {
	return &oauth2.Config{
		ClientID: a.ClientID,
		Scopes:   requiredScopes,
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: msEndpoint(a.TenantID, "devicecode"),
			TokenURL:      msEndpoint(a.TenantID, "token"),
			AuthStyle:     oauth2.AuthStyleInParams,
		},
	}
}

// loadToken returns the saved token, or nil if none is stored.
func (a *Auth) loadToken() (*oauth2.Token, error) {
	path := a.tokenPath()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token file (delete %s to re-authenticate): %w", path, err)
	}
	return &tok, nil
}

func (a *Auth) saveToken(tok *oauth2.Token) error {
	path := a.tokenPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving token file: %w", err)
	}
	return nil
}

// Token returns a usable token: the saved one if still valid, a refreshed
// one, or a new one from the device code flow.
func (a *Auth) Token(ctx context.Context) (*oauth2.Token, error) {
	log := logger.Named("calendar")
	cfg := a.config()

	tok, err := a.loadToken()
	if err != nil {
		log.Warn().Err(err).Msg("ignoring saved token")
		tok = nil
	}
	if tok != nil && tok.Valid() {
		return tok, nil
	}

	if tok != nil && tok.RefreshToken != "" {
		refreshed, err := cfg.TokenSource(ctx, tok).Token()
		if err == nil {
			if err := a.saveToken(refreshed); err != nil {
				log.Warn().Err(err).Msg("could not save refreshed token")
			}
			return refreshed, nil
		}
		log.Info().Err(err).Msg("token refresh failed, re-authenticating")
	}

	resp, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("device auth request failed: %w", err)
	}

	out := a.Prompt
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "To sign in, use a web browser to open the page:")
	fmt.Fprintf(out, "  %s\n", resp.VerificationURI)
	fmt.Fprintf(out, "Enter the code: %s\n", resp.UserCode)
	fmt.Fprintln(out)

	newTok, err := cfg.DeviceAccessToken(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("device authentication failed: %w", err)
	}
	if err := a.saveToken(newTok); err != nil {
		log.Warn().Err(err).Msg("could not save token")
	}
	return newTok, nil
}

// savingTokenSource persists every token it hands out.
type savingTokenSource struct {
	auth *Auth
	ts   oauth2.TokenSource
	log  *logger.Logger
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.ts.Token()
	if err != nil {
		return nil, err
	}
	if err := s.auth.saveToken(tok); err != nil {
		s.log.Warn().Err(err).Msg("could not save refreshed token")
	}
	return tok, nil
}
