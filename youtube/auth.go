package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"ytautopub/browser"
	"ytautopub/vault"
)

// ErrNoClientSecret indicates no OAuth client descriptor could be found
// locally or in the hub.
var ErrNoClientSecret = errors.New("youtube: client secret not found")

// CredentialStore fetches and persists encrypted credential files.
// *vault.Store satisfies it.
type CredentialStore interface {
	Fetch(ctx context.Context, name string) (string, error)
	Persist(ctx context.Context, paths ...string) error
}

// Authorizer obtains an OAuth redirect URL for an authorization URL.
// *browser.Automator satisfies it.
type Authorizer interface {
	Authorize(ctx context.Context, authURL string) (string, error)
}

// GetService returns an authenticated YouTube API service, acquiring
// credentials through an ordered chain of attempts:
//
//  1. An in-memory cached service from a previous call (no I/O at all).
//  2. Local credential files, fetched from the hub if absent.
//  3. An in-place refresh of an expired token carrying a refresh token;
//     the refreshed token is persisted back to the hub. Refresh failure is
//     best-effort and falls through rather than failing.
//  4. A full browser authorization flow, code exchange, and persist.
func (u *Uploader) GetService(ctx context.Context) (*youtube.Service, error) {
	if u.service != nil {
		return u.service, nil
	}

	tokenPath := u.cfg.TokenPath()
	clientPath := u.cfg.ClientSecretPath()

	if err := u.ensureClientSecret(ctx, clientPath); err != nil {
		return nil, err
	}
	u.ensureToken(ctx, tokenPath)

	conf, err := u.oauthConfig(clientPath)
	if err != nil {
		return nil, err
	}

	token := u.loadUsableToken(tokenPath, conf)

	// Expired token with a refresh token: refresh in place, best-effort.
	if token != nil && !token.Valid() && token.RefreshToken != "" {
		log.Printf("youtube: token expired, refreshing")
		refreshed, err := u.refreshToken(ctx, conf, token)
		if err != nil {
			log.Printf("youtube: refresh failed (%v), falling through to re-authorization", err)
			token = nil
		} else {
			token = refreshed
			if err := u.storeToken(ctx, tokenPath, clientPath, conf, token); err != nil {
				return nil, err
			}
		}
	} else if token != nil && !token.Valid() {
		// Expired with no refresh token is unusable.
		token = nil
	}

	// No usable token: full browser authorization.
	if token == nil {
		token, err = u.runAuthFlow(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err := u.storeToken(ctx, tokenPath, clientPath, conf, token); err != nil {
			return nil, err
		}
	}

	svc, err := u.buildService(ctx, conf, token)
	if err != nil {
		return nil, fmt.Errorf("youtube: build service: %w", err)
	}

	u.service = svc
	return svc, nil
}

// ensureClientSecret makes the client descriptor available at clientPath,
// fetching from the hub or falling back to a copy in the working directory.
func (u *Uploader) ensureClientSecret(ctx context.Context, clientPath string) error {
	if _, err := os.Stat(clientPath); err == nil {
		return nil
	}

	_, err := u.vault.Fetch(ctx, u.cfg.ClientSecretFile)
	if err == nil {
		return nil
	}
	if !errors.Is(err, vault.ErrNotFound) {
		return err
	}

	// First run: the hub has nothing yet. Accept a client secret dropped in
	// the working directory and move it into place.
	data, readErr := os.ReadFile(u.cfg.ClientSecretFile)
	if readErr != nil {
		return fmt.Errorf("%w: not in hub and %s absent locally", ErrNoClientSecret, u.cfg.ClientSecretFile)
	}
	log.Printf("youtube: using local client secret %s (first run)", u.cfg.ClientSecretFile)
	return os.WriteFile(clientPath, data, 0o600)
}

// ensureToken makes the token file available locally when the hub has one.
// A missing token is not an error; it triggers the authorization flow.
func (u *Uploader) ensureToken(ctx context.Context, tokenPath string) {
	if _, err := os.Stat(tokenPath); err == nil {
		return
	}
	if _, err := u.vault.Fetch(ctx, u.cfg.TokenFile); err != nil {
		if !errors.Is(err, vault.ErrNotFound) {
			log.Printf("youtube: token fetch failed: %v", err)
		}
	}
}

// oauthConfig parses the client descriptor into an OAuth2 config.
func (u *Uploader) oauthConfig(clientPath string) (*oauth2.Config, error) {
	data, err := os.ReadFile(clientPath)
	if err != nil {
		return nil, fmt.Errorf("youtube: read client secret: %w", err)
	}
	conf, err := google.ConfigFromJSON(data, u.cfg.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("youtube: parse client secret: %w", err)
	}
	if conf.RedirectURL == "" {
		conf.RedirectURL = "http://localhost/"
	}
	return conf, nil
}

// loadUsableToken loads the stored token, discarding it when it was minted
// for a different client than the current descriptor.
func (u *Uploader) loadUsableToken(tokenPath string, conf *oauth2.Config) *oauth2.Token {
	stored, err := readStoredToken(tokenPath)
	if err != nil {
		return nil
	}

	if stored.ClientID != "" && stored.ClientID != conf.ClientID {
		log.Printf("youtube: stored token belongs to a different client, discarding")
		os.Remove(tokenPath)
		return nil
	}

	return stored.token()
}

// runAuthFlow builds the authorization URL, delegates to the browser
// automator, and exchanges the resulting code for a token.
func (u *Uploader) runAuthFlow(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	// Stale code files from earlier flows must not satisfy this one.
	os.Remove(u.cfg.AuthCodePath)

	state := uuid.NewString()
	authURL := conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)

	log.Printf("youtube: starting browser authorization flow")
	redirect, err := u.authorize(ctx, authURL)
	if err != nil {
		if !errors.Is(err, browser.ErrAutomationTimeout) {
			return nil, err
		}
		// Automation gave up, but a manually completed flow can still land
		// the redirect in the code file.
		log.Printf("youtube: automation timed out, polling %s for a manual handoff", u.cfg.AuthCodePath)
		redirect, err = u.waitForCodeFile(ctx)
		if err != nil {
			return nil, err
		}
	}

	code, err := ExtractCode(redirect)
	if err != nil {
		return nil, err
	}

	token, err := u.exchangeCode(ctx, conf, code)
	if err != nil {
		return nil, fmt.Errorf("youtube: exchange authorization code: %w", err)
	}
	return token, nil
}

// waitForCodeFile polls the configured code file for a redirect URL written
// out of band, bounded by RedirectWait.
func (u *Uploader) waitForCodeFile(ctx context.Context) (string, error) {
	deadline := time.Now().Add(u.cfg.RedirectWait)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(u.cfg.AuthCodePath); err == nil {
			if redirect := strings.TrimSpace(string(data)); redirect != "" {
				return redirect, nil
			}
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(u.cfg.CodePollInterval):
		}
	}
	return "", browser.ErrAutomationTimeout
}

// storeToken writes the token file and persists both credential files back
// to the hub.
func (u *Uploader) storeToken(ctx context.Context, tokenPath, clientPath string, conf *oauth2.Config, token *oauth2.Token) error {
	if err := writeStoredToken(tokenPath, conf, token); err != nil {
		return err
	}
	if err := u.vault.Persist(ctx, tokenPath, clientPath); err != nil {
		return fmt.Errorf("youtube: persist credentials: %w", err)
	}
	return nil
}

// ExtractCode parses the authorization code from an OAuth redirect URL.
// HTML entities are unescaped first, since the URL may have passed through
// a log or file.
func ExtractCode(redirect string) (string, error) {
	parsed, err := url.Parse(html.UnescapeString(redirect))
	if err != nil {
		return "", fmt.Errorf("youtube: parse redirect url: %w", err)
	}
	code := parsed.Query().Get("code")
	if code == "" {
		return "", fmt.Errorf("youtube: redirect url carries no authorization code")
	}
	return code, nil
}

// storedToken is the on-disk token format: the token fields plus the client
// identity it was minted for, so a client secret rotation invalidates it.
type storedToken struct {
	ClientID     string    `json:"client_id,omitempty"`
	ClientSecret string    `json:"client_secret,omitempty"`
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

func (s *storedToken) token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		Expiry:       s.Expiry,
	}
}

func readStoredToken(path string) (*storedToken, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var stored storedToken
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("youtube: parse token file: %w", err)
	}
	if stored.AccessToken == "" && stored.RefreshToken == "" {
		return nil, fmt.Errorf("youtube: token file carries no credentials")
	}
	return &stored, nil
}

func writeStoredToken(path string, conf *oauth2.Config, token *oauth2.Token) error {
	stored := storedToken{
		ClientID:     conf.ClientID,
		ClientSecret: conf.ClientSecret,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("youtube: encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("youtube: write token file: %w", err)
	}
	return nil
}

// defaultRefresh refreshes token via the client's token endpoint.
func defaultRefresh(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*oauth2.Token, error) {
	return conf.TokenSource(ctx, token).Token()
}

// defaultExchange trades an authorization code for a token.
func defaultExchange(ctx context.Context, conf *oauth2.Config, code string) (*oauth2.Token, error) {
	return conf.Exchange(ctx, code)
}

// defaultBuildService constructs the API client and logs the authenticated
// channel, best-effort.
func defaultBuildService(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*youtube.Service, error) {
	svc, err := youtube.NewService(ctx, option.WithTokenSource(conf.TokenSource(ctx, token)))
	if err != nil {
		return nil, err
	}

	resp, err := svc.Channels.List([]string{"snippet"}).Mine(true).Context(ctx).Do()
	if err == nil && len(resp.Items) > 0 && resp.Items[0].Snippet != nil {
		log.Printf("youtube: authenticated as %q", resp.Items[0].Snippet.Title)
	} else {
		log.Printf("youtube: authenticated (channel info unavailable)")
	}

	return svc, nil
}
