// Package oauth implements the Google OAuth linking flow: minting consent
// URLs, completing the code exchange, and producing authenticated HTTP
// clients from stored credential blobs.
package oauth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/auth"
	"github.com/dmitrijs2005/notekeeper/internal/server/config"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/repomanager"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DriveFileScope limits the grant to files this app creates.
const DriveFileScope = "https://www.googleapis.com/auth/drive.file"

// Coordinator drives the linking flow against one OAuth provider. The
// endpoint is a field so tests can point it at a local server.
type Coordinator struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cfg         *config.Config
	secret      []byte
	endpoint    oauth2.Endpoint
	logger      logging.Logger
}

func NewCoordinator(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *Coordinator {
	return &Coordinator{
		db:          db,
		repomanager: m,
		cfg:         cfg,
		secret:      []byte(cfg.SecretKey),
		endpoint:    google.Endpoint,
		logger:      logger,
	}
}

// RedirectURI is the callback URL registered with the provider: an explicit
// override when configured, otherwise derived from the backend base URL.
func (c *Coordinator) RedirectURI() string {
	if c.cfg.RedirectURI != "" {
		return c.cfg.RedirectURI
	}
	return strings.TrimRight(c.cfg.BackendURL, "/") + "/auth/google/callback"
}

func (c *Coordinator) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.cfg.GoogleClientID,
		ClientSecret: c.cfg.GoogleClientSecret,
		RedirectURL:  c.RedirectURI(),
		Scopes:       []string{DriveFileScope},
		Endpoint:     c.endpoint,
	}
}

func (c *Coordinator) providerClient() *http.Client {
	return &http.Client{Timeout: c.cfg.ProviderTimeout}
}

// AuthURL mints a consent URL for userID. The embedded state binds the
// eventual callback to this user; offline access and forced consent make the
// provider return a refresh token even on re-linking.
func (c *Coordinator) AuthURL(userID string) (string, error) {
	if c.cfg.GoogleClientID == "" || c.cfg.GoogleClientSecret == "" {
		return "", fmt.Errorf("%w: google oauth client is not configured", common.ErrorInternal)
	}

	state := auth.NewLinkState(userID, c.secret)
	u := c.oauthConfig().AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"))

	return u, nil
}

// HandleCallback verifies the returned state, exchanges the authorization
// code, and stores the resulting credential blob for the bound user. When the
// library exchange fails, one manual POST to the token endpoint is attempted
// before giving up.
func (c *Coordinator) HandleCallback(ctx context.Context, code, state string) error {
	userID, err := auth.VerifyLinkState(state, c.secret, auth.StateTTL)
	if err != nil {
		return err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.providerClient())

	tok, err := c.oauthConfig().Exchange(ctx, code)
	if err != nil {
		c.logger.Warn(ctx, "library token exchange failed, retrying manually", "error", err)
		tok, err = c.manualExchange(ctx, code)
		if err != nil {
			return fmt.Errorf("exchanging authorization code: %w", err)
		}
	}

	cred := c.credentialFromToken(tok)
	repo := c.repomanager.Credentials(c.db)
	if err := repo.Set(ctx, userID, cred); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}

	c.logger.Info(ctx, "remote storage linked", "user_id", userID)
	return nil
}

func (c *Coordinator) credentialFromToken(tok *oauth2.Token) *models.Credential {
	return &models.Credential{
		Token:        tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     c.endpoint.TokenURL,
		ClientID:     c.cfg.GoogleClientID,
		ClientSecret: c.cfg.GoogleClientSecret,
		Scopes:       []string{DriveFileScope},
		Expiry:       tok.Expiry,
	}
}

// manualExchange posts the authorization-code grant directly to the token
// endpoint. It exists because some provider responses trip up the library
// (e.g. non-canonical content types) while remaining perfectly usable.
func (c *Coordinator) manualExchange(ctx context.Context, code string) (*oauth2.Token, error) {
	form := url.Values{
		"code":          {code},
		"client_id":     {c.cfg.GoogleClientID},
		"client_secret": {c.cfg.GoogleClientSecret},
		"redirect_uri":  {c.RedirectURI()},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.providerClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	if payload.AccessToken == "" {
		return nil, errors.New("token response contains no access token")
	}

	tok := &oauth2.Token{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		TokenType:    payload.TokenType,
	}
	if payload.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	}
	return tok, nil
}

// Client returns an HTTP client carrying the user's stored grant, refreshing
// it first when expired. A refresh the provider rejects yields
// common.ErrReconnectRequired; the stored blob is kept so the user can
// re-consent without losing the link record.
func (c *Coordinator) Client(ctx context.Context, userID string) (*http.Client, error) {
	repo := c.repomanager.Credentials(c.db)

	cred, err := repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotLinked) || errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrNotLinked
		}
		return nil, fmt.Errorf("loading credential: %w", err)
	}

	conf := c.oauthConfig()
	if cred.TokenURI != "" {
		conf.Endpoint.TokenURL = cred.TokenURI
	}

	tok := &oauth2.Token{
		AccessToken:  cred.Token,
		RefreshToken: cred.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       cred.Expiry,
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.providerClient())

	fresh, err := conf.TokenSource(ctx, tok).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			c.logger.Warn(ctx, "provider rejected token refresh", "user_id", userID, "error", err)
			return nil, common.ErrReconnectRequired
		}
		return nil, fmt.Errorf("refreshing token: %w", err)
	}

	if fresh.AccessToken != cred.Token {
		updated := *cred
		updated.Token = fresh.AccessToken
		updated.Expiry = fresh.Expiry
		if fresh.RefreshToken != "" {
			updated.RefreshToken = fresh.RefreshToken
		}
		if err := repo.Set(ctx, userID, &updated); err != nil {
			c.logger.Warn(ctx, "failed to persist refreshed credential", "user_id", userID, "error", err)
		}
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(fresh))
	client.Timeout = c.cfg.ProviderTimeout
	return client, nil
}
