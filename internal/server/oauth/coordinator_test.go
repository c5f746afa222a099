package oauth

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/dbx"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/auth"
	"github.com/dmitrijs2005/notekeeper/internal/server/config"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/notes"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/users"
	"golang.org/x/oauth2"
)

type memCredsRepo struct {
	byUser map[string]*models.Credential
}

func (r *memCredsRepo) Get(ctx context.Context, userID string) (*models.Credential, error) {
	cred, ok := r.byUser[userID]
	if !ok {
		return nil, common.ErrNotLinked
	}
	return cred, nil
}

func (r *memCredsRepo) Set(ctx context.Context, userID string, cred *models.Credential) error {
	r.byUser[userID] = cred
	return nil
}

func (r *memCredsRepo) Linked(ctx context.Context, userID string) (bool, error) {
	_, ok := r.byUser[userID]
	return ok, nil
}

type credsOnlyManager struct {
	creds *memCredsRepo
}

func (m *credsOnlyManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }

func (m *credsOnlyManager) Users(db dbx.DBTX) users.Repository { return nil }

func (m *credsOnlyManager) Notes(db dbx.DBTX) notes.Repository { return nil }

func (m *credsOnlyManager) Credentials(db dbx.DBTX) credentials.Repository { return m.creds }

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newCoordinator(t *testing.T) (*Coordinator, *memCredsRepo, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		SecretKey:          "test-secret",
		BackendURL:         "http://localhost:5001",
		GoogleClientID:     "cid",
		GoogleClientSecret: "cs",
		ProviderTimeout:    5 * time.Second,
	}
	creds := &memCredsRepo{byUser: map[string]*models.Credential{}}
	c := NewCoordinator(nil, &credsOnlyManager{creds: creds}, cfg, testLogger())
	return c, creds, cfg
}

func TestAuthURL_CarriesBoundState(t *testing.T) {
	c, _, _ := newCoordinator(t)

	raw, err := c.AuthURL("7")
	if err != nil {
		t.Fatalf("AuthURL error: %v", err)
	}

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parsing auth url: %v", err)
	}
	q := u.Query()

	if q.Get("access_type") != "offline" {
		t.Errorf("access_type = %q, want offline", q.Get("access_type"))
	}
	if q.Get("prompt") != "consent" {
		t.Errorf("prompt = %q, want consent", q.Get("prompt"))
	}
	if q.Get("include_granted_scopes") != "true" {
		t.Errorf("include_granted_scopes = %q, want true", q.Get("include_granted_scopes"))
	}
	if got := q.Get("redirect_uri"); got != "http://localhost:5001/auth/google/callback" {
		t.Errorf("redirect_uri = %q", got)
	}

	userID, err := auth.VerifyLinkState(q.Get("state"), []byte("test-secret"), auth.StateTTL)
	if err != nil {
		t.Fatalf("state verification error: %v", err)
	}
	if userID != "7" {
		t.Fatalf("state bound to %q, want 7", userID)
	}
}

func TestAuthURL_NotConfigured(t *testing.T) {
	c, _, cfg := newCoordinator(t)
	cfg.GoogleClientID = ""

	if _, err := c.AuthURL("7"); !errors.Is(err, common.ErrorInternal) {
		t.Fatalf("expected ErrorInternal, got %v", err)
	}
}

func TestHandleCallback_StoresCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if r.Form.Get("grant_type") != "authorization_code" || r.Form.Get("code") != "the-code" {
			t.Errorf("unexpected exchange form: %v", r.Form)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at","refresh_token":"rt","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	c, creds, _ := newCoordinator(t)
	c.endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}

	state := auth.NewLinkState("7", []byte("test-secret"))
	if err := c.HandleCallback(context.Background(), "the-code", state); err != nil {
		t.Fatalf("HandleCallback error: %v", err)
	}

	cred, ok := creds.byUser["7"]
	if !ok {
		t.Fatalf("expected stored credential for user 7")
	}
	if cred.Token != "at" || cred.RefreshToken != "rt" {
		t.Fatalf("unexpected credential: %+v", cred)
	}
	if cred.TokenURI != srv.URL+"/token" || cred.ClientID != "cid" {
		t.Fatalf("unexpected credential metadata: %+v", cred)
	}
}

func TestHandleCallback_BadState(t *testing.T) {
	c, creds, _ := newCoordinator(t)

	err := c.HandleCallback(context.Background(), "code", "garbage")
	if !errors.Is(err, common.ErrStateInvalid) {
		t.Fatalf("expected ErrStateInvalid, got %v", err)
	}
	if len(creds.byUser) != 0 {
		t.Fatalf("no credential should be stored on bad state")
	}
}

func TestManualExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if r.Form.Get("client_id") != "cid" || r.Form.Get("client_secret") != "cs" {
			t.Errorf("unexpected client credentials: %v", r.Form)
		}
		// deliberately odd content type, the reason this fallback exists
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(`{"access_token":"manual-at","refresh_token":"manual-rt","token_type":"Bearer","expires_in":60}`))
	}))
	defer srv.Close()

	c, _, _ := newCoordinator(t)
	c.endpoint = oauth2.Endpoint{TokenURL: srv.URL}

	tok, err := c.manualExchange(context.Background(), "code")
	if err != nil {
		t.Fatalf("manualExchange error: %v", err)
	}
	if tok.AccessToken != "manual-at" || tok.RefreshToken != "manual-rt" {
		t.Fatalf("unexpected token: %+v", tok)
	}
	if tok.Expiry.IsZero() {
		t.Fatalf("expected expiry to be set")
	}
}

func TestManualExchange_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c, _, _ := newCoordinator(t)
	c.endpoint = oauth2.Endpoint{TokenURL: srv.URL}

	_, err := c.manualExchange(context.Background(), "code")
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestClient_NotLinked(t *testing.T) {
	c, _, _ := newCoordinator(t)

	_, err := c.Client(context.Background(), "7")
	if !errors.Is(err, common.ErrNotLinked) {
		t.Fatalf("expected ErrNotLinked, got %v", err)
	}
}

func TestClient_RefreshesAndPersists(t *testing.T) {
	refreshed := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if r.Form.Get("grant_type") != "refresh_token" || r.Form.Get("refresh_token") != "rt" {
			t.Errorf("unexpected refresh form: %v", r.Form)
		}
		refreshed = true
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"new-at","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	c, creds, _ := newCoordinator(t)
	creds.byUser["7"] = &models.Credential{
		Token:        "old-at",
		RefreshToken: "rt",
		TokenURI:     srv.URL,
		Expiry:       time.Now().Add(-time.Hour),
	}

	client, err := c.Client(context.Background(), "7")
	if err != nil {
		t.Fatalf("Client error: %v", err)
	}
	if client == nil {
		t.Fatalf("expected a client")
	}
	if !refreshed {
		t.Fatalf("expected a refresh call")
	}

	stored := creds.byUser["7"]
	if stored.Token != "new-at" {
		t.Fatalf("expected refreshed access token persisted, got %q", stored.Token)
	}
	if stored.RefreshToken != "rt" {
		t.Fatalf("expected refresh token preserved, got %q", stored.RefreshToken)
	}
}

func TestClient_NoRefreshWhileValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call to token endpoint")
	}))
	defer srv.Close()

	c, creds, _ := newCoordinator(t)
	creds.byUser["7"] = &models.Credential{
		Token:        "at",
		RefreshToken: "rt",
		TokenURI:     srv.URL,
		Expiry:       time.Now().Add(time.Hour),
	}

	if _, err := c.Client(context.Background(), "7"); err != nil {
		t.Fatalf("Client error: %v", err)
	}
	if creds.byUser["7"].Token != "at" {
		t.Fatalf("stored token should be untouched")
	}
}

func TestClient_RevokedGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c, creds, _ := newCoordinator(t)
	original := &models.Credential{
		Token:        "old-at",
		RefreshToken: "revoked",
		TokenURI:     srv.URL,
		Expiry:       time.Now().Add(-time.Hour),
	}
	creds.byUser["7"] = original

	_, err := c.Client(context.Background(), "7")
	if !errors.Is(err, common.ErrReconnectRequired) {
		t.Fatalf("expected ErrReconnectRequired, got %v", err)
	}
	if creds.byUser["7"] != original {
		t.Fatalf("stored blob must not be erased on refresh failure")
	}
}
