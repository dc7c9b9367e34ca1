// Package authn produces a currently-valid bearer token for the remote
// server, trying the cached token first, then a refresh, then a full
// login. All token state lives in the credentials repository.
package authn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mrlokans/shelfsync/internal/entities"
)

const (
	loginPath   = "/api/v1/auth/login"
	refreshPath = "/api/v1/auth/refresh"

	// TokenExpiryBuffer is how long before expiry a cached token stops
	// being trusted.
	TokenExpiryBuffer = 60 * time.Second

	// defaultExpiresIn is assumed when the server omits expires_in.
	defaultExpiresIn = 3600
)

// CredentialStore is the persistence contract the manager needs.
type CredentialStore interface {
	Get() (*entities.Credentials, error)
	SetTokens(accessToken, refreshToken string, expiresAt time.Time) error
	ClearTokens() error
}

// Manager obtains and caches bearer tokens.
type Manager struct {
	store      CredentialStore
	httpClient *http.Client
}

// NewManager creates an auth manager using the given credential store.
func NewManager(store CredentialStore, timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Manager{
		store: store,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

// ValidToken returns a bearer token that is valid for at least
// TokenExpiryBuffer. Priority order is cache, then refresh, then full
// login; reordering would either log in too often or transmit the
// password more than necessary.
func (m *Manager) ValidToken(ctx context.Context) (string, error) {
	creds, err := m.store.Get()
	if err != nil {
		return "", fmt.Errorf("failed to load credentials: %w", err)
	}

	if creds.HasValidToken(TokenExpiryBuffer) {
		return creds.AccessToken, nil
	}

	if creds.RefreshToken != "" {
		token, refreshErr := m.refresh(ctx, creds)
		if refreshErr == nil {
			return token, nil
		}
		log.Printf("Auth: token refresh failed, falling back to login: %v", refreshErr)
	}

	return m.login(ctx, creds)
}

// login exchanges the stored username and password for a token pair.
// On rejection the stored credentials are left untouched.
func (m *Manager) login(ctx context.Context, creds *entities.Credentials) (string, error) {
	if !creds.IsConfigured() {
		return "", ErrNotConfigured
	}

	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(creds.BaseURL, "/")+loginPath,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &AuthError{Op: "login", Status: resp.StatusCode}
	}

	token, err := m.persistTokens(resp.Body)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	log.Printf("Auth: logged in as %s", creds.Username)
	return token, nil
}

// refresh exchanges the refresh token for a new token pair. Any failure
// clears both tokens so the next attempt performs a full login.
func (m *Manager) refresh(ctx context.Context, creds *entities.Credentials) (string, error) {
	payload, err := json.Marshal(map[string]string{"refresh_token": creds.RefreshToken})
	if err != nil {
		return "", fmt.Errorf("failed to encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(creds.BaseURL, "/")+refreshPath,
		strings.NewReader(string(payload)))
	if err != nil {
		return "", fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		if clearErr := m.store.ClearTokens(); clearErr != nil {
			log.Printf("Auth: failed to clear tokens: %v", clearErr)
		}
		return "", fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if clearErr := m.store.ClearTokens(); clearErr != nil {
			log.Printf("Auth: failed to clear tokens: %v", clearErr)
		}
		return "", &AuthError{Op: "refresh", Status: resp.StatusCode}
	}

	token, err := m.persistTokens(resp.Body)
	if err != nil {
		return "", fmt.Errorf("refresh: %w", err)
	}
	return token, nil
}

func (m *Manager) persistTokens(body io.Reader) (string, error) {
	var tr tokenResponse
	if err := json.NewDecoder(body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token response carried no access token")
	}

	expiresIn := tr.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}
	expiresAt := time.Now().Add(time.Duration(expiresIn) * time.Second)

	if err := m.store.SetTokens(tr.AccessToken, tr.RefreshToken, expiresAt); err != nil {
		return "", fmt.Errorf("failed to persist tokens: %w", err)
	}
	return tr.AccessToken, nil
}
