// Package credentials stores the server address, login account and
// cached tokens for the agent. There is exactly one credentials row per
// install; all token mutation goes through this repository so that no
// other component caches a token independently.
package credentials

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/shelfsync/internal/entities"
)

// Repository handles all credentials database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new credentials repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the credentials row, creating an empty one on first use.
func (r *Repository) Get() (*entities.Credentials, error) {
	var creds entities.Credentials
	result := r.db.First(&creds)
	if result.Error == gorm.ErrRecordNotFound {
		if err := r.db.Create(&creds).Error; err != nil {
			return nil, fmt.Errorf("failed to create credentials row: %w", err)
		}
		return &creds, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", result.Error)
	}
	return &creds, nil
}

// SetServer updates the server address and login account. Cached tokens
// are cleared because they belong to the previous account.
func (r *Repository) SetServer(baseURL, username, password string) error {
	creds, err := r.Get()
	if err != nil {
		return err
	}
	creds.BaseURL = baseURL
	creds.Username = username
	creds.Password = password
	creds.AccessToken = ""
	creds.RefreshToken = ""
	creds.TokenExpiresAt = nil
	return r.db.Save(creds).Error
}

// SetTokens persists a freshly obtained token pair. The expiry moves
// together with the access token.
func (r *Repository) SetTokens(accessToken, refreshToken string, expiresAt time.Time) error {
	creds, err := r.Get()
	if err != nil {
		return err
	}
	creds.AccessToken = accessToken
	if refreshToken != "" {
		creds.RefreshToken = refreshToken
	}
	creds.TokenExpiresAt = &expiresAt
	return r.db.Save(creds).Error
}

// ClearTokens drops both tokens, forcing a full login on the next sync.
func (r *Repository) ClearTokens() error {
	creds, err := r.Get()
	if err != nil {
		return err
	}
	creds.AccessToken = ""
	creds.RefreshToken = ""
	creds.TokenExpiresAt = nil
	return r.db.Save(creds).Error
}
