package entities

import (
	"time"
)

// Credentials holds the server address, the account used for login and
// the currently cached tokens. There is a single row per install.
//
// AccessToken and TokenExpiresAt are always set and cleared together; a
// rejected refresh clears both tokens so the next sync performs a full
// login.
type Credentials struct {
	ID uint `gorm:"primaryKey" json:"id"`

	BaseURL  string `gorm:"size:512" json:"base_url"`
	Username string `gorm:"size:255" json:"username"`
	Password string `gorm:"size:255" json:"-"`

	AccessToken    string     `gorm:"type:text" json:"-"`
	RefreshToken   string     `gorm:"type:text" json:"-"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Credentials) TableName() string {
	return "credentials"
}

// IsConfigured reports whether a login is possible at all.
func (c *Credentials) IsConfigured() bool {
	return c.BaseURL != "" && c.Username != "" && c.Password != ""
}

// HasValidToken reports whether the cached access token is still usable,
// leaving at least buffer before it expires.
func (c *Credentials) HasValidToken(buffer time.Duration) bool {
	if c.AccessToken == "" || c.TokenExpiresAt == nil {
		return false
	}
	return time.Now().Add(buffer).Before(*c.TokenExpiresAt)
}
