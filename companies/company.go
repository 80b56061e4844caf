// Package companies holds the tenant record for every Genuka company that
// has installed the app, together with its provider credentials.
package companies

import "time"

// Company is a Genuka business account. The ID is assigned by the provider
// and never changes; records are upserted by ID at the end of a successful
// OAuth callback and their tokens mutated on refresh.
//
// Credential fields are excluded from JSON so they can never leak through
// an API response.
type Company struct {
	ID          string `json:"id"`
	Handle      string `json:"handle,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	LogoURL     string `json:"logo_url,omitempty"`
	Phone       string `json:"phone,omitempty"`

	AccessToken       string    `json:"-"`
	RefreshToken      string    `json:"-"`
	TokenExpiresAt    time.Time `json:"-"`
	AuthorizationCode string    `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
