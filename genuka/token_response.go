package genuka

import "time"

// defaultExpiryMinutes is assumed when the provider omits the field.
const defaultExpiryMinutes = 60

// TokenResponse is the body returned by the token and refresh endpoints.
// Genuka reports expiry in minutes, not the usual seconds.
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresInMinutes int    `json:"expires_in_minutes"`
}

// ExpiresAt converts the relative expiry into an absolute time.
func (t *TokenResponse) ExpiresAt(now time.Time) time.Time {
	minutes := t.ExpiresInMinutes
	if minutes <= 0 {
		minutes = defaultExpiryMinutes
	}
	return now.Add(time.Duration(minutes) * time.Minute)
}
