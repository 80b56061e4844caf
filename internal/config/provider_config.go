package config

import "time"

type ProviderConfig interface {
	GetProviderURL() string
	GetClientID() string
	GetClientSecret() string
	GetRedirectURI() string
	GetDefaultRedirect() string
	GetEncryptTokens() bool
	GetTimestampWindow() time.Duration
}

type Provider struct {
	vars envVars
}

var _ ProviderConfig = Provider{}

func (p Provider) GetProviderURL() string {
	return p.vars.ProviderURL
}

func (p Provider) GetClientID() string {
	return p.vars.ClientID
}

func (p Provider) GetClientSecret() string {
	return p.vars.ClientSecret
}

func (p Provider) GetRedirectURI() string {
	return p.vars.RedirectURI
}

// GetDefaultRedirect returns where the callback sends the browser when the
// flow fails and no usable redirect target survived verification.
func (p Provider) GetDefaultRedirect() string {
	return p.vars.DefaultRedirect
}

func (p Provider) GetEncryptTokens() bool {
	return p.vars.EncryptTokens
}

// GetTimestampWindow is the replay window for signed callback requests.
func (p Provider) GetTimestampWindow() time.Duration {
	return 5 * time.Minute
}
