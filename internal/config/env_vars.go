package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDatabaseURL() string
	GetEnv() string
	IsProduction() bool
	GetCORSAllowedOrigin() string
}

// envVars holds the raw environment values. Loaded once at startup and
// treated as immutable afterwards.
type envVars struct {
	Port        string `env:"PORT" envDefault:"8080"`
	AppName     string `env:"APP_NAME" envDefault:"Genuka Bridge"`
	Env         string `env:"ENV" envDefault:"DEV"`
	DatabaseURL string `env:"DATABASE_URL"`
	CORSOrigin  string `env:"CORS_ALLOWED_ORIGIN" envDefault:"*"`

	ProviderURL     string `env:"GENUKA_URL" envDefault:"https://api-staging.genuka.com"`
	ClientID        string `env:"GENUKA_CLIENT_ID"`
	ClientSecret    string `env:"GENUKA_CLIENT_SECRET"`
	RedirectURI     string `env:"GENUKA_REDIRECT_URI"`
	DefaultRedirect string `env:"GENUKA_DEFAULT_REDIRECT" envDefault:"/"`
	EncryptTokens   bool   `env:"GENUKA_ENCRYPT_TOKENS" envDefault:"true"`
}

func parseEnvVars() (envVars, error) {
	var vars envVars
	if err := env.Parse(&vars); err != nil {
		return envVars{}, fmt.Errorf("parse env: %w", err)
	}
	return vars, nil
}

type EnvVars struct {
	vars envVars
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.vars.Port
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.vars.AppName
}

func (e EnvVars) GetDatabaseURL() string {
	return e.vars.DatabaseURL
}

func (e EnvVars) GetEnv() string {
	return e.vars.Env
}

func (e EnvVars) IsProduction() bool {
	return e.vars.Env == "production"
}

func (e EnvVars) GetCORSAllowedOrigin() string {
	return e.vars.CORSOrigin
}
