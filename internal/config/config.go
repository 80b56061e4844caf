package config

type Config interface {
	EnvConfig
	ProviderConfig
	SessionConfig
}

type mainConfig struct {
	EnvVars
	Provider
	Session
}

func New() (Config, error) {
	vars, err := parseEnvVars()
	if err != nil {
		return nil, err
	}
	return mainConfig{
		EnvVars:  EnvVars{vars},
		Provider: Provider{vars},
		Session:  Session{},
	}, nil
}
