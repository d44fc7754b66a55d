package config

type Config interface {
	EnvConfig
	BackendConfig
	GoogleConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
}

type BackendConfig interface {
	GetAPIBaseURL() string
}

type GoogleConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleIssuer() string
	GetGoogleRedirectURL() string
}

type mainConfig struct {
	EnvVars
	Backend
	Google
}

func New() Config {
	return mainConfig{}
}
