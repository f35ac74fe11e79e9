package config

import (
	"time"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	ClientConfig
	SessionConfig
	BackendConfig
	CorsConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetAccountURL() string
	GetFnBURL() string
}

type ClientConfig interface {
	GetTokenPrefix() string
	GetAPIDebug() bool
	GetRequestTimeout() time.Duration
}

type SessionConfig interface {
	GetSessionStore() string
	GetSessionFile() string
	GetRedisAddr() string
	GetRedisKey() string
	GetSessionTTL() time.Duration
}

type BackendConfig interface {
	GetPort() string
	GetFnBPort() string
	GetSigningSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetSeedUsername() string
	GetSeedPassword() string
	GetSeedClients() []string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Client
	Session
	Backend
	Cors
}

func New() Config {
	return mainConfig{}
}

// Load reads .env style files into the process environment before New is called.
// Missing files are not an error; real environment variables always win.
func Load(files ...string) Config {
	_ = godotenv.Load(files...)
	return New()
}
